package staking

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/stats"
	"github.com/sirupsen/logrus"
)

// BankrollSource is the read side of the ledger the engine sizes stakes from
type BankrollSource interface {
	Bets() []models.Bet
	CurrentBankroll() float64
	PeakBankroll() float64
}

// Engine sizes stakes with the configured default policy and replays the ledger
// under alternative policies
type Engine struct {
	ledger   BankrollSource
	cfg      config.BankrollConfig
	policies map[models.StakingStrategy]Policy
	filter   *SlipFilter
	now      func() time.Time
	log      *logrus.Entry
}

// NewEngine creates a staking engine over a ledger
func NewEngine(ledger BankrollSource, bankroll config.BankrollConfig, slips config.SlipsConfig) (*Engine, error) {
	policies := make(map[models.StakingStrategy]Policy, len(models.Strategies))
	for _, s := range models.Strategies {
		p, err := NewPolicy(s, bankroll)
		if err != nil {
			return nil, err
		}
		policies[s] = p
	}

	if _, ok := policies[bankroll.DefaultStrategy]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, bankroll.DefaultStrategy)
	}

	return &Engine{
		ledger:   ledger,
		cfg:      bankroll,
		policies: policies,
		filter:   NewSlipFilter(slips),
		now:      func() time.Time { return time.Now().UTC() },
		log:      logger.For("staking"),
	}, nil
}

// Policy returns the policy for a strategy
func (e *Engine) Policy(strategy models.StakingStrategy) (Policy, error) {
	p, ok := e.policies[strategy]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
	return p, nil
}

// MakeStakingDecision sizes a candidate bet with the default policy against the
// current bankroll and attaches the drawdown assessment
func (e *Engine) MakeStakingDecision(matchID, market, selection string, odds, ev, confidence float64) (*models.StakingDecision, error) {
	if odds <= 1.0 {
		return nil, fmt.Errorf("odds must be above 1.0, got %.2f", odds)
	}

	policy := e.policies[e.cfg.DefaultStrategy]
	bankroll := e.ledger.CurrentBankroll()
	candidate := Candidate{Odds: odds, EV: ev, Confidence: confidence}

	stake := stats.Round(policy.Stake(bankroll, candidate), 2)
	risk := AssessRisk(e.ledger.PeakBankroll(), bankroll)

	decision := &models.StakingDecision{
		MatchID:          matchID,
		Market:           market,
		Selection:        selection,
		Odds:             odds,
		EV:               ev,
		Confidence:       confidence,
		Strategy:         policy.Strategy(),
		Bankroll:         bankroll,
		Stake:            stake,
		BankrollFraction: stats.SafeDiv(stake, bankroll),
		Risk:             risk,
		DecidedAt:        e.now(),
	}

	decision.Rationale = fmt.Sprintf("%s -> %.2f (%.2f%% of %.2f bankroll)",
		policy.Describe(bankroll, candidate), stake, decision.BankrollFraction*100, bankroll)

	qualified, reason := e.filter.Qualifies(ev, confidence)
	decision.Qualified = qualified
	if !qualified {
		decision.Warnings = append(decision.Warnings, reason)
	}
	if ev <= 0 {
		decision.Warnings = append(decision.Warnings, "No edge - stake is the policy floor")
	}
	if risk.Level != models.RiskOK {
		decision.Warnings = append(decision.Warnings, risk.Message)
	}
	if bankroll <= 0 {
		decision.Warnings = append(decision.Warnings, "Bankroll exhausted")
	}

	e.log.WithFields(logrus.Fields{
		"match":     matchID,
		"selection": selection,
		"strategy":  decision.Strategy,
		"stake":     stake,
		"qualified": qualified,
		"risk":      risk.Level,
	}).Debug("staking decision")

	return decision, nil
}

// SimulateAlternativeStrategy replays the ledger under another policy
func (e *Engine) SimulateAlternativeStrategy(strategy models.StakingStrategy) (*models.SimulationResult, error) {
	policy, err := e.Policy(strategy)
	if err != nil {
		return nil, err
	}

	result := Simulate(e.ledger.Bets(), policy, e.cfg.InitialBankroll)
	return &result, nil
}

// CompareStrategies replays the same ledger snapshot under every policy concurrently
// and ranks them by final bankroll
func (e *Engine) CompareStrategies() (*models.StrategyComparison, error) {
	bets := e.ledger.Bets()
	results := make([]models.SimulationResult, len(models.Strategies))

	var wg sync.WaitGroup
	for i, s := range models.Strategies {
		wg.Add(1)
		go func(i int, policy Policy) {
			defer wg.Done()
			results[i] = Simulate(bets, policy, e.cfg.InitialBankroll)
		}(i, e.policies[s])
	}
	wg.Wait()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].FinalBankroll != results[j].FinalBankroll {
			return results[i].FinalBankroll > results[j].FinalBankroll
		}
		return results[i].Strategy < results[j].Strategy
	})

	comparison := &models.StrategyComparison{Results: results}
	if len(results) > 0 {
		comparison.Best = results[0].Strategy
	}

	e.log.WithFields(logrus.Fields{
		"bets": len(bets),
		"best": comparison.Best,
	}).Info("strategy comparison complete")

	return comparison, nil
}
