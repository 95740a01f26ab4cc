package models

import "time"

// BetResult is the settlement state of a bet
type BetResult string

const (
	ResultPending BetResult = "pending"
	ResultWon     BetResult = "won"
	ResultLost    BetResult = "lost"
	ResultVoid    BetResult = "void"
	ResultPush    BetResult = "push"
)

// IsSettled reports whether the result is terminal
func (r BetResult) IsSettled() bool {
	switch r {
	case ResultWon, ResultLost, ResultVoid, ResultPush:
		return true
	}
	return false
}

// Valid reports whether r is a known result
func (r BetResult) Valid() bool {
	return r == ResultPending || r.IsSettled()
}

// StakingStrategy names a staking policy
type StakingStrategy string

const (
	StrategyFlat       StakingStrategy = "flat"
	StrategyKelly      StakingStrategy = "kelly"
	StrategyConfidence StakingStrategy = "confidence"
)

// Strategies lists every staking policy in a fixed order
var Strategies = []StakingStrategy{StrategyFlat, StrategyKelly, StrategyConfidence}

// Bet is a ledger entry. Settlement produces a new value that replaces the
// pending one by ID; a settled bet never returns to pending.
type Bet struct {
	ID          string          `json:"id"`
	MatchID     string          `json:"match_id"`
	Market      string          `json:"market"`
	Selection   string          `json:"selection"`
	Odds        float64         `json:"odds"`
	Stake       float64         `json:"stake"`
	Strategy    StakingStrategy `json:"strategy"`
	EV          float64         `json:"ev"`
	Confidence  float64         `json:"confidence"`
	Line        *float64        `json:"line,omitempty"` // totals/handicap line
	CreatedAt   time.Time       `json:"created_at"`
	Result      BetResult       `json:"result"`
	SettledAt   *time.Time      `json:"settled_at,omitempty"`
	Profit      *float64        `json:"profit,omitempty"`
	ClosingOdds *float64        `json:"closing_odds,omitempty"`
}

// RealizedProfit returns the settled profit, or 0 while pending
func (b Bet) RealizedProfit() float64 {
	if b.Profit == nil {
		return 0
	}
	return *b.Profit
}

// ProfitFor computes the profit of a stake at fixed decimal odds.
// Won pays stake*(odds-1), lost forfeits the stake, everything else returns it.
func ProfitFor(result BetResult, stake, odds float64) float64 {
	switch result {
	case ResultWon:
		return stake * (odds - 1)
	case ResultLost:
		return -stake
	default:
		return 0
	}
}

// BankrollSnapshot is the ledger state at a point in time
type BankrollSnapshot struct {
	Timestamp    time.Time `json:"timestamp"`
	Balance      float64   `json:"balance"`
	Peak         float64   `json:"peak"`
	TotalStaked  float64   `json:"total_staked"` // settled bets only
	TotalProfit  float64   `json:"total_profit"`
	SettledCount int       `json:"settled_count"`
	OpenCount    int       `json:"open_count"`
	OpenStake    float64   `json:"open_stake"`
	ROI          float64   `json:"roi"`
}
