// Package pipeline runs each ingested quote through pricing, sharp detection and
// staking, and publishes what it finds.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/internal/odds"
	"github.com/dennisgathu8/house-hedge/internal/publisher"
	"github.com/dennisgathu8/house-hedge/internal/sharp"
	"github.com/dennisgathu8/house-hedge/internal/staking"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/sirupsen/logrus"
)

// BetRecorder is the write side of the ledger the pipeline places bets through
type BetRecorder interface {
	Append(ctx context.Context, bet models.Bet) (models.Bet, error)
	Pending(matchID string) []models.Bet
}

// Pipeline is the per-quote data flow
type Pipeline struct {
	odds      *odds.Engine
	sharp     *sharp.Detector
	staking   *staking.Engine
	ledger    BetRecorder
	publisher publisher.Publisher
	autoPlace bool
	now       func() time.Time
	log       *logrus.Entry

	mu     sync.RWMutex
	public map[string]models.PublicBetting
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithAutoPlace appends qualifying decisions to the ledger
func WithAutoPlace(enabled bool) Option {
	return func(p *Pipeline) { p.autoPlace = enabled }
}

// WithClock overrides the time source stamped on events
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline. A nil publisher discards events.
func New(oddsEngine *odds.Engine, detector *sharp.Detector, stakingEngine *staking.Engine, ledger BetRecorder, pub publisher.Publisher, opts ...Option) *Pipeline {
	if pub == nil {
		pub = publisher.Nop{}
	}

	p := &Pipeline{
		odds:      oddsEngine,
		sharp:     detector,
		staking:   stakingEngine,
		ledger:    ledger,
		publisher: pub,
		now:       func() time.Time { return time.Now().UTC() },
		log:       logger.For("pipeline"),
		public:    make(map[string]models.PublicBetting),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func publicKey(matchID, market string) string {
	return matchID + ":" + market
}

// UpdatePublicBetting stores the latest public split for a match market
func (p *Pipeline) UpdatePublicBetting(pb models.PublicBetting) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.public[publicKey(pb.MatchID, pb.Market)] = pb
}

// PublicBetting returns the latest public split for a match market
func (p *Pipeline) PublicBetting(matchID, market string) (models.PublicBetting, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	pb, ok := p.public[publicKey(matchID, market)]
	return pb, ok
}

// Outcome is everything one quote produced
type Outcome struct {
	EVs       []models.EVResult
	Arbitrage *models.ArbitrageOpportunity
	Analysis  models.MatchAnalysis
	Decisions []models.StakingDecision
	Placed    []models.Bet
}

// HandleQuote applies a quote and re-evaluates its match market: EV at the best
// prices, arbitrage, sharp signals over the consensus line, and a staking decision
// for every selection with positive EV. Publish failures are logged, not returned.
func (p *Pipeline) HandleQuote(ctx context.Context, q models.OddsQuote) error {
	_, err := p.Process(ctx, q)
	return err
}

// Process is HandleQuote returning what the quote produced
func (p *Pipeline) Process(ctx context.Context, q models.OddsQuote) (*Outcome, error) {
	if err := p.odds.Apply(q); err != nil {
		return nil, err
	}

	evs, err := p.odds.Evaluate(q.MatchID, q.Market)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate %s/%s: %w", q.MatchID, q.Market, err)
	}

	out := &Outcome{EVs: evs}
	p.publish(ctx, models.EventEVResult, q, evs)

	if arb := p.odds.Arbitrage(q.MatchID, q.Market); arb != nil {
		out.Arbitrage = arb
		p.publish(ctx, models.EventArbitrage, q, arb)
	}

	out.Analysis = p.analyze(q, evs)
	if len(out.Analysis.Signals) > 0 {
		p.publish(ctx, models.EventSharpAnalysis, q, out.Analysis)
	}

	for _, ev := range evs {
		if ev.EV <= 0 || ev.Bookmaker == models.NoBookmaker {
			continue
		}

		decision, err := p.staking.MakeStakingDecision(q.MatchID, q.Market, ev.Selection, ev.Odds, ev.EV, selectionConfidence(out.Analysis, ev.SelectionIndex))
		if err != nil {
			p.log.WithError(err).WithField("match_id", q.MatchID).Warn("staking decision failed")
			continue
		}
		decision.Bookmaker = ev.Bookmaker
		decision.Line = p.lineFor(q, ev.Bookmaker)

		out.Decisions = append(out.Decisions, *decision)
		p.publish(ctx, models.EventStakingDecision, q, decision)

		if !p.autoPlace || !decision.Qualified || decision.Stake <= 0 {
			continue
		}
		if p.hasOpenBet(q.MatchID, q.Market, ev.Selection) {
			continue
		}

		bet, err := p.PlaceBet(ctx, *decision)
		if err != nil {
			p.log.WithError(err).WithField("match_id", q.MatchID).Warn("failed to place bet")
			continue
		}
		out.Placed = append(out.Placed, bet)
	}

	return out, nil
}

// analyze runs sharp detection over the consensus line and the stored public split
func (p *Pipeline) analyze(q models.OddsQuote, evs []models.EVResult) models.MatchAnalysis {
	opening, current, ok := p.odds.ConsensusLine(q.MatchID, q.Market)
	if !ok {
		return models.MatchAnalysis{MatchID: q.MatchID, Market: q.Market}
	}

	public, _ := p.PublicBetting(q.MatchID, q.Market)

	values := make([]float64, len(evs))
	for i, ev := range evs {
		values[i] = ev.EV
	}

	return p.sharp.AnalyzeMatch(sharp.AnalysisInput{
		MatchID:   q.MatchID,
		Market:    q.Market,
		Opening:   opening,
		Current:   current,
		Public:    public,
		Histories: p.odds.LineHistories(q.MatchID, q.Market),
		EVs:       values,
	})
}

// selectionConfidence is the strongest signal backing a selection, or 0
func selectionConfidence(analysis models.MatchAnalysis, selectionIndex int) float64 {
	best := 0.0
	for _, s := range analysis.Signals {
		if s.SelectionIndex == selectionIndex && s.Confidence > best {
			best = s.Confidence
		}
	}
	return best
}

// lineFor returns the handicap line quoted by the bookmaker holding the best price
func (p *Pipeline) lineFor(q models.OddsQuote, bookmaker string) *float64 {
	for _, latest := range p.odds.Book().Latest(q.MatchID, q.Market) {
		if latest.Bookmaker == bookmaker {
			return latest.Handicap
		}
	}
	return q.Handicap
}

func (p *Pipeline) hasOpenBet(matchID, market, selection string) bool {
	for _, b := range p.ledger.Pending(matchID) {
		if b.Market == market && b.Selection == selection {
			return true
		}
	}
	return false
}

// PlaceBet appends a pending bet sized by a staking decision
func (p *Pipeline) PlaceBet(ctx context.Context, d models.StakingDecision) (models.Bet, error) {
	return p.ledger.Append(ctx, models.Bet{
		MatchID:    d.MatchID,
		Market:     d.Market,
		Selection:  d.Selection,
		Odds:       d.Odds,
		Stake:      d.Stake,
		Strategy:   d.Strategy,
		EV:         d.EV,
		Confidence: d.Confidence,
		Line:       d.Line,
	})
}

// PublishReport publishes a performance report
func (p *Pipeline) PublishReport(ctx context.Context, report models.PerformanceReport) error {
	return p.publisher.Publish(ctx, models.Event{
		Type:      models.EventPerformanceReport,
		Payload:   report,
		Timestamp: p.now(),
	})
}

func (p *Pipeline) publish(ctx context.Context, eventType models.EventType, q models.OddsQuote, payload interface{}) {
	err := p.publisher.Publish(ctx, models.Event{
		Type:      eventType,
		MatchID:   q.MatchID,
		Market:    q.Market,
		Payload:   payload,
		Timestamp: p.now(),
	})
	if err != nil {
		p.log.WithError(err).WithFields(logrus.Fields{
			"type":     eventType,
			"match_id": q.MatchID,
		}).Warn("publish failed")
	}
}
