package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/internal/metrics"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var (
	ErrBetNotFound    = errors.New("bet not found")
	ErrDuplicateBet   = errors.New("duplicate bet id")
	ErrAlreadySettled = errors.New("bet already settled")
	ErrInvalidBet     = errors.New("invalid bet")
)

// Ledger is the append-only record of bets. Append and Settle are the only
// mutators; both persist the full ledger before returning and roll back the
// in-memory change when persistence fails.
type Ledger struct {
	mu      sync.RWMutex
	bets    []models.Bet
	index   map[string]int
	initial float64

	store   Store
	metrics *metrics.Metrics
	now     func() time.Time
	log     *logrus.Entry
}

// Option configures a Ledger
type Option func(*Ledger)

// WithClock overrides the time source used for CreatedAt and SettledAt
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithMetrics records appends, settlements and bankroll gauges
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Ledger) { l.metrics = m }
}

// New loads the ledger from store
func New(ctx context.Context, initialBankroll float64, store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		index:   make(map[string]int),
		initial: initialBankroll,
		store:   store,
		now:     func() time.Time { return time.Now().UTC() },
		log:     logger.For("ledger"),
	}
	for _, opt := range opts {
		opt(l)
	}

	bets, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	for i, b := range bets {
		if _, dup := l.index[b.ID]; dup {
			return nil, fmt.Errorf("%w in snapshot: %s", ErrDuplicateBet, b.ID)
		}
		l.index[b.ID] = i
	}
	l.bets = bets

	l.log.WithFields(logrus.Fields{
		"bets":     len(bets),
		"bankroll": l.CurrentBankroll(),
	}).Info("ledger loaded")
	l.publishGauges()

	return l, nil
}

// InitialBankroll returns the starting bankroll
func (l *Ledger) InitialBankroll() float64 {
	return l.initial
}

// Append records a new pending bet and returns it with its ID and CreatedAt set
func (l *Ledger) Append(ctx context.Context, bet models.Bet) (models.Bet, error) {
	if err := validate(bet); err != nil {
		return models.Bet{}, err
	}

	if bet.ID == "" {
		bet.ID = uuid.New().String()
	}
	if bet.CreatedAt.IsZero() {
		bet.CreatedAt = l.now()
	}
	bet.Result = models.ResultPending
	bet.SettledAt = nil
	bet.Profit = nil

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.index[bet.ID]; exists {
		return models.Bet{}, fmt.Errorf("%w: %s", ErrDuplicateBet, bet.ID)
	}

	l.bets = append(l.bets, bet)
	l.index[bet.ID] = len(l.bets) - 1

	if err := l.store.Save(ctx, l.bets); err != nil {
		l.bets = l.bets[:len(l.bets)-1]
		delete(l.index, bet.ID)
		l.log.WithError(err).WithField("bet", bet.ID).Error("failed to persist appended bet")
		return models.Bet{}, fmt.Errorf("failed to persist ledger: %w", err)
	}

	l.metrics.BetAppended(string(bet.Strategy))
	l.log.WithFields(logrus.Fields{
		"bet":      bet.ID,
		"match":    bet.MatchID,
		"stake":    bet.Stake,
		"odds":     bet.Odds,
		"strategy": bet.Strategy,
	}).Info("bet appended")

	return bet, nil
}

// SettleOption adds optional data to a settlement
type SettleOption func(*models.Bet)

// WithClosingOdds records the closing price for CLV
func WithClosingOdds(odds float64) SettleOption {
	return func(b *models.Bet) {
		if odds > 0 {
			b.ClosingOdds = &odds
		}
	}
}

// Settle replaces a pending bet with its settled value. Unknown IDs are logged and
// leave the ledger untouched.
func (l *Ledger) Settle(ctx context.Context, betID string, result models.BetResult, profit float64, opts ...SettleOption) (models.Bet, error) {
	if !result.IsSettled() {
		return models.Bet{}, fmt.Errorf("%w: result %q is not terminal", ErrInvalidBet, result)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.index[betID]
	if !ok {
		l.log.WithField("bet", betID).Warn("settle requested for unknown bet")
		return models.Bet{}, fmt.Errorf("%w: %s", ErrBetNotFound, betID)
	}

	prev := l.bets[i]
	if prev.Result.IsSettled() {
		return models.Bet{}, fmt.Errorf("%w: %s is %s", ErrAlreadySettled, betID, prev.Result)
	}

	settled := prev
	settledAt := l.now()
	settled.Result = result
	settled.SettledAt = &settledAt
	settled.Profit = &profit
	for _, opt := range opts {
		opt(&settled)
	}

	l.bets[i] = settled
	if err := l.store.Save(ctx, l.bets); err != nil {
		l.bets[i] = prev
		l.log.WithError(err).WithField("bet", betID).Error("failed to persist settlement")
		return models.Bet{}, fmt.Errorf("failed to persist ledger: %w", err)
	}

	l.metrics.BetSettled(string(result))
	l.publishGaugesLocked()
	l.log.WithFields(logrus.Fields{
		"bet":    betID,
		"result": result,
		"profit": profit,
	}).Info("bet settled")

	return settled, nil
}

// Get returns a bet by ID
func (l *Ledger) Get(betID string) (models.Bet, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i, ok := l.index[betID]
	if !ok {
		return models.Bet{}, false
	}
	return l.bets[i], true
}

// Bets returns a copy of the ledger in insertion order
func (l *Ledger) Bets() []models.Bet {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]models.Bet(nil), l.bets...)
}

// Filter returns the bets matching pred in insertion order
func (l *Ledger) Filter(pred func(models.Bet) bool) []models.Bet {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []models.Bet
	for _, b := range l.bets {
		if pred(b) {
			out = append(out, b)
		}
	}
	return out
}

// Pending returns open bets for a match
func (l *Ledger) Pending(matchID string) []models.Bet {
	return l.Filter(func(b models.Bet) bool {
		return b.MatchID == matchID && b.Result == models.ResultPending
	})
}

// CurrentBankroll is the initial bankroll plus every settled profit
func (l *Ledger) CurrentBankroll() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balance, _ := fold(l.initial, l.bets)
	return balance
}

// PeakBankroll is the highest running balance reached, including the initial bankroll
func (l *Ledger) PeakBankroll() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, peak := fold(l.initial, l.bets)
	return peak
}

// Snapshot summarizes the ledger at the given time
func (l *Ledger) Snapshot(at time.Time) models.BankrollSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return snapshot(at, l.initial, l.bets)
}

// snapshot derives a BankrollSnapshot from a bet sequence
func snapshot(at time.Time, initial float64, bets []models.Bet) models.BankrollSnapshot {
	balance, peak := fold(initial, bets)

	staked := decimal.Zero
	profit := decimal.Zero
	openStake := decimal.Zero
	snap := models.BankrollSnapshot{Timestamp: at, Balance: balance, Peak: peak}

	for _, b := range bets {
		if b.Result.IsSettled() {
			staked = staked.Add(decimal.NewFromFloat(b.Stake))
			profit = profit.Add(decimal.NewFromFloat(b.RealizedProfit()))
			snap.SettledCount++
			continue
		}
		openStake = openStake.Add(decimal.NewFromFloat(b.Stake))
		snap.OpenCount++
	}

	snap.TotalStaked = staked.InexactFloat64()
	snap.TotalProfit = profit.InexactFloat64()
	snap.OpenStake = openStake.InexactFloat64()
	if !staked.IsZero() {
		snap.ROI = profit.Div(staked).InexactFloat64()
	}

	return snap
}

// fold walks settled bets in ledger order and returns the final and peak balance
func fold(initial float64, bets []models.Bet) (balance, peak float64) {
	running := decimal.NewFromFloat(initial)
	high := running

	for _, b := range bets {
		if !b.Result.IsSettled() {
			continue
		}
		running = running.Add(decimal.NewFromFloat(b.RealizedProfit()))
		if running.GreaterThan(high) {
			high = running
		}
	}

	return running.InexactFloat64(), high.InexactFloat64()
}

func (l *Ledger) publishGauges() {
	l.mu.RLock()
	defer l.mu.RUnlock()
	l.publishGaugesLocked()
}

func (l *Ledger) publishGaugesLocked() {
	if l.metrics == nil {
		return
	}
	balance, peak := fold(l.initial, l.bets)
	l.metrics.UpdateBankroll(balance, peak)
}

func validate(b models.Bet) error {
	switch {
	case b.MatchID == "":
		return fmt.Errorf("%w: match id is required", ErrInvalidBet)
	case b.Selection == "":
		return fmt.Errorf("%w: selection is required", ErrInvalidBet)
	case !finite(b.Stake) || b.Stake <= 0:
		return fmt.Errorf("%w: stake must be a finite positive amount, got %v", ErrInvalidBet, b.Stake)
	case !finite(b.Odds) || b.Odds <= 1.0:
		return fmt.Errorf("%w: odds must be a finite decimal above 1.0, got %v", ErrInvalidBet, b.Odds)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
