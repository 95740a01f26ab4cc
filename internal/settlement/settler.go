// Package settlement grades pending bets from final scores and settles them
// through the ledger.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/ledger"
	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/sirupsen/logrus"
)

// ErrNotCompleted is returned when a result is neither final nor void
var ErrNotCompleted = errors.New("match not completed")

// Ledger is the part of the ledger settlement needs
type Ledger interface {
	Pending(matchID string) []models.Bet
	Settle(ctx context.Context, betID string, result models.BetResult, profit float64, opts ...ledger.SettleOption) (models.Bet, error)
}

// ClosingLine looks up the closing price of a selection for CLV
type ClosingLine interface {
	ClosingOdds(matchID, market, selection string) (float64, bool)
}

// ResultSource reports final scores
type ResultSource interface {
	Results(ctx context.Context) ([]models.MatchResult, error)
}

// ResultSourceFunc adapts a function to ResultSource
type ResultSourceFunc func(ctx context.Context) ([]models.MatchResult, error)

// Results implements ResultSource
func (f ResultSourceFunc) Results(ctx context.Context) ([]models.MatchResult, error) {
	return f(ctx)
}

// Settler handles bet settlement
type Settler struct {
	ledger  Ledger
	closing ClosingLine
	log     *logrus.Entry
}

// NewSettler creates a settler. closing may be nil, in which case no CLV is recorded.
func NewSettler(l Ledger, closing ClosingLine) *Settler {
	return &Settler{
		ledger:  l,
		closing: closing,
		log:     logger.For("settlement"),
	}
}

// SettleMatch grades and settles every pending bet on a match. Bets that fail to
// settle are skipped and reported in the joined error.
func (s *Settler) SettleMatch(ctx context.Context, result models.MatchResult) ([]models.Bet, error) {
	if !result.Completed && !result.Void {
		return nil, fmt.Errorf("%w: %s", ErrNotCompleted, result.MatchID)
	}

	pending := s.ledger.Pending(result.MatchID)
	if len(pending) == 0 {
		return nil, nil
	}

	var settled []models.Bet
	var errs []error

	for _, bet := range pending {
		outcome := Grade(bet, result)
		profit := models.ProfitFor(outcome, bet.Stake, bet.Odds)

		var opts []ledger.SettleOption
		if s.closing != nil {
			if closing, ok := s.closing.ClosingOdds(bet.MatchID, bet.Market, bet.Selection); ok {
				opts = append(opts, ledger.WithClosingOdds(closing))
			}
		}

		b, err := s.ledger.Settle(ctx, bet.ID, outcome, profit, opts...)
		if err != nil {
			s.log.WithError(err).WithField("bet", bet.ID).Warn("failed to settle bet")
			errs = append(errs, err)
			continue
		}
		settled = append(settled, b)
	}

	s.log.WithFields(logrus.Fields{
		"match_id": result.MatchID,
		"score":    fmt.Sprintf("%d-%d", result.HomeScore, result.AwayScore),
		"settled":  len(settled),
		"pending":  len(pending),
	}).Info("match settled")

	return settled, errors.Join(errs...)
}

// Start polls the result source on every interval, and once immediately, until
// ctx is cancelled
func (s *Settler) Start(ctx context.Context, source ResultSource, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.settleAll(ctx, source)

	for {
		select {
		case <-ticker.C:
			s.settleAll(ctx, source)
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Settler) settleAll(ctx context.Context, source ResultSource) {
	results, err := source.Results(ctx)
	if err != nil {
		s.log.WithError(err).Warn("failed to fetch results")
		return
	}

	for _, r := range results {
		if !r.Completed && !r.Void {
			continue
		}
		if _, err := s.SettleMatch(ctx, r); err != nil {
			s.log.WithError(err).WithField("match_id", r.MatchID).Warn("settlement incomplete")
		}
	}
}
