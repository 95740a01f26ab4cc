package odds

import (
	"errors"
	"fmt"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/oddsmath"
	"github.com/sirupsen/logrus"
)

// ErrUnknownBookmaker is returned when a quote comes from a bookmaker outside the allow-list
var ErrUnknownBookmaker = errors.New("bookmaker not configured")

// ErrNoQuotes is returned when a match market has no current quotes
var ErrNoQuotes = errors.New("no quotes for market")

// Engine normalizes incoming quotes and answers EV, arbitrage and line questions
// over the quote book
type Engine struct {
	book    *Book
	allowed map[string]struct{}
	log     *logrus.Entry
}

// NewEngine creates an engine. An empty bookmaker list accepts every bookmaker.
func NewEngine(cfg config.OddsConfig) *Engine {
	allowed := make(map[string]struct{}, len(cfg.Bookmakers))
	for _, b := range cfg.Bookmakers {
		allowed[b] = struct{}{}
	}

	return &Engine{
		book:    NewBook(),
		allowed: allowed,
		log:     logger.For("odds"),
	}
}

// Book exposes the underlying quote book
func (e *Engine) Book() *Book {
	return e.book
}

// Apply records a validated quote
func (e *Engine) Apply(q models.OddsQuote) error {
	if len(e.allowed) > 0 {
		if _, ok := e.allowed[q.Bookmaker]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBookmaker, q.Bookmaker)
		}
	}

	e.book.Add(q)
	e.log.WithFields(logrus.Fields{
		"match":     q.MatchID,
		"market":    q.Market,
		"bookmaker": q.Bookmaker,
	}).Debug("quote applied")

	return nil
}

// currentQuotes returns the latest quote per bookmaker that shares the market's arity
func (e *Engine) currentQuotes(matchID, market string) ([]models.OddsQuote, error) {
	latest := e.book.Latest(matchID, market)
	if len(latest) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoQuotes, matchID, market)
	}

	arity := marketArity(latest)
	out := latest[:0]
	for _, q := range latest {
		if len(q.Prices) == arity {
			out = append(out, q)
		}
	}
	return out, nil
}

// TrueProbabilities returns the consensus de-margined probabilities across every
// bookmaker currently quoting the market
func (e *Engine) TrueProbabilities(matchID, market string) ([]float64, error) {
	quotes, err := e.currentQuotes(matchID, market)
	if err != nil {
		return nil, err
	}

	vectors := make([][]float64, len(quotes))
	for i, q := range quotes {
		vectors[i] = q.Prices
	}

	return oddsmath.Consensus(vectors)
}

// Evaluate computes the EV of every selection at its best price against the consensus
func (e *Engine) Evaluate(matchID, market string) ([]models.EVResult, error) {
	probs, err := e.TrueProbabilities(matchID, market)
	if err != nil {
		return nil, err
	}

	quotes, err := e.currentQuotes(matchID, market)
	if err != nil {
		return nil, err
	}

	results := make([]models.EVResult, len(probs))
	for i, p := range probs {
		results[i] = CalculateEVForSelection(matchID, market, i, p, quotes)
	}
	return results, nil
}

// Arbitrage checks the current best prices of a market for an arbitrage
func (e *Engine) Arbitrage(matchID, market string) *models.ArbitrageOpportunity {
	quotes, err := e.currentQuotes(matchID, market)
	if err != nil {
		return nil
	}
	return DetectArbitrage(matchID, market, quotes)
}

// LineMovement returns one bookmaker's movement from opening to current
func (e *Engine) LineMovement(matchID, market, bookmaker string) (models.LineMovement, error) {
	for _, h := range e.book.LineHistories(matchID, market) {
		if h.Bookmaker == bookmaker {
			return CalculateLineMovement(h.Opening, h.Current)
		}
	}
	return models.LineMovement{}, fmt.Errorf("%w: %s/%s at %s", ErrNoQuotes, matchID, market, bookmaker)
}

// LineHistories returns every bookmaker's opening and current prices for a market
func (e *Engine) LineHistories(matchID, market string) []models.LineHistory {
	return e.book.LineHistories(matchID, market)
}

// ConsensusLine averages opening and current prices across bookmakers with a full history
func (e *Engine) ConsensusLine(matchID, market string) (opening, current []float64, ok bool) {
	histories := e.book.LineHistories(matchID, market)
	if len(histories) == 0 {
		return nil, nil, false
	}

	arity := len(histories[0].Opening)
	opening = make([]float64, arity)
	current = make([]float64, arity)
	n := 0.0

	for _, h := range histories {
		if len(h.Opening) != arity {
			continue
		}
		for i := 0; i < arity; i++ {
			opening[i] += h.Opening[i]
			current[i] += h.Current[i]
		}
		n++
	}

	for i := 0; i < arity; i++ {
		opening[i] /= n
		current[i] /= n
	}
	return opening, current, true
}

// ClosingOdds returns the best current price for a selection label. It is read at
// settlement time, when the current quotes are the closing line.
func (e *Engine) ClosingOdds(matchID, market, selection string) (float64, bool) {
	quotes, err := e.currentQuotes(matchID, market)
	if err != nil {
		return 0, false
	}

	idx, err := models.SelectionIndex(selection, marketArity(quotes))
	if err != nil {
		return 0, false
	}

	best := FindBestPrice(matchID, market, idx, quotes)
	return best.Price, best.Found()
}
