package odds

import (
	"sort"
	"sync"

	"github.com/dennisgathu8/house-hedge/pkg/models"
)

type quoteKey struct {
	matchID   string
	market    string
	bookmaker string
}

// Book is an append-only store of odds quotes. It tracks the opening and the
// current quote for every (match, market, bookmaker).
type Book struct {
	mu      sync.RWMutex
	quotes  []models.OddsQuote
	opening map[quoteKey]int
	latest  map[quoteKey]int
}

// NewBook creates an empty quote book
func NewBook() *Book {
	return &Book{
		opening: make(map[quoteKey]int),
		latest:  make(map[quoteKey]int),
	}
}

// Add appends a quote. A quote older than the current one for its bookmaker is
// kept in history but does not become current.
func (b *Book) Add(q models.OddsQuote) {
	q.Prices = append([]float64(nil), q.Prices...)
	key := quoteKey{q.MatchID, q.Market, q.Bookmaker}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.quotes = append(b.quotes, q)
	idx := len(b.quotes) - 1

	if cur, ok := b.latest[key]; !ok || !q.Timestamp.Before(b.quotes[cur].Timestamp) {
		b.latest[key] = idx
	}
	if open, ok := b.opening[key]; !ok || q.Timestamp.Before(b.quotes[open].Timestamp) {
		b.opening[key] = idx
	}
}

// Len returns the number of stored quotes
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.quotes)
}

// Quotes returns every quote for a match market in arrival order
func (b *Book) Quotes(matchID, market string) []models.OddsQuote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []models.OddsQuote
	for _, q := range b.quotes {
		if q.MatchID == matchID && q.Market == market {
			out = append(out, q)
		}
	}
	return out
}

// Latest returns the current quote of every bookmaker for a match market, sorted by bookmaker
func (b *Book) Latest(matchID, market string) []models.OddsQuote {
	return b.collect(b.latest, matchID, market)
}

// Openings returns the opening quote of every bookmaker for a match market, sorted by bookmaker
func (b *Book) Openings(matchID, market string) []models.OddsQuote {
	return b.collect(b.opening, matchID, market)
}

func (b *Book) collect(index map[quoteKey]int, matchID, market string) []models.OddsQuote {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []models.OddsQuote
	for key, idx := range index {
		if key.matchID == matchID && key.market == market {
			out = append(out, b.quotes[idx])
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Bookmaker < out[j].Bookmaker })
	return out
}

// LineHistories pairs each bookmaker's opening and current prices for a match market
func (b *Book) LineHistories(matchID, market string) []models.LineHistory {
	openings := b.Openings(matchID, market)
	current := b.Latest(matchID, market)

	byBook := make(map[string]models.OddsQuote, len(current))
	for _, q := range current {
		byBook[q.Bookmaker] = q
	}

	var out []models.LineHistory
	for _, open := range openings {
		cur, ok := byBook[open.Bookmaker]
		if !ok || len(cur.Prices) != len(open.Prices) {
			continue
		}
		out = append(out, models.LineHistory{
			Bookmaker: open.Bookmaker,
			Opening:   open.Prices,
			Current:   cur.Prices,
		})
	}
	return out
}
