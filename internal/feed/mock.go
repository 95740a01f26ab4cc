// Package feed supplies odds quotes to the engine, either from a seeded mock
// generator or from a Redis stream of raw bookmaker prices.
package feed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/stats"
	"github.com/sirupsen/logrus"
)

// Sink accepts validated quotes, normally the ingestion queue
type Sink interface {
	Push(ctx context.Context, q models.OddsQuote) error
}

// PublicSink receives public betting splits
type PublicSink interface {
	UpdatePublicBetting(pb models.PublicBetting)
}

var teams = []string{
	"Arsenal", "Chelsea", "Liverpool", "Everton", "Tottenham", "Newcastle",
	"Aston Villa", "Brighton", "Fulham", "Brentford", "Wolves", "West Ham",
	"Gor Mahia", "AFC Leopards", "Tusker", "Bandari",
}

var leagues = []string{"Premier League", "Championship", "Kenyan Premier League"}

var defaultBookmakers = []string{"bet365", "pinnacle", "betfair", "williamhill", "sportpesa", "betika"}

const totalsLine = 2.5

// Generator produces reproducible fixtures, prices and public splits from a seeded
// source. Quotes for the same match and market share one fair probability vector,
// so bookmakers disagree only by margin and noise.
type Generator struct {
	mu         sync.Mutex
	rng        *rand.Rand
	bookmakers []string
	start      time.Time
	fair       map[string][]float64
	latest     map[string]models.OddsQuote
	results    map[string]models.MatchResult
	log        *logrus.Entry
}

// NewGenerator creates a generator. Empty bookmakers uses a default set.
func NewGenerator(rng *rand.Rand, bookmakers []string, start time.Time) *Generator {
	if len(bookmakers) == 0 {
		bookmakers = defaultBookmakers
	}
	return &Generator{
		rng:        rng,
		bookmakers: bookmakers,
		start:      start,
		fair:       make(map[string][]float64),
		latest:     make(map[string]models.OddsQuote),
		results:    make(map[string]models.MatchResult),
		log:        logger.For("feed"),
	}
}

// Bookmakers returns the bookmakers quotes are generated for
func (g *Generator) Bookmakers() []string {
	return g.bookmakers
}

// Matches generates n fixtures with distinct teams per fixture, kicking off
// at two-hour intervals after the start time
func (g *Generator) Matches(n int) []models.Match {
	g.mu.Lock()
	defer g.mu.Unlock()

	matches := make([]models.Match, 0, n)
	for i := 0; i < n; i++ {
		home := g.rng.Intn(len(teams))
		away := g.rng.Intn(len(teams) - 1)
		if away >= home {
			away++
		}

		matches = append(matches, models.Match{
			ID:       fmt.Sprintf("match-%03d", i+1),
			HomeTeam: teams[home],
			AwayTeam: teams[away],
			League:   leagues[g.rng.Intn(len(leagues))],
			Kickoff:  g.start.Add(time.Duration(i+1) * 2 * time.Hour),
		})
	}
	return matches
}

// fairProbabilities returns the stored fair vector for a match market, drawing it on first use
func (g *Generator) fairProbabilities(matchID, market string) []float64 {
	key := matchID + ":" + market
	if p, ok := g.fair[key]; ok {
		return p
	}

	var p []float64
	switch market {
	case models.Market1X2:
		home := 0.30 + g.rng.Float64()*0.25
		draw := 0.22 + g.rng.Float64()*0.08
		p = []float64{home, draw, 1 - home - draw}
	default:
		first := 0.40 + g.rng.Float64()*0.20
		p = []float64{first, 1 - first}
	}

	g.fair[key] = p
	return p
}

// price turns a fair probability into a bookmaker price with margin and noise
func (g *Generator) price(p, margin float64) float64 {
	noise := 1 + (g.rng.Float64()*2-1)*0.03
	return math.Max(1.01, stats.Round(noise/(p*(1+margin)), 2))
}

// Quotes generates one quote per bookmaker for a match market
func (g *Generator) Quotes(m models.Match, market string, at time.Time) []models.OddsQuote {
	g.mu.Lock()
	defer g.mu.Unlock()

	fair := g.fairProbabilities(m.ID, market)
	quotes := make([]models.OddsQuote, 0, len(g.bookmakers))

	for _, book := range g.bookmakers {
		margin := 0.03 + g.rng.Float64()*0.04
		prices := make([]float64, len(fair))
		for i, p := range fair {
			prices[i] = g.price(p, margin)
		}

		q := models.OddsQuote{
			Bookmaker: book,
			MatchID:   m.ID,
			Market:    market,
			Prices:    prices,
			Timestamp: at,
		}
		if market == models.MarketTotals {
			line := totalsLine
			q.Handicap = &line
		}
		if market == models.MarketHandicap {
			line := -0.5
			q.Handicap = &line
		}

		g.latest[latestKey(q)] = q
		quotes = append(quotes, q)
	}
	return quotes
}

// Drift moves every price of a quote by up to maxMove in either direction
func (g *Generator) Drift(q models.OddsQuote, maxMove float64, at time.Time) models.OddsQuote {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.drift(q, maxMove, at)
}

func (g *Generator) drift(q models.OddsQuote, maxMove float64, at time.Time) models.OddsQuote {
	moved := q
	moved.Prices = make([]float64, len(q.Prices))
	for i, p := range q.Prices {
		change := (g.rng.Float64()*2 - 1) * maxMove
		moved.Prices[i] = math.Max(1.01, stats.Round(p*(1+change), 2))
	}
	moved.Timestamp = at

	g.latest[latestKey(moved)] = moved
	return moved
}

// PublicBetting generates ticket and money splits for a match market.
// Money follows tickets loosely; both vectors sum to 1.
func (g *Generator) PublicBetting(m models.Match, market string, at time.Time) models.PublicBetting {
	g.mu.Lock()
	defer g.mu.Unlock()

	fair := g.fairProbabilities(m.ID, market)
	tickets := make([]float64, len(fair))
	money := make([]float64, len(fair))
	for i, p := range fair {
		tickets[i] = p * (0.5 + g.rng.Float64())
		money[i] = tickets[i] * (0.7 + g.rng.Float64()*0.6)
	}

	return models.PublicBetting{
		MatchID:       m.ID,
		Market:        market,
		BetPercents:   stats.Normalize(tickets),
		MoneyPercents: stats.Normalize(money),
		UpdatedAt:     at,
	}
}

// TeamForm generates the last five results for a team
func (g *Generator) TeamForm(team string, at time.Time) models.TeamForm {
	g.mu.Lock()
	defer g.mu.Unlock()

	outcomes := []string{"W", "D", "L"}
	form := models.TeamForm{Team: team, UpdatedAt: at}
	for i := 0; i < 5; i++ {
		r := outcomes[g.rng.Intn(len(outcomes))]
		form.Recent = append(form.Recent, r)

		switch r {
		case "W":
			scored := 1 + g.rng.Intn(3)
			form.GoalsFor += scored
			form.GoalsAgainst += g.rng.Intn(scored)
		case "D":
			goals := g.rng.Intn(3)
			form.GoalsFor += goals
			form.GoalsAgainst += goals
		case "L":
			conceded := 1 + g.rng.Intn(3)
			form.GoalsAgainst += conceded
			form.GoalsFor += g.rng.Intn(conceded)
		}
	}
	return form
}

// Result draws a final score for a match. The score is fixed on first call.
func (g *Generator) Result(m models.Match) models.MatchResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.result(m)
}

func (g *Generator) result(m models.Match) models.MatchResult {
	if r, ok := g.results[m.ID]; ok {
		return r
	}

	r := models.MatchResult{
		MatchID:   m.ID,
		HomeScore: g.rng.Intn(5),
		AwayScore: g.rng.Intn(4),
		Completed: true,
	}
	g.results[m.ID] = r
	return r
}

// Results returns final scores for the matches that kicked off at least
// matchLength before now
func (g *Generator) Results(matches []models.Match, now time.Time, matchLength time.Duration) []models.MatchResult {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []models.MatchResult
	for _, m := range matches {
		if now.Sub(m.Kickoff) >= matchLength {
			out = append(out, g.result(m))
		}
	}
	return out
}

func latestKey(q models.OddsQuote) string {
	return q.MatchID + ":" + q.Market + ":" + q.Bookmaker
}

// Run seeds opening quotes for every match and market, then on each tick drifts
// one bookmaker's latest quote and refreshes public betting for that match.
// Returns when ctx is cancelled.
func (g *Generator) Run(ctx context.Context, matches []models.Match, markets []string, interval time.Duration, sink Sink, public PublicSink) error {
	if len(matches) == 0 || len(markets) == 0 {
		return fmt.Errorf("mock feed needs at least one match and market")
	}

	now := time.Now().UTC()
	for _, m := range matches {
		for _, market := range markets {
			for _, q := range g.Quotes(m, market, now) {
				if err := sink.Push(ctx, q); err != nil {
					return err
				}
			}
			if public != nil {
				public.UpdatePublicBetting(g.PublicBetting(m, market, now))
			}
		}
	}
	g.log.WithFields(logrus.Fields{
		"matches": len(matches),
		"markets": len(markets),
	}).Info("mock feed seeded")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			q := g.next(matches, markets, t.UTC())
			if err := sink.Push(ctx, q); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				g.log.WithError(err).Warn("failed to push mock quote")
				continue
			}
			if public != nil {
				m := models.Match{ID: q.MatchID}
				public.UpdatePublicBetting(g.PublicBetting(m, q.Market, t.UTC()))
			}
		}
	}
}

// next picks a random latest quote and drifts it
func (g *Generator) next(matches []models.Match, markets []string, at time.Time) models.OddsQuote {
	g.mu.Lock()
	defer g.mu.Unlock()

	m := matches[g.rng.Intn(len(matches))]
	market := markets[g.rng.Intn(len(markets))]
	book := g.bookmakers[g.rng.Intn(len(g.bookmakers))]

	q := g.latest[m.ID+":"+market+":"+book]
	return g.drift(q, 0.04, at)
}
