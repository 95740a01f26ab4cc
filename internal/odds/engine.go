package odds

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/oddsmath"
)

// latestByBookmaker reduces a quote list to the newest quote per bookmaker for one
// match market, sorted by bookmaker
func latestByBookmaker(matchID, market string, quotes []models.OddsQuote) []models.OddsQuote {
	latest := make(map[string]models.OddsQuote)
	for _, q := range quotes {
		if q.MatchID != matchID || q.Market != market {
			continue
		}
		if cur, ok := latest[q.Bookmaker]; !ok || !q.Timestamp.Before(cur.Timestamp) {
			latest[q.Bookmaker] = q
		}
	}

	out := make([]models.OddsQuote, 0, len(latest))
	for _, q := range latest {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Bookmaker < out[j].Bookmaker })
	return out
}

// marketArity returns the number of selections in a market, taken from the first quote
func marketArity(quotes []models.OddsQuote) int {
	if len(quotes) == 0 {
		return 0
	}
	return len(quotes[0].Prices)
}

// FindBestPrice returns the highest current price for one selection across bookmakers.
// When nobody quotes the selection the sentinel {none, 0} is returned.
func FindBestPrice(matchID, market string, selectionIndex int, quotes []models.OddsQuote) models.BestPrice {
	best := models.BestPrice{Bookmaker: models.NoBookmaker}

	for _, q := range latestByBookmaker(matchID, market, quotes) {
		if selectionIndex < 0 || selectionIndex >= len(q.Prices) {
			continue
		}
		if price := q.Prices[selectionIndex]; price > best.Price {
			best = models.BestPrice{Bookmaker: q.Bookmaker, Price: price}
		}
	}

	return best
}

// CalculateEVForSelection prices one selection at its best available odds against a
// supplied true probability. The Kelly fraction is only set for +EV selections.
func CalculateEVForSelection(matchID, market string, selectionIndex int, trueProbability float64, quotes []models.OddsQuote) models.EVResult {
	latest := latestByBookmaker(matchID, market, quotes)
	best := FindBestPrice(matchID, market, selectionIndex, latest)

	result := models.EVResult{
		MatchID:         matchID,
		Market:          market,
		SelectionIndex:  selectionIndex,
		Selection:       models.SelectionLabel(selectionIndex, marketArity(latest)),
		Bookmaker:       best.Bookmaker,
		Odds:            best.Price,
		TrueProbability: trueProbability,
		ComputedAt:      time.Now().UTC(),
	}

	if fair, err := oddsmath.ProbabilityToDecimal(trueProbability); err == nil {
		result.FairOdds = fair
	}

	if !best.Found() {
		result.EV = -1
		return result
	}

	result.EV = oddsmath.CalculateEV(trueProbability, best.Price)
	if result.EV > 0 {
		kelly := oddsmath.KellyFraction(result.EV, best.Price)
		result.KellyFraction = &kelly
	}

	return result
}

// DetectArbitrage takes the best price of every selection across bookmakers and reports
// an opportunity when Σ 1/best is strictly below 1. Any unquoted selection means no
// opportunity.
func DetectArbitrage(matchID, market string, quotes []models.OddsQuote) *models.ArbitrageOpportunity {
	latest := latestByBookmaker(matchID, market, quotes)
	arity := marketArity(latest)
	if arity < 2 {
		return nil
	}

	legs := make([]models.ArbitrageLeg, arity)
	prices := make([]float64, arity)
	for i := 0; i < arity; i++ {
		best := FindBestPrice(matchID, market, i, latest)
		if !best.Found() {
			return nil
		}
		prices[i] = best.Price
		legs[i] = models.ArbitrageLeg{
			SelectionIndex: i,
			Selection:      models.SelectionLabel(i, arity),
			Bookmaker:      best.Bookmaker,
			Price:          best.Price,
		}
	}

	isArb, margin := oddsmath.IsArbitrage(prices)
	if !isArb {
		return nil
	}

	for i, share := range oddsmath.ArbitrageStakeShares(prices) {
		legs[i].StakeShare = share
	}

	return &models.ArbitrageOpportunity{
		MatchID:      matchID,
		Market:       market,
		Legs:         legs,
		InverseSum:   oddsmath.InverseSum(prices),
		ProfitMargin: margin,
		DetectedAt:   time.Now().UTC(),
	}
}

// CalculateLineMovement returns the fractional change of every selection between two
// synchronized price vectors. The overall direction follows the first selection only.
func CalculateLineMovement(opening, current []float64) (models.LineMovement, error) {
	if len(opening) == 0 || len(opening) != len(current) {
		return models.LineMovement{}, fmt.Errorf("price vectors must be non-empty and equal length, got %d and %d", len(opening), len(current))
	}

	movement := models.LineMovement{Changes: make([]float64, len(opening))}
	for i := range opening {
		if opening[i] <= 0 {
			return models.LineMovement{}, fmt.Errorf("opening price at index %d must be positive", i)
		}
		change := (current[i] - opening[i]) / opening[i]
		movement.Changes[i] = change
		movement.MaxAbsChange = math.Max(movement.MaxAbsChange, math.Abs(change))
	}

	movement.Direction = models.MovementShortening
	if movement.Changes[0] > 0 {
		movement.Direction = models.MovementLengthening
	}

	return movement, nil
}

// DeriveTrueProbability de-margins a single quote
func DeriveTrueProbability(q models.OddsQuote) (models.TrueProbability, error) {
	probs, err := oddsmath.RemoveMargin(q.Prices)
	if err != nil {
		return models.TrueProbability{}, fmt.Errorf("quote from %s: %w", q.Bookmaker, err)
	}

	margin, _ := oddsmath.Margin(q.Prices)

	return models.TrueProbability{
		MatchID:       q.MatchID,
		Market:        q.Market,
		Bookmaker:     q.Bookmaker,
		Probabilities: probs,
		Margin:        margin,
	}, nil
}
