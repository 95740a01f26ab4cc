package oddsmath

import (
	"fmt"

	"github.com/dennisgathu8/house-hedge/pkg/stats"
)

// ImpliedProbabilities converts decimal prices to raw implied probabilities (1/price).
// The result still contains the bookmaker margin and sums to more than 1 in a normal market.
func ImpliedProbabilities(prices []float64) ([]float64, error) {
	if len(prices) == 0 {
		return nil, fmt.Errorf("no prices provided")
	}

	implied := make([]float64, len(prices))
	for i, price := range prices {
		if price <= 0 {
			return nil, fmt.Errorf("price at index %d must be positive, got %.4f", i, price)
		}
		implied[i] = 1.0 / price
	}

	return implied, nil
}

// RemoveMargin removes the bookmaker margin from a market of any arity using the
// multiplicative (proportional) method
//
// Formula:
// 1. implied_i = 1 / price_i
// 2. total = Σ implied_i (the overround, typically > 1.0)
// 3. true_i = implied_i / total
//
// Example:
// Prices 2.00 / 3.00 / 4.00 → implied 0.5 / 0.333 / 0.25 (total 1.083)
// True: 0.4615 / 0.3077 / 0.2308
func RemoveMargin(prices []float64) ([]float64, error) {
	implied, err := ImpliedProbabilities(prices)
	if err != nil {
		return nil, err
	}

	return stats.Normalize(implied), nil
}

// Margin returns the overround of a market: Σ(1/price) - 1.
// Negative values mean the best prices form an arbitrage.
func Margin(prices []float64) (float64, error) {
	implied, err := ImpliedProbabilities(prices)
	if err != nil {
		return 0, err
	}

	return stats.Sum(implied) - 1.0, nil
}

// Consensus averages several de-margined probability vectors of the same arity and
// renormalizes the result
//
// Formula:
// 1. Remove the margin from each bookmaker's vector
// 2. Average position-wise across bookmakers
// 3. Normalize so the consensus sums to 1.0
func Consensus(markets [][]float64) ([]float64, error) {
	if len(markets) == 0 {
		return nil, fmt.Errorf("no markets provided")
	}

	arity := len(markets[0])
	sums := make([]float64, arity)

	for i, prices := range markets {
		if len(prices) != arity {
			return nil, fmt.Errorf("market %d has %d selections, expected %d", i, len(prices), arity)
		}

		fair, err := RemoveMargin(prices)
		if err != nil {
			return nil, fmt.Errorf("error removing margin from market %d: %w", i, err)
		}

		for j, p := range fair {
			sums[j] += p
		}
	}

	return stats.Normalize(sums), nil
}
