package oddsmath

import "math"

// CalculateEV returns the expected value per unit staked
// EV = p × odds - 1
//
// Example:
// True probability 0.50 at decimal 2.20
// EV = 0.50 × 2.20 - 1 = 0.10 (10% edge)
//
// Positive EV = +EV bet
// Negative EV = -EV bet
func CalculateEV(trueProbability, odds float64) float64 {
	return trueProbability*odds - 1.0
}

// KellyFraction returns the full Kelly fraction of bankroll for an edge at decimal odds
// f* = edge / (odds - 1)
//
// Equivalent to (b×p - q) / b with b = odds - 1. Never negative: a bet with no edge
// gets a zero fraction rather than a recommendation to lay it.
func KellyFraction(edge, odds float64) float64 {
	b := odds - 1.0
	if b <= 0 {
		return 0
	}

	return math.Max(0, edge/b)
}

// CalculateEVDollar returns the expected profit of a stake
// EV$ = stake × (p × odds - 1)
func CalculateEVDollar(stake, odds, trueProbability float64) float64 {
	return stake * CalculateEV(trueProbability, odds)
}

// InverseSum returns Σ 1/price over the best price of each selection.
// Non-positive prices make the sum +Inf.
func InverseSum(prices []float64) float64 {
	sum := 0.0
	for _, price := range prices {
		if price <= 0 {
			return math.Inf(1)
		}
		sum += 1.0 / price
	}
	return sum
}

// IsArbitrage checks whether best prices across bookmakers guarantee a profit
// Arbitrage exists when: Σ 1/price < 1
//
// Returns the profit margin as a fraction of total outlay (1 - inverse sum).
func IsArbitrage(prices []float64) (bool, float64) {
	if len(prices) < 2 {
		return false, 0
	}

	inverseSum := InverseSum(prices)
	if inverseSum >= 1.0 {
		return false, 0
	}

	return true, 1.0 - inverseSum
}

// ArbitrageStakeShares splits an outlay across selections so every outcome pays the same
// share_i = (1/price_i) / inverseSum
func ArbitrageStakeShares(prices []float64) []float64 {
	inverseSum := InverseSum(prices)
	if math.IsInf(inverseSum, 1) || inverseSum == 0 {
		return nil
	}

	shares := make([]float64, len(prices))
	for i, price := range prices {
		shares[i] = (1.0 / price) / inverseSum
	}
	return shares
}
