package performance

import (
	"math"

	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/stats"
	"github.com/shopspring/decimal"
)

// totals sums stake and profit over settled bets
func totals(bets []models.Bet) (staked, profit decimal.Decimal, settled int) {
	staked, profit = decimal.Zero, decimal.Zero
	for _, b := range bets {
		if !b.Result.IsSettled() {
			continue
		}
		staked = staked.Add(decimal.NewFromFloat(b.Stake))
		profit = profit.Add(decimal.NewFromFloat(b.RealizedProfit()))
		settled++
	}
	return staked, profit, settled
}

// ROI = total profit / total staked over settled bets
func ROI(bets []models.Bet) float64 {
	staked, profit, _ := totals(bets)
	if staked.IsZero() {
		return 0
	}
	return profit.Div(staked).InexactFloat64()
}

// Yield = total profit / number of settled bets
func Yield(bets []models.Bet) float64 {
	_, profit, settled := totals(bets)
	if settled == 0 {
		return 0
	}
	return profit.Div(decimal.NewFromInt(int64(settled))).InexactFloat64()
}

// CLV returns closing/bet odds - 1 for a bet with a closing price
//
// Example:
// Bet at 2.00, closed at 2.20
// CLV = 2.20/2.00 - 1 = +10%
func CLV(b models.Bet) (float64, bool) {
	if b.ClosingOdds == nil || b.Odds <= 0 {
		return 0, false
	}
	return *b.ClosingOdds/b.Odds - 1.0, true
}

// AverageCLV averages CLV over bets that have a closing price
func AverageCLV(bets []models.Bet) (avg float64, samples int) {
	values := make([]float64, 0, len(bets))
	for _, b := range bets {
		if clv, ok := CLV(b); ok {
			values = append(values, clv)
		}
	}
	return stats.Mean(values), len(values)
}

// AnalyzeVariance compares realized profit against Σ stake × EV over settled bets.
// The result is within expectations when the delta is no more than tolerance
// standard deviations of per-bet profit away from zero.
func AnalyzeVariance(bets []models.Bet, tolerance float64) models.VarianceAnalysis {
	expected := decimal.Zero
	actual := decimal.Zero
	profits := make([]float64, 0, len(bets))

	for _, b := range bets {
		if !b.Result.IsSettled() {
			continue
		}
		expected = expected.Add(decimal.NewFromFloat(b.Stake).Mul(decimal.NewFromFloat(b.EV)))
		actual = actual.Add(decimal.NewFromFloat(b.RealizedProfit()))
		profits = append(profits, b.RealizedProfit())
	}

	va := models.VarianceAnalysis{
		SampleSize:     len(profits),
		ExpectedProfit: expected.InexactFloat64(),
		ActualProfit:   actual.InexactFloat64(),
		Delta:          actual.Sub(expected).InexactFloat64(),
		StdDev:         stats.StdDev(profits),
		Tolerance:      tolerance,
	}
	va.StdDevsAway = stats.SafeDiv(va.Delta, va.StdDev)
	va.WithinExpectations = math.Abs(va.StdDevsAway) <= tolerance

	return va
}

// MaxDrawdown folds the running balance over settled bets in order and returns the
// largest fall from a prior peak, in absolute terms and as a fraction of that peak
func MaxDrawdown(bets []models.Bet, initialBankroll float64) (absolute, fraction float64) {
	return stats.MaxDrawdown(BalanceCurve(bets, initialBankroll))
}

// BalanceCurve returns the running balance after each settled bet, initial first
func BalanceCurve(bets []models.Bet, initialBankroll float64) []float64 {
	balance := decimal.NewFromFloat(initialBankroll)
	curve := []float64{initialBankroll}

	for _, b := range bets {
		if !b.Result.IsSettled() {
			continue
		}
		balance = balance.Add(decimal.NewFromFloat(b.RealizedProfit()))
		curve = append(curve, balance.InexactFloat64())
	}
	return curve
}

// SharpeRatio = mean(profit/stake) / stddev(profit/stake) over settled bets
func SharpeRatio(bets []models.Bet) float64 {
	returns := make([]float64, 0, len(bets))
	for _, b := range bets {
		if !b.Result.IsSettled() || b.Stake <= 0 {
			continue
		}
		returns = append(returns, b.RealizedProfit()/b.Stake)
	}
	return stats.SharpeRatio(returns)
}
