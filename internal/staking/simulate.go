package staking

import (
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/stats"
	"github.com/shopspring/decimal"
)

// Simulate replays bets in ledger order from an initial bankroll, re-sizing every bet
// with policy against the simulated bankroll at that point. The realized odds and
// result of each bet are kept; only the stake changes. Pending bets are sized but
// do not move the bankroll. The function is pure: the same inputs always give the
// same result.
func Simulate(bets []models.Bet, policy Policy, initialBankroll float64) models.SimulationResult {
	bankroll := decimal.NewFromFloat(initialBankroll)
	peak := bankroll
	staked := decimal.Zero
	profit := decimal.Zero

	result := models.SimulationResult{
		Strategy:        policy.Strategy(),
		InitialBankroll: initialBankroll,
		Bets:            make([]models.SimulatedBet, 0, len(bets)),
		Curve:           make([]float64, 0, len(bets)+1),
	}
	result.Curve = append(result.Curve, initialBankroll)

	for _, b := range bets {
		current := bankroll.InexactFloat64()
		stake := stats.Round(policy.Stake(current, Candidate{
			Odds:       b.Odds,
			EV:         b.EV,
			Confidence: b.Confidence,
		}), 2)

		betProfit := 0.0
		if b.Result.IsSettled() {
			betProfit = models.ProfitFor(b.Result, stake, b.Odds)
			staked = staked.Add(decimal.NewFromFloat(stake))
			profit = profit.Add(decimal.NewFromFloat(betProfit))
			bankroll = bankroll.Add(decimal.NewFromFloat(betProfit))
			if bankroll.GreaterThan(peak) {
				peak = bankroll
			}
		}

		after := bankroll.InexactFloat64()
		result.Bets = append(result.Bets, models.SimulatedBet{
			BetID:         b.ID,
			Result:        b.Result,
			Odds:          b.Odds,
			OriginalStake: b.Stake,
			Stake:         stake,
			Profit:        betProfit,
			BankrollAfter: after,
		})
		result.Curve = append(result.Curve, after)
	}

	result.FinalBankroll = bankroll.InexactFloat64()
	result.PeakBankroll = peak.InexactFloat64()
	result.TotalStaked = staked.InexactFloat64()
	result.TotalProfit = profit.InexactFloat64()
	if !staked.IsZero() {
		result.ROI = profit.Div(staked).InexactFloat64()
	}
	result.MaxDrawdown, _ = stats.MaxDrawdown(result.Curve)

	return result
}
