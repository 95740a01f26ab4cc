package settlement

import (
	"github.com/dennisgathu8/house-hedge/pkg/models"
)

// Grade determines a bet's result from the final score.
//
//	1x2        home, draw or away must match the outcome
//	moneyline  a draw is a push
//	totals     selection 0 (over) or 1 (under) against the line, exact is a push
//	handicap   the line is added to the home score, exact is a push
//
// Abandoned matches, unknown markets and line markets without a line are void.
func Grade(bet models.Bet, result models.MatchResult) models.BetResult {
	if result.Void {
		return models.ResultVoid
	}

	switch bet.Market {
	case models.Market1X2:
		return gradeOutcome(bet, result, 3)
	case models.MarketMoneyline:
		if result.HomeScore == result.AwayScore {
			return models.ResultPush
		}
		return gradeOutcome(bet, result, 2)
	case models.MarketTotals:
		return gradeTotal(bet, result)
	case models.MarketHandicap:
		return gradeHandicap(bet, result)
	default:
		return models.ResultVoid
	}
}

func gradeOutcome(bet models.Bet, result models.MatchResult, arity int) models.BetResult {
	idx, err := models.SelectionIndex(bet.Selection, arity)
	if err != nil {
		return models.ResultVoid
	}

	var winner int
	switch {
	case result.HomeScore > result.AwayScore:
		winner = 0
	case result.HomeScore < result.AwayScore:
		winner = arity - 1
	default:
		winner = 1
	}

	if idx == winner {
		return models.ResultWon
	}
	return models.ResultLost
}

func gradeTotal(bet models.Bet, result models.MatchResult) models.BetResult {
	if bet.Line == nil {
		return models.ResultVoid
	}
	idx, err := models.SelectionIndex(bet.Selection, 2)
	if err != nil {
		return models.ResultVoid
	}

	total := float64(result.TotalGoals())
	line := *bet.Line

	switch {
	case total == line:
		return models.ResultPush
	case (total > line) == (idx == 0):
		return models.ResultWon
	default:
		return models.ResultLost
	}
}

func gradeHandicap(bet models.Bet, result models.MatchResult) models.BetResult {
	if bet.Line == nil {
		return models.ResultVoid
	}
	idx, err := models.SelectionIndex(bet.Selection, 2)
	if err != nil {
		return models.ResultVoid
	}

	adjusted := float64(result.HomeScore) + *bet.Line
	away := float64(result.AwayScore)

	switch {
	case adjusted == away:
		return models.ResultPush
	case (adjusted > away) == (idx == 0):
		return models.ResultWon
	default:
		return models.ResultLost
	}
}
