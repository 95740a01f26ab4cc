package performance

import (
	"time"

	"github.com/dennisgathu8/house-hedge/pkg/models"
)

// Predicate selects bets for a query
type Predicate func(models.Bet) bool

// All matches every bet
func All() Predicate {
	return func(models.Bet) bool { return true }
}

// ByMarket matches bets on a market
func ByMarket(market string) Predicate {
	return func(b models.Bet) bool { return b.Market == market }
}

// ByStrategy matches bets sized by a staking strategy
func ByStrategy(strategy models.StakingStrategy) Predicate {
	return func(b models.Bet) bool { return b.Strategy == strategy }
}

// ByResult matches bets with a given result
func ByResult(result models.BetResult) Predicate {
	return func(b models.Bet) bool { return b.Result == result }
}

// ByMatch matches bets on one match
func ByMatch(matchID string) Predicate {
	return func(b models.Bet) bool { return b.MatchID == matchID }
}

// Between matches bets placed in [from, to). A zero bound is open.
func Between(from, to time.Time) Predicate {
	return func(b models.Bet) bool {
		if !from.IsZero() && b.CreatedAt.Before(from) {
			return false
		}
		if !to.IsZero() && !b.CreatedAt.Before(to) {
			return false
		}
		return true
	}
}

// Settled matches bets with a terminal result
func Settled() Predicate {
	return func(b models.Bet) bool { return b.Result.IsSettled() }
}

// Pending matches open bets
func Pending() Predicate {
	return ByResult(models.ResultPending)
}

// And matches when every predicate matches
func And(preds ...Predicate) Predicate {
	return func(b models.Bet) bool {
		for _, p := range preds {
			if !p(b) {
				return false
			}
		}
		return true
	}
}

// Or matches when any predicate matches
func Or(preds ...Predicate) Predicate {
	return func(b models.Bet) bool {
		for _, p := range preds {
			if p(b) {
				return true
			}
		}
		return false
	}
}

// Not inverts a predicate
func Not(p Predicate) Predicate {
	return func(b models.Bet) bool { return !p(b) }
}

// Apply filters bets in order
func Apply(bets []models.Bet, p Predicate) []models.Bet {
	var out []models.Bet
	for _, b := range bets {
		if p(b) {
			out = append(out, b)
		}
	}
	return out
}
