package models

import "time"

// Market keys
const (
	Market1X2       = "1x2"
	MarketMoneyline = "moneyline"
	MarketTotals    = "totals"
	MarketHandicap  = "handicap"
)

// NoBookmaker is the bookmaker reported when no quote exists for a selection
const NoBookmaker = "none"

// OddsQuote is one bookmaker's price vector for a market at a point in time.
// Quotes are appended and never mutated; the current quote is the latest per
// (match, market, bookmaker).
type OddsQuote struct {
	Bookmaker string    `json:"bookmaker"`
	MatchID   string    `json:"match_id"`
	Market    string    `json:"market"`
	Prices    []float64 `json:"prices"` // decimal odds, one per selection
	Timestamp time.Time `json:"timestamp"`
	Handicap  *float64  `json:"handicap,omitempty"` // line for totals/handicap markets
}

// TrueProbability is a de-margined probability vector derived from a quote
type TrueProbability struct {
	MatchID       string    `json:"match_id"`
	Market        string    `json:"market"`
	Bookmaker     string    `json:"bookmaker"`
	Probabilities []float64 `json:"probabilities"`
	Margin        float64   `json:"margin"` // overround that was removed
}

// BestPrice is the highest price offered for a selection
type BestPrice struct {
	Bookmaker string  `json:"bookmaker"`
	Price     float64 `json:"price"`
}

// Found reports whether any bookmaker quoted the selection
func (b BestPrice) Found() bool {
	return b.Bookmaker != NoBookmaker && b.Price > 0
}

// EVResult is the expected value of backing one selection at the best price
type EVResult struct {
	MatchID         string    `json:"match_id"`
	Market          string    `json:"market"`
	SelectionIndex  int       `json:"selection_index"`
	Selection       string    `json:"selection"`
	Bookmaker       string    `json:"bookmaker"`
	Odds            float64   `json:"odds"`
	TrueProbability float64   `json:"true_probability"`
	FairOdds        float64   `json:"fair_odds"`
	EV              float64   `json:"ev"`
	KellyFraction   *float64  `json:"kelly_fraction,omitempty"` // full Kelly, only when EV > 0
	ComputedAt      time.Time `json:"computed_at"`
}

// MovementDirection classifies a line move
type MovementDirection string

const (
	MovementLengthening MovementDirection = "lengthening"
	MovementShortening  MovementDirection = "shortening"
)

// LineMovement describes how a price vector moved from opening to current
type LineMovement struct {
	Changes      []float64         `json:"changes"` // fractional, (current-opening)/opening
	MaxAbsChange float64           `json:"max_abs_change"`
	Direction    MovementDirection `json:"direction"`
}

// LineHistory is one bookmaker's opening and current prices for a market
type LineHistory struct {
	Bookmaker string    `json:"bookmaker"`
	Opening   []float64 `json:"opening"`
	Current   []float64 `json:"current"`
}

// PublicBetting is the share of tickets and money on each selection
type PublicBetting struct {
	MatchID       string    `json:"match_id"`
	Market        string    `json:"market"`
	BetPercents   []float64 `json:"bet_percents"`             // fractions in [0,1]
	MoneyPercents []float64 `json:"money_percents,omitempty"` // fractions in [0,1]
	UpdatedAt     time.Time `json:"updated_at"`
}
