package models

import "time"

// ArbitrageOpportunity is a set of best prices whose inverse sum is below one
type ArbitrageOpportunity struct {
	MatchID      string         `json:"match_id"`
	Market       string         `json:"market"`
	Legs         []ArbitrageLeg `json:"legs"`
	InverseSum   float64        `json:"inverse_sum"`
	ProfitMargin float64        `json:"profit_margin"` // 1 - inverse sum
	DetectedAt   time.Time      `json:"detected_at"`
}

// ArbitrageLeg is the best price for one selection of an arbitrage
type ArbitrageLeg struct {
	SelectionIndex int     `json:"selection_index"`
	Selection      string  `json:"selection"`
	Bookmaker      string  `json:"bookmaker"`
	Price          float64 `json:"price"`
	StakeShare     float64 `json:"stake_share"` // fraction of total outlay for an equal payout
}
