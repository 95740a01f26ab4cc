package models

import "time"

// SignalKind identifies the pattern behind a sharp signal
type SignalKind string

const (
	SignalReverseLineMovement SignalKind = "reverse_line_movement"
	SignalSteam               SignalKind = "steam"
	SignalContrarian          SignalKind = "contrarian"
)

// SharpSignal is evidence that professional money is on one selection
type SharpSignal struct {
	ID             string     `json:"id"`
	Kind           SignalKind `json:"kind"`
	MatchID        string     `json:"match_id"`
	Market         string     `json:"market"`
	SelectionIndex int        `json:"selection_index"`
	Direction      string     `json:"direction"` // selection label the money is on
	Confidence     float64    `json:"confidence"`
	Evidence       []string   `json:"evidence"`
	Timestamp      time.Time  `json:"timestamp"`
	PublicPercent  *float64   `json:"public_percent,omitempty"`
	MoneyPercent   *float64   `json:"money_percent,omitempty"`
}

// MatchAnalysis is the outcome of running detection over one match market
type MatchAnalysis struct {
	MatchID       string        `json:"match_id"`
	Market        string        `json:"market"`
	Signals       []SharpSignal `json:"signals"`
	MaxConfidence float64       `json:"max_confidence"`
	Flagged       bool          `json:"flagged"`
}
