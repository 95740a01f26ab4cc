package models

import "time"

// EventType names an engine output
type EventType string

const (
	EventEVResult          EventType = "ev_result"
	EventSharpAnalysis     EventType = "sharp_analysis"
	EventStakingDecision   EventType = "staking_decision"
	EventArbitrage         EventType = "arbitrage"
	EventPerformanceReport EventType = "performance_report"
)

// Event is an engine output published to streams and WebSocket subscribers.
// MatchID and Market are empty for ledger-wide events.
type Event struct {
	Type      EventType   `json:"type"`
	MatchID   string      `json:"match_id,omitempty"`
	Market    string      `json:"market,omitempty"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}
