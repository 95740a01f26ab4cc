package broadcast

import (
	"time"

	"github.com/dennisgathu8/house-hedge/pkg/models"
)

// Message types for WebSocket communication
const (
	MessageTypeEvent       = "event"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeHeartbeat   = "heartbeat"
	MessageTypeError       = "error"
)

// ClientMessage is a message from client to server
type ClientMessage struct {
	Type    string             `json:"type"`
	Payload SubscriptionFilter `json:"payload,omitempty"`
}

// ServerMessage is a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SubscriptionFilter narrows the events a client receives. Empty fields match everything.
type SubscriptionFilter struct {
	MatchIDs []string           `json:"matches,omitempty"`
	Markets  []string           `json:"markets,omitempty"`
	Types    []models.EventType `json:"types,omitempty"`
}

// Matches reports whether an event passes the filter. Ledger-wide events
// carry no match or market and pass those filters.
func (f SubscriptionFilter) Matches(e models.Event) bool {
	if len(f.Types) > 0 && !contains(f.Types, e.Type) {
		return false
	}
	if len(f.MatchIDs) > 0 && e.MatchID != "" && !contains(f.MatchIDs, e.MatchID) {
		return false
	}
	if len(f.Markets) > 0 && e.Market != "" && !contains(f.Markets, e.Market) {
		return false
	}
	return true
}

// ConnectionStats describes one client connection
type ConnectionStats struct {
	ClientID         string    `json:"client_id"`
	ConnectedAt      time.Time `json:"connected_at"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	LastMessageAt    time.Time `json:"last_message_at"`
	BufferSize       int       `json:"buffer_size"`
	BufferUsed       int       `json:"buffer_used"`
}

// ErrorMessage is sent to a client that sent something the server cannot handle
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func contains[T comparable](slice []T, item T) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
