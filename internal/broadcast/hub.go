// Package broadcast fans engine events out to WebSocket subscribers.
package broadcast

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/sirupsen/logrus"
)

// ErrBufferFull is returned by Publish when the hub cannot accept more events
var ErrBufferFull = errors.New("broadcast buffer full")

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	clientsMu sync.RWMutex
	clients   map[*Client]bool

	broadcast  chan models.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	metricsMu        sync.Mutex
	totalConnections int64
	totalMessages    int64

	log *logrus.Entry
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.Event, 1000),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.For("broadcast"),
	}
}

// Run is the hub's main loop. It closes every client when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues an event for broadcast without blocking
func (h *Hub) Publish(_ context.Context, event models.Event) error {
	select {
	case h.broadcast <- event:
		return nil
	default:
		h.log.WithField("type", event.Type).Warn("broadcast buffer full, dropping event")
		return ErrBufferFull
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true

	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	h.log.WithFields(logrus.Fields{"client_id": c.ID, "total": len(h.clients)}).Info("client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
		h.log.WithFields(logrus.Fields{"client_id": c.ID, "total": len(h.clients)}).Info("client disconnected")
	}
}

// broadcastEvent sends an event to every client whose filter matches.
// Clients whose buffer is full are disconnected.
func (h *Hub) broadcastEvent(event models.Event) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      MessageTypeEvent,
		Payload:   event,
		Timestamp: time.Now().UTC(),
	}

	sent := 0
	for _, c := range clients {
		if !c.Filter().Matches(event) {
			continue
		}

		if c.TrySend(message) {
			sent++
			continue
		}

		h.log.WithField("client_id", c.ID).Warn("client buffer full, disconnecting")
		h.unregisterClient(c)
	}

	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages++
		h.metricsMu.Unlock()
	}
}

// Stats returns hub counters
func (h *Hub) Stats() map[string]interface{} {
	h.metricsMu.Lock()
	totalConnections, totalMessages := h.totalConnections, h.totalMessages
	h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     h.ClientCount(),
		"total_connections":  totalConnections,
		"total_messages":     totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.log.WithField("clients", len(h.clients)).Info("shutting down hub")

	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}
}
