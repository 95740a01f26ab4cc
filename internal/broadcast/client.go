package broadcast

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	maxMessageSize = 4096
	sendBufferSize = 256
)

// keepalive is the ping/pong timing of a connection. pingPeriod must stay below pongWait.
type keepalive struct {
	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration
}

var defaultKeepalive = keepalive{
	writeWait:  10 * time.Second,
	pongWait:   60 * time.Second,
	pingPeriod: 54 * time.Second,
}

// Client is one WebSocket subscriber. The hub writes into its send buffer; Serve
// moves those messages onto the socket and applies subscription changes read from it.
type Client struct {
	ID     string
	conn   *websocket.Conn
	hub    *Hub
	timing keepalive
	log    *logrus.Entry

	sendMu sync.RWMutex
	send   chan ServerMessage
	closed bool

	filter atomic.Pointer[SubscriptionFilter]

	connectedAt time.Time
	sent        atomic.Int64
	received    atomic.Int64
	lastActive  atomic.Int64 // unix nanos, zero before the first message
}

// NewClient creates a client bound to a hub
func NewClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		ID:          id,
		conn:        conn,
		hub:         hub,
		timing:      defaultKeepalive,
		log:         logger.For("broadcast").WithField("client_id", id),
		send:        make(chan ServerMessage, sendBufferSize),
		connectedAt: time.Now().UTC(),
	}
}

// Serve runs the connection until the peer goes away, the hub drops the client or
// ctx is cancelled. Reads happen on the calling goroutine, writes on a second one.
func (c *Client) Serve(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writeLoop(ctx)
	}()

	c.readLoop(ctx)

	cancel()
	c.hub.Unregister(c)
	c.conn.Close()
	<-writerDone
}

func (c *Client) readLoop(ctx context.Context) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.timing.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.timing.pongWait))
	})

	for ctx.Err() == nil {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("unexpected close")
			}
			return
		}

		c.received.Add(1)
		c.touch()
		c.handleClientMessage(msg)
	}
}

// writeLoop owns every write to the socket. Closing the connection on exit also
// unblocks a reader stuck in ReadJSON.
func (c *Client) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(c.timing.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.sendClose(websocket.CloseGoingAway)
			return

		case msg, ok := <-c.send:
			if !ok {
				c.sendClose(websocket.CloseNormalClosure)
				return
			}
			if err := c.flush(msg); err != nil {
				c.log.WithError(err).Warn("write failed")
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.timing.writeWait)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// flush writes first plus whatever was already queued behind it under one deadline
func (c *Client) flush(first ServerMessage) error {
	batch := []ServerMessage{first}
	for n := len(c.send); n > 0; n-- {
		msg, ok := <-c.send
		if !ok {
			break
		}
		batch = append(batch, msg)
	}

	c.conn.SetWriteDeadline(time.Now().Add(c.timing.writeWait))
	for _, msg := range batch {
		if err := c.conn.WriteJSON(msg); err != nil {
			return err
		}
		c.sent.Add(1)
	}
	c.touch()
	return nil
}

func (c *Client) sendClose(code int) {
	deadline := time.Now().Add(c.timing.writeWait)
	_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, ""), deadline)
}

// TrySend queues a message without blocking. It returns false when the buffer is
// full or the hub has already dropped the client.
func (c *Client) TrySend(msg ServerMessage) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// closeSend ends the write side. Safe to call more than once.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// SetFilter replaces the subscription filter
func (c *Client) SetFilter(filter SubscriptionFilter) {
	c.filter.Store(&filter)
}

// Filter returns the current subscription filter
func (c *Client) Filter() SubscriptionFilter {
	if f := c.filter.Load(); f != nil {
		return *f
	}
	return SubscriptionFilter{}
}

func (c *Client) touch() {
	c.lastActive.Store(time.Now().UTC().UnixNano())
}

// Stats returns connection statistics
func (c *Client) Stats() ConnectionStats {
	stats := ConnectionStats{
		ClientID:         c.ID,
		ConnectedAt:      c.connectedAt,
		MessagesSent:     c.sent.Load(),
		MessagesReceived: c.received.Load(),
		BufferSize:       sendBufferSize,
		BufferUsed:       len(c.send),
	}
	if ns := c.lastActive.Load(); ns != 0 {
		stats.LastMessageAt = time.Unix(0, ns).UTC()
	}
	return stats
}

func (c *Client) handleClientMessage(msg ClientMessage) {
	switch msg.Type {
	case MessageTypeSubscribe:
		c.SetFilter(msg.Payload)
		c.log.WithFields(logrus.Fields{
			"matches": msg.Payload.MatchIDs,
			"markets": msg.Payload.Markets,
			"types":   msg.Payload.Types,
		}).Debug("subscribed")
	case MessageTypeUnsubscribe:
		c.SetFilter(SubscriptionFilter{})
	case MessageTypeHeartbeat:
		c.reply(MessageTypeHeartbeat, c.Stats())
	default:
		c.reply(MessageTypeError, ErrorMessage{
			Code:    "unknown_message_type",
			Message: fmt.Sprintf("unknown message type: %s", msg.Type),
		})
	}
}

func (c *Client) reply(msgType string, payload interface{}) {
	if !c.TrySend(ServerMessage{Type: msgType, Payload: payload, Timestamp: time.Now().UTC()}) {
		c.log.WithField("type", msgType).Debug("reply dropped")
	}
}
