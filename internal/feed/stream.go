package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/oddsmath"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RawQuote is a bookmaker price vector as published upstream, in either
// decimal or American format
type RawQuote struct {
	Bookmaker   string               `json:"bookmaker"`
	MatchID     string               `json:"match_id"`
	Market      string               `json:"market"`
	Prices      []float64            `json:"prices"`
	PriceFormat oddsmath.PriceFormat `json:"price_format"`
	Timestamp   time.Time            `json:"timestamp"`
	Handicap    *float64             `json:"handicap,omitempty"`
}

// ToQuote converts every price to decimal odds
func (r RawQuote) ToQuote() (models.OddsQuote, error) {
	prices := make([]float64, len(r.Prices))
	for i, p := range r.Prices {
		d, err := oddsmath.ToDecimal(p, r.PriceFormat)
		if err != nil {
			return models.OddsQuote{}, fmt.Errorf("price %d: %w", i, err)
		}
		prices[i] = d
	}

	return models.OddsQuote{
		Bookmaker: strings.ToLower(r.Bookmaker),
		MatchID:   r.MatchID,
		Market:    strings.ToLower(r.Market),
		Prices:    prices,
		Timestamp: r.Timestamp.UTC(),
		Handicap:  r.Handicap,
	}, nil
}

// StreamConsumer reads raw quotes from a Redis stream through a consumer group
type StreamConsumer struct {
	client     *redis.Client
	stream     string
	groupName  string
	consumerID string
	log        *logrus.Entry
}

// NewStreamConsumer creates a new stream consumer
func NewStreamConsumer(client *redis.Client, stream, groupName, consumerID string) *StreamConsumer {
	return &StreamConsumer{
		client:     client,
		stream:     stream,
		groupName:  groupName,
		consumerID: consumerID,
		log:        logger.For("feed.stream").WithField("stream", stream),
	}
}

// Run consumes the stream until ctx is cancelled, pushing each converted quote
// into sink. Every message is acknowledged once handled, including malformed
// ones, so a bad payload is not redelivered forever.
func (c *StreamConsumer) Run(ctx context.Context, sink Sink) error {
	err := c.client.XGroupCreateMkStream(ctx, c.stream, c.groupName, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.log.WithField("group", c.groupName).Info("consuming raw odds")

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.groupName,
			Consumer: c.consumerID,
			Streams:  []string{c.stream, ">"},
			Count:    10,
			Block:    time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			c.log.WithError(err).Warn("error reading from stream")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		for _, stream := range streams {
			for _, message := range stream.Messages {
				c.handle(ctx, message, sink)
			}
		}
	}
}

func (c *StreamConsumer) handle(ctx context.Context, message redis.XMessage, sink Sink) {
	entry := c.log.WithField("message_id", message.ID)

	quote, err := ParseMessage(message)
	if err != nil {
		entry.WithError(err).Warn("dropping malformed message")
	} else if err := sink.Push(ctx, quote); err != nil {
		entry.WithError(err).Warn("quote not accepted")
	}

	if err := c.client.XAck(ctx, c.stream, c.groupName, message.ID).Err(); err != nil {
		entry.WithError(err).Warn("error acknowledging message")
	}
}

// ParseMessage decodes the JSON "data" field of a stream message into a quote
func ParseMessage(message redis.XMessage) (models.OddsQuote, error) {
	payload, ok := message.Values["data"].(string)
	if !ok {
		return models.OddsQuote{}, fmt.Errorf("missing 'data' field in message")
	}

	var raw RawQuote
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		return models.OddsQuote{}, fmt.Errorf("failed to parse quote JSON: %w", err)
	}

	return raw.ToQuote()
}
