// Package publisher delivers engine events to Redis Streams and other sinks.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/internal/metrics"
	"github.com/dennisgathu8/house-hedge/internal/retry"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Streams maps each event type to its Redis stream
var Streams = map[models.EventType]string{
	models.EventEVResult:          "ev.results",
	models.EventSharpAnalysis:     "signals.sharp",
	models.EventStakingDecision:   "staking.decisions",
	models.EventArbitrage:         "arbitrage.detected",
	models.EventPerformanceReport: "performance.reports",
}

// Publisher delivers events
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// StreamAdder is the subset of the Redis client the publisher uses
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher writes events as JSON to Redis Streams, rate limited and retried
type StreamPublisher struct {
	client  StreamAdder
	limiter *rate.Limiter
	retry   *retry.Policy
	metrics *metrics.Metrics
	log     *logrus.Entry
}

// NewStreamPublisher creates a new stream publisher
func NewStreamPublisher(client StreamAdder, cfg config.PublisherConfig, m *metrics.Metrics) *StreamPublisher {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &StreamPublisher{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		retry:   retry.NewPolicy(cfg.MaxAttempts, 100*time.Millisecond),
		metrics: m,
		log:     logger.For("publisher"),
	}
}

// Publish adds the event to its stream under a "data" field
func (p *StreamPublisher) Publish(ctx context.Context, event models.Event) error {
	stream, ok := Streams[event.Type]
	if !ok {
		return fmt.Errorf("no stream for event type %q", event.Type)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	err = p.retry.Execute(ctx, func(ctx context.Context) error {
		return p.client.XAdd(ctx, &redis.XAddArgs{
			Stream: stream,
			Values: map[string]interface{}{
				"data": string(payload),
			},
		}).Err()
	})
	if err != nil {
		p.metrics.PublishFailed(stream)
		p.log.WithError(err).WithFields(logrus.Fields{
			"stream":   stream,
			"match_id": event.MatchID,
		}).Warn("failed to publish event")
		return fmt.Errorf("failed to publish to stream %s: %w", stream, err)
	}

	return nil
}

// Fanout publishes each event to every publisher and joins their errors
type Fanout []Publisher

// Publish implements Publisher
func (f Fanout) Publish(ctx context.Context, event models.Event) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events
type Nop struct{}

// Publish implements Publisher
func (Nop) Publish(context.Context, models.Event) error { return nil }
