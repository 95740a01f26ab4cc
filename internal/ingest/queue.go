package ingest

import (
	"context"
	"errors"
	"sync"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/internal/metrics"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/sirupsen/logrus"
)

// ErrStopped is returned by Push when the queue has been closed for good
var ErrStopped = errors.New("ingest queue closed")

// Handler processes one quote on the consumer goroutine
type Handler func(ctx context.Context, q models.OddsQuote) error

// Queue is a bounded quote buffer drained by a single consumer goroutine.
// Producers block when the buffer is full. Start and Stop may be called
// repeatedly; quotes pushed while stopped wait in the buffer.
type Queue struct {
	ch          chan models.OddsQuote
	handler     Handler
	drainOnStop bool
	metrics     *metrics.Metrics
	log         *logrus.Entry

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	closed  bool
	closeCh chan struct{}
}

// Option configures a Queue
type Option func(*Queue)

// WithMetrics records ingestion counters and queue depth
func WithMetrics(m *metrics.Metrics) Option {
	return func(q *Queue) { q.metrics = m }
}

// NewQueue creates a stopped queue that hands quotes to handler
func NewQueue(cfg config.IngestConfig, handler Handler, opts ...Option) *Queue {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}

	q := &Queue{
		ch:          make(chan models.OddsQuote, size),
		handler:     handler,
		drainOnStop: cfg.DrainOnStop,
		log:         logger.For("ingest"),
		closeCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push validates a quote and enqueues it, blocking while the buffer is full
// until ctx is cancelled
func (q *Queue) Push(ctx context.Context, quote models.OddsQuote) error {
	if err := Validate(quote); err != nil {
		q.metrics.QuoteRejected()
		q.log.WithError(err).WithFields(logrus.Fields{
			"match_id":  quote.MatchID,
			"bookmaker": quote.Bookmaker,
		}).Warn("rejected quote")
		return err
	}

	select {
	case <-q.closeCh:
		return ErrStopped
	default:
	}

	select {
	case q.ch <- quote:
		q.metrics.SetQueueDepth(len(q.ch))
		return nil
	case <-q.closeCh:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of buffered quotes
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the buffer capacity
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Running reports whether the consumer is active
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cancel != nil
}

// Start launches the consumer. Starting a running queue is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.cancel != nil || q.closed {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.done = make(chan struct{})

	go q.run(runCtx, q.done)
	q.log.Info("ingestion started")
}

func (q *Queue) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}

		select {
		case <-ctx.Done():
			return
		case quote := <-q.ch:
			q.metrics.SetQueueDepth(len(q.ch))
			q.process(ctx, quote)
		}
	}
}

func (q *Queue) process(ctx context.Context, quote models.OddsQuote) {
	if err := q.handler(ctx, quote); err != nil {
		q.log.WithError(err).WithFields(logrus.Fields{
			"match_id":  quote.MatchID,
			"market":    quote.Market,
			"bookmaker": quote.Bookmaker,
		}).Warn("quote handler failed")
		return
	}
	q.metrics.QuoteIngested()
}

// Stop halts the consumer and waits for the in-flight quote to finish. Buffered
// quotes are processed first when drain_on_stop is set, otherwise discarded.
// Returns the number of discarded quotes.
func (q *Queue) Stop() int {
	q.mu.Lock()
	cancel, done := q.cancel, q.done
	q.cancel, q.done = nil, nil
	q.mu.Unlock()

	if cancel == nil {
		return 0
	}

	cancel()
	<-done

	dropped := 0
	for {
		select {
		case quote := <-q.ch:
			if q.drainOnStop {
				q.process(context.Background(), quote)
			} else {
				dropped++
			}
		default:
			q.metrics.SetQueueDepth(0)
			q.metrics.QuotesDiscarded(dropped)
			q.log.WithField("dropped", dropped).Info("ingestion stopped")
			return dropped
		}
	}
}

// Close stops the queue and rejects further pushes
func (q *Queue) Close() int {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.closeCh)
	}
	q.mu.Unlock()

	return q.Stop()
}
