package ingest

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quote(bookmaker string, prices ...float64) models.OddsQuote {
	return models.OddsQuote{
		Bookmaker: bookmaker,
		MatchID:   "m1",
		Market:    models.Market1X2,
		Prices:    prices,
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*models.OddsQuote)
		shouldFail bool
	}{
		{"valid", func(*models.OddsQuote) {}, false},
		{"missing bookmaker", func(q *models.OddsQuote) { q.Bookmaker = "" }, true},
		{"missing match", func(q *models.OddsQuote) { q.MatchID = "" }, true},
		{"missing market", func(q *models.OddsQuote) { q.Market = "" }, true},
		{"zero timestamp", func(q *models.OddsQuote) { q.Timestamp = time.Time{} }, true},
		{"single price", func(q *models.OddsQuote) { q.Prices = []float64{2.0} }, true},
		{"price of one", func(q *models.OddsQuote) { q.Prices[1] = 1.0 }, true},
		{"negative price", func(q *models.OddsQuote) { q.Prices[0] = -2.0 }, true},
		{"nan price", func(q *models.OddsQuote) { q.Prices[2] = math.NaN() }, true},
		{"infinite price", func(q *models.OddsQuote) { q.Prices[2] = math.Inf(1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := quote("bet365", 2.10, 3.40, 3.60)
			tt.mutate(&q)

			err := Validate(q)
			if tt.shouldFail {
				assert.ErrorIs(t, err, ErrInvalidQuote)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

type recorder struct {
	mu     sync.Mutex
	quotes []models.OddsQuote
}

func (r *recorder) handle(_ context.Context, q models.OddsQuote) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes = append(r.quotes, q)
	return nil
}

func (r *recorder) bookmakers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.quotes))
	for i, q := range r.quotes {
		out[i] = q.Bookmaker
	}
	return out
}

func TestQueueProcessesInOrder(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(config.IngestConfig{QueueSize: 8}, rec.handle)

	ctx := context.Background()
	require.NoError(t, q.Push(ctx, quote("a", 2.0, 2.0)))
	require.NoError(t, q.Push(ctx, quote("b", 2.0, 2.0)))
	assert.Equal(t, 2, q.Len())

	q.Start(ctx)
	q.Start(ctx)
	require.NoError(t, q.Push(ctx, quote("c", 2.0, 2.0)))

	assert.Eventually(t, func() bool { return len(rec.bookmakers()) == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, rec.bookmakers())
	assert.Equal(t, 0, q.Stop())
	assert.False(t, q.Running())
}

func TestQueueRejectsInvalid(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(config.IngestConfig{QueueSize: 2}, rec.handle)

	err := q.Push(context.Background(), quote("a", 1.0, 2.0))
	assert.ErrorIs(t, err, ErrInvalidQuote)
	assert.Equal(t, 0, q.Len())
}

func TestQueuePushBlocksWhenFull(t *testing.T) {
	q := NewQueue(config.IngestConfig{QueueSize: 1}, (&recorder{}).handle)

	require.NoError(t, q.Push(context.Background(), quote("a", 2.0, 2.0)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Push(ctx, quote("b", 2.0, 2.0))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, 1, q.Len())
}

// blockingHandler holds the first quote until the consumer is cancelled
type blockingHandler struct {
	recorder
	started chan struct{}
	once    sync.Once
}

func (h *blockingHandler) handle(ctx context.Context, q models.OddsQuote) error {
	first := false
	h.once.Do(func() { first = true })

	_ = h.recorder.handle(ctx, q)
	if first {
		close(h.started)
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func TestQueueStop(t *testing.T) {
	tests := []struct {
		name        string
		drain       bool
		wantDropped int
		wantHandled []string
	}{
		{"discard", false, 2, []string{"a"}},
		{"drain", true, 0, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &blockingHandler{started: make(chan struct{})}
			q := NewQueue(config.IngestConfig{QueueSize: 4, DrainOnStop: tt.drain}, h.handle)

			ctx := context.Background()
			q.Start(ctx)
			require.NoError(t, q.Push(ctx, quote("a", 2.0, 2.0)))
			<-h.started

			require.NoError(t, q.Push(ctx, quote("b", 2.0, 2.0)))
			require.NoError(t, q.Push(ctx, quote("c", 2.0, 2.0)))

			assert.Equal(t, tt.wantDropped, q.Stop())
			assert.Equal(t, tt.wantHandled, h.bookmakers())
			assert.Equal(t, 0, q.Len())
		})
	}
}

func TestQueueRestart(t *testing.T) {
	rec := &recorder{}
	q := NewQueue(config.IngestConfig{QueueSize: 4}, rec.handle)
	ctx := context.Background()

	q.Start(ctx)
	require.NoError(t, q.Push(ctx, quote("a", 2.0, 2.0)))
	assert.Eventually(t, func() bool { return len(rec.bookmakers()) == 1 }, time.Second, 5*time.Millisecond)
	q.Stop()

	q.Start(ctx)
	assert.True(t, q.Running())
	require.NoError(t, q.Push(ctx, quote("b", 2.0, 2.0)))
	assert.Eventually(t, func() bool { return len(rec.bookmakers()) == 2 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, q.Close())
	assert.ErrorIs(t, q.Push(ctx, quote("c", 2.0, 2.0)), ErrStopped)

	q.Start(ctx)
	assert.False(t, q.Running())
}
