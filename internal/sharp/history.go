package sharp

import (
	"sync"
	"time"

	"github.com/dennisgathu8/house-hedge/pkg/models"
)

// History is a bounded, append-only record of emitted signals. When full, the
// oldest signal is evicted. Signals are never deduplicated.
type History struct {
	mu      sync.RWMutex
	signals []models.SharpSignal
	limit   int
	now     func() time.Time
}

// NewHistory creates a history holding at most limit signals
func NewHistory(limit int, now func() time.Time) *History {
	if limit <= 0 {
		limit = 10000
	}
	return &History{limit: limit, now: now}
}

// Record appends signals
func (h *History) Record(signals ...models.SharpSignal) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.signals = append(h.signals, signals...)
	if over := len(h.signals) - h.limit; over > 0 {
		h.signals = append([]models.SharpSignal(nil), h.signals[over:]...)
	}
}

// Len returns the number of retained signals
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.signals)
}

// Filter selects signals from the history. Zero values match everything.
type Filter struct {
	Kind          models.SignalKind
	MatchID       string
	MinConfidence float64
	HoursBack     float64
}

// Query returns the signals matching f in emission order
func (h *History) Query(f Filter) []models.SharpSignal {
	var cutoff time.Time
	if f.HoursBack > 0 {
		cutoff = h.now().Add(-time.Duration(f.HoursBack * float64(time.Hour)))
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []models.SharpSignal
	for _, s := range h.signals {
		if f.Kind != "" && s.Kind != f.Kind {
			continue
		}
		if f.MatchID != "" && s.MatchID != f.MatchID {
			continue
		}
		if s.Confidence < f.MinConfidence {
			continue
		}
		if !cutoff.IsZero() && s.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, s)
	}
	return out
}
