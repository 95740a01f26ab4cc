package ingest

import (
	"errors"
	"fmt"
	"math"

	"github.com/dennisgathu8/house-hedge/pkg/models"
)

// ErrInvalidQuote is returned for quotes rejected at the ingestion boundary
var ErrInvalidQuote = errors.New("invalid quote")

// Validate checks a quote before it enters the queue: identifiers present, a
// timestamp, at least two selections and every price a finite decimal above 1.
func Validate(q models.OddsQuote) error {
	switch {
	case q.Bookmaker == "":
		return fmt.Errorf("%w: missing bookmaker", ErrInvalidQuote)
	case q.MatchID == "":
		return fmt.Errorf("%w: missing match id", ErrInvalidQuote)
	case q.Market == "":
		return fmt.Errorf("%w: missing market", ErrInvalidQuote)
	case q.Timestamp.IsZero():
		return fmt.Errorf("%w: missing timestamp", ErrInvalidQuote)
	case len(q.Prices) < 2:
		return fmt.Errorf("%w: need at least 2 prices, got %d", ErrInvalidQuote, len(q.Prices))
	}

	for i, p := range q.Prices {
		if math.IsNaN(p) || math.IsInf(p, 0) || p <= 1.0 {
			return fmt.Errorf("%w: price %d is %v, must be a finite decimal above 1", ErrInvalidQuote, i, p)
		}
	}

	return nil
}
