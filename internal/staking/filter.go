package staking

import (
	"fmt"

	"github.com/dennisgathu8/house-hedge/internal/config"
)

// SlipFilter decides whether a candidate is strong enough to become a bet slip
type SlipFilter struct {
	minEV         float64
	minConfidence float64
}

// NewSlipFilter creates a filter from the slips thresholds
func NewSlipFilter(cfg config.SlipsConfig) *SlipFilter {
	return &SlipFilter{
		minEV:         cfg.MinEV,
		minConfidence: cfg.MinConfidence,
	}
}

// Qualifies returns true if the candidate meets both thresholds, or the reason it does not
func (f *SlipFilter) Qualifies(ev, confidence float64) (bool, string) {
	if ev < f.minEV {
		return false, fmt.Sprintf("EV %.2f%% below threshold %.2f%%", ev*100, f.minEV*100)
	}

	if confidence < f.minConfidence {
		return false, fmt.Sprintf("confidence %.2f below threshold %.2f", confidence, f.minConfidence)
	}

	return true, ""
}
