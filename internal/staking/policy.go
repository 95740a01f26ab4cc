package staking

import (
	"errors"
	"fmt"
	"math"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/oddsmath"
	"github.com/dennisgathu8/house-hedge/pkg/stats"
)

// ErrUnknownStrategy is returned for a strategy name with no policy
var ErrUnknownStrategy = errors.New("unknown staking strategy")

// unitFraction is one confidence-weighted unit as a share of bankroll
const unitFraction = 0.01

// Candidate is the information a policy sizes a stake from
type Candidate struct {
	Odds       float64
	EV         float64
	Confidence float64
}

// Policy sizes a stake from the current bankroll
type Policy interface {
	Strategy() models.StakingStrategy
	Stake(bankroll float64, c Candidate) float64
	Describe(bankroll float64, c Candidate) string
}

// NewPolicy returns the policy for a strategy name
func NewPolicy(strategy models.StakingStrategy, cfg config.BankrollConfig) (Policy, error) {
	switch strategy {
	case models.StrategyFlat:
		return FlatPolicy{Fraction: cfg.FlatFraction}, nil
	case models.StrategyKelly:
		return KellyPolicy{
			Fraction:    cfg.KellyFraction,
			MinStake:    cfg.MinStake,
			MaxFraction: cfg.MaxStakeFraction,
		}, nil
	case models.StrategyConfidence:
		return ConfidencePolicy{
			MinStake:    cfg.MinStake,
			MaxFraction: cfg.MaxStakeFraction,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// FlatPolicy stakes a fixed fraction of bankroll
type FlatPolicy struct {
	Fraction float64
}

func (p FlatPolicy) Strategy() models.StakingStrategy { return models.StrategyFlat }

// Stake = bankroll × fraction
func (p FlatPolicy) Stake(bankroll float64, _ Candidate) float64 {
	if bankroll <= 0 {
		return 0
	}
	return bankroll * p.Fraction
}

func (p FlatPolicy) Describe(bankroll float64, c Candidate) string {
	return fmt.Sprintf("flat %.1f%% of bankroll", p.Fraction*100)
}

// KellyPolicy stakes fractional Kelly, bounded by a minimum stake and a bankroll cap
type KellyPolicy struct {
	Fraction    float64
	MinStake    float64
	MaxFraction float64
}

func (p KellyPolicy) Strategy() models.StakingStrategy { return models.StrategyKelly }

// Stake = clamp(bankroll × max(0, edge/(odds-1)) × fraction, min_stake, bankroll × max_fraction)
// and never more than the bankroll itself
//
// Example:
// Bankroll 1000, edge 10% at 2.20, quarter Kelly
// Full Kelly = 0.10 / 1.20 = 8.33%
// Stake = 1000 × 0.0833 × 0.25 = 20.83
func (p KellyPolicy) Stake(bankroll float64, c Candidate) float64 {
	if bankroll <= 0 {
		return 0
	}
	full := oddsmath.KellyFraction(c.EV, c.Odds)
	return bounded(bankroll*full*p.Fraction, p.MinStake, p.MaxFraction, bankroll)
}

func (p KellyPolicy) Describe(bankroll float64, c Candidate) string {
	full := oddsmath.KellyFraction(c.EV, c.Odds)
	return fmt.Sprintf("1/%.0f Kelly sizing: edge %.2f%% at %.2f, full Kelly %.2f%%",
		1.0/p.Fraction, c.EV*100, c.Odds, full*100)
}

// ConfidencePolicy stakes 1 to 5 units of 1% bankroll by signal confidence and EV
type ConfidencePolicy struct {
	MinStake    float64
	MaxFraction float64
}

func (p ConfidencePolicy) Strategy() models.StakingStrategy { return models.StrategyConfidence }

// Units maps confidence and EV to a unit count
//
//	conf > 0.85 and ev > 0.10 → 5
//	conf > 0.75 and ev > 0.07 → 4
//	conf > 0.65 and ev > 0.05 → 3
//	conf > 0.55 and ev > 0.03 → 2
//	otherwise                 → 1
func Units(confidence, ev float64) int {
	switch {
	case confidence > 0.85 && ev > 0.10:
		return 5
	case confidence > 0.75 && ev > 0.07:
		return 4
	case confidence > 0.65 && ev > 0.05:
		return 3
	case confidence > 0.55 && ev > 0.03:
		return 2
	default:
		return 1
	}
}

// Stake = clamp(units × 1% bankroll, min_stake, bankroll × max_fraction)
// and never more than the bankroll itself
func (p ConfidencePolicy) Stake(bankroll float64, c Candidate) float64 {
	if bankroll <= 0 {
		return 0
	}
	unit := bankroll * unitFraction
	units := float64(Units(c.Confidence, c.EV))
	return bounded(unit*units, p.MinStake, p.MaxFraction, bankroll)
}

// bounded clamps a raw stake to [min_stake, bankroll × max_fraction]. The floor wins
// over the cap, but never beyond the bankroll itself.
func bounded(raw, minStake, maxFraction, bankroll float64) float64 {
	return math.Min(stats.Clamp(raw, minStake, bankroll*maxFraction), bankroll)
}

func (p ConfidencePolicy) Describe(bankroll float64, c Candidate) string {
	return fmt.Sprintf("%d unit(s) at %.0f%% confidence, edge %.2f%%",
		Units(c.Confidence, c.EV), c.Confidence*100, c.EV*100)
}
