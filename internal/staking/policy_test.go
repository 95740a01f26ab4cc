package staking_test

import (
	"math"
	"testing"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/internal/staking"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bankrollConfig() config.BankrollConfig {
	return config.Default().Bankroll
}

func TestKellyPolicy(t *testing.T) {
	p, err := staking.NewPolicy(models.StrategyKelly, bankrollConfig())
	require.NoError(t, err)

	tests := []struct {
		name     string
		bankroll float64
		c        staking.Candidate
		want     float64
	}{
		{"quarter Kelly 10% edge at 2.20", 1000, staking.Candidate{Odds: 2.20, EV: 0.10}, 20.8333},
		{"capped at 5% of bankroll", 1000, staking.Candidate{Odds: 2.00, EV: 0.50}, 50},
		{"negative edge floors at min stake", 1000, staking.Candidate{Odds: 2.00, EV: -0.10}, 1},
		{"tiny edge floors at min stake", 1000, staking.Candidate{Odds: 3.00, EV: 0.001}, 1},
		{"empty bankroll", 0, staking.Candidate{Odds: 2.20, EV: 0.10}, 0},
		{"min stake above bankroll stakes the bankroll", 0.50, staking.Candidate{Odds: 2.20, EV: 0.10}, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.Stake(tt.bankroll, tt.c)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Stake(%.0f, %+v) = %.4f, want %.4f", tt.bankroll, tt.c, got, tt.want)
			}
		})
	}
}

func TestFlatPolicy(t *testing.T) {
	p, err := staking.NewPolicy(models.StrategyFlat, bankrollConfig())
	require.NoError(t, err)

	assert.InDelta(t, 20.0, p.Stake(1000, staking.Candidate{}), 1e-9)
	assert.InDelta(t, 10.0, p.Stake(500, staking.Candidate{Odds: 5, EV: 0.5}), 1e-9)
	assert.Equal(t, 0.0, p.Stake(-10, staking.Candidate{}))
}

func TestUnits(t *testing.T) {
	tests := []struct {
		confidence float64
		ev         float64
		want       int
	}{
		{0.90, 0.12, 5},
		{0.90, 0.08, 4},
		{0.80, 0.12, 4},
		{0.70, 0.06, 3},
		{0.60, 0.04, 2},
		{0.60, 0.02, 1},
		{0.50, 0.20, 1},
		{0.85, 0.11, 4},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, staking.Units(tt.confidence, tt.ev), "conf=%.2f ev=%.2f", tt.confidence, tt.ev)
	}
}

func TestConfidencePolicy(t *testing.T) {
	p, err := staking.NewPolicy(models.StrategyConfidence, bankrollConfig())
	require.NoError(t, err)

	assert.InDelta(t, 50.0, p.Stake(1000, staking.Candidate{Confidence: 0.9, EV: 0.12}), 1e-9)
	assert.InDelta(t, 30.0, p.Stake(1000, staking.Candidate{Confidence: 0.7, EV: 0.06}), 1e-9)
	assert.InDelta(t, 10.0, p.Stake(1000, staking.Candidate{}), 1e-9)
	assert.InDelta(t, 1.0, p.Stake(50, staking.Candidate{}), 1e-9, "half-unit bumped to min stake")
	assert.InDelta(t, 0.5, p.Stake(0.5, staking.Candidate{}), 1e-9, "min stake never exceeds bankroll")

	cfg := bankrollConfig()
	cfg.MaxStakeFraction = 0.03
	capped, err := staking.NewPolicy(models.StrategyConfidence, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 30.0, capped.Stake(1000, staking.Candidate{Confidence: 0.9, EV: 0.12}), 1e-9)
}

func TestNewPolicy_Unknown(t *testing.T) {
	_, err := staking.NewPolicy("martingale", bankrollConfig())
	assert.ErrorIs(t, err, staking.ErrUnknownStrategy)
}

func TestAssessRisk(t *testing.T) {
	tests := []struct {
		name    string
		peak    float64
		current float64
		want    models.RiskLevel
	}{
		{"at peak", 1000, 1000, models.RiskOK},
		{"small dip", 1000, 950, models.RiskOK},
		{"caution at 10%", 1000, 900, models.RiskCaution},
		{"warning at 20%", 1000, 800, models.RiskWarning},
		{"critical at 30%", 1000, 700, models.RiskCritical},
		{"zero peak", 0, 0, models.RiskOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			check := staking.AssessRisk(tt.peak, tt.current)
			assert.Equal(t, tt.want, check.Level)
			assert.NotEmpty(t, check.Message)
		})
	}
}

func TestSlipFilter(t *testing.T) {
	f := staking.NewSlipFilter(config.SlipsConfig{MinEV: 0.03, MinConfidence: 0.65})

	ok, reason := f.Qualifies(0.05, 0.70)
	assert.True(t, ok)
	assert.Empty(t, reason)

	ok, reason = f.Qualifies(0.01, 0.90)
	assert.False(t, ok)
	assert.Contains(t, reason, "EV")

	ok, reason = f.Qualifies(0.10, 0.50)
	assert.False(t, ok)
	assert.Contains(t, reason, "confidence")
}
