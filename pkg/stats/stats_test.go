package stats_test

import (
	"math"
	"testing"

	"github.com/dennisgathu8/house-hedge/pkg/stats"
	"github.com/stretchr/testify/assert"
)

func TestMeanAndVariance(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}

	assert.InDelta(t, 5.0, stats.Mean(values), 1e-12)
	assert.InDelta(t, 4.0, stats.Variance(values), 1e-12)
	assert.InDelta(t, 2.0, stats.StdDev(values), 1e-12)
}

func TestEmptyInputsDegradeToZero(t *testing.T) {
	assert.Equal(t, 0.0, stats.Mean(nil))
	assert.Equal(t, 0.0, stats.Variance(nil))
	assert.Equal(t, 0.0, stats.StdDev(nil))
	assert.Equal(t, 0.0, stats.SharpeRatio(nil))
	assert.Equal(t, 0.0, stats.SafeDiv(1, 0))
	assert.Nil(t, stats.Normalize([]float64{0, 0}))
}

func TestSharpeRatio(t *testing.T) {
	tests := []struct {
		name    string
		returns []float64
		want    float64
	}{
		{"constant returns", []float64{0.1, 0.1, 0.1}, 0},
		{"single return", []float64{0.5}, 0},
		{"symmetric", []float64{1, -1}, 0},
		{"positive drift", []float64{1.2, -1, 1.2, -1}, 0.1 / 1.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := stats.SharpeRatio(tt.returns)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("SharpeRatio(%v) = %v, want %v", tt.returns, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.65, stats.Clamp(0.2, 0.65, 0.95))
	assert.Equal(t, 0.95, stats.Clamp(2, 0.65, 0.95))
	assert.Equal(t, 0.8, stats.Clamp(0.8, 0.65, 0.95))
	assert.Equal(t, 5.0, stats.Clamp(3, 5, 1), "lower bound wins when bounds cross")
}

func TestRound(t *testing.T) {
	assert.Equal(t, 20.83, stats.Round(20.8333, 2))
	assert.Equal(t, 0.0081, stats.Round(0.00812, 4))
}

func TestNormalize(t *testing.T) {
	out := stats.Normalize([]float64{1, 1, 2})
	assert.InDeltaSlice(t, []float64{0.25, 0.25, 0.5}, out, 1e-12)
	assert.InDelta(t, 1.0, stats.Sum(out), 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	abs, frac := stats.MaxDrawdown([]float64{100, 120, 90, 110, 80, 130})
	assert.InDelta(t, 40.0, abs, 1e-12)
	assert.InDelta(t, 40.0/120.0, frac, 1e-12)

	abs, frac = stats.MaxDrawdown([]float64{100, 101, 102})
	assert.Equal(t, 0.0, abs)
	assert.Equal(t, 0.0, frac)
}
