package odds_test

import (
	"testing"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/odds"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func quote(book string, at time.Duration, prices ...float64) models.OddsQuote {
	return models.OddsQuote{
		Bookmaker: book,
		MatchID:   "m1",
		Market:    models.Market1X2,
		Prices:    prices,
		Timestamp: t0.Add(at),
	}
}

func TestFindBestPrice(t *testing.T) {
	quotes := []models.OddsQuote{
		quote("pinnacle", 0, 2.10, 3.30, 3.80),
		quote("bet365", 0, 2.05, 3.40, 3.90),
		quote("unibet", 0, 2.00, 3.25, 4.00),
	}

	tests := []struct {
		name     string
		idx      int
		wantBook string
		wantOdds float64
	}{
		{"home", 0, "pinnacle", 2.10},
		{"draw", 1, "bet365", 3.40},
		{"away", 2, "unibet", 4.00},
		{"out of range", 5, models.NoBookmaker, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			best := odds.FindBestPrice("m1", models.Market1X2, tt.idx, quotes)
			assert.Equal(t, tt.wantBook, best.Bookmaker)
			assert.Equal(t, tt.wantOdds, best.Price)
		})
	}
}

func TestFindBestPrice_UsesLatestQuotePerBookmaker(t *testing.T) {
	quotes := []models.OddsQuote{
		quote("pinnacle", 0, 2.50, 3.30, 3.00),
		quote("pinnacle", time.Minute, 2.05, 3.30, 3.90),
		quote("bet365", 0, 2.10, 3.40, 3.60),
	}

	best := odds.FindBestPrice("m1", models.Market1X2, 0, quotes)
	assert.Equal(t, "bet365", best.Bookmaker)
	assert.Equal(t, 2.10, best.Price)
}

func TestFindBestPrice_NoQuotes(t *testing.T) {
	best := odds.FindBestPrice("m1", models.Market1X2, 0, nil)
	assert.False(t, best.Found())
	assert.Equal(t, models.NoBookmaker, best.Bookmaker)
	assert.Equal(t, 0.0, best.Price)
}

func TestCalculateEVForSelection(t *testing.T) {
	quotes := []models.OddsQuote{
		quote("pinnacle", 0, 2.20, 3.30, 3.50),
	}

	res := odds.CalculateEVForSelection("m1", models.Market1X2, 0, 0.5, quotes)
	assert.Equal(t, "home", res.Selection)
	assert.Equal(t, "pinnacle", res.Bookmaker)
	assert.InDelta(t, 0.10, res.EV, 1e-9)
	assert.InDelta(t, 2.0, res.FairOdds, 1e-9)
	require.NotNil(t, res.KellyFraction)
	assert.InDelta(t, 0.10/1.2, *res.KellyFraction, 1e-9)

	neg := odds.CalculateEVForSelection("m1", models.Market1X2, 1, 0.25, quotes)
	assert.Less(t, neg.EV, 0.0)
	assert.Nil(t, neg.KellyFraction)
}

func TestDetectArbitrage(t *testing.T) {
	t.Run("opportunity across books", func(t *testing.T) {
		quotes := []models.OddsQuote{
			quote("pinnacle", 0, 2.10, 3.20, 3.80),
			quote("bet365", 0, 1.95, 3.60, 3.70),
			quote("unibet", 0, 2.00, 3.10, 4.50),
		}

		arb := odds.DetectArbitrage("m1", models.Market1X2, quotes)
		require.NotNil(t, arb)
		assert.InDelta(t, 0.02381, arb.ProfitMargin, 1e-4)
		assert.Equal(t, "pinnacle", arb.Legs[0].Bookmaker)
		assert.Equal(t, "bet365", arb.Legs[1].Bookmaker)
		assert.Equal(t, "unibet", arb.Legs[2].Bookmaker)

		total := 0.0
		for _, leg := range arb.Legs {
			total += leg.StakeShare
		}
		assert.InDelta(t, 1.0, total, 1e-9)
	})

	t.Run("overround market", func(t *testing.T) {
		quotes := []models.OddsQuote{quote("pinnacle", 0, 2.10, 3.40, 4.00)}
		assert.Nil(t, odds.DetectArbitrage("m1", models.Market1X2, quotes))
	})

	t.Run("no quotes", func(t *testing.T) {
		assert.Nil(t, odds.DetectArbitrage("m1", models.Market1X2, nil))
	})

	t.Run("other match ignored", func(t *testing.T) {
		q := quote("pinnacle", 0, 2.10, 3.60, 4.50)
		q.MatchID = "m2"
		assert.Nil(t, odds.DetectArbitrage("m1", models.Market1X2, []models.OddsQuote{q}))
	})
}

func TestCalculateLineMovement(t *testing.T) {
	mv, err := odds.CalculateLineMovement([]float64{2.00, 3.40, 4.00}, []float64{1.80, 3.50, 4.40})
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{-0.10, 0.029412, 0.10}, mv.Changes, 1e-5)
	assert.InDelta(t, 0.10, mv.MaxAbsChange, 1e-9)
	assert.Equal(t, models.MovementShortening, mv.Direction)

	mv, err = odds.CalculateLineMovement([]float64{2.00, 2.00}, []float64{2.20, 1.80})
	require.NoError(t, err)
	assert.Equal(t, models.MovementLengthening, mv.Direction)

	_, err = odds.CalculateLineMovement([]float64{2.0}, []float64{2.0, 3.0})
	assert.Error(t, err)
}

func TestDeriveTrueProbability(t *testing.T) {
	tp, err := odds.DeriveTrueProbability(quote("pinnacle", 0, 2.0, 3.0, 4.0))
	require.NoError(t, err)

	sum := 0.0
	for _, p := range tp.Probabilities {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.InDelta(t, 1.0/12.0, tp.Margin, 1e-9)
}
