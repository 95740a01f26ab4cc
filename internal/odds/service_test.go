package odds_test

import (
	"testing"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/internal/odds"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Apply_AllowList(t *testing.T) {
	e := odds.NewEngine(config.OddsConfig{Bookmakers: []string{"pinnacle"}})

	require.NoError(t, e.Apply(quote("pinnacle", 0, 2.0, 3.2, 3.9)))
	err := e.Apply(quote("shadybook", 0, 2.0, 3.2, 3.9))
	assert.ErrorIs(t, err, odds.ErrUnknownBookmaker)
	assert.Equal(t, 1, e.Book().Len())
}

func TestEngine_Evaluate(t *testing.T) {
	e := odds.NewEngine(config.OddsConfig{})
	require.NoError(t, e.Apply(quote("pinnacle", 0, 2.00, 3.50, 4.00)))
	require.NoError(t, e.Apply(quote("soft", 0, 2.30, 3.20, 3.60)))

	results, err := e.Evaluate("m1", models.Market1X2)
	require.NoError(t, err)
	require.Len(t, results, 3)

	probSum := 0.0
	for _, r := range results {
		probSum += r.TrueProbability
	}
	assert.InDelta(t, 1.0, probSum, 1e-9)

	home := results[0]
	assert.Equal(t, "soft", home.Bookmaker)
	assert.Equal(t, 2.30, home.Odds)
	assert.Greater(t, home.EV, 0.0)

	_, err = e.Evaluate("unknown", models.Market1X2)
	assert.ErrorIs(t, err, odds.ErrNoQuotes)
}

func TestEngine_LineHistoriesAndMovement(t *testing.T) {
	e := odds.NewEngine(config.OddsConfig{})
	require.NoError(t, e.Apply(quote("pinnacle", 0, 2.00, 3.40, 4.00)))
	require.NoError(t, e.Apply(quote("pinnacle", time.Hour, 1.90, 3.50, 4.20)))
	require.NoError(t, e.Apply(quote("bet365", 0, 2.10, 3.30, 3.80)))
	// late-arriving stale quote does not become current
	require.NoError(t, e.Apply(quote("pinnacle", 30*time.Minute, 1.95, 3.45, 4.10)))

	histories := e.LineHistories("m1", models.Market1X2)
	require.Len(t, histories, 2)
	assert.Equal(t, "bet365", histories[0].Bookmaker)
	assert.Equal(t, []float64{2.00, 3.40, 4.00}, histories[1].Opening)
	assert.Equal(t, []float64{1.90, 3.50, 4.20}, histories[1].Current)

	mv, err := e.LineMovement("m1", models.Market1X2, "pinnacle")
	require.NoError(t, err)
	assert.InDelta(t, -0.05, mv.Changes[0], 1e-9)

	_, err = e.LineMovement("m1", models.Market1X2, "nobody")
	assert.Error(t, err)

	opening, current, ok := e.ConsensusLine("m1", models.Market1X2)
	require.True(t, ok)
	assert.InDelta(t, 2.05, opening[0], 1e-9)
	assert.InDelta(t, 2.00, current[0], 1e-9)
}

func TestEngine_ClosingOdds(t *testing.T) {
	e := odds.NewEngine(config.OddsConfig{})
	require.NoError(t, e.Apply(quote("pinnacle", 0, 2.00, 3.40, 4.00)))
	require.NoError(t, e.Apply(quote("bet365", 0, 1.95, 3.50, 4.10)))

	price, ok := e.ClosingOdds("m1", models.Market1X2, "away")
	require.True(t, ok)
	assert.Equal(t, 4.10, price)

	_, ok = e.ClosingOdds("m1", models.Market1X2, "over")
	assert.True(t, ok, "over maps to index 0")

	_, ok = e.ClosingOdds("m9", models.Market1X2, "home")
	assert.False(t, ok)
}

func TestEngine_Arbitrage(t *testing.T) {
	e := odds.NewEngine(config.OddsConfig{})
	require.NoError(t, e.Apply(quote("a", 0, 2.10, 3.00, 3.50)))
	assert.Nil(t, e.Arbitrage("m1", models.Market1X2))

	require.NoError(t, e.Apply(quote("b", 0, 1.90, 3.60, 3.50)))
	require.NoError(t, e.Apply(quote("c", 0, 1.90, 3.00, 4.50)))
	assert.NotNil(t, e.Arbitrage("m1", models.Market1X2))
}
