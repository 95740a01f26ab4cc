package ledger_test

import (
	"context"
	"os"
	"testing"

	"github.com/dennisgathu8/house-hedge/internal/ledger"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getTestStore connects to the database in POSTGRES_TEST_DSN
func getTestStore(t *testing.T) *ledger.PostgresStore {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	store, err := ledger.OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Save(context.Background(), nil)
		store.Close()
	})

	return store
}

func TestPostgresStore_RoundTrip(t *testing.T) {
	store := getTestStore(t)
	ctx := context.Background()

	profit := -10.0
	bets := []models.Bet{
		{ID: "p1", MatchID: "m1", Market: models.Market1X2, Selection: "home", Odds: 2.0, Stake: 10,
			Strategy: models.StrategyKelly, CreatedAt: t0, Result: models.ResultLost, SettledAt: &t0, Profit: &profit},
		{ID: "p2", MatchID: "m1", Market: models.Market1X2, Selection: "away", Odds: 4.2, Stake: 5,
			Strategy: models.StrategyFlat, CreatedAt: t0, Result: models.ResultPending},
	}

	require.NoError(t, store.Save(ctx, bets))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "p1", loaded[0].ID)
	assert.Equal(t, models.ResultLost, loaded[0].Result)
	require.NotNil(t, loaded[0].Profit)
	assert.Equal(t, -10.0, *loaded[0].Profit)
	assert.Nil(t, loaded[1].Profit)
}
