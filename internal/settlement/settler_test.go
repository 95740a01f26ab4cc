package settlement

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/ledger"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(v float64) *float64 { return &v }

func TestGrade(t *testing.T) {
	homeWin := models.MatchResult{MatchID: "m1", HomeScore: 2, AwayScore: 1, Completed: true}
	draw := models.MatchResult{MatchID: "m1", HomeScore: 1, AwayScore: 1, Completed: true}
	awayWin := models.MatchResult{MatchID: "m1", HomeScore: 0, AwayScore: 3, Completed: true}

	tests := []struct {
		name     string
		bet      models.Bet
		result   models.MatchResult
		expected models.BetResult
	}{
		{"1x2 home wins", models.Bet{Market: models.Market1X2, Selection: "home"}, homeWin, models.ResultWon},
		{"1x2 home loses to draw", models.Bet{Market: models.Market1X2, Selection: "home"}, draw, models.ResultLost},
		{"1x2 draw", models.Bet{Market: models.Market1X2, Selection: "draw"}, draw, models.ResultWon},
		{"1x2 away", models.Bet{Market: models.Market1X2, Selection: "away"}, awayWin, models.ResultWon},
		{"1x2 unknown selection", models.Bet{Market: models.Market1X2, Selection: "both"}, homeWin, models.ResultVoid},
		{"moneyline away", models.Bet{Market: models.MarketMoneyline, Selection: "away"}, awayWin, models.ResultWon},
		{"moneyline home loses", models.Bet{Market: models.MarketMoneyline, Selection: "home"}, awayWin, models.ResultLost},
		{"moneyline tie pushes", models.Bet{Market: models.MarketMoneyline, Selection: "home"}, draw, models.ResultPush},
		{"over 2.5 with 3 goals", models.Bet{Market: models.MarketTotals, Selection: "over", Line: line(2.5)}, homeWin, models.ResultWon},
		{"under 2.5 with 3 goals", models.Bet{Market: models.MarketTotals, Selection: "under", Line: line(2.5)}, homeWin, models.ResultLost},
		{"home label is over", models.Bet{Market: models.MarketTotals, Selection: "home", Line: line(2.5)}, draw, models.ResultLost},
		{"away label is under", models.Bet{Market: models.MarketTotals, Selection: "away", Line: line(2.5)}, draw, models.ResultWon},
		{"totals exact line pushes", models.Bet{Market: models.MarketTotals, Selection: "over", Line: line(3)}, homeWin, models.ResultPush},
		{"totals without line", models.Bet{Market: models.MarketTotals, Selection: "over"}, homeWin, models.ResultVoid},
		{"handicap home -0.5 wins", models.Bet{Market: models.MarketHandicap, Selection: "home", Line: line(-0.5)}, homeWin, models.ResultWon},
		{"handicap home -1 pushes", models.Bet{Market: models.MarketHandicap, Selection: "home", Line: line(-1)}, homeWin, models.ResultPush},
		{"handicap away +0.5 on draw", models.Bet{Market: models.MarketHandicap, Selection: "away", Line: line(-0.5)}, draw, models.ResultWon},
		{"handicap home -0.5 on draw", models.Bet{Market: models.MarketHandicap, Selection: "home", Line: line(-0.5)}, draw, models.ResultLost},
		{"unknown market", models.Bet{Market: "corners", Selection: "home"}, homeWin, models.ResultVoid},
		{"abandoned", models.Bet{Market: models.Market1X2, Selection: "home"}, models.MatchResult{MatchID: "m1", Void: true}, models.ResultVoid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Grade(tt.bet, tt.result))
		})
	}
}

type closingLine map[string]float64

func (c closingLine) ClosingOdds(matchID, market, selection string) (float64, bool) {
	v, ok := c[matchID+":"+market+":"+selection]
	return v, ok
}

func newLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.New(context.Background(), 1000, ledger.NewFileStore(filepath.Join(t.TempDir(), "ledger.json")))
	require.NoError(t, err)
	return l
}

func appendBet(t *testing.T, l *ledger.Ledger, b models.Bet) models.Bet {
	t.Helper()
	if b.Strategy == "" {
		b.Strategy = models.StrategyFlat
	}
	out, err := l.Append(context.Background(), b)
	require.NoError(t, err)
	return out
}

func TestSettleMatch(t *testing.T) {
	l := newLedger(t)
	ctx := context.Background()

	home := appendBet(t, l, models.Bet{MatchID: "m1", Market: models.Market1X2, Selection: "home", Odds: 2.10, Stake: 20})
	over := appendBet(t, l, models.Bet{MatchID: "m1", Market: models.MarketTotals, Selection: "over", Odds: 1.90, Stake: 10, Line: line(2.5)})
	other := appendBet(t, l, models.Bet{MatchID: "m2", Market: models.Market1X2, Selection: "away", Odds: 3.00, Stake: 10})

	s := NewSettler(l, closingLine{"m1:1x2:home": 1.95})

	settled, err := s.SettleMatch(ctx, models.MatchResult{MatchID: "m1", HomeScore: 1, AwayScore: 0, Completed: true})
	require.NoError(t, err)
	require.Len(t, settled, 2)

	got, ok := l.Get(home.ID)
	require.True(t, ok)
	assert.Equal(t, models.ResultWon, got.Result)
	assert.InDelta(t, 22.0, got.RealizedProfit(), 1e-9)
	require.NotNil(t, got.ClosingOdds)
	assert.Equal(t, 1.95, *got.ClosingOdds)

	got, _ = l.Get(over.ID)
	assert.Equal(t, models.ResultLost, got.Result)
	assert.InDelta(t, -10.0, got.RealizedProfit(), 1e-9)
	assert.Nil(t, got.ClosingOdds)

	got, _ = l.Get(other.ID)
	assert.Equal(t, models.ResultPending, got.Result)

	assert.InDelta(t, 1012.0, l.CurrentBankroll(), 1e-9)

	// nothing left to settle
	settled, err = s.SettleMatch(ctx, models.MatchResult{MatchID: "m1", HomeScore: 1, AwayScore: 0, Completed: true})
	require.NoError(t, err)
	assert.Empty(t, settled)
}

func TestSettleMatch_NotCompleted(t *testing.T) {
	l := newLedger(t)
	appendBet(t, l, models.Bet{MatchID: "m1", Market: models.Market1X2, Selection: "home", Odds: 2.0, Stake: 10})

	_, err := NewSettler(l, nil).SettleMatch(context.Background(), models.MatchResult{MatchID: "m1"})
	assert.ErrorIs(t, err, ErrNotCompleted)
	assert.Len(t, l.Pending("m1"), 1)
}

func TestSettleMatch_Void(t *testing.T) {
	l := newLedger(t)
	bet := appendBet(t, l, models.Bet{MatchID: "m1", Market: models.Market1X2, Selection: "home", Odds: 2.0, Stake: 10})

	settled, err := NewSettler(l, nil).SettleMatch(context.Background(), models.MatchResult{MatchID: "m1", Void: true})
	require.NoError(t, err)
	require.Len(t, settled, 1)
	assert.Equal(t, bet.ID, settled[0].ID)
	assert.Equal(t, models.ResultVoid, settled[0].Result)
	assert.Equal(t, 1000.0, l.CurrentBankroll())
}

func TestStart(t *testing.T) {
	l := newLedger(t)
	appendBet(t, l, models.Bet{MatchID: "m1", Market: models.Market1X2, Selection: "away", Odds: 2.0, Stake: 10})
	appendBet(t, l, models.Bet{MatchID: "m2", Market: models.Market1X2, Selection: "away", Odds: 2.0, Stake: 10})

	source := ResultSourceFunc(func(context.Context) ([]models.MatchResult, error) {
		return []models.MatchResult{
			{MatchID: "m1", HomeScore: 0, AwayScore: 2, Completed: true},
			{MatchID: "m2", HomeScore: 0, AwayScore: 0},
		}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewSettler(l, nil).Start(ctx, source, time.Hour) }()

	assert.Eventually(t, func() bool { return len(l.Pending("m1")) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	assert.Len(t, l.Pending("m2"), 1, "in-progress match stays pending")
	assert.Equal(t, 1010.0, l.CurrentBankroll())
}
