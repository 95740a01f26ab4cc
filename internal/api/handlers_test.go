package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/sharp"
	"github.com/dennisgathu8/house-hedge/internal/staking"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2026, 5, 2, 18, 0, 0, 0, time.UTC)

type fakeLedger struct {
	bets []models.Bet
}

func (f *fakeLedger) Bets() []models.Bet      { return f.bets }
func (f *fakeLedger) InitialBankroll() float64 { return 1000 }
func (f *fakeLedger) Snapshot(at time.Time) models.BankrollSnapshot {
	return models.BankrollSnapshot{Timestamp: at, Balance: 1100, Peak: 1100, SettledCount: 1, OpenCount: 1}
}

type fakeStrategies struct{}

func (fakeStrategies) SimulateAlternativeStrategy(s models.StakingStrategy) (*models.SimulationResult, error) {
	if s != models.StrategyFlat {
		return nil, fmt.Errorf("%w: %q", staking.ErrUnknownStrategy, s)
	}
	return &models.SimulationResult{Strategy: s, InitialBankroll: 1000, FinalBankroll: 1020}, nil
}

func (fakeStrategies) CompareStrategies() (*models.StrategyComparison, error) {
	return &models.StrategyComparison{
		Results: []models.SimulationResult{{Strategy: models.StrategyKelly, FinalBankroll: 1050}},
		Best:    models.StrategyKelly,
	}, nil
}

type fakeSignals struct {
	last sharp.Filter
}

func (f *fakeSignals) Query(filter sharp.Filter) []models.SharpSignal {
	f.last = filter
	return []models.SharpSignal{{Kind: models.SignalSteam, MatchID: "m1", Confidence: 0.8}}
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeSignals) {
	t.Helper()

	won := 100.0
	settledAt := created.Add(2 * time.Hour)
	ledger := &fakeLedger{bets: []models.Bet{
		{
			ID: "b1", MatchID: "m1", Market: models.Market1X2, Selection: models.SelectionHome,
			Odds: 2.0, Stake: 100, Strategy: models.StrategyKelly, CreatedAt: created,
			Result: models.ResultWon, SettledAt: &settledAt, Profit: &won,
		},
		{
			ID: "b2", MatchID: "m2", Market: models.MarketTotals, Selection: models.SelectionHome,
			Odds: 1.9, Stake: 50, Strategy: models.StrategyFlat, CreatedAt: created.Add(time.Hour),
			Result: models.ResultPending,
		},
	}}
	signals := &fakeSignals{}

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	h := NewHandler(ledger, fakeStrategies{}, signals, 2.0, func() map[string]interface{} {
		return map[string]interface{}{"queue_depth": 3}
	}, logrus.NewEntry(log))

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})

	srv := httptest.NewServer(NewRouter(h, Routes{Metrics: metrics}, nil))
	t.Cleanup(srv.Close)
	return srv, signals
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthCheck(t *testing.T) {
	srv, _ := newTestServer(t)

	var body map[string]interface{}
	status := getJSON(t, srv.URL+"/health", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(3), body["queue_depth"])
}

func TestMetricsRoute(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetBetsFilters(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "all", query: "", want: []string{"b1", "b2"}},
		{name: "by market", query: "?market=totals", want: []string{"b2"}},
		{name: "by strategy", query: "?strategy=kelly", want: []string{"b1"}},
		{name: "by result", query: "?result=won", want: []string{"b1"}},
		{name: "time window", query: "?from=2026-05-02T18:30:00Z", want: []string{"b2"}},
		{name: "limit keeps newest", query: "?limit=1", want: []string{"b2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Bets  []models.Bet `json:"bets"`
				Count int          `json:"count"`
			}
			status := getJSON(t, srv.URL+"/api/v1/bets"+tt.query, &body)
			require.Equal(t, http.StatusOK, status)

			var ids []string
			for _, b := range body.Bets {
				ids = append(ids, b.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), body.Count)
		})
	}
}

func TestGetBetsRejectsBadTime(t *testing.T) {
	srv, _ := newTestServer(t)

	var body ErrorResponse
	status := getJSON(t, srv.URL+"/api/v1/bets?from=yesterday", &body)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, http.StatusBadRequest, body.Code)
}

func TestGetReport(t *testing.T) {
	srv, _ := newTestServer(t)

	var report models.PerformanceReport
	status := getJSON(t, srv.URL+"/api/v1/report", &report)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, report.TotalBets)
	assert.Equal(t, 1, report.SettledBets)
	assert.Equal(t, 1, report.Pending)
	assert.InDelta(t, 1.0, report.ROI, 1e-9)
}

func TestGetBankroll(t *testing.T) {
	srv, _ := newTestServer(t)

	var snap models.BankrollSnapshot
	status := getJSON(t, srv.URL+"/api/v1/bankroll", &snap)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1100.0, snap.Balance)
}

func TestStrategies(t *testing.T) {
	srv, _ := newTestServer(t)

	var comparison models.StrategyComparison
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/strategies/", &comparison))
	assert.Equal(t, models.StrategyKelly, comparison.Best)

	var result models.SimulationResult
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/api/v1/strategies/flat", &result))
	assert.Equal(t, 1020.0, result.FinalBankroll)

	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/api/v1/strategies/martingale", nil))
}

func TestGetSignals(t *testing.T) {
	srv, signals := newTestServer(t)

	var body struct {
		Count int `json:"count"`
	}
	status := getJSON(t, srv.URL+"/api/v1/signals?kind=steam&match=m1&min_confidence=0.7&hours_back=6", &body)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, body.Count)
	assert.Equal(t, sharp.Filter{Kind: models.SignalSteam, MatchID: "m1", MinConfidence: 0.7, HoursBack: 6}, signals.last)
}
