package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dennisgathu8/house-hedge/internal/performance"
	"github.com/dennisgathu8/house-hedge/internal/sharp"
	"github.com/dennisgathu8/house-hedge/internal/staking"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// LedgerReader is the read side of the bet ledger
type LedgerReader interface {
	Bets() []models.Bet
	Snapshot(at time.Time) models.BankrollSnapshot
	InitialBankroll() float64
}

// StrategyRunner replays the ledger under staking strategies
type StrategyRunner interface {
	SimulateAlternativeStrategy(strategy models.StakingStrategy) (*models.SimulationResult, error)
	CompareStrategies() (*models.StrategyComparison, error)
}

// SignalQuerier reads the sharp signal history
type SignalQuerier interface {
	Query(f sharp.Filter) []models.SharpSignal
}

// StatusFunc reports component state for the health endpoint
type StatusFunc func() map[string]interface{}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	ledger     LedgerReader
	strategies StrategyRunner
	signals    SignalQuerier
	tolerance  float64
	status     StatusFunc
	now        func() time.Time
	log        *logrus.Entry
}

// NewHandler creates a new handler with dependencies. status may be nil.
func NewHandler(ledger LedgerReader, strategies StrategyRunner, signals SignalQuerier, varianceTolerance float64, status StatusFunc, log *logrus.Entry) *Handler {
	return &Handler{
		ledger:     ledger,
		strategies: strategies,
		signals:    signals,
		tolerance:  varianceTolerance,
		status:     status,
		now:        func() time.Time { return time.Now().UTC() },
		log:        log,
	}
}

// HealthCheck returns service status plus whatever the status func reports
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now(),
		"service":   "house-hedge",
	}
	if h.status != nil {
		for k, v := range h.status() {
			body[k] = v
		}
	}
	h.respondJSON(w, http.StatusOK, body)
}

// GetBankroll returns the current ledger snapshot
func (h *Handler) GetBankroll(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.ledger.Snapshot(h.now()))
}

// GetBets lists ledger bets
// Query params: market, strategy, result, match, from, to (RFC3339), limit
func (h *Handler) GetBets(w http.ResponseWriter, r *http.Request) {
	pred, err := predicateFromQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid query", err)
		return
	}

	bets := performance.Apply(h.ledger.Bets(), pred)
	if limit := parseIntParam(r, "limit", 0); limit > 0 && limit < len(bets) {
		bets = bets[len(bets)-limit:]
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"bets":  bets,
		"count": len(bets),
	})
}

// GetReport builds a performance report over the filtered ledger
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	pred, err := predicateFromQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid query", err)
		return
	}

	bets := performance.Apply(h.ledger.Bets(), pred)
	report := performance.BuildReport(bets, h.ledger.InitialBankroll(), h.tolerance, h.now())
	h.respondJSON(w, http.StatusOK, report)
}

// CompareStrategies replays the ledger under every staking strategy
func (h *Handler) CompareStrategies(w http.ResponseWriter, r *http.Request) {
	comparison, err := h.strategies.CompareStrategies()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "failed to compare strategies", err)
		return
	}
	h.respondJSON(w, http.StatusOK, comparison)
}

// SimulateStrategy replays the ledger under one strategy
func (h *Handler) SimulateStrategy(w http.ResponseWriter, r *http.Request) {
	strategy := models.StakingStrategy(chi.URLParam(r, "strategy"))

	result, err := h.strategies.SimulateAlternativeStrategy(strategy)
	if errors.Is(err, staking.ErrUnknownStrategy) {
		h.respondError(w, http.StatusNotFound, "unknown strategy", err)
		return
	}
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "simulation failed", err)
		return
	}
	h.respondJSON(w, http.StatusOK, result)
}

// GetSignals queries the sharp signal history
// Query params: kind, match, min_confidence, hours_back
func (h *Handler) GetSignals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := sharp.Filter{
		Kind:          models.SignalKind(q.Get("kind")),
		MatchID:       q.Get("match"),
		MinConfidence: parseFloatParam(r, "min_confidence", 0),
		HoursBack:     parseFloatParam(r, "hours_back", 0),
	}

	signals := h.signals.Query(filter)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"signals": signals,
		"count":   len(signals),
	})
}

// predicateFromQuery combines the bet filters present in the query string
func predicateFromQuery(r *http.Request) (performance.Predicate, error) {
	q := r.URL.Query()
	preds := []performance.Predicate{performance.All()}

	if v := q.Get("market"); v != "" {
		preds = append(preds, performance.ByMarket(v))
	}
	if v := q.Get("strategy"); v != "" {
		preds = append(preds, performance.ByStrategy(models.StakingStrategy(v)))
	}
	if v := q.Get("result"); v != "" {
		preds = append(preds, performance.ByResult(models.BetResult(v)))
	}
	if v := q.Get("match"); v != "" {
		preds = append(preds, performance.ByMatch(v))
	}

	var from, to time.Time
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, err
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, err
		}
	}
	if !from.IsZero() || !to.IsZero() {
		preds = append(preds, performance.Between(from, to))
	}

	return performance.And(preds...), nil
}

func parseIntParam(r *http.Request, param string, defaultValue int) int {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func parseFloatParam(r *http.Request, param string, defaultValue float64) float64 {
	valueStr := r.URL.Query().Get(param)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.WithError(err).Warn("error encoding response")
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	}
	if err != nil {
		resp.Message = message + ": " + err.Error()
		h.log.WithError(err).Warn(message)
	}
	h.respondJSON(w, status, resp)
}
