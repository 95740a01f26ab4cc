// Package metrics exposes engine counters and gauges on a private Prometheus registry.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects engine metrics. All methods are safe on a nil receiver so
// components can run without a registry in tests.
type Metrics struct {
	registry *prometheus.Registry

	QuotesIngested prometheus.Counter
	QuotesRejected prometheus.Counter
	QuotesDropped  prometheus.Counter
	QueueDepth     prometheus.Gauge

	SignalsEmitted *prometheus.CounterVec
	BetsAppended   *prometheus.CounterVec
	BetsSettled    *prometheus.CounterVec
	PublishErrors  *prometheus.CounterVec

	Bankroll      *prometheus.GaugeVec
	DrawdownRatio prometheus.Gauge
}

// New creates a metrics collector with its own registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		QuotesIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "househedge_quotes_ingested_total",
			Help: "Odds quotes processed by the ingestion consumer",
		}),
		QuotesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "househedge_quotes_rejected_total",
			Help: "Odds quotes rejected by boundary validation",
		}),
		QuotesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "househedge_quotes_dropped_total",
			Help: "Queued quotes discarded when ingestion stopped",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "househedge_ingest_queue_depth",
			Help: "Quotes waiting in the ingestion queue",
		}),
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "househedge_signals_emitted_total",
			Help: "Sharp signals emitted by kind",
		}, []string{"kind"}),
		BetsAppended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "househedge_bets_appended_total",
			Help: "Bets appended to the ledger by staking strategy",
		}, []string{"strategy"}),
		BetsSettled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "househedge_bets_settled_total",
			Help: "Bets settled by result",
		}, []string{"result"}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "househedge_publish_errors_total",
			Help: "Failed publishes by stream",
		}, []string{"stream"}),
		Bankroll: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "househedge_bankroll",
			Help: "Bankroll by kind (current or peak)",
		}, []string{"kind"}),
		DrawdownRatio: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "househedge_drawdown_fraction",
			Help: "Current drawdown from peak as a fraction of peak",
		}),
	}

	m.registry.MustRegister(
		m.QuotesIngested,
		m.QuotesRejected,
		m.QuotesDropped,
		m.QueueDepth,
		m.SignalsEmitted,
		m.BetsAppended,
		m.BetsSettled,
		m.PublishErrors,
		m.Bankroll,
		m.DrawdownRatio,
	)

	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) QuoteIngested() {
	if m == nil {
		return
	}
	m.QuotesIngested.Inc()
}

func (m *Metrics) QuoteRejected() {
	if m == nil {
		return
	}
	m.QuotesRejected.Inc()
}

func (m *Metrics) QuotesDiscarded(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.QuotesDropped.Add(float64(n))
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}

func (m *Metrics) SignalEmitted(kind string) {
	if m == nil {
		return
	}
	m.SignalsEmitted.WithLabelValues(kind).Inc()
}

func (m *Metrics) BetAppended(strategy string) {
	if m == nil {
		return
	}
	m.BetsAppended.WithLabelValues(strategy).Inc()
}

func (m *Metrics) BetSettled(result string) {
	if m == nil {
		return
	}
	m.BetsSettled.WithLabelValues(result).Inc()
}

func (m *Metrics) PublishFailed(stream string) {
	if m == nil {
		return
	}
	m.PublishErrors.WithLabelValues(stream).Inc()
}

// UpdateBankroll records the current and peak bankroll and the drawdown between them
func (m *Metrics) UpdateBankroll(current, peak float64) {
	if m == nil {
		return
	}
	m.Bankroll.WithLabelValues("current").Set(current)
	m.Bankroll.WithLabelValues("peak").Set(peak)

	if peak > 0 {
		m.DrawdownRatio.Set((peak - current) / peak)
	} else {
		m.DrawdownRatio.Set(0)
	}
}
