package sharp

import (
	"time"

	"github.com/dennisgathu8/house-hedge/internal/config"
	"github.com/dennisgathu8/house-hedge/internal/logger"
	"github.com/dennisgathu8/house-hedge/internal/metrics"
	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Public share thresholds for the public-money patterns
const (
	rlmPublicShare        = 0.55
	contrarianPublicShare = 0.35
	contrarianMinEV       = 0.05
)

// Detector finds reverse line movement, steam and contrarian patterns and keeps
// every emitted signal in a rolling history
type Detector struct {
	cfg     config.SharpConfig
	history *History
	metrics *metrics.Metrics
	now     func() time.Time
	log     *logrus.Entry
}

// Option configures a Detector
type Option func(*Detector)

// WithClock overrides the time source used to stamp signals
func WithClock(now func() time.Time) Option {
	return func(d *Detector) { d.now = now }
}

// WithMetrics counts emitted signals
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Detector) { d.metrics = m }
}

// NewDetector creates a detector with an empty history
func NewDetector(cfg config.SharpConfig, opts ...Option) *Detector {
	d := &Detector{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
		log: logger.For("sharp"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.history = NewHistory(cfg.HistoryLimit, d.now)
	return d
}

// History returns the signal history
func (d *Detector) History() *History {
	return d.history
}

// AnalysisInput carries everything known about one match market. Histories and EVs
// are optional; steam needs at least three bookmakers and contrarian needs EVs.
type AnalysisInput struct {
	MatchID   string
	Market    string
	Opening   []float64
	Current   []float64
	Public    models.PublicBetting
	Histories []models.LineHistory
	EVs       []float64
}

// AnalyzeMatch runs RLM detection, plus steam and contrarian when their inputs are
// present. The match is flagged when the strongest signal reaches min_confidence.
func (d *Detector) AnalyzeMatch(in AnalysisInput) models.MatchAnalysis {
	signals := d.DetectReverseLineMovement(in.MatchID, in.Market, in.Opening, in.Current, in.Public)

	if len(in.Histories) >= minSteamBooks {
		signals = append(signals, d.DetectSteam(in.MatchID, in.Market, in.Histories)...)
	}
	if len(in.EVs) > 0 {
		signals = append(signals, d.DetectContrarian(in.MatchID, in.Market, in.Public, in.EVs)...)
	}

	analysis := models.MatchAnalysis{
		MatchID: in.MatchID,
		Market:  in.Market,
		Signals: signals,
	}
	for _, s := range signals {
		if s.Confidence > analysis.MaxConfidence {
			analysis.MaxConfidence = s.Confidence
		}
	}
	analysis.Flagged = len(signals) > 0 && analysis.MaxConfidence >= d.cfg.MinConfidence

	if analysis.Flagged {
		d.log.WithFields(logrus.Fields{
			"match":      in.MatchID,
			"market":     in.Market,
			"signals":    len(signals),
			"confidence": analysis.MaxConfidence,
		}).Info("match flagged for sharp action")
	}

	return analysis
}

// emit stamps and records a signal
func (d *Detector) emit(s models.SharpSignal) models.SharpSignal {
	s.ID = uuid.New().String()
	s.Timestamp = d.now()

	d.history.Record(s)
	d.metrics.SignalEmitted(string(s.Kind))

	d.log.WithFields(logrus.Fields{
		"kind":       s.Kind,
		"match":      s.MatchID,
		"direction":  s.Direction,
		"confidence": s.Confidence,
	}).Debug("signal emitted")

	return s
}

func shareAt(values []float64, i int) (float64, bool) {
	if i < 0 || i >= len(values) {
		return 0, false
	}
	return values[i], true
}
