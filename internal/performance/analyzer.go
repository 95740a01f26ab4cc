package performance

import (
	"time"

	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/stats"
)

// BetSource is the read side of the ledger
type BetSource interface {
	Bets() []models.Bet
	InitialBankroll() float64
}

// Analyzer computes performance metrics over consistent ledger snapshots
type Analyzer struct {
	source    BetSource
	tolerance float64
	now       func() time.Time
}

// NewAnalyzer creates an analyzer with the variance tolerance in standard deviations
func NewAnalyzer(source BetSource, varianceTolerance float64) *Analyzer {
	return &Analyzer{
		source:    source,
		tolerance: varianceTolerance,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Query returns the bets matching p from a fresh snapshot
func (a *Analyzer) Query(p Predicate) []models.Bet {
	return Apply(a.source.Bets(), p)
}

// ROI over the bets matching p
func (a *Analyzer) ROI(p Predicate) float64 {
	return ROI(a.Query(p))
}

// Yield over the bets matching p
func (a *Analyzer) Yield(p Predicate) float64 {
	return Yield(a.Query(p))
}

// AverageCLV over the bets matching p
func (a *Analyzer) AverageCLV(p Predicate) (float64, int) {
	return AverageCLV(a.Query(p))
}

// VarianceAnalysis over the bets matching p
func (a *Analyzer) VarianceAnalysis(p Predicate) models.VarianceAnalysis {
	return AnalyzeVariance(a.Query(p), a.tolerance)
}

// MaxDrawdown over the bets matching p, folded from the initial bankroll
func (a *Analyzer) MaxDrawdown(p Predicate) float64 {
	dd, _ := MaxDrawdown(a.Query(p), a.source.InitialBankroll())
	return dd
}

// SharpeRatio over the bets matching p
func (a *Analyzer) SharpeRatio(p Predicate) float64 {
	return SharpeRatio(a.Query(p))
}

// Report computes every metric over one snapshot of the bets matching p
func (a *Analyzer) Report(p Predicate) models.PerformanceReport {
	return BuildReport(a.Query(p), a.source.InitialBankroll(), a.tolerance, a.now())
}

// BuildReport computes every metric over a bet list
func BuildReport(bets []models.Bet, initialBankroll, tolerance float64, at time.Time) models.PerformanceReport {
	staked, profit, settled := totals(bets)

	report := models.PerformanceReport{
		TotalBets:   len(bets),
		SettledBets: settled,
		TotalStaked: staked.InexactFloat64(),
		TotalProfit: profit.InexactFloat64(),
		ROI:         ROI(bets),
		Yield:       Yield(bets),
		SharpeRatio: SharpeRatio(bets),
		Variance:    AnalyzeVariance(bets, tolerance),
		GeneratedAt: at,
	}

	for _, b := range bets {
		switch b.Result {
		case models.ResultWon:
			report.Won++
		case models.ResultLost:
			report.Lost++
		case models.ResultVoid:
			report.Void++
		case models.ResultPush:
			report.Push++
		case models.ResultPending:
			report.Pending++
		}
	}

	report.WinRate = stats.SafeDiv(float64(report.Won), float64(report.Won+report.Lost))
	report.AverageCLV, report.CLVSamples = AverageCLV(bets)
	report.MaxDrawdown, report.MaxDrawdownPct = MaxDrawdown(bets, initialBankroll)

	return report
}
