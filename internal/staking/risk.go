package staking

import (
	"fmt"

	"github.com/dennisgathu8/house-hedge/pkg/models"
	"github.com/dennisgathu8/house-hedge/pkg/stats"
)

// Drawdown thresholds as a fraction of peak bankroll
const (
	cautionDrawdown  = 0.10
	warningDrawdown  = 0.20
	criticalDrawdown = 0.30
)

// AssessRisk grades the drawdown between peak and current bankroll
func AssessRisk(peak, current float64) models.RiskCheck {
	drawdown := peak - current
	if drawdown < 0 {
		drawdown = 0
	}
	fraction := stats.SafeDiv(drawdown, peak)

	check := models.RiskCheck{
		Peak:             peak,
		Current:          current,
		Drawdown:         drawdown,
		DrawdownFraction: fraction,
	}

	switch {
	case fraction >= criticalDrawdown:
		check.Level = models.RiskCritical
		check.Message = fmt.Sprintf("drawdown %.1f%% from peak - stop and review", fraction*100)
	case fraction >= warningDrawdown:
		check.Level = models.RiskWarning
		check.Message = fmt.Sprintf("drawdown %.1f%% from peak - reduce stakes", fraction*100)
	case fraction >= cautionDrawdown:
		check.Level = models.RiskCaution
		check.Message = fmt.Sprintf("drawdown %.1f%% from peak", fraction*100)
	default:
		check.Level = models.RiskOK
		check.Message = "bankroll within normal range"
	}

	return check
}
