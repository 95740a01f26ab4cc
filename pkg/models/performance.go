package models

import "time"

// VarianceAnalysis compares realized profit with the profit implied by EV
type VarianceAnalysis struct {
	SampleSize         int     `json:"sample_size"`
	ExpectedProfit     float64 `json:"expected_profit"`
	ActualProfit       float64 `json:"actual_profit"`
	Delta              float64 `json:"delta"`
	StdDev             float64 `json:"std_dev"`
	StdDevsAway        float64 `json:"std_devs_away"`
	Tolerance          float64 `json:"tolerance"`
	WithinExpectations bool    `json:"within_expectations"`
}

// PerformanceReport aggregates every metric over a set of bets
type PerformanceReport struct {
	TotalBets      int              `json:"total_bets"`
	SettledBets    int              `json:"settled_bets"`
	Pending        int              `json:"pending"`
	Won            int              `json:"won"`
	Lost           int              `json:"lost"`
	Void           int              `json:"void"`
	Push           int              `json:"push"`
	TotalStaked    float64          `json:"total_staked"`
	TotalProfit    float64          `json:"total_profit"`
	ROI            float64          `json:"roi"`
	Yield          float64          `json:"yield"`
	WinRate        float64          `json:"win_rate"`
	AverageCLV     float64          `json:"average_clv"`
	CLVSamples     int              `json:"clv_samples"`
	SharpeRatio    float64          `json:"sharpe_ratio"`
	MaxDrawdown    float64          `json:"max_drawdown"`
	MaxDrawdownPct float64          `json:"max_drawdown_pct"`
	Variance       VarianceAnalysis `json:"variance"`
	GeneratedAt    time.Time        `json:"generated_at"`
}
