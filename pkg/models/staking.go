package models

import "time"

// RiskLevel grades the current drawdown from peak
type RiskLevel string

const (
	RiskOK       RiskLevel = "ok"
	RiskCaution  RiskLevel = "caution"
	RiskWarning  RiskLevel = "warning"
	RiskCritical RiskLevel = "critical"
)

// RiskCheck is the drawdown assessment attached to a staking decision
type RiskCheck struct {
	Level            RiskLevel `json:"level"`
	Peak             float64   `json:"peak"`
	Current          float64   `json:"current"`
	Drawdown         float64   `json:"drawdown"`
	DrawdownFraction float64   `json:"drawdown_fraction"`
	Message          string    `json:"message"`
}

// StakingDecision is the recommended stake for a candidate bet
type StakingDecision struct {
	MatchID          string          `json:"match_id"`
	Market           string          `json:"market"`
	Selection        string          `json:"selection"`
	Odds             float64         `json:"odds"`
	Bookmaker        string          `json:"bookmaker,omitempty"`
	Line             *float64        `json:"line,omitempty"`
	EV               float64         `json:"ev"`
	Confidence       float64         `json:"confidence"`
	Strategy         StakingStrategy `json:"strategy"`
	Bankroll         float64         `json:"bankroll"`
	Stake            float64         `json:"stake"`
	BankrollFraction float64         `json:"bankroll_fraction"`
	Rationale        string          `json:"rationale"`
	Qualified        bool            `json:"qualified"`
	Warnings         []string        `json:"warnings,omitempty"`
	Risk             RiskCheck       `json:"risk"`
	DecidedAt        time.Time       `json:"decided_at"`
}

// SimulatedBet is one step of a replay under an alternative policy
type SimulatedBet struct {
	BetID         string    `json:"bet_id"`
	Result        BetResult `json:"result"`
	Odds          float64   `json:"odds"`
	OriginalStake float64   `json:"original_stake"`
	Stake         float64   `json:"stake"`
	Profit        float64   `json:"profit"`
	BankrollAfter float64   `json:"bankroll_after"`
}

// SimulationResult is the outcome of replaying the ledger under one policy
type SimulationResult struct {
	Strategy        StakingStrategy `json:"strategy"`
	InitialBankroll float64         `json:"initial_bankroll"`
	FinalBankroll   float64         `json:"final_bankroll"`
	PeakBankroll    float64         `json:"peak_bankroll"`
	MaxDrawdown     float64         `json:"max_drawdown"`
	TotalStaked     float64         `json:"total_staked"`
	TotalProfit     float64         `json:"total_profit"`
	ROI             float64         `json:"roi"`
	Bets            []SimulatedBet  `json:"bets"`
	Curve           []float64       `json:"curve"` // bankroll after each bet, initial first
}

// StrategyComparison ranks policies by final bankroll, best first
type StrategyComparison struct {
	Results []SimulationResult `json:"results"`
	Best    StakingStrategy    `json:"best"`
}
