package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TreasuryMetrics is the snapshot produced by an explicit metrics update.
// Nothing refreshes it between operations: ComputedAt tells the caller how
// stale the numbers are.
type TreasuryMetrics struct {
	TotalValue           decimal.Decimal            `json:"total_value"`
	TotalYieldEarned     decimal.Decimal            `json:"total_yield_earned"`
	MonthlyYield         decimal.Decimal            `json:"monthly_yield"`
	DiversificationScore int64                      `json:"diversification_score"`
	RiskScore            decimal.Decimal            `json:"risk_score"`
	PerformanceScoreBps  int64                      `json:"performance_score_bps"`
	YieldHistory         map[string]decimal.Decimal `json:"yield_history,omitempty"`
	ComputedAt           time.Time                  `json:"computed_at"`
}

// MonthKey is the yield-history bucket key for a point in time.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
