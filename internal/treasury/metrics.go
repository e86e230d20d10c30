package treasury

import (
	"maps"

	"github.com/astratum/treasury/internal/domain"
)

// UpdateMetrics recomputes the treasury metrics snapshot. Metrics are only
// refreshed through this call; between calls Metrics returns the stale
// snapshot with its ComputedAt timestamp, which is the caller's staleness
// contract. Caller-agnostic.
func (e *Engine) UpdateMetrics(caller domain.Caller) (domain.TreasuryMetrics, error) {
	release, err := e.begin(caller, false)
	if err != nil {
		return domain.TreasuryMetrics{}, err
	}
	defer release()

	now := e.now()
	m := domain.TreasuryMetrics{
		TotalValue:           e.totalValue(),
		TotalYieldEarned:     e.totalYieldEarned,
		MonthlyYield:         e.yieldHistory[domain.MonthKey(now)],
		DiversificationScore: e.diversificationScore(),
		RiskScore:            e.riskScore(),
		PerformanceScoreBps:  e.performanceScoreBps(),
		YieldHistory:         maps.Clone(e.yieldHistory),
		ComputedAt:           now,
	}
	e.metrics = m

	e.emit(domain.EventTreasuryMetricsUpdated, domain.MetricsUpdatedPayload{Metrics: m})
	e.persist()
	return m, nil
}

// Metrics returns the last computed snapshot without recomputing anything.
// The zero value with a zero ComputedAt means no update ran yet.
func (e *Engine) Metrics() domain.TreasuryMetrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.metrics
	m.YieldHistory = maps.Clone(m.YieldHistory)
	return m
}
