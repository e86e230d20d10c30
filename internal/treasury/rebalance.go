package treasury

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/astratum/treasury/internal/domain"
)

// concentrationPenaltyBps is added to the diversification score instead of
// the even share when a single asset holds more than half the pool.
const concentrationPenaltyBps int64 = 2000

// NeedsRebalancing reports whether any active, funded asset drifted further
// than the threshold from its target allocation.
func (e *Engine) NeedsRebalancing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	total := e.totalBalances()
	if !total.IsPositive() {
		return false
	}

	for _, addr := range e.assetOrder {
		a := e.assets[addr]
		if !a.Active || !a.Balance.IsPositive() {
			continue
		}
		current := allocationBps(a.Balance, total)
		drift := current - a.TargetAllocationBps
		if drift < 0 {
			drift = -drift
		}
		if drift > e.limits.RebalanceThresholdBps {
			return true
		}
	}
	return false
}

// Rebalance walks every active asset and corrects its allocation toward the
// target through the external exchange adapter: under-allocated assets are
// acquired, over-allocated ones reduced. Adapter steps run outside the engine
// lock with the in-flight guard held.
//
// A failed adapter step aborts the walk and surfaces as an external-adapter
// error while the adjustments already applied stay in place. This is the one
// deliberate exception to all-or-nothing semantics: each per-asset step is
// final once its external leg succeeded.
// TreasuryManager or Admin only.
func (e *Engine) Rebalance(caller domain.Caller) error {
	release, err := e.begin(caller, false, domain.RoleTreasuryManager, domain.RoleAdmin)
	if err != nil {
		return err
	}
	defer release()

	if e.adapter == nil {
		return errors.Wrap(domain.ErrExternalAdapter, "no rebalance adapter configured")
	}

	total := e.totalBalances()
	if !total.IsPositive() {
		return errors.Wrap(domain.ErrValidation, "treasury holds no funds to rebalance")
	}

	for _, addr := range e.assetOrder {
		a := e.assets[addr]
		if !a.Active {
			continue
		}

		target := a.TargetAllocationBps
		current := allocationBps(a.Balance, total)
		if current == target {
			continue
		}

		want := total.Mul(decimal.NewFromInt(target)).Div(decimal.NewFromInt(domain.BpsDenominator)).Floor()
		delta := want.Sub(a.Balance)
		if delta.IsZero() {
			continue
		}

		if delta.IsPositive() {
			if err := e.callOut(func() error { return e.adapter.Acquire(a.Symbol, delta) }); err != nil {
				// earlier steps already executed externally; keep their book
				// adjustments durable before surfacing the failure
				e.persist()
				return errors.Wrapf(domain.ErrExternalAdapter,
					"rebalance step failed: acquire %s %s: %v", delta.String(), a.Symbol, err)
			}
			e.credit(a, delta)
		} else {
			reduceBy := delta.Neg()
			if err := e.callOut(func() error { return e.adapter.Reduce(a.Symbol, reduceBy) }); err != nil {
				e.persist()
				return errors.Wrapf(domain.ErrExternalAdapter,
					"rebalance step failed: reduce %s %s: %v", reduceBy.String(), a.Symbol, err)
			}
			if err := e.debit(a, reduceBy); err != nil {
				e.persist()
				return err
			}
		}

		e.log.Info("rebalance step applied",
			zap.String("asset", a.Symbol),
			zap.Int64("target_bps", target),
			zap.Int64("was_bps", current),
			zap.String("delta", delta.String()))
	}

	total = e.totalBalances()
	for _, addr := range e.assetOrder {
		a := e.assets[addr]
		if a.Active {
			a.CurrentAllocationBps = allocationBps(a.Balance, total)
		}
	}

	e.emit(domain.EventPortfolioRebalanced, domain.PortfolioRebalancedPayload{
		TotalValue:           total,
		DiversificationScore: e.diversificationScore(),
	})
	e.persist()
	return nil
}

// DiversificationScore is the 0-10000 spread metric over active, funded
// assets: each contributes an even share of 10000, except assets above 50%
// of the pool, which contribute a flat concentration penalty instead.
func (e *Engine) DiversificationScore() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.diversificationScore()
}

func (e *Engine) diversificationScore() int64 {
	total := e.totalBalances()
	if !total.IsPositive() {
		return 0
	}

	funded := lo.Filter(e.assetOrder, func(addr common.Address, _ int) bool {
		a := e.assets[addr]
		return a.Active && a.Balance.IsPositive()
	})
	if len(funded) == 0 {
		return 0
	}

	score := lo.Reduce(funded, func(acc int64, addr common.Address, _ int) int64 {
		a := e.assets[addr]
		if allocationBps(a.Balance, total) > domain.BpsDenominator/2 {
			return acc + concentrationPenaltyBps
		}
		return acc + domain.BpsDenominator/int64(len(funded))
	}, int64(0))

	if score > domain.BpsDenominator {
		score = domain.BpsDenominator
	}
	return score
}

// riskScore is the principal-weighted average of expected APY (in percent)
// across active investments, capped at 10.
func (e *Engine) riskScore() decimal.Decimal {
	total := e.totalValue()
	if !total.IsPositive() {
		return decimal.Zero
	}

	score := decimal.Zero
	for _, inv := range e.investments {
		if !inv.Active {
			continue
		}
		weight := inv.Principal.Div(total)
		apyPct := decimal.NewFromInt(inv.ExpectedAPYBps).Div(decimal.NewFromInt(100))
		score = score.Add(weight.Mul(apyPct))
	}

	ten := decimal.NewFromInt(10)
	if score.GreaterThan(ten) {
		return ten
	}
	return score
}

// performanceScoreBps compares realized APY against the benchmark: at or
// above the benchmark the score starts at 10000 and earns 100 bps per bp of
// outperformance; below it the score is the pro-rata fraction of 10000.
func (e *Engine) performanceScoreBps() int64 {
	total := e.totalValue()
	if !total.IsPositive() {
		return 0
	}

	actualBps := e.totalYieldEarned.
		Mul(decimal.NewFromInt(domain.BpsDenominator)).
		Div(total).
		Floor().
		IntPart()

	benchmark := e.limits.BenchmarkAPYBps
	if benchmark <= 0 {
		return 0
	}
	if actualBps >= benchmark {
		return domain.BpsDenominator + (actualBps-benchmark)*100
	}
	return actualBps * domain.BpsDenominator / benchmark
}

func allocationBps(balance, total decimal.Decimal) int64 {
	if !total.IsPositive() {
		return 0
	}
	return balance.
		Mul(decimal.NewFromInt(domain.BpsDenominator)).
		Div(total).
		Floor().
		IntPart()
}
