package treasury

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/astratum/treasury/internal/domain"
)

// AddAsset registers a new supported asset. Admin or TreasuryManager only.
// In strict allocation mode the sum of active targets may not exceed
// 10000 bps; by default only the per-asset bound is enforced.
func (e *Engine) AddAsset(caller domain.Caller, addr common.Address, symbol string, targetAllocationBps int64, yieldBearing bool) (*domain.Asset, error) {
	release, err := e.begin(caller, false, domain.RoleAdmin, domain.RoleTreasuryManager)
	if err != nil {
		return nil, err
	}
	defer release()

	if existing, ok := e.assets[addr]; ok {
		if existing.Active {
			return nil, errors.Wrapf(domain.ErrDuplicateAsset, "asset %s", addr.Hex())
		}
		// a deactivated entry still holding funds must be reactivated via
		// SetAssetActive, not replaced with a zero-balance record
		if existing.Balance.IsPositive() || existing.ReservedAmount.IsPositive() {
			return nil, errors.Wrapf(domain.ErrStateConflict,
				"asset %s is deactivated but still holds funds, reactivate instead", addr.Hex())
		}
	}

	if e.limits.StrictAllocations {
		sum := targetAllocationBps
		for _, a := range e.assets {
			if a.Active {
				sum += a.TargetAllocationBps
			}
		}
		if sum > domain.BpsDenominator {
			return nil, errors.Wrapf(domain.ErrInvalidAllocation, "active targets would sum to %d bps", sum)
		}
	}

	asset, err := domain.NewAsset(addr, symbol, targetAllocationBps, yieldBearing, e.now())
	if err != nil {
		return nil, err
	}

	if _, seen := e.assets[addr]; !seen {
		e.assetOrder = append(e.assetOrder, addr)
	}
	e.assets[addr] = asset

	e.emit(domain.EventAssetAdded, domain.AssetAddedPayload{
		Asset:               addr,
		Symbol:              symbol,
		TargetAllocationBps: targetAllocationBps,
		YieldBearing:        yieldBearing,
	})
	e.persist()

	out := *asset
	return &out, nil
}

// SetAssetActive deactivates or reactivates an asset. Assets are never
// physically deleted. Admin only.
func (e *Engine) SetAssetActive(caller domain.Caller, addr common.Address, active bool) error {
	release, err := e.begin(caller, false, domain.RoleAdmin)
	if err != nil {
		return err
	}
	defer release()

	a, ok := e.assets[addr]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "asset %s", addr.Hex())
	}
	if a.Active == active {
		return errors.Wrapf(domain.ErrStateConflict, "asset %s already in requested state", addr.Hex())
	}

	a.Active = active
	e.emit(domain.EventAssetStatusChanged, domain.AssetStatusChangedPayload{Asset: addr, Active: active})
	e.persist()
	return nil
}

// Deposit credits external funds into an asset. Deposits are caller-agnostic:
// anyone may grow the pool.
func (e *Engine) Deposit(caller domain.Caller, addr common.Address, amount decimal.Decimal) error {
	release, err := e.begin(caller, false)
	if err != nil {
		return err
	}
	defer release()

	a, err := e.asset(addr)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return errors.Wrap(domain.ErrValidation, "deposit amount must be positive")
	}

	e.credit(a, amount)
	e.persist()

	e.log.Info("deposit",
		zap.String("asset", a.Symbol),
		zap.String("amount", amount.String()),
		zap.String("caller", caller.ID))
	return nil
}

// GetAsset returns a copy of one registry entry, active or not.
func (e *Engine) GetAsset(addr common.Address) (*domain.Asset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.assets[addr]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "asset %s", addr.Hex())
	}
	out := *a
	return &out, nil
}

// ListAssets returns copies of all registry entries in registration order.
func (e *Engine) ListAssets() []domain.Asset {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Asset, 0, len(e.assetOrder))
	for _, addr := range e.assetOrder {
		out = append(out, *e.assets[addr])
	}
	return out
}

// credit and debit are the only mutation primitives for balances; every
// component goes through them while holding the engine lock.

func (e *Engine) credit(a *domain.Asset, amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

// debit checks only the raw balance. Reserved funds are advisory bookkeeping
// for pending proposals, deliberately not a hard lock, so a debit may dip
// into the reserved portion.
func (e *Engine) debit(a *domain.Asset, amount decimal.Decimal) error {
	if amount.GreaterThan(a.Balance) {
		return errors.Wrapf(domain.ErrInsufficientBalance,
			"asset %s holds %s, need %s", a.Symbol, a.Balance.String(), amount.String())
	}
	a.Balance = a.Balance.Sub(amount)
	return nil
}
