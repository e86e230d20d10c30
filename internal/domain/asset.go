// Package domain holds the treasury data model shared by the engine,
// its storage layers and the HTTP surface.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	// BpsDenominator is the basis-point scale: 10000 bps = 100%.
	BpsDenominator int64 = 10000

	// SecondsPerYear is the accrual year used for linear yield math.
	SecondsPerYear int64 = 365 * 24 * 3600
)

// Asset is one entry of the registry: a supported holding with its live
// balance and allocation bookkeeping. Assets are never deleted, only
// deactivated.
type Asset struct {
	Address              common.Address  `json:"address"`
	Symbol               string          `json:"symbol"`
	Balance              decimal.Decimal `json:"balance"`
	ReservedAmount       decimal.Decimal `json:"reserved_amount"`
	YieldEarned          decimal.Decimal `json:"yield_earned"`
	LastYieldUpdate      time.Time       `json:"last_yield_update"`
	TargetAllocationBps  int64           `json:"target_allocation_bps"`
	CurrentAllocationBps int64           `json:"current_allocation_bps"`
	Active               bool            `json:"active"`
	YieldBearing         bool            `json:"yield_bearing"`
}

// NewAsset creates a registry entry with zero balances.
func NewAsset(addr common.Address, symbol string, targetAllocationBps int64, yieldBearing bool, now time.Time) (*Asset, error) {
	if addr == (common.Address{}) {
		return nil, errors.Wrap(ErrValidation, "asset address must not be zero")
	}
	if symbol == "" {
		return nil, errors.Wrap(ErrValidation, "asset symbol is required")
	}
	if targetAllocationBps < 0 || targetAllocationBps > BpsDenominator {
		return nil, errors.Wrapf(ErrInvalidAllocation, "got %d bps", targetAllocationBps)
	}

	return &Asset{
		Address:             addr,
		Symbol:              symbol,
		Balance:             decimal.Zero,
		ReservedAmount:      decimal.Zero,
		YieldEarned:         decimal.Zero,
		LastYieldUpdate:     now,
		TargetAllocationBps: targetAllocationBps,
		Active:              true,
		YieldBearing:        yieldBearing,
	}, nil
}

// AvailableForInvestment reports the funds the investment ledger may draw on.
// Reservations are advisory bookkeeping for pending proposals, not a hard
// lock, so this is the full balance rather than balance minus reserved.
func (a *Asset) AvailableForInvestment() decimal.Decimal {
	return a.Balance
}

// Reserve earmarks part of the balance for a pending proposal.
func (a *Asset) Reserve(amount decimal.Decimal) {
	a.ReservedAmount = a.ReservedAmount.Add(amount)
}

// Release undoes a reservation, clamping at zero so the
// reservedAmount >= 0 invariant survives emergency drains.
func (a *Asset) Release(amount decimal.Decimal) {
	a.ReservedAmount = a.ReservedAmount.Sub(amount)
	if a.ReservedAmount.IsNegative() {
		a.ReservedAmount = decimal.Zero
	}
}
