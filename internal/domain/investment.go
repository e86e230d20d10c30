package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Investment is capital committed to an external yield protocol.
// The principal is debited from the asset on creation and credited back
// on withdrawal; yield accrues linearly and is harvested on demand.
type Investment struct {
	ID             uint64          `json:"id"`
	Protocol       common.Address  `json:"protocol"`
	Asset          common.Address  `json:"asset"`
	Principal      decimal.Decimal `json:"principal"`
	ExpectedAPYBps int64           `json:"expected_apy_bps"`
	StartedAt      time.Time       `json:"started_at"`
	LockPeriod     time.Duration   `json:"lock_period"`
	YieldAccrued   decimal.Decimal `json:"yield_accrued"`
	Active         bool            `json:"active"`
	ProtocolName   string          `json:"protocol_name"`
	StrategyLabel  string          `json:"strategy_label"`
}

// ExpectedYield computes the linear yield earned between StartedAt and now:
// principal * apyBps * elapsed / (secondsPerYear * 10000).
func (i *Investment) ExpectedYield(now time.Time) decimal.Decimal {
	elapsed := int64(now.Sub(i.StartedAt).Seconds())
	if elapsed <= 0 {
		return decimal.Zero
	}

	return i.Principal.
		Mul(decimal.NewFromInt(i.ExpectedAPYBps)).
		Mul(decimal.NewFromInt(elapsed)).
		Div(decimal.NewFromInt(SecondsPerYear * BpsDenominator)).
		Floor()
}

// Harvestable is the yield accrued but not yet credited back to the asset.
// May be non-positive right after a harvest; that is a no-op, not an error.
func (i *Investment) Harvestable(now time.Time) decimal.Decimal {
	return i.ExpectedYield(now).Sub(i.YieldAccrued)
}

// Locked reports whether the lock period is still running.
func (i *Investment) Locked(now time.Time) bool {
	return now.Before(i.StartedAt.Add(i.LockPeriod))
}

// YieldStrategy is reference data used to size new investments.
type YieldStrategy struct {
	ID             uint64          `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	TargetProtocol common.Address  `json:"target_protocol"`
	MinInvestment  decimal.Decimal `json:"min_investment"`
	MaxInvestment  decimal.Decimal `json:"max_investment"`
	ExpectedAPYBps int64           `json:"expected_apy_bps"`
	RiskLevel      int             `json:"risk_level"`
	Active         bool            `json:"active"`
	AutoCompound   bool            `json:"auto_compound"`
}

// Validate checks the strategy reference data ranges.
func (s *YieldStrategy) Validate() error {
	if s.Name == "" {
		return errors.Wrap(ErrValidation, "strategy name is required")
	}
	if s.TargetProtocol == (common.Address{}) {
		return errors.Wrap(ErrProtocolAddressInvalid, "strategy target protocol")
	}
	if s.RiskLevel < 1 || s.RiskLevel > 10 {
		return errors.Wrapf(ErrValidation, "risk level must be within [1,10], got %d", s.RiskLevel)
	}
	if s.MinInvestment.IsNegative() || s.MaxInvestment.LessThan(s.MinInvestment) {
		return errors.Wrap(ErrValidation, "strategy investment bounds are inconsistent")
	}
	return nil
}

// Fits reports whether an investment amount is acceptable for the strategy.
func (s *YieldStrategy) Fits(amount decimal.Decimal) bool {
	if amount.LessThan(s.MinInvestment) {
		return false
	}
	if s.MaxInvestment.IsPositive() && amount.GreaterThan(s.MaxInvestment) {
		return false
	}
	return true
}
