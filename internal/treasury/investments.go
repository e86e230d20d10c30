package treasury

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/astratum/treasury/internal/domain"
)

// InvestmentParams describes a new capital commitment.
type InvestmentParams struct {
	Protocol       common.Address
	Asset          common.Address
	Amount         decimal.Decimal
	ExpectedAPYBps int64
	LockPeriod     time.Duration
	ProtocolName   string
	StrategyLabel  string
	// StrategyID optionally binds the commitment to a registered strategy,
	// whose bounds then apply. Zero means unbound.
	StrategyID uint64
}

// AddYieldStrategy registers strategy reference data used to size
// investments. InvestmentManager or Admin only.
func (e *Engine) AddYieldStrategy(caller domain.Caller, s domain.YieldStrategy) (*domain.YieldStrategy, error) {
	release, err := e.begin(caller, false, domain.RoleInvestmentManager, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.Validate(); err != nil {
		return nil, err
	}

	e.nextStrategyID++
	s.ID = e.nextStrategyID
	s.Active = true
	e.strategies[s.ID] = &s
	e.persist()

	out := s
	return &out, nil
}

// SetYieldStrategyActive toggles a strategy. InvestmentManager or Admin only.
func (e *Engine) SetYieldStrategyActive(caller domain.Caller, id uint64, active bool) error {
	release, err := e.begin(caller, false, domain.RoleInvestmentManager, domain.RoleAdmin)
	if err != nil {
		return err
	}
	defer release()

	s, ok := e.strategies[id]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "strategy %d", id)
	}
	s.Active = active
	e.persist()
	return nil
}

// CreateInvestment commits capital to an external protocol: debits the asset
// by the principal and opens an active investment record. The commitment may
// not exceed MaxSingleInvestmentBps of total treasury value.
// InvestmentManager only.
func (e *Engine) CreateInvestment(caller domain.Caller, p InvestmentParams) (*domain.Investment, error) {
	release, err := e.begin(caller, false, domain.RoleInvestmentManager)
	if err != nil {
		return nil, err
	}
	defer release()

	if p.Protocol == (common.Address{}) {
		return nil, errors.Wrap(domain.ErrProtocolAddressInvalid, "create investment")
	}
	if !p.Amount.IsPositive() {
		return nil, errors.Wrap(domain.ErrValidation, "investment amount must be positive")
	}
	if p.ExpectedAPYBps < 0 {
		return nil, errors.Wrap(domain.ErrValidation, "expected APY must not be negative")
	}

	asset, err := e.asset(p.Asset)
	if err != nil {
		return nil, err
	}
	if p.Amount.GreaterThan(asset.AvailableForInvestment()) {
		return nil, errors.Wrapf(domain.ErrInsufficientBalance,
			"asset %s holds %s, need %s", asset.Symbol, asset.Balance.String(), p.Amount.String())
	}

	if p.StrategyID != 0 {
		s, ok := e.strategies[p.StrategyID]
		if !ok {
			return nil, errors.Wrapf(domain.ErrNotFound, "strategy %d", p.StrategyID)
		}
		if !s.Active {
			return nil, errors.Wrapf(domain.ErrStateConflict, "strategy %d is inactive", p.StrategyID)
		}
		if !s.Fits(p.Amount) {
			return nil, errors.Wrapf(domain.ErrValidation,
				"amount %s outside strategy bounds [%s, %s]",
				p.Amount.String(), s.MinInvestment.String(), s.MaxInvestment.String())
		}
	}

	// cap check against the treasury value before the debit
	total := e.totalValue()
	maxCommit := total.Mul(decimal.NewFromInt(e.limits.MaxSingleInvestmentBps)).
		Div(decimal.NewFromInt(domain.BpsDenominator))
	if p.Amount.GreaterThan(maxCommit) {
		return nil, errors.Wrapf(domain.ErrInvestmentTooLarge,
			"amount %s exceeds %d bps of total value %s", p.Amount.String(), e.limits.MaxSingleInvestmentBps, total.String())
	}

	if err := e.debit(asset, p.Amount); err != nil {
		return nil, err
	}

	e.nextInvestmentID++
	inv := &domain.Investment{
		ID:             e.nextInvestmentID,
		Protocol:       p.Protocol,
		Asset:          p.Asset,
		Principal:      p.Amount,
		ExpectedAPYBps: p.ExpectedAPYBps,
		StartedAt:      e.now(),
		LockPeriod:     p.LockPeriod,
		YieldAccrued:   decimal.Zero,
		Active:         true,
		ProtocolName:   p.ProtocolName,
		StrategyLabel:  p.StrategyLabel,
	}
	e.investments[inv.ID] = inv

	e.emit(domain.EventInvestmentMade, domain.InvestmentMadePayload{
		InvestmentID:   inv.ID,
		Protocol:       inv.Protocol,
		Asset:          inv.Asset,
		Amount:         inv.Principal,
		ExpectedAPYBps: inv.ExpectedAPYBps,
		ProtocolName:   inv.ProtocolName,
	})
	e.persist()

	out := *inv
	return &out, nil
}

// HarvestYield realizes the yield accrued since the last harvest: credits the
// asset and bumps the cumulative counters. A non-positive harvestable amount
// is a no-op, not an error; no state changes and no event is emitted.
// Yield is computed on demand from the injected clock, never by a timer.
func (e *Engine) HarvestYield(caller domain.Caller, investmentID uint64) (decimal.Decimal, error) {
	release, err := e.begin(caller, false)
	if err != nil {
		return decimal.Zero, err
	}
	defer release()

	inv, ok := e.investments[investmentID]
	if !ok {
		return decimal.Zero, errors.Wrapf(domain.ErrNotFound, "investment %d", investmentID)
	}
	if !inv.Active {
		return decimal.Zero, errors.Wrapf(domain.ErrInvestmentNotActive, "investment %d", investmentID)
	}

	now := e.now()
	harvestable := inv.Harvestable(now)
	if !harvestable.IsPositive() {
		return decimal.Zero, nil
	}

	asset, ok := e.assets[inv.Asset]
	if !ok {
		return decimal.Zero, errors.Wrapf(domain.ErrNotFound, "asset %s", inv.Asset.Hex())
	}

	e.credit(asset, harvestable)
	inv.YieldAccrued = inv.YieldAccrued.Add(harvestable)
	asset.YieldEarned = asset.YieldEarned.Add(harvestable)
	asset.LastYieldUpdate = now
	e.totalYieldEarned = e.totalYieldEarned.Add(harvestable)

	key := domain.MonthKey(now)
	e.yieldHistory[key] = e.yieldHistory[key].Add(harvestable)

	e.emit(domain.EventYieldHarvested, domain.YieldHarvestedPayload{
		InvestmentID: inv.ID,
		Asset:        inv.Asset,
		Amount:       harvestable,
	})
	e.persist()

	return harvestable, nil
}

// WithdrawInvestment closes a position after its lock period: harvests any
// outstanding yield, returns the principal to the asset and deactivates the
// record. InvestmentManager only.
func (e *Engine) WithdrawInvestment(caller domain.Caller, investmentID uint64) error {
	release, err := e.begin(caller, false, domain.RoleInvestmentManager)
	if err != nil {
		return err
	}
	defer release()

	inv, ok := e.investments[investmentID]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "investment %d", investmentID)
	}
	if !inv.Active {
		return errors.Wrapf(domain.ErrInvestmentNotActive, "investment %d", investmentID)
	}

	now := e.now()
	if inv.Locked(now) {
		return errors.Wrapf(domain.ErrStateConflict,
			"investment %d locked until %s", inv.ID, inv.StartedAt.Add(inv.LockPeriod).Format(time.RFC3339))
	}

	asset, ok := e.assets[inv.Asset]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "asset %s", inv.Asset.Hex())
	}

	finalYield := inv.Harvestable(now)
	if finalYield.IsPositive() {
		e.credit(asset, finalYield)
		inv.YieldAccrued = inv.YieldAccrued.Add(finalYield)
		asset.YieldEarned = asset.YieldEarned.Add(finalYield)
		asset.LastYieldUpdate = now
		e.totalYieldEarned = e.totalYieldEarned.Add(finalYield)
		key := domain.MonthKey(now)
		e.yieldHistory[key] = e.yieldHistory[key].Add(finalYield)
	} else {
		finalYield = decimal.Zero
	}

	e.credit(asset, inv.Principal)
	inv.Active = false

	e.emit(domain.EventInvestmentWithdrawn, domain.InvestmentWithdrawnPayload{
		InvestmentID: inv.ID,
		Asset:        inv.Asset,
		Principal:    inv.Principal,
		FinalYield:   finalYield,
	})
	e.persist()
	return nil
}

// GetInvestment returns a copy of one investment record.
func (e *Engine) GetInvestment(id uint64) (*domain.Investment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	inv, ok := e.investments[id]
	if !ok {
		return nil, errors.Wrapf(domain.ErrNotFound, "investment %d", id)
	}
	out := *inv
	return &out, nil
}

// ListInvestments returns copies of all investment records, oldest first.
func (e *Engine) ListInvestments() []domain.Investment {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.Investment, 0, len(e.investments))
	for id := uint64(1); id <= e.nextInvestmentID; id++ {
		if inv, ok := e.investments[id]; ok {
			out = append(out, *inv)
		}
	}
	return out
}
