package treasury

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/astratum/treasury/internal/domain"
)

// Pause blocks every non-emergency mutating operation. Admin only.
func (e *Engine) Pause(caller domain.Caller) error {
	release, err := e.begin(caller, true, domain.RoleAdmin)
	if err != nil {
		return err
	}
	defer release()

	if e.paused {
		return errors.Wrap(domain.ErrStateConflict, "treasury already paused")
	}
	e.paused = true

	e.emit(domain.EventTreasuryPaused, domain.PausePayload{By: caller.ID})
	e.persist()
	return nil
}

// Unpause lifts the pause. Admin only.
func (e *Engine) Unpause(caller domain.Caller) error {
	release, err := e.begin(caller, true, domain.RoleAdmin)
	if err != nil {
		return err
	}
	defer release()

	if !e.paused {
		return errors.Wrap(domain.ErrStateConflict, "treasury is not paused")
	}
	e.paused = false

	e.emit(domain.EventTreasuryUnpaused, domain.PausePayload{By: caller.ID})
	e.persist()
	return nil
}

// EmergencyWithdraw debits an asset directly, bypassing the whole proposal
// workflow and the pause gate. Emergency only. The reason is carried verbatim
// on the emitted event for the audit trail.
func (e *Engine) EmergencyWithdraw(caller domain.Caller, assetAddr common.Address, amount decimal.Decimal, recipient common.Address, reason string) error {
	release, err := e.begin(caller, true, domain.RoleEmergency)
	if err != nil {
		return err
	}
	defer release()

	a, ok := e.assets[assetAddr]
	if !ok {
		return errors.Wrapf(domain.ErrNotFound, "asset %s", assetAddr.Hex())
	}
	if !amount.IsPositive() {
		return errors.Wrap(domain.ErrValidation, "withdrawal amount must be positive")
	}
	if recipient == (common.Address{}) {
		return errors.Wrap(domain.ErrValidation, "recipient must not be zero")
	}
	if err := e.debit(a, amount); err != nil {
		return err
	}

	e.log.Warn("emergency withdrawal",
		zap.String("asset", a.Symbol),
		zap.String("amount", amount.String()),
		zap.String("recipient", recipient.Hex()),
		zap.String("reason", reason),
		zap.String("caller", caller.ID))

	e.emit(domain.EventEmergencyWithdrawal, domain.EmergencyWithdrawalPayload{
		Asset:     assetAddr,
		Amount:    amount,
		Recipient: recipient,
		Reason:    reason,
	})
	e.persist()
	return nil
}
