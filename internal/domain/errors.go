package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error taxonomy. Every failure returned by the engine wraps exactly one of
// these categories, so callers can branch with errors.Is regardless of the
// contextual message attached on the way out.
var (
	ErrUnauthorized        = errors.New("caller is not authorized")
	ErrValidation          = errors.New("validation failed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrStateConflict       = errors.New("state conflict")
	ErrNotFound            = errors.New("not found")
	ErrExternalAdapter     = errors.New("external adapter failure")
)

// Named errors, each wrapping its category so errors.Is matches both the
// specific error and the taxonomy it belongs to.
var (
	ErrDuplicateAsset         = fmt.Errorf("%w: asset already registered", ErrValidation)
	ErrInvalidAllocation      = fmt.Errorf("%w: target allocation exceeds 10000 bps", ErrValidation)
	ErrAmountOutOfRange       = fmt.Errorf("%w: amount out of range", ErrValidation)
	ErrUnsupportedAsset       = fmt.Errorf("%w: asset is not supported", ErrNotFound)
	ErrProtocolAddressInvalid = fmt.Errorf("%w: protocol address is invalid", ErrValidation)
	ErrInvestmentTooLarge     = fmt.Errorf("%w: investment exceeds single-investment cap", ErrValidation)
	ErrInvestmentNotActive    = fmt.Errorf("%w: investment is not active", ErrStateConflict)
	ErrAlreadyProcessed       = fmt.Errorf("%w: proposal already executed or cancelled", ErrStateConflict)
	ErrDeadlineNotReached     = fmt.Errorf("%w: execution deadline not reached", ErrStateConflict)
	ErrNotGovernanceApproved  = fmt.Errorf("%w: proposal is not governance approved", ErrStateConflict)
	ErrStreamInactive         = fmt.Errorf("%w: revenue stream is inactive", ErrStateConflict)
	ErrPaused                 = fmt.Errorf("%w: treasury is paused", ErrStateConflict)
	ErrReentrancy             = fmt.Errorf("%w: operation already in flight", ErrStateConflict)
)
