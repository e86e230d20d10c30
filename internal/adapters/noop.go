package adapters

import "github.com/shopspring/decimal"

// Noop is a rebalance adapter that performs no external trade, so a rebalance
// only moves book balances. Used for simulation and tests.
type Noop struct{}

// NewNoop returns the no-op adapter.
func NewNoop() Noop { return Noop{} }

func (Noop) Acquire(symbol string, amount decimal.Decimal) error { return nil }

func (Noop) Reduce(symbol string, amount decimal.Decimal) error { return nil }
