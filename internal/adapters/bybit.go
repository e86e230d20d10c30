package adapters

import (
	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Bybit executes rebalance steps as spot market orders on Bybit's v5 API.
// For spot market buys Bybit interprets Qty as quote quantity, matching the
// unit-of-account amounts the rebalancer hands over.
type Bybit struct {
	client *bybit.Client
	quote  string
}

// NewBybit creates the Bybit rebalance adapter.
func NewBybit(client *bybit.Client, quote string) *Bybit {
	return &Bybit{client: client, quote: quote}
}

// Acquire buys amount worth of the asset.
func (b *Bybit) Acquire(symbol string, amount decimal.Decimal) error {
	return b.order(symbol, bybit.SideBuy, amount)
}

// Reduce sells amount worth of the asset.
func (b *Bybit) Reduce(symbol string, amount decimal.Decimal) error {
	return b.order(symbol, bybit.SideSell, amount)
}

func (b *Bybit) order(symbol string, side bybit.Side, amount decimal.Decimal) error {
	_, err := b.client.V5().Order().CreateOrder(bybit.V5CreateOrderParam{
		Category:  bybit.CategoryV5Spot,
		Symbol:    bybit.SymbolV5(symbol + b.quote),
		Side:      side,
		OrderType: bybit.OrderTypeMarket,
		Qty:       amount.String(),
	})
	if err != nil {
		return errors.Wrapf(err, "bybit %s %s%s for %s", side, symbol, b.quote, amount.String())
	}
	return nil
}
