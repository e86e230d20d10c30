package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/astratum/treasury/pkg/retrier"
)

const binanceOrderTimeout = 30 * time.Second

// Binance executes rebalance steps as spot market orders against a quote
// currency. Amounts are in the unit of account, so orders are placed by
// quote quantity rather than base quantity.
type Binance struct {
	client  *binance.Client
	quote   string
	retrier *retrier.Retrier
}

// NewBinance creates the Binance rebalance adapter. quote is the symbol of
// the unit of account on the venue, e.g. USDT.
func NewBinance(client *binance.Client, quote string) *Binance {
	return &Binance{
		client:  client,
		quote:   quote,
		retrier: retrier.New(retrier.WithMaxAttempts(3)),
	}
}

// Acquire buys amount worth of the asset on the spot market.
func (b *Binance) Acquire(symbol string, amount decimal.Decimal) error {
	return b.order(symbol, binance.SideTypeBuy, amount)
}

// Reduce sells amount worth of the asset on the spot market.
func (b *Binance) Reduce(symbol string, amount decimal.Decimal) error {
	return b.order(symbol, binance.SideTypeSell, amount)
}

func (b *Binance) order(symbol string, side binance.SideType, amount decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(context.Background(), binanceOrderTimeout)
	defer cancel()

	clientOrderID := fmt.Sprintf("treasury-%s", uuid.NewString())
	err := b.retrier.Do(ctx, func(ctx context.Context) error {
		_, err := b.client.NewCreateOrderService().
			Symbol(symbol + b.quote).
			Side(side).
			Type(binance.OrderTypeMarket).
			QuoteOrderQty(amount.String()).
			NewClientOrderID(clientOrderID).
			Do(ctx)
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "binance %s %s%s for %s", side, symbol, b.quote, amount.String())
	}
	return nil
}
