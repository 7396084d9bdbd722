package broker

import (
	"context"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/shopspring/decimal"
)

// Broker owns the order book and the portfolio of one exchange.
//
// Orders move PENDING -> SUBMITTED -> FILLED | CANCELLED | REJECTED. Every method is
// called from the engine loop.
type Broker interface {
	// Name is the exchange name orders are routed by.
	Name() string
	// Submit validates and registers an order and returns it as SUBMITTED.
	// A rejected order is returned with status REJECTED and an ErrCodeOrderRejected error.
	Submit(ctx context.Context, order types.Order) (types.Order, error)
	// Cancel cancels a working order. Cancelling a bracket entry also cancels its legs.
	Cancel(ctx context.Context, orderID string, reason string) error
	// Settle matches working orders against the promoted candles and returns the fills.
	Settle(ctx context.Context, candles []types.Candle) ([]types.Transaction, error)
	// CloseAllAtEndOfDay cancels working orders of the candles' assets and closes their positions.
	CloseAllAtEndOfDay(ctx context.Context, candles []types.Candle) ([]types.Transaction, error)
	// Order returns the current state of an order.
	Order(orderID string) (types.Order, bool)
	// OpenOrders returns the working orders in submission order.
	OpenOrders() []types.Order
	Position(asset types.Asset) (types.Position, bool)
	Positions() []types.Position
	Cash() decimal.Decimal
	// AvailableCash is the cash not yet committed to working opening orders.
	AvailableCash() decimal.Decimal
	// Equity is cash plus the marked value of every position.
	Equity(marks map[types.Asset]decimal.Decimal) decimal.Decimal
	// CalcMaxSizeForCash returns the largest size affordable with cash at price, fees included.
	CalcMaxSizeForCash(cash, price decimal.Decimal) decimal.Decimal
	// DrainRejections returns the orders rejected since the last call.
	DrainRejections() []types.Order
	AddListener(listener Listener)
	Close(ctx context.Context) error
}

// Listener receives every fill a broker books.
type Listener interface {
	OnTransaction(tx types.Transaction)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(tx types.Transaction)

func (f ListenerFunc) OnTransaction(tx types.Transaction) {
	f(tx)
}
