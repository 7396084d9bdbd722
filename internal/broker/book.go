package broker

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-quant/internal/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// book is the order book and portfolio shared by the simulated and live brokers.
type book struct {
	name      string
	fee       commission_fee.FeeModel
	portfolio *Portfolio
	ledger    *Ledger
	logger    *logger.Logger

	orders map[string]*types.Order
	// working holds ids of non-terminal orders in submission order.
	working []string
	// legs maps a bracket entry to its exit legs, stop first.
	legs       map[string][]string
	marks      map[types.Asset]decimal.Decimal
	rejections []types.Order
	listeners  []Listener
}

func newBook(name string, cash decimal.Decimal, fee commission_fee.FeeModel, ledger *Ledger, log *logger.Logger) *book {
	if fee == nil {
		fee = commission_fee.NewZeroFeeModel()
	}

	return &book{
		name:      name,
		fee:       fee,
		portfolio: NewPortfolio(cash),
		ledger:    ledger,
		logger:    log,
		orders:    make(map[string]*types.Order),
		legs:      make(map[string][]string),
		marks:     make(map[types.Asset]decimal.Decimal),
	}
}

func (b *book) Name() string {
	return b.name
}

func (b *book) AddListener(listener Listener) {
	b.listeners = append(b.listeners, listener)
}

func (b *book) Order(orderID string) (types.Order, bool) {
	o, ok := b.orders[orderID]
	if !ok {
		return types.Order{}, false
	}

	return *o, true
}

func (b *book) OpenOrders() []types.Order {
	out := make([]types.Order, 0, len(b.working))

	for _, id := range b.working {
		if o := b.orders[id]; o.Status == types.OrderStatusSubmitted {
			out = append(out, *o)
		}
	}

	return out
}

func (b *book) Position(asset types.Asset) (types.Position, bool) {
	pos, ok := b.portfolio.Position(asset)
	if !ok {
		return types.Position{}, false
	}

	return pos.Snapshot(), true
}

func (b *book) Positions() []types.Position {
	return b.portfolio.Positions()
}

func (b *book) Cash() decimal.Decimal {
	return b.portfolio.Cash()
}

// AvailableCash subtracts the estimated cost of working opening orders from cash.
func (b *book) AvailableCash() decimal.Decimal {
	available := b.portfolio.Cash()

	for _, id := range b.working {
		o := b.orders[id]
		if o.Status != types.OrderStatusSubmitted || o.ParentID != "" || !o.Action.Opens(o.Direction) {
			continue
		}

		price := referencePrice(*o, b.marks[o.Asset])
		consideration := o.Size.Mul(price)
		available = available.Sub(consideration).
			Sub(b.fee.CalcCommission(o.Asset.Symbol, o.Size, consideration)).
			Sub(b.fee.CalcTax(o.Asset.Symbol, o.Size, consideration))
	}

	if available.IsNegative() {
		return decimal.Zero
	}

	return available
}

func (b *book) Equity(marks map[types.Asset]decimal.Decimal) decimal.Decimal {
	return b.portfolio.Equity(marks)
}

func (b *book) CalcMaxSizeForCash(cash, price decimal.Decimal) decimal.Decimal {
	return b.fee.CalcMaxSizeForCash(cash, price)
}

func (b *book) DrainRejections() []types.Order {
	out := b.rejections
	b.rejections = nil

	return out
}

// register moves order to SUBMITTED and tracks it. Bracket entries get PENDING exit legs.
func (b *book) register(ctx context.Context, order types.Order) (*types.Order, error) {
	if err := order.Validate(); err != nil {
		return nil, err
	}

	if _, exists := b.orders[order.ID]; exists {
		return nil, errors.Newf(errors.ErrCodeInvalidOrder, "order %s already submitted", order.ID)
	}

	if err := order.Transition(types.OrderStatusSubmitted, ""); err != nil {
		return nil, err
	}

	o := &order
	b.track(ctx, o)

	if o.Type == types.OrderTypeBracket {
		for _, leg := range bracketLegs(*o) {
			l := leg
			b.track(ctx, &l)
			b.legs[o.ID] = append(b.legs[o.ID], l.ID)
		}
	}

	return o, nil
}

func (b *book) track(ctx context.Context, o *types.Order) {
	b.orders[o.ID] = o
	b.working = append(b.working, o.ID)
	b.recordOrder(ctx, o)
}

// reject marks a working order REJECTED and queues it for the strategy.
func (b *book) reject(ctx context.Context, o *types.Order, reason string) {
	if err := o.Transition(types.OrderStatusRejected, reason); err != nil {
		b.logger.Warn("Cannot reject order", zap.String("order_id", o.ID), zap.Error(err))

		return
	}

	b.logger.Warn("Order rejected",
		zap.String("order_id", o.ID),
		zap.String("asset", o.Asset.String()),
		zap.String("type", string(o.Type)),
		zap.String("reason", reason),
	)

	b.recordOrder(ctx, o)
	b.rejections = append(b.rejections, *o)
	b.cancelLegs(ctx, o.ID, reason)
}

// cancel cancels a non-terminal order and the legs hanging from it.
func (b *book) cancel(ctx context.Context, orderID, reason string) error {
	o, ok := b.orders[orderID]
	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "order %s not found", orderID)
	}

	if err := o.Transition(types.OrderStatusCancelled, reason); err != nil {
		return err
	}

	b.recordOrder(ctx, o)
	b.cancelLegs(ctx, orderID, reason)

	return nil
}

func (b *book) cancelLegs(ctx context.Context, parentID, reason string) {
	for _, id := range b.legs[parentID] {
		if leg := b.orders[id]; !leg.IsTerminal() {
			_ = b.cancel(ctx, id, reason)
		}
	}
}

// armLegs submits the exit legs of a filled bracket entry. They match from the next candle.
func (b *book) armLegs(ctx context.Context, entry *types.Order) {
	for _, id := range b.legs[entry.ID] {
		leg := b.orders[id]
		if leg.Status != types.OrderStatusPending {
			continue
		}

		leg.Size = entry.Size
		leg.GeneratedAt = entry.FilledAt

		if err := leg.Transition(types.OrderStatusSubmitted, ""); err == nil {
			b.recordOrder(ctx, leg)
		}
	}
}

// cancelSiblings cancels the other legs once one bracket exit has filled.
func (b *book) cancelSiblings(ctx context.Context, filled *types.Order) {
	for _, id := range b.legs[filled.ParentID] {
		if id == filled.ID {
			continue
		}

		if sibling := b.orders[id]; !sibling.IsTerminal() {
			_ = b.cancel(ctx, id, types.OrderReasonSiblingFilled)
		}
	}
}

// cancelOrphanLegs cancels bracket exits of an asset whose position is gone.
func (b *book) cancelOrphanLegs(ctx context.Context, asset types.Asset) {
	if _, open := b.portfolio.Position(asset); open {
		return
	}

	for _, id := range b.working {
		o := b.orders[id]
		if o.Asset == asset && o.ParentID != "" && !o.IsTerminal() {
			_ = b.cancel(ctx, id, types.OrderReasonNoPosition)
		}
	}
}

// checkFill decides whether o can fill size units at price against the portfolio.
// It returns the size to fill, clipped to the position for closing orders, or a rejection reason.
func (b *book) checkFill(o *types.Order, price decimal.Decimal) (decimal.Decimal, string) {
	pos, hasPosition := b.portfolio.Position(o.Asset)

	if !o.Action.Opens(o.Direction) {
		if !hasPosition || pos.Direction != o.Direction {
			return decimal.Zero, types.OrderReasonNoPosition
		}

		return decimal.Min(o.Size, pos.Size), ""
	}

	if hasPosition && pos.Direction != o.Direction {
		return decimal.Zero, types.OrderReasonOppositePosition
	}

	consideration := o.Size.Mul(price)
	cost := consideration.
		Add(b.fee.CalcCommission(o.Asset.Symbol, o.Size, consideration)).
		Add(b.fee.CalcTax(o.Asset.Symbol, o.Size, consideration))

	if cost.GreaterThan(b.portfolio.Cash()) {
		return decimal.Zero, types.OrderReasonInsufficientFunds
	}

	return o.Size, ""
}

// fillAt books a fill of size at price and completes o.
func (b *book) fillAt(ctx context.Context, o *types.Order, size, price, fee, tax decimal.Decimal, ts time.Time) types.Transaction {
	tx := b.applyFill(ctx, o, size, price, fee, tax, ts)
	b.complete(ctx, o, size, price, ts)

	return tx
}

// applyFill books one execution against the portfolio and publishes it.
// The order state is left untouched so partial executions can accumulate.
func (b *book) applyFill(ctx context.Context, o *types.Order, size, price, fee, tax decimal.Decimal, ts time.Time) types.Transaction {
	tx := b.portfolio.Apply(types.Transaction{
		ID:           uuid.New().String(),
		OrderID:      o.ID,
		Asset:        o.Asset,
		Action:       o.Action,
		Direction:    o.Direction,
		OrderType:    o.Type,
		Size:         size,
		Price:        price,
		Fee:          fee,
		Tax:          tax,
		RealizedPnL:  decimal.Zero,
		Timestamp:    ts,
		StrategyName: o.StrategyName,
		Reason:       o.Reason,
	})

	b.publish(ctx, tx)

	return tx
}

// complete marks o FILLED with its executed size and average price, then arms or
// cancels the bracket legs around it.
func (b *book) complete(ctx context.Context, o *types.Order, size, price decimal.Decimal, ts time.Time) {
	o.Size = size
	o.FilledPrice = price
	o.FilledAt = ts

	if err := o.Transition(types.OrderStatusFilled, ""); err != nil {
		b.logger.Warn("Filled order in unexpected state", zap.String("order_id", o.ID), zap.Error(err))
	}

	b.recordOrder(ctx, o)

	if o.Type == types.OrderTypeBracket {
		b.armLegs(ctx, o)
	}

	if o.ParentID != "" {
		b.cancelSiblings(ctx, o)
	}

	if !o.Action.Opens(o.Direction) {
		b.cancelOrphanLegs(ctx, o.Asset)
	}
}

// chargedFill fills at price charging the fee model.
func (b *book) chargedFill(ctx context.Context, o *types.Order, size, price decimal.Decimal, ts time.Time) types.Transaction {
	consideration := size.Mul(price)

	return b.fillAt(ctx, o, size, price,
		b.fee.CalcCommission(o.Asset.Symbol, size, consideration),
		b.fee.CalcTax(o.Asset.Symbol, size, consideration),
		ts,
	)
}

func (b *book) publish(ctx context.Context, tx types.Transaction) {
	b.logger.Debug("Transaction",
		zap.String("order_id", tx.OrderID),
		zap.String("asset", tx.Asset.String()),
		zap.String("action", string(tx.Action)),
		zap.String("size", tx.Size.String()),
		zap.String("price", tx.Price.String()),
		zap.String("fee", tx.Fee.String()),
	)

	if b.ledger != nil {
		if err := b.ledger.RecordTransaction(ctx, tx); err != nil {
			b.logger.Error("Failed to record transaction", zap.Error(err))
		}
	}

	for _, l := range b.listeners {
		l.OnTransaction(tx)
	}
}

func (b *book) recordOrder(ctx context.Context, o *types.Order) {
	if b.ledger == nil {
		return
	}

	if err := b.ledger.RecordOrder(ctx, *o); err != nil {
		b.logger.Error("Failed to record order", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// compact drops terminal orders from the working list.
func (b *book) compact() {
	b.working = slices.DeleteFunc(b.working, func(id string) bool {
		return b.orders[id].IsTerminal()
	})
}

// workingFor returns the working orders of asset in submission order.
func (b *book) workingFor(asset types.Asset) []*types.Order {
	var out []*types.Order

	for _, id := range b.working {
		if o := b.orders[id]; o.Asset == asset && o.Status == types.OrderStatusSubmitted {
			out = append(out, o)
		}
	}

	return out
}
