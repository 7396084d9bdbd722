package broker

import (
	"context"

	"github.com/rxtech-lab/argo-quant/internal/commission_fee"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SimulatedConfig configures a backtest broker.
type SimulatedConfig struct {
	// Name is the exchange the broker stands in for.
	Name        string
	InitialCash decimal.Decimal
	FeeModel    commission_fee.FeeModel
	// Ledger is optional. The broker closes it on Close.
	Ledger *Ledger
}

// SimulatedBroker matches orders against historical candles.
//
// An order only matches candles opening after the order was generated, so a signal
// raised on the close of candle t fills at the earliest on candle t+1.
type SimulatedBroker struct {
	*book
}

var _ Broker = (*SimulatedBroker)(nil)

func NewSimulatedBroker(config SimulatedConfig, log *logger.Logger) (*SimulatedBroker, error) {
	if config.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "simulated broker needs an exchange name")
	}

	if config.InitialCash.IsNegative() {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "initial cash %s is negative", config.InitialCash)
	}

	return &SimulatedBroker{
		book: newBook(config.Name, config.InitialCash, config.FeeModel, config.Ledger,
			log.Named("simulated_broker").With(zap.String("exchange", config.Name))),
	}, nil
}

// Submit implements Broker.
func (s *SimulatedBroker) Submit(ctx context.Context, order types.Order) (types.Order, error) {
	o, err := s.register(ctx, order)
	if err != nil {
		return order, err
	}

	s.logger.Debug("Order submitted",
		zap.String("order_id", o.ID),
		zap.String("asset", o.Asset.String()),
		zap.String("action", string(o.Action)),
		zap.String("type", string(o.Type)),
		zap.String("size", o.Size.String()),
	)

	return *o, nil
}

// Cancel implements Broker.
func (s *SimulatedBroker) Cancel(ctx context.Context, orderID string, reason string) error {
	if err := s.cancel(ctx, orderID, reason); err != nil {
		return err
	}

	s.compact()

	return nil
}

// Settle implements Broker.
func (s *SimulatedBroker) Settle(ctx context.Context, candles []types.Candle) ([]types.Transaction, error) {
	var txs []types.Transaction

	for _, c := range candles {
		s.marks[c.Asset] = decimal.NewFromFloat(c.Close)

		for _, o := range s.workingFor(c.Asset) {
			// an earlier fill in this candle may have cancelled it
			if o.Status != types.OrderStatusSubmitted || !o.GeneratedAt.Before(c.Timestamp) {
				continue
			}

			price, ok := matchPrice(*o, c)
			if !ok {
				continue
			}

			size, reason := s.checkFill(o, price)
			if reason != "" {
				s.reject(ctx, o, reason)

				continue
			}

			txs = append(txs, s.chargedFill(ctx, o, size, price, c.Timestamp))
		}
	}

	s.compact()
	s.portfolio.Mark(s.marks)

	return txs, nil
}

// CloseAllAtEndOfDay implements Broker. Positions close at the candle close.
func (s *SimulatedBroker) CloseAllAtEndOfDay(ctx context.Context, candles []types.Candle) ([]types.Transaction, error) {
	var txs []types.Transaction

	for _, c := range candles {
		for _, id := range s.working {
			if o := s.orders[id]; o.Asset == c.Asset && !o.IsTerminal() {
				_ = s.cancel(ctx, id, types.OrderReasonEndOfDay)
			}
		}

		pos, ok := s.portfolio.Position(c.Asset)
		if !ok {
			continue
		}

		closing := types.NewOrder(c.Asset, exitAction(pos.Direction), pos.Direction, pos.Size, types.OrderTypeMarket, c.Timestamp)
		closing.Reason = types.OrderReasonEndOfDay

		o, err := s.register(ctx, closing)
		if err != nil {
			return txs, err
		}

		txs = append(txs, s.chargedFill(ctx, o, o.Size, decimal.NewFromFloat(c.Close), c.Timestamp))
	}

	s.compact()
	s.portfolio.Mark(s.marks)

	return txs, nil
}

// Transactions returns every fill recorded in the ledger.
func (s *SimulatedBroker) Transactions(ctx context.Context) ([]types.Transaction, error) {
	if s.ledger == nil {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "broker has no ledger")
	}

	return s.ledger.Transactions(ctx, "")
}

// Close implements Broker.
func (s *SimulatedBroker) Close(context.Context) error {
	if s.ledger == nil {
		return nil
	}

	return s.ledger.Close()
}

// exitAction is the action that reduces a position of direction d.
func exitAction(d types.Direction) types.Action {
	if d == types.DirectionShort {
		return types.ActionBuy
	}

	return types.ActionSell
}
