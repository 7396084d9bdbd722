package ordermanager

import (
	"context"

	"github.com/rxtech-lab/argo-quant/internal/broker"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderManager turns strategy emissions into broker orders. It keeps no state
// beyond its sizer and creator.
type OrderManager struct {
	brokers *broker.Manager
	sizer   Sizer
	creator Creator
	logger  *logger.Logger
}

func NewOrderManager(brokers *broker.Manager, sizer Sizer, creator Creator, log *logger.Logger) *OrderManager {
	return &OrderManager{
		brokers: brokers,
		sizer:   sizer,
		creator: creator,
		logger:  log.Named("order_manager"),
	}
}

// Process dispatches a plain signal or an arbitrage pair and returns the submitted orders.
// Signals the sizer cannot fund are dropped without error.
func (m *OrderManager) Process(ctx context.Context, emission types.Emission) ([]types.Order, error) {
	if err := emission.Validate(); err != nil {
		return nil, err
	}

	switch e := emission.(type) {
	case types.ArbitragePairSignal:
		return m.ProcessPair(ctx, e)
	case types.Signal:
		o, ok, err := m.ProcessSignal(ctx, e)
		if err != nil || !ok {
			return nil, err
		}

		return []types.Order{o}, nil
	default:
		var out []types.Order

		for _, s := range emission.Legs() {
			o, ok, err := m.ProcessSignal(ctx, s)
			if err != nil {
				return out, err
			}

			if ok {
				out = append(out, o)
			}
		}

		return out, nil
	}
}

// ProcessSignal sizes, shapes and submits one signal. It reports false when the signal
// was dropped. An order the broker rejects is returned REJECTED with a nil error; the
// rejection reaches the strategy on the next tick.
func (m *OrderManager) ProcessSignal(ctx context.Context, signal types.Signal) (types.Order, bool, error) {
	b, o, ok, err := m.prepare(signal)
	if err != nil || !ok {
		return types.Order{}, ok, err
	}

	submitted, err := b.Submit(ctx, o)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeOrderRejected) {
			return submitted, true, nil
		}

		return submitted, false, err
	}

	m.logger.Debug("Signal submitted",
		zap.String("signal_id", signal.ID),
		zap.String("order_id", submitted.ID),
		zap.String("strategy", signal.StrategyName),
		zap.String("asset", signal.Asset.String()),
		zap.String("size", submitted.Size.String()),
	)

	return submitted, true, nil
}

// ProcessPair sizes both legs to the smaller of their sizes and creates them before
// submitting either. When a leg cannot be submitted the legs already placed are
// cancelled and ErrCodePairSubmissionFailed is returned.
func (m *OrderManager) ProcessPair(ctx context.Context, pair types.ArbitragePairSignal) ([]types.Order, error) {
	type leg struct {
		broker broker.Broker
		order  types.Order
	}

	type sizedLeg struct {
		broker broker.Broker
		signal types.Signal
	}

	sized := make([]sizedLeg, 0, 2)

	var size decimal.Decimal

	for i, s := range pair.Legs() {
		b, normalized, legSize, ok, err := m.size(s)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodePairSubmissionFailed, err, "pair %s leg %s", pair.ID, s.Asset)
		}

		if !ok {
			m.logger.Info("Pair dropped", zap.String("pair_id", pair.ID), zap.String("asset", s.Asset.String()))

			return nil, nil
		}

		if i == 0 || legSize.LessThan(size) {
			size = legSize
		}

		sized = append(sized, sizedLeg{broker: b, signal: normalized})
	}

	legs := make([]leg, 0, len(sized))

	for _, l := range sized {
		o, err := m.creator.Create(l.signal, size)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodePairSubmissionFailed, err, "pair %s leg %s", pair.ID, l.signal.Asset)
		}

		legs = append(legs, leg{broker: l.broker, order: o})
	}

	placed := make([]leg, 0, len(legs))

	for _, l := range legs {
		submitted, err := l.broker.Submit(ctx, l.order)
		if err == nil && submitted.Status == types.OrderStatusSubmitted {
			placed = append(placed, leg{broker: l.broker, order: submitted})

			continue
		}

		for _, p := range placed {
			if cancelErr := p.broker.Cancel(ctx, p.order.ID, types.OrderReasonPairLegFailed); cancelErr != nil {
				m.logger.Warn("Failed to cancel pair leg",
					zap.String("pair_id", pair.ID),
					zap.String("order_id", p.order.ID),
					zap.Error(cancelErr),
				)
			}
		}

		if err == nil {
			err = errors.Newf(errors.ErrCodeOrderRejected, "order %s is %s", submitted.ID, submitted.Status)
		}

		return nil, errors.Wrapf(errors.ErrCodePairSubmissionFailed, err, "pair %s leg on %s failed", pair.ID, l.order.Asset)
	}

	out := make([]types.Order, 0, len(placed))
	for _, p := range placed {
		out = append(out, p.order)
	}

	m.logger.Debug("Pair submitted", zap.String("pair_id", pair.ID))

	return out, nil
}

// prepare routes, sizes and shapes a signal. ok is false when it is dropped for lack of funds
// or because there is nothing to close.
func (m *OrderManager) prepare(signal types.Signal) (broker.Broker, types.Order, bool, error) {
	b, signal, size, ok, err := m.size(signal)
	if err != nil || !ok {
		return b, types.Order{}, ok, err
	}

	o, err := m.creator.Create(signal, size)
	if err != nil {
		return nil, types.Order{}, false, err
	}

	return b, o, true, nil
}

// size validates, normalizes and routes a signal and returns the size the sizer grants it.
func (m *OrderManager) size(signal types.Signal) (broker.Broker, types.Signal, decimal.Decimal, bool, error) {
	if err := signal.Validate(); err != nil {
		return nil, signal, decimal.Zero, false, err
	}

	signal = signal.Normalize()

	b, err := m.brokers.ForAsset(signal.Asset)
	if err != nil {
		return nil, signal, decimal.Zero, false, err
	}

	size, err := m.sizer.Size(signal, b)
	if err != nil {
		if errors.HasCode(err, errors.ErrCodeInsufficientFunds) || errors.HasCode(err, errors.ErrCodePositionNotFound) {
			m.logger.Info("Signal dropped",
				zap.String("signal_id", signal.ID),
				zap.String("strategy", signal.StrategyName),
				zap.String("asset", signal.Asset.String()),
				zap.String("reason", err.Error()),
			)

			return b, signal, decimal.Zero, false, nil
		}

		return nil, signal, decimal.Zero, false, err
	}

	return b, signal, size, true, nil
}

var (
	_ Sizer   = (*EqualWeightSizer)(nil)
	_ Creator = (*DefaultCreator)(nil)
)
