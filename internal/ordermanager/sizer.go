package ordermanager

import (
	"github.com/rxtech-lab/argo-quant/internal/broker"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/internal/utils"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
)

// DefaultDecimalPrecision bounds fractional sizes.
const DefaultDecimalPrecision = 8

// Sizer decides how much of an asset a signal trades.
type Sizer interface {
	Size(signal types.Signal, b broker.Broker) (decimal.Decimal, error)
}

// EqualWeightSizer splits the available cash of a broker evenly across the traded assets.
//
// Opening signals get broker.CalcMaxSizeForCash(available_cash * 1/n, price).
// Closing signals get the size of the open position they close.
type EqualWeightSizer struct {
	weight           decimal.Decimal
	integerSize      bool
	decimalPrecision int32
}

func NewEqualWeightSizer(assets int, integerSize bool) (*EqualWeightSizer, error) {
	if assets <= 0 {
		return nil, errors.New(errors.ErrCodeEngineNoAssets, "equal weight sizer needs at least one asset")
	}

	return &EqualWeightSizer{
		weight:           decimal.NewFromInt(1).Div(decimal.NewFromInt(int64(assets))),
		integerSize:      integerSize,
		decimalPrecision: DefaultDecimalPrecision,
	}, nil
}

func (s *EqualWeightSizer) Size(signal types.Signal, b broker.Broker) (decimal.Decimal, error) {
	if !signal.Action.Opens(signal.Direction) {
		pos, ok := b.Position(signal.Asset)
		if !ok || pos.Direction != signal.Direction {
			return decimal.Zero, errors.Newf(errors.ErrCodePositionNotFound, "no %s position in %s to close", signal.Direction, signal.Asset)
		}

		return pos.Size, nil
	}

	price := decimal.NewFromFloat(signal.Price)
	if !price.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodeInvalidSignal, "signal %s has no reference price", signal.ID)
	}

	size := b.CalcMaxSizeForCash(b.AvailableCash().Mul(s.weight), price)
	if s.integerSize {
		size = size.Floor()
	} else {
		size = utils.RoundToDecimalPrecision(size, s.decimalPrecision)
	}

	if !size.IsPositive() {
		return decimal.Zero, errors.Newf(errors.ErrCodeInsufficientFunds, "not enough cash to trade %s at %s", signal.Asset, price)
	}

	return size, nil
}
