package broker

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/shopspring/decimal"
)

// matchPrice returns the price a working order fills at within candle c.
//
//   - MARKET fills at the open.
//   - LIMIT and TARGET fill when the range reaches the limit: at the open when the
//     candle gaps through it, otherwise at the limit.
//   - STOP triggers when the range reaches the stop and fills as a market order:
//     at the open when gapped, otherwise at the stop.
//   - A BRACKET entry behaves as LIMIT when it has a limit price, else as MARKET.
func matchPrice(order types.Order, c types.Candle) (decimal.Decimal, bool) {
	open := decimal.NewFromFloat(c.Open)

	switch order.Type {
	case types.OrderTypeMarket:
		return open, true
	case types.OrderTypeLimit, types.OrderTypeTarget:
		return limitCross(order.Action, order.LimitPrice.Unwrap(), c)
	case types.OrderTypeStop:
		return stopCross(order.Action, order.StopPrice.Unwrap(), c)
	case types.OrderTypeBracket:
		if order.LimitPrice.IsSome() {
			return limitCross(order.Action, order.LimitPrice.Unwrap(), c)
		}

		return open, true
	default:
		return decimal.Zero, false
	}
}

// limitCross buys at or below limit and sells at or above it.
func limitCross(action types.Action, limit decimal.Decimal, c types.Candle) (decimal.Decimal, bool) {
	open := decimal.NewFromFloat(c.Open)

	if action == types.ActionBuy {
		if open.LessThanOrEqual(limit) {
			return open, true
		}

		if decimal.NewFromFloat(c.Low).LessThanOrEqual(limit) {
			return limit, true
		}

		return decimal.Zero, false
	}

	if open.GreaterThanOrEqual(limit) {
		return open, true
	}

	if decimal.NewFromFloat(c.High).GreaterThanOrEqual(limit) {
		return limit, true
	}

	return decimal.Zero, false
}

// stopCross buys once price rises to stop and sells once it falls to stop.
func stopCross(action types.Action, stop decimal.Decimal, c types.Candle) (decimal.Decimal, bool) {
	open := decimal.NewFromFloat(c.Open)

	if action == types.ActionBuy {
		if open.GreaterThanOrEqual(stop) {
			return open, true
		}

		if decimal.NewFromFloat(c.High).GreaterThanOrEqual(stop) {
			return stop, true
		}

		return decimal.Zero, false
	}

	if open.LessThanOrEqual(stop) {
		return open, true
	}

	if decimal.NewFromFloat(c.Low).LessThanOrEqual(stop) {
		return stop, true
	}

	return decimal.Zero, false
}

// referencePrice estimates the cost basis of a working order for cash reservation.
func referencePrice(order types.Order, mark decimal.Decimal) decimal.Decimal {
	switch {
	case order.LimitPrice.IsSome():
		return order.LimitPrice.Unwrap()
	case order.StopPrice.IsSome():
		return order.StopPrice.Unwrap()
	default:
		return mark
	}
}

// bracketLegs creates the PENDING exit legs of a bracket entry. The stop leg comes
// first so a candle touching both exits fills the stop.
func bracketLegs(entry types.Order) []types.Order {
	legs := entry.Bracket.Unwrap()
	exit := entry.Action.Opposite()

	stop := types.NewOrder(entry.Asset, exit, entry.Direction, entry.Size, types.OrderTypeStop, entry.GeneratedAt)
	stop.StopPrice = optional.Some(legs.StopPrice)
	stop.ParentID = entry.ID
	stop.SignalID = entry.SignalID
	stop.StrategyName = entry.StrategyName
	stop.Reason = types.OrderReasonStopLoss

	target := types.NewOrder(entry.Asset, exit, entry.Direction, entry.Size, types.OrderTypeTarget, entry.GeneratedAt)
	target.LimitPrice = optional.Some(legs.TargetPrice)
	target.ParentID = entry.ID
	target.SignalID = entry.SignalID
	target.StrategyName = entry.StrategyName
	target.Reason = types.OrderReasonTakeProfit

	return []types.Order{stop, target}
}
