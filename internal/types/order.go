package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
)

// validate caches struct metadata across calls and is safe for concurrent use.
var validate = validator.New()

type OrderType string

type OrderStatus string

const (
	OrderTypeMarket  OrderType = "MARKET"
	OrderTypeLimit   OrderType = "LIMIT"
	OrderTypeTarget  OrderType = "TARGET"
	OrderTypeStop    OrderType = "STOP"
	OrderTypeBracket OrderType = "BRACKET"
)

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusSubmitted OrderStatus = "SUBMITTED"
	OrderStatusFilled    OrderStatus = "FILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusRejected  OrderStatus = "REJECTED"
)

const (
	OrderReasonStrategy          string = "strategy"
	OrderReasonTakeProfit        string = "take_profit"
	OrderReasonStopLoss          string = "stop_loss"
	OrderReasonEndOfDay          string = "end_of_day"
	OrderReasonInsufficientFunds string = "insufficient_funds"
	OrderReasonNoPosition        string = "no_position"
	OrderReasonOppositePosition  string = "opposite_position"
	OrderReasonSiblingFilled     string = "sibling_filled"
	OrderReasonPairLegFailed     string = "pair_leg_failed"
	OrderReasonExchange          string = "exchange"
)

// ParseOrderType accepts one of MARKET, LIMIT, TARGET, STOP, BRACKET.
func ParseOrderType(s string) (OrderType, error) {
	switch t := OrderType(s); t {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeTarget, OrderTypeStop, OrderTypeBracket:
		return t, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidOrderType, "unknown order type %q", s)
	}
}

// BracketLegs holds the absolute exit prices of a bracket order.
type BracketLegs struct {
	TargetPrice decimal.Decimal `yaml:"target_price" json:"target_price"`
	StopPrice   decimal.Decimal `yaml:"stop_price" json:"stop_price"`
}

// Order is owned by a broker once submitted.
type Order struct {
	ID        string          `yaml:"id" json:"id" validate:"required"`
	Asset     Asset           `yaml:"asset" json:"asset"`
	Action    Action          `yaml:"action" json:"action" validate:"required,oneof=BUY SELL"`
	Direction Direction       `yaml:"direction" json:"direction" validate:"required,oneof=LONG SHORT"`
	Size      decimal.Decimal `yaml:"size" json:"size"`
	Type      OrderType       `yaml:"type" json:"type" validate:"required,oneof=MARKET LIMIT TARGET STOP BRACKET"`
	// LimitPrice is used by LIMIT and TARGET orders, and by a BRACKET entry when set.
	LimitPrice optional.Option[decimal.Decimal] `yaml:"limit_price" json:"limit_price"`
	// StopPrice is used by STOP orders.
	StopPrice optional.Option[decimal.Decimal] `yaml:"stop_price" json:"stop_price"`
	// Bracket is set only on BRACKET orders.
	Bracket optional.Option[BracketLegs] `yaml:"bracket" json:"bracket"`
	// ParentID links bracket children to their entry order.
	ParentID     string      `yaml:"parent_id" json:"parent_id"`
	SignalID     string      `yaml:"signal_id" json:"signal_id"`
	GeneratedAt  time.Time   `yaml:"generated_at" json:"generated_at" validate:"required"`
	Status       OrderStatus `yaml:"status" json:"status"`
	StrategyName string      `yaml:"strategy_name" json:"strategy_name"`
	Reason       string      `yaml:"reason" json:"reason"`
	// ExchangeOrderID is the remote identifier for live brokers.
	ExchangeOrderID string          `yaml:"exchange_order_id" json:"exchange_order_id"`
	FilledPrice     decimal.Decimal `yaml:"filled_price" json:"filled_price"`
	FilledAt        time.Time       `yaml:"filled_at" json:"filled_at"`
}

// NewOrder creates a PENDING order with a fresh id.
func NewOrder(asset Asset, action Action, direction Direction, size decimal.Decimal, orderType OrderType, generatedAt time.Time) Order {
	return Order{
		ID:          uuid.New().String(),
		Asset:       asset,
		Action:      action,
		Direction:   direction,
		Size:        size,
		Type:        orderType,
		LimitPrice:  optional.None[decimal.Decimal](),
		StopPrice:   optional.None[decimal.Decimal](),
		Bracket:     optional.None[BracketLegs](),
		GeneratedAt: generatedAt,
		Status:      OrderStatusPending,
		Reason:      OrderReasonStrategy,
	}
}

// Validate checks the order shape before it is handed to a broker.
func (o Order) Validate() error {
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	if !o.Size.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidOrder, "order %s has non-positive size %s", o.ID, o.Size)
	}

	switch o.Type {
	case OrderTypeLimit, OrderTypeTarget:
		if o.LimitPrice.IsNone() || !o.LimitPrice.Unwrap().IsPositive() {
			return errors.Newf(errors.ErrCodeInvalidOrder, "%s order %s requires a positive limit price", o.Type, o.ID)
		}
	case OrderTypeStop:
		if o.StopPrice.IsNone() || !o.StopPrice.Unwrap().IsPositive() {
			return errors.Newf(errors.ErrCodeInvalidOrder, "STOP order %s requires a positive stop price", o.ID)
		}
	case OrderTypeBracket:
		if o.Bracket.IsNone() {
			return errors.Newf(errors.ErrCodeInvalidOrder, "BRACKET order %s requires target and stop prices", o.ID)
		}

		legs := o.Bracket.Unwrap()
		if !legs.TargetPrice.IsPositive() || !legs.StopPrice.IsPositive() {
			return errors.Newf(errors.ErrCodeInvalidOrder, "BRACKET order %s has non-positive legs", o.ID)
		}
	}

	return nil
}

// IsTerminal reports whether the order can no longer change.
func (o Order) IsTerminal() bool {
	return o.Status == OrderStatusFilled || o.Status == OrderStatusCancelled || o.Status == OrderStatusRejected
}

// SignedSize is +size for BUY and -size for SELL.
func (o Order) SignedSize() decimal.Decimal {
	if o.Action == ActionBuy {
		return o.Size
	}

	return o.Size.Neg()
}

var allowedTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusSubmitted, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusSubmitted: {OrderStatusFilled, OrderStatusCancelled, OrderStatusRejected},
}

// Transition moves the order to status to, enforcing the order state machine.
func (o *Order) Transition(to OrderStatus, reason string) error {
	for _, allowed := range allowedTransitions[o.Status] {
		if allowed == to {
			o.Status = to
			if reason != "" {
				o.Reason = reason
			}

			return nil
		}
	}

	return errors.Newf(errors.ErrCodeOrderStateTransition, "order %s cannot move from %s to %s", o.ID, o.Status, to)
}
