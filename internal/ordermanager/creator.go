package ordermanager

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"github.com/shopspring/decimal"
)

// Creator shapes a sized signal into an order.
type Creator interface {
	Create(signal types.Signal, size decimal.Decimal) (types.Order, error)
}

// CreatorConfig holds the order shape settings of a run.
type CreatorConfig struct {
	// FixedOrderType is the type of every order. Empty means MARKET, BRACKET means
	// a MARKET entry with WithBracket set.
	FixedOrderType types.OrderType
	// WithBracket wraps opening orders in a bracket. Signals carrying both target
	// and stop percentages are bracketed regardless.
	WithBracket bool
	// TargetOrderPct and StopOrderPct are the bracket distances relative to the entry.
	TargetOrderPct float64
	StopOrderPct   float64
}

// DefaultCreator prices orders at the signal reference price.
type DefaultCreator struct {
	config CreatorConfig
}

func NewDefaultCreator(config CreatorConfig) (*DefaultCreator, error) {
	if config.FixedOrderType == "" {
		config.FixedOrderType = types.OrderTypeMarket
	}

	// BRACKET entries are market orders wrapped with the configured target and stop
	if config.FixedOrderType == types.OrderTypeBracket {
		config.FixedOrderType = types.OrderTypeMarket
		config.WithBracket = true
	}

	if config.WithBracket && (config.TargetOrderPct <= 0 || config.StopOrderPct <= 0 || config.StopOrderPct >= 1) {
		return nil, errors.Newf(errors.ErrCodeInvalidPercentage,
			"with_bracket needs target_order_pct > 0 and stop_order_pct in (0,1), got %v and %v",
			config.TargetOrderPct, config.StopOrderPct)
	}

	return &DefaultCreator{config: config}, nil
}

func (c *DefaultCreator) Create(signal types.Signal, size decimal.Decimal) (types.Order, error) {
	price := decimal.NewFromFloat(signal.Price)

	o := types.NewOrder(signal.Asset, signal.Action, signal.Direction, size, c.config.FixedOrderType, signal.Timestamp)
	o.StrategyName = signal.StrategyName
	o.SignalID = signal.ID

	switch c.config.FixedOrderType {
	case types.OrderTypeLimit, types.OrderTypeTarget:
		o.LimitPrice = optional.Some(price)
	case types.OrderTypeStop:
		o.StopPrice = optional.Some(price)
	}

	if c.wantsBracket(signal) {
		legs, err := c.bracket(signal, price)
		if err != nil {
			return types.Order{}, err
		}

		// a bracket entry is a limit when LimitPrice is set, else a market order
		if c.config.FixedOrderType != types.OrderTypeLimit {
			o.LimitPrice = optional.None[decimal.Decimal]()
		}

		o.StopPrice = optional.None[decimal.Decimal]()
		o.Type = types.OrderTypeBracket
		o.Bracket = optional.Some(legs)
	}

	if err := o.Validate(); err != nil {
		return types.Order{}, err
	}

	return o, nil
}

// wantsBracket is true for opening signals when brackets are configured or the
// signal carries both distances itself.
func (c *DefaultCreator) wantsBracket(signal types.Signal) bool {
	if !signal.Action.Opens(signal.Direction) {
		return false
	}

	return c.config.WithBracket || (signal.TargetPct.IsSome() && signal.StopPct.IsSome())
}

// bracket places the target above and the stop below a long entry, mirrored for shorts.
// Percentages carried by the signal take precedence over the configured ones.
func (c *DefaultCreator) bracket(signal types.Signal, entry decimal.Decimal) (types.BracketLegs, error) {
	targetPct := signal.TargetPct.TakeOr(c.config.TargetOrderPct)
	stopPct := signal.StopPct.TakeOr(c.config.StopOrderPct)

	if targetPct <= 0 || stopPct <= 0 || stopPct >= 1 {
		return types.BracketLegs{}, errors.Newf(errors.ErrCodeInvalidPercentage,
			"signal %s bracket needs positive target and stop, got %v and %v", signal.ID, targetPct, stopPct)
	}

	one := decimal.NewFromInt(1)
	target := decimal.NewFromFloat(targetPct)
	stop := decimal.NewFromFloat(stopPct)

	if signal.Direction == types.DirectionShort {
		return types.BracketLegs{
			TargetPrice: entry.Mul(one.Sub(target)),
			StopPrice:   entry.Mul(one.Add(stop)),
		}, nil
	}

	return types.BracketLegs{
		TargetPrice: entry.Mul(one.Add(target)),
		StopPrice:   entry.Mul(one.Sub(stop)),
	}, nil
}
