package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

type Action string

type Direction string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Opposite returns the other side.
func (a Action) Opposite() Action {
	if a == ActionBuy {
		return ActionSell
	}

	return ActionBuy
}

// Sign returns +1 for BUY and -1 for SELL.
func (a Action) Sign() int {
	if a == ActionBuy {
		return 1
	}

	return -1
}

// Opens reports whether the action opens (or adds to) a position in direction d.
func (a Action) Opens(d Direction) bool {
	return (a == ActionBuy && d == DirectionLong) || (a == ActionSell && d == DirectionShort)
}

// Signal is a trading intent emitted by a strategy.
type Signal struct {
	ID           string            `yaml:"id" json:"id" validate:"required"`
	Asset        Asset             `yaml:"asset" json:"asset"`
	TimeUnit     time.Duration     `yaml:"time_unit" json:"time_unit"`
	Action       Action            `yaml:"action" json:"action" validate:"required,oneof=BUY SELL"`
	Direction    Direction         `yaml:"direction" json:"direction" validate:"required,oneof=LONG SHORT"`
	StrategyName string            `yaml:"strategy_name" json:"strategy_name" validate:"required"`
	Parameters   map[string]string `yaml:"parameters" json:"parameters"`
	Timestamp    time.Time         `yaml:"timestamp" json:"timestamp"`
	// Price is the reference price at emission, usually the close of the triggering candle.
	Price float64 `yaml:"price" json:"price" validate:"gte=0"`
	// TargetPct and StopPct override the configured bracket distances when set.
	TargetPct optional.Option[float64] `yaml:"target_pct" json:"target_pct"`
	StopPct   optional.Option[float64] `yaml:"stop_pct" json:"stop_pct"`
}

// NewSignal creates a signal for the candle with a fresh id.
func NewSignal(strategyName string, candle Candle, action Action, direction Direction) Signal {
	return Signal{
		ID:           uuid.New().String(),
		Asset:        candle.Asset,
		TimeUnit:     candle.Asset.TimeUnit,
		Action:       action,
		Direction:    direction,
		StrategyName: strategyName,
		Parameters:   map[string]string{},
		Timestamp:    candle.Timestamp,
		Price:        candle.Close,
	}
}

// Normalize forces the signal time unit to the asset time unit.
func (s Signal) Normalize() Signal {
	s.TimeUnit = s.Asset.TimeUnit

	return s
}

// Validate validates the Signal struct.
func (s Signal) Validate() error {
	if err := validate.Struct(s); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSignal, "invalid signal", err)
	}

	if err := s.Asset.Validate(); err != nil {
		return err
	}

	for _, pct := range []optional.Option[float64]{s.TargetPct, s.StopPct} {
		if pct.IsSome() && (pct.Unwrap() < 0 || pct.Unwrap() > 1) {
			return errors.Newf(errors.ErrCodeInvalidPercentage, "signal %s bracket pct %v outside [0,1]", s.ID, pct.Unwrap())
		}
	}

	return nil
}

// Legs implements Emission.
func (s Signal) Legs() []Signal {
	return []Signal{s}
}

// ArbitragePairSignal groups a buy leg and a sell leg that must be submitted together.
type ArbitragePairSignal struct {
	ID   string `yaml:"id" json:"id"`
	Buy  Signal `yaml:"buy" json:"buy"`
	Sell Signal `yaml:"sell" json:"sell"`
}

// NewArbitragePairSignal pairs two legs under one id.
func NewArbitragePairSignal(buy, sell Signal) ArbitragePairSignal {
	return ArbitragePairSignal{ID: uuid.New().String(), Buy: buy, Sell: sell}
}

// Legs implements Emission. The buy leg comes first.
func (p ArbitragePairSignal) Legs() []Signal {
	return []Signal{p.Buy, p.Sell}
}

// Validate validates both legs and their sides.
func (p ArbitragePairSignal) Validate() error {
	if p.Buy.Action != ActionBuy || p.Sell.Action != ActionSell {
		return errors.Newf(errors.ErrCodeInvalidSignal, "pair %s must hold one BUY and one SELL leg", p.ID)
	}

	if err := p.Buy.Validate(); err != nil {
		return err
	}

	return p.Sell.Validate()
}

// Emission is anything a strategy can emit: a plain signal or a pair.
type Emission interface {
	Legs() []Signal
	Validate() error
}
