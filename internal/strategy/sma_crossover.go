package strategy

import (
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"go.uber.org/zap"
)

type SMACrossoverConfig struct {
	Fast int `yaml:"fast" json:"fast" jsonschema:"title=Fast period,default=10" validate:"required,gt=0"`
	Slow int `yaml:"slow" json:"slow" jsonschema:"title=Slow period,default=20" validate:"required,gtfield=Fast"`
	// AllowShort opens a short on a downward cross instead of only closing the long.
	AllowShort bool `yaml:"allow_short" json:"allow_short" jsonschema:"title=Allow short,default=false"`
}

func SMACrossoverDefinition() Definition {
	return Definition{
		Tag:               "sma_crossover",
		Description:       "Goes long when the fast SMA crosses above the slow SMA and exits on the opposite cross",
		Config:            SMACrossoverConfig{},
		DefaultParameters: Parameters{"fast": 10, "slow": 20, "allow_short": false},
		ParameterSpace: map[string][]any{
			"fast": {5, 10, 15},
			"slow": {20, 30, 50},
		},
		New: NewSMACrossover,
	}
}

// SMACrossover trades the cross of two simple moving averages of the close.
type SMACrossover struct {
	Base
	config  SMACrossoverConfig
	crosses map[types.Asset]indicator.Series
	// side is the position the strategy believes it holds per asset.
	side map[types.Asset]types.Direction
}

var (
	_ SingleAssetStrategy = (*SMACrossover)(nil)
	_ OrderListener       = (*SMACrossover)(nil)
)

func NewSMACrossover(name string, assets []types.Asset, params Parameters, env Environment) (Strategy, error) {
	var config SMACrossoverConfig
	if err := params.Decode(&config); err != nil {
		return nil, err
	}

	s := &SMACrossover{
		Base:    NewBase(name, assets, env),
		config:  config,
		crosses: make(map[types.Asset]indicator.Series, len(assets)),
		side:    make(map[types.Asset]types.Direction, len(assets)),
	}

	f := s.Indicators()
	for _, a := range assets {
		closes := f.Candles(a).Close()
		fast := f.SMA(closes, config.Fast, s.owner())
		slow := f.SMA(closes, config.Slow, s.owner())
		s.crosses[a] = f.Crossover(fast, slow, s.owner())
	}

	return s, nil
}

func (s *SMACrossover) Current(candle types.Candle) error {
	cross, ok := s.crosses[candle.Asset]
	if !ok {
		return errors.Newf(errors.ErrCodeStrategyException, "%s is not bound to %s", s.Name(), candle.Asset)
	}

	v := cross.Value()
	if v.IsNone() || v.Unwrap() == 0 {
		return nil
	}

	held := s.side[candle.Asset]

	switch {
	case v.Unwrap() > 0 && held != types.DirectionLong:
		if held == types.DirectionShort {
			s.emit(candle, types.ActionBuy, types.DirectionShort, "fast SMA crossed above slow, cover")
		}

		s.emit(candle, types.ActionBuy, types.DirectionLong, "fast SMA crossed above slow")
		s.side[candle.Asset] = types.DirectionLong
	case v.Unwrap() < 0 && held != types.DirectionShort:
		if held == types.DirectionLong {
			s.emit(candle, types.ActionSell, types.DirectionLong, "fast SMA crossed below slow")
			delete(s.side, candle.Asset)
		}

		if s.config.AllowShort {
			s.emit(candle, types.ActionSell, types.DirectionShort, "fast SMA crossed below slow, short")
			s.side[candle.Asset] = types.DirectionShort
		}
	}

	return nil
}

// OnOrderRejected forgets an entry the broker refused.
func (s *SMACrossover) OnOrderRejected(order types.Order) {
	if order.Action.Opens(order.Direction) && s.side[order.Asset] == order.Direction {
		delete(s.side, order.Asset)
	}

	s.Logger().Info("Order rejected", zap.String("order_id", order.ID), zap.String("reason", order.Reason))
}

func (s *SMACrossover) emit(candle types.Candle, action types.Action, direction types.Direction, reason string) {
	s.AddSignal(types.NewSignal(s.Name(), candle, action, direction))
	s.Notifier().Notify(Note{Strategy: s.Name(), Asset: candle.Asset, Timestamp: candle.Timestamp, Message: reason})
}
