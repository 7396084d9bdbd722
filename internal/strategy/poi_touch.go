package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

type PoiTouchConfig struct {
	SwingMethod string `yaml:"swing_method" json:"swing_method" jsonschema:"enum=extrema,enum=fractal,default=extrema" validate:"oneof=extrema fractal"`
	Order       int    `yaml:"order" json:"order" jsonschema:"title=Swing order,default=2" validate:"gte=1"`
	Reference   string `yaml:"reference" json:"reference" jsonschema:"enum=body,enum=candle,default=body" validate:"oneof=body candle"`
	// TargetPct and StopPct ride on every entry signal as bracket distances.
	TargetPct  float64 `yaml:"target_pct" json:"target_pct" jsonschema:"default=0.02" validate:"gt=0,lt=1"`
	StopPct    float64 `yaml:"stop_pct" json:"stop_pct" jsonschema:"default=0.01" validate:"gt=0,lt=1"`
	AllowShort bool    `yaml:"allow_short" json:"allow_short" jsonschema:"default=true"`
}

func PoiTouchDefinition() Definition {
	return Definition{
		Tag:         "poi_touch",
		Description: "Enters when price returns to the zone left behind by a break of structure",
		Config:      PoiTouchConfig{},
		DefaultParameters: Parameters{
			"swing_method": "extrema",
			"order":        2,
			"reference":    "body",
			"target_pct":   0.02,
			"stop_pct":     0.01,
			"allow_short":  true,
		},
		ParameterSpace: map[string][]any{
			"order":      {1, 2, 3},
			"target_pct": {0.01, 0.02, 0.03},
			"stop_pct":   {0.005, 0.01},
		},
		New: NewPoiTouch,
	}
}

// PoiTouch buys a touch of a demand zone and sells a touch of a supply zone. Exits
// are left to the bracket legs built from the signal percentages.
type PoiTouch struct {
	Base
	config PoiTouchConfig
	pois   map[types.Asset]*indicator.PoiTouch
}

var _ SingleAssetStrategy = (*PoiTouch)(nil)

func NewPoiTouch(name string, assets []types.Asset, params Parameters, env Environment) (Strategy, error) {
	var config PoiTouchConfig
	if err := params.Decode(&config); err != nil {
		return nil, err
	}

	p := &PoiTouch{
		Base:   NewBase(name, assets, env),
		config: config,
		pois:   make(map[types.Asset]*indicator.PoiTouch, len(assets)),
	}

	f := p.Indicators()
	for _, a := range assets {
		swings := f.Swings(f.Candles(a), indicator.SwingMethod(config.SwingMethod), config.Order, p.owner())
		bos := f.BOS(swings, indicator.ReferenceMode(config.Reference), p.owner())
		p.pois[a] = f.PoiTouch(bos, p.owner())
	}

	return p, nil
}

func (p *PoiTouch) Current(candle types.Candle) error {
	poi, ok := p.pois[candle.Asset]
	if !ok {
		return errors.Newf(errors.ErrCodeStrategyException, "%s is not bound to %s", p.Name(), candle.Asset)
	}

	v := poi.Value()
	if v.IsNone() {
		return nil
	}

	var action types.Action

	var direction types.Direction

	switch {
	case v.Unwrap() > 0:
		action, direction = types.ActionBuy, types.DirectionLong
	case v.Unwrap() < 0 && p.config.AllowShort:
		action, direction = types.ActionSell, types.DirectionShort
	default:
		return nil
	}

	signal := types.NewSignal(p.Name(), candle, action, direction)
	signal.TargetPct = optional.Some(p.config.TargetPct)
	signal.StopPct = optional.Some(p.config.StopPct)
	p.AddSignal(signal)

	touches := poi.Touches()
	zone := touches[len(touches)-1].Zone
	p.Notifier().Notify(Note{
		Strategy:  p.Name(),
		Asset:     candle.Asset,
		Timestamp: candle.Timestamp,
		Message:   fmt.Sprintf("touched zone %d [%.4f, %.4f]", zone.ID, zone.Low, zone.High),
	})

	return nil
}
