package strategy

import (
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-quant/internal/indicator"
	"github.com/rxtech-lab/argo-quant/internal/logger"
	"github.com/rxtech-lab/argo-quant/internal/marketcontext"
	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Strategy is bound to a set of assets and emits signals the engine drains after
// every run.
type Strategy interface {
	Name() string
	Assets() []types.Asset
	// Signals returns and clears the emissions collected since the last call.
	Signals() []types.Emission
}

// SingleAssetStrategy is called once per promoted candle of each bound asset.
type SingleAssetStrategy interface {
	Strategy
	Current(candle types.Candle) error
}

// MultiAssetStrategy is called once per tick with the promoted candles of its assets.
type MultiAssetStrategy interface {
	Strategy
	CurrentAll(candles []types.Candle) error
}

// OrderListener is implemented by strategies that want to hear about rejected orders.
type OrderListener interface {
	OnOrderRejected(order types.Order)
}

// EmissionListener is implemented by strategies that track what became of their emissions.
// OnEmissionProcessed is called in the tick the emission was drained, with the orders it
// produced. No orders means the emission was dropped or failed.
type EmissionListener interface {
	OnEmissionProcessed(emission types.Emission, orders []types.Order)
}

// Environment is what the engine hands to a strategy at construction.
type Environment struct {
	Context    *marketcontext.Context
	Indicators *indicator.Factory
	Notifier   Notifier
	Logger     *logger.Logger
}

// Parameters are the raw strategy settings from the run configuration.
type Parameters map[string]any

// Merge returns defaults overridden by p.
func (p Parameters) Merge(defaults Parameters) Parameters {
	out := make(Parameters, len(defaults)+len(p))
	for k, v := range defaults {
		out[k] = v
	}

	for k, v := range p {
		out[k] = v
	}

	return out
}

// Decode fills out, a pointer to a struct with yaml tags, and validates it.
func (p Parameters) Decode(out any) error {
	raw, err := yaml.Marshal(map[string]any(p))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to encode strategy parameters", err)
	}

	if err := yaml.Unmarshal(raw, out); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "failed to decode strategy parameters", err)
	}

	if err := validator.New().Struct(out); err != nil {
		return errors.Wrap(errors.ErrCodeStrategyConfigError, "invalid strategy parameters", err)
	}

	return nil
}

// Base carries what every strategy needs. Embed it and call AddSignal from Current.
type Base struct {
	name    string
	assets  []types.Asset
	env     Environment
	pending []types.Emission
}

func NewBase(name string, assets []types.Asset, env Environment) Base {
	if env.Notifier == nil {
		env.Notifier = NopNotifier{}
	}

	if env.Indicators == nil {
		env.Indicators = indicator.NewFactory()
	}

	env.Logger = env.Logger.Named("strategy." + name)

	return Base{name: name, assets: assets, env: env}
}

func (b *Base) Name() string {
	return b.name
}

func (b *Base) Assets() []types.Asset {
	return b.assets
}

func (b *Base) Context() *marketcontext.Context {
	return b.env.Context
}

func (b *Base) Indicators() *indicator.Factory {
	return b.env.Indicators
}

func (b *Base) Notifier() Notifier {
	return b.env.Notifier
}

func (b *Base) Logger() *logger.Logger {
	return b.env.Logger
}

// AddSignal queues a signal. The strategy name is filled in when missing.
func (b *Base) AddSignal(signal types.Signal) {
	if signal.StrategyName == "" {
		signal.StrategyName = b.name
	}

	b.pending = append(b.pending, signal)
}

// AddPairSignal queues two legs that must be submitted in the same tick.
func (b *Base) AddPairSignal(pair types.ArbitragePairSignal) {
	for _, leg := range []*types.Signal{&pair.Buy, &pair.Sell} {
		if leg.StrategyName == "" {
			leg.StrategyName = b.name
		}
	}

	b.pending = append(b.pending, pair)
}

func (b *Base) Signals() []types.Emission {
	out := b.pending
	b.pending = nil

	return out
}

// owner scopes indicator nodes to this strategy.
func (b *Base) owner() indicator.Option {
	return indicator.WithOwner(b.name)
}
