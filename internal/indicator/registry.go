package indicator

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Builder creates a close-based indicator for an asset from numeric parameters.
type Builder func(f *Factory, asset types.Asset, params map[string]float64, opts ...Option) (Series, error)

// IndicatorRegistry maps indicator tags to builders so strategies can select
// indicators by name from configuration.
type IndicatorRegistry interface {
	RegisterIndicator(tag string, builder Builder) error
	GetIndicator(tag string) (Builder, error)
	ListIndicators() []string
	RemoveIndicator(tag string) error
}

// IndicatorRegistryV1 manages all available indicators.
type IndicatorRegistryV1 struct {
	builders map[string]Builder
	mu       sync.RWMutex
}

// NewIndicatorRegistry creates an empty registry.
func NewIndicatorRegistry() IndicatorRegistry {
	return &IndicatorRegistryV1{builders: make(map[string]Builder)}
}

// NewDefaultIndicatorRegistry creates a registry with the built-in indicators.
func NewDefaultIndicatorRegistry() IndicatorRegistry {
	r := NewIndicatorRegistry()

	_ = r.RegisterIndicator("sma", periodBuilder(func(f *Factory, in Series, p int, opts []Option) Series { return f.SMA(in, p, opts...) }))
	_ = r.RegisterIndicator("ema", periodBuilder(func(f *Factory, in Series, p int, opts []Option) Series { return f.EMA(in, p, opts...) }))
	_ = r.RegisterIndicator("rsi", periodBuilder(func(f *Factory, in Series, p int, opts []Option) Series { return f.RSI(in, p, opts...) }))
	_ = r.RegisterIndicator("atr", func(f *Factory, asset types.Asset, params map[string]float64, opts ...Option) (Series, error) {
		period, err := intParam(params, "period")
		if err != nil {
			return nil, err
		}

		return f.ATR(f.Candles(asset), period, opts...), nil
	})
	_ = r.RegisterIndicator("bollinger", func(f *Factory, asset types.Asset, params map[string]float64, opts ...Option) (Series, error) {
		period, err := intParam(params, "period")
		if err != nil {
			return nil, err
		}

		k, ok := params["k"]
		if !ok {
			k = 2
		}

		return f.BollingerBands(f.Candles(asset).Close(), period, k, opts...), nil
	})
	_ = r.RegisterIndicator("macd", func(f *Factory, asset types.Asset, params map[string]float64, opts ...Option) (Series, error) {
		fast, err := intParam(params, "fast")
		if err != nil {
			return nil, err
		}

		slow, err := intParam(params, "slow")
		if err != nil {
			return nil, err
		}

		signal, err := intParam(params, "signal")
		if err != nil {
			return nil, err
		}

		return f.MACD(f.Candles(asset).Close(), fast, slow, signal, opts...).Line, nil
	})

	return r
}

func periodBuilder(build func(f *Factory, in Series, period int, opts []Option) Series) Builder {
	return func(f *Factory, asset types.Asset, params map[string]float64, opts ...Option) (Series, error) {
		period, err := intParam(params, "period")
		if err != nil {
			return nil, err
		}

		return build(f, f.Candles(asset).Close(), period, opts), nil
	}
}

func intParam(params map[string]float64, name string) (int, error) {
	v, ok := params[name]
	if !ok {
		return 0, errors.Newf(errors.ErrCodeMissingParameter, "indicator parameter %s is required", name)
	}

	if v < 1 || v != float64(int(v)) {
		return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "indicator parameter %s must be a positive integer, got %v", name, v)
	}

	return int(v), nil
}

// RegisterIndicator adds a builder to the registry.
func (r *IndicatorRegistryV1) RegisterIndicator(tag string, builder Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[tag]; exists {
		return errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "indicator %s already registered", tag)
	}

	r.builders[tag] = builder

	return nil
}

// GetIndicator retrieves a builder by tag.
func (r *IndicatorRegistryV1) GetIndicator(tag string) (Builder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	builder, exists := r.builders[tag]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", tag)
	}

	return builder, nil
}

// ListIndicators returns the registered tags sorted.
func (r *IndicatorRegistryV1) ListIndicators() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.builders))
	for tag := range r.builders {
		tags = append(tags, tag)
	}

	sort.Strings(tags)

	return tags
}

// RemoveIndicator removes a builder from the registry.
func (r *IndicatorRegistryV1) RemoveIndicator(tag string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.builders[tag]; !exists {
		return errors.Newf(errors.ErrCodeIndicatorNotFound, "indicator %s not found", tag)
	}

	delete(r.builders, tag)

	return nil
}
