package indicator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-quant/internal/types"
)

// Mode selects how indicators are computed.
type Mode string

const (
	// ModeLive recomputes each node incrementally when its inputs push.
	ModeLive Mode = "LIVE"
	// ModeBatch precomputes supported indicators over the pre-loaded history.
	ModeBatch Mode = "BATCH"
)

// DefaultSize is the history window of nodes created without WithSize.
const DefaultSize = 256

// HistoryProvider exposes the pre-loaded candles of an asset for batch mode.
type HistoryProvider interface {
	History(asset types.Asset) []types.Candle
}

// Option configures a single node request.
type Option func(*nodeOptions)

type nodeOptions struct {
	owner   string
	size    int
	memoize bool
}

// WithOwner scopes memoization to an owner such as a strategy name.
func WithOwner(owner string) Option {
	return func(o *nodeOptions) { o.owner = owner }
}

// WithSize sets the history window of the node.
func WithSize(size int) Option {
	return func(o *nodeOptions) { o.size = size }
}

// WithMemoize toggles sharing. With false the factory always builds a fresh node.
func WithMemoize(memoize bool) Option {
	return func(o *nodeOptions) { o.memoize = memoize }
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithMode sets the indicator mode. Batch mode needs a history provider.
func WithMode(mode Mode, history HistoryProvider) FactoryOption {
	return func(f *Factory) {
		f.mode = mode
		f.history = history
	}
}

// WithDefaultSize overrides DefaultSize for the factory.
func WithDefaultSize(size int) FactoryOption {
	return func(f *Factory) { f.defaultSize = size }
}

// Factory builds indicator nodes and hash-conses them by structural key:
// (class, owner, positional input keys, named arguments). Inputs are compared by
// key, so two value-equal requests share one node even if built from different
// call sites.
type Factory struct {
	nodes       map[string]Series
	sources     map[types.Asset]*CandleSource
	order       []types.Asset
	mode        Mode
	history     HistoryProvider
	defaultSize int
}

// NewFactory creates an empty live-mode factory.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		nodes:       make(map[string]Series),
		sources:     make(map[types.Asset]*CandleSource),
		mode:        ModeLive,
		defaultSize: DefaultSize,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Mode returns the factory mode.
func (f *Factory) Mode() Mode {
	return f.mode
}

// Candles returns the root node of an asset, creating it on first use.
func (f *Factory) Candles(asset types.Asset) *CandleSource {
	if src, ok := f.sources[asset]; ok {
		return src
	}

	src := newCandleSource(asset, f.defaultSize)
	f.sources[asset] = src
	f.order = append(f.order, asset)

	return src
}

// OnCandle pushes a promoted candle into the asset's graph. Assets nobody asked for are ignored.
func (f *Factory) OnCandle(candle types.Candle) {
	if src, ok := f.sources[candle.Asset]; ok {
		src.PushCandle(candle)
	}
}

// Len returns the number of memoized nodes.
func (f *Factory) Len() int {
	return len(f.nodes)
}

// Args are the named constructor arguments of a node.
type Args map[string]any

func (a Args) key() string {
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}

	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%v", name, a[name]))
	}

	return strings.Join(parts, ",")
}

// nodeKey builds the hash-consing key.
func nodeKey(class, owner string, inputs []Series, args Args) string {
	inputKeys := make([]string, 0, len(inputs))
	for _, in := range inputs {
		inputKeys = append(inputKeys, in.Key())
	}

	return fmt.Sprintf("%s(%s|%s|%s)", class, owner, strings.Join(inputKeys, ";"), args.key())
}

// memo returns the node for the key, building it when missing or when memoization is off.
func memo[T Series](f *Factory, class string, inputs []Series, args Args, opts []Option, build func(key string, size int) T) T {
	o := nodeOptions{size: f.defaultSize, memoize: true}
	for _, opt := range opts {
		opt(&o)
	}

	args = withSize(args, o.size)
	key := nodeKey(class, o.owner, inputs, args)

	if !o.memoize {
		return build(key+"#"+uuid.New().String(), o.size)
	}

	if existing, ok := f.nodes[key]; ok {
		if typed, ok := existing.(T); ok {
			return typed
		}
	}

	n := build(key, o.size)
	f.nodes[key] = n

	return n
}

func withSize(args Args, size int) Args {
	out := make(Args, len(args)+1)
	for k, v := range args {
		out[k] = v
	}

	out["size"] = size

	return out
}
