package strategy

import (
	"slices"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
	pkgstrategy "github.com/rxtech-lab/argo-quant/pkg/strategy"
)

// Factory builds a strategy from merged parameters.
type Factory func(name string, assets []types.Asset, params Parameters, env Environment) (Strategy, error)

// Definition describes a strategy that can be selected by tag.
type Definition struct {
	Tag         string
	Description string
	// Config is a zero value of the parameter struct, used for the JSON schema.
	Config            any
	DefaultParameters Parameters
	// ParameterSpace lists candidate values per parameter for optimisation drivers.
	ParameterSpace map[string][]any
	New            Factory
}

// Schema returns the JSON schema of the strategy parameters.
func (d Definition) Schema() (string, error) {
	if d.Config == nil {
		return "{}", nil
	}

	return pkgstrategy.ToJSONSchema(d.Config)
}

// Registry holds strategy definitions by tag.
type Registry struct {
	definitions map[string]Definition
}

func NewRegistry() *Registry {
	return &Registry{definitions: make(map[string]Definition)}
}

// NewDefaultRegistry returns a registry with the bundled strategies.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	for _, d := range []Definition{SMACrossoverDefinition(), ArbitrageDefinition(), PoiTouchDefinition()} {
		// tags are unique
		_ = r.Register(d)
	}

	return r
}

func (r *Registry) Register(d Definition) error {
	if d.Tag == "" || d.New == nil {
		return errors.New(errors.ErrCodeStrategyConfigError, "strategy definition needs a tag and a factory")
	}

	if _, exists := r.definitions[d.Tag]; exists {
		return errors.Newf(errors.ErrCodeStrategyAlreadyExists, "strategy %s already registered", d.Tag)
	}

	r.definitions[d.Tag] = d

	return nil
}

func (r *Registry) Get(tag string) (Definition, error) {
	d, ok := r.definitions[tag]
	if !ok {
		return Definition{}, errors.Newf(errors.ErrCodeStrategyNotFound, "strategy %s not found", tag)
	}

	return d, nil
}

// List returns the registered tags in sorted order.
func (r *Registry) List() []string {
	tags := make([]string, 0, len(r.definitions))
	for tag := range r.definitions {
		tags = append(tags, tag)
	}

	slices.Sort(tags)

	return tags
}

// Build creates the strategy tagged tag. Missing parameters take the definition defaults.
func (r *Registry) Build(tag, name string, assets []types.Asset, params Parameters, env Environment) (Strategy, error) {
	d, err := r.Get(tag)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = tag
	}

	if len(assets) == 0 {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "strategy %s has no assets", name)
	}

	return d.New(name, assets, params.Merge(d.DefaultParameters), env)
}
