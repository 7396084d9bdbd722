package broker

import (
	"context"
	"strings"

	"github.com/rxtech-lab/argo-quant/internal/types"
	"github.com/rxtech-lab/argo-quant/pkg/errors"
)

// Manager routes by exchange name. Names are case-insensitive.
type Manager struct {
	brokers map[string]Broker
	names   []string
}

func NewManager() *Manager {
	return &Manager{brokers: make(map[string]Broker)}
}

// Register adds a broker under its Name.
func (m *Manager) Register(b Broker) error {
	name := strings.ToUpper(b.Name())
	if _, exists := m.brokers[name]; exists {
		return errors.Newf(errors.ErrCodeBrokerAlreadyExists, "broker %s already registered", name)
	}

	m.brokers[name] = b
	m.names = append(m.names, name)

	return nil
}

// Get returns the broker of an exchange.
func (m *Manager) Get(exchange string) (Broker, error) {
	b, ok := m.brokers[strings.ToUpper(exchange)]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeBrokerNotFound, "no broker for exchange %s", exchange)
	}

	return b, nil
}

// MustGet is Get for exchanges validated at startup. It panics on unknown names.
func (m *Manager) MustGet(exchange string) Broker {
	b, err := m.Get(exchange)
	if err != nil {
		panic(err)
	}

	return b
}

// ForAsset returns the broker trading asset.
func (m *Manager) ForAsset(asset types.Asset) (Broker, error) {
	return m.Get(asset.Exchange)
}

// All returns the brokers in registration order.
func (m *Manager) All() []Broker {
	out := make([]Broker, 0, len(m.names))
	for _, name := range m.names {
		out = append(out, m.brokers[name])
	}

	return out
}

// Close closes every broker and returns the first error.
func (m *Manager) Close(ctx context.Context) error {
	var first error

	for _, b := range m.All() {
		if err := b.Close(ctx); err != nil && first == nil {
			first = err
		}
	}

	return first
}
