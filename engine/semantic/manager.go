package semantic

import (
	"context"
	"sync"
)

// Factory builds a Store for an embedding provider ID.
type Factory func(providerID string) (Store, error)

// Manager hands out one Store per embedding provider, built lazily on
// first use. Keying by provider keeps vectors from different embedding
// models out of each other's similarity space.
type Manager struct {
	factory Factory

	mu     sync.Mutex
	stores map[string]Store
}

// NewManager creates a Manager using the given factory.
func NewManager(factory Factory) *Manager {
	return &Manager{
		factory: factory,
		stores:  make(map[string]Store),
	}
}

// Get returns the Store for the provider, constructing it on first use.
func (m *Manager) Get(providerID string) (Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.stores[providerID]; ok {
		return s, nil
	}
	s, err := m.factory(providerID)
	if err != nil {
		return nil, err
	}
	m.stores[providerID] = s
	return s, nil
}

// Reset drops the store for the provider. The next Get rebuilds it
// empty.
func (m *Manager) Reset(ctx context.Context, providerID string) error {
	m.mu.Lock()
	s, ok := m.stores[providerID]
	if ok {
		delete(m.stores, providerID)
	}
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Reset(ctx)
}
