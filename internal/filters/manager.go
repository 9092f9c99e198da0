// Package filters is the catalog of fixed-kernel filters offered to the user
// and the registry that resolves them by name.
package filters

import (
	"errors"
	"fmt"
	"sync"

	"snapfilter/internal/pixel"
)

var ErrUnknownFilter = errors.New("unknown filter")

type Manager struct {
	filters map[string]Filter
	order   []string
	mu      sync.RWMutex
}

func NewManager() *Manager {
	manager := &Manager{
		filters: make(map[string]Filter),
	}

	manager.registerFilters()
	return manager
}

// Catalog order matches the toolbar.
func (m *Manager) registerFilters() {
	m.register(NewSobel())
	m.register(NewGrayscale())
	m.register(NewBrightness())
	m.register(NewGaussian())
	m.register(NewSharpen())
}

func (m *Manager) register(f Filter) {
	if _, exists := m.filters[f.Name()]; !exists {
		m.order = append(m.order, f.Name())
	}
	m.filters[f.Name()] = f
}

func (m *Manager) Get(name string) (Filter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if f, exists := m.filters[name]; exists {
		return f, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
}

func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, len(m.order))
	copy(names, m.order)
	return names
}

func (m *Manager) Apply(name string, src *pixel.Buffer) (*pixel.Buffer, error) {
	f, err := m.Get(name)
	if err != nil {
		return nil, err
	}

	if src == nil {
		return nil, fmt.Errorf("filter %s: nil source buffer", name)
	}

	return f.Apply(src), nil
}
