package provider

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps vendor identifiers to handle factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// RegisterFactory registers the factory for a vendor.
func (r *Registry) RegisterFactory(vendor string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[vendor] = factory
}

// New builds a handle for s.Vendor.
func (r *Registry) New(s Settings) (Handle, error) {
	r.mu.RLock()
	factory, ok := r.factories[s.Vendor]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown provider vendor: %q", s.Vendor)
	}
	if s.Model == "" {
		return nil, fmt.Errorf("vendor %s: model is required", s.Vendor)
	}

	h, err := factory(s)
	if err != nil {
		return nil, fmt.Errorf("create %s handle: %w", s.Vendor, err)
	}
	return h, nil
}

// Has reports whether a factory is registered for vendor.
func (r *Registry) Has(vendor string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[vendor]
	return ok
}

// Vendors returns the registered vendor identifiers, sorted.
func (r *Registry) Vendors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
