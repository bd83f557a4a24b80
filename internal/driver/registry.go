package driver

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps resource kinds to their drivers. It also serves as the
// kind catalog for static output-path validation during graph build.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Driver
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Driver)}
}

// Register adds a driver. Registering a kind twice is an error.
func (r *Registry) Register(d Driver) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.drivers[d.Kind()]; exists {
		return fmt.Errorf("driver for kind %q already registered", d.Kind())
	}
	r.drivers[d.Kind()] = d
	return nil
}

// Get returns the driver for a kind.
func (r *Registry) Get(kind string) (Driver, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.drivers[kind]
	return d, ok
}

// Kinds returns the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.drivers))
	for k := range r.drivers {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Outputs implements the graph builder's Catalog interface.
func (r *Registry) Outputs(kind string) ([]string, bool) {
	d, ok := r.Get(kind)
	if !ok {
		return nil, false
	}
	return d.Outputs(), true
}
