package sessionpool

import (
	"context"
	"fmt"
	"sync"
)

// Registry maps names to running pools so that application code can
// address a pool without threading the handle around. The registry is a
// plain mutexed map layered on top of the pool; the pool itself knows
// nothing about names.
type Registry struct {
	mu    sync.Mutex
	pools map[string]*Pool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{pools: make(map[string]*Pool)}
}

// Start creates a pool from config and registers it under name. It is an
// error to reuse a name before stopping the previous holder.
func (r *Registry) Start(ctx context.Context, name string, config *Config) (*Pool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, dup := r.pools[name]; dup {
		return nil, fmt.Errorf("pool %q already started", name)
	}

	pool, err := NewWithConfig(ctx, config)
	if err != nil {
		return nil, err
	}
	r.pools[name] = pool
	return pool, nil
}

// Lookup returns the pool registered under name.
func (r *Registry) Lookup(name string) (*Pool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pool, ok := r.pools[name]
	return pool, ok
}

// Stop closes the pool registered under name and removes it from the
// registry.
func (r *Registry) Stop(name string) error {
	r.mu.Lock()
	pool, ok := r.pools[name]
	delete(r.pools, name)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("pool %q not started", name)
	}
	pool.Close()
	return nil
}

// StopAll closes every registered pool and empties the registry.
func (r *Registry) StopAll() {
	r.mu.Lock()
	pools := r.pools
	r.pools = make(map[string]*Pool)
	r.mu.Unlock()

	for _, pool := range pools {
		pool.Close()
	}
}

var defaultRegistry = NewRegistry()

// Start registers a named pool in the package-level registry.
func Start(ctx context.Context, name string, config *Config) (*Pool, error) {
	return defaultRegistry.Start(ctx, name, config)
}

// Lookup returns a pool from the package-level registry.
func Lookup(name string) (*Pool, bool) {
	return defaultRegistry.Lookup(name)
}

// Stop closes a pool in the package-level registry.
func Stop(name string) error {
	return defaultRegistry.Stop(name)
}
