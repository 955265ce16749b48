package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory opens repositories for one backend.
type Factory interface {
	Backend() string
	Open(ctx context.Context, cfg Config) (Repository, error)
}

// FactoryFunc adapts a function to the Factory interface.
type FactoryFunc struct {
	Name   string
	OpenFn func(ctx context.Context, cfg Config) (Repository, error)
}

func (f FactoryFunc) Backend() string { return f.Name }

func (f FactoryFunc) Open(ctx context.Context, cfg Config) (Repository, error) {
	return f.OpenFn(ctx, cfg)
}

// Registry maps backend names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with the sqlite, postgres and memory
// backends.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(sqliteFactory{})
	r.Register(postgresFactory{})
	r.Register(memoryFactory{})
	return r
}

// Register adds or replaces the factory for its backend name.
func (r *Registry) Register(f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[strings.ToLower(f.Backend())] = f
}

// Backends lists the registered backend names in sorted order.
func (r *Registry) Backends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open finds the factory for cfg.Backend and opens a repository with it.
func (r *Registry) Open(ctx context.Context, cfg Config) (Repository, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	f, ok := r.factories[strings.ToLower(cfg.Backend)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownBackend, cfg.Backend, strings.Join(r.Backends(), ", "))
	}
	repo, err := f.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", f.Backend(), err)
	}
	return repo, nil
}
