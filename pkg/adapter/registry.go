package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Factory builds an adapter for one BMC.
type Factory func(ctx context.Context, cfg Config) (*Adapter, error)

// Registry maps vendor names to adapter factories. Names are case-insensitive.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: map[string]Factory{}}
}

// Register binds a factory to one or more names, replacing earlier bindings.
func (r *Registry) Register(f Factory, names ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		r.factories[strings.ToLower(name)] = f
	}
}

// Lookup returns the factory registered under name.
func (r *Registry) Lookup(name string) (Factory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[strings.ToLower(name)]
	if !ok {
		return nil, &Error{
			Kind:    KindNotFound,
			Op:      "lookup",
			Message: fmt.Sprintf("no adapter registered for vendor %q (known: %s)", name, strings.Join(r.names(), ", ")),
			Local:   true,
			Err:     ErrInvalidArgument,
		}
	}
	return f, nil
}

// New builds an adapter with the factory registered under name.
func (r *Registry) New(ctx context.Context, name string, cfg Config) (*Adapter, error) {
	f, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	a, err := f(ctx, cfg)
	if err != nil {
		return nil, Translate("connect", err)
	}
	return a, nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := maps.Keys(r.factories)
	slices.Sort(names)
	return names
}
