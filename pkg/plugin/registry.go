package plugin

import (
	"fmt"
	"sort"
	"sync"

	"github.com/user/framehost/pkg/ports"
)

// Factory creates a fresh plugin instance. Each stream gets its own.
type Factory func() ports.Plugin

// Registry maps plugin names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default is the registry built-in plugins add themselves to.
var Default = NewRegistry()

// Register adds a factory under name. Registering a name twice panics.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		panic(fmt.Sprintf("plugin %q registered twice", name))
	}
	r.factories[name] = f
}

// Factory returns the factory registered under name.
func (r *Registry) Factory(name string) (Factory, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
	}
	return f, nil
}

// New creates a plugin instance by name.
func (r *Registry) New(name string) (ports.Plugin, error) {
	f, err := r.Factory(name)
	if err != nil {
		return nil, err
	}
	return f(), nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds a factory to the Default registry.
func Register(name string, f Factory) {
	Default.Register(name, f)
}
