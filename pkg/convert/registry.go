package convert

import (
	"fmt"
	"maps"
	"reflect"
	"sync"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// ImportFunc turns a native Go value of a registered type into a Value.
type ImportFunc func(x any) (types.Value, error)

// Registry maps Go types the engine does not know natively to the function
// that imports them. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[reflect.Type]ImportFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[reflect.Type]ImportFunc)}
}

// Register associates the dynamic type of prototype with fn.
func (r *Registry) Register(prototype any, fn ImportFunc) error {
	t := reflect.TypeOf(prototype)
	if t == nil {
		return fmt.Errorf("register: nil prototype")
	}
	if fn == nil {
		return fmt.Errorf("register %s: nil import func", t)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.funcs[t]; exists {
		return fmt.Errorf("type %s is already registered", t)
	}
	r.funcs[t] = fn
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(prototype any, fn ImportFunc) {
	if err := r.Register(prototype, fn); err != nil {
		panic(err)
	}
}

// Lookup returns the import func registered for the dynamic type of x.
func (r *Registry) Lookup(x any) (ImportFunc, bool) {
	t := reflect.TypeOf(x)
	if t == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[t]
	return fn, ok
}

// IsRegistered reports whether the dynamic type of prototype is registered.
func (r *Registry) IsRegistered(prototype any) bool {
	_, ok := r.Lookup(prototype)
	return ok
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	maps.Copy(c.funcs, r.funcs)
	return c
}
