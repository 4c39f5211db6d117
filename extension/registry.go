package extension

import (
	"slices"
	"sync"

	"github.com/hupe1980/fetchmesh/core"
)

// Registry holds registered extensions in registration order. It is safe for
// concurrent use; readers receive snapshots, so a fetch in flight never sees
// a registration that happened after it started.
type Registry struct {
	mu         sync.RWMutex
	extensions []core.Extension
}

// NewRegistry creates a registry pre-populated with exts.
func NewRegistry(exts ...core.Extension) *Registry {
	r := &Registry{}
	r.Register(exts...)
	return r
}

// Register appends extensions. Nil entries are ignored.
func (r *Registry) Register(exts ...core.Extension) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range exts {
		if e == nil {
			continue
		}
		r.extensions = append(r.extensions, e)
	}
}

// Unregister removes the first extension with the given name and reports
// whether one was found.
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.extensions {
		if e.Name() == name {
			r.extensions = slices.Delete(r.extensions, i, i+1)
			return true
		}
	}
	return false
}

// Extensions returns a snapshot of all registered extensions.
func (r *Registry) Extensions() []core.Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.extensions)
}

// Select returns the registered extensions exposing hook, in order.
func (r *Registry) Select(hook core.Hook) []core.Extension {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return SelectImplementing(r.extensions, hook)
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.extensions)
}
