package navtree

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrUnknownReference is returned when a deferred name has no entry.
var ErrUnknownReference = errors.New("unknown deferred reference")

// Registry maps deferred child list names to their nodes.
type Registry struct {
	lists map[string][]Node
}

// NewRegistry copies lists into a new registry.
func NewRegistry(lists map[string][]Node) *Registry {
	r := &Registry{lists: make(map[string][]Node, len(lists))}
	for name, nodes := range lists {
		r.lists[name] = slices.Clone(nodes)
	}
	return r
}

// Lookup returns a copy of the list registered under name.
func (r *Registry) Lookup(name string) ([]Node, error) {
	if r != nil {
		if nodes, ok := r.lists[name]; ok {
			return slices.Clone(nodes), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownReference, name)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.lists[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.lists))
}

// Len returns the number of registered lists.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.lists)
}
