// Package registry holds the methods loaded for one run and the name index
// used to resolve call sites to method identities.
package registry

import (
	"errors"
	"fmt"

	"github.com/StarCycle/GraphExtract/internal/flow"
)

var (
	// ErrDuplicateIdentity is returned when two methods share an identity.
	ErrDuplicateIdentity = errors.New("duplicate method identity")

	// ErrUnknownMethod is returned when an identity is referenced but was
	// never registered.
	ErrUnknownMethod = errors.New("unknown method")
)

// Method is one analysed method. It is immutable once registered.
type Method struct {
	ID         string
	Name       string
	ReturnID   string
	FileName   string
	LineNumber int
	Graph      *flow.Graph
}

// Registry owns the methods of a run, in registration order.
type Registry struct {
	methods map[string]*Method
	order   []string

	// Name -> []ID. Several methods may share a name (overloads, same name
	// in different files); ids keep registration order.
	nameIndex map[string][]string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		methods:   make(map[string]*Method),
		nameIndex: make(map[string][]string),
	}
}

// Register adds a method and indexes it by name.
func (r *Registry) Register(m Method) error {
	if _, ok := r.methods[m.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateIdentity, m.ID)
	}
	if m.Graph == nil {
		m.Graph = flow.NewGraph()
	}
	r.methods[m.ID] = &m
	r.order = append(r.order, m.ID)
	r.nameIndex[m.Name] = append(r.nameIndex[m.Name], m.ID)
	return nil
}

// Lookup returns the method registered under id.
func (r *Registry) Lookup(id string) (*Method, error) {
	m, ok := r.methods[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, id)
	}
	return m, nil
}

// LookupByName returns the identities of every method called name. An empty
// result means the name has no local definition and the call is external.
func (r *Registry) LookupByName(name string) []string {
	ids := r.nameIndex[name]
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Methods returns all methods in registration order.
func (r *Registry) Methods() []*Method {
	out := make([]*Method, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.methods[id])
	}
	return out
}

// Len returns the number of registered methods.
func (r *Registry) Len() int {
	return len(r.order)
}
