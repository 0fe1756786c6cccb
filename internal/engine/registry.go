package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Unit is one transformation a pipeline step can invoke.
//
// Apply receives the shared DataSet and the step's parameters. It returns
// only an error: every effect must happen by mutating data or its entries.
type Unit interface {
	Apply(ctx context.Context, data *DataSet, params Params) error
}

// UnitFunc adapts a function to the Unit interface.
type UnitFunc func(ctx context.Context, data *DataSet, params Params) error

// Apply calls f(ctx, data, params).
func (f UnitFunc) Apply(ctx context.Context, data *DataSet, params Params) error {
	return f(ctx, data, params)
}

// Registry maps dotted references to units.
//
// A reference "<container>.<leaf>" is split at its last dot: units are
// grouped by container so a lookup can tell a missing container from a
// missing unit.
//
// Thread-safety: safe for concurrent use. Registration normally happens
// once at startup; resolution may then happen from any goroutine.
type Registry struct {
	mu         sync.RWMutex
	containers map[string]map[string]Unit
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{containers: make(map[string]map[string]Unit)}
}

// SplitRef splits a reference into its container path and leaf name.
func SplitRef(ref string) (container, leaf string, err error) {
	i := strings.LastIndex(ref, ".")
	if i <= 0 || i == len(ref)-1 || strings.ContainsAny(ref, " \t\n") {
		return "", "", fmt.Errorf("malformed reference %q: want <namespace-path>.<unit-name>", ref)
	}
	container, leaf = ref[:i], ref[i+1:]
	for _, seg := range strings.Split(container, ".") {
		if seg == "" {
			return "", "", fmt.Errorf("malformed reference %q: empty path segment", ref)
		}
	}
	return container, leaf, nil
}

// Register adds u under ref. Registering the same reference twice is an
// error.
func (r *Registry) Register(ref string, u Unit) error {
	if u == nil {
		return fmt.Errorf("register %q: nil unit", ref)
	}
	container, leaf, err := SplitRef(ref)
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	units, ok := r.containers[container]
	if !ok {
		units = make(map[string]Unit)
		r.containers[container] = units
	}
	if _, dup := units[leaf]; dup {
		return fmt.Errorf("register %q: already registered", ref)
	}
	units[leaf] = u
	return nil
}

// MustRegister is like Register but panics on error.
// Use only for startup registration of built-in units.
func (r *Registry) MustRegister(ref string, u Unit) {
	if err := r.Register(ref, u); err != nil {
		panic(err)
	}
}

// Resolve returns the unit registered under ref, or a *ResolutionError.
func (r *Registry) Resolve(ref string) (Unit, error) {
	return r.resolve(ref, -1)
}

func (r *Registry) resolve(ref string, index int) (Unit, error) {
	container, leaf, err := SplitRef(ref)
	if err != nil {
		return nil, &ResolutionError{Code: ErrCodeMalformedReference, Ref: ref, Index: index}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	units, ok := r.containers[container]
	if !ok {
		return nil, &ResolutionError{Code: ErrCodeContainerNotFound, Ref: ref, Index: index}
	}
	u, ok := units[leaf]
	if !ok {
		return nil, &ResolutionError{Code: ErrCodeUnitNotFound, Ref: ref, Index: index}
	}
	return u, nil
}

// Refs returns every registered reference in sorted order.
func (r *Registry) Refs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var refs []string
	for container, units := range r.containers {
		for leaf := range units {
			refs = append(refs, container+"."+leaf)
		}
	}
	sort.Strings(refs)
	return refs
}
