package graph

import (
	"sync"

	"github.com/aetherall/neodap/reactive"
)

// ID identifies an entity, stable across mutations (spec.md §3).
type ID string

// Entity is a typed record: a bag of Signal-wrapped fields plus a set
// of declared edges, with a current/alive lifecycle pair (spec.md
// §3). Field values are untyped at this layer — the dap package wraps
// session entities in a typed Session accessor, the same way the
// teacher's Controller[T] wraps an untyped cache slot with a typed
// Get/Update surface; its other entities are used as *Entity directly.
type Entity struct {
	mu      sync.RWMutex
	id      ID
	typ     string
	store   *Store
	scope   *reactive.Scope
	fields  map[string]*reactive.Signal[any]
	edges   map[string]*Collection
	current *reactive.Signal[bool]
	alive   *reactive.Signal[bool]
}

// ID returns the entity's stable identifier.
func (e *Entity) ID() ID { return e.id }

// Type returns the entity's declared type name.
func (e *Entity) Type() string { return e.typ }

// Scope returns the entity's own disposable scope: effects and
// cleanups registered here are torn down when the entity is disposed.
func (e *Entity) Scope() *reactive.Scope { return e.scope }

// Current is the `current` lifecycle Signal (spec.md §3, §4.4).
func (e *Entity) Current() *reactive.Signal[bool] { return e.current }

// Alive is the `alive` lifecycle Signal (spec.md §3, §4.4).
func (e *Entity) Alive() *reactive.Signal[bool] { return e.alive }

// Field returns the Signal for a declared field, creating it
// (initialized to nil) on first access so field order at Create time
// doesn't matter.
func (e *Entity) Field(name string) *reactive.Signal[any] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sig, ok := e.fields[name]; ok {
		return sig
	}
	sig := reactive.NewSignal[any](nil)
	e.fields[name] = sig
	return sig
}

// Get is shorthand for Field(name).Get().
func (e *Entity) Get(name string) any { return e.Field(name).Get() }

// Set is shorthand for Field(name).Set(v).
func (e *Entity) Set(name string, v any) { e.Field(name).Set(v) }

// Edge returns the Collection backing a declared edge, creating it on
// first access. Cardinality is enforced by Store.Link, not here.
func (e *Entity) Edge(name string) *Collection {
	e.mu.Lock()
	defer e.mu.Unlock()
	if col, ok := e.edges[name]; ok {
		return col
	}
	col := newCollection(e.store, e.scope)
	e.edges[name] = col
	return col
}

// EdgeNames returns the names of every edge touched so far (declared
// edges are materialized lazily; an edge with zero members that was
// never linked into is absent from this list, matching the teacher's
// lazy-cache-entry style where nothing is allocated until first use).
func (e *Entity) EdgeNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.edges))
	for name := range e.edges {
		names = append(names, name)
	}
	return names
}

// One returns the single target of a One-cardinality edge, or ("",
// false) if unset.
func (e *Entity) One(name string) (ID, bool) {
	members := e.Edge(name).Snapshot()
	if len(members) == 0 {
		return "", false
	}
	return members[0], true
}
