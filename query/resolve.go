package query

import (
	"errors"
	"fmt"

	"github.com/aetherall/neodap/graph"
)

// ErrAmbiguous is returned by QueryOne when a query resolves to more
// than one entity (spec.md §4.5 "query_one requires exactly one").
var ErrAmbiguous = errors.New("query: expected exactly one result, got more than one")

// ErrEmpty is returned by QueryOne when a query resolves to zero
// entities.
var ErrEmpty = errors.New("query: expected exactly one result, got none")

// Resolver walks URLs against a Store starting from a root entity
// (the Debugger singleton) or an anchor-resolved focus entity.
type Resolver struct {
	store *graph.Store
	root  *graph.Entity
}

// NewResolver creates a Resolver rooted at root (the Debugger entity).
func NewResolver(store *graph.Store, root *graph.Entity) *Resolver {
	return &Resolver{store: store, root: root}
}

// Resolve walks u against the graph, returning every entity the path
// resolves to (spec.md §4.5: "a query may resolve to zero, one, or
// many entities"). focus resolves an anchor name to a starting entity;
// pass nil if u has no anchor.
func (r *Resolver) Resolve(u *URL, focus func(name string) (*graph.Entity, bool)) ([]*graph.Entity, error) {
	start := r.root
	if u.Anchor != "" {
		if focus == nil {
			return nil, fmt.Errorf("query: anchor @%s used but no focus resolver provided", u.Anchor)
		}
		e, ok := focus(u.Anchor)
		if !ok {
			return nil, fmt.Errorf("query: anchor @%s did not resolve", u.Anchor)
		}
		start = e
	}
	if start == nil {
		return nil, errors.New("query: no root entity to resolve from")
	}

	current := []*graph.Entity{start}
	for _, seg := range u.Segments {
		next, err := r.step(current, seg)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

// step walks one segment across every entity in current, applying the
// segment's filter and selector to the combined result.
func (r *Resolver) step(current []*graph.Entity, seg Segment) ([]*graph.Entity, error) {
	var members []graph.ID
	for _, e := range current {
		col := e.Edge(seg.Type)
		members = append(members, r.filterMembers(col, seg)...)
	}

	out := make([]*graph.Entity, 0, len(members))
	for _, id := range members {
		if e, ok := r.store.Entity(id); ok {
			out = append(out, e)
		}
	}

	return applySelector(out, seg.Selector), nil
}

// filterMembers applies seg's filters to col's current snapshot,
// preferring a declared index for a single eq filter (spec.md §4.5:
// "prefers a matching declared index").
func (r *Resolver) filterMembers(col *graph.Collection, seg Segment) []graph.ID {
	if len(seg.Filters) == 1 && seg.Filters[0].Op == OpEq {
		f := seg.Filters[0]
		if idx, ok := col.Index(f.Field); ok {
			return idx.Bucket(f.Value)
		}
	}

	members := col.Snapshot()
	if len(seg.Filters) == 0 {
		return members
	}

	out := make([]graph.ID, 0, len(members))
	for _, id := range members {
		e, ok := r.store.Entity(id)
		if !ok {
			continue
		}
		if matchesAll(e, seg.Filters) {
			out = append(out, id)
		}
	}
	return out
}

func matchesAll(e *graph.Entity, filters []Filter) bool {
	for _, f := range filters {
		if !match(e.Get(f.Field), f) {
			return false
		}
	}
	return true
}

func applySelector(entities []*graph.Entity, sel *Selector) []*graph.Entity {
	if sel == nil {
		return entities
	}
	if len(entities) == 0 {
		return nil
	}
	switch {
	case sel.First:
		return entities[:1]
	case sel.Last:
		return entities[len(entities)-1:]
	case sel.Index != nil:
		i := *sel.Index
		if i < 0 || i >= len(entities) {
			return nil
		}
		return entities[i : i+1]
	default:
		return entities
	}
}

// QueryMany parses and resolves raw, returning every matching entity.
func (r *Resolver) QueryMany(raw string, focus func(name string) (*graph.Entity, bool)) ([]*graph.Entity, error) {
	u, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return r.Resolve(u, focus)
}

// QueryOne parses and resolves raw, requiring exactly one result
// (spec.md §4.5 "query_one requires exactly one").
func (r *Resolver) QueryOne(raw string, focus func(name string) (*graph.Entity, bool)) (*graph.Entity, error) {
	entities, err := r.QueryMany(raw, focus)
	if err != nil {
		return nil, err
	}
	if len(entities) == 0 {
		return nil, ErrEmpty
	}
	if len(entities) > 1 {
		return nil, ErrAmbiguous
	}
	return entities[0], nil
}
