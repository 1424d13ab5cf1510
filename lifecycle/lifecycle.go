// Package lifecycle implements the current/alive propagation rules of
// spec.md §4.4 on top of the graph package: marking an entity stale
// cascades along strong and lifecycle edges, and disposing it walks
// strong edges only, tearing down strict descendants before the
// entity itself so a parent is never observed alive while its strong
// children are not.
//
// The walk itself is grounded on the teacher's scope.go Dispose: visit
// every reachable entry, recurse into children first, then release
// the entry, with a visited set standing in for the teacher's
// cleanupRegistry traversal guard (here needed because the entity
// graph, unlike the teacher's strictly descending executor graph, can
// have multiple owners feeding strong edges into the same entity
// through different paths in principle, even though spec.md's
// ownership table assigns exactly one strong parent per entity type).
package lifecycle

import "github.com/aetherall/neodap/graph"

// Propagator applies staleness and disposal propagation against a
// Store. It holds no state of its own; every method is a pure graph
// walk driven by the Store's current edges.
type Propagator struct {
	store *graph.Store
}

// New creates a Propagator bound to store.
func New(store *graph.Store) *Propagator {
	return &Propagator{store: store}
}

// MarkStale transitions id's current signal to false, then cascades
// along strong and lifecycle edges (spec.md §4.4: "when a Thread's
// current stack is replaced, the prior stack and its lifecycle-
// transitive descendants transition to current=false"). The walk is
// iterative and visited-guarded so a re-entrant edge shape can't loop.
func (p *Propagator) MarkStale(id graph.ID) {
	visited := make(map[graph.ID]bool)
	stack := []graph.ID{id}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		e, ok := p.store.Entity(cur)
		if !ok {
			continue
		}
		e.Current().Set(false)

		stack = append(stack, p.store.PropagatingTargets(e)...)
	}
}

// Dispose tears id down: every entity reachable through strong edges
// is disposed first, in post-order (deepest descendants torn down
// before their strong parent), so no parent is ever observed
// alive=true while a strong child is alive=false (spec.md §4.4
// ordering invariants). Staleness is cascaded over the same reachable
// set before any teardown happens, so observers see the terminal
// current=false state at least once before the entities disappear.
func (p *Propagator) Dispose(id graph.ID) {
	order := p.postOrder(id)

	for _, cur := range order {
		if e, ok := p.store.Entity(cur); ok {
			e.Current().Set(false)
		}
	}

	for _, cur := range order {
		p.store.Teardown(cur)
	}
}

// postOrder returns every entity reachable from id via strong edges,
// deepest-first, with id itself last.
func (p *Propagator) postOrder(id graph.ID) []graph.ID {
	var order []graph.ID
	visited := make(map[graph.ID]bool)

	var visit func(cur graph.ID)
	visit = func(cur graph.ID) {
		if visited[cur] {
			return
		}
		visited[cur] = true

		e, ok := p.store.Entity(cur)
		if !ok {
			return
		}
		for _, child := range p.store.StrongTargets(e) {
			visit(child)
		}
		order = append(order, cur)
	}
	visit(id)
	return order
}
