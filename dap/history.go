package dap

import "github.com/aetherall/neodap/graph"

// VariableSnapshot is one historical sighting of a named variable,
// returned by Session.GetVariableHistory (spec.md §4.6, §8 Scenario B:
// "session.getVariableHistory('counter') returns >=3 entries; the only
// one with is_current=true is the latest").
type VariableSnapshot struct {
	Entity    *graph.Entity
	IsCurrent bool
}

// GetVariableHistory returns every Variable entity named name across
// every Thread/Stack/Frame/Scope the session has ever fetched, oldest
// first. Stack.Replace only marks a superseded Stack stale, never
// disposes it (dap/stack.go), so past stops stay walkable here; at
// most one result has IsCurrent true — the one reachable entirely
// through current=true ancestors.
func (s *Session) GetVariableHistory(name string) []VariableSnapshot {
	store := s.debugger.store
	var out []VariableSnapshot

	var walkVariables func(edge *graph.Collection, ancestorsCurrent bool)
	walkVariables = func(edge *graph.Collection, ancestorsCurrent bool) {
		for _, id := range edge.Snapshot() {
			v, ok := store.Entity(id)
			if !ok {
				continue
			}
			current := ancestorsCurrent && v.Current().Peek()
			if v.Get("name") == name {
				out = append(out, VariableSnapshot{Entity: v, IsCurrent: current})
			}
			walkVariables(v.Edge("children"), current)
		}
	}

	for _, threadID := range s.entity.Edge("threads").Snapshot() {
		thread, ok := store.Entity(threadID)
		if !ok {
			continue
		}
		for _, stackID := range thread.Edge("stacks").Snapshot() {
			stack, ok := store.Entity(stackID)
			if !ok {
				continue
			}
			stackCurrent := stack.Current().Peek()
			for _, frameID := range stack.Edge("frames").Snapshot() {
				frame, ok := store.Entity(frameID)
				if !ok {
					continue
				}
				frameCurrent := stackCurrent && frame.Current().Peek()
				for _, scopeID := range frame.Edge("scopes").Snapshot() {
					scope, ok := store.Entity(scopeID)
					if !ok {
						continue
					}
					walkVariables(scope.Edge("variables"), frameCurrent && scope.Current().Peek())
				}
			}
		}
	}
	return out
}
