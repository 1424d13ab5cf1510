package dap

import (
	"encoding/json"

	"github.com/aetherall/neodap/graph"
	"github.com/aetherall/neodap/lifecycle"
)

// stacks owns stack-trace refresh for a Session: replacing a Thread's
// current Stack wholesale on every stop, while reusing Variable
// identity underneath so a client that has a variable expanded in its
// UI doesn't lose that state across a re-fetch (spec.md §4.6 "variable
// identity is preserved across re-fetch by matching name and parent,
// not by adapter-assigned id, which is only a snapshot of a moment in
// time").
type stacks struct {
	store   *graph.Store
	prop    *lifecycle.Propagator
	sources *sources
}

func newStacks(store *graph.Store, sources *sources) *stacks {
	return &stacks{store: store, prop: lifecycle.New(store), sources: sources}
}

type stackTraceResponseBody struct {
	StackFrames []StackFrameBody `json:"stackFrames"`
}

// Replace marks thread's existing Stack (if any) and its lifecycle-
// transitive descendants stale and builds a fresh one from a decoded
// stackTrace response. The prior stack is never disposed: it stays
// queryable with current=false/alive=true so a client that fetched a
// variable's history before the thread moved on can still read it
// (spec.md §4.4, §8 Scenario A: "frame0.alive=true" after the thread
// moves past it).
func (s *stacks) Replace(session, thread *graph.Entity, body json.RawMessage) (*graph.Entity, error) {
	var parsed stackTraceResponseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, malformedError("stackTrace: " + err.Error())
	}

	for _, old := range thread.Edge("stacks").Snapshot() {
		if e, ok := s.store.Entity(old); ok && e.Current().Peek() {
			s.prop.MarkStale(old)
		}
	}

	stack := s.store.Create("stack", nil)
	s.store.Link(thread, "stacks", stack)

	for _, fb := range parsed.StackFrames {
		frame := s.store.Create("frame", map[string]any{
			"name":   fb.Name,
			"line":   fb.Line,
			"column": fb.Column,
		})
		s.store.Link(stack, "frames", frame)
		if fb.Source.Path != "" || fb.Source.SourceReference != 0 || fb.Source.Name != "" {
			src := s.sources.Resolve(session, fb.Source)
			s.store.Link(frame, "source", src)
		}
	}
	return stack, nil
}

type scopesResponseBody struct {
	Scopes []ScopeBody `json:"scopes"`
}

// ReplaceScopes attaches a frame's `scopes` response as Scope
// entities, each still empty of Variables until FetchVariables is
// called against it (DAP fetches variables lazily per scope).
func (s *stacks) ReplaceScopes(frame *graph.Entity, body json.RawMessage) error {
	var parsed scopesResponseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return malformedError("scopes: " + err.Error())
	}
	for _, sb := range parsed.Scopes {
		scope := s.store.Create("scope", map[string]any{
			"name":               sb.Name,
			"variablesReference": sb.VariablesReference,
		})
		s.store.Link(frame, "scopes", scope)
	}
	return nil
}

type variablesResponseBody struct {
	Variables []VariableBody `json:"variables"`
}

// ReplaceVariables merges a `variables` response into parent's
// existing Variable children (addressed by edgeName — "variables" for
// a Scope's top-level members, "children" for a Variable's nested
// expansion): a child whose name matches an existing one is reused in
// place (identity preservation); a child whose name has no match is
// created fresh, and the no-longer-matching existing entity is marked
// current=false, not disposed, so it remains part of that name's
// queryable history (spec.md §4.6 "the old one is marked
// current=false").
func (s *stacks) ReplaceVariables(parent *graph.Entity, edgeName string, body json.RawMessage) error {
	var parsed variablesResponseBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return malformedError("variables: " + err.Error())
	}

	existingByName := make(map[string]graph.ID)
	for _, id := range parent.Edge(edgeName).Snapshot() {
		if child, ok := s.store.Entity(id); ok {
			existingByName[child.Get("name").(string)] = id
		}
	}

	seen := make(map[string]bool)
	for _, vb := range parsed.Variables {
		seen[vb.Name] = true
		if id, ok := existingByName[vb.Name]; ok {
			v, _ := s.store.Entity(id)
			v.Set("value", vb.Value)
			v.Set("type", vb.Type)
			v.Set("variablesReference", vb.VariablesReference)
			continue
		}
		v := s.store.Create("variable", map[string]any{
			"name":               vb.Name,
			"value":              vb.Value,
			"type":               vb.Type,
			"variablesReference": vb.VariablesReference,
		})
		s.store.Link(parent, edgeName, v)
	}

	for name, id := range existingByName {
		if !seen[name] {
			s.prop.MarkStale(id)
		}
	}
	return nil
}
