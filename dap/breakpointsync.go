package dap

import (
	"encoding/json"

	"github.com/aetherall/neodap/graph"
)

// BreakpointSpec is one line/column/condition a caller wants a
// breakpoint declared at, the input to Session.SetBreakpoints.
type BreakpointSpec struct {
	Line      int
	Column    int
	Condition string
}

// SetBreakpoints declares (or reuses) the process-wide Breakpoint
// entities for src at specs, then issues the outbound setBreakpoints
// request for this session and binds the adapter's response — the
// half of spec.md §4.6's breakpoint protocol that was missing: "the
// session drives setBreakpoints per Source, on start and on every
// breakpoint-set change", not just processes responses as if they'd
// already arrived.
func (s *Session) SetBreakpoints(src *graph.Entity, specs []BreakpointSpec) ([]*graph.Entity, error) {
	bp := s.debugger.breakpoints
	targets := make([]*graph.Entity, len(specs))
	for i, spec := range specs {
		targets[i] = bp.findOrDeclare(src, spec.Line, spec.Column, spec.Condition)
	}
	if err := s.syncBreakpoints(src, targets); err != nil {
		return nil, err
	}
	return targets, nil
}

// syncBreakpoints sends targets as a setBreakpoints request scoped to
// src and binds the response breakpoint-by-breakpoint, in the order
// the protocol guarantees the adapter preserves.
func (s *Session) syncBreakpoints(src *graph.Entity, targets []*graph.Entity) error {
	specs := make([]map[string]any, len(targets))
	for i, e := range targets {
		specs[i] = map[string]any{
			"line":      e.Get("line"),
			"column":    e.Get("column"),
			"condition": e.Get("condition"),
		}
	}

	body, err := s.Send("setBreakpoints", map[string]any{
		"source": map[string]any{
			"name":            src.Get("name"),
			"path":            src.Get("path"),
			"sourceReference": src.Get("sourceReference"),
		},
		"breakpoints": specs,
	}, 0)
	if err != nil {
		return err
	}

	var parsed struct {
		Breakpoints []BreakpointBody `json:"breakpoints"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return malformedError("setBreakpoints: " + err.Error())
		}
	}
	for i, b := range parsed.Breakpoints {
		if i >= len(targets) {
			break
		}
		s.debugger.breakpoints.Bind(s.entity, targets[i], b)
	}
	return nil
}

// resyncBreakpointsForSource re-sends every non-disabled Breakpoint
// declared against src, used on session start (once per Source that
// already has breakpoints declared against it by the time the session
// initializes).
func (s *Session) resyncBreakpointsForSource(src *graph.Entity) error {
	var targets []*graph.Entity
	for _, id := range s.debugger.entity.Edge("breakpoints").Snapshot() {
		e, ok := s.debugger.store.Entity(id)
		if !ok {
			continue
		}
		srcID, ok := e.One("source")
		if !ok || srcID != src.ID() || e.Get("displayState") == StateDisabled {
			continue
		}
		targets = append(targets, e)
	}
	if len(targets) == 0 {
		return nil
	}
	return s.syncBreakpoints(src, targets)
}

// SetExceptionFilterEnabled toggles filterID for this session and
// re-sends the session's whole enabled-filter set via
// setExceptionBreakpoints (spec.md §4.6: "...on start and on every
// enabled-set change").
func (s *Session) SetExceptionFilterEnabled(filterID string, enabled bool) error {
	if _, ok := s.debugger.exceptionFilters.Bind(s.entity, filterID, enabled); !ok {
		return malformedError("unknown exception filter: " + filterID)
	}
	return s.syncExceptionFilters()
}

// syncExceptionFilters sends the session's full currently-enabled
// filter set to the adapter.
func (s *Session) syncExceptionFilters() error {
	_, err := s.Send("setExceptionBreakpoints", map[string]any{
		"filters": s.debugger.exceptionFilters.Enabled(s.entity),
	}, 0)
	return err
}
