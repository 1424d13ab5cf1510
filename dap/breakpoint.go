package dap

import "github.com/aetherall/neodap/graph"

// DisplayState is the derived, user-facing status of a Breakpoint
// across however many sessions currently bind it (spec.md §4.6):
//
//	disabled  - the breakpoint itself is turned off
//	hit       - at least one binding's session is currently stopped at it
//	adjusted  - the adapter moved the line/column on at least one binding
//	verified  - every binding the adapter has acknowledged reports verified
//	unverified- at least one binding is outstanding or unverified
//
// Precedence follows that order: a disabled breakpoint is "disabled"
// regardless of binding state; otherwise a currently-hit binding wins
// over "adjusted", which wins over "verified"/"unverified".
type DisplayState string

const (
	StateDisabled   DisplayState = "disabled"
	StateHit        DisplayState = "hit"
	StateAdjusted   DisplayState = "adjusted"
	StateVerified   DisplayState = "verified"
	StateUnverified DisplayState = "unverified"
)

// breakpoints owns the process-wide Breakpoint table and the
// per-(breakpoint,session) BreakpointBinding records that a
// setBreakpoints round trip produces.
type breakpoints struct {
	store    *graph.Store
	debugger *graph.Entity
}

func newBreakpoints(store *graph.Store, debugger *graph.Entity) *breakpoints {
	return &breakpoints{store: store, debugger: debugger}
}

// Declare creates a Breakpoint entity attached to src at (line, column)
// with the given condition, enabled by default.
func (bp *breakpoints) Declare(src *graph.Entity, line, column int, condition string) *graph.Entity {
	e := bp.store.Create("breakpoint", map[string]any{
		"line":         line,
		"column":       column,
		"condition":    condition,
		"displayState": StateUnverified,
	})
	bp.store.Link(bp.debugger, "breakpoints", e)
	bp.store.Link(e, "source", src)
	return e
}

// findOrDeclare reuses an existing Breakpoint already declared at the
// same (src, line, column, condition) rather than creating a duplicate
// every time a session re-sends its breakpoint set.
func (bp *breakpoints) findOrDeclare(src *graph.Entity, line, column int, condition string) *graph.Entity {
	for _, id := range bp.debugger.Edge("breakpoints").Snapshot() {
		e, ok := bp.store.Entity(id)
		if !ok {
			continue
		}
		srcID, ok := e.One("source")
		if !ok || srcID != src.ID() {
			continue
		}
		if el, _ := e.Get("line").(int); el != line {
			continue
		}
		if ec, _ := e.Get("column").(int); ec != column {
			continue
		}
		if econd, _ := e.Get("condition").(string); econd != condition {
			continue
		}
		return e
	}
	return bp.Declare(src, line, column, condition)
}

// SetEnabled turns a breakpoint off or back on. Disabling sets its
// display state to "disabled" regardless of what its bindings say;
// enabling clears that and recomputes the state from its bindings.
func (bp *breakpoints) SetEnabled(e *graph.Entity, enabled bool) {
	if enabled {
		if e.Get("displayState") == StateDisabled {
			e.Set("displayState", StateUnverified)
		}
		bp.recomputeDisplayState(e)
		return
	}
	e.Set("displayState", StateDisabled)
}

// Bind records one adapter-reported BreakpointBinding for (breakpoint,
// session) from a setBreakpoints response entry, then recomputes the
// breakpoint's aggregate display state (spec.md §4.6: "display state
// is derived across every binding, not just the most recent one").
func (bp *breakpoints) Bind(session *graph.Entity, e *graph.Entity, body BreakpointBody) *graph.Entity {
	binding := bp.store.Create("breakpointBinding", map[string]any{
		"adapterId":    body.Id,
		"verified":     body.Verified,
		"adjustedLine": body.Line,
		"message":      body.Message,
	})
	bp.store.Link(e, "bindings", binding)
	bp.store.Link(binding, "breakpoint", e)
	bp.store.Link(session, "breakpointBindings", binding)

	bp.recomputeDisplayState(e)
	return binding
}

// MarkHit transitions a breakpoint to StateHit when a `stopped` event
// names it among hitBreakpointIds; spec.md §4.6's inference polyfill
// (Session.polyfillBreakpointHit) calls this once per matching
// binding's owning breakpoint.
func MarkHit(e *graph.Entity) {
	if e.Get("displayState") == StateDisabled {
		return
	}
	e.Set("displayState", StateHit)
}

// ClearHit drops a breakpoint out of StateHit back to its derived
// verified/adjusted/unverified state, called once the owning thread
// resumes (spec.md §4.6: "hit is transient, scoped to the stop").
func (bp *breakpoints) ClearHit(e *graph.Entity) {
	if e.Get("displayState") != StateHit {
		return
	}
	bp.recomputeDisplayState(e)
}

// recomputeDisplayState derives the aggregate state from every binding
// currently attached to e, following the precedence documented on
// DisplayState (disabled already handled by SetEnabled, hit by
// MarkHit/ClearHit — this only ever lands on adjusted/verified/
// unverified).
func (bp *breakpoints) recomputeDisplayState(e *graph.Entity) {
	if e.Get("displayState") == StateDisabled {
		return
	}

	declaredLine, _ := e.Get("line").(int)
	ids := e.Edge("bindings").Snapshot()
	if len(ids) == 0 {
		e.Set("displayState", StateUnverified)
		return
	}

	anyAdjusted, allVerified := false, true
	for _, id := range ids {
		binding, ok := bp.store.Entity(id)
		if !ok {
			continue
		}
		if v, _ := binding.Get("verified").(bool); !v {
			allVerified = false
		}
		if adjusted, _ := binding.Get("adjustedLine").(int); adjusted != 0 && adjusted != declaredLine {
			anyAdjusted = true
		}
	}

	switch {
	case anyAdjusted:
		e.Set("displayState", StateAdjusted)
	case allVerified:
		e.Set("displayState", StateVerified)
	default:
		e.Set("displayState", StateUnverified)
	}
}
