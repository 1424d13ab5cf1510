package dap

import "github.com/aetherall/neodap/graph"

// exceptionFilters owns the process-wide ExceptionFilter catalog (the
// adapter's initialize response advertises these once) and the
// per-session ExceptionFilterBinding toggles that setExceptionBreakpoints
// calls exercise (spec.md §4.6: "exception filters are declared once
// per adapter and bound per session, mirroring breakpoint/source
// dedup").
type exceptionFilters struct {
	store    *graph.Store
	debugger *graph.Entity
	byID     map[string]*graph.Entity
}

func newExceptionFilters(store *graph.Store, debugger *graph.Entity) *exceptionFilters {
	return &exceptionFilters{store: store, debugger: debugger, byID: make(map[string]*graph.Entity)}
}

// ExceptionBreakpointFilter mirrors the DAP capability entry the
// adapter's initialize response advertises.
type ExceptionBreakpointFilter struct {
	Filter  string `json:"filter"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

// Declare registers the adapter's advertised filter catalog, reusing
// an existing entity if the same filter id was already declared by an
// earlier session against the same adapter.
func (ef *exceptionFilters) Declare(filters []ExceptionBreakpointFilter) {
	for _, f := range filters {
		if _, ok := ef.byID[f.Filter]; ok {
			continue
		}
		e := ef.store.Create("exceptionFilter", map[string]any{
			"filterId":     f.Filter,
			"label":        f.Label,
			"defaultValue": f.Default,
		})
		ef.store.Link(ef.debugger, "exceptionFilters", e)
		ef.byID[f.Filter] = e
	}
}

// Bind creates (or updates) a session's enabled/disabled binding for
// filterID with the given enabled value. Initialize passes the
// filter's advertised default the first time a session sees it.
func (ef *exceptionFilters) Bind(session *graph.Entity, filterID string, enabled bool) (*graph.Entity, bool) {
	filter, ok := ef.byID[filterID]
	if !ok {
		return nil, false
	}

	for _, id := range session.Edge("exceptionFilterBindings").Snapshot() {
		binding, ok := ef.store.Entity(id)
		if !ok {
			continue
		}
		if target, ok := binding.One("filter"); ok && target == filter.ID() {
			binding.Set("enabled", enabled)
			return binding, true
		}
	}

	binding := ef.store.Create("exceptionFilterBinding", map[string]any{"enabled": enabled})
	ef.store.Link(filter, "bindings", binding)
	ef.store.Link(binding, "filter", filter)
	ef.store.Link(session, "exceptionFilterBindings", binding)
	return binding, true
}

// Enabled lists the filter ids a session currently has enabled, the
// set a setExceptionBreakpoints call should send to the adapter.
func (ef *exceptionFilters) Enabled(session *graph.Entity) []string {
	var out []string
	for _, id := range session.Edge("exceptionFilterBindings").Snapshot() {
		binding, ok := ef.store.Entity(id)
		if !ok || !binding.Get("enabled").(bool) {
			continue
		}
		filterID, ok := binding.One("filter")
		if !ok {
			continue
		}
		f, ok := ef.store.Entity(filterID)
		if !ok {
			continue
		}
		out = append(out, f.Get("filterId").(string))
	}
	return out
}
