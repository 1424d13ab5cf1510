package dap

import (
	"log/slog"

	"github.com/aetherall/neodap/graph"
	"github.com/aetherall/neodap/query"
	"github.com/aetherall/neodap/reactive"
	"github.com/aetherall/neodap/rollup"
)

// Debugger is the root of one process's worth of debugging state: the
// entity graph (schema, store), the dedup tables that hang off it
// (sources, breakpoints, exception filters), and the URL query/focus
// layer the rest of neodap's callers drive it through (spec.md §3
// root entity, §4.5 URL query engine).
type Debugger struct {
	store  *graph.Store
	entity *graph.Entity
	logger *slog.Logger

	threads          *threads
	sources          *sources
	breakpoints      *breakpoints
	exceptionFilters *exceptionFilters
	configs          *configs
	stacks           *stacks

	resolver *query.Resolver

	sessions map[graph.ID]*Session

	// runningSessions is a live count of sessions in state "running",
	// maintained incrementally off the sessions edge's "state" index —
	// a direct application of spec.md §4.3's rollup engine to the
	// domain model (e.g. "is any session still running" for a
	// supervising UI, without re-scanning every session on each check).
	runningSessions *reactive.Signal[int]
}

// New creates a Debugger rooted at a fresh Scope. Passing a nil logger
// disables logging, matching graph.Store's own nil-logger contract.
func New(logger *slog.Logger) *Debugger {
	root := reactive.NewScope(nil)
	schema := buildSchema()
	var gl graph.Logger
	if logger != nil {
		gl = logger
	}
	store := graph.NewStore(schema, root, gl)

	entity := store.Create("debugger", nil)
	d := &Debugger{
		store:    store,
		entity:   entity,
		logger:   logger,
		sessions: make(map[graph.ID]*Session),
	}
	d.threads = newThreads(store)
	d.sources = newSources(store, entity)
	d.breakpoints = newBreakpoints(store, entity)
	d.exceptionFilters = newExceptionFilters(store, entity)
	d.configs = newConfigs(store, entity)
	d.stacks = newStacks(store, d.sources)
	d.resolver = query.NewResolver(store, entity)

	sessionsCol := entity.Edge("sessions")
	sessionsCol.DeclareIndex("state", func(s *graph.Store, id graph.ID) any {
		e, ok := s.Entity(id)
		if !ok {
			return nil
		}
		return e.Get("state")
	})
	d.runningSessions = rollup.PartitionedCount(root, sessionsCol, "state", "running")

	return d
}

// RunningSessions is a live count of sessions in state "running";
// sessions still "initializing" are not counted.
func (d *Debugger) RunningSessions() *reactive.Signal[int] { return d.runningSessions }

// Entity returns the root Debugger entity.
func (d *Debugger) Entity() *graph.Entity { return d.entity }

// Store returns the underlying entity store, for callers (e.g. tests,
// rollup wiring) that need direct graph access beyond what Debugger's
// own surface exposes.
func (d *Debugger) Store() *graph.Store { return d.store }

// Dispose tears the entire debugger down: every session, thread,
// stack, frame, source, and breakpoint it owns.
func (d *Debugger) Dispose() {
	d.entity.Scope().Dispose()
}

// Launch declares a new Config for one debug action and starts its
// first Session over transport.
func (d *Debugger) Launch(name, request, program string, stopAll bool, transport Transport) *Session {
	cfg := d.configs.Declare(name, request, program, stopAll)
	return d.startSession(cfg, transport, "")
}

// LaunchFromConfig validates raw (e.g. a launch.json entry decoded into
// a plain map) against the Config schema before starting a session,
// returning the SchemaViolation instead of ever constructing a Config
// or Session from malformed input.
func (d *Debugger) LaunchFromConfig(raw map[string]any, transport Transport) (*Session, error) {
	if err := ValidateConfig(raw); err != nil {
		return nil, err
	}
	name, _ := raw["name"].(string)
	request, _ := raw["request"].(string)
	program, _ := raw["program"].(string)
	stopAll, _ := raw["stopAll"].(bool)
	return d.Launch(name, request, program, stopAll, transport), nil
}

// Restart implements Config.restart() (spec.md §8 Scenario F): unlinks
// cfg's previous sessions, flips its state briefly to "terminated",
// then starts a fresh root Session over transport, which rolls
// cfg.state back to "running" (configs.Adopt) once it joins. Restart
// sends no launch or attach request: cfg's stored specifications are
// not read or re-sent. Old sessions are left exactly as they were (only unlinked
// from cfg.sessions, not disposed) — a caller still watching one
// directly sees it as it last was.
func (d *Debugger) Restart(cfg *graph.Entity, transport Transport) *Session {
	cfg.Set("state", "terminated")

	for _, id := range cfg.Edge("sessions").Snapshot() {
		if session, ok := d.store.Entity(id); ok {
			d.store.Unlink(cfg, "sessions", session)
		}
	}

	return d.startSession(cfg, transport, "")
}

// StartChild starts an additional Session under an existing Config —
// the startDebugging reverse-request path, where the adapter asks the
// client to spawn and wire up a second session for e.g. a child
// process (spec.md §6).
func (d *Debugger) StartChild(cfg *graph.Entity, parent *Session, transport Transport) *Session {
	return d.startSession(cfg, transport, parent.entity.ID())
}

func (d *Debugger) startSession(cfg *graph.Entity, transport Transport, parentID graph.ID) *Session {
	entity := d.store.Create("session", map[string]any{"state": "initializing"})
	d.store.Link(d.entity, "sessions", entity)
	d.configs.Adopt(cfg, entity)
	if parentID != "" {
		if parent, ok := d.store.Entity(parentID); ok {
			d.store.Link(entity, "parent", parent)
			d.store.Link(parent, "children", entity)
		}
	}
	trackLeaf(entity)

	s := newSession(d, transport, entity)
	d.sessions[entity.ID()] = s
	return s
}

// focus resolves an anchor name against the debugger's focusedUrl
// field, the callback query.Resolve/QueryOne/QueryMany expect.
func (d *Debugger) focus(name string) (*graph.Entity, bool) {
	return query.Entity(d.resolver, d.entity, name)
}

// QueryOne resolves raw, requiring exactly one match (spec.md §4.5).
func (d *Debugger) QueryOne(raw string) (*graph.Entity, error) {
	return d.resolver.QueryOne(raw, d.focus)
}

// QueryMany resolves raw, returning every matching entity.
func (d *Debugger) QueryMany(raw string) ([]*graph.Entity, error) {
	return d.resolver.QueryMany(raw, d.focus)
}

// SetFocus resolves raw and stores it as the current focus, walking up
// the path toward the root until an unambiguous ancestor resolves if
// the full path does not (spec.md §4.5).
func (d *Debugger) SetFocus(raw string) {
	query.SetFocus(d.resolver, d.entity, raw)
}

// RenderTree renders the entity graph's ownership tree rooted at the
// debugger, for interactive inspection.
func (d *Debugger) RenderTree() string {
	return graph.RenderTree(d.store, d.entity)
}

// breakpointsAtSourceLine returns every Breakpoint declared against
// sourceID at line, the lookup the breakpoint-hit polyfill
// (Session.polyfillBreakpointHit) needs when an adapter's `stopped`
// event omits hitBreakpointIds (spec.md §4.6).
func (d *Debugger) breakpointsAtSourceLine(sourceID graph.ID, line int) []*graph.Entity {
	var out []*graph.Entity
	for _, id := range d.entity.Edge("breakpoints").Snapshot() {
		e, ok := d.store.Entity(id)
		if !ok {
			continue
		}
		srcID, ok := e.One("source")
		if !ok || srcID != sourceID {
			continue
		}
		if l, _ := e.Get("line").(int); l == line {
			out = append(out, e)
		}
	}
	return out
}

func (d *Debugger) breakpointByAdapterID(adapterID int) (*graph.Entity, bool) {
	for _, id := range d.entity.Edge("breakpoints").Snapshot() {
		e, ok := d.store.Entity(id)
		if !ok {
			continue
		}
		for _, bID := range e.Edge("bindings").Snapshot() {
			binding, ok := d.store.Entity(bID)
			if ok && binding.Get("adapterId") == adapterID {
				return e, true
			}
		}
	}
	return nil, false
}
