package dap

import "github.com/aetherall/neodap/graph"

// Config groups every Session spawned by one debug action — a launch
// plus whatever child sessions it spun up via startDebugging reverse
// requests. Config.state is terminated iff every target (leaf) session
// it owns has terminated (see RollUp). The grouping edge is lifecycle, not
// strong: disposing a Config does not reach into and tear down its
// sessions (a user closing the launch panel shouldn't kill a still-
// running debuggee out from under them), but a session terminating
// rolls its state up into the Config's own.
type configs struct {
	store    *graph.Store
	debugger *graph.Entity
}

func newConfigs(store *graph.Store, debugger *graph.Entity) *configs {
	return &configs{store: store, debugger: debugger}
}

// Declare creates a Config entity for one launch/attach action. The
// single specification given is recorded on `specifications` (spec.md
// §3). Debugger.Restart does not read it back or re-send it.
func (c *configs) Declare(name, request, program string, stopAll bool) *graph.Entity {
	e := c.store.Create("config", map[string]any{
		"name":    name,
		"request": request,
		"program": program,
		"state":   "running",
		"stopAll": stopAll,
		"specifications": []map[string]any{{
			"name": name, "request": request, "program": program,
		}},
		"viewMode": "roots",
	})
	c.store.Link(c.debugger, "configs", e)
	return e
}

// Targets returns cfg's leaf sessions (spec.md §3 `targets*`): the
// sessions whose own termination actually counts toward cfg.state,
// since a session with still-live children isn't itself a target.
func (c *configs) Targets(cfg *graph.Entity) []*graph.Entity {
	var out []*graph.Entity
	for _, id := range cfg.Edge("sessions").Snapshot() {
		if e, ok := c.store.Entity(id); ok && e.Get("leaf") == true {
			out = append(out, e)
		}
	}
	return out
}

// Roots returns cfg's top-level sessions (spec.md §3 `roots*`): those
// with no parent session, the set stopAll iterates when one of them
// terminates.
func (c *configs) Roots(cfg *graph.Entity) []*graph.Entity {
	var out []*graph.Entity
	for _, id := range cfg.Edge("sessions").Snapshot() {
		e, ok := c.store.Entity(id)
		if !ok {
			continue
		}
		if _, hasParent := e.One("parent"); !hasParent {
			out = append(out, e)
		}
	}
	return out
}

// Adopt links session under cfg, rolling the config's state to
// "running" if it had already gone terminated (a late-arriving
// reverse-started child session un-terminates its config).
func (c *configs) Adopt(cfg *graph.Entity, session *graph.Entity) error {
	if err := c.store.Link(cfg, "sessions", session); err != nil {
		return err
	}
	if err := c.store.Link(session, "config", cfg); err != nil {
		return err
	}
	cfg.Set("state", "running")
	return nil
}

// RollUp recomputes cfg.state from the terminated/running state of
// its targets (leaf sessions), called whenever a member session's
// state changes (spec.md §3: "state=terminated iff all targets (leaf
// sessions) have terminated" — a session with live children rolling
// up is not itself a target, only its leaves are).
func (c *configs) RollUp(cfg *graph.Entity) {
	targets := c.Targets(cfg)
	if len(targets) == 0 {
		return
	}
	for _, session := range targets {
		if session.Get("state") != "terminated" {
			cfg.Set("state", "running")
			return
		}
	}
	cfg.Set("state", "terminated")
}
