package dap

import "github.com/aetherall/neodap/graph"

// buildSchema declares the entity schema of spec.md §3/§4.6: Debugger
// at the root, owning Sessions; each Session strongly owns its Threads,
// ExceptionFilter bindings and Output log, and references its Config
// weakly; each
// Thread strongly owns its Stacks; each Stack strongly owns its
// Frames; each Frame strongly owns its Scopes; each Scope strongly
// owns its Variables. Source and Breakpoint are process-wide,
// deduplicated entities that Sessions and Frames reference weakly —
// never owned by any one session, so they outlive any single target's
// lifecycle (spec.md §4.6 source/breakpoint dedup).
func buildSchema() *graph.Schema {
	s := graph.NewSchema()

	s.Declare("debugger",
		graph.WithFields("focusedUrl"),
		graph.WithEdge("sessions", "session", graph.Many, graph.EdgeStrong),
		graph.WithEdge("configs", "config", graph.Many, graph.EdgeStrong),
		graph.WithEdge("sources", "source", graph.Many, graph.EdgeStrong),
		graph.WithEdge("breakpoints", "breakpoint", graph.Many, graph.EdgeStrong),
		graph.WithEdge("exceptionFilters", "exceptionFilter", graph.Many, graph.EdgeStrong),
	)

	s.Declare("config",
		graph.WithFields("name", "request", "program", "state", "stopAll", "specifications", "viewMode"),
		graph.WithEdge("sessions", "session", graph.Many, graph.EdgeLifecycle),
	)

	s.Declare("session",
		graph.WithFields("name", "state", "capabilities", "leaf"),
		graph.WithEdge("config", "config", graph.One, graph.EdgeWeak),
		graph.WithEdge("parent", "session", graph.One, graph.EdgeWeak),
		graph.WithEdge("children", "session", graph.Many, graph.EdgeStrong),
		graph.WithEdge("threads", "thread", graph.Many, graph.EdgeStrong),
		graph.WithEdge("breakpointBindings", "breakpointBinding", graph.Many, graph.EdgeStrong),
		graph.WithEdge("exceptionFilterBindings", "exceptionFilterBinding", graph.Many, graph.EdgeStrong),
		graph.WithEdge("sourceBindings", "sourceBinding", graph.Many, graph.EdgeStrong),
		graph.WithEdge("outputs", "output", graph.Many, graph.EdgeStrong),
	)

	s.Declare("thread",
		graph.WithFields("name", "state", "stoppedReason", "adapterId"),
		graph.WithEdge("stacks", "stack", graph.Many, graph.EdgeStrong),
	)

	s.Declare("stack",
		graph.WithFields("fetchedAt"),
		graph.WithEdge("frames", "frame", graph.Many, graph.EdgeStrong),
	)

	s.Declare("frame",
		graph.WithFields("name", "line", "column"),
		graph.WithEdge("source", "source", graph.One, graph.EdgeWeak),
		graph.WithEdge("scopes", "scope", graph.Many, graph.EdgeStrong),
	)

	s.Declare("scope",
		graph.WithFields("name", "variablesReference"),
		graph.WithEdge("variables", "variable", graph.Many, graph.EdgeStrong),
	)

	s.Declare("variable",
		graph.WithFields("name", "value", "type", "variablesReference"),
		graph.WithEdge("children", "variable", graph.Many, graph.EdgeStrong),
	)

	s.Declare("source",
		graph.WithFields("name", "path", "sourceReference", "origin", "correlationKey"),
		graph.WithEdge("bindings", "sourceBinding", graph.Many, graph.EdgeLifecycle),
	)

	s.Declare("sourceBinding",
		graph.WithFields("sourceReference"),
		graph.WithEdge("source", "source", graph.One, graph.EdgeWeak),
	)

	s.Declare("breakpoint",
		graph.WithFields("line", "column", "condition", "displayState"),
		graph.WithEdge("source", "source", graph.One, graph.EdgeWeak),
		graph.WithEdge("bindings", "breakpointBinding", graph.Many, graph.EdgeLifecycle),
	)

	s.Declare("breakpointBinding",
		graph.WithFields("adapterId", "verified", "adjustedLine", "message"),
		graph.WithEdge("breakpoint", "breakpoint", graph.One, graph.EdgeWeak),
	)

	s.Declare("exceptionFilter",
		graph.WithFields("filterId", "label", "defaultValue"),
		graph.WithEdge("bindings", "exceptionFilterBinding", graph.Many, graph.EdgeLifecycle),
	)

	s.Declare("exceptionFilterBinding",
		graph.WithFields("enabled"),
		graph.WithEdge("filter", "exceptionFilter", graph.One, graph.EdgeWeak),
	)

	s.Declare("output",
		graph.WithFields("category", "text", "line"),
		graph.WithEdge("source", "source", graph.One, graph.EdgeWeak),
	)

	return s
}
