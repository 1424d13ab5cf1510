package dap

import (
	"encoding/json"
	"time"

	"github.com/aetherall/neodap/graph"
	"github.com/aetherall/neodap/lifecycle"
	"github.com/aetherall/neodap/reactive"
	"github.com/aetherall/neodap/rollup"
)

// ReverseHandler answers a reverse request (startDebugging,
// runInTerminal) the adapter sends back to us, returning the response
// body to encode or an error to report as a failed response (spec.md
// §6: "the adapter may itself issue requests against the client").
type ReverseHandler func(session *Session, args json.RawMessage) (any, error)

// Session wraps one DAP connection's worth of state: its entity in
// the graph, the request/response plumbing over its Transport, and
// the event dispatch that keeps Thread/Stack/Breakpoint/Source state
// in sync with what the adapter reports.
type Session struct {
	entity    *graph.Entity
	debugger  *Debugger
	transport Transport
	requests  *requestTable
	scope     *reactive.Scope
	prop      *lifecycle.Propagator

	reverseHandlers map[string]ReverseHandler
}

func newSession(d *Debugger, transport Transport, entity *graph.Entity) *Session {
	s := &Session{
		entity:          entity,
		debugger:        d,
		transport:       transport,
		requests:        newRequestTable(transport),
		scope:           entity.Scope(),
		prop:            lifecycle.New(d.store),
		reverseHandlers: make(map[string]ReverseHandler),
	}
	transport.OnMessage(s.handleMessage)
	transport.OnClosed(s.handleClosed)
	return s
}

// Entity returns the underlying graph entity.
func (s *Session) Entity() *graph.Entity { return s.entity }

// OnReverseRequest registers the handler invoked when the adapter
// issues command as a reverse request against this session.
func (s *Session) OnReverseRequest(command string, h ReverseHandler) {
	s.reverseHandlers[command] = h
}

// Send issues an outbound request, using DefaultTimeout unless timeout
// is positive, and waits for the response. Cancellation follows the
// session entity's own scope: disposing the session (or its owning
// debugger) cancels every request still in flight.
func (s *Session) Send(command string, args any, timeout time.Duration) (json.RawMessage, error) {
	f := s.requests.Send(s.scope, command, args, timeout)
	resp, err := f.Wait()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (s *Session) handleClosed(err error) {
	s.requests.Abort()
	s.entity.Set("state", "terminated")
	s.rollUpConfig()
	s.enforceStopAll()
}

// enforceStopAll implements spec.md §4.6's stopAll semantics: "when
// any root session terminates, terminate the rest." Non-root
// terminations (a child session exiting on its own) never trigger it.
func (s *Session) enforceStopAll() {
	if _, hasParent := s.entity.One("parent"); hasParent {
		return
	}
	cfgID, ok := s.entity.One("config")
	if !ok {
		return
	}
	cfg, ok := s.debugger.store.Entity(cfgID)
	if !ok {
		return
	}
	if stopAll, _ := cfg.Get("stopAll").(bool); !stopAll {
		return
	}
	for _, id := range cfg.Edge("sessions").Snapshot() {
		if id == s.entity.ID() {
			continue
		}
		other, ok := s.debugger.sessions[id]
		if !ok || other.entity.Get("state") == "terminated" {
			continue
		}
		other.Dispose()
	}
}

// Dispose tears the session's entity subtree down (every Thread,
// Stack, Frame, Scope, Variable it strongly owns) without requiring
// the caller to wait for a `terminated` event — used when a session is
// known dead (transport closed) and its state should stop being
// queryable rather than merely "terminated" but still present.
func (s *Session) Dispose() {
	s.transport.Close()
	s.prop.Dispose(s.entity.ID())
}

func (s *Session) handleMessage(env Envelope) {
	switch env.Type {
	case MessageResponse:
		s.requests.Deliver(env)
	case MessageEvent:
		s.handleEvent(env)
	case MessageRequest:
		s.handleReverseRequest(env)
	}
}

func (s *Session) handleReverseRequest(env Envelope) {
	h, ok := s.reverseHandlers[env.Command]
	if !ok {
		s.transport.Send(Envelope{
			Type:       MessageResponse,
			RequestSeq: env.Seq,
			Command:    env.Command,
			Success:    false,
			Message:    "unhandled reverse request",
		})
		return
	}

	result, err := h(s, env.Arguments)
	resp := Envelope{Type: MessageResponse, RequestSeq: env.Seq, Command: env.Command}
	if err != nil {
		resp.Success = false
		resp.Message = err.Error()
	} else {
		resp.Success = true
		if result != nil {
			encoded, mErr := json.Marshal(result)
			if mErr == nil {
				resp.Body = encoded
			}
		}
	}
	s.transport.Send(resp)
}

func (s *Session) handleEvent(env Envelope) {
	d := s.debugger
	switch env.Event {
	case "initialized":
		s.entity.Set("state", "running")
		// spec.md §4.6: the session drives setBreakpoints (per Source)
		// and setExceptionBreakpoints on start, rather than waiting to
		// be told — the adapter only allows sending these once it
		// signals `initialized`.
		if d.entity.Edge("exceptionFilters").Len() > 0 {
			s.syncExceptionFilters()
		}
		for _, srcID := range d.entity.Edge("sources").Snapshot() {
			if src, ok := d.store.Entity(srcID); ok {
				s.resyncBreakpointsForSource(src)
			}
		}

	case "thread":
		var b threadEventBody
		if json.Unmarshal(env.Body, &b) == nil {
			d.threads.HandleThreadEvent(s.entity, b)
		}

	case "stopped":
		var b StoppedBody
		if json.Unmarshal(env.Body, &b) != nil {
			return
		}
		th, ok := d.threads.byAdapterID(s.entity, b.ThreadId)
		if ok {
			MarkStopped(th, b.Reason)
		}
		for _, adapterID := range b.HitBreakpointIds {
			if bpE, ok := d.breakpointByAdapterID(adapterID); ok {
				MarkHit(bpE)
			}
		}
		// spec.md §4.6 breakpoint-hit polyfill: if the adapter reported
		// no hitBreakpointIds for a breakpoint stop, infer the hit once
		// the stack is fetched and the top frame's source/line is known
		// (see polyfillBreakpointHit, called from FetchStack).
		if ok && b.Reason == "breakpoint" && len(b.HitBreakpointIds) == 0 {
			th.Set("pendingBreakpointPolyfill", true)
		}

	case "continued":
		var b struct {
			ThreadId int `json:"threadId"`
		}
		if json.Unmarshal(env.Body, &b) == nil {
			if th, ok := d.threads.byAdapterID(s.entity, b.ThreadId); ok {
				MarkRunning(th)
				s.clearHitBreakpoints()
			}
		}

	case "output":
		var b OutputBody
		if json.Unmarshal(env.Body, &b) == nil {
			out := d.store.Create("output", map[string]any{
				"category": b.Category,
				"text":     b.Output,
				"line":     b.Line,
			})
			d.store.Link(s.entity, "outputs", out)
			if b.Source.Path != "" || b.Source.SourceReference != 0 {
				src := d.sources.Resolve(s.entity, b.Source)
				d.store.Link(out, "source", src)
			}
		}

	case "terminated", "exited":
		s.entity.Set("state", "terminated")
		s.rollUpConfig()
		s.enforceStopAll()

	case "breakpoint":
		var b struct {
			Reason     string         `json:"reason"`
			Breakpoint BreakpointBody `json:"breakpoint"`
		}
		if json.Unmarshal(env.Body, &b) == nil {
			if bpE, ok := d.breakpointByAdapterID(b.Breakpoint.Id); ok {
				d.breakpoints.Bind(s.entity, bpE, b.Breakpoint)
			}
		}
	}
}

// FetchStack issues a stackTrace request for thread and replaces its
// current Stack with the result (spec.md §4.6 "a stopped thread's
// stack is (re)fetched on demand, not pushed by the adapter").
func (s *Session) FetchStack(thread *graph.Entity, adapterThreadID int) (*graph.Entity, error) {
	body, err := s.Send("stackTrace", map[string]any{"threadId": adapterThreadID}, 0)
	if err != nil {
		return nil, err
	}
	stack, err := s.debugger.stacks.Replace(s.entity, thread, body)
	if err != nil {
		return nil, err
	}
	s.polyfillBreakpointHit(thread, stack)
	return stack, nil
}

// polyfillBreakpointHit implements spec.md §4.6's fallback: when a
// breakpoint stop carried no adapter-reported hitBreakpointIds
// (flagged on thread by handleEvent's "stopped" case), infer the hit
// from the freshly-fetched top frame's source and line once the stack
// is available, rather than leaving the breakpoint's display state at
// whatever it was before the stop.
func (s *Session) polyfillBreakpointHit(thread, stack *graph.Entity) {
	pending, _ := thread.Get("pendingBreakpointPolyfill").(bool)
	if !pending {
		return
	}
	thread.Set("pendingBreakpointPolyfill", false)

	frames := stack.Edge("frames").Snapshot()
	if len(frames) == 0 {
		return
	}
	top, ok := s.debugger.store.Entity(frames[0])
	if !ok {
		return
	}
	srcID, ok := top.One("source")
	if !ok {
		return
	}
	line, _ := top.Get("line").(int)
	for _, bp := range s.debugger.breakpointsAtSourceLine(srcID, line) {
		MarkHit(bp)
	}
}

// CurrentStack resolves thread's current Stack through the
// threads.CurrentStack rollup (spec.md §3: "currentStack is a rollup:
// the unique stack with current=true") rather than requiring callers
// to track whatever FetchStack last returned.
func (s *Session) CurrentStack(thread *graph.Entity) (*graph.Entity, bool) {
	id := s.debugger.threads.CurrentStack(thread).Peek()
	if id == "" {
		return nil, false
	}
	return s.debugger.store.Entity(id)
}

// FetchScopes issues a scopes request for frame and attaches the
// result.
func (s *Session) FetchScopes(frame *graph.Entity, adapterFrameID int) error {
	body, err := s.Send("scopes", map[string]any{"frameId": adapterFrameID}, 0)
	if err != nil {
		return err
	}
	return s.debugger.stacks.ReplaceScopes(frame, body)
}

// FetchVariables issues a variables request for a Scope or Variable
// (variablesReference identifies which) and merges the result into
// parent's named edge, preserving existing Variable identity.
func (s *Session) FetchVariables(parent *graph.Entity, edgeName string, variablesReference int) error {
	body, err := s.Send("variables", map[string]any{"variablesReference": variablesReference}, 0)
	if err != nil {
		return err
	}
	return s.debugger.stacks.ReplaceVariables(parent, edgeName, body)
}

// clearHitBreakpoints drops every breakpoint this session has ever
// bound out of the transient "hit" state, called on `continued` since
// the protocol does not tell us which specific breakpoint(s) a thread
// was sitting on when it resumed.
func (s *Session) clearHitBreakpoints() {
	for _, id := range s.entity.Edge("breakpointBindings").Snapshot() {
		binding, ok := s.debugger.store.Entity(id)
		if !ok {
			continue
		}
		bpID, ok := binding.One("breakpoint")
		if !ok {
			continue
		}
		if bpE, ok := s.debugger.store.Entity(bpID); ok {
			s.debugger.breakpoints.ClearHit(bpE)
		}
	}
}

// trackLeaf keeps session's `leaf` field in sync with its live child
// count (spec.md §4.6: "a Session's 'leaf' predicate (no live
// children) is a rollup used by URL queries (/sessions(leaf=true))").
// It's stored as a literal field, not only a Signal, since the URL
// query engine's filters compare against entity.Get values directly.
func trackLeaf(session *graph.Entity) {
	count := rollup.Count(session.Edge("children"))
	stop := count.Use(func(n int) { session.Set("leaf", n == 0) })
	session.Scope().OnCleanup(stop)
}

func (s *Session) rollUpConfig() {
	if cfgID, ok := s.entity.One("config"); ok {
		if cfg, ok := s.debugger.store.Entity(cfgID); ok {
			s.debugger.configs.RollUp(cfg)
		}
	}
}
