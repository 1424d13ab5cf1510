package dap

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAdapter answers every outbound request on client with a fixed
// success response, and lets the test push events/reverse-requests at
// will — standing in for a real debug adapter in these tests.
type fakeAdapter struct {
	transport *MemTransport
	commands  []string

	// responses overrides the default empty-success reply for a given
	// command, keyed by command name.
	responses map[string]json.RawMessage
}

func newFakeAdapter(transport *MemTransport) *fakeAdapter {
	a := &fakeAdapter{transport: transport, responses: make(map[string]json.RawMessage)}
	transport.OnMessage(a.handle)
	return a
}

func (a *fakeAdapter) handle(env Envelope) {
	if env.Type != MessageRequest {
		return
	}
	a.commands = append(a.commands, env.Command)
	a.transport.Send(Envelope{
		Type:       MessageResponse,
		RequestSeq: env.Seq,
		Command:    env.Command,
		Success:    true,
		Body:       a.responses[env.Command],
	})
}

func (a *fakeAdapter) sendEvent(name string, body any) {
	raw, _ := json.Marshal(body)
	a.transport.Send(Envelope{Type: MessageEvent, Event: name, Body: raw})
}

func TestLaunchCreatesSessionAndRollsUpConfig(t *testing.T) {
	d := New(nil)
	client, adapterSide := NewMemTransportPair()
	newFakeAdapter(adapterSide)

	session := d.Launch("debug main", "launch", "main.go", true, client)
	require.Equal(t, "initializing", session.Entity().Get("state"))

	_, err := session.Send("initialize", map[string]any{"adapterID": "test"}, 0)
	require.NoError(t, err)

	cfgID, ok := session.Entity().One("config")
	require.True(t, ok, "expected session to be linked to a config")
	cfg, _ := d.store.Entity(cfgID)
	require.Equal(t, "running", cfg.Get("state"))
}

func TestStoppedEventUpdatesThreadAndMarksBreakpointHit(t *testing.T) {
	d := New(nil)
	client, adapterSide := NewMemTransportPair()
	adapter := newFakeAdapter(adapterSide)

	session := d.Launch("debug main", "launch", "main.go", true, client)
	adapter.sendEvent("thread", threadEventBody{Reason: "started", ThreadId: 1})

	src := d.sources.Resolve(session.Entity(), SourceBody{Path: "/tmp/main.go"})
	bpEntity := d.breakpoints.Declare(src, 10, 0, "")
	d.breakpoints.Bind(session.Entity(), bpEntity, BreakpointBody{Id: 7, Verified: true})

	adapter.sendEvent("stopped", StoppedBody{Reason: "breakpoint", ThreadId: 1, HitBreakpointIds: []int{7}})

	th, ok := d.threads.byAdapterID(session.Entity(), 1)
	require.True(t, ok, "expected thread 1 to exist")
	require.Equal(t, "stopped", th.Get("state"))
	require.Equal(t, StateHit, bpEntity.Get("displayState"))

	adapter.sendEvent("continued", struct {
		ThreadId int `json:"threadId"`
	}{ThreadId: 1})
	require.Equal(t, "running", th.Get("state"))
}

func TestSourceDedupAcrossSessions(t *testing.T) {
	d := New(nil)
	client1, adapterSide1 := NewMemTransportPair()
	newFakeAdapter(adapterSide1)
	session1 := d.Launch("debug main", "launch", "main.go", false, client1)

	client2, adapterSide2 := NewMemTransportPair()
	newFakeAdapter(adapterSide2)
	session2 := d.Launch("debug main", "launch", "main.go", false, client2)

	a := d.sources.Resolve(session1.Entity(), SourceBody{Path: "/tmp/main.go", Name: "main.go"})
	b := d.sources.Resolve(session1.Entity(), SourceBody{Path: "/tmp/main.go", Name: "main.go"})
	require.Equal(t, a.ID(), b.ID())

	c := d.sources.Resolve(session1.Entity(), SourceBody{Name: "eval-1", Origin: "debugger", SourceReference: 1000})
	e := d.sources.Resolve(session1.Entity(), SourceBody{Name: "eval-1", Origin: "debugger", SourceReference: 1001})
	require.Equal(t, c.ID(), e.ID(), "expected the reference-only source to dedup by stability hash")

	// A second session reporting the same file gets its own binding,
	// distinct from session1's, to the shared Source entity (spec.md
	// §3, §8 Scenario D: "|that_source.bindings|=2").
	same := d.sources.Resolve(session2.Entity(), SourceBody{Path: "/tmp/main.go", Name: "main.go"})
	require.Equal(t, a.ID(), same.ID(), "expected the same Source entity across sessions")
	require.Equal(t, 2, len(a.Edge("bindings").Snapshot()), "expected one binding per session")
}

func TestRequestTimesOutWithNoResponse(t *testing.T) {
	d := New(nil)
	client, _ := NewMemTransportPair() // no adapter listening on the other side

	session := d.Launch("debug main", "launch", "main.go", false, client)
	_, err := session.Send("evaluate", nil, 20*time.Millisecond)
	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindTimeout, derr.Kind)
}

func TestStackReplaceMarksPriorStackStaleWithoutDisposing(t *testing.T) {
	d := New(nil)
	client, adapterSide := NewMemTransportPair()
	adapter := newFakeAdapter(adapterSide)
	session := d.Launch("debug main", "launch", "main.go", false, client)
	adapter.sendEvent("thread", threadEventBody{Reason: "started", ThreadId: 1})
	th, _ := d.threads.byAdapterID(session.Entity(), 1)

	first, err := json.Marshal(stackTraceResponseBody{StackFrames: []StackFrameBody{
		{Id: 1, Name: "main", Line: 10},
	}})
	require.NoError(t, err)
	stack1, err := d.stacks.Replace(session.Entity(), th, first)
	require.NoError(t, err)
	frame0 := stack1.Edge("frames").Snapshot()[0]

	second, _ := json.Marshal(stackTraceResponseBody{StackFrames: []StackFrameBody{
		{Id: 2, Name: "main", Line: 11},
		{Id: 3, Name: "helper", Line: 5},
	}})
	stack2, err := d.stacks.Replace(session.Entity(), th, second)
	require.NoError(t, err)

	require.NotEqual(t, stack1.ID(), stack2.ID(), "expected a fresh stack entity")

	// The prior stack is never disposed (spec.md §4.4, §8 Scenario A):
	// it stays in the store and alive, only stale.
	_, ok := d.store.Entity(stack1.ID())
	require.True(t, ok, "expected the prior stack to still be queryable")
	require.False(t, stack1.Current().Peek())
	require.True(t, stack1.Alive().Peek())

	frame0Entity, ok := d.store.Entity(frame0)
	require.True(t, ok, "expected the prior stack's frame to still be queryable")
	require.False(t, frame0Entity.Current().Peek())
	require.True(t, frame0Entity.Alive().Peek())

	require.True(t, stack2.Current().Peek())
	require.Equal(t, 2, stack2.Edge("frames").Len())
}

func TestSessionCurrentStackTracksTheMostRecentReplace(t *testing.T) {
	d := New(nil)
	client, adapterSide := NewMemTransportPair()
	adapter := newFakeAdapter(adapterSide)
	session := d.Launch("debug main", "launch", "main.go", false, client)
	adapter.sendEvent("thread", threadEventBody{Reason: "started", ThreadId: 1})
	th, _ := d.threads.byAdapterID(session.Entity(), 1)

	_, ok := session.CurrentStack(th)
	require.False(t, ok, "expected no current stack before any stackTrace response")

	first, _ := json.Marshal(stackTraceResponseBody{StackFrames: []StackFrameBody{{Id: 1, Name: "main", Line: 10}}})
	stack1, err := d.stacks.Replace(session.Entity(), th, first)
	require.NoError(t, err)

	current, ok := session.CurrentStack(th)
	require.True(t, ok)
	require.Equal(t, stack1.ID(), current.ID())

	second, _ := json.Marshal(stackTraceResponseBody{StackFrames: []StackFrameBody{{Id: 2, Name: "main", Line: 11}}})
	stack2, err := d.stacks.Replace(session.Entity(), th, second)
	require.NoError(t, err)

	current, ok = session.CurrentStack(th)
	require.True(t, ok)
	require.Equal(t, stack2.ID(), current.ID(), "expected CurrentStack to follow the latest Replace")
}

func TestSessionDrivesSetBreakpointsAndSetExceptionBreakpointsOnStart(t *testing.T) {
	d := New(nil)
	client, adapterSide := NewMemTransportPair()
	adapter := newFakeAdapter(adapterSide)
	adapter.responses["initialize"], _ = json.Marshal(map[string]any{
		"exceptionBreakpointFilters": []ExceptionBreakpointFilter{
			{Filter: "uncaught", Label: "Uncaught Exceptions", Default: true},
		},
	})

	session := d.Launch("debug main", "launch", "main.go", false, client)
	err := session.Initialize("test", nil)
	require.NoError(t, err)

	src := d.sources.Resolve(session.Entity(), SourceBody{Path: "/tmp/main.go"})
	_, err = session.SetBreakpoints(src, []BreakpointSpec{{Line: 10}})
	require.NoError(t, err)

	adapter.sendEvent("initialized", struct{}{})

	require.Contains(t, adapter.commands, "setBreakpoints")
	require.Contains(t, adapter.commands, "setExceptionBreakpoints")
}
