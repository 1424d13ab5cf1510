package dap

import (
	"github.com/aetherall/neodap/graph"
	"github.com/aetherall/neodap/reactive"
	"github.com/aetherall/neodap/rollup"
)

// threads owns Thread lifecycle within a Session: the `thread`
// event's started/exited reasons add and remove entities, and
// `stopped`/`continued` drive each Thread's own state field (spec.md
// §3 Thread state machine: running <-> stopped).
type threads struct {
	store *graph.Store

	currentStacks map[graph.ID]*reactive.Signal[graph.ID]
}

func newThreads(store *graph.Store) *threads {
	return &threads{store: store, currentStacks: make(map[graph.ID]*reactive.Signal[graph.ID])}
}

// CurrentStack is the rollup spec.md §3 names explicitly ("currentStack
// is a rollup: the unique stack with current=true"): a Signal over
// thread's `stacks` edge picking whichever member has current=true.
// Since stack.go's Replace never disposes a superseded stack, only
// marks it stale, this is the only reliable way to find "the" stack a
// thread is presently sitting on.
func (t *threads) CurrentStack(thread *graph.Entity) *reactive.Signal[graph.ID] {
	if sig, ok := t.currentStacks[thread.ID()]; ok {
		return sig
	}
	store := t.store
	sig := rollup.Pick(thread.Scope(), thread.Edge("stacks"), func(id graph.ID) bool {
		e, ok := store.Entity(id)
		return ok && e.Current().Get()
	}, nil)
	t.currentStacks[thread.ID()] = sig
	id := thread.ID()
	thread.Scope().OnCleanup(func() { delete(t.currentStacks, id) })
	return sig
}

type threadEventBody struct {
	Reason   string `json:"reason"`
	ThreadId int    `json:"threadId"`
}

func (t *threads) byAdapterID(session *graph.Entity, adapterID int) (*graph.Entity, bool) {
	for _, id := range session.Edge("threads").Snapshot() {
		th, ok := t.store.Entity(id)
		if ok && th.Get("adapterId") == adapterID {
			return th, true
		}
	}
	return nil, false
}

// HandleThreadEvent applies a `thread` event: "started" creates (or
// reuses) a Thread entity, "exited" marks it terminated; the caller is
// responsible for actually disposing a terminated thread's subtree
// once it no longer needs to render the final stack (spec.md §4.4
// "terminated threads remain queryable until explicitly disposed").
func (t *threads) HandleThreadEvent(session *graph.Entity, b threadEventBody) *graph.Entity {
	switch b.Reason {
	case "started":
		if th, ok := t.byAdapterID(session, b.ThreadId); ok {
			return th
		}
		th := t.store.Create("thread", map[string]any{
			"adapterId": b.ThreadId,
			"state":     "running",
		})
		t.store.Link(session, "threads", th)
		return th
	case "exited":
		if th, ok := t.byAdapterID(session, b.ThreadId); ok {
			th.Set("state", "terminated")
			return th
		}
	}
	return nil
}

// MarkStopped transitions thread into "stopped" with the given reason.
func MarkStopped(thread *graph.Entity, reason string) {
	thread.Set("state", "stopped")
	thread.Set("stoppedReason", reason)
}

// MarkRunning transitions thread back into "running", clearing the
// stop reason.
func MarkRunning(thread *graph.Entity) {
	thread.Set("state", "running")
	thread.Set("stoppedReason", "")
}
