package lifecycle

import (
	"testing"

	"github.com/aetherall/neodap/graph"
	"github.com/aetherall/neodap/reactive"
)

func newTestStore() *graph.Store {
	schema := graph.NewSchema()
	schema.Declare("thread",
		graph.WithEdge("stacks", "stack", graph.Many, graph.EdgeStrong),
		graph.WithEdge("currentStackRef", "stack", graph.One, graph.EdgeWeak),
	)
	schema.Declare("stack",
		graph.WithEdge("frames", "frame", graph.Many, graph.EdgeStrong),
	)
	schema.Declare("frame")

	root := reactive.NewScope(nil)
	return graph.NewStore(schema, root, nil)
}

func TestDisposeTearsDownStrongDescendantsBeforeRoot(t *testing.T) {
	store := newTestStore()
	prop := New(store)

	thread := store.Create("thread", nil)
	stack := store.Create("stack", nil)
	frame := store.Create("frame", nil)
	store.Link(thread, "stacks", stack)
	store.Link(stack, "frames", frame)

	prop.Dispose(thread.ID())

	if _, ok := store.Entity(thread.ID()); ok {
		t.Fatal("expected thread removed")
	}
	if _, ok := store.Entity(stack.ID()); ok {
		t.Fatal("expected stack removed")
	}
	if _, ok := store.Entity(frame.ID()); ok {
		t.Fatal("expected frame removed")
	}
}

func TestDisposeDoesNotFollowWeakEdges(t *testing.T) {
	store := newTestStore()
	prop := New(store)

	thread := store.Create("thread", nil)
	stack := store.Create("stack", nil)
	store.Link(thread, "currentStackRef", stack)

	prop.Dispose(thread.ID())

	if _, ok := store.Entity(stack.ID()); !ok {
		t.Fatal("expected the weakly-referenced stack to survive the thread's disposal")
	}
}

func TestMarkStaleCascadesAlongStrongAndLifecycleEdges(t *testing.T) {
	store := newTestStore()
	prop := New(store)

	thread := store.Create("thread", nil)
	stack := store.Create("stack", nil)
	frame := store.Create("frame", nil)
	store.Link(thread, "stacks", stack)
	store.Link(stack, "frames", frame)

	prop.MarkStale(thread.ID())

	if thread.Current().Get() {
		t.Fatal("expected thread current=false")
	}
	if stack.Current().Get() {
		t.Fatal("expected stack current=false")
	}
	if frame.Current().Get() {
		t.Fatal("expected frame current=false")
	}
}
