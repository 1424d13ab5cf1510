package rollup

import (
	"testing"

	"github.com/aetherall/neodap/graph"
	"github.com/aetherall/neodap/reactive"
)

func newFixture() (*graph.Store, *graph.Entity, *graph.Collection, *reactive.Scope) {
	schema := graph.NewSchema()
	schema.Declare("parent", graph.WithEdge("items", "item", graph.Many, graph.EdgeStrong))
	schema.Declare("item", graph.WithFields("score", "tag"))

	scope := reactive.NewScope(nil)
	store := graph.NewStore(schema, scope, nil)
	p := store.Create("parent", nil)
	return store, p, p.Edge("items"), scope
}

func TestCountTracksAddAndRemove(t *testing.T) {
	store, _, col, _ := newFixture()
	count := Count(col)

	if count.Get() != 0 {
		t.Fatalf("expected 0, got %d", count.Get())
	}

	a := store.Create("item", nil)
	col.Add(a.ID())
	if count.Get() != 1 {
		t.Fatalf("expected 1, got %d", count.Get())
	}

	b := store.Create("item", nil)
	col.Add(b.ID())
	if count.Get() != 2 {
		t.Fatalf("expected 2, got %d", count.Get())
	}

	col.Remove(a.ID())
	if count.Get() != 1 {
		t.Fatalf("expected 1 after remove, got %d", count.Get())
	}
}

func TestPartitionedCountAndAny(t *testing.T) {
	store, _, col, scope := newFixture()
	col.DeclareIndex("tag", func(s *graph.Store, id graph.ID) any {
		e, _ := s.Entity(id)
		return e.Get("tag")
	})

	present := Any(scope, col, "tag", "hot")
	if present.Get() {
		t.Fatal("expected no presence before any item exists")
	}

	a := store.Create("item", map[string]any{"tag": "hot"})
	col.Add(a.ID())

	if !present.Get() {
		t.Fatal("expected presence after adding a matching item")
	}

	hotCount := PartitionedCount(scope, col, "tag", "hot")
	if hotCount.Get() != 1 {
		t.Fatalf("expected 1, got %d", hotCount.Get())
	}
}

func TestPickReturnsDeterministicFirstMatch(t *testing.T) {
	store, _, col, scope := newFixture()
	a := store.Create("item", map[string]any{"score": 1.0})
	b := store.Create("item", map[string]any{"score": 2.0})
	col.Add(a.ID())
	col.Add(b.ID())

	pick := Pick(scope, col, func(graph.ID) bool { return true }, nil)
	if pick.Get() != a.ID() {
		t.Fatalf("expected insertion-order tie-break to pick a, got %v", pick.Get())
	}
}

func TestSumTracksMemberFieldChanges(t *testing.T) {
	store, _, col, scope := newFixture()
	lookup := func(id graph.ID) (*graph.Entity, bool) { return store.Entity(id) }
	field := func(e *graph.Entity) float64 {
		v, _ := e.Get("score").(float64)
		return v
	}

	sum := Sum(scope, col, field, lookup)
	if sum.Get() != 0 {
		t.Fatalf("expected 0, got %v", sum.Get())
	}

	a := store.Create("item", map[string]any{"score": 3.0})
	col.Add(a.ID())
	if sum.Get() != 3 {
		t.Fatalf("expected 3, got %v", sum.Get())
	}

	a.Set("score", 5.0)
	if sum.Get() != 5 {
		t.Fatalf("expected 5 after updating the member's field, got %v", sum.Get())
	}

	col.Remove(a.ID())
	if sum.Get() != 0 {
		t.Fatalf("expected 0 after removing the only member, got %v", sum.Get())
	}
}

func TestMaxOverMembers(t *testing.T) {
	store, _, col, scope := newFixture()
	lookup := func(id graph.ID) (*graph.Entity, bool) { return store.Entity(id) }
	field := func(e *graph.Entity) float64 {
		v, _ := e.Get("score").(float64)
		return v
	}

	a := store.Create("item", map[string]any{"score": 3.0})
	b := store.Create("item", map[string]any{"score": 7.0})
	col.Add(a.ID())
	col.Add(b.ID())

	max := Max(scope, col, field, lookup)
	if max.Get() != 7 {
		t.Fatalf("expected 7, got %v", max.Get())
	}
}

func TestEdgeHop(t *testing.T) {
	store, p, col, scope := newFixture()
	a := store.Create("item", nil)
	col.Add(a.ID())

	hop := EdgeHop(scope, func() graph.ID { return a.ID() }, func(id graph.ID) graph.ID {
		if id == "" {
			return ""
		}
		return p.ID()
	})

	if hop.Get() != p.ID() {
		t.Fatalf("expected the hop to resolve to the parent id, got %v", hop.Get())
	}
}
