package graph

import (
	"testing"

	"github.com/aetherall/neodap/reactive"
)

func newTestStore() (*Store, *reactive.Scope) {
	schema := NewSchema()
	schema.Declare("parent",
		WithFields("name"),
		WithEdge("children", "child", Many, EdgeStrong),
		WithEdge("favorite", "child", One, EdgeWeak),
	)
	schema.Declare("child", WithFields("label"))

	root := reactive.NewScope(nil)
	return NewStore(schema, root, nil), root
}

func TestCreateRunsOnCreatedHook(t *testing.T) {
	schema := NewSchema()
	var seen *Entity
	schema.Declare("widget", OnCreated(func(e *Entity) { seen = e }))
	store := NewStore(schema, reactive.NewScope(nil), nil)

	e := store.Create("widget", nil)
	if seen != e {
		t.Fatal("expected on_created hook to observe the new entity")
	}
}

func TestLinkAddsToCollectionAndRejectsUndeclaredEdge(t *testing.T) {
	store, _ := newTestStore()
	p := store.Create("parent", nil)
	c := store.Create("child", nil)

	if err := store.Link(p, "children", c); err != nil {
		t.Fatalf("unexpected error linking declared edge: %v", err)
	}
	if !p.Edge("children").Has(c.id) {
		t.Fatal("expected child present in parent's children edge")
	}

	if err := store.Link(p, "nope", c); err == nil {
		t.Fatal("expected an error linking an undeclared edge")
	}
}

func TestLinkRejectsSecondOccupantOfOneEdge(t *testing.T) {
	store, _ := newTestStore()
	p := store.Create("parent", nil)
	c1 := store.Create("child", nil)
	c2 := store.Create("child", nil)

	if err := store.Link(p, "favorite", c1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Link(p, "favorite", c2); err == nil {
		t.Fatal("expected an error occupying an already-set one-to-one edge")
	}
}

func TestUnlinkDoesNotDispose(t *testing.T) {
	store, _ := newTestStore()
	p := store.Create("parent", nil)
	c := store.Create("child", nil)
	store.Link(p, "children", c)

	store.Unlink(p, "children", c)

	if p.Edge("children").Has(c.id) {
		t.Fatal("expected child removed from parent's edge")
	}
	if !c.Alive().Get() {
		t.Fatal("expected unlink to leave the child alive")
	}
}

func TestCollectionIndexBucketsAndRebuckets(t *testing.T) {
	store, _ := newTestStore()
	p := store.Create("parent", nil)
	col := p.Edge("children")
	col.DeclareIndex("label", func(s *Store, id ID) any {
		e, _ := s.Entity(id)
		return e.Get("label")
	})

	c := store.Create("child", map[string]any{"label": "a"})
	col.Add(c.id)

	if got := col.Where("label", "a").Snapshot(); len(got) != 1 || got[0] != c.id {
		t.Fatalf("expected c bucketed under label=a, got %v", got)
	}

	c.Set("label", "b")
	if got := col.Where("label", "a").Snapshot(); len(got) != 0 {
		t.Fatalf("expected bucket a empty after rekey, got %v", got)
	}
	if got := col.Where("label", "b").Snapshot(); len(got) != 1 || got[0] != c.id {
		t.Fatalf("expected c rebucketed under label=b, got %v", got)
	}
}

func TestFilteredViewIntersection(t *testing.T) {
	store, _ := newTestStore()
	p := store.Create("parent", nil)
	col := p.Edge("children")
	col.DeclareIndex("label", func(s *Store, id ID) any {
		e, _ := s.Entity(id)
		return e.Get("label")
	})
	col.DeclareIndex("group", func(s *Store, id ID) any {
		e, _ := s.Entity(id)
		return e.Get("group")
	})

	a := store.Create("child", map[string]any{"label": "x", "group": 1})
	b := store.Create("child", map[string]any{"label": "x", "group": 2})
	col.Add(a.id)
	col.Add(b.id)

	view := col.Where("label", "x").Where("group", 1)
	got := view.Snapshot()
	if len(got) != 1 || got[0] != a.id {
		t.Fatalf("expected only a in the intersected view, got %v", got)
	}
}

func TestCollectionSnapshotIsolatesLaterMutation(t *testing.T) {
	store, _ := newTestStore()
	p := store.Create("parent", nil)
	col := p.Edge("children")
	a := store.Create("child", nil)
	col.Add(a.id)

	snap := col.Snapshot()
	b := store.Create("child", nil)
	col.Add(b.id)

	if len(snap) != 1 {
		t.Fatalf("expected the earlier snapshot unaffected by a later add, got %v", snap)
	}
}

func TestDoubleRemoveIsNoOp(t *testing.T) {
	store, _ := newTestStore()
	p := store.Create("parent", nil)
	col := p.Edge("children")
	a := store.Create("child", nil)
	col.Add(a.id)

	if !col.Remove(a.id) {
		t.Fatal("expected the first remove to report true")
	}
	if col.Remove(a.id) {
		t.Fatal("expected a second remove to be a no-op reporting false")
	}
}
