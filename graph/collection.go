package graph

import (
	"sync"

	"github.com/aetherall/neodap/reactive"
)

// Collection is a reactive, ordered set of entity ids with zero or
// more named indexes (spec.md §4.2). It backs every "*" edge target
// (Debugger.sessions, Session.threads, …) as well as any top-level set
// the dap package wants to index (e.g. "all sources").
type Collection struct {
	mu      sync.Mutex
	store   *Store
	scope   *reactive.Scope
	order   []ID
	pos     map[ID]int
	indexes map[string]*Index
	effects map[string]map[ID]reactive.Cleanup
	version *reactive.Signal[int]
	onAdd   []func(ID)
	onRemove []func(ID)
}

func newCollection(store *Store, scope *reactive.Scope) *Collection {
	return &Collection{
		store:   store,
		scope:   scope,
		pos:     make(map[ID]int),
		indexes: make(map[string]*Index),
		effects: make(map[string]map[ID]reactive.Cleanup),
		version: reactive.NewSignal(0),
	}
}

// DeclareIndex registers a named index, bucketed by project. Existing
// members are placed immediately; members added later are placed on
// Add. If project reads a Signal through store's field accessors, a
// per-member effect keeps the bucket assignment current (spec.md
// §4.2: reactive indexes re-bucket atomically on signal change).
func (c *Collection) DeclareIndex(name string, project Project) *Index {
	c.mu.Lock()
	idx := newIndex(name, project)
	c.indexes[name] = idx
	c.effects[name] = make(map[ID]reactive.Cleanup)
	members := append([]ID(nil), c.order...)
	c.mu.Unlock()

	for _, id := range members {
		c.trackInIndex(name, idx, id)
	}
	return idx
}

// Index returns a previously declared index by name.
func (c *Collection) Index(name string) (*Index, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.indexes[name]
	return idx, ok
}

func (c *Collection) trackInIndex(name string, idx *Index, id ID) {
	idx.place(c.store, id)
	cleanup := c.scope.Effect(func() reactive.Cleanup {
		before, _ := idx.KeyOf(id)
		idx.rebucket(c.store, id)
		if after, _ := idx.KeyOf(id); after != before {
			c.version.Update(func(v int) int { return v + 1 })
		}
		return nil
	})
	c.mu.Lock()
	c.effects[name][id] = cleanup
	c.mu.Unlock()
}

// Add appends id to the collection if not already present. Reports
// whether it was actually added.
func (c *Collection) Add(id ID) bool {
	c.mu.Lock()
	if _, exists := c.pos[id]; exists {
		c.mu.Unlock()
		return false
	}
	c.pos[id] = len(c.order)
	c.order = append(c.order, id)
	indexes := make(map[string]*Index, len(c.indexes))
	for name, idx := range c.indexes {
		indexes[name] = idx
	}
	c.mu.Unlock()

	for name, idx := range indexes {
		c.trackInIndex(name, idx, id)
	}
	c.version.Update(func(v int) int { return v + 1 })

	c.mu.Lock()
	hooks := make([]func(ID), len(c.onAdd))
	copy(hooks, c.onAdd)
	c.mu.Unlock()
	for _, hook := range hooks {
		hook(id)
	}
	return true
}

// Remove drops id from the collection and every declared index,
// disposing any reactive-index tracking effect for it. Reports
// whether it was present.
func (c *Collection) Remove(id ID) bool {
	c.mu.Lock()
	i, exists := c.pos[id]
	if !exists {
		c.mu.Unlock()
		return false
	}
	c.order = append(c.order[:i], c.order[i+1:]...)
	for j := i; j < len(c.order); j++ {
		c.pos[c.order[j]] = j
	}
	delete(c.pos, id)

	var cleanups []reactive.Cleanup
	for name, idx := range c.indexes {
		idx.drop(id)
		if cleanup, ok := c.effects[name][id]; ok {
			cleanups = append(cleanups, cleanup)
			delete(c.effects[name], id)
		}
	}
	c.mu.Unlock()

	for _, cleanup := range cleanups {
		cleanup()
	}
	c.version.Update(func(v int) int { return v + 1 })

	c.mu.Lock()
	hooks := make([]func(ID), len(c.onRemove))
	copy(hooks, c.onRemove)
	c.mu.Unlock()
	for _, hook := range hooks {
		hook(id)
	}
	return true
}

// OnAdd registers fn to run, synchronously, every time a new member is
// added. Used by the rollup package to maintain a running total
// without re-scanning on every membership change.
func (c *Collection) OnAdd(fn func(ID)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onAdd = append(c.onAdd, fn)
}

// OnRemove registers fn to run, synchronously, every time a member is
// removed.
func (c *Collection) OnRemove(fn func(ID)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRemove = append(c.onRemove, fn)
}

// Has reports whether id is currently a member.
func (c *Collection) Has(id ID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pos[id]
	return ok
}

// Len returns the current member count.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Snapshot returns the membership at the moment of the call. Ranging
// over the result is safe even if the collection is concurrently
// mutated: items added afterward are absent, items removed mid-range
// are simply not visited again (spec.md §4.2 "documented semantics").
func (c *Collection) Snapshot() []ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ID, len(c.order))
	copy(out, c.order)
	return out
}

// Version is a Signal that changes on every Add/Remove and whenever a
// member moves to a different bucket of one of its indexes, so a derived
// rollup (Count, Sum, …) can depend on membership without re-scanning
// to detect a change itself.
func (c *Collection) Version() *reactive.Signal[int] { return c.version }

// Where returns a lazy view restricted to members bucketed under key
// in the named index (spec.md §4.2 filtered subcollections).
func (c *Collection) Where(indexName string, key any) *FilteredView {
	idx, ok := c.Index(indexName)
	if !ok {
		panic("graph: no such index " + indexName)
	}
	return &FilteredView{parent: c, index: idx, key: key}
}

// FilteredView is `parent.where(index_name, key)`: it exposes the
// parent's other indexes restricted to members matching key. A view
// produced by further calling Where on an existing view intersects
// rather than replaces the restriction.
type FilteredView struct {
	parent     *Collection
	index      *Index
	key        any
	restrictTo *FilteredView
}

// Snapshot returns the ids in this view at the moment of the call.
func (v *FilteredView) Snapshot() []ID {
	bucket := v.index.Bucket(v.key)
	if v.restrictTo == nil {
		return bucket
	}
	allowed := make(map[ID]struct{})
	for _, id := range v.restrictTo.Snapshot() {
		allowed[id] = struct{}{}
	}
	out := make([]ID, 0, len(bucket))
	for _, id := range bucket {
		if _, ok := allowed[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Len reports the current view size.
func (v *FilteredView) Len() int {
	return len(v.Snapshot())
}

// Where further restricts the view by another of the parent's
// indexes, intersecting membership.
func (v *FilteredView) Where(indexName string, key any) *FilteredView {
	idx, ok := v.parent.Index(indexName)
	if !ok {
		panic("graph: no such index " + indexName)
	}
	return &FilteredView{parent: v.parent, index: idx, key: key, restrictTo: v}
}
