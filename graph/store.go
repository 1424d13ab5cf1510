package graph

import (
	"sync"

	"github.com/google/uuid"

	"github.com/aetherall/neodap/reactive"
)

// Store is the process-wide entity table: every Entity created by
// Create lives here, addressable by ID, with the edge bookkeeping
// (forward Collections plus reverse references, for weak-reference
// clearing on disposal) that Link/Unlink maintain.
//
// Disposal propagation itself — the graph walk that decides *which*
// entities a delete reaches — lives in the lifecycle package, which
// operates only through the exported accessors below (ReverseRefs,
// StrongTargets, PropagatingTargets, Teardown). Store never walks the graph on its own;
// it only knows about one edge at a time.
type Store struct {
	mu       sync.RWMutex
	schema   *Schema
	root     *reactive.Scope
	entities map[ID]*Entity
	reverse  map[ID]map[ReverseRef]struct{}
	logger   Logger
}

// Logger is the narrow slog surface Store needs; satisfied directly
// by *slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// ReverseRef names one (owner, edge) pointer into an entity, used by
// the lifecycle package to walk and clear back-references on disposal.
type ReverseRef struct {
	Owner ID
	Edge  string
}

// NewStore creates an empty Store bound to schema, with root as the
// scope every entity's own scope nests under (so disposing root tears
// every entity down, the way disposing the teacher's root Scope tears
// every Controller down).
func NewStore(schema *Schema, root *reactive.Scope, logger Logger) *Store {
	return &Store{
		schema:   schema,
		root:     root,
		entities: make(map[ID]*Entity),
		reverse:  make(map[ID]map[ReverseRef]struct{}),
		logger:   logger,
	}
}

// Schema returns the schema this store validates edges against.
func (s *Store) Schema() *Schema { return s.schema }

// Create allocates a new entity of typ, runs its type's on_created
// hooks, and registers it (spec.md §4.2 "create(type, initial_fields)
// ... triggers the type's on_created hooks").
func (s *Store) Create(typ string, initial map[string]any) *Entity {
	td, ok := s.schema.TypeOf(typ)
	if !ok {
		panic("graph: undeclared type " + typ)
	}

	e := &Entity{
		id:      ID(uuid.NewString()),
		typ:     typ,
		store:   s,
		scope:   s.root.Child(),
		fields:  make(map[string]*reactive.Signal[any]),
		edges:   make(map[string]*Collection),
		current: reactive.NewSignal(true),
		alive:   reactive.NewSignal(true),
	}
	for name, v := range initial {
		e.Field(name).Set(v)
	}

	s.mu.Lock()
	s.entities[e.id] = e
	s.mu.Unlock()

	for _, hook := range td.onCreated {
		hook(e)
	}
	if s.logger != nil {
		s.logger.Debug("graph: created entity", "type", typ, "id", string(e.id))
	}
	return e
}

// Entity looks up an entity by id.
func (s *Store) Entity(id ID) (*Entity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entities[id]
	return e, ok
}

// MustEntity is Entity, panicking if id is unknown; used at call sites
// that already validated id came from a collection membership (and so
// cannot be stale, since Teardown removes memberships before the
// entity record itself is dropped).
func (s *Store) MustEntity(id ID) *Entity {
	e, ok := s.Entity(id)
	if !ok {
		panic((&NotFoundError{ID: id}).Error())
	}
	return e
}

// Link adds child to parent's named edge collection, enforcing the
// edge's declared cardinality, and records the reverse reference used
// to clear weak/lifecycle back-pointers on disposal (spec.md §4.2).
func (s *Store) Link(parent *Entity, edgeName string, child *Entity) error {
	def, ok := s.schema.EdgeOf(parent.typ, edgeName)
	if !ok {
		return &SchemaViolationError{Type: parent.typ, Edge: edgeName, Reason: "edge not declared"}
	}
	if def.Target != child.typ {
		return &SchemaViolationError{Type: parent.typ, Edge: edgeName, Reason: "target type mismatch: expected " + def.Target + ", got " + child.typ}
	}

	col := parent.Edge(edgeName)
	if def.Cardinality == One && col.Len() >= 1 && !col.Has(child.id) {
		return &SchemaViolationError{Type: parent.typ, Edge: edgeName, Reason: "one-to-one edge already occupied"}
	}

	col.Add(child.id)

	s.mu.Lock()
	if s.reverse[child.id] == nil {
		s.reverse[child.id] = make(map[ReverseRef]struct{})
	}
	s.reverse[child.id][ReverseRef{Owner: parent.id, Edge: edgeName}] = struct{}{}
	s.mu.Unlock()

	return nil
}

// Unlink removes child from parent's named edge without disposing it
// (spec.md §4.2 "unlink removes without disposing").
func (s *Store) Unlink(parent *Entity, edgeName string, child *Entity) {
	parent.Edge(edgeName).Remove(child.id)

	s.mu.Lock()
	if refs, ok := s.reverse[child.id]; ok {
		delete(refs, ReverseRef{Owner: parent.id, Edge: edgeName})
		if len(refs) == 0 {
			delete(s.reverse, child.id)
		}
	}
	s.mu.Unlock()
}

// StrongTargets returns the ids directly reachable from e via strong
// edges — the lifecycle package's disposal walk frontier.
func (s *Store) StrongTargets(e *Entity) []ID {
	return s.targetsByMode(e, EdgeStrong)
}

// PropagatingTargets returns the ids directly reachable from e via
// strong or lifecycle edges — the lifecycle package's staleness walk
// frontier.
func (s *Store) PropagatingTargets(e *Entity) []ID {
	out := s.targetsByMode(e, EdgeStrong)
	out = append(out, s.targetsByMode(e, EdgeLifecycle)...)
	return out
}

// StrongEdgeMembers returns the members of e's named edge if that edge
// is declared strong, or nil otherwise — used by RenderTree to walk
// only the ownership tree, not weak/lifecycle cross-references.
func (s *Store) StrongEdgeMembers(e *Entity, edgeName string) []ID {
	def, ok := s.schema.EdgeOf(e.typ, edgeName)
	if !ok || def.Mode != EdgeStrong {
		return nil
	}
	return e.Edge(edgeName).Snapshot()
}

func (s *Store) targetsByMode(e *Entity, mode EdgeMode) []ID {
	td, ok := s.schema.TypeOf(e.typ)
	if !ok {
		return nil
	}
	var out []ID
	for name, def := range td.Edges {
		if def.Mode != mode {
			continue
		}
		out = append(out, e.Edge(name).Snapshot()...)
	}
	return out
}

// StrongParent returns the one entity that owns id via a strong edge,
// if any (spec.md §3: "every entity has exactly one owning edge").
// Used by the query package to walk up the entity tree when resolving
// an anchor to an ancestor of a different type.
func (s *Store) StrongParent(id ID) (ID, bool) {
	for _, ref := range s.ReverseRefs(id) {
		owner, ok := s.Entity(ref.Owner)
		if !ok {
			continue
		}
		def, ok := s.schema.EdgeOf(owner.typ, ref.Edge)
		if ok && def.Mode == EdgeStrong {
			return ref.Owner, true
		}
	}
	return "", false
}

// ReverseRefs returns every (owner, edge) pair currently pointing at
// id, across every type — used to clear weak/lifecycle back-pointers
// when id is disposed.
func (s *Store) ReverseRefs(id ID) []ReverseRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := s.reverse[id]
	out := make([]ReverseRef, 0, len(refs))
	for r := range refs {
		out = append(out, r)
	}
	return out
}

// Teardown performs the single-entity half of disposal: it removes id
// from every collection that references it (clearing the back-pointer
// on the owner side), marks alive=false, disposes the entity's own
// scope (LIFO effects and cleanups), and finally drops the entity
// record. Called by lifecycle.Dispose once per entity in the order its
// graph walk determines (spec.md §4.4 ordering invariants: strong
// children torn down before their parent is removed).
func (s *Store) Teardown(id ID) {
	e, ok := s.Entity(id)
	if !ok {
		return
	}

	for _, ref := range s.ReverseRefs(id) {
		if owner, ok := s.Entity(ref.Owner); ok {
			owner.Edge(ref.Edge).Remove(id)
		}
	}

	e.alive.Set(false)
	e.scope.Dispose()

	s.mu.Lock()
	delete(s.entities, id)
	delete(s.reverse, id)
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.Debug("graph: disposed entity", "type", e.typ, "id", string(id))
	}
}
