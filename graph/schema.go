package graph

import (
	"fmt"
	"sync"
)

// OnCreatedHook runs once, synchronously, right after an entity of its
// type is created — before Store.Create returns it to the caller.
type OnCreatedHook func(e *Entity)

// TypeDef is the declared shape of one entity type: its fields (for
// documentation and validation; values themselves are untyped at the
// graph layer and typed again by the dap package's wrappers), its
// edges, and its on_created hooks.
type TypeDef struct {
	Name      string
	Fields    []string
	Edges     map[string]EdgeDef
	onCreated []OnCreatedHook
}

// TypeOption configures a TypeDef at declaration time.
type TypeOption func(*TypeDef)

// WithFields declares the type's field names.
func WithFields(names ...string) TypeOption {
	return func(td *TypeDef) { td.Fields = append(td.Fields, names...) }
}

// WithEdge declares one outgoing edge.
func WithEdge(name, target string, cardinality Cardinality, mode EdgeMode) TypeOption {
	return func(td *TypeDef) {
		td.Edges[name] = EdgeDef{Name: name, Target: target, Cardinality: cardinality, Mode: mode}
	}
}

// OnCreated registers a hook run once per new entity of this type.
func OnCreated(fn OnCreatedHook) TypeOption {
	return func(td *TypeDef) { td.onCreated = append(td.onCreated, fn) }
}

// Schema is the process-wide registry of entity types, declared once
// at startup (spec.md §4.2: "declared once per process"). It is
// analogous to the teacher's static Executor dependency declarations:
// nothing about an entity's shape is inferred at runtime.
type Schema struct {
	mu    sync.RWMutex
	types map[string]*TypeDef
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{types: make(map[string]*TypeDef)}
}

// Declare registers a new entity type. Declaring the same name twice
// panics: schema mistakes are a programming error, not a runtime
// condition to recover from.
func (s *Schema) Declare(name string, opts ...TypeOption) *TypeDef {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.types[name]; exists {
		panic(fmt.Sprintf("graph: type %q already declared", name))
	}

	td := &TypeDef{Name: name, Edges: make(map[string]EdgeDef)}
	for _, opt := range opts {
		opt(td)
	}
	s.types[name] = td
	return td
}

// TypeOf returns the declared TypeDef for name, or false if name was
// never declared.
func (s *Schema) TypeOf(name string) (*TypeDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, ok := s.types[name]
	return td, ok
}

// EdgeOf returns the EdgeDef for (typeName, edgeName).
func (s *Schema) EdgeOf(typeName, edgeName string) (EdgeDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	td, ok := s.types[typeName]
	if !ok {
		return EdgeDef{}, false
	}
	ed, ok := td.Edges[edgeName]
	return ed, ok
}
