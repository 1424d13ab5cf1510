package graph

import "fmt"

// NotFoundError reports a lookup against an id the Store has no
// record of (spec.md §7).
type NotFoundError struct {
	ID ID
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("graph: entity %q not found", e.ID) }

// SchemaViolationError reports an operation that the declared Schema
// forbids: linking an undeclared edge, exceeding a One-cardinality
// edge's single slot, or targeting a type the edge wasn't declared
// against (spec.md §7).
type SchemaViolationError struct {
	Type   string
	Edge   string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("graph: schema violation on %s.%s: %s", e.Type, e.Edge, e.Reason)
}
