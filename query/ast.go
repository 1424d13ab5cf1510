// Package query implements the URL grammar of spec.md §4.5: a path of
// edge-name segments, each with an optional filter and selector,
// optionally anchored to a focused entity instead of the graph root.
//
// The parser is a small hand-written recursive-descent scanner over
// stdlib strings/strconv only. No repo in the retrieval pack implements
// this shape of path+filter+selector DSL (the closest analogues, the
// teacher's Executor dependency declarations and the pack's schema
// validators, are static declarations, not a query language parsed at
// request time), so there is no third-party parser combinator or
// grammar library to ground this on; a hand-rolled descent parser over
// a four-production grammar is the idiomatic Go answer regardless.
package query

import (
	"strconv"
	"strings"
)

// Op is a filter comparison operator (spec.md §4.5 `op`).
type Op int

const (
	OpEq Op = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return "?"
	}
}

// Filter is one `field op value` clause; a segment may carry several,
// comma-separated, all of which must match (logical AND).
type Filter struct {
	Field string
	Op    Op
	Value string
}

// Selector picks one element out of a segment's resolved list.
type Selector struct {
	Index *int
	First bool
	Last  bool
}

// Segment is one `type(filter)?selector?` path component. Type is the
// edge name to walk from the current entity/entities (spec.md §4.5:
// "walks edges by name").
type Segment struct {
	Type     string
	Filters  []Filter
	Selector *Selector
}

// URL is a fully parsed query: an optional anchor name (spec.md §4.5
// `@name`) followed by zero or more segments.
type URL struct {
	Anchor   string
	Segments []Segment
}

// String renders the canonical form of u — the form SetFocus stores,
// so that re-parsing String()'s output always reproduces an
// equivalent URL (spec.md §4.5 "setting focus stores the canonical
// URL").
func (u *URL) String() string {
	var b strings.Builder
	if u.Anchor != "" {
		b.WriteByte('@')
		b.WriteString(u.Anchor)
	}
	for _, seg := range u.Segments {
		if b.Len() > 0 {
			b.WriteByte('/')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

func (s *Segment) String() string {
	var b strings.Builder
	b.WriteString(s.Type)
	if len(s.Filters) > 0 {
		b.WriteByte('(')
		for i, f := range s.Filters {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Field)
			b.WriteString(f.Op.String())
			b.WriteString(f.Value)
		}
		b.WriteByte(')')
	}
	if s.Selector != nil {
		b.WriteByte('[')
		switch {
		case s.Selector.First:
			b.WriteString("first")
		case s.Selector.Last:
			b.WriteString("last")
		case s.Selector.Index != nil:
			b.WriteString(strconv.Itoa(*s.Selector.Index))
		}
		b.WriteByte(']')
	}
	return b.String()
}
