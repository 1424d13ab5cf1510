package query

import (
	"fmt"
	"strings"

	"github.com/aetherall/neodap/graph"
)

// Explain resolves raw step by step and renders each segment's
// resolved set, for debugging a query the way graph.RenderTree renders
// the entity graph itself. Unlike QueryMany/QueryOne it never errors
// on ambiguity or emptiness — those are reported as "(0 results)" /
// "(N results)" lines rather than failing the whole trace.
func Explain(r *Resolver, raw string, focus func(name string) (*graph.Entity, bool)) string {
	u, err := Parse(raw)
	if err != nil {
		return fmt.Sprintf("parse error: %v", err)
	}

	var b strings.Builder
	current := []*graph.Entity{r.root}
	if u.Anchor != "" {
		fmt.Fprintf(&b, "@%s", u.Anchor)
		if focus == nil {
			b.WriteString(" -> (no focus resolver)\n")
			return b.String()
		}
		e, ok := focus(u.Anchor)
		if !ok {
			b.WriteString(" -> (unresolved)\n")
			return b.String()
		}
		current = []*graph.Entity{e}
		fmt.Fprintf(&b, " -> %s(%s)\n", e.Type(), e.ID())
	}

	for _, seg := range u.Segments {
		next, err := r.step(current, seg)
		if err != nil {
			fmt.Fprintf(&b, "%s -> error: %v\n", seg.String(), err)
			return b.String()
		}
		fmt.Fprintf(&b, "%s -> (%d results)\n", seg.String(), len(next))
		for _, e := range next {
			fmt.Fprintf(&b, "  %s(%s)\n", e.Type(), e.ID())
		}
		current = next
	}
	return b.String()
}
