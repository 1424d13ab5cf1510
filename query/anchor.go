package query

import "github.com/aetherall/neodap/graph"

// FocusField is the name of the Debugger field anchors resolve
// against (spec.md §3 Debugger.focusedUrl, §4.5 "anchors are backed by
// the Debugger's focusedUrl field").
const FocusField = "focusedUrl"

// Focus resolves the Debugger's current focusedUrl and answers anchor
// lookups by name against it. Anchors resolve lazily on each read
// (spec.md §4.5): Entity walks the strong-parent chain up from the
// freshly re-resolved focus entity, since every entity type in this
// spec has at most one strong parent (spec.md §3 "exactly one owning
// edge") — an anchor is never itself a descendant of the current
// focus, only the focus itself or one of its ancestors.
func Entity(r *Resolver, debugger *graph.Entity, name string) (*graph.Entity, bool) {
	raw, _ := debugger.Get(FocusField).(string)
	if raw == "" {
		return nil, false
	}
	u, err := Parse(raw)
	if err != nil {
		return nil, false
	}
	results, err := r.Resolve(u, nil)
	if err != nil || len(results) != 1 {
		return nil, false
	}
	focus := results[0]

	for cur := focus; cur != nil; {
		if cur.Type() == name {
			return cur, true
		}
		parentID, ok := r.store.StrongParent(cur.ID())
		if !ok {
			return nil, false
		}
		parent, ok := r.store.Entity(parentID)
		if !ok {
			return nil, false
		}
		cur = parent
	}
	return nil, false
}

// SetFocus resolves raw to exactly one entity and stores its canonical
// URL on debugger's focusedUrl field. If raw does not resolve to
// exactly one entity, SetFocus trims trailing path segments and
// retries until an unambiguous ancestor resolves or no segments
// remain, in which case it is a silent no-op (spec.md §4.5: "setting
// focus to an absent URL walks up path segments until a resolvable
// ancestor is found or the URL is exhausted").
func SetFocus(r *Resolver, debugger *graph.Entity, raw string) {
	u, err := Parse(raw)
	if err != nil {
		return
	}

	for segments := u.Segments; len(segments) > 0; segments = segments[:len(segments)-1] {
		trial := &URL{Anchor: u.Anchor, Segments: segments}
		results, err := r.Resolve(trial, func(name string) (*graph.Entity, bool) {
			return Entity(r, debugger, name)
		})
		if err == nil && len(results) == 1 {
			debugger.Set(FocusField, trial.String())
			return
		}
	}
}
