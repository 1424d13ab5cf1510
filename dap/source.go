package dap

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"

	"github.com/aetherall/neodap/graph"
)

// correlationKey computes the dedup key of spec.md §4.6: a source with
// an absolute path is keyed on that canonical path; a reference-only
// source (sourceReference > 0, no stable path — e.g. decompiled or
// dynamically generated code) is keyed on an 8-byte stability hash
// folding its name, origin, and checksums, so the same logical source
// re-reported by a second session (or a second stopped event) maps
// back onto the one Source entity already in the graph.
func correlationKey(b SourceBody) string {
	if b.Path != "" {
		return "path:" + filepath.Clean(b.Path)
	}

	h := sha256.New()
	h.Write([]byte(b.Name))
	h.Write([]byte{0})
	h.Write([]byte(b.Origin))
	for _, c := range b.Checksums {
		h.Write([]byte{0})
		h.Write([]byte(c.Algorithm))
		h.Write([]byte{0})
		h.Write([]byte(c.Checksum))
	}
	sum := h.Sum(nil)[:8]
	return "hash:" + hex.EncodeToString(sum)
}

// sources owns the process-wide Source dedup table hung off the
// Debugger entity (spec.md §4.6: "sources are deduplicated across
// sessions by correlation key, never duplicated per session").
type sources struct {
	store    *graph.Store
	debugger *graph.Entity
	byKey    map[string]*graph.Entity
}

func newSources(store *graph.Store, debugger *graph.Entity) *sources {
	return &sources{store: store, debugger: debugger, byKey: make(map[string]*graph.Entity)}
}

// Resolve returns the Source entity for b, creating one on first sight
// and reusing it on every subsequent report that correlates to the
// same key — including across sessions and across sourceReference
// values that change between runs of the same reference-only source.
// session's binding to that source is found or created as a side
// effect (spec.md §3: one SourceBinding per (session,source) pair,
// carrying the session-specific sourceReference — a session-local
// numbering that the shared Source entity must not overwrite, since a
// second session can assign the same logical file a different
// reference).
func (s *sources) Resolve(session *graph.Entity, b SourceBody) *graph.Entity {
	key := correlationKey(b)
	e, ok := s.byKey[key]
	if !ok {
		e = s.store.Create("source", map[string]any{
			"name":            b.Name,
			"path":            b.Path,
			"sourceReference": b.SourceReference,
			"origin":          b.Origin,
			"correlationKey":  key,
		})
		s.store.Link(s.debugger, "sources", e)
		s.byKey[key] = e
	} else if b.Name != "" {
		// A later report of the same correlation key may still refresh
		// denormalized display fields (the adapter renamed a file on
		// disk, say) without changing identity.
		e.Set("name", b.Name)
	}

	if session != nil {
		s.bind(session, e, b.SourceReference)
	}
	return e
}

// bind finds or creates the SourceBinding for (session, src), refreshing
// its session-specific sourceReference on every sighting.
func (s *sources) bind(session, src *graph.Entity, sourceReference int) *graph.Entity {
	for _, id := range session.Edge("sourceBindings").Snapshot() {
		binding, ok := s.store.Entity(id)
		if !ok {
			continue
		}
		if srcID, ok := binding.One("source"); ok && srcID == src.ID() {
			binding.Set("sourceReference", sourceReference)
			return binding
		}
	}

	binding := s.store.Create("sourceBinding", map[string]any{
		"sourceReference": sourceReference,
	})
	s.store.Link(src, "bindings", binding)
	s.store.Link(binding, "source", src)
	s.store.Link(session, "sourceBindings", binding)
	return binding
}
