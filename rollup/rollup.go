// Package rollup implements the derived-Signal kinds of spec.md §4.3:
// Count, partitioned count, presence, pick, and numeric sum/max over a
// graph.Collection, plus edge-hop computed values. Every rollup here
// is a *reactive.Signal, so it composes into further derivations the
// same way any other signal does.
//
// The declaration ergonomics (one call per rollup kind, returning a
// ready-to-use Signal) are modeled on the teacher's executor_generated.go
// DeriveN family — a computed value over N typed dependencies — but the
// recompute strategy is not a dependency-graph invalidation the way
// DeriveN's is. Count and Sum hook graph.Collection's OnAdd/OnRemove
// and update the Signal by a delta; PartitionedCount re-reads one
// index bucket whenever the collection's Version changes; Pick and Max
// re-scan every member whenever Version (or a signal they read)
// changes (spec.md §4.3: "incremental where feasible").
package rollup

import (
	"github.com/aetherall/neodap/graph"
	"github.com/aetherall/neodap/reactive"
)

// Count returns a Signal tracking col's live member count, maintained
// by +1/-1 on every Add/Remove.
func Count(col *graph.Collection) *reactive.Signal[int] {
	out := reactive.NewSignal(col.Len())
	col.OnAdd(func(graph.ID) { out.Update(func(v int) int { return v + 1 }) })
	col.OnRemove(func(graph.ID) { out.Update(func(v int) int { return v - 1 }) })
	return out
}

// PartitionedCount returns a Signal tracking the number of col's
// members bucketed under key in the named index — itself already
// incrementally maintained by graph.Index, so this only needs to
// observe the index's declaring collection's Version to know when to
// re-read the bucket length, which is an O(bucket size) copy, not an
// O(collection size) scan.
func PartitionedCount(scope *reactive.Scope, col *graph.Collection, indexName string, key any) *reactive.Signal[int] {
	idx, ok := col.Index(indexName)
	if !ok {
		panic("rollup: no such index " + indexName)
	}
	out := reactive.NewSignal(len(idx.Bucket(key)))
	scope.Effect(func() reactive.Cleanup {
		col.Version().Get()
		out.Set(len(idx.Bucket(key)))
		return nil
	})
	return out
}

// Any reports whether at least one member of col's named-index bucket
// for key exists — the Presence rollup of spec.md §4.3.
func Any(scope *reactive.Scope, col *graph.Collection, indexName string, key any) *reactive.Signal[bool] {
	count := PartitionedCount(scope, col, indexName, key)
	out := reactive.NewSignal(count.Peek() > 0)
	scope.Effect(func() reactive.Cleanup {
		out.Set(count.Get() > 0)
		return nil
	})
	return out
}

// TieBreaker picks the winner among candidates that satisfy a Pick
// rollup's predicate. The default is insertion order (spec.md §4.3
// "deterministic by a declared tie-breaker (insertion order by
// default)"): candidates is already in Collection insertion order, so
// the default breaker is simply "first in candidates".
type TieBreaker func(candidates []graph.ID) graph.ID

// FirstInOrder is the default TieBreaker.
func FirstInOrder(candidates []graph.ID) graph.ID { return candidates[0] }

// Pick returns a Signal holding the chosen member of col matching
// predicate, or "" if none match, re-evaluated whenever col's
// membership changes. predicate runs inside the rollup's effect, so
// any signal it reads with Get (e.g. an entity field) is tracked too:
// a change to one of them also re-evaluates the pick.
func Pick(scope *reactive.Scope, col *graph.Collection, predicate func(graph.ID) bool, breaker TieBreaker) *reactive.Signal[graph.ID] {
	if breaker == nil {
		breaker = FirstInOrder
	}
	recompute := func() graph.ID {
		var candidates []graph.ID
		for _, id := range col.Snapshot() {
			if predicate(id) {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) == 0 {
			return ""
		}
		return breaker(candidates)
	}

	out := reactive.NewSignal(recompute())
	scope.Effect(func() reactive.Cleanup {
		col.Version().Get()
		out.Set(recompute())
		return nil
	})
	return out
}

// Sum maintains a running total of field(id) over col's members,
// updated by delta on Add/Remove/field-change rather than by summing
// from scratch.
func Sum(scope *reactive.Scope, col *graph.Collection, field func(*graph.Entity) float64, lookup func(graph.ID) (*graph.Entity, bool)) *reactive.Signal[float64] {
	out := reactive.NewSignal(0.0)
	contrib := make(map[graph.ID]float64)
	stopTracking := make(map[graph.ID]reactive.Cleanup)

	track := func(id graph.ID) {
		e, ok := lookup(id)
		if !ok {
			return
		}
		stopTracking[id] = scope.Effect(func() reactive.Cleanup {
			v := field(e)
			delta := v - contrib[id]
			contrib[id] = v
			out.Update(func(sum float64) float64 { return sum + delta })
			return nil
		})
	}

	for _, id := range col.Snapshot() {
		track(id)
	}
	col.OnAdd(track)
	col.OnRemove(func(id graph.ID) {
		if stop, ok := stopTracking[id]; ok {
			stop()
			delete(stopTracking, id)
		}
		if v, ok := contrib[id]; ok {
			out.Update(func(sum float64) float64 { return sum - v })
			delete(contrib, id)
		}
	})

	return out
}

// Max returns a Signal holding the maximum of field(id) over col's
// current members, recomputed over the member set (not the whole
// collection tree) whenever membership or field values change.
func Max(scope *reactive.Scope, col *graph.Collection, field func(*graph.Entity) float64, lookup func(graph.ID) (*graph.Entity, bool)) *reactive.Signal[float64] {
	recompute := func() float64 {
		max := 0.0
		first := true
		for _, id := range col.Snapshot() {
			e, ok := lookup(id)
			if !ok {
				continue
			}
			v := field(e)
			if first || v > max {
				max = v
				first = false
			}
		}
		return max
	}

	out := reactive.NewSignal(recompute())
	scope.Effect(func() reactive.Cleanup {
		col.Version().Get()
		out.Set(recompute())
		return nil
	})
	return out
}

// EdgeHop returns a Signal computed by following a single-valued
// accessor from one entity to another, e.g. `Frame.session =
// frame.stack.thread.session` (spec.md §4.3 "edge hop"). hop must be
// safe to call with a possibly-"" id (an unresolved hop at any stage
// yields "").
func EdgeHop(scope *reactive.Scope, start func() graph.ID, hop func(graph.ID) graph.ID) *reactive.Signal[graph.ID] {
	recompute := func() graph.ID { return hop(start()) }
	out := reactive.NewSignal(recompute())
	scope.Effect(func() reactive.Cleanup {
		out.Set(recompute())
		return nil
	})
	return out
}
