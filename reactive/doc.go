// Package reactive provides the signal/effect/scope primitives that the
// rest of neodap is built on: a single-value observable container
// (Signal), a tracked computation that re-runs when its dependencies
// change (Effect), and a hierarchical, disposable cancellation context
// (Scope).
//
// # Basic usage
//
//	scope := reactive.NewScope(nil)
//	defer scope.Dispose()
//
//	counter := reactive.NewSignal(0)
//
//	scope.Effect(func() reactive.Cleanup {
//	    fmt.Println("counter is now", counter.Get())
//	    return nil
//	})
//
//	counter.Set(1) // re-runs the effect once, before Set returns
//
// # Batching
//
// Multiple signals updated within one reactive.Batch call are flushed
// to subscribers exactly once, after the batch returns, in the order
// their subscribers were first scheduled, so no effect observes one of
// those signals updated next to another still stale (spec.md §4.1
// glitch-freedom).
package reactive
