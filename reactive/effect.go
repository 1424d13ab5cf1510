package reactive

// EffectFunc is the body of a tracked computation. Every Signal.Get
// call made (directly or transitively) while body runs registers that
// signal as a dependency: a subsequent Set on any of them re-runs
// body. The returned Cleanup, if non-nil, runs immediately before the
// next re-run and once more when the owning Scope is disposed.
type EffectFunc func() Cleanup

// effect binds an EffectFunc to its tracking sink and latest cleanup.
type effect struct {
	sink    *trackingSink
	body    EffectFunc
	cleanup Cleanup
}

func (e *effect) run() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}

	e.sink.beginRun()
	pushSink(e.sink)
	defer func() {
		popSink()
		e.sink.endRun()
	}()

	e.cleanup = e.body()
}

func (e *effect) dispose() {
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
	e.sink.dispose()
}
