package reactive

import "sync"

// trackingSink is the scheduler's view of an Effect: something that
// can be re-run and that records which signals it read last time it
// ran, so Set can find it again.
type trackingSink struct {
	mu      sync.Mutex
	rerun   func()
	reading bool
	tracked map[anySignal]Cleanup
}

func newTrackingSink(rerun func()) *trackingSink {
	return &trackingSink{
		rerun:   rerun,
		tracked: make(map[anySignal]Cleanup),
	}
}

// track registers s as a dependency read during the sink's current
// run. Called from Signal.Get via currentSink().
func (t *trackingSink) track(s anySignal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.reading {
		return
	}
	if _, ok := t.tracked[s]; ok {
		return
	}
	t.tracked[s] = s.trackedBy(t)
}

// beginRun clears the previous run's dependency set and marks the
// sink as actively tracking reads again.
func (t *trackingSink) beginRun() {
	t.mu.Lock()
	prev := t.tracked
	t.tracked = make(map[anySignal]Cleanup)
	t.reading = true
	t.mu.Unlock()

	for _, unsub := range prev {
		unsub()
	}
}

func (t *trackingSink) endRun() {
	t.mu.Lock()
	t.reading = false
	t.mu.Unlock()
}

// dispose drops every tracked dependency, detaching the sink from the
// signal graph permanently.
func (t *trackingSink) dispose() {
	t.mu.Lock()
	tracked := t.tracked
	t.tracked = nil
	t.mu.Unlock()

	for _, unsub := range tracked {
		unsub()
	}
}

// --- package-level scheduling state ---
//
// The reactive primitives are specified for a single-threaded
// cooperative host loop (spec.md §5): signal mutation, subscriber
// notification and effect re-runs all happen on one logical thread.
// A package-level stack and queue, rather than per-goroutine state,
// reflects that model directly.

var (
	schedMu      sync.Mutex
	sinkStack    []*trackingSink
	batchDepth   int
	pendingSinks []*trackingSink
	pendingSet   map[*trackingSink]bool
	pendingFns   []func()
)

func currentSink() *trackingSink {
	schedMu.Lock()
	defer schedMu.Unlock()
	if len(sinkStack) == 0 {
		return nil
	}
	return sinkStack[len(sinkStack)-1]
}

func pushSink(t *trackingSink) {
	schedMu.Lock()
	sinkStack = append(sinkStack, t)
	schedMu.Unlock()
}

func popSink() {
	schedMu.Lock()
	sinkStack = sinkStack[:len(sinkStack)-1]
	schedMu.Unlock()
}

// Batch defers effect re-runs and subscriber notifications scheduled
// by fn until fn returns, then flushes them once, deduplicated. Calls
// nest: only the outermost Batch triggers a flush, so signal updates
// made by a Batch-called effect's own re-run are themselves coalesced
// into the same propagation turn.
func Batch(fn func()) {
	schedMu.Lock()
	batchDepth++
	schedMu.Unlock()

	fn()

	schedMu.Lock()
	batchDepth--
	shouldFlush := batchDepth == 0
	schedMu.Unlock()

	if shouldFlush {
		flush()
	}
}

func enqueueNotify(fn func()) {
	schedMu.Lock()
	depth := batchDepth
	if depth > 0 {
		pendingFns = append(pendingFns, fn)
		schedMu.Unlock()
		return
	}
	batchDepth++
	schedMu.Unlock()

	fn()

	schedMu.Lock()
	batchDepth--
	shouldFlush := batchDepth == 0
	schedMu.Unlock()
	if shouldFlush {
		flush()
	}
}

func enqueueSink(t *trackingSink) {
	schedMu.Lock()
	if pendingSet == nil {
		pendingSet = make(map[*trackingSink]bool)
	}
	if !pendingSet[t] {
		pendingSet[t] = true
		pendingSinks = append(pendingSinks, t)
	}
	shouldFlush := batchDepth == 0
	schedMu.Unlock()

	if shouldFlush {
		flush()
	}
}

// flush runs every sink queued since the last flush, exactly once
// each, in the order they were first scheduled. It is re-entrant:
// a sink's rerun may itself Set signals, which queues further work
// that this same call drains before returning.
func flush() {
	for {
		schedMu.Lock()
		if len(pendingSinks) == 0 && len(pendingFns) == 0 {
			schedMu.Unlock()
			return
		}
		fns := pendingFns
		pendingFns = nil
		sinks := pendingSinks
		pendingSinks = nil
		pendingSet = nil
		schedMu.Unlock()

		for _, fn := range fns {
			fn()
		}
		for _, sink := range sinks {
			sink.rerun()
		}
	}
}
