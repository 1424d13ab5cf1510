package reactive

import (
	"reflect"
	"sync"
)

// EqualsFunc reports whether two values of a Signal should be treated
// as identical, suppressing notification when Set is called with an
// value that compares equal to the current one.
type EqualsFunc[T any] func(a, b T) bool

// Cleanup is returned by subscription methods; calling it stops future
// notifications.
type Cleanup func()

// anySignal is the type-erased surface a Signal exposes to the effect
// scheduler, which must track dependencies across signals of
// different T.
type anySignal interface {
	// trackedBy registers a dependency-tracking sink so that future
	// Set calls enqueue it for re-run; returns an unsubscribe func.
	trackedBy(sink *trackingSink) Cleanup
}

// Signal is a single-value observable container. Get registers a
// dependency when called from inside a tracked Effect body; Set
// stores a new value (subject to the configured equality policy) and
// schedules subscriber notification.
type Signal[T any] struct {
	mu      sync.Mutex
	value   T
	equals  EqualsFunc[T]
	subs    map[int]func(T)
	nextSub int
	sinks   map[*trackingSink]struct{}
}

// SignalOption configures a Signal at construction time.
type SignalOption[T any] func(*Signal[T])

// WithEquals overrides the default equality policy for a Signal.
func WithEquals[T any](eq EqualsFunc[T]) SignalOption[T] {
	return func(s *Signal[T]) { s.equals = eq }
}

// NewSignal creates a Signal holding the given initial value.
//
// The default equality policy is reflect.DeepEqual, matching the
// spec's documented default; callers with a large or frequently-set
// value (spec.md §9 Open Question) should supply WithEquals with a
// cheaper comparison.
func NewSignal[T any](initial T, opts ...SignalOption[T]) *Signal[T] {
	s := &Signal[T]{
		value: initial,
		equals: func(a, b T) bool {
			return reflect.DeepEqual(a, b)
		},
		subs:  make(map[int]func(T)),
		sinks: make(map[*trackingSink]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the current value. If called from inside a tracked
// Effect, the effect is registered as a dependent of this signal.
func (s *Signal[T]) Get() T {
	if sink := currentSink(); sink != nil {
		sink.track(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Peek returns the current value without registering a dependency.
func (s *Signal[T]) Peek() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores a new value if it differs from the current one (per the
// signal's equality policy) and schedules subscriber notification.
// Notification is coalesced: see Batch.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	if s.equals(s.value, v) {
		s.mu.Unlock()
		return
	}
	s.value = v
	subsCopy := make([]func(T), 0, len(s.subs))
	for _, fn := range s.subs {
		subsCopy = append(subsCopy, fn)
	}
	sinksCopy := make([]*trackingSink, 0, len(s.sinks))
	for sink := range s.sinks {
		sinksCopy = append(sinksCopy, sink)
	}
	s.mu.Unlock()

	enqueueNotify(func() {
		for _, fn := range subsCopy {
			fn(v)
		}
	})
	for _, sink := range sinksCopy {
		enqueueSink(sink)
	}
}

// Update applies fn to the current value and stores the result,
// equivalent to s.Set(fn(s.Peek())).
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.Peek()))
}

// UseOption configures a Use subscription.
type UseOption struct {
	lazy bool
}

// Lazy suppresses the synchronous initial invocation Use otherwise
// performs on subscription.
func Lazy() UseOption { return UseOption{lazy: true} }

// Use subscribes fn to every subsequent value. Unless Lazy() is
// passed, fn is also invoked synchronously with the current value
// before Use returns. The returned Cleanup removes the subscription.
func (s *Signal[T]) Use(fn func(T), opts ...UseOption) Cleanup {
	var cfg UseOption
	for _, o := range opts {
		cfg = o
	}

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	current := s.value
	s.mu.Unlock()

	if !cfg.lazy {
		fn(current)
	}

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Signal[T]) trackedBy(sink *trackingSink) Cleanup {
	s.mu.Lock()
	s.sinks[sink] = struct{}{}
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.sinks, sink)
		s.mu.Unlock()
	}
}
