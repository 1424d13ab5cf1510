package reactive

import (
	"fmt"
	"sync"
)

// Scope is a hierarchical, disposable cancellation context. Effects
// and subscriptions registered against a Scope are torn down, in LIFO
// order, when the scope is disposed; nested scopes are disposed in
// full before their parent runs its own direct cleanups (spec.md
// §4.1: "parent scope completes child disposal before running its own
// cleanups").
type Scope struct {
	mu         sync.Mutex
	parent     *Scope
	children   []*Scope
	cleanups   []Cleanup
	effects    []*effect
	disposed   bool
	extensions []Extension
}

// NewScope creates a scope. A nil parent creates a root scope; a
// non-nil parent registers the new scope for disposal when parent
// disposes.
func NewScope(parent *Scope) *Scope {
	s := &Scope{parent: parent}
	if parent != nil {
		parent.mu.Lock()
		if parent.disposed {
			parent.mu.Unlock()
			s.disposed = true
			return s
		}
		parent.children = append(parent.children, s)
		s.extensions = append(s.extensions, parent.extensions...)
		parent.mu.Unlock()
	}
	return s
}

// Child is shorthand for NewScope(s).
func (s *Scope) Child() *Scope {
	return NewScope(s)
}

// Use registers an Extension on this scope. Extensions registered on
// a parent are inherited by children created afterward, but not
// retroactively by children that already exist.
func (s *Scope) Use(ext Extension) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.extensions = append(s.extensions, ext)
}

// OnCleanup registers fn to run when the scope is disposed (or
// immediately, if the scope is already disposed).
func (s *Scope) OnCleanup(fn Cleanup) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		fn()
		return
	}
	s.cleanups = append(s.cleanups, fn)
	s.mu.Unlock()
}

// Disposed reports whether the scope has been disposed.
func (s *Scope) Disposed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposed
}

// Effect runs body immediately under dependency tracking and again
// every time a signal it read changes, until the scope disposes or
// the returned Cleanup is called. The scheduling and coalescing rules
// are documented on Batch.
func (s *Scope) Effect(body EffectFunc) Cleanup {
	e := &effect{body: body}
	e.sink = newTrackingSink(func() { s.runEffect(e) })

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return func() {}
	}
	s.effects = append(s.effects, e)
	s.mu.Unlock()

	s.runEffect(e)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, have := range s.effects {
			if have == e {
				s.effects = append(s.effects[:i], s.effects[i+1:]...)
				break
			}
		}
		e.dispose()
	}
}

func (s *Scope) runEffect(e *effect) {
	s.mu.Lock()
	exts := append([]Extension(nil), s.extensions...)
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("effect panic: %v", r)
			for _, ext := range exts {
				ext.OnError(newSignalError("effect", err))
			}
		}
	}()

	e.run()
}

// Dispose tears the scope down: every child scope is disposed first
// (LIFO among siblings), then this scope's own direct cleanups and
// effects run (LIFO), then extensions are notified. Dispose is
// idempotent.
func (s *Scope) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	children := s.children
	s.children = nil
	cleanups := s.cleanups
	s.cleanups = nil
	effects := s.effects
	s.effects = nil
	exts := s.extensions
	s.mu.Unlock()

	// Children disposed to completion first, LIFO among siblings.
	for i := len(children) - 1; i >= 0; i-- {
		children[i].Dispose()
	}

	// Then this scope's own effects and direct cleanups, LIFO.
	for i := len(effects) - 1; i >= 0; i-- {
		effects[i].dispose()
	}
	for i := len(cleanups) - 1; i >= 0; i-- {
		s.runCleanup(cleanups[i], exts)
	}

	for _, ext := range exts {
		ext.OnDispose(s)
	}
}

func (s *Scope) runCleanup(fn Cleanup, exts []Extension) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("cleanup panic: %v", r)
			handled := false
			for _, ext := range exts {
				if ext.OnCleanupError(err) {
					handled = true
					break
				}
			}
			_ = handled
		}
	}()
	fn()
}
