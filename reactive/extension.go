package reactive

// Extension observes a Scope's lifecycle without being able to veto
// it: errors raised inside effect bodies, subscriber callbacks and
// cleanups never propagate out to the signal graph (spec.md §7 — "the
// core never throws through subscribers"); instead they are routed
// here so one misbehaving subscriber cannot poison the rest.
type Extension interface {
	// OnError is called when an effect body or subscriber callback
	// panics.
	OnError(err *SignalError)

	// OnCleanupError is called when a cleanup function panics.
	// Returning true marks the error handled; returning false lets
	// the next extension (or, if none handle it, silence) apply.
	OnCleanupError(err error) bool

	// OnDispose is called once, after a Scope has fully disposed
	// (children, effects and direct cleanups all complete).
	OnDispose(scope *Scope)
}

// BaseExtension provides no-op implementations of Extension, for
// embedding by extensions that only care about one hook.
type BaseExtension struct{}

func (BaseExtension) OnError(*SignalError)      {}
func (BaseExtension) OnCleanupError(error) bool { return false }
func (BaseExtension) OnDispose(*Scope)          {}
