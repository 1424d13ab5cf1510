package reactive

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// ErrScopeDisposed is the error value for a disposed Scope. No Scope
// method returns it: operations on a disposed Scope do not report an
// error.
var ErrScopeDisposed = errors.New("reactive: scope is disposed")

// SignalError wraps a panic or error raised while notifying a
// subscriber or running an effect body, with enough context to
// diagnose without re-running the failing computation.
type SignalError struct {
	Context    string // "subscriber", "effect", "cleanup"
	Cause      error
	StackTrace []byte
}

func (e *SignalError) Error() string {
	return fmt.Sprintf("reactive: %s failed: %v", e.Context, e.Cause)
}

func (e *SignalError) Unwrap() error {
	return e.Cause
}

func newSignalError(context string, cause error) *SignalError {
	return &SignalError{
		Context:    context,
		Cause:      cause,
		StackTrace: debug.Stack(),
	}
}
