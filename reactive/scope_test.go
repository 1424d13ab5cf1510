package reactive

import "testing"

func TestScopeOnCleanupRunsOnDispose(t *testing.T) {
	scope := NewScope(nil)
	ran := false
	scope.OnCleanup(func() { ran = true })

	scope.Dispose()
	if !ran {
		t.Fatal("expected cleanup to run on dispose")
	}
}

func TestScopeOnCleanupRunsImmediatelyIfAlreadyDisposed(t *testing.T) {
	scope := NewScope(nil)
	scope.Dispose()

	ran := false
	scope.OnCleanup(func() { ran = true })
	if !ran {
		t.Fatal("expected a cleanup registered after dispose to run immediately")
	}
}

func TestScopeCleanupOrderIsLIFO(t *testing.T) {
	scope := NewScope(nil)
	var order []int
	scope.OnCleanup(func() { order = append(order, 1) })
	scope.OnCleanup(func() { order = append(order, 2) })
	scope.OnCleanup(func() { order = append(order, 3) })

	scope.Dispose()

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("expected %v, got %v", want, order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, order)
		}
	}
}

func TestScopeDisposeIsIdempotent(t *testing.T) {
	scope := NewScope(nil)
	calls := 0
	scope.OnCleanup(func() { calls++ })

	scope.Dispose()
	scope.Dispose()

	if calls != 1 {
		t.Fatalf("expected cleanup to run exactly once across repeated dispose calls, got %d", calls)
	}
}

func TestScopeChildDisposesBeforeParentCleanup(t *testing.T) {
	parent := NewScope(nil)
	child := parent.Child()

	var order []string
	child.OnCleanup(func() { order = append(order, "child") })
	parent.OnCleanup(func() { order = append(order, "parent") })

	parent.Dispose()

	if len(order) != 2 || order[0] != "child" || order[1] != "parent" {
		t.Fatalf("expected child cleanup before parent cleanup, got %v", order)
	}
}

func TestScopeDisposingParentDisposesChildEffects(t *testing.T) {
	parent := NewScope(nil)
	child := parent.Child()

	a := NewSignal(1)
	runs := 0
	child.Effect(func() Cleanup {
		a.Get()
		runs++
		return nil
	})

	parent.Dispose()
	a.Set(2)

	if runs != 1 {
		t.Fatalf("expected the child's effect to stop running after parent dispose, got %d runs", runs)
	}
}

func TestScopeDisposedCreatesAlreadyDisposedChild(t *testing.T) {
	parent := NewScope(nil)
	parent.Dispose()

	child := parent.Child()
	if !child.Disposed() {
		t.Fatal("expected a child created on an already-disposed parent to be disposed itself")
	}
}

func TestScopeEffectManualDisposeStopsReruns(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()

	a := NewSignal(1)
	runs := 0
	dispose := scope.Effect(func() Cleanup {
		a.Get()
		runs++
		return nil
	})

	dispose()
	a.Set(2)

	if runs != 1 {
		t.Fatalf("expected no rerun after manual dispose, got %d runs", runs)
	}
}

type recordingExtension struct {
	BaseExtension
	disposed []*Scope
	errs     []*SignalError
}

func (r *recordingExtension) OnDispose(s *Scope) { r.disposed = append(r.disposed, s) }
func (r *recordingExtension) OnError(err *SignalError) { r.errs = append(r.errs, err) }

func TestScopeExtensionObservesDisposeAndInheritsToChildren(t *testing.T) {
	parent := NewScope(nil)
	ext := &recordingExtension{}
	parent.Use(ext)
	child := parent.Child()

	parent.Dispose()

	if len(ext.disposed) != 2 {
		t.Fatalf("expected both child and parent dispose notifications, got %d", len(ext.disposed))
	}
	if ext.disposed[0] != child || ext.disposed[1] != parent {
		t.Fatalf("expected child notified before parent")
	}
}

func TestScopeExtensionCatchesEffectPanic(t *testing.T) {
	scope := NewScope(nil)
	defer scope.Dispose()
	ext := &recordingExtension{}
	scope.Use(ext)

	scope.Effect(func() Cleanup {
		panic("boom")
	})

	if len(ext.errs) != 1 {
		t.Fatalf("expected the panic to be routed to the extension, got %d errors", len(ext.errs))
	}
}
