package reactive

import "testing"

func TestSignalGetSet(t *testing.T) {
	s := NewSignal(1)
	if got := s.Get(); got != 1 {
		t.Fatalf("expected 1, got %d", got)
	}

	s.Set(2)
	if got := s.Get(); got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestSignalSetEqualValueSuppressesNotification(t *testing.T) {
	s := NewSignal(5)
	calls := 0
	s.Use(func(int) { calls++ }, Lazy())

	s.Set(5)
	if calls != 0 {
		t.Fatalf("expected no notification for an equal value, got %d calls", calls)
	}

	s.Set(6)
	if calls != 1 {
		t.Fatalf("expected one notification after a real change, got %d", calls)
	}
}

func TestSignalUseSynchronousInitialCall(t *testing.T) {
	s := NewSignal("hello")
	var seen string
	s.Use(func(v string) { seen = v })

	if seen != "hello" {
		t.Fatalf("expected synchronous initial call with current value, got %q", seen)
	}
}

func TestSignalUseLazySkipsInitialCall(t *testing.T) {
	s := NewSignal(1)
	calls := 0
	s.Use(func(int) { calls++ }, Lazy())

	if calls != 0 {
		t.Fatalf("expected lazy subscription to skip the initial call, got %d calls", calls)
	}
	s.Set(2)
	if calls != 1 {
		t.Fatalf("expected one call after Set, got %d", calls)
	}
}

func TestSignalUseCleanupUnsubscribes(t *testing.T) {
	s := NewSignal(1)
	calls := 0
	cleanup := s.Use(func(int) { calls++ }, Lazy())

	cleanup()
	s.Set(2)

	if calls != 0 {
		t.Fatalf("expected no calls after unsubscribing, got %d", calls)
	}
}

func TestSignalUpdate(t *testing.T) {
	s := NewSignal(10)
	s.Update(func(v int) int { return v + 5 })
	if got := s.Get(); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
}

type customEqualValue struct {
	id      int
	payload string
}

func TestSignalWithEquals(t *testing.T) {
	calls := 0
	s := NewSignal(customEqualValue{id: 1, payload: "a"}, WithEquals(func(a, b customEqualValue) bool {
		return a.id == b.id
	}))
	s.Use(func(customEqualValue) { calls++ }, Lazy())

	// Same id, different payload: the custom equality treats this as
	// unchanged, unlike the default reflect.DeepEqual policy would.
	s.Set(customEqualValue{id: 1, payload: "b"})
	if calls != 0 {
		t.Fatalf("expected custom equality to suppress notification, got %d calls", calls)
	}

	s.Set(customEqualValue{id: 2, payload: "b"})
	if calls != 1 {
		t.Fatalf("expected notification once id changes, got %d calls", calls)
	}
}
