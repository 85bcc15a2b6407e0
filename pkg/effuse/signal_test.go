package effuse

import "testing"

func TestSignalBasic(t *testing.T) {
	count := NewSignal(0)

	if count.Get() != 0 {
		t.Errorf("expected initial value 0, got %d", count.Get())
	}

	count.Set(5)
	if count.Get() != 5 {
		t.Errorf("expected value 5, got %d", count.Get())
	}

	count.Update(func(n int) int { return n * 2 })
	if count.Get() != 10 {
		t.Errorf("expected value 10, got %d", count.Get())
	}
}

func TestSignalNoRedundantTrigger(t *testing.T) {
	count := NewSignal(7)
	listener := newTestListener()
	count.Dep().Subscribe(listener)

	count.Set(7)
	count.Set(7)
	if n := listener.getDirtyCount(); n != 0 {
		t.Errorf("same-value writes must not notify, got %d notifications", n)
	}

	count.Set(8)
	if n := listener.getDirtyCount(); n != 1 {
		t.Errorf("expected 1 notification, got %d", n)
	}
}

func TestSignalVersionCountsCommittedWrites(t *testing.T) {
	s := NewSignal("a")
	if s.Version() != 0 {
		t.Fatalf("fresh signal version should be 0, got %d", s.Version())
	}
	s.Set("a")
	if s.Version() != 0 {
		t.Error("no-op write advanced version")
	}
	s.Set("b")
	s.Set("c")
	if s.Version() != 2 {
		t.Errorf("expected version 2, got %d", s.Version())
	}
}

func TestSignalShallowIdentityForReferenceValues(t *testing.T) {
	m := map[string]int{"x": 1}
	s := NewSignal(m)
	listener := newTestListener()
	s.Dep().Subscribe(listener)

	// Mutating the interior without replacing the map is not a change.
	m["x"] = 2
	s.Set(m)
	if n := listener.getDirtyCount(); n != 0 {
		t.Errorf("same referent must not trigger, got %d notifications", n)
	}

	// A different map is a change even with equal contents.
	s.Set(map[string]int{"x": 2})
	if n := listener.getDirtyCount(); n != 1 {
		t.Errorf("new referent must trigger, got %d notifications", n)
	}
}

func TestSignalWithEquals(t *testing.T) {
	type point struct{ X, Y int }
	// Consider only X when detecting change.
	s := NewSignal(point{1, 1}).WithEquals(func(a, b point) bool {
		return a.X == b.X
	})
	listener := newTestListener()
	s.Dep().Subscribe(listener)

	s.Set(point{1, 99})
	if listener.getDirtyCount() != 0 {
		t.Error("custom equality said unchanged, but trigger fired")
	}
	s.Set(point{2, 99})
	if listener.getDirtyCount() != 1 {
		t.Error("custom equality said changed, but no trigger fired")
	}
}

func TestSignalPeekDoesNotTrack(t *testing.T) {
	s := NewSignal(42)

	StartTracking()
	_ = s.Peek()
	deps := StopTracking()

	if len(deps) != 0 {
		t.Errorf("Peek must not track, got %d deps", len(deps))
	}
}

func TestDepSubscribeDeduplicates(t *testing.T) {
	d := NewDep()
	l := newTestListener()
	d.Subscribe(l)
	d.Subscribe(l)

	d.Trigger()
	if n := l.getDirtyCount(); n != 1 {
		t.Errorf("duplicate subscription notified %d times", n)
	}

	d.Unsubscribe(l)
	d.Trigger()
	if n := l.getDirtyCount(); n != 1 {
		t.Errorf("unsubscribed listener notified, count %d", n)
	}
}

func TestDepTriggerOrderIsSubscriptionOrder(t *testing.T) {
	d := NewDep()
	var order []int

	for i := 0; i < 4; i++ {
		i := i
		d.Subscribe(&funcListener{id: nextID(), fn: func() { order = append(order, i) }})
	}

	d.Trigger()
	for i, got := range order {
		if got != i {
			t.Fatalf("trigger order %v, want subscription order", order)
		}
	}
}

// funcListener adapts a closure to the Listener interface.
type funcListener struct {
	id uint64
	fn func()
}

func (l *funcListener) MarkDirty() { l.fn() }
func (l *funcListener) ID() uint64 { return l.id }
