package effuse

import "testing"

func TestWatchFiresOnChangeOnly(t *testing.T) {
	s := NewSignal(1)
	var pairs [][2]int

	Watch(func() int { return s.Get() }, func(newV, oldV int) {
		pairs = append(pairs, [2]int{oldV, newV})
	})

	if len(pairs) != 0 {
		t.Fatalf("watch must not fire on setup, got %v", pairs)
	}

	s.Set(2)
	if len(pairs) != 1 || pairs[0] != [2]int{1, 2} {
		t.Fatalf("want (1->2), got %v", pairs)
	}

	s.Set(2) // identical write
	if len(pairs) != 1 {
		t.Errorf("identical write fired the watcher, got %v", pairs)
	}

	s.Set(5)
	if len(pairs) != 2 || pairs[1] != [2]int{2, 5} {
		t.Errorf("want (2->5), got %v", pairs)
	}
}

func TestWatchImmediate(t *testing.T) {
	s := NewSignal("a")
	var calls []string

	Watch(func() string { return s.Get() }, func(newV, oldV string) {
		calls = append(calls, oldV+"->"+newV)
	}, Immediate())

	if len(calls) != 1 || calls[0] != "->a" {
		t.Fatalf("immediate watch must fire once with zero old value, got %v", calls)
	}

	s.Set("b")
	if len(calls) != 2 || calls[1] != "a->b" {
		t.Errorf("want a->b after immediate, got %v", calls)
	}
}

func TestWatchOnceStopsAfterFirstFire(t *testing.T) {
	s := NewSignal(0)
	fires := 0

	Watch(func() int { return s.Get() }, func(int, int) {
		fires++
	}, Once())

	s.Set(1)
	s.Set(2)
	s.Set(3)
	if fires != 1 {
		t.Errorf("once watcher fired %d times", fires)
	}
	if n := s.Dep().subscriberCount(); n != 0 {
		t.Errorf("stopped once watcher left %d subscribers behind", n)
	}
}

func TestWatchOnceWithImmediate(t *testing.T) {
	s := NewSignal("a")
	var calls []string

	Watch(func() string { return s.Get() }, func(newV, oldV string) {
		calls = append(calls, oldV+"->"+newV)
	}, Once(), Immediate())

	if len(calls) != 1 || calls[0] != "->a" {
		t.Fatalf("want the zeroth call at creation, got %v", calls)
	}

	s.Set("b")
	s.Set("c")
	if len(calls) != 2 || calls[1] != "a->b" {
		t.Errorf("once stops after the first change-driven firing, got %v", calls)
	}
}

func TestWatchCallbackRunsUntracked(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(10)
	fires := 0

	Watch(func() int { return a.Get() }, func(int, int) {
		_ = b.Get() // must not become a dependency
		fires++
	})

	a.Set(2)
	if fires != 1 {
		t.Fatalf("want one fire, got %d", fires)
	}

	b.Set(20)
	if fires != 1 {
		t.Errorf("callback read leaked into tracking, fires=%d", fires)
	}
}

func TestWatchSignal(t *testing.T) {
	s := NewSignal(3)
	var got int

	WatchSignal(s, func(newV, _ int) { got = newV })

	s.Set(7)
	if got != 7 {
		t.Errorf("WatchSignal did not deliver new value, got %d", got)
	}
}

func TestWatchRxDeep(t *testing.T) {
	rx := NewRx(map[string]any{
		"user": map[string]any{"name": "ada"},
	})
	fires := 0

	WatchRx(rx, func() { fires++ })

	nested := rx.Get("user").(*Rx)
	nested.Set("name", "grace")
	if fires != 1 {
		t.Errorf("deep watch must fire on nested mutation, fires=%d", fires)
	}

	rx.Set("role", "admin")
	if fires != 2 {
		t.Errorf("deep watch must fire on key addition, fires=%d", fires)
	}
}
