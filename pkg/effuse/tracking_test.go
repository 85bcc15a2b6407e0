package effuse

import "testing"

func TestTrackingFrameCollectsDeps(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)

	StartTracking()
	_ = a.Get()
	_ = b.Get()
	deps := StopTracking()

	if len(deps) != 2 {
		t.Fatalf("expected 2 deps, got %d", len(deps))
	}
	if deps[0] != a.Dep() || deps[1] != b.Dep() {
		t.Error("deps not recorded in read order")
	}
}

func TestTrackingIdempotentPerFrame(t *testing.T) {
	a := NewSignal(1)

	StartTracking()
	_ = a.Get()
	_ = a.Get()
	_ = a.Get()
	deps := StopTracking()

	if len(deps) != 1 {
		t.Errorf("repeated reads must register once per frame, got %d deps", len(deps))
	}
}

func TestNestedFramesAreIndependent(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)

	StartTracking()
	_ = a.Get()

	StartTracking()
	_ = b.Get()
	inner := StopTracking()

	outer := StopTracking()

	if len(inner) != 1 || inner[0] != b.Dep() {
		t.Errorf("inner frame should only see b, got %d deps", len(inner))
	}
	if len(outer) != 1 || outer[0] != a.Dep() {
		t.Errorf("outer frame should only see a, got %d deps", len(outer))
	}
}

func TestPauseTrackingSuppressesReads(t *testing.T) {
	a := NewSignal(1)
	b := NewSignal(2)

	StartTracking()
	_ = a.Get()
	PauseTracking()
	_ = b.Get()
	ResumeTracking()
	deps := StopTracking()

	if len(deps) != 1 || deps[0] != a.Dep() {
		t.Errorf("paused read leaked into frame: %d deps", len(deps))
	}
}

func TestStopTrackingWithoutStartPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("StopTracking without StartTracking must panic")
		}
	}()
	StopTracking()
}

func TestResumeTrackingWithoutPausePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("ResumeTracking without PauseTracking must panic")
		}
	}()
	ResumeTracking()
}

func TestStopTrackingAcrossPausePanics(t *testing.T) {
	StartTracking()
	PauseTracking()
	defer func() {
		if recover() == nil {
			t.Error("StopTracking across an open pause must panic")
		}
		// Repair the goroutine's stack for later tests.
		ResumeTracking()
		StopTracking()
	}()
	StopTracking()
}

func TestIsTracking(t *testing.T) {
	if IsTracking() {
		t.Error("no frame open, IsTracking should be false")
	}
	StartTracking()
	if !IsTracking() {
		t.Error("frame open, IsTracking should be true")
	}
	PauseTracking()
	if IsTracking() {
		t.Error("paused, IsTracking should be false")
	}
	ResumeTracking()
	StopTracking()
}

func TestReadOutsideFrameIsNoop(t *testing.T) {
	a := NewSignal(1)
	if got := a.Get(); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
	if n := a.Dep().subscriberCount(); n != 0 {
		t.Errorf("untracked read must not subscribe anything, got %d subs", n)
	}
}
