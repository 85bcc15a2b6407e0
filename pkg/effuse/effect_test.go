package effuse

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestEffectRunsImmediatelyAndOnChange(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	CreateEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	if runs != 1 {
		t.Fatalf("effect must run at creation, runs=%d", runs)
	}

	count.Set(1)
	if runs != 2 {
		t.Errorf("expected 2 runs after a change, got %d", runs)
	}

	count.Set(1)
	if runs != 2 {
		t.Errorf("no-op write re-ran the effect, runs=%d", runs)
	}
}

func TestEffectAutomaticRetracking(t *testing.T) {
	flag := NewSignal(true)
	a := NewSignal("a")
	b := NewSignal("b")
	runs := 0

	CreateEffect(func() Cleanup {
		runs++
		if flag.Get() {
			_ = a.Get()
		} else {
			_ = b.Get()
		}
		return nil
	})

	flag.Set(false) // now depends on flag, b
	runsAfterFlip := runs

	a.Set("a2")
	if runs != runsAfterFlip {
		t.Errorf("mutating a dropped dependency re-triggered the effect")
	}

	b.Set("b2")
	if runs != runsAfterFlip+1 {
		t.Errorf("mutating a live dependency did not re-trigger, runs=%d", runs)
	}
}

func TestEffectStopIdempotentAndCleanupOnce(t *testing.T) {
	cleanups := 0
	e := CreateEffect(func() Cleanup {
		return func() { cleanups++ }
	})

	e.Stop()
	e.Stop()

	if cleanups != 1 {
		t.Errorf("cleanup must run exactly once across double Stop, got %d", cleanups)
	}
}

func TestEffectStopDropsSubscriptions(t *testing.T) {
	count := NewSignal(0)
	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	e.Stop()
	count.Set(9)
	if runs != 1 {
		t.Errorf("stopped effect re-ran, runs=%d", runs)
	}
	if n := count.Dep().subscriberCount(); n != 0 {
		t.Errorf("dep retained %d subscribers after stop", n)
	}
}

func TestEffectCleanupRunsBeforeEachRerun(t *testing.T) {
	count := NewSignal(0)
	var log []string

	CreateEffect(func() Cleanup {
		v := count.Get()
		log = append(log, "run")
		_ = v
		return func() { log = append(log, "cleanup") }
	})

	count.Set(1)
	want := []string{"run", "cleanup", "run"}
	if len(log) != len(want) {
		t.Fatalf("got %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("got %v, want %v", log, want)
		}
	}
}

func TestOnCleanupAccumulatesAndSurvivesPanics(t *testing.T) {
	count := NewSignal(0)
	ran := []int{}

	CreateEffect(func() Cleanup {
		_ = count.Get()
		OnCleanup(func() { panic("first cleanup blows up") })
		OnCleanup(func() { ran = append(ran, 2) })
		return func() { ran = append(ran, 3) }
	})

	// Re-run: all cleanups execute despite the first one panicking.
	count.Set(1)
	if len(ran) != 2 || ran[0] != 2 || ran[1] != 3 {
		t.Errorf("cleanups after a panicking one must still run, got %v", ran)
	}
}

func TestEffectPauseResume(t *testing.T) {
	count := NewSignal(0)
	runs := 0
	e := CreateEffect(func() Cleanup {
		_ = count.Get()
		runs++
		return nil
	})

	e.Pause()
	count.Set(1)
	count.Set(2)
	if runs != 1 {
		t.Fatalf("paused effect ran, runs=%d", runs)
	}

	e.Resume()
	if runs != 2 {
		t.Errorf("resume must re-execute once, runs=%d", runs)
	}

	// Subscriptions were kept across the pause.
	count.Set(3)
	if runs != 3 {
		t.Errorf("effect lost subscriptions across pause, runs=%d", runs)
	}
}

func TestEffectSuspendSwallowed(t *testing.T) {
	ready := NewSignal(false)
	completions := 0

	CreateEffect(func() Cleanup {
		if !ready.Get() {
			Suspend()
		}
		completions++
		return nil
	})

	if completions != 0 {
		t.Fatal("suspended run must not complete")
	}

	// The dependency read before suspension was still captured.
	ready.Set(true)
	if completions != 1 {
		t.Errorf("effect did not wake after suspension, completions=%d", completions)
	}
}

func TestEffectPanicPropagatesButKeepsDeps(t *testing.T) {
	trip := NewSignal(false)
	runs := 0

	func() {
		defer func() { _ = recover() }()
		CreateEffect(func() Cleanup {
			runs++
			if trip.Get() {
				panic(errors.New("render failure"))
			}
			return nil
		})
	}()

	func() {
		defer func() {
			if recover() == nil {
				t.Error("sync body failure must propagate to the trigger site")
			}
		}()
		trip.Set(true)
	}()

	// Dependencies captured on the failed run keep the effect live.
	func() {
		defer func() { _ = recover() }()
		trip.Set(false)
	}()
	if runs != 3 {
		t.Errorf("effect must keep reacting after a failed run, runs=%d", runs)
	}
}

func TestEffectFlushPostCoalesces(t *testing.T) {
	a := NewSignal(0)
	b := NewSignal(0)
	runs := 0

	CreateEffect(func() Cleanup {
		_ = a.Get()
		_ = b.Get()
		runs++
		return nil
	}, FlushPost())

	a.Set(1)
	b.Set(1)
	a.Set(2)
	if runs != 1 {
		t.Fatalf("post-flush effect ran before drain, runs=%d", runs)
	}

	Flush()
	if runs != 2 {
		t.Errorf("three triggers must coalesce into one drained run, runs=%d", runs)
	}
}

func TestEffectDeferredSkipsInitialRun(t *testing.T) {
	runs := 0
	e := CreateEffect(func() Cleanup {
		runs++
		return nil
	}, Deferred())

	if runs != 0 {
		t.Fatalf("deferred effect ran at creation")
	}
	e.Resume() // no-op: not paused
	if runs != 0 {
		t.Fatal("resume of a non-paused effect must not run it")
	}
	e.Pause()
	e.Resume()
	if runs != 1 {
		t.Errorf("pause+resume should execute the deferred effect once, runs=%d", runs)
	}
}

func TestEffectDebounceCollapsesTriggers(t *testing.T) {
	count := NewSignal(0)
	var runs atomic.Int32

	CreateEffect(func() Cleanup {
		_ = count.Get()
		runs.Add(1)
		return nil
	}, Debounce(30*time.Millisecond))

	// Initial run happened synchronously.
	if runs.Load() != 1 {
		t.Fatalf("expected initial run, got %d", runs.Load())
	}

	for i := 1; i <= 5; i++ {
		count.Set(i)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)
	if got := runs.Load(); got != 2 {
		t.Errorf("rapid triggers must collapse into one debounced run, got %d total runs", got)
	}
}

func TestEffectStopCancelsDebounceTimer(t *testing.T) {
	count := NewSignal(0)
	var runs atomic.Int32

	e := CreateEffect(func() Cleanup {
		_ = count.Get()
		runs.Add(1)
		return nil
	}, Debounce(20*time.Millisecond))

	count.Set(1)
	e.Stop()
	time.Sleep(60 * time.Millisecond)

	if got := runs.Load(); got != 1 {
		t.Errorf("stop must cancel the pending debounce run, got %d runs", got)
	}
}

func TestEffectWriteInsideBodyDoesNotRecurse(t *testing.T) {
	count := NewSignal(0)
	runs := 0

	CreateEffect(func() Cleanup {
		v := count.Get()
		runs++
		if v < 1 {
			count.Set(v + 1) // self-trigger: must queue, not recurse
		}
		return nil
	})

	if runs != 1 {
		t.Fatalf("self-triggering body recursed, runs=%d", runs)
	}
	Flush()
	if runs != 2 {
		t.Errorf("queued self-trigger did not drain, runs=%d", runs)
	}
}

func TestGoAsyncAppliesResult(t *testing.T) {
	query := NewSignal("a")
	var mu sync.Mutex
	var results []string
	done := make(chan struct{}, 8)

	CreateEffect(func() Cleanup {
		q := query.Get()
		return GoAsync(func(ctx context.Context) (string, error) {
			return "result:" + q, nil
		}, func(r string, err error) {
			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			done <- struct{}{}
		})
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async apply never ran")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 || results[0] != "result:a" {
		t.Errorf("got %v", results)
	}
}

func TestGoAsyncStaleCompletionIsNoop(t *testing.T) {
	release := make(chan struct{})
	var applied atomic.Int32

	e := CreateEffect(func() Cleanup {
		return GoAsync(func(ctx context.Context) (int, error) {
			select {
			case <-release:
				return 1, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		}, func(int, error) {
			applied.Add(1)
		})
	})

	e.Stop()
	close(release)
	time.Sleep(50 * time.Millisecond)

	if applied.Load() != 0 {
		t.Error("completion arriving after Stop must be a no-op")
	}
}

func TestGoAsyncRetriesWithBackoff(t *testing.T) {
	var attempts atomic.Int32
	done := make(chan error, 1)

	CreateEffect(func() Cleanup {
		return GoAsync(func(ctx context.Context) (int, error) {
			if attempts.Add(1) < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		}, func(v int, err error) {
			done <- err
		}, Retry(3, time.Millisecond, BackoffExponential))
	})

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected eventual success, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("retry loop never completed")
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestGoAsyncTerminalFailureIsSwallowed(t *testing.T) {
	done := make(chan error, 1)

	CreateEffect(func() Cleanup {
		return GoAsync(func(ctx context.Context) (int, error) {
			return 0, errors.New("permanent")
		}, func(v int, err error) {
			done <- err
		}, Retry(1, time.Millisecond, BackoffConstant))
	})

	select {
	case err := <-done:
		if err == nil {
			t.Error("terminal failure must surface through apply")
		}
	case <-time.After(time.Second):
		t.Fatal("apply never ran")
	}
}

func TestGoAsyncOutsideEffectPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("GoAsync outside an effect must panic")
		}
	}()
	GoAsync(func(ctx context.Context) (int, error) { return 0, nil }, nil)
}
