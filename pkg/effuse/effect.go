package effuse

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// flushMode selects when a triggered effect actually re-runs.
type flushMode uint8

const (
	// flushImmediate runs synchronously on trigger.
	flushImmediate flushMode = iota
	// flushPost queues on the owner; drained by RunPendingEffects/Flush,
	// coalescing multiple triggers from the same tick into one run.
	flushPost
	// flushDebounce collapses rapid triggers, running wait after the last.
	flushDebounce
)

// Effect is a scheduled, re-run-on-change side-effecting computation.
// Its dependency subscriptions are torn down and rebuilt on every run, so
// stale dependencies are dropped automatically.
type Effect struct {
	id uint64

	fn func() Cleanup

	// cleanups accumulated by the current run (returned Cleanup plus any
	// registered via OnCleanup). All run before the next execution and on
	// Stop, each guarded so one failure cannot block the others.
	cleanups   []func()
	cleanupsMu sync.Mutex

	// sources are the Deps this effect currently subscribes to.
	sources   []*Dep
	sourcesMu sync.Mutex

	owner *Owner

	pending  atomic.Bool
	disposed atomic.Bool
	paused   atomic.Bool
	running  atomic.Bool

	// runMu serializes executions: synchronous triggers, debounce timer
	// fires, and Resume never interleave.
	runMu sync.Mutex

	flush    flushMode
	wait     time.Duration
	deferred bool
	name     string

	timer   *time.Timer
	timerMu sync.Mutex

	// asyncMu guards the single tracked async run per handle.
	asyncMu     sync.Mutex
	asyncCancel context.CancelFunc
	asyncSeq    uint64
}

// EffectOption configures an Effect at creation.
type EffectOption interface {
	isEffectOption()
	applyEffect(e *Effect)
}

type effectOptionFunc func(*Effect)

func (f effectOptionFunc) isEffectOption()       {}
func (f effectOptionFunc) applyEffect(e *Effect) { f(e) }

// Deferred skips the initial synchronous run at creation. The effect has
// no dependencies until its first execution, so a deferred effect is
// typically driven by Resume or by wiring done in a Watch.
func Deferred() EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.deferred = true
	})
}

// Debounce collapses rapid triggers: the effect runs wait after the most
// recent trigger, and each new trigger cancels the pending timer.
func Debounce(wait time.Duration) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.flush = flushDebounce
		e.wait = wait
	})
}

// FlushPost defers re-runs to the owner's pending queue so multiple
// synchronous triggers coalesce into one run per drain.
func FlushPost() EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.flush = flushPost
	})
}

// EffectName sets a diagnostic name that appears in debug logs.
func EffectName(name string) EffectOption {
	return effectOptionFunc(func(e *Effect) {
		e.name = name
	})
}

// CreateEffect creates an effect within the current owner scope and,
// unless Deferred, runs it immediately. The body's returned Cleanup (and
// any cleanups registered via OnCleanup) run before each re-run and when
// the effect stops.
func CreateEffect(fn func() Cleanup, opts ...EffectOption) *Effect {
	owner := getCurrentOwner()
	if owner == nil {
		owner = rootOwner
	}

	e := &Effect{
		id:    nextID(),
		fn:    fn,
		owner: owner,
	}

	for _, opt := range opts {
		opt.applyEffect(e)
	}

	owner.registerEffect(e)

	if !e.deferred {
		e.run()
	}

	return e
}

// MarkDirty schedules a re-run according to the flush policy.
// Implements Listener.
func (e *Effect) MarkDirty() {
	if e.disposed.Load() || e.paused.Load() {
		return
	}

	switch e.flush {
	case flushDebounce:
		e.timerMu.Lock()
		if e.timer != nil {
			e.timer.Stop()
		}
		e.timer = time.AfterFunc(e.wait, func() {
			if !e.disposed.Load() && !e.paused.Load() {
				e.run()
			}
		})
		e.timerMu.Unlock()

	case flushPost:
		if e.pending.CompareAndSwap(false, true) {
			e.owner.scheduleEffect(e)
		}

	default:
		// A write issued from inside this effect's own body must not
		// re-enter run; queue it for the next drain instead.
		if e.running.Load() {
			if e.pending.CompareAndSwap(false, true) {
				e.owner.scheduleEffect(e)
			}
			return
		}
		e.run()
	}
}

// ID implements Listener.
func (e *Effect) ID() uint64 {
	return e.id
}

// IsStopped reports whether Stop has run.
func (e *Effect) IsStopped() bool {
	return e.disposed.Load()
}

// run executes the effect body: previous cleanups first, then the body
// inside a fresh tracking frame. Each dependency is subscribed the
// moment the body reads it, so a write from inside the body to a source
// it already read queues a re-run through MarkDirty instead of being
// lost. The dependency list is captured even when the body panics, so
// the effect still reacts to whatever it read before failing. A Suspend
// sentinel is swallowed as an intentional yield; any other panic
// propagates to the trigger site.
func (e *Effect) run() {
	if e.disposed.Load() {
		return
	}
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.disposed.Load() {
		return
	}

	e.running.Store(true)
	defer e.running.Store(false)

	e.pending.Store(false)
	e.runCleanups()
	e.clearSources()

	oldEffect := setCurrentEffect(e)
	oldOwner := setCurrentOwner(e.owner)
	startTrackingFor(e)

	var ret Cleanup
	func() {
		defer func() {
			deps := StopTracking()
			setCurrentOwner(oldOwner)
			setCurrentEffect(oldEffect)
			e.subscribeTo(deps)

			if r := recover(); r != nil {
				if isSuspend(r) {
					return
				}
				panic(r)
			}
		}()
		ret = e.fn()
	}()

	if ret != nil {
		e.addCleanup(ret)
	}
}

// addCleanup appends a cleanup for the current run. Runs fn immediately
// if the effect is already stopped.
func (e *Effect) addCleanup(fn func()) {
	if e.disposed.Load() {
		fn()
		return
	}
	e.cleanupsMu.Lock()
	e.cleanups = append(e.cleanups, fn)
	e.cleanupsMu.Unlock()
}

// runCleanups executes and clears accumulated cleanups. Individual
// failures are recovered and logged so one cleanup cannot block the rest.
func (e *Effect) runCleanups() {
	e.cleanupsMu.Lock()
	cleanups := e.cleanups
	e.cleanups = nil
	e.cleanupsMu.Unlock()

	for _, fn := range cleanups {
		func() {
			defer func() {
				if r := recover(); r != nil {
					Log().Error("effect cleanup panicked", "effect", e.name, "panic", r)
				}
			}()
			fn()
		}()
	}
}

func (e *Effect) clearSources() {
	e.sourcesMu.Lock()
	sources := e.sources
	e.sources = e.sources[:0]
	e.sourcesMu.Unlock()

	for _, source := range sources {
		source.Unsubscribe(e)
	}
}

func (e *Effect) subscribeTo(deps []*Dep) {
	if e.disposed.Load() {
		// Stopped during its own run; the subscriptions made while the
		// body executed must not outlive it.
		for _, d := range deps {
			d.Unsubscribe(e)
		}
		return
	}
	e.sourcesMu.Lock()
	e.sources = append(e.sources[:0], deps...)
	e.sourcesMu.Unlock()

	for _, d := range deps {
		d.Subscribe(e)
	}
}

// Stop permanently stops the effect: pending timers and any in-flight
// async run are canceled, cleanups run, and subscriptions are dropped.
// Idempotent; later-arriving async completions become no-ops.
func (e *Effect) Stop() {
	if e.disposed.Swap(true) {
		return
	}

	e.timerMu.Lock()
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.timerMu.Unlock()

	e.asyncMu.Lock()
	e.asyncSeq++
	if e.asyncCancel != nil {
		e.asyncCancel()
		e.asyncCancel = nil
	}
	e.asyncMu.Unlock()

	e.runCleanups()

	e.sourcesMu.Lock()
	sources := e.sources
	e.sources = nil
	e.sourcesMu.Unlock()

	for _, source := range sources {
		source.Unsubscribe(e)
	}
}

// Pause suppresses scheduled runs without discarding subscriptions.
func (e *Effect) Pause() {
	e.paused.Store(true)
}

// Resume lifts a pause and immediately re-executes once to reconcile any
// state changes missed while paused.
func (e *Effect) Resume() {
	if e.disposed.Load() {
		return
	}
	if e.paused.CompareAndSwap(true, false) {
		e.run()
	}
}

// OnCleanup registers fn to run before the current effect's next run and
// on stop. Outside an effect body it falls back to the current owner's
// disposal, matching unmount semantics.
func OnCleanup(fn func()) {
	if e := getCurrentEffect(); e != nil {
		e.addCleanup(fn)
		return
	}
	if owner := getCurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
		return
	}
	panic(ErrNoEffect)
}

// OnMount runs fn once within a freshly created effect. Equivalent to
// CreateEffect with no reactive dependencies.
func OnMount(fn func()) {
	CreateEffect(func() Cleanup {
		fn()
		return nil
	})
}

// OnUnmount registers fn to run when the current owner is disposed.
func OnUnmount(fn func()) {
	if owner := getCurrentOwner(); owner != nil {
		owner.OnCleanup(fn)
	}
}
