package effuse

import (
	"sync"
	"sync/atomic"
)

// Computed is a cached, lazily-recomputed derived value. It recomputes at
// most once per invalidation, on the next read, and its dependency set is
// exactly what the last run read.
//
// Computeds are themselves trackable: reading one inside a tracking frame
// registers the computed's own Dep, so chains of derived values work.
type Computed[T any] struct {
	id  uint64
	dep *Dep

	compute func() T

	value   T
	valueMu sync.RWMutex

	// valid is false whenever a dependency has triggered since the last
	// successful recomputation. A failed recomputation leaves it false so
	// the next read retries.
	valid atomic.Bool

	// sources are the Deps read during the last recomputation.
	sources   []*Dep
	sourcesMu sync.Mutex

	// computing guards against recursive self-reads.
	computing atomic.Bool

	equal func(T, T) bool
}

// NewComputed creates a computed over fn. fn is not invoked until the
// first Get.
func NewComputed[T any](fn func() T) *Computed[T] {
	return &Computed[T]{
		id:      nextID(),
		dep:     NewDep(),
		compute: fn,
	}
}

// Get returns the cached value, recomputing first if a dependency has
// changed since the last run. The read is tracked in the open frame.
func (c *Computed[T]) Get() T {
	c.dep.Track()

	if !c.valid.Load() {
		c.recompute()
	}

	c.valueMu.RLock()
	value := c.value
	c.valueMu.RUnlock()
	return value
}

// Peek returns the value without recording a dependency. Still recomputes
// when invalid.
func (c *Computed[T]) Peek() T {
	if !c.valid.Load() {
		c.recompute()
	}
	c.valueMu.RLock()
	defer c.valueMu.RUnlock()
	return c.value
}

// GetAny implements Source.
func (c *Computed[T]) GetAny() any {
	return c.Get()
}

// MarkDirty invalidates the cache and propagates to subscribers.
// Implements Listener; called by the Deps this computed reads.
func (c *Computed[T]) MarkDirty() {
	if c.valid.CompareAndSwap(true, false) {
		c.dep.Trigger()
	}
}

// ID implements Listener.
func (c *Computed[T]) ID() uint64 {
	return c.id
}

// Dep exposes the computed's dependency record.
func (c *Computed[T]) Dep() *Dep {
	return c.dep
}

// WithEquals configures a custom equality function used when deciding
// whether a recomputation produced a new value.
func (c *Computed[T]) WithEquals(fn func(T, T) bool) *Computed[T] {
	c.equal = fn
	return c
}

// recompute runs the computation inside a fresh tracking frame, replacing
// the source subscriptions with exactly what this run read. Dependencies
// are captured even when fn panics, so the computed still reacts to
// changes in whatever it managed to read; the panic propagates to the
// reader and the cache stays invalid.
func (c *Computed[T]) recompute() {
	if c.computing.Swap(true) {
		// Recursive self-read; surface the stale value rather than loop.
		return
	}
	defer c.computing.Store(false)

	c.sourcesMu.Lock()
	for _, source := range c.sources {
		source.Unsubscribe(c)
	}
	c.sources = c.sources[:0]
	c.sourcesMu.Unlock()

	StartTracking()
	var newValue T
	func() {
		defer func() {
			deps := StopTracking()
			c.sourcesMu.Lock()
			c.sources = deps
			c.sourcesMu.Unlock()
			for _, d := range deps {
				d.Subscribe(c)
			}
		}()
		newValue = c.compute()
	}()

	c.valueMu.Lock()
	c.value = newValue
	c.valueMu.Unlock()
	c.valid.Store(true)
}

// WritableComputed is a Computed whose setter forwards to a user-supplied
// function, letting a derived view double as a settable field.
type WritableComputed[T any] struct {
	*Computed[T]
	set func(T)
}

// NewWritableComputed pairs a computed getter with a forwarding setter.
func NewWritableComputed[T any](get func() T, set func(T)) *WritableComputed[T] {
	return &WritableComputed[T]{
		Computed: NewComputed(get),
		set:      set,
	}
}

// Set forwards to the configured setter. The new value becomes visible on
// the next Get once the underlying sources trigger invalidation.
func (w *WritableComputed[T]) Set(value T) {
	w.set(value)
}
