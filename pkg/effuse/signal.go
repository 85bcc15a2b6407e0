package effuse

import "sync"

// Source is the type-erased read side of a Signal, Computed, or readonly
// view. The node and mount layers accept a Source anywhere a child or prop
// value may be reactive.
type Source interface {
	// GetAny returns the current value, tracking it as a dependency when a
	// tracking frame is open.
	GetAny() any
}

// Signal is a single mutable reactive cell. Reading it inside a tracking
// frame registers its Dep with the frame; writing a value that differs
// under shallow identity triggers every subscriber.
type Signal[T any] struct {
	id  uint64
	dep *Dep

	// value is the current committed value; version counts committed writes.
	value   T
	version uint64
	mu      sync.RWMutex

	// equal overrides the default shallow change detection when set.
	equal func(T, T) bool
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](initial T) *Signal[T] {
	return &Signal[T]{
		id:    nextID(),
		dep:   NewDep(),
		value: initial,
	}
}

// Get returns the current value and records the read in the open tracking
// frame, if any.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	value := s.value
	s.mu.RUnlock()

	s.dep.Track()
	return value
}

// Peek returns the current value without recording a dependency.
func (s *Signal[T]) Peek() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// GetAny implements Source.
func (s *Signal[T]) GetAny() any {
	return s.Get()
}

// Set commits value and triggers subscribers, unless the new value is
// equal to the old one under the signal's equality function, in which
// case nothing happens at all.
func (s *Signal[T]) Set(value T) {
	s.mu.Lock()
	changed := !s.equals(s.value, value)
	if changed {
		s.value = value
		s.version++
	}
	s.mu.Unlock()

	if changed {
		s.dep.Trigger()
	}
}

// Update atomically derives the new value from the current one.
func (s *Signal[T]) Update(fn func(T) T) {
	s.mu.Lock()
	newValue := fn(s.value)
	changed := !s.equals(s.value, newValue)
	if changed {
		s.value = newValue
		s.version++
	}
	s.mu.Unlock()

	if changed {
		s.dep.Trigger()
	}
}

// Version returns the number of committed writes. Unchanged-value sets do
// not advance it.
func (s *Signal[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Dep exposes the signal's dependency record so collaborator layers can
// subscribe to it directly.
func (s *Signal[T]) Dep() *Dep {
	return s.dep
}

// WithEquals configures a custom equality function and returns the signal
// for chaining. Useful when shallow identity is the wrong notion of
// change for T.
func (s *Signal[T]) WithEquals(fn func(T, T) bool) *Signal[T] {
	s.equal = fn
	return s
}

// ID returns the unique identifier for this signal.
func (s *Signal[T]) ID() uint64 {
	return s.id
}

func (s *Signal[T]) equals(a, b T) bool {
	if s.equal != nil {
		return s.equal(a, b)
	}
	return defaultEquals(a, b)
}
