package store

import (
	"sync"
	"sync/atomic"

	"github.com/chrismichaelps/effuse-sub003/pkg/effuse"
)

// ScopeKey is the owner-context key under which a Scope is installed.
var ScopeKey = &struct{ name string }{"StoreScope"}

// Scope holds the keyed-signal instances belonging to one context
// (typically a live-server session or a test).
type Scope struct {
	signals sync.Map // map[uint64]any
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{}
}

// NewGlobal creates a signal shared across all scopes. It is a plain
// effuse signal; the wrapper exists so declarations read symmetrically
// with NewKeyed.
func NewGlobal[T any](initial T) *Global[T] {
	return &Global[T]{
		Signal: effuse.NewSignal(initial),
	}
}

// Global wraps an effuse.Signal for process-wide state.
type Global[T any] struct {
	*effuse.Signal[T]
}

// Readonly returns a read-only view of the global signal.
func (g *Global[T]) Readonly() *effuse.ReadonlySignal[T] {
	return effuse.Readonly[T](g.Signal)
}

// NewKeyed creates a definition for a scope-keyed signal. Accessing it
// looks up or creates the instance in the current owner's Scope.
func NewKeyed[T any](initial T) *Keyed[T] {
	return &Keyed[T]{
		id:      nextID(),
		initial: initial,
	}
}

// Keyed is a scope-keyed signal definition. The zero value is not
// usable; construct with NewKeyed.
type Keyed[T any] struct {
	id      uint64
	initial T
}

var idCounter uint64

func nextID() uint64 {
	return atomic.AddUint64(&idCounter, 1)
}

// Get returns the current value for the active scope, subscribing the
// current listener. Without an installed Scope it falls back to the
// initial value.
func (k *Keyed[T]) Get() T {
	sig := k.signal()
	if sig == nil {
		return k.initial
	}
	return sig.Get()
}

// Peek returns the current value without subscribing.
func (k *Keyed[T]) Peek() T {
	sig := k.signal()
	if sig == nil {
		return k.initial
	}
	return sig.Peek()
}

// Set updates the value for the active scope. No-op without a Scope.
func (k *Keyed[T]) Set(val T) {
	if sig := k.signal(); sig != nil {
		sig.Set(val)
	}
}

// Update transforms the value for the active scope. No-op without a
// Scope.
func (k *Keyed[T]) Update(fn func(T) T) {
	if sig := k.signal(); sig != nil {
		sig.Set(fn(sig.Peek()))
	}
}

// Signal returns the underlying signal for the active scope, creating
// it on first access. Returns nil when no Scope is installed.
func (k *Keyed[T]) Signal() *effuse.Signal[T] {
	return k.signal()
}

func (k *Keyed[T]) signal() *effuse.Signal[T] {
	ctxVal := effuse.GetContext(ScopeKey)
	if ctxVal == nil {
		return nil
	}
	scope, ok := ctxVal.(*Scope)
	if !ok {
		return nil
	}

	if val, ok := scope.signals.Load(k.id); ok {
		return val.(*effuse.Signal[T])
	}

	newSig := effuse.NewSignal(k.initial)
	actual, loaded := scope.signals.LoadOrStore(k.id, newSig)
	if loaded {
		return actual.(*effuse.Signal[T])
	}
	return newSig
}
