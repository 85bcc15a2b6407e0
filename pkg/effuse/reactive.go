package effuse

import (
	"reflect"
	"sort"
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Rx is a reactive view over a plain map[string]any: each key gets its own
// Dep on first access, and one iteration Dep covers key-set changes so
// Has/Keys/Len are themselves reactive.
//
// Nested map[string]any and []any values are wrapped on read, memoized by
// the underlying referent so the same target always yields the identical
// wrapper.
type Rx struct {
	target map[string]any

	mu   sync.Mutex
	deps map[string]*Dep
	iter *Dep
}

// RxList is the slice counterpart of Rx: per-index Deps plus an iteration
// Dep for length changes.
type RxList struct {
	mu    sync.Mutex
	items []any
	deps  map[int]*Dep
	iter  *Dep
}

// Wrapper caches keyed by referent pointer, so wrapping is identity-stable
// across repeated reads. rawRefs holds referents opted out via MarkRaw.
var (
	proxyMu   sync.Mutex
	rxCache   = map[uintptr]*Rx{}
	listCache = map[uintptr]*RxList{}
	rawRefs   = mapset.NewSet[uintptr]()
)

// refPointer returns the referent pointer of a map, slice, or pointer
// value, used as the identity key for wrapper memoization.
func refPointer(v any) (uintptr, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.UnsafePointer:
		if rv.IsNil() {
			return 0, false
		}
		return rv.Pointer(), true
	default:
		return 0, false
	}
}

// MarkRaw permanently opts v's referent out of reactive wrapping; nested
// reads return it verbatim. Returns v for chaining. Non-reference values
// are returned unchanged (they are never wrapped anyway).
func MarkRaw[T any](v T) T {
	if ptr, ok := refPointer(v); ok {
		rawRefs.Add(ptr)
	}
	return v
}

// IsRaw reports whether v's referent has been marked raw.
func IsRaw(v any) bool {
	ptr, ok := refPointer(v)
	return ok && rawRefs.Contains(ptr)
}

// NewRx wraps target reactively. The wrapper is memoized by the map's
// identity: wrapping the same map twice yields the same *Rx. Explicit
// construction wraps even a raw-marked map; the raw mark only suppresses
// implicit nested wrapping.
func NewRx(target map[string]any) *Rx {
	if target == nil {
		target = make(map[string]any)
	}
	ptr, _ := refPointer(target)

	proxyMu.Lock()
	defer proxyMu.Unlock()
	if rx, ok := rxCache[ptr]; ok {
		return rx
	}
	rx := &Rx{
		target: target,
		deps:   make(map[string]*Dep),
		iter:   NewDep(),
	}
	rxCache[ptr] = rx
	return rx
}

// ToRaw recovers the unwrapped target behind an Rx or RxList; any other
// value is returned as-is. Identity lookup, never a copy.
func ToRaw(v any) any {
	switch t := v.(type) {
	case *Rx:
		return t.target
	case *RxList:
		t.mu.Lock()
		defer t.mu.Unlock()
		return t.items
	default:
		return v
	}
}

// wrapValue wraps nested structured values reactively, honoring raw marks.
func wrapValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if IsRaw(t) {
			return v
		}
		return NewRx(t)
	case []any:
		if IsRaw(t) {
			return v
		}
		return newRxList(t)
	default:
		return v
	}
}

// keyDep returns the Dep for key, creating it lazily.
func (r *Rx) keyDep(key string) *Dep {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.deps[key]
	if !ok {
		d = NewDep()
		r.deps[key] = d
	}
	return d
}

// Get reads key, tracking its Dep. Structured values come back wrapped.
func (r *Rx) Get(key string) any {
	r.keyDep(key).Track()

	r.mu.Lock()
	v := r.target[key]
	r.mu.Unlock()

	return wrapValue(v)
}

// Set writes key only if the new value differs under shallow identity,
// triggering the key's Dep and, for a previously absent key, the
// iteration Dep. Reports whether the write was accepted (always true for
// a writable Rx; the readonly view returns false).
func (r *Rx) Set(key string, value any) bool {
	r.mu.Lock()
	old, existed := r.target[key]
	if existed && identicalAny(old, value) {
		r.mu.Unlock()
		return true
	}
	r.target[key] = value
	d := r.deps[key]
	r.mu.Unlock()

	if d != nil {
		d.Trigger()
	}
	if !existed {
		r.iter.Trigger()
	}
	return true
}

// Delete removes key, triggering both the key's Dep and the iteration
// Dep. Reports whether the key existed.
func (r *Rx) Delete(key string) bool {
	r.mu.Lock()
	_, existed := r.target[key]
	if !existed {
		r.mu.Unlock()
		return false
	}
	delete(r.target, key)
	d := r.deps[key]
	r.mu.Unlock()

	if d != nil {
		d.Trigger()
	}
	r.iter.Trigger()
	return true
}

// Has reports key existence reactively via the iteration Dep.
func (r *Rx) Has(key string) bool {
	r.iter.Track()

	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.target[key]
	return ok
}

// Keys returns the sorted key set, tracking the iteration Dep.
func (r *Rx) Keys() []string {
	r.iter.Track()

	r.mu.Lock()
	keys := make([]string, 0, len(r.target))
	for k := range r.target {
		keys = append(keys, k)
	}
	r.mu.Unlock()

	sort.Strings(keys)
	return keys
}

// Len returns the key count, tracking the iteration Dep.
func (r *Rx) Len() int {
	r.iter.Track()

	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.target)
}

// IterDep exposes the iteration Dep for collaborator layers.
func (r *Rx) IterDep() *Dep {
	return r.iter
}

func newRxList(items []any) *RxList {
	ptr, ok := refPointer(items)
	if ok {
		proxyMu.Lock()
		if l, hit := listCache[ptr]; hit {
			proxyMu.Unlock()
			return l
		}
		defer proxyMu.Unlock()
	}
	l := &RxList{
		items: items,
		deps:  make(map[int]*Dep),
		iter:  NewDep(),
	}
	if ok {
		listCache[ptr] = l
	}
	return l
}

// NewRxList wraps a slice reactively, memoized by the slice's backing
// array so repeated wrapping of the same slice yields the same wrapper.
func NewRxList(items []any) *RxList {
	return newRxList(items)
}

func (l *RxList) indexDep(i int) *Dep {
	l.mu.Lock()
	defer l.mu.Unlock()
	d, ok := l.deps[i]
	if !ok {
		d = NewDep()
		l.deps[i] = d
	}
	return d
}

// Get reads index i, tracking its Dep. Out-of-range reads track the
// iteration Dep and return nil, so they become reactive to growth.
func (l *RxList) Get(i int) any {
	l.mu.Lock()
	inRange := i >= 0 && i < len(l.items)
	var v any
	if inRange {
		v = l.items[i]
	}
	l.mu.Unlock()

	if !inRange {
		l.iter.Track()
		return nil
	}
	l.indexDep(i).Track()
	return wrapValue(v)
}

// Set writes index i if the value differs under shallow identity.
func (l *RxList) Set(i int, value any) bool {
	l.mu.Lock()
	if i < 0 || i >= len(l.items) {
		l.mu.Unlock()
		return false
	}
	if identicalAny(l.items[i], value) {
		l.mu.Unlock()
		return true
	}
	l.items[i] = value
	d := l.deps[i]
	l.mu.Unlock()

	if d != nil {
		d.Trigger()
	}
	return true
}

// Append grows the list and triggers the iteration Dep.
func (l *RxList) Append(values ...any) {
	l.mu.Lock()
	l.items = append(l.items, values...)
	l.mu.Unlock()

	l.iter.Trigger()
}

// Len returns the element count, tracking the iteration Dep.
func (l *RxList) Len() int {
	l.iter.Track()

	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}
