package effuse

// Readable is the read side shared by Signal and Computed.
type Readable[T any] interface {
	Get() T
	Peek() T
}

// ReadonlySignal is a get-only view over a Signal or Computed, backed by
// the same cell: reads still track the original's Dep, and there is no
// setter.
type ReadonlySignal[T any] struct {
	src Readable[T]
}

// Readonly wraps a Signal or Computed in a get-only view.
func Readonly[T any](src Readable[T]) *ReadonlySignal[T] {
	return &ReadonlySignal[T]{src: src}
}

// Get returns the current value, tracking the underlying cell.
func (r *ReadonlySignal[T]) Get() T {
	return r.src.Get()
}

// Peek returns the current value without tracking.
func (r *ReadonlySignal[T]) Peek() T {
	return r.src.Peek()
}

// GetAny implements Source.
func (r *ReadonlySignal[T]) GetAny() any {
	return r.Get()
}

// ReadonlyRx is a rejection wrapper over an Rx: reads behave exactly like
// the underlying object (including tracking), writes and deletes are
// no-ops that report failure rather than panicking.
type ReadonlyRx struct {
	rx *Rx
}

// ReadonlyOf wraps rx in a readonly view.
func ReadonlyOf(rx *Rx) *ReadonlyRx {
	return &ReadonlyRx{rx: rx}
}

// Get reads key; nested structured values come back readonly too.
func (r *ReadonlyRx) Get(key string) any {
	return readonlyWrap(r.rx.Get(key))
}

// Set is rejected: the underlying value is untouched and false is
// returned. Warns in debug mode.
func (r *ReadonlyRx) Set(key string, value any) bool {
	debugLog("write to readonly object rejected", "key", key)
	return false
}

// Delete is rejected, mirroring Set.
func (r *ReadonlyRx) Delete(key string) bool {
	debugLog("delete on readonly object rejected", "key", key)
	return false
}

// Has delegates to the underlying object, tracking its iteration Dep.
func (r *ReadonlyRx) Has(key string) bool {
	return r.rx.Has(key)
}

// Keys delegates to the underlying object.
func (r *ReadonlyRx) Keys() []string {
	return r.rx.Keys()
}

// Len delegates to the underlying object.
func (r *ReadonlyRx) Len() int {
	return r.rx.Len()
}

// ReadonlyList is the rejection wrapper over an RxList.
type ReadonlyList struct {
	list *RxList
}

// Get reads index i; nested values come back readonly.
func (r *ReadonlyList) Get(i int) any {
	return readonlyWrap(r.list.Get(i))
}

// Set is rejected.
func (r *ReadonlyList) Set(i int, value any) bool {
	debugLog("write to readonly list rejected", "index", i)
	return false
}

// Len delegates to the underlying list.
func (r *ReadonlyList) Len() int {
	return r.list.Len()
}

// readonlyWrap converts reactive wrappers surfaced by a read into their
// readonly counterparts.
func readonlyWrap(v any) any {
	switch t := v.(type) {
	case *Rx:
		return &ReadonlyRx{rx: t}
	case *RxList:
		return &ReadonlyList{list: t}
	default:
		return v
	}
}
