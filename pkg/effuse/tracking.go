package effuse

import (
	"runtime"
	"sync"
)

// trackingFrame accumulates the Deps read during one synchronous
// computation. A paused frame swallows reads instead of recording them.
// A frame opened with a listener subscribes it to each Dep as the Dep
// is read, so writes issued later in the same computation still reach
// the listener.
type trackingFrame struct {
	deps     []*Dep
	seen     map[*Dep]struct{}
	listener Listener
	paused   bool
}

// TrackingContext holds the reactive state for a goroutine.
// Each goroutine has its own context so concurrent renders and signal
// reads cannot corrupt each other's frame stack.
type TrackingContext struct {
	// frames is the stack of open tracking frames. The top frame receives
	// Track calls; a paused marker frame suppresses them.
	frames []*trackingFrame

	// currentOwner is the Owner that will own newly created effects.
	currentOwner *Owner

	// currentEffect is the effect whose body is currently executing.
	// Used by OnCleanup and GoAsync.
	currentEffect *Effect

	// batchDepth tracks nested Batch() calls. When > 0, triggers queue
	// notifications instead of firing immediately.
	batchDepth int

	// pendingUpdates accumulates listeners to notify when the outermost
	// batch completes. Deduplicated by ID before notification.
	pendingUpdates []Listener
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the runtime stack header. Implementation detail; never
// exposed.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	// The stack starts with "goroutine <id> ".
	var id uint64
	for i := 10; i < n; i++ {
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current
// goroutine, creating one if needed.
func getTrackingContext() *TrackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*TrackingContext)
	}

	ctx := &TrackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// StartTracking opens a new tracking frame. Every Dep read until the
// matching StopTracking is recorded into the frame exactly once.
func StartTracking() {
	ctx := getTrackingContext()
	ctx.frames = append(ctx.frames, &trackingFrame{})
}

// startTrackingFor opens a tracking frame that subscribes l to each Dep
// as it is read. Without the eager subscription an effect is subscribed
// to nothing while its body runs, and a write from inside the body to a
// dependency it already read would trigger nobody.
func startTrackingFor(l Listener) {
	ctx := getTrackingContext()
	ctx.frames = append(ctx.frames, &trackingFrame{listener: l})
}

// StopTracking closes the current frame and returns the Deps it
// accumulated, in first-read order. Calling it without a matching
// StartTracking, or across an unbalanced PauseTracking, is a programming
// error and panics: a silent mismatch would corrupt the dependency graph.
func StopTracking() []*Dep {
	ctx := getTrackingContext()
	if len(ctx.frames) == 0 {
		panic("effuse: StopTracking without matching StartTracking")
	}
	top := ctx.frames[len(ctx.frames)-1]
	if top.paused {
		panic("effuse: StopTracking inside PauseTracking; missing ResumeTracking")
	}
	ctx.frames = ctx.frames[:len(ctx.frames)-1]
	return top.deps
}

// PauseTracking suppresses dependency collection until the matching
// ResumeTracking. Pairs nest with strict stack discipline.
func PauseTracking() {
	ctx := getTrackingContext()
	ctx.frames = append(ctx.frames, &trackingFrame{paused: true})
}

// ResumeTracking ends the innermost PauseTracking. Calling it without a
// matching pause panics.
func ResumeTracking() {
	ctx := getTrackingContext()
	if len(ctx.frames) == 0 || !ctx.frames[len(ctx.frames)-1].paused {
		panic("effuse: ResumeTracking without matching PauseTracking")
	}
	ctx.frames = ctx.frames[:len(ctx.frames)-1]
}

// IsTracking reports whether reads on this goroutine are currently being
// recorded into a frame.
func IsTracking() bool {
	ctx := getTrackingContext()
	if len(ctx.frames) == 0 {
		return false
	}
	return !ctx.frames[len(ctx.frames)-1].paused
}

// track records d into the current frame, once per frame.
func track(d *Dep) {
	ctx := getTrackingContext()
	if len(ctx.frames) == 0 {
		return
	}
	top := ctx.frames[len(ctx.frames)-1]
	if top.paused {
		return
	}
	if top.seen == nil {
		top.seen = make(map[*Dep]struct{})
	}
	if _, ok := top.seen[d]; ok {
		return
	}
	top.seen[d] = struct{}{}
	top.deps = append(top.deps, d)
	if top.listener != nil {
		d.Subscribe(top.listener)
	}
}

// getCurrentOwner returns the current owner for the goroutine, or nil.
func getCurrentOwner() *Owner {
	return getTrackingContext().currentOwner
}

// setCurrentOwner sets the current owner and returns the previous one.
func setCurrentOwner(o *Owner) *Owner {
	ctx := getTrackingContext()
	old := ctx.currentOwner
	ctx.currentOwner = o
	return old
}

// getCurrentEffect returns the effect whose body is executing, or nil.
func getCurrentEffect() *Effect {
	return getTrackingContext().currentEffect
}

// setCurrentEffect sets the current effect and returns the previous one.
func setCurrentEffect(e *Effect) *Effect {
	ctx := getTrackingContext()
	old := ctx.currentEffect
	ctx.currentEffect = e
	return old
}

func getBatchDepth() int {
	return getTrackingContext().batchDepth
}

func incrementBatchDepth() {
	getTrackingContext().batchDepth++
}

// decrementBatchDepth returns true when the outermost batch completes.
func decrementBatchDepth() bool {
	ctx := getTrackingContext()
	ctx.batchDepth--
	return ctx.batchDepth == 0
}

// queuePendingUpdate records a listener to notify when the batch ends.
func queuePendingUpdate(l Listener) {
	ctx := getTrackingContext()
	ctx.pendingUpdates = append(ctx.pendingUpdates, l)
}

// drainPendingUpdates returns and clears the pending updates queue.
func drainPendingUpdates() []Listener {
	ctx := getTrackingContext()
	updates := ctx.pendingUpdates
	ctx.pendingUpdates = nil
	return updates
}

// WithOwner runs fn with the specified owner as the current owner.
// Used when spawning goroutines that create effects belonging to a
// specific scope.
func WithOwner(owner *Owner, fn func()) {
	old := setCurrentOwner(owner)
	defer setCurrentOwner(old)
	fn()
}

// CurrentOwner returns the goroutine's current owner, or nil when no
// scope is active.
func CurrentOwner() *Owner {
	return getCurrentOwner()
}

// SetContext stores a value on the current owner. The value is visible
// to that owner and its descendants via GetContext. No-op when no owner
// is active.
func SetContext(key, value any) {
	if owner := getCurrentOwner(); owner != nil {
		owner.SetValue(key, value)
	}
}

// GetContext retrieves a context value from the nearest provider in the
// owner hierarchy. Returns nil if no owner is active or the key is unset.
func GetContext(key any) any {
	owner := getCurrentOwner()
	if owner == nil {
		return nil
	}
	v, _ := owner.Value(key)
	return v
}
