package effuse

// Listener is anything that can be notified when a dependency changes.
// Effects and computed values implement it.
type Listener interface {
	// MarkDirty notifies the listener that one of its dependencies changed.
	// For computeds this invalidates the cached value; for effects it
	// schedules a re-run according to the effect's flush policy.
	MarkDirty()

	// ID returns a unique identifier for this listener.
	// Used for deduplication during batch processing.
	ID() uint64
}

// Cleanup is a function returned by effect bodies (or registered via
// OnCleanup) to release resources. Cleanups run before the effect re-runs
// and when the effect is stopped.
type Cleanup func()
