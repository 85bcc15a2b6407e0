package effuse

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Batch groups multiple signal updates into a single notification phase.
// All triggers raised inside fn are collected, deduplicated by listener
// ID, and fired once when the outermost batch completes. An effect that
// reads two signals both mutated inside the batch therefore runs exactly
// once, observing both new values.
//
// Batches nest; notifications only fire when the outermost batch ends.
func Batch(fn func()) {
	incrementBatchDepth()

	defer func() {
		if decrementBatchDepth() {
			processPendingUpdates()
		}
	}()

	fn()
}

// processPendingUpdates deduplicates and notifies all pending listeners.
// Derived values are invalidated first: a queued computed's MarkDirty
// triggers its own subscribers, and those cascade notifications must
// join this drain (and dedupe against it) rather than fire effects
// directly, or an effect depending on both a signal and a computed over
// it would run twice. Effects run last, against fully invalidated
// caches.
func processPendingUpdates() {
	updates := drainPendingUpdates()
	if len(updates) == 0 {
		return
	}

	seen := mapset.NewThreadUnsafeSet[uint64]()
	var effects []Listener

	incrementBatchDepth()
	for len(updates) > 0 {
		for _, listener := range updates {
			if !seen.Add(listener.ID()) {
				continue
			}
			if _, ok := listener.(*Effect); ok {
				effects = append(effects, listener)
				continue
			}
			listener.MarkDirty()
		}
		updates = drainPendingUpdates()
	}
	decrementBatchDepth()

	for _, listener := range effects {
		listener.MarkDirty()
	}
}

// Untracked runs fn without recording signal reads as dependencies.
// Reads inside fn do not pollute the caller's tracking frame.
func Untracked(fn func()) {
	PauseTracking()
	defer ResumeTracking()
	fn()
}

// UntrackedGet reads a signal's value without creating a dependency.
// Equivalent to s.Peek().
func UntrackedGet[T any](s *Signal[T]) T {
	return s.Peek()
}
