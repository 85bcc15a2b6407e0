// Package effuse implements the fine-grained reactivity core: signals,
// computed values, reactive objects, effects, and the dependency-tracking
// machinery that ties them together.
//
// Reads of a Signal, Computed, or Rx performed inside a tracking frame
// (opened by an effect run, a computed recomputation, or an explicit
// StartTracking call) register the underlying Dep with the frame. When the
// frame closes, the running computation subscribes to exactly the Deps it
// read, so dependencies are re-discovered on every run.
//
// Writes trigger the Dep's subscribers either immediately or, inside a
// Batch, once per distinct listener after the outermost batch completes.
//
// All tracking state is goroutine-local. Tracking frames must never
// straddle a goroutine boundary; spawn work with GoAsync or WithOwner
// instead of sharing a frame across goroutines.
package effuse
