package effuse

import "errors"

// ErrNoEffect is raised when an effect-scoped helper (OnCleanup with no
// owner, GoAsync) is used outside a running effect body.
var ErrNoEffect = errors.New("effuse: not inside an effect body")

// suspendSignal is the reserved sentinel an effect body raises through
// Suspend to exit early without error. The effect runner recognizes and
// swallows it; it never crosses the public API.
type suspendSignal struct{}

// Suspend aborts the current effect run as an intentional "not ready yet"
// yield. Dependencies read so far are still captured, so the effect
// re-runs when any of them change. Calling Suspend outside an effect body
// is a programming error and the sentinel will escape as a panic.
func Suspend() {
	panic(suspendSignal{})
}

// isSuspend reports whether a recovered panic value is the suspend
// sentinel.
func isSuspend(r any) bool {
	_, ok := r.(suspendSignal)
	return ok
}

// IsSuspend reports whether a recovered panic value is the suspend
// sentinel. Renderers that run user code under their own recover use it
// to distinguish an intentional yield from a real failure.
func IsSuspend(r any) bool {
	return isSuspend(r)
}
