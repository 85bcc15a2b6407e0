package effuse

import (
	"log/slog"
	"sync/atomic"
)

// DebugMode enables extra diagnostics (readonly write warnings, swallowed
// async errors, duplicate-key reports from the mount layer). Set at
// startup; not meant to change during runtime.
var DebugMode bool

var logger atomic.Pointer[slog.Logger]

// SetLogger replaces the package logger. Defaults to slog.Default().
func SetLogger(l *slog.Logger) {
	logger.Store(l)
}

// Log returns the package logger.
func Log() *slog.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// debugLog emits a warning only in debug mode.
func debugLog(msg string, args ...any) {
	if DebugMode {
		Log().Warn(msg, args...)
	}
}
