package effuse

import (
	"context"
	"time"
)

// Backoff selects the delay strategy between async retries.
type Backoff uint8

const (
	// BackoffConstant waits the same delay between attempts.
	BackoffConstant Backoff = iota
	// BackoffExponential doubles the delay after each attempt.
	BackoffExponential
)

type asyncConfig struct {
	retries int
	delay   time.Duration
	backoff Backoff
	timeout time.Duration
	name    string
}

// AsyncOption configures GoAsync.
type AsyncOption interface {
	isAsyncOption()
	applyAsync(cfg *asyncConfig)
}

type asyncOptionFunc func(*asyncConfig)

func (f asyncOptionFunc) isAsyncOption()              {}
func (f asyncOptionFunc) applyAsync(cfg *asyncConfig) { f(cfg) }

// Retry re-attempts failed work up to n extra times, waiting delay between
// attempts (doubled each time with BackoffExponential).
func Retry(n int, delay time.Duration, strategy Backoff) AsyncOption {
	return asyncOptionFunc(func(cfg *asyncConfig) {
		cfg.retries = n
		cfg.delay = delay
		cfg.backoff = strategy
	})
}

// AsyncTimeout bounds each attempt; an attempt exceeding d fails with the
// context's deadline error and is retried if attempts remain.
func AsyncTimeout(d time.Duration) AsyncOption {
	return asyncOptionFunc(func(cfg *asyncConfig) {
		cfg.timeout = d
	})
}

// AsyncName sets a diagnostic name used in debug logs.
func AsyncName(name string) AsyncOption {
	return asyncOptionFunc(func(cfg *asyncConfig) {
		cfg.name = name
	})
}

// GoAsync runs work off the reactive loop as the async tail of the
// current effect. Only one async run is tracked per effect handle: a new
// call (or Stop) cancels the previous run, and a completion that arrives
// after cancellation or supersession is a no-op — apply is never invoked
// for stale runs.
//
// Failures never escape: after retries are exhausted the terminal error is
// handed to apply (the caller's own error channel) or, when apply is nil,
// logged in debug mode and swallowed.
//
// Must be called inside an effect body; the returned Cleanup cancels the
// run and is typically returned from the body:
//
//	effuse.CreateEffect(func() effuse.Cleanup {
//	    q := query.Get()
//	    return effuse.GoAsync(func(ctx context.Context) (Results, error) {
//	        return search(ctx, q)
//	    }, func(r Results, err error) {
//	        results.Set(r)
//	    })
//	})
func GoAsync[R any](
	work func(ctx context.Context) (R, error),
	apply func(result R, err error),
	opts ...AsyncOption,
) Cleanup {
	e := getCurrentEffect()
	if e == nil {
		panic(ErrNoEffect)
	}

	var cfg asyncConfig
	for _, opt := range opts {
		opt.applyAsync(&cfg)
	}

	e.asyncMu.Lock()
	if e.asyncCancel != nil {
		e.asyncCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.asyncCancel = cancel
	e.asyncSeq++
	mySeq := e.asyncSeq
	e.asyncMu.Unlock()

	go func() {
		result, err := runAttempts(ctx, work, cfg)

		if ctx.Err() != nil {
			// Canceled or superseded mid-flight; drop the completion.
			return
		}

		e.asyncMu.Lock()
		stale := e.asyncSeq != mySeq || e.disposed.Load()
		e.asyncMu.Unlock()
		if stale {
			return
		}

		if apply != nil {
			apply(result, err)
		} else if err != nil {
			debugLog("async effect failed", "effect", cfg.name, "error", err)
		}
	}()

	return func() {
		cancel()
	}
}

// runAttempts executes work with the configured per-attempt timeout and
// retry policy.
func runAttempts[R any](ctx context.Context, work func(ctx context.Context) (R, error), cfg asyncConfig) (R, error) {
	delay := cfg.delay
	var result R
	var err error

	for attempt := 0; ; attempt++ {
		attemptCtx := ctx
		var cancelAttempt context.CancelFunc
		if cfg.timeout > 0 {
			attemptCtx, cancelAttempt = context.WithTimeout(ctx, cfg.timeout)
		}

		result, err = work(attemptCtx)
		if cancelAttempt != nil {
			cancelAttempt()
		}

		if err == nil || ctx.Err() != nil || attempt >= cfg.retries {
			return result, err
		}

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
			if cfg.backoff == BackoffExponential {
				delay *= 2
			}
		}
	}
}
