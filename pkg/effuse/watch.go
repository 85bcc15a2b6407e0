package effuse

type watchConfig struct {
	immediate bool
	once      bool
	deep      bool
}

// WatchOption configures Watch.
type WatchOption interface {
	isWatchOption()
	applyWatch(cfg *watchConfig)
}

type watchOptionFunc func(*watchConfig)

func (f watchOptionFunc) isWatchOption()             {}
func (f watchOptionFunc) applyWatch(cfg *watchConfig) { f(cfg) }

// Immediate requests a zeroth callback invocation at creation, with the
// old value set to the zero value of T.
func Immediate() WatchOption {
	return watchOptionFunc(func(cfg *watchConfig) {
		cfg.immediate = true
	})
}

// Once stops the watch after its first change-driven firing. The zeroth
// invocation requested by Immediate does not count; a watch created with
// both fires once at creation and once on the first change, then stops.
func Once() WatchOption {
	return watchOptionFunc(func(cfg *watchConfig) {
		cfg.once = true
	})
}

// Deep makes the watch fire on every source trigger without comparing
// values. Used with getters that traverse reactive objects.
func Deep() WatchOption {
	return watchOptionFunc(func(cfg *watchConfig) {
		cfg.deep = true
	})
}

// Watch tracks source and invokes cb(new, old) whenever the result
// changes under shallow identity (or unconditionally with Deep). The
// callback runs untracked, so its own reads don't become dependencies;
// OnCleanup may be used inside it to schedule per-firing teardown.
//
// Returns the underlying effect handle: Stop, Pause, and Resume apply.
func Watch[T any](source func() T, cb func(newValue, oldValue T), opts ...WatchOption) *Effect {
	var cfg watchConfig
	for _, opt := range opts {
		opt.applyWatch(&cfg)
	}

	var old T
	first := true

	return CreateEffect(func() Cleanup {
		newValue := source()

		if first {
			first = false
			old = newValue
			if cfg.immediate {
				// The zeroth call never consumes a Once watch.
				var zero T
				fireWatch(cb, newValue, zero, false)
			}
			return nil
		}

		if cfg.deep || !defaultEquals(old, newValue) {
			prev := old
			old = newValue
			fireWatch(cb, newValue, prev, cfg.once)
		}
		return nil
	}, EffectName("watch"))
}

// fireWatch invokes cb untracked and, for a Once watch, stops the running
// effect after this invocation.
func fireWatch[T any](cb func(T, T), newValue, oldValue T, once bool) {
	if once {
		if e := getCurrentEffect(); e != nil {
			defer e.Stop()
		}
	}
	Untracked(func() {
		cb(newValue, oldValue)
	})
}

// WatchSignal watches a signal's value. Convenience over Watch(s.Get, cb).
func WatchSignal[T any](s *Signal[T], cb func(newValue, oldValue T), opts ...WatchOption) *Effect {
	return Watch(s.Get, cb, opts...)
}

// WatchRx deep-watches a reactive object: every nested key is traversed
// eagerly to force tracking, and cb fires on any mutation anywhere in the
// structure.
func WatchRx(rx *Rx, cb func(), opts ...WatchOption) *Effect {
	opts = append(opts, Deep())
	return Watch(func() uint64 {
		traverseRx(rx)
		return 0
	}, func(uint64, uint64) {
		cb()
	}, opts...)
}

// traverseRx reads every key (and nested structure) so all Deps are
// tracked by the surrounding frame.
func traverseRx(rx *Rx) {
	for _, key := range rx.Keys() {
		traverseValue(rx.Get(key))
	}
}

func traverseValue(v any) {
	switch t := v.(type) {
	case *Rx:
		traverseRx(t)
	case *RxList:
		n := t.Len()
		for i := 0; i < n; i++ {
			traverseValue(t.Get(i))
		}
	}
}
