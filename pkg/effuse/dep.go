package effuse

import "sync"

// Dep is the subscriber record backing one trackable source: a Signal, a
// Computed, or one key of an Rx object. Subscribers are kept in
// subscription order so triggers walk them deterministically.
type Dep struct {
	mu   sync.RWMutex
	subs []Listener
}

// NewDep creates an empty dependency record. Collaborator packages that
// build their own derived-signal features use NewDep together with
// StartTracking/StopTracking.
func NewDep() *Dep {
	return &Dep{}
}

// Track records this Dep into the current tracking frame, if one is open
// and not paused. Idempotent per frame.
func (d *Dep) Track() {
	track(d)
}

// Subscribe adds a listener, deduplicating by listener ID.
func (d *Dep) Subscribe(l Listener) {
	if l == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	lid := l.ID()
	for _, existing := range d.subs {
		if existing.ID() == lid {
			return
		}
	}
	d.subs = append(d.subs, l)
}

// Unsubscribe removes a listener. Order of the remaining subscribers is
// preserved so trigger order stays stable.
func (d *Dep) Unsubscribe(l Listener) {
	if l == nil {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	lid := l.ID()
	for i, existing := range d.subs {
		if existing.ID() == lid {
			d.subs = append(d.subs[:i], d.subs[i+1:]...)
			return
		}
	}
}

// Trigger notifies every current subscriber, in subscription order.
// Inside a Batch the notifications are queued and coalesced instead.
// Uses copy-before-notify so no lock is held during callbacks.
func (d *Dep) Trigger() {
	d.mu.RLock()
	subs := make([]Listener, len(d.subs))
	copy(subs, d.subs)
	d.mu.RUnlock()

	if getBatchDepth() > 0 {
		for _, sub := range subs {
			queuePendingUpdate(sub)
		}
		return
	}

	for _, sub := range subs {
		sub.MarkDirty()
	}
}

// Dispose clears the subscriber set. Used when the owning source is torn
// down explicitly.
func (d *Dep) Dispose() {
	d.mu.Lock()
	d.subs = nil
	d.mu.Unlock()
}

// subscriberCount reports the current number of subscribers.
func (d *Dep) subscriberCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.subs)
}
