// Package watcher watches the beads data file for changes, preferring
// fsnotify events and falling back to stat polling where inotify is
// unavailable or unreliable (network mounts, forced via env).
package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is the window used to coalesce write bursts.
// bd rewrites the JSONL file in several quick operations; one reload per
// burst is enough.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer collapses rapid Trigger calls into a single callback once the
// window goes quiet.
type Debouncer struct {
	window time.Duration

	mu    sync.Mutex
	timer *time.Timer
	seq   uint64
}

// NewDebouncer returns a debouncer with the given window, or
// DefaultDebounceDuration when zero.
func NewDebouncer(window time.Duration) *Debouncer {
	if window == 0 {
		window = DefaultDebounceDuration
	}
	return &Debouncer{window: window}
}

// Trigger schedules fn after the window. A Trigger arriving before the
// window elapses replaces the pending callback and restarts the clock.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		// A timer can fire after Stop returned false and a newer Trigger
		// or Cancel moved the sequence on; that stale callback must not run.
		stale := seq != d.seq
		if !stale {
			d.timer = nil
		}
		d.mu.Unlock()

		if !stale {
			fn()
		}
	})
}

// Cancel drops any pending callback, including one whose timer already
// fired but has not yet run.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the debounce window.
func (d *Debouncer) Duration() time.Duration {
	return d.window
}
