package watcher

import (
	"sync"
	"time"
)

// DefaultDebounceDuration is used when no debounce duration is configured.
// Pipeline steps append output in bursts; 300ms coalesces a burst into a
// single notification without making the dashboard feel stale.
const DefaultDebounceDuration = 300 * time.Millisecond

// Debouncer coalesces rapid triggers into a single callback invocation.
// Each Trigger resets the timer; the callback of the most recent Trigger
// fires after the duration elapses with no further triggers.
type Debouncer struct {
	duration time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer with the given duration. A non-positive
// duration falls back to DefaultDebounceDuration.
func NewDebouncer(d time.Duration) *Debouncer {
	if d <= 0 {
		d = DefaultDebounceDuration
	}
	return &Debouncer{duration: d}
}

// Trigger schedules fn to run after the debounce duration. A pending
// invocation from an earlier Trigger is discarded.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, fn)
}

// Cancel discards any pending invocation.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the configured debounce duration.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
