package worker

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of triggers into one call of fn after the window has passed
// without a new trigger.
type Debouncer struct {
	fn      func()
	timer   *time.Timer
	window  time.Duration
	gen     uint64
	mu      sync.Mutex
	pending bool
	stopped bool
}

// NewDebouncer creates a debouncer calling fn on its own goroutine.
func NewDebouncer(window time.Duration, fn func()) *Debouncer {
	return &Debouncer{fn: fn, window: window}
}

// Trigger restarts the quiescence window.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = true
	d.timer = time.AfterFunc(d.window, func() { d.fire(gen) })
}

// Cancel drops a pending call. Later triggers schedule normally.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
}

func (d *Debouncer) isPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop drops any pending call and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.stopped = true
}

func (d *Debouncer) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
}

// fire ignores timers that were superseded after they already started.
func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.stopped {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}
