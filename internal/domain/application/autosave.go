package application

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of field mutations into a single trailing save.
// Each Trigger restarts the quiet-period timer; the callback fires once the
// window elapses with no further triggers. Close prevents any later firing,
// so a torn-down form can never write stale state.
type Debouncer struct {
	mu     sync.Mutex
	quiet  time.Duration
	fn     func()
	timer  *time.Timer
	closed bool
}

func NewDebouncer(quiet time.Duration, fn func()) *Debouncer {
	if fn == nil {
		panic("debouncer callback cannot be nil")
	}
	return &Debouncer{quiet: quiet, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()

	d.fn()
}

// Cancel drops any pending save without closing the debouncer. Used when an
// explicit save supersedes the scheduled one.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Close cancels any pending save and permanently disables the debouncer.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
