package core

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of resize notifications into a single callback
// carrying the last size, fired after a quiet period.
type Debouncer struct {
	mu      sync.Mutex
	quiet   time.Duration
	fn      func(width, height int)
	timer   *time.Timer
	gen     uint64
	width   int
	height  int
	stopped bool
}

func NewDebouncer(quiet time.Duration, fn func(width, height int)) *Debouncer {
	return &Debouncer{quiet: quiet, fn: fn}
}

// Trigger records a size and restarts the quiet period.
func (d *Debouncer) Trigger(width, height int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.width, d.height = width, height
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// A newer trigger superseded this timer.
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	w, h := d.width, d.height
	d.timer = nil
	d.mu.Unlock()

	d.fn(w, h)
}

// Pending reports whether a callback is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
