package debounce

import (
	"sync"
	"time"
)

// timer is the part of *time.Timer the debouncer needs.
type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Debouncer coalesces rapid requests into a single call of fn with the
// latest value. Each Request re-arms a single-shot timer; when it fires the
// pending value is handed to fn exactly once.
type Debouncer[T any] struct {
	delay time.Duration
	fn    func(T)
	after afterFunc

	mu      sync.Mutex
	t       timer
	pending T
	armed   bool
	gen     uint64

	// run serializes fn so two fires never overlap.
	run sync.Mutex
}

func New[T any](delay time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		delay: delay,
		fn:    fn,
		after: realAfterFunc,
	}
}

// Request stores v as the pending value and restarts the timer.
func (d *Debouncer[T]) Request(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.t != nil {
		d.t.Stop()
	}
	d.pending = v
	d.armed = true
	d.gen++
	gen := d.gen
	d.t = d.after(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if !d.armed || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.take()
	d.mu.Unlock()

	d.call(v)
}

// take clears the slot. Caller holds mu.
func (d *Debouncer[T]) take() T {
	v := d.pending
	var zero T
	d.pending = zero
	d.armed = false
	d.t = nil
	return v
}

func (d *Debouncer[T]) call(v T) {
	d.run.Lock()
	defer d.run.Unlock()
	d.fn(v)
}

// Pending returns the value waiting for the timer, if any.
func (d *Debouncer[T]) Pending() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending, d.armed
}

// Cancel drops the pending value. It reports whether one was pending.
func (d *Debouncer[T]) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.armed {
		return false
	}
	if d.t != nil {
		d.t.Stop()
	}
	d.take()
	d.gen++
	return true
}

// Flush applies the pending value now instead of waiting for the timer.
func (d *Debouncer[T]) Flush() bool {
	d.mu.Lock()
	if !d.armed {
		d.mu.Unlock()
		return false
	}
	if d.t != nil {
		d.t.Stop()
	}
	v := d.take()
	d.gen++
	d.mu.Unlock()

	d.call(v)
	return true
}

// Delay returns the configured quiet period.
func (d *Debouncer[T]) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}

// SetDelay changes the quiet period for subsequent requests.
func (d *Debouncer[T]) SetDelay(delay time.Duration) {
	d.mu.Lock()
	d.delay = delay
	d.mu.Unlock()
}
