package timing

import (
	"sync"
	"time"
)

// Debouncer delays emit until delay has passed without a new Call.  Each
// Call restarts the wait and replaces the pending value, so under continuous
// input nothing is emitted.
type Debouncer[T any] struct {
	delay time.Duration
	emit  func(T)
	clock Clock

	mu      sync.Mutex
	timer   Timer
	value   T
	pending bool
	gen     uint64
	stopped bool
}

// NewDebouncer returns a Debouncer calling emit with the latest value.
func NewDebouncer[T any](delay time.Duration, emit func(T), opts ...Option) *Debouncer[T] {
	o := buildOptions(opts)
	return &Debouncer[T]{delay: delay, emit: emit, clock: o.clock}
}

// Call records v and restarts the quiet period.  Calls after Stop are
// ignored.
func (d *Debouncer[T]) Call(v T) {
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
	d.value = v
	d.pending = true
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || !d.pending || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.value
	d.pending = false
	d.timer = nil
	d.mu.Unlock()
	d.emit(v)
}

// Flush emits the pending value now, if there is one.
func (d *Debouncer[T]) Flush() {
	d.mu.Lock()
	if d.stopped || !d.pending {
		d.mu.Unlock()
		return
	}
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	v := d.value
	d.pending = false
	d.gen++
	d.mu.Unlock()
	d.emit(v)
}

// Pending reports whether a value is waiting to be emitted.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop cancels the pending emission.  The Debouncer ignores every later call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
