package timing

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Throttler emits on the leading call of each window of length delay and
// drops every other call inside the window.  A zero delay never drops.
type Throttler[T any] struct {
	emit  func(T)
	clock Clock

	mu      sync.Mutex
	limiter *rate.Limiter
	stopped bool
}

// NewThrottler returns a Throttler calling emit at most once per delay.
func NewThrottler[T any](delay time.Duration, emit func(T), opts ...Option) *Throttler[T] {
	o := buildOptions(opts)
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Throttler[T]{
		emit:    emit,
		clock:   o.clock,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Call emits v synchronously if the window is open and reports whether it
// did.
func (t *Throttler[T]) Call(v T) bool {
	t.mu.Lock()
	if t.stopped || !t.limiter.AllowN(t.clock.Now(), 1) {
		t.mu.Unlock()
		return false
	}
	t.mu.Unlock()
	t.emit(v)
	return true
}

// Stop makes every later Call a no-op.
func (t *Throttler[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}
