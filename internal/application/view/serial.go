package view

import "sync"

// serialQueue runs submitted functions one at a time in submission order.
// A function submitted while another is running, including from inside it,
// is queued and run by the goroutine already draining the queue, so callers
// never observe a mutation interleaved with a publish.
type serialQueue struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func (q *serialQueue) do(f func()) {
	q.mu.Lock()
	q.queue = append(q.queue, f)
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	for len(q.queue) > 0 {
		next := q.queue[0]
		q.queue[0] = nil
		q.queue = q.queue[1:]
		q.mu.Unlock()
		next()
		q.mu.Lock()
	}
	q.running = false
	q.mu.Unlock()
}
