package view

import (
	"slices"
	"sync"
)

// Tracker joins N named asynchronous operations into one loading/error
// signal: loading while any operation is pending, and the first error in
// registration order.
type Tracker struct {
	mu    sync.Mutex
	order []string
	ops   map[string]*operation
}

type operation struct {
	pending bool
	err     error
}

// NewTracker returns a Tracker with names pre-registered in that order.
func NewTracker(names ...string) *Tracker {
	t := &Tracker{ops: make(map[string]*operation)}
	for _, n := range names {
		t.register(n)
	}
	return t
}

func (t *Tracker) register(name string) *operation {
	op, ok := t.ops[name]
	if !ok {
		op = &operation{}
		t.ops[name] = op
		t.order = append(t.order, name)
	}
	return op
}

// Begin marks name pending and clears its previous error.
func (t *Tracker) Begin(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op := t.register(name)
	op.pending = true
	op.err = nil
}

// Done marks name finished with err.
func (t *Tracker) Done(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op := t.register(name)
	op.pending = false
	op.err = err
}

// Loading reports whether any operation is pending.
func (t *Tracker) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, op := range t.ops {
		if op.pending {
			return true
		}
	}
	return false
}

// Err returns the first error in registration order, or nil.
func (t *Tracker) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, name := range t.order {
		if err := t.ops[name].err; err != nil {
			return err
		}
	}
	return nil
}

// Pending lists pending operations in registration order.
func (t *Tracker) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, name := range t.order {
		if t.ops[name].pending {
			out = append(out, name)
		}
	}
	return out
}

// Names lists every registered operation.
func (t *Tracker) Names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.order)
}
