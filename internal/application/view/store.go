package view

import (
	"slices"
	"sync"

	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/prometheus"
)

// StoreSnapshot is an immutable copy of the store contents.  Entities is
// shared between snapshots and must be treated as read-only.
type StoreSnapshot struct {
	Entities []company.Company
	Stats    *company.Stats
	Loading  bool
	Error    *string
	Selected *company.Company
	// Version increases by one with every observable change.
	Version uint64
}

// Tx is the working copy handed to Store.Batch.  Its setters follow the same
// rules as the Store setters; all of them are published as one change.
type Tx struct {
	state   StoreSnapshot
	setters []string
}

// SetEntities replaces the company list and clears loading and error.
func (tx *Tx) SetEntities(list []company.Company) {
	tx.state.Entities = slices.Clone(list)
	tx.state.Loading = false
	tx.state.Error = nil
	tx.setters = append(tx.setters, "entities")
}

// SetStats replaces the summary stats.
func (tx *Tx) SetStats(stats company.Stats) {
	tx.state.Stats = &stats
	tx.setters = append(tx.setters, "stats")
}

// SetLoading sets the loading flag.
func (tx *Tx) SetLoading(loading bool) {
	tx.state.Loading = loading
	tx.setters = append(tx.setters, "loading")
}

// SetError sets or clears the error message.  It always clears loading.
func (tx *Tx) SetError(msg *string) {
	if msg != nil {
		m := *msg
		msg = &m
	}
	tx.state.Error = msg
	tx.state.Loading = false
	tx.setters = append(tx.setters, "error")
}

// SetSelected sets or clears the selected company.
func (tx *Tx) SetSelected(c *company.Company) {
	if c != nil {
		cp := *c
		c = &cp
	}
	tx.state.Selected = c
	tx.setters = append(tx.setters, "selected")
}

// Reset restores the empty initial state.
func (tx *Tx) Reset() {
	tx.state = StoreSnapshot{Version: tx.state.Version}
	tx.setters = append(tx.setters, "reset")
}

// Store holds the last-fetched data.  Mutations are serialized; subscribers
// run after each observable change, in mutation order, and may mutate the
// store themselves (the nested mutation runs after the current notification
// round).  Setting a value equal to the current one notifies nobody.
type Store struct {
	queue   *serialQueue
	metrics *prometheus.DashboardMetrics

	mu    sync.RWMutex
	state StoreSnapshot
	subs  []subscriber[StoreSnapshot]
	next  int
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithStoreMetrics counts observable changes per setter.
func WithStoreMetrics(m *prometheus.DashboardMetrics) StoreOption {
	return func(s *Store) { s.metrics = m }
}

// NewStore returns an empty Store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{queue: &serialQueue{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current contents.
func (s *Store) Snapshot() StoreSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Subscribe registers fn for every subsequent observable change and returns
// a function that removes it.
func (s *Store) Subscribe(fn func(StoreSnapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs = append(s.subs, subscriber[StoreSnapshot]{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscriber[StoreSnapshot]) bool { return sub.id == id })
	}
}

// Batch applies fn to a working copy and publishes the result as a single
// change.
func (s *Store) Batch(fn func(tx *Tx)) {
	s.queue.do(func() { s.apply(fn) })
}

func (s *Store) apply(fn func(tx *Tx)) {
	s.mu.Lock()
	tx := &Tx{state: s.state}
	fn(tx)
	if equalSnapshots(s.state, tx.state) {
		s.mu.Unlock()
		return
	}
	tx.state.Version = s.state.Version + 1
	s.state = tx.state
	snap := s.state
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, setter := range tx.setters {
		s.metrics.RecordStoreUpdate(setter)
	}
	for _, sub := range subs {
		sub.fn(snap)
	}
}

func (s *Store) SetEntities(list []company.Company) { s.Batch(func(tx *Tx) { tx.SetEntities(list) }) }
func (s *Store) SetStats(stats company.Stats)       { s.Batch(func(tx *Tx) { tx.SetStats(stats) }) }
func (s *Store) SetLoading(loading bool)            { s.Batch(func(tx *Tx) { tx.SetLoading(loading) }) }
func (s *Store) SetError(msg *string)               { s.Batch(func(tx *Tx) { tx.SetError(msg) }) }
func (s *Store) SetSelected(c *company.Company)     { s.Batch(func(tx *Tx) { tx.SetSelected(c) }) }
func (s *Store) Reset()                             { s.Batch(func(tx *Tx) { tx.Reset() }) }

func equalSnapshots(a, b StoreSnapshot) bool {
	return a.Loading == b.Loading &&
		slices.EqualFunc(a.Entities, b.Entities, company.Company.Equal) &&
		equalPtr(a.Stats, b.Stats, company.Stats.Equal) &&
		equalPtr(a.Error, b.Error, func(x, y string) bool { return x == y }) &&
		equalPtr(a.Selected, b.Selected, company.Company.Equal)
}

func equalPtr[T any](a, b *T, eq func(T, T) bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return eq(*a, *b)
}
