package view

import (
	"slices"
	"sync"
	"time"

	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/internal/domain/query"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/prometheus"
)

// View is what a renderer draws: the derived rows plus everything else the
// dashboard shows.
type View struct {
	Rows     []company.Company
	Total    int
	Query    query.State
	Stats    *company.Stats
	Loading  bool
	Error    *string
	Selected *company.Company
	// StoreVersion is the store version the rows were derived from.
	StoreVersion uint64
}

// Engine is the explicit state container behind the dashboard.  It owns a
// Store and a query, re-derives the rows whenever either changes and
// publishes the resulting View to subscribers.
//
// Store and query mutations share one serial queue: derivation always runs
// on a consistent snapshot, and a mutation issued from a subscriber is
// applied once the current publish has finished.
type Engine struct {
	store   *Store
	queue   *serialQueue
	metrics *prometheus.DashboardMetrics
	logger  logging.Logger

	mu   sync.RWMutex
	q    query.State
	view View
	subs []subscriber[View]
	next int

	unsubscribeStore func()
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithQuery sets the initial query.  The default is query.Default().
func WithQuery(q query.State) EngineOption {
	return func(e *Engine) { e.q = q.Clone() }
}

// WithMetrics records derivation duration and row counts.
func WithMetrics(m *prometheus.DashboardMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine attaches an Engine to store and derives the initial View.
func NewEngine(store *Store, opts ...EngineOption) *Engine {
	e := &Engine{
		store:  store,
		queue:  store.queue,
		q:      query.Default(),
		logger: logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.unsubscribeStore = store.Subscribe(func(snap StoreSnapshot) {
		e.publish(snap, e.Query())
	})
	e.queue.do(func() { e.publish(store.Snapshot(), e.Query()) })
	return e
}

// Close detaches the Engine from its Store.
func (e *Engine) Close() {
	e.unsubscribeStore()
}

// Sync blocks until every mutation queued before the call has been applied
// and published.  It must not be called from a subscriber.
func (e *Engine) Sync() {
	done := make(chan struct{})
	e.queue.do(func() { close(done) })
	<-done
}

// Store returns the underlying Store.
func (e *Engine) Store() *Store { return e.store }

// Query returns a copy of the current query.
func (e *Engine) Query() query.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.q.Clone()
}

// View returns the last published View.
func (e *Engine) View() View {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.view
}

// Subscribe registers fn for every subsequent View and returns a function
// that removes it.
func (e *Engine) Subscribe(fn func(View)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.next
	e.next++
	e.subs = append(e.subs, subscriber[View]{id: id, fn: fn})
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		e.subs = slices.DeleteFunc(e.subs, func(s subscriber[View]) bool { return s.id == id })
	}
}

// UpdateQuery applies fn to a copy of the query.  When the result differs
// from the current query the rows are re-derived and published.
func (e *Engine) UpdateQuery(fn func(q *query.State)) {
	e.queue.do(func() {
		current := e.Query()
		next := current.Clone()
		fn(&next)
		if next.Equal(current) {
			return
		}
		e.mu.Lock()
		e.q = next
		e.mu.Unlock()
		e.publish(e.store.Snapshot(), next)
	})
}

func (e *Engine) SetSearchText(text string) {
	e.UpdateQuery(func(q *query.State) { q.SetSearchText(text) })
}

func (e *Engine) SetSort(field company.Field, order query.SortOrder) {
	e.UpdateQuery(func(q *query.State) { q.SetSort(field, order) })
}

func (e *Engine) ToggleSort(field company.Field) {
	e.UpdateQuery(func(q *query.State) { q.ToggleSort(field) })
}

// SetRangeFilter validates field before queueing the change.
func (e *Engine) SetRangeFilter(field company.Field, min, max float64) error {
	probe := query.Default()
	if err := probe.SetRangeFilter(field, min, max); err != nil {
		return err
	}
	e.UpdateQuery(func(q *query.State) { _ = q.SetRangeFilter(field, min, max) })
	return nil
}

func (e *Engine) ClearRangeFilter(field company.Field) {
	e.UpdateQuery(func(q *query.State) { q.ClearRangeFilter(field) })
}

func (e *Engine) SetHighPerformersOnly(on bool) {
	e.UpdateQuery(func(q *query.State) { q.SetHighPerformersOnly(on) })
}

func (e *Engine) ResetQuery() {
	e.UpdateQuery(func(q *query.State) { q.ResetToDefaults() })
}

// Select marks the company with id as selected.  An id not present in the
// store clears the selection and returns false.
func (e *Engine) Select(id string) bool {
	snap := e.store.Snapshot()
	for i := range snap.Entities {
		if snap.Entities[i].UUID == id {
			e.store.SetSelected(&snap.Entities[i])
			return true
		}
	}
	e.store.SetSelected(nil)
	return false
}

func (e *Engine) publish(snap StoreSnapshot, q query.State) {
	start := time.Now()
	rows := Derive(snap.Entities, q)
	elapsed := time.Since(start)
	e.metrics.RecordDerive(elapsed, len(snap.Entities), len(rows))
	e.logger.Debug("derived view",
		logging.Int("input", len(snap.Entities)),
		logging.Int("output", len(rows)),
		logging.String("query", q.String()),
		logging.Duration("elapsed", elapsed),
	)

	v := View{
		Rows:         rows,
		Total:        len(snap.Entities),
		Query:        q,
		Stats:        snap.Stats,
		Loading:      snap.Loading,
		Error:        snap.Error,
		Selected:     snap.Selected,
		StoreVersion: snap.Version,
	}

	e.mu.Lock()
	e.view = v
	subs := slices.Clone(e.subs)
	e.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}
