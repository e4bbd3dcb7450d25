// Package dashboard orchestrates the two API reads behind the dashboard and
// feeds their results into the view store.
package dashboard

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/ipdash/internal/application/view"
	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ipdash/pkg/errors"
	"github.com/turtacn/ipdash/pkg/timing"
)

// Operation names registered in the tracker, in error-priority order.
const (
	OpCompanies = "companies"
	OpStats     = "stats"
)

// DefaultRetryThrottle is the window in which repeated retries collapse into
// one refresh.
const DefaultRetryThrottle = time.Second

// Fetcher is the read side of the analytics API.
type Fetcher interface {
	Companies(ctx context.Context) ([]company.Company, error)
	Stats(ctx context.Context) (company.Stats, error)
	// Invalidate drops any cached responses so the next read hits the API.
	Invalidate(ctx context.Context) error
}

// Service loads companies and stats concurrently into a view.Store.  Fetch
// failures are stored as the store's error message, never returned to
// subscribers.
type Service struct {
	api     Fetcher
	store   *view.Store
	tracker *view.Tracker
	metrics *prometheus.DashboardMetrics
	logger  logging.Logger

	retryWindow time.Duration
	clock       timing.Clock
	retry       *timing.Throttler[retryCall]

	mu  sync.Mutex
	gen uint64
}

type retryCall struct {
	ctx context.Context
	err *error
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *prometheus.DashboardMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l.Named("dashboard")
		}
	}
}

// WithRetryThrottle sets the retry window.  Zero disables throttling.
func WithRetryThrottle(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.retryWindow = d
		}
	}
}

// WithClock replaces the clock used by the retry throttle.
func WithClock(c timing.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// NewService wires api into store.
func NewService(api Fetcher, store *view.Store, opts ...Option) *Service {
	s := &Service{
		api:         api,
		store:       store,
		tracker:     view.NewTracker(OpCompanies, OpStats),
		logger:      logging.NewNopLogger(),
		retryWindow: DefaultRetryThrottle,
		clock:       timing.RealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.retry = timing.NewThrottler(s.retryWindow, func(c retryCall) {
		*c.err = s.reload(c.ctx)
	}, timing.WithClock(s.clock))
	return s
}

// Store returns the store fed by this service.
func (s *Service) Store() *view.Store { return s.store }

// Refresh issues both reads concurrently and blocks until both resolve.  The
// store is updated as each one completes, in either order; loading stays set
// until the last one is done.  The returned error is the first failure in
// operation order, the same one stored as the error message.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	start := time.Now()
	s.store.Batch(func(tx *view.Tx) {
		s.mu.Lock()
		if gen == s.gen {
			s.tracker.Begin(OpCompanies)
			s.tracker.Begin(OpStats)
		}
		s.mu.Unlock()
		tx.SetError(nil)
		tx.SetLoading(true)
	})

	var companiesErr, statsErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t0 := time.Now()
		list, err := s.api.Companies(gctx)
		s.metrics.RecordFetch(OpCompanies, err, time.Since(t0))
		s.resolve(gen, OpCompanies, err, func(tx *view.Tx) { tx.SetEntities(list) })
		companiesErr = err
		// Failures are stored, not propagated, so the sibling read is not
		// cancelled.
		return nil
	})
	g.Go(func() error {
		t0 := time.Now()
		stats, err := s.api.Stats(gctx)
		s.metrics.RecordFetch(OpStats, err, time.Since(t0))
		s.resolve(gen, OpStats, err, func(tx *view.Tx) { tx.SetStats(stats) })
		statsErr = err
		return nil
	})
	_ = g.Wait()

	err := companiesErr
	if err == nil {
		err = statsErr
	}
	logging.LogOperationDuration(s.logger, "dashboard.refresh", start,
		logging.Bool("failed", err != nil))
	return err
}

// resolve records the outcome of op and applies it to the store.  Tracker
// state is read inside the store mutation so the last mutation to run always
// carries the final loading flag.  Results from a superseded refresh are
// dropped.
func (s *Service) resolve(gen uint64, op string, err error, apply func(tx *view.Tx)) {
	if err != nil {
		s.logger.Warn("fetch failed", logging.String("operation", op), logging.Err(err))
	}
	s.store.Batch(func(tx *view.Tx) {
		s.mu.Lock()
		if gen != s.gen {
			s.mu.Unlock()
			s.logger.Debug("dropping stale result", logging.String("operation", op))
			return
		}
		s.tracker.Done(op, err)
		loading := s.tracker.Loading()
		first := s.tracker.Err()
		s.mu.Unlock()

		if err == nil {
			apply(tx)
		}
		if first != nil {
			msg := errors.Message(first)
			tx.SetError(&msg)
		} else {
			tx.SetError(nil)
		}
		tx.SetLoading(loading)
	})
}

// Retry drops cached responses and refreshes, at most once per retry window.
// It reports whether a refresh was issued; when one was, err is its result.
func (s *Service) Retry(ctx context.Context) (issued bool, err error) {
	issued = s.retry.Call(retryCall{ctx: ctx, err: &err})
	if !issued {
		s.logger.Debug("retry throttled")
	}
	return issued, err
}

func (s *Service) reload(ctx context.Context) error {
	if err := s.api.Invalidate(ctx); err != nil {
		s.logger.Warn("cache invalidation failed", logging.Err(err))
	}
	return s.Refresh(ctx)
}

// Status reports the joined loading flag and the operations still pending.
func (s *Service) Status() (loading bool, pending []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Loading(), s.tracker.Pending()
}

// Close stops the retry throttle.
func (s *Service) Close() {
	s.retry.Stop()
}
