package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/ipdash/internal/application/view"
	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ipdash/pkg/timing"
)

type result[T any] struct {
	val T
	err error
}

// fakeAPI blocks each read until the test releases it through the matching
// channel, so completion order is under test control.
type fakeAPI struct {
	companies   chan result[[]company.Company]
	stats       chan result[company.Stats]
	invalidated int32
	calls       int32
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		companies: make(chan result[[]company.Company], 4),
		stats:     make(chan result[company.Stats], 4),
	}
}

func (f *fakeAPI) Companies(ctx context.Context) ([]company.Company, error) {
	atomic.AddInt32(&f.calls, 1)
	select {
	case r := <-f.companies:
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (f *fakeAPI) Stats(ctx context.Context) (company.Stats, error) {
	select {
	case r := <-f.stats:
		return r.val, r.err
	case <-ctx.Done():
		return company.Stats{}, ctx.Err()
	}
}

func (f *fakeAPI) Invalidate(context.Context) error {
	atomic.AddInt32(&f.invalidated, 1)
	return nil
}

var sample = []company.Company{
	{UUID: "a", Name: "Acme", Pending: 3, AllowanceRate: 0.9},
	{UUID: "b", Name: "Beta", Pending: 7, AllowanceRate: 0.5},
}

// recorder keeps every published snapshot.
type recorder struct {
	mu    sync.Mutex
	snaps []view.StoreSnapshot
}

func (r *recorder) record(s view.StoreSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) all() []view.StoreSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]view.StoreSnapshot(nil), r.snaps...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, time.Millisecond)
}

func TestRefresh_BothSucceed(t *testing.T) {
	api := newFakeAPI()
	store := view.NewStore()
	svc := NewService(api, store)

	api.companies <- result[[]company.Company]{val: sample}
	api.stats <- result[company.Stats]{val: company.Stats{Companies: 2}}

	require.NoError(t, svc.Refresh(context.Background()))

	snap := store.Snapshot()
	assert.Equal(t, sample, snap.Entities)
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 2, snap.Stats.Companies)
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.Error)
}

func TestRefresh_LoadingUntilLastResolves(t *testing.T) {
	for _, companiesFirst := range []bool{true, false} {
		t.Run(fmt.Sprintf("companiesFirst=%v", companiesFirst), func(t *testing.T) {
			api := newFakeAPI()
			store := view.NewStore()
			rec := &recorder{}
			store.Subscribe(rec.record)
			svc := NewService(api, store)

			done := make(chan error, 1)
			go func() { done <- svc.Refresh(context.Background()) }()
			waitFor(t, func() bool { return store.Snapshot().Loading })

			if companiesFirst {
				api.companies <- result[[]company.Company]{val: sample}
				waitFor(t, func() bool { return store.Snapshot().Entities != nil })
				assert.True(t, store.Snapshot().Loading, "stats still pending")
				api.stats <- result[company.Stats]{val: company.Stats{Companies: 2}}
			} else {
				api.stats <- result[company.Stats]{val: company.Stats{Companies: 2}}
				waitFor(t, func() bool { return store.Snapshot().Stats != nil })
				assert.True(t, store.Snapshot().Loading, "companies still pending")
				api.companies <- result[[]company.Company]{val: sample}
			}
			require.NoError(t, <-done)

			final := store.Snapshot()
			assert.False(t, final.Loading)
			assert.Equal(t, sample, final.Entities)

			// loading never flickers off before the last read resolves
			snaps := rec.all()
			for _, s := range snaps[:len(snaps)-1] {
				assert.True(t, s.Loading)
			}
		})
	}
}

func TestRefresh_OneFailureKeepsOtherResult(t *testing.T) {
	api := newFakeAPI()
	store := view.NewStore()
	svc := NewService(api, store)

	api.companies <- result[[]company.Company]{err: fmt.Errorf("HTTP error! status: 500")}
	api.stats <- result[company.Stats]{val: company.Stats{Companies: 9}}

	err := svc.Refresh(context.Background())
	require.EqualError(t, err, "HTTP error! status: 500")

	snap := store.Snapshot()
	require.NotNil(t, snap.Error)
	assert.Equal(t, "HTTP error! status: 500", *snap.Error)
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 9, snap.Stats.Companies)
	assert.Nil(t, snap.Entities)
}

func TestRefresh_CompaniesErrorTakesPriority(t *testing.T) {
	api := newFakeAPI()
	store := view.NewStore()
	svc := NewService(api, store)

	api.stats <- result[company.Stats]{err: fmt.Errorf("stats down")}
	api.companies <- result[[]company.Company]{err: fmt.Errorf("companies down")}

	err := svc.Refresh(context.Background())
	assert.EqualError(t, err, "companies down")
	assert.Equal(t, "companies down", *store.Snapshot().Error)
}

func TestRefresh_ErrorKeepsPreviousData(t *testing.T) {
	api := newFakeAPI()
	store := view.NewStore()
	svc := NewService(api, store)

	api.companies <- result[[]company.Company]{val: sample}
	api.stats <- result[company.Stats]{val: company.Stats{Companies: 2}}
	require.NoError(t, svc.Refresh(context.Background()))

	api.companies <- result[[]company.Company]{err: fmt.Errorf("boom")}
	api.stats <- result[company.Stats]{val: company.Stats{Companies: 2}}
	require.Error(t, svc.Refresh(context.Background()))

	snap := store.Snapshot()
	assert.Equal(t, sample, snap.Entities)
	assert.Equal(t, "boom", *snap.Error)
}

func TestRefresh_SuccessClearsPreviousError(t *testing.T) {
	api := newFakeAPI()
	store := view.NewStore()
	svc := NewService(api, store)

	api.companies <- result[[]company.Company]{err: fmt.Errorf("boom")}
	api.stats <- result[company.Stats]{val: company.Stats{}}
	require.Error(t, svc.Refresh(context.Background()))

	api.companies <- result[[]company.Company]{val: sample}
	api.stats <- result[company.Stats]{val: company.Stats{}}
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Nil(t, store.Snapshot().Error)
}

func TestRefresh_RecordsFetchMetrics(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "test",
		Subsystem: "dashboard",
	}, logging.NewNopLogger())
	require.NoError(t, err)
	metrics := prometheus.NewDashboardMetrics(collector)
	api := newFakeAPI()
	svc := NewService(api, view.NewStore(), WithMetrics(metrics))

	api.companies <- result[[]company.Company]{val: sample}
	api.stats <- result[company.Stats]{err: fmt.Errorf("down")}
	_ = svc.Refresh(context.Background())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	body := w.Body.String()
	assert.Contains(t, body, `test_dashboard_fetch_requests_total{endpoint="companies",status="success"} 1`)
	assert.Contains(t, body, `test_dashboard_fetch_requests_total{endpoint="stats",status="error"} 1`)
}

func TestRefresh_LogsDuration(t *testing.T) {
	api := newFakeAPI()
	core, logs := observer.New(zap.InfoLevel)
	svc := NewService(api, view.NewStore(), WithLogger(logging.NewLoggerFromCore(core)))

	api.companies <- result[[]company.Company]{val: sample}
	api.stats <- result[company.Stats]{val: company.Stats{}}
	require.NoError(t, svc.Refresh(context.Background()))

	entries := logs.FilterMessage("operation completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "dashboard.refresh", entries[0].ContextMap()["operation"])
	assert.Equal(t, "dashboard", entries[0].LoggerName)
}

func TestRetry_Throttled(t *testing.T) {
	api := newFakeAPI()
	clock := timing.NewFakeClock(time.Unix(0, 0))
	svc := NewService(api, view.NewStore(), WithRetryThrottle(time.Second), WithClock(clock))
	defer svc.Close()

	feed := func() {
		api.companies <- result[[]company.Company]{val: sample}
		api.stats <- result[company.Stats]{val: company.Stats{}}
	}

	feed()
	issued, err := svc.Retry(context.Background())
	assert.True(t, issued)
	assert.NoError(t, err)

	clock.Advance(500 * time.Millisecond)
	issued, _ = svc.Retry(context.Background())
	assert.False(t, issued)

	clock.Advance(600 * time.Millisecond)
	feed()
	issued, err = svc.Retry(context.Background())
	assert.True(t, issued)
	assert.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&api.calls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&api.invalidated))
}

func TestRetry_AfterCloseIsIgnored(t *testing.T) {
	api := newFakeAPI()
	svc := NewService(api, view.NewStore())
	svc.Close()

	issued, err := svc.Retry(context.Background())
	assert.False(t, issued)
	assert.NoError(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.calls))
}

func TestStatus_ReportsPending(t *testing.T) {
	api := newFakeAPI()
	store := view.NewStore()
	svc := NewService(api, store)

	loading, pending := svc.Status()
	assert.False(t, loading)
	assert.Empty(t, pending)

	done := make(chan error, 1)
	go func() { done <- svc.Refresh(context.Background()) }()
	api.companies <- result[[]company.Company]{val: sample}
	waitFor(t, func() bool {
		_, p := svc.Status()
		return len(p) == 1 && p[0] == OpStats
	})

	api.stats <- result[company.Stats]{val: company.Stats{}}
	require.NoError(t, <-done)
	loading, _ = svc.Status()
	assert.False(t, loading)
}
