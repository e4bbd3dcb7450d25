package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDashboardMetrics(t *testing.T) (*DashboardMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	m := NewDashboardMetrics(c)
	require.NotNil(t, m)
	return m, c
}

func TestNewDashboardMetrics_AllMetricsRegistered(t *testing.T) {
	m, _ := newTestDashboardMetrics(t)
	assert.NotNil(t, m.FetchRequestsTotal)
	assert.NotNil(t, m.FetchDuration)
	assert.NotNil(t, m.DeriveDuration)
	assert.NotNil(t, m.DeriveRows)
	assert.NotNil(t, m.CacheRequestsTotal)
	assert.NotNil(t, m.StoreUpdatesTotal)
}

func TestRecordFetch(t *testing.T) {
	m, c := newTestDashboardMetrics(t)
	m.RecordFetch("/data", nil, 50*time.Millisecond)
	m.RecordFetch("/stats", errors.New("boom"), 10*time.Millisecond)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_fetch_requests_total{endpoint="/data",status="success"} 1`)
	assert.Contains(t, out, `test_unit_fetch_requests_total{endpoint="/stats",status="error"} 1`)
	assert.Contains(t, out, `test_unit_fetch_duration_seconds_count{endpoint="/data"} 1`)
}

func TestRecordDerive(t *testing.T) {
	m, c := newTestDashboardMetrics(t)
	m.RecordDerive(time.Millisecond, 10, 3)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_derive_rows{stage="input"} 10`)
	assert.Contains(t, out, `test_unit_derive_rows{stage="output"} 3`)
	assert.Contains(t, out, "test_unit_derive_duration_seconds_count 1")
}

func TestRecordCacheAccess(t *testing.T) {
	m, c := newTestDashboardMetrics(t)
	m.RecordCacheAccess(true)
	m.RecordCacheAccess(false)
	m.RecordCacheAccess(false)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_cache_requests_total{result="hit"} 1`)
	assert.Contains(t, out, `test_unit_cache_requests_total{result="miss"} 2`)
}

func TestRecordStoreUpdate(t *testing.T) {
	m, c := newTestDashboardMetrics(t)
	m.RecordStoreUpdate("entities")

	assert.Contains(t, scrapeMetrics(t, c), `test_unit_store_updates_total{setter="entities"} 1`)
}

func TestDashboardMetrics_NilSafe(t *testing.T) {
	var m *DashboardMetrics
	assert.NotPanics(t, func() {
		m.RecordFetch("/data", nil, time.Second)
		m.RecordDerive(time.Second, 1, 1)
		m.RecordCacheAccess(true)
		m.RecordStoreUpdate("stats")
	})
}
