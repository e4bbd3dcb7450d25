package prometheus

import "time"

// Fetch outcome label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Cache access label values.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Default Buckets
var (
	DefaultFetchDurationBuckets  = []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	DefaultDeriveDurationBuckets = []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1}
)

// DashboardMetrics holds the metrics recorded by the fetch layer, the cache
// and the view engine.  A nil *DashboardMetrics records nothing.
type DashboardMetrics struct {
	FetchRequestsTotal CounterVec
	FetchDuration      HistogramVec
	DeriveDuration     HistogramVec
	DeriveRows         GaugeVec
	CacheRequestsTotal CounterVec
	StoreUpdatesTotal  CounterVec
}

// NewDashboardMetrics registers all dashboard metrics on collector.
func NewDashboardMetrics(collector MetricsCollector) *DashboardMetrics {
	return &DashboardMetrics{
		FetchRequestsTotal: collector.RegisterCounter("fetch_requests_total",
			"API fetches by endpoint and outcome", "endpoint", "status"),
		FetchDuration: collector.RegisterHistogram("fetch_duration_seconds",
			"API fetch latency", DefaultFetchDurationBuckets, "endpoint"),
		DeriveDuration: collector.RegisterHistogram("derive_duration_seconds",
			"Time spent filtering and sorting the company list", DefaultDeriveDurationBuckets),
		DeriveRows: collector.RegisterGauge("derive_rows",
			"Rows entering and leaving the last derivation", "stage"),
		CacheRequestsTotal: collector.RegisterCounter("cache_requests_total",
			"Response cache lookups by result", "result"),
		StoreUpdatesTotal: collector.RegisterCounter("store_updates_total",
			"Observable data store changes by setter", "setter"),
	}
}

// RecordFetch records one completed fetch of endpoint.
func (m *DashboardMetrics) RecordFetch(endpoint string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.FetchRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.FetchDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// RecordDerive records one derivation pass.
func (m *DashboardMetrics) RecordDerive(d time.Duration, in, out int) {
	if m == nil {
		return
	}
	m.DeriveDuration.WithLabelValues().Observe(d.Seconds())
	m.DeriveRows.WithLabelValues("input").Set(float64(in))
	m.DeriveRows.WithLabelValues("output").Set(float64(out))
}

// RecordCacheAccess records a cache lookup.
func (m *DashboardMetrics) RecordCacheAccess(hit bool) {
	if m == nil {
		return
	}
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.CacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordStoreUpdate counts an observable store change.
func (m *DashboardMetrics) RecordStoreUpdate(setter string) {
	if m == nil {
		return
	}
	m.StoreUpdatesTotal.WithLabelValues(setter).Inc()
}
