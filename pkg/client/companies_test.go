package client

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ipdash/internal/domain/company"
	"github.com/turtacn/ipdash/internal/infrastructure/cache"
	"github.com/turtacn/ipdash/internal/infrastructure/monitoring/logging"
)

const companiesBody = `[
  {"uuid":"c-1","name":"Apple, Inc.","pending":120,"filed":900,"disposed":780,
   "allowanceRate":0.82,"monthsToDisposition":25.5,"averageOfficeActions":2.1},
  {"uuid":"c-2","name":"Zeta Corp","pending":10,"filed":40,"disposed":30,
   "allowanceRate":0.55,"monthsToDisposition":31,"averageOfficeActions":3.4}
]`

const statsBody = `{"companies":2,"averageAllowanceRate":"68.5%","averagePending":65,"averageMonthsToDisposition":"28.3"}`

func apiHandler(data, stats *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathCompanies:
			atomic.AddInt32(data, 1)
			writeJSON(w, companiesBody)
		case PathStats:
			atomic.AddInt32(stats, 1)
			writeJSON(w, statsBody)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestCompanies_Decodes(t *testing.T) {
	var data, stats int32
	c := newTestClient(t, apiHandler(&data, &stats))

	got, err := c.Companies(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, company.Company{
		UUID: "c-1", Name: "Apple, Inc.", Pending: 120, Filed: 900, Disposed: 780,
		AllowanceRate: 0.82, MonthsToDisposition: 25.5, AverageOfficeActions: 2.1,
	}, got[0])
	assert.Equal(t, "Zeta Corp", got[1].Name)
}

func TestCompanies_NullBodyIsEmptyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `null`)
	})

	got, err := c.Companies(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCompanies_HTTPError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	got, err := c.Companies(context.Background())
	assert.Nil(t, got)
	assert.EqualError(t, err, "HTTP error! status: 403")
}

func TestStats_Decodes(t *testing.T) {
	var data, stats int32
	c := newTestClient(t, apiHandler(&data, &stats))

	got, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, company.Stats{
		Companies:                  2,
		AverageAllowanceRate:       "68.5%",
		AveragePending:             65,
		AverageMonthsToDisposition: "28.3",
	}, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&data))
}

func TestCache_ServesRepeatedReads(t *testing.T) {
	var data, stats int32
	store := cache.NewMemoryCache(16, time.Minute, logging.NewNopLogger())
	c := newTestClient(t, apiHandler(&data, &stats), WithCache(store, time.Minute))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		got, err := c.Companies(ctx)
		require.NoError(t, err)
		require.Len(t, got, 2)
		_, err = c.Stats(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&data))
	assert.Equal(t, int32(1), atomic.LoadInt32(&stats))

	require.NoError(t, c.Invalidate(ctx))
	_, err := c.Companies(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&data))
}

func TestCache_ErrorsAreNotCached(t *testing.T) {
	var calls int32
	store := cache.NewMemoryCache(16, time.Minute, logging.NewNopLogger())
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, statsBody)
	}, WithCache(store, 0))

	_, err := c.Stats(context.Background())
	require.Error(t, err)

	got, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Companies)
}

func TestInvalidate_WithoutCache(t *testing.T) {
	c, err := NewClient("http://localhost:8090")
	require.NoError(t, err)
	assert.NoError(t, c.Invalidate(context.Background()))
}
