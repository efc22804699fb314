package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSalesClient(url string) *SalesClient {
	c := NewSalesClient(url, logr.Discard())
	c.delay = time.Millisecond
	return c
}

func TestGrossSales(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/businesses/12/sales", r.URL.Path)
		assert.Equal(t, "2026-03-14", r.URL.Query().Get("date"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"business_id":12,"date":"2026-03-14","gross_sales":20000}`))
	}))
	defer srv.Close()

	gross, err := newTestSalesClient(srv.URL).GrossSales(context.Background(), 12, "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, int64(20000), gross)
}

func TestGrossSalesNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gross, err := newTestSalesClient(srv.URL).GrossSales(context.Background(), 1, "2026-03-14")
	require.NoError(t, err)
	assert.Zero(t, gross)
}

func TestGrossSalesRetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"gross_sales":700}`))
	}))
	defer srv.Close()

	start := time.Now()
	gross, err := newTestSalesClient(srv.URL).GrossSales(context.Background(), 1, "2026-03-14")
	require.NoError(t, err)
	assert.Equal(t, int64(700), gross)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.GreaterOrEqual(t, time.Since(start), time.Second, "Retry-After not honoured")
}

func TestGrossSalesServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestSalesClient(srv.URL).GrossSales(context.Background(), 1, "2026-03-14")
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGrossSalesUnconfigured(t *testing.T) {
	_, err := NewSalesClient("", logr.Discard()).GrossSales(context.Background(), 1, "2026-03-14")
	assert.ErrorIs(t, err, ErrSalesUnavailable)
}
