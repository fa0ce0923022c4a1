package rates

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"origination-engine/internal/config"
	"origination-engine/internal/pkg/apperrors"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

func newService(t *testing.T, feedURL, marketURL string) RatesService {
	t.Helper()
	svc, err := NewRatesService(config.RatesConfig{
		FeedURL:       feedURL,
		MarketDataURL: marketURL,
		FetchTimeout:  2 * time.Second,
		CacheSize:     8,
	}, testLogger)
	require.NoError(t, err)
	return svc
}

func TestCurrent_ServesPlaceholderBeforeFirstRefresh(t *testing.T) {
	svc := newService(t, "http://unused", "http://unused")

	sheet := svc.Current()
	require.NotNil(t, sheet)
	assert.NotEmpty(t, sheet.Quotes)
}

func TestRefresh_SwapsInFetchedSheet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rates":[{"program":"30-Year Fixed","rate":6.5,"apr":6.62,"points":0.5}],"asOf":"2026-08-01T00:00:00Z"}`))
	}))
	defer server.Close()

	svc := newService(t, server.URL, "http://unused")
	require.NoError(t, svc.Refresh(context.Background()))

	sheet := svc.Current()
	require.Len(t, sheet.Quotes, 1)
	assert.Equal(t, 6.5, sheet.Quotes[0].Rate)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), sheet.AsOf)
}

func TestRefresh_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"rates":[{"program":"15-Year Fixed","rate":6.0,"apr":6.1,"points":0}]}`))
	}))
	defer server.Close()

	svc := newService(t, server.URL, "http://unused")
	require.NoError(t, svc.Refresh(context.Background()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRefresh_FailureKeepsPreviousSheet(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy.Load() {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"rates":[{"program":"30-Year Fixed","rate":6.5,"apr":6.62,"points":0.5}]}`))
	}))
	defer server.Close()

	svc := newService(t, server.URL, "http://unused")
	require.NoError(t, svc.Refresh(context.Background()))

	healthy.Store(false)
	err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrUpstream)
	assert.Equal(t, 6.5, svc.Current().Quotes[0].Rate, "last good sheet survives a failed refresh")
}

func TestMarketData_CachesPerSeries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"name":"treasury10y","points":[{"date":"2026-08-01","value":4.21}]}`))
	}))
	defer server.Close()

	svc := newService(t, "http://unused", server.URL)

	first, err := svc.MarketData(context.Background(), "treasury10y")
	require.NoError(t, err)
	second, err := svc.MarketData(context.Background(), "treasury10y")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load(), "second read comes from cache")
}

func TestMarketData_RequiresSeriesName(t *testing.T) {
	svc := newService(t, "http://unused", "http://unused")
	_, err := svc.MarketData(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
}
