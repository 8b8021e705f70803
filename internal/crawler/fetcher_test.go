package crawler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communes/internal/config"
	"communes/internal/logger"
)

func newTestFetcher() *Fetcher {
	cfg := config.DefaultConfig().Crawler.Fetch
	cfg.TimeoutSec = 5

	return NewFetcher(&cfg, logger.Discard())
}

func TestFetcher_FetchTables(t *testing.T) {
	var gotUA string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<table><tr><th>Code commune</th><td>2B123</td></tr></table><table></table>`)
	}))
	defer srv.Close()

	f := newTestFetcher()
	tables := f.FetchTables(context.Background(), srv.URL)

	require.Len(t, tables, 2)
	assert.Equal(t, "2B123", tables[0].Rows[0].Data[0].TrimmedText())
	assert.Equal(t, config.DefaultUserAgent, gotUA)

	stats := f.Log().Stats()
	assert.Equal(t, 1, stats.TotalAttempts)
	assert.Equal(t, 1, stats.SuccessfulAttempts)
}

func TestFetcher_ErrorStatusYieldsNothing(t *testing.T) {
	calls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `<table><tr><td>error page</td></tr></table>`)
	}))
	defer srv.Close()

	f := newTestFetcher()
	tables := f.FetchTables(context.Background(), srv.URL)

	assert.Empty(t, tables)
	assert.Equal(t, 1, calls, "fetches are never retried")

	attempts := f.Log().Attempts()
	require.Len(t, attempts, 1)
	assert.False(t, attempts[0].Success)
	assert.Equal(t, http.StatusServiceUnavailable, attempts[0].StatusCode)
	assert.Contains(t, attempts[0].Error, "unexpected status code")
}

func TestFetcher_TransportFailureYieldsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := newTestFetcher()

	assert.Empty(t, f.FetchTables(context.Background(), url))
	assert.Equal(t, 1, f.Log().Stats().FailedAttempts)
}

func TestFetcher_TimeoutYieldsNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	f := newTestFetcher()

	assert.Empty(t, f.FetchTables(ctx, srv.URL))
	assert.Equal(t, 1, f.Log().Stats().FailedAttempts)
}

func TestFetchLog_Stats(t *testing.T) {
	fl := NewFetchLog()
	fl.RecordAttempt("https://a", true, nil, 200, time.Second)
	fl.RecordAttempt("https://b", false, assert.AnError, 404, time.Second)
	fl.RecordAttempt("https://a", true, nil, 200, time.Second)

	stats := fl.Stats()
	assert.Equal(t, 2, stats.DistinctURLs)
	assert.Equal(t, 3, stats.TotalAttempts)
	assert.Equal(t, 2, stats.SuccessfulAttempts)
	assert.Equal(t, 1, stats.FailedAttempts)
	assert.Equal(t, 2, stats.URLAttempts["https://a"])
	assert.Equal(t, 3*time.Second, stats.TotalDuration)
	assert.Contains(t, stats.String(), "Pages: 2 distinct")

	attempts := fl.Attempts()
	assert.Equal(t, assert.AnError.Error(), attempts[1].Error)
}
