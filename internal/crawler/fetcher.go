// Package crawler fetches source pages and resolves links between them.
package crawler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"communes/internal/config"
	"communes/internal/document"
	"communes/internal/logger"
)

// ErrUnexpectedStatusCode indicates an HTTP response with an error status.
var ErrUnexpectedStatusCode = errors.New("unexpected status code")

// TableFetcher returns the tables of the document at locator, or nothing when
// the document could not be retrieved or parsed.
type TableFetcher interface {
	FetchTables(ctx context.Context, locator string) []document.Table
}

// Fetcher retrieves pages over HTTP. It never retries: a failed fetch is
// logged and reported as an empty result.
type Fetcher struct {
	client *resty.Client
	logger *logger.Logger
	log    *FetchLog
}

// NewFetcher creates a fetcher with the configured timeout and user agent.
func NewFetcher(cfg *config.FetchConfig, l *logger.Logger) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.GetTimeout()).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "fr-FR,fr;q=0.9")

	return &Fetcher{
		client: client,
		logger: l,
		log:    NewFetchLog(),
	}
}

// Log returns the attempts recorded so far.
func (f *Fetcher) Log() *FetchLog {
	return f.log
}

// FetchTables implements TableFetcher.
func (f *Fetcher) FetchTables(ctx context.Context, locator string) []document.Table {
	body, status, duration, err := f.fetch(ctx, locator)
	if err != nil {
		f.log.RecordAttempt(locator, false, err, status, duration)
		f.logger.Error(fmt.Sprintf("❌ Failed to load page: %v", err), "url", locator)

		return nil
	}

	tables, err := document.ParseTables(bytes.NewReader(body))
	if err != nil {
		f.log.RecordAttempt(locator, false, err, status, duration)
		f.logger.Error(fmt.Sprintf("❌ Failed to parse page: %v", err), "url", locator)

		return nil
	}

	f.log.RecordAttempt(locator, true, nil, status, duration)
	f.logger.Debug(fmt.Sprintf("✅ Loaded %d tables (%.2fms)", len(tables), float64(duration.Microseconds())/1000), "url", locator)

	return tables
}

// fetch returns (body, statusCode, duration, error).
func (f *Fetcher) fetch(ctx context.Context, locator string) ([]byte, int, time.Duration, error) {
	startTime := time.Now()

	resp, err := f.client.R().SetContext(ctx).Get(locator)
	duration := time.Since(startTime)

	if err != nil {
		return nil, 0, duration, fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		return nil, resp.StatusCode(), duration, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode())
	}

	return resp.Body(), resp.StatusCode(), duration, nil
}
