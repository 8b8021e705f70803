package crawler

import (
	"fmt"
	"time"

	"communes/internal/logger"
)

// AttemptResult records the result of one page fetch.
type AttemptResult struct {
	Timestamp  time.Time
	URL        string
	Error      string
	Duration   time.Duration
	StatusCode int
	Success    bool
}

// FetchLog keeps every fetch of a run in the order it happened.
type FetchLog struct {
	attempts []AttemptResult
}

// NewFetchLog creates an empty log.
func NewFetchLog() *FetchLog {
	return &FetchLog{}
}

// RecordAttempt records the result of a fetch.
func (fl *FetchLog) RecordAttempt(url string, success bool, err error, statusCode int, duration time.Duration) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}

	fl.attempts = append(fl.attempts, AttemptResult{
		URL:        url,
		Success:    success,
		Error:      errMsg,
		Timestamp:  time.Now(),
		Duration:   duration,
		StatusCode: statusCode,
	})
}

// Attempts returns a copy of the recorded attempts.
func (fl *FetchLog) Attempts() []AttemptResult {
	out := make([]AttemptResult, len(fl.attempts))
	copy(out, fl.attempts)

	return out
}

// Stats summarizes the log.
func (fl *FetchLog) Stats() FetchStats {
	stats := FetchStats{
		URLAttempts: make(map[string]int),
	}

	for _, a := range fl.attempts {
		stats.URLAttempts[a.URL]++
		stats.TotalAttempts++
		stats.TotalDuration += a.Duration

		if a.Success {
			stats.SuccessfulAttempts++
		} else {
			stats.FailedAttempts++
		}
	}

	stats.DistinctURLs = len(stats.URLAttempts)

	return stats
}

// FetchStats contains statistics about fetch attempts.
type FetchStats struct {
	URLAttempts        map[string]int
	TotalDuration      time.Duration
	DistinctURLs       int
	TotalAttempts      int
	SuccessfulAttempts int
	FailedAttempts     int
}

// String returns a string representation of fetch stats.
func (s FetchStats) String() string {
	return fmt.Sprintf(
		"Pages: %d distinct | Fetches: %d total, %d success, %d failed | %.2fs",
		s.DistinctURLs,
		s.TotalAttempts,
		s.SuccessfulAttempts,
		s.FailedAttempts,
		s.TotalDuration.Seconds(),
	)
}

// LogSummary logs the failed fetches and the overall stats.
func (fl *FetchLog) LogSummary(l *logger.Logger) {
	l.Info("📊 Fetch Summary:")

	for _, a := range fl.attempts {
		if a.Success {
			continue
		}

		l.Warn(fmt.Sprintf("   ❌ %s: %s (%.2fs)", a.URL, a.Error, a.Duration.Seconds()))
	}

	l.Info(fmt.Sprintf("Overall: %s", fl.Stats()))
}
