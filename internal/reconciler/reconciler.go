// Package reconciler builds one canonical record per commune out of the
// merger table of the index page and the communes' own pages.
package reconciler

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"communes/internal/crawler"
	"communes/internal/document"
	"communes/internal/logger"
	"communes/internal/models"
	"communes/internal/validator"
)

// Reconciler drives a run. Rows are processed one at a time in document
// order, which makes the replace-on-collision outcome deterministic.
type Reconciler struct {
	fetcher     crawler.TableFetcher
	resolver    *crawler.Resolver
	logger      *logger.Logger
	yearPattern *regexp.Regexp
}

// New creates a reconciler.
func New(fetcher crawler.TableFetcher, resolver *crawler.Resolver, l *logger.Logger) *Reconciler {
	return &Reconciler{
		fetcher:     fetcher,
		resolver:    resolver,
		logger:      l,
		yearPattern: regexp.MustCompile(`[0-9]{4}`),
	}
}

// Run fetches the index page at indexURL and reconciles its merger table.
// It fails only when the page does not have the expected tables or ctx is
// cancelled; row failures are recorded in the result.
func (r *Reconciler) Run(ctx context.Context, indexURL string) (*Result, error) {
	r.logger.Info(fmt.Sprintf("⏳ Fetching index page: %s", indexURL))

	tables := r.fetcher.FetchTables(ctx, indexURL)

	layout, err := validator.CheckLayout(tables)
	if err != nil {
		return nil, err
	}

	r.logger.Info(fmt.Sprintf("✅ Index layout: %s", layout.Stats()), "extra_tables", layout.Extra)

	return r.Reconcile(ctx, layout)
}

// Reconcile folds the merger table rows into a result. The first row is the
// header and is always skipped.
func (r *Reconciler) Reconcile(ctx context.Context, layout *validator.IndexLayout) (*Result, error) {
	result := newResult()
	result.Layout = layout.Stats()

	rows := layout.Mergers.Rows
	if len(rows) > 0 {
		rows = rows[1:]
	}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run cancelled at merger row %d: %w", i+1, err)
		}

		outcome := r.processRow(ctx, i+1, row)
		replaced := result.apply(outcome)

		rowLog := r.logger.With("row", outcome.Position)

		switch outcome.Status {
		case RowAccepted:
			rowLog.Debug(fmt.Sprintf("✅ %s → %s (%d)", outcome.Record.Name, outcome.Record.Code, outcome.Record.CreationYear),
				"communes", len(outcome.Merger.Communes), "resolved", outcome.Resolved)

			if replaced {
				rowLog.Debug(fmt.Sprintf("♻️  Record %s replaced by a later row", outcome.Record.Code))
			}
		case RowSkipped:
			rowLog.Warn(fmt.Sprintf("⚠️  Skipping merger row %d: %v", outcome.Position, outcome.Err))
		case RowFailed:
			rowLog.Error(fmt.Sprintf("❌ Error on merger row %d: %v", outcome.Position, outcome.Err))
		}
	}

	// a fetch interrupted by cancellation degrades the row to fallbacks
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run cancelled after %d merger rows: %w", len(rows), err)
	}

	accepted, skipped, failed := result.Counts()
	r.logger.Info(fmt.Sprintf("📊 Merger rows: %d accepted, %d skipped, %d failed → %d records (%d unresolved)",
		accepted, skipped, failed, result.Records.Len(), result.Unresolved()))

	return result, nil
}

// processRow derives the record and merger event of one row. It never panics
// and never returns a partially filled accepted outcome.
func (r *Reconciler) processRow(ctx context.Context, position int, row document.Row) (outcome RowOutcome) {
	defer func() {
		if p := recover(); p != nil {
			outcome = RowOutcome{
				Position: position,
				Status:   RowFailed,
				Err:      fmt.Errorf("%w: %v", ErrRowPanic, p),
			}
		}
	}()

	cells := row.Data
	if len(cells) < 2 {
		return RowOutcome{
			Position: position,
			Status:   RowSkipped,
			Err:      fmt.Errorf("%w: got %d", ErrTooFewCells, len(cells)),
		}
	}

	name := cells[0].TrimmedText()

	absorbed := make([]string, 0, len(cells[1].Links))
	for _, l := range cells[1].Links {
		absorbed = append(absorbed, strings.TrimSpace(l.Text))
	}

	year := r.parseYear(cells[len(cells)-1].Text)

	res, err := r.resolver.Resolve(ctx, cells[0])
	if err != nil {
		return RowOutcome{
			Position: position,
			Status:   RowFailed,
			Err:      fmt.Errorf("resolve %q: %w", name, err),
		}
	}

	return RowOutcome{
		Position: position,
		Status:   RowAccepted,
		Resolved: res.Resolved,
		Record: models.EntityRecord{
			Code:         res.Code,
			Name:         name,
			CreationYear: year,
			Coordinates:  res.Coordinates,
		},
		Merger: models.MergerEvent{
			Code:     res.Code,
			Name:     name,
			Communes: absorbed,
			Year:     year,
		},
	}
}

// parseYear returns the first run of four digits in text, or UnknownYear.
func (r *Reconciler) parseYear(text string) int {
	match := r.yearPattern.FindString(text)
	if match == "" {
		return models.UnknownYear
	}

	year, err := strconv.Atoi(match)
	if err != nil {
		return models.UnknownYear
	}

	return year
}
