// Package storage archives extraction runs in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"communes/internal/models"
)

//go:embed schema.sql
var DDL string

// ErrRunNotFound is returned when a run id has no archived row.
var ErrRunNotFound = errors.New("run not found")

// Run is the summary row stored for each extraction.
type Run struct {
	StartedAt  time.Time
	FinishedAt time.Time
	ID         string
	SourceURL  string
	OutputPath string
	Format     string
	Checksum   string
	Accepted   int
	Skipped    int
	Failed     int
}

// Archive wraps a SQLite handle holding past runs.
type Archive struct {
	db *sql.DB
}

// Connect opens the SQLite file at path with foreign keys enabled.
func Connect(path string) (*sql.DB, error) {
	return sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(500)", path))
}

// Open connects to the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Archive, error) {
	db, err := Connect(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	// single writer, keeps ":memory:" databases on one connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, DDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Archive{db: db}, nil
}

// Close releases the underlying database handle.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveRun stores the run summary, its records in output order and its merger
// events with their constituents, all in one transaction.
func (a *Archive) SaveRun(ctx context.Context, run Run, records []models.EntityRecord, mergers []models.MergerEvent) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, source_url, output_path, format, checksum, accepted, skipped, failed, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.SourceURL, run.OutputPath, run.Format, run.Checksum,
		run.Accepted, run.Skipped, run.Failed,
		run.StartedAt.UTC().Format(time.RFC3339Nano), run.FinishedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	if err := insertRecords(ctx, tx, run.ID, records); err != nil {
		return err
	}

	if err := insertMergers(ctx, tx, run.ID, mergers); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ID, err)
	}

	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, runID string, records []models.EntityRecord) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO entity_records
		(run_id, position, code, name, creation_year, suppression_year, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		var suppression sql.NullInt64
		if r.SuppressionYear != nil {
			suppression = sql.NullInt64{Int64: int64(*r.SuppressionYear), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, runID, i, r.Code, r.Name, r.CreationYear, suppression,
			r.Coordinates.Latitude, r.Coordinates.Longitude); err != nil {
			return fmt.Errorf("failed to insert record %s: %w", r.Code, err)
		}
	}

	return nil
}

func insertMergers(ctx context.Context, tx *sql.Tx, runID string, mergers []models.MergerEvent) error {
	for i, m := range mergers {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO merger_events (run_id, position, code, name, year) VALUES (?, ?, ?, ?, ?)`,
			runID, i, m.Code, m.Name, m.Year); err != nil {
			return fmt.Errorf("failed to insert merger %s: %w", m.Code, err)
		}

		for j, name := range m.Communes {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO merger_constituents (run_id, event_position, ordinal, name) VALUES (?, ?, ?, ?)`,
				runID, i, j, name); err != nil {
				return fmt.Errorf("failed to insert constituent %q of %s: %w", name, m.Code, err)
			}
		}
	}

	return nil
}

// GetRun loads the summary row of a run.
func (a *Archive) GetRun(ctx context.Context, runID string) (Run, error) {
	var (
		run               Run
		started, finished string
	)

	err := a.db.QueryRowContext(ctx, `SELECT run_id, source_url, output_path, format, checksum,
		accepted, skipped, failed, started_at, finished_at FROM runs WHERE run_id = ?`, runID).
		Scan(&run.ID, &run.SourceURL, &run.OutputPath, &run.Format, &run.Checksum,
			&run.Accepted, &run.Skipped, &run.Failed, &started, &finished)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if err != nil {
		return Run{}, fmt.Errorf("failed to load run %s: %w", runID, err)
	}

	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, fmt.Errorf("invalid started_at for run %s: %w", runID, err)
	}

	if run.FinishedAt, err = time.Parse(time.RFC3339Nano, finished); err != nil {
		return Run{}, fmt.Errorf("invalid finished_at for run %s: %w", runID, err)
	}

	return run, nil
}

// Records returns the archived records of a run in output order.
func (a *Archive) Records(ctx context.Context, runID string) ([]models.EntityRecord, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT code, name, creation_year, suppression_year, latitude, longitude
		FROM entity_records WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query records of run %s: %w", runID, err)
	}
	defer rows.Close()

	var records []models.EntityRecord

	for rows.Next() {
		var (
			r           models.EntityRecord
			suppression sql.NullInt64
		)

		if err := rows.Scan(&r.Code, &r.Name, &r.CreationYear, &suppression,
			&r.Coordinates.Latitude, &r.Coordinates.Longitude); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}

		if suppression.Valid {
			year := int(suppression.Int64)
			r.SuppressionYear = &year
		}

		records = append(records, r)
	}

	return records, rows.Err()
}

// MergerEvents returns the archived merger events of a run with their
// constituents in page order.
func (a *Archive) MergerEvents(ctx context.Context, runID string) ([]models.MergerEvent, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT e.position, e.code, e.name, e.year, c.name
		FROM merger_events e
		LEFT JOIN merger_constituents c ON c.run_id = e.run_id AND c.event_position = e.position
		WHERE e.run_id = ?
		ORDER BY e.position, c.ordinal`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mergers of run %s: %w", runID, err)
	}
	defer rows.Close()

	var (
		events []models.MergerEvent
		last   = -1
	)

	for rows.Next() {
		var (
			position    int
			event       models.MergerEvent
			constituent sql.NullString
		)

		if err := rows.Scan(&position, &event.Code, &event.Name, &event.Year, &constituent); err != nil {
			return nil, fmt.Errorf("failed to scan merger: %w", err)
		}

		if position != last {
			events = append(events, event)
			last = position
		}

		if constituent.Valid {
			cur := &events[len(events)-1]
			cur.Communes = append(cur.Communes, constituent.String)
		}
	}

	return events, rows.Err()
}
