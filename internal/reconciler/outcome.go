package reconciler

import (
	"errors"

	"communes/internal/models"
	"communes/internal/store"
	"communes/internal/validator"
)

// Row-scoped errors. A row carrying one of these contributes nothing.
var (
	ErrTooFewCells = errors.New("row has fewer than 2 data cells")
	ErrRowPanic    = errors.New("row processing panicked")
)

// ErrStructureMismatch is the fatal precondition failure of a run.
var ErrStructureMismatch = validator.ErrStructureMismatch

// RowStatus tags the outcome of one merger-table row.
type RowStatus int

// Row statuses.
const (
	RowAccepted RowStatus = iota
	RowSkipped
	RowFailed
)

// String returns the status name.
func (s RowStatus) String() string {
	switch s {
	case RowAccepted:
		return "accepted"
	case RowSkipped:
		return "skipped"
	case RowFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RowOutcome is the tagged result of processing one row. Record and Merger
// are only meaningful when Status is RowAccepted.
type RowOutcome struct {
	Err    error
	Merger models.MergerEvent
	Record models.EntityRecord
	// Position is the 1-based index of the row among data rows.
	Position int
	Status   RowStatus
	// Resolved is true when the commune's own page was read.
	Resolved bool
}

// Result holds everything a run accumulated.
type Result struct {
	// Records is keyed by INSEE code.
	Records *store.Ordered[string, models.EntityRecord]
	// Mergers is keyed by resulting commune name.
	Mergers  *store.Ordered[string, models.MergerEvent]
	Outcomes []RowOutcome
	Layout   validator.LayoutStats
}

func newResult() *Result {
	return &Result{
		Records: store.NewOrdered[string, models.EntityRecord](),
		Mergers: store.NewOrdered[string, models.MergerEvent](),
	}
}

// apply folds one outcome into the result. Accepted rows replace whatever an
// earlier row stored under the same code or name. It returns true when a
// record was replaced.
func (r *Result) apply(o RowOutcome) bool {
	r.Outcomes = append(r.Outcomes, o)

	if o.Status != RowAccepted {
		return false
	}

	replaced := r.Records.Put(o.Record.Code, o.Record)
	r.Mergers.Put(o.Merger.Name, o.Merger)

	return replaced
}

// EntityRecords returns the records in first-insertion order of their codes.
func (r *Result) EntityRecords() []models.EntityRecord {
	return r.Records.Values()
}

// MergerEvents returns the merger events in first-insertion order of their names.
func (r *Result) MergerEvents() []models.MergerEvent {
	return r.Mergers.Values()
}

// Unresolved returns the number of records without a real INSEE code.
func (r *Result) Unresolved() int {
	n := 0

	for _, rec := range r.Records.Values() {
		if !rec.IsResolved() {
			n++
		}
	}

	return n
}

// Counts returns the number of accepted, skipped and failed rows.
func (r *Result) Counts() (accepted, skipped, failed int) {
	for _, o := range r.Outcomes {
		switch o.Status {
		case RowAccepted:
			accepted++
		case RowSkipped:
			skipped++
		case RowFailed:
			failed++
		}
	}

	return accepted, skipped, failed
}
