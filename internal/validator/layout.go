// Package validator checks that a fetched index page has the expected shape.
package validator

import (
	"errors"
	"fmt"

	"communes/internal/document"
)

// MinIndexTables is the number of top-level tables the index page must expose.
const MinIndexTables = 3

// ErrStructureMismatch is returned when the index page does not look like the
// expected document. It is fatal: no row is processed and nothing is written.
var ErrStructureMismatch = errors.New("unexpected page structure, check the format of the Wikipedia tables")

// IndexLayout names the tables of the index page, in document order.
type IndexLayout struct {
	// Renamings lists communes whose name changed.
	Renamings document.Table
	// Mergers lists communes resulting from a merger and the communes absorbed.
	Mergers document.Table
	// Creations lists creations and re-establishments.
	Creations document.Table
	// Extra counts tables after the first three.
	Extra int
}

// LayoutStats summarizes row counts per named table.
type LayoutStats struct {
	RenamingRows int
	MergerRows   int
	CreationRows int
}

// CheckLayout validates tables and names them.
func CheckLayout(tables []document.Table) (*IndexLayout, error) {
	if len(tables) < MinIndexTables {
		return nil, fmt.Errorf("%w: found %d tables, expected at least %d",
			ErrStructureMismatch, len(tables), MinIndexTables)
	}

	return &IndexLayout{
		Renamings: tables[0],
		Mergers:   tables[1],
		Creations: tables[2],
		Extra:     len(tables) - MinIndexTables,
	}, nil
}

// Stats returns row counts of the named tables.
func (l *IndexLayout) Stats() LayoutStats {
	return LayoutStats{
		RenamingRows: len(l.Renamings.Rows),
		MergerRows:   len(l.Mergers.Rows),
		CreationRows: len(l.Creations.Rows),
	}
}

// String returns a string representation of layout stats.
func (s LayoutStats) String() string {
	return fmt.Sprintf("renamings: %d rows, mergers: %d rows, creations: %d rows",
		s.RenamingRows, s.MergerRows, s.CreationRows)
}
