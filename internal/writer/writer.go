// Package writer serializes entity records to fixed-column tabular files.
package writer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"communes/internal/config"
	"communes/internal/models"
)

// ErrUnknownFormat is returned for an output format with no writer.
var ErrUnknownFormat = errors.New("unknown output format")

// Header is the column order every output file uses.
var Header = []string{"Code_INSEE", "Nom", "Creation", "Suppression", "Latitude", "Longitude"}

// Writer writes records to a file.
type Writer interface {
	WriteFile(path string, records []models.EntityRecord) error
}

// New returns the writer for a configured output format.
func New(format string) (Writer, error) {
	switch format {
	case config.FormatCSV:
		return CSVWriter{}, nil
	case config.FormatXLSX:
		return XLSXWriter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Fields renders one record as text cells in Header order.
func Fields(r models.EntityRecord) []string {
	suppression := ""
	if r.SuppressionYear != nil {
		suppression = strconv.Itoa(*r.SuppressionYear)
	}

	return []string{
		r.Code,
		r.Name,
		strconv.Itoa(r.CreationYear),
		suppression,
		FormatCoordinate(r.Coordinates.Latitude),
		FormatCoordinate(r.Coordinates.Longitude),
	}
}

// FormatCoordinate prints the shortest decimal that round-trips, always with
// a fractional part (9 prints as "9.0").
func FormatCoordinate(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}

// writeAtomically writes through a temporary file in the target directory so
// a failed write never leaves a partial file at path.
func writeAtomically(path string, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)

		return err
	}

	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)

		return fmt.Errorf("failed to move output into place: %w", err)
	}

	return nil
}
