package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"communes/internal/models"
)

// CSV reading errors.
var (
	ErrInvalidHeader = errors.New("CSV header does not match the expected columns")
	ErrInvalidRecord = errors.New("invalid CSV record")
)

// CSVWriter writes comma-separated UTF-8 with CRLF line endings.
type CSVWriter struct{}

// Write writes the header and one line per record.
func (CSVWriter) Write(w io.Writer, records []models.EntityRecord) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range records {
		if err := cw.Write(Fields(r)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return nil
}

// WriteFile implements Writer.
func (c CSVWriter) WriteFile(path string, records []models.EntityRecord) error {
	return writeAtomically(path, func(f *os.File) error {
		return c.Write(f, records)
	})
}

// ReadCSV parses a file produced by CSVWriter.
func ReadCSV(r io.Reader) ([]models.EntityRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	// tolerate a UTF-8 byte order mark added by spreadsheet tools
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHeader, header)
	}

	var records []models.EntityRecord

	for line := 2; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		rec, err := parseFields(fields)
		if err != nil {
			return nil, fmt.Errorf("%w on line %d: %v", ErrInvalidRecord, line, err)
		}

		records = append(records, rec)
	}

	return records, nil
}

// ReadCSVFile parses the CSV file at path.
func ReadCSVFile(path string) ([]models.EntityRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

func parseFields(fields []string) (models.EntityRecord, error) {
	creation, err := strconv.Atoi(fields[2])
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("creation year %q: %w", fields[2], err)
	}

	var suppression *int

	if fields[3] != "" {
		v, err := strconv.Atoi(fields[3])
		if err != nil {
			return models.EntityRecord{}, fmt.Errorf("suppression year %q: %w", fields[3], err)
		}

		suppression = &v
	}

	lat, err := strconv.ParseFloat(fields[4], 64)
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("latitude %q: %w", fields[4], err)
	}

	lon, err := strconv.ParseFloat(fields[5], 64)
	if err != nil {
		return models.EntityRecord{}, fmt.Errorf("longitude %q: %w", fields[5], err)
	}

	return models.EntityRecord{
		Code:            fields[0],
		Name:            fields[1],
		CreationYear:    creation,
		SuppressionYear: suppression,
		Coordinates:     models.Coordinates{Latitude: lat, Longitude: lon},
	}, nil
}
