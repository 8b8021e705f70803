package writer

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"communes/internal/models"
)

// SheetName is the worksheet holding the records.
const SheetName = "Communes"

// XLSXWriter writes a single-sheet workbook with the same columns as the CSV.
type XLSXWriter struct{}

// WriteFile implements Writer.
func (XLSXWriter) WriteFile(path string, records []models.EntityRecord) error {
	f, err := buildWorkbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	return writeAtomically(path, func(out *os.File) error {
		if _, err := f.WriteTo(out); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}

		return nil
	})
}

func buildWorkbook(records []models.EntityRecord) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	header := make([]any, len(Header))
	for i, h := range Header {
		header[i] = h
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	lastHeader, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to convert coordinates: %w", err)
	}

	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}

		row := xlsxRow(r)
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 32); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to set column width: %w", err)
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	return f, nil
}

// xlsxRow keeps numbers numeric so spreadsheet tools can sort and plot them.
func xlsxRow(r models.EntityRecord) []any {
	var suppression any = ""
	if r.SuppressionYear != nil {
		suppression = *r.SuppressionYear
	}

	return []any{
		r.Code,
		r.Name,
		r.CreationYear,
		suppression,
		r.Coordinates.Latitude,
		r.Coordinates.Longitude,
	}
}
