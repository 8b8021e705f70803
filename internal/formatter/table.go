// Package formatter renders extracted records as aligned text tables.
package formatter

import (
	"slices"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"communes/internal/models"
)

// PreviewHeader labels the columns of a record preview.
var PreviewHeader = []string{"Code INSEE", "Nom", "Création", "Suppression", "Latitude", "Longitude"}

// minColumnWidth matches the shortest markdown separator "---".
const minColumnWidth = 3

// SortByName orders records by name using French collation, so accented
// names sort next to their unaccented neighbours. Ties keep input order.
func SortByName(records []models.EntityRecord) {
	c := collate.New(language.French, collate.Loose)

	slices.SortStableFunc(records, func(a, b models.EntityRecord) int {
		return c.CompareString(a.Name, b.Name)
	})
}

// FormatRecords renders records as a markdown table whose columns are padded
// to their display width.
func FormatRecords(records []models.EntityRecord) string {
	table := make([][]string, 0, len(records)+1)
	table = append(table, PreviewHeader)

	for _, r := range records {
		table = append(table, previewRow(r))
	}

	return strings.Join(renderTable(table), "\n") + "\n"
}

func previewRow(r models.EntityRecord) []string {
	suppression := ""
	if r.SuppressionYear != nil {
		suppression = strconv.Itoa(*r.SuppressionYear)
	}

	return []string{
		r.Code,
		r.Name,
		strconv.Itoa(r.CreationYear),
		suppression,
		strconv.FormatFloat(r.Coordinates.Latitude, 'f', -1, 64),
		strconv.FormatFloat(r.Coordinates.Longitude, 'f', -1, 64),
	}
}

// renderTable pads every cell to its column's display width and inserts a
// separator row after the header.
func renderTable(table [][]string) []string {
	if len(table) == 0 {
		return nil
	}

	colCount := 0
	for _, row := range table {
		colCount = max(colCount, len(row))
	}

	colWidths := make([]int, colCount)
	for i := range colWidths {
		colWidths[i] = minColumnWidth
	}

	for _, row := range table {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(cell))
		}
	}

	result := make([]string, 0, len(table)+1)

	for i, row := range table {
		result = append(result, renderRow(row, colWidths))

		if i == 0 {
			sep := make([]string, colCount)
			for j, w := range colWidths {
				sep[j] = strings.Repeat("-", w)
			}

			result = append(result, renderRow(sep, colWidths))
		}
	}

	return result
}

func renderRow(row []string, colWidths []int) string {
	var sb strings.Builder

	sb.WriteString("|")

	for j, width := range colWidths {
		content := ""
		if j < len(row) {
			content = row[j]
		}

		sb.WriteString(" ")
		sb.WriteString(content)

		// pad by display width, not byte or rune count
		if padding := width - runewidth.StringWidth(content); padding > 0 {
			sb.WriteString(strings.Repeat(" ", padding))
		}

		sb.WriteString(" |")
	}

	return sb.String()
}
