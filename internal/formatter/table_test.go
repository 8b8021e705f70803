package formatter

import (
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"

	"communes/internal/models"
)

func TestRenderTable(t *testing.T) {
	tests := []struct {
		name     string
		input    [][]string
		expected []string
	}{
		{
			name:  "Pads to minimum width",
			input: [][]string{{"H1", "Nom"}, {"a", "b"}},
			expected: []string{
				"| H1  | Nom |",
				"| --- | --- |",
				"| a   | b   |",
			},
		},
		{
			name:  "Accented names",
			input: [][]string{{"H1", "Nom"}, {"a", "Évisa"}},
			expected: []string{
				"| H1  | Nom   |",
				"| --- | ----- |",
				"| a   | Évisa |",
			},
		},
		{
			name:  "Wide characters",
			input: [][]string{{"Nom"}, {"消防"}},
			expected: []string{
				"| Nom  |",
				"| ---- |",
				"| 消防 |",
			},
		},
		{
			name:  "Short rows are padded",
			input: [][]string{{"A", "B"}, {"x"}},
			expected: []string{
				"| A   | B   |",
				"| --- | --- |",
				"| x   |     |",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderTable(tt.input)
			if strings.Join(got, "\n") != strings.Join(tt.expected, "\n") {
				t.Errorf("renderTable() mismatch.\nExpected:\n%s\nGot:\n%s",
					strings.Join(tt.expected, "\n"), strings.Join(got, "\n"))
			}
		})
	}
}

func TestRenderTable_Empty(t *testing.T) {
	if got := renderTable(nil); got != nil {
		t.Errorf("renderTable(nil) = %v, want nil", got)
	}
}

func TestFormatRecords(t *testing.T) {
	records := []models.EntityRecord{
		{Code: "2B123", Name: "Nouvelle Commune", CreationYear: 1973, Coordinates: models.DefaultCoordinates()},
	}

	expected := "| Code INSEE | Nom              | Création | Suppression | Latitude | Longitude |\n" +
		"| ---------- | ---------------- | -------- | ----------- | -------- | --------- |\n" +
		"| 2B123      | Nouvelle Commune | 1973     |             | 42.15    | 9.08      |\n"

	if got := FormatRecords(records); got != expected {
		t.Errorf("FormatRecords() mismatch.\nExpected:\n%s\nGot:\n%s", expected, got)
	}
}

func TestFormatRecords_AlignedColumns(t *testing.T) {
	suppressed := 1975
	records := []models.EntityRecord{
		{Code: "2B001", Name: "Pietracorbara", CreationYear: 1600},
		{Code: "2B002", Name: "Évisa", CreationYear: 1600, SuppressionYear: &suppressed},
	}

	lines := strings.Split(strings.TrimSuffix(FormatRecords(records), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}

	width := runewidth.StringWidth(lines[0])
	for i, line := range lines {
		if w := runewidth.StringWidth(line); w != width {
			t.Errorf("line %d has display width %d, want %d", i, w, width)
		}
	}

	if !strings.Contains(lines[3], "1975") {
		t.Errorf("expected suppression year in %q", lines[3])
	}
}

func TestSortByName(t *testing.T) {
	records := []models.EntityRecord{
		{Name: "Zalana"},
		{Name: "Éccica-Suarella"},
		{Name: "Ampriani"},
		{Name: "Erbajolo"},
		{Name: "aullène"},
	}

	SortByName(records)

	expected := []string{"Ampriani", "aullène", "Éccica-Suarella", "Erbajolo", "Zalana"}
	for i, name := range expected {
		if records[i].Name != name {
			t.Errorf("position %d: got %q, want %q", i, records[i].Name, name)
		}
	}
}
