package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communes/internal/document"
)

func tablesWithRows(counts ...int) []document.Table {
	tables := make([]document.Table, len(counts))
	for i, n := range counts {
		tables[i].Rows = make([]document.Row, n)
	}

	return tables
}

func TestCheckLayout(t *testing.T) {
	tests := []struct {
		name    string
		tables  []document.Table
		wantErr bool
		extra   int
	}{
		{name: "no tables", tables: nil, wantErr: true},
		{name: "two tables", tables: tablesWithRows(1, 2), wantErr: true},
		{name: "exactly three", tables: tablesWithRows(1, 2, 3)},
		{name: "more than three", tables: tablesWithRows(1, 2, 3, 4, 5), extra: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := CheckLayout(tt.tables)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrStructureMismatch)
				assert.Nil(t, layout)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.extra, layout.Extra)
			assert.Len(t, layout.Mergers.Rows, 2)
		})
	}
}

func TestIndexLayout_Stats(t *testing.T) {
	layout, err := CheckLayout(tablesWithRows(4, 7, 2))
	require.NoError(t, err)

	stats := layout.Stats()
	assert.Equal(t, LayoutStats{RenamingRows: 4, MergerRows: 7, CreationRows: 2}, stats)
	assert.Equal(t, "renamings: 4 rows, mergers: 7 rows, creations: 2 rows", stats.String())
}

func TestCheckLayout_ErrorMessage(t *testing.T) {
	_, err := CheckLayout(tablesWithRows(1, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "found 2 tables, expected at least 3")
}
