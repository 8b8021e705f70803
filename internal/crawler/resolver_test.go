package crawler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communes/internal/document"
	"communes/internal/extractor"
	"communes/internal/models"
)

// stubFetcher serves canned pages and records every locator it was asked for.
type stubFetcher struct {
	pages map[string][]document.Table
	calls []string
}

func (s *stubFetcher) FetchTables(_ context.Context, locator string) []document.Table {
	s.calls = append(s.calls, locator)

	return s.pages[locator]
}

func mustTables(t *testing.T, page string) []document.Table {
	t.Helper()

	tables, err := document.ParseTables(strings.NewReader(page))
	require.NoError(t, err)

	return tables
}

func mustCell(t *testing.T, inner string) document.Cell {
	t.Helper()

	tables := mustTables(t, "<table><tr><td>"+inner+"</td></tr></table>")
	require.Len(t, tables, 1)

	return tables[0].Rows[0].Data[0]
}

func newTestResolver(t *testing.T, f TableFetcher) *Resolver {
	t.Helper()

	r, err := NewResolver(f, extractor.NewDefault(), "https://fr.wikipedia.org/wiki/Liste", models.DefaultCoordinates())
	require.NoError(t, err)

	return r
}

func TestResolver_Resolve(t *testing.T) {
	f := &stubFetcher{pages: map[string][]document.Table{
		"https://fr.wikipedia.org/wiki/Ghisonaccia": mustTables(t, `<table>
<tr><th>Code commune</th><td>2B123</td></tr>
<tr><th>Coordonnées</th><td><a class="mw-kartographer-maplink" data-lat="42.0175" data-lon="9.40555555556">x</a></td></tr>
</table><table><tr><th>Code commune</th><td>2B999</td></tr></table>`),
	}}

	r := newTestResolver(t, f)

	res, err := r.Resolve(context.Background(), mustCell(t, `<a href="/wiki/Ghisonaccia">Ghisonaccia</a>`))
	require.NoError(t, err)

	assert.True(t, res.Resolved)
	assert.Equal(t, "2B123", res.Code)
	assert.Equal(t, models.Coordinates{Latitude: 42.0175, Longitude: 9.40555555556}, res.Coordinates)
	assert.Equal(t, "https://fr.wikipedia.org/wiki/Ghisonaccia", res.Locator)
	assert.Equal(t, []string{"https://fr.wikipedia.org/wiki/Ghisonaccia"}, f.calls)
}

func TestResolver_NoLinkKeepsDefaults(t *testing.T) {
	f := &stubFetcher{}
	r := newTestResolver(t, f)

	res, err := r.Resolve(context.Background(), mustCell(t, "Plain name"))
	require.NoError(t, err)

	assert.False(t, res.Resolved)
	assert.Equal(t, models.UnresolvedCode, res.Code)
	assert.Equal(t, models.DefaultCoordinates(), res.Coordinates)
	assert.Empty(t, f.calls)
}

func TestResolver_EmptyFetchKeepsDefaults(t *testing.T) {
	f := &stubFetcher{}
	r := newTestResolver(t, f)

	res, err := r.Resolve(context.Background(), mustCell(t, `<a href="/wiki/Nowhere">Nowhere</a>`))
	require.NoError(t, err)

	assert.False(t, res.Resolved)
	assert.Equal(t, models.UnresolvedCode, res.Code)
	assert.Equal(t, models.DefaultCoordinates(), res.Coordinates)
	assert.Len(t, f.calls, 1)
}

func TestResolver_OnlyFirstLinkIsFollowed(t *testing.T) {
	f := &stubFetcher{}
	r := newTestResolver(t, f)

	_, err := r.Resolve(context.Background(), mustCell(t, `<a href="/wiki/First">First</a> <a href="/wiki/Second">Second</a>`))
	require.NoError(t, err)

	assert.Equal(t, []string{"https://fr.wikipedia.org/wiki/First"}, f.calls)
}

func TestResolver_MissingHrefIsRowError(t *testing.T) {
	f := &stubFetcher{}
	r := newTestResolver(t, f)

	_, err := r.Resolve(context.Background(), mustCell(t, `<a name="anchor">Name</a>`))
	require.ErrorIs(t, err, ErrMissingHref)
	assert.Empty(t, f.calls)
}

func TestResolver_Locator(t *testing.T) {
	r := newTestResolver(t, &stubFetcher{})

	tests := []struct {
		href string
		want string
	}{
		{"/wiki/Pigna", "https://fr.wikipedia.org/wiki/Pigna"},
		{"Corte", "https://fr.wikipedia.org/wiki/Corte"},
		{"https://example.org/page", "https://example.org/page"},
		{"/wiki/Saint-Florent_(Haute-Corse)", "https://fr.wikipedia.org/wiki/Saint-Florent_(Haute-Corse)"},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, err := r.Locator(document.Link{Attrs: map[string]string{"href": tt.href}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := r.Locator(document.Link{Attrs: map[string]string{"href": "http://[::1"}})
	assert.ErrorIs(t, err, ErrInvalidHref)
}
