// Package extractor reads single fields out of infobox-like tables by
// matching header labels. The first matching row wins; when nothing matches
// the caller gets the unresolved defaults. Extraction never fails.
package extractor

import (
	"strconv"
	"strings"

	"communes/internal/document"
	"communes/internal/models"
)

// Header labels and markers as they appear on the source pages.
const (
	CodeLabel        = "Code commune"
	CoordinatesLabel = "Coordonnées"
	MapLinkClass     = "mw-kartographer-maplink"
	DefaultPrefix    = "2B"
)

// Extractor holds the regional acceptance rule and fallbacks.
type Extractor struct {
	prefix   string
	fallback models.Coordinates
}

// New creates an extractor for codes starting with prefix.
func New(prefix string, fallback models.Coordinates) *Extractor {
	return &Extractor{
		prefix:   prefix,
		fallback: fallback,
	}
}

// NewDefault creates the Haute-Corse extractor.
func NewDefault() *Extractor {
	return New(DefaultPrefix, models.DefaultCoordinates())
}

// Code returns the INSEE code of the first row labelled "Code commune" that
// has a data cell. Codes outside the region are replaced by the sentinel.
func (e *Extractor) Code(t document.Table) string {
	for _, row := range t.Rows {
		th, ok := row.FirstHeader()
		if !ok || th.TrimmedText() != CodeLabel || len(row.Data) == 0 {
			continue
		}

		code := row.Data[0].TrimmedText()
		if !strings.HasPrefix(code, e.prefix) {
			return models.UnresolvedCode
		}

		return code
	}

	return models.UnresolvedCode
}

// Coordinates returns the map-link position of the first row whose header
// mentions "Coordonnées" and that carries a map link.
func (e *Extractor) Coordinates(t document.Table) models.Coordinates {
	for _, row := range t.Rows {
		th, ok := row.FirstHeader()
		if !ok || !strings.Contains(th.Text, CoordinatesLabel) {
			continue
		}

		links := row.LinksWithClass(MapLinkClass)
		if len(links) == 0 {
			continue
		}

		coords, ok := parseMapLink(links[0])
		if !ok {
			return e.fallback
		}

		return coords
	}

	return e.fallback
}

func parseMapLink(l document.Link) (models.Coordinates, bool) {
	latRaw, ok := l.Attr("data-lat")
	if !ok {
		return models.Coordinates{}, false
	}

	lonRaw, ok := l.Attr("data-lon")
	if !ok {
		return models.Coordinates{}, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return models.Coordinates{}, false
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil {
		return models.Coordinates{}, false
	}

	return models.Coordinates{Latitude: lat, Longitude: lon}, true
}
