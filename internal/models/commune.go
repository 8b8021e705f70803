// Package models defines the records produced by the extraction pipeline.
package models

// Sentinel values standing in for data that could not be determined.
const (
	// UnresolvedCode marks a commune whose INSEE code is unknown or out of region.
	UnresolvedCode = "99999"
	// UnknownYear marks an unparseable or unspecified date.
	UnknownYear = 1600
	// DefaultLatitude and DefaultLongitude anchor unresolved communes in central Corsica.
	DefaultLatitude  = 42.15
	DefaultLongitude = 9.08
)

// Coordinates is a WGS84 point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DefaultCoordinates returns the regional fallback point.
func DefaultCoordinates() Coordinates {
	return Coordinates{Latitude: DefaultLatitude, Longitude: DefaultLongitude}
}

// EntityRecord is one output row describing a commune.
type EntityRecord struct {
	SuppressionYear *int        `json:"suppression,omitempty"`
	Code            string      `json:"codeInsee"`
	Name            string      `json:"nom"`
	Coordinates     Coordinates `json:"coordinates"`
	CreationYear    int         `json:"creation"`
}

// IsResolved reports whether the record carries a real INSEE code.
func (r EntityRecord) IsResolved() bool {
	return r.Code != UnresolvedCode
}

// MergerEvent records one documented merger: the communes absorbed into the resulting one.
type MergerEvent struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Communes []string `json:"communes"`
	Year     int      `json:"date"`
}
