package listing

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/capstone-maru/maru/internal/geo"
)

// Address is the structural location of a listing plus a free-text label.
type Address struct {
	City         string   `json:"city"`
	District     string   `json:"district"`
	Street       string   `json:"street,omitempty"`
	BuildingName string   `json:"building_name,omitempty"`
	Label        string   `json:"label"`
	Lat          *float64 `json:"lat,omitempty"`
	Lng          *float64 `json:"lng,omitempty"`
}

// Normalize case-folds s, trims it and collapses inner whitespace runs to a
// single space. It is the normalization shared by location keys and keywords.
// A Caser is stateful, so each call builds its own.
func Normalize(s string) string {
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// LocationKey returns the normalized "city district" key used by the
// location filter.
func (a Address) LocationKey() string {
	return Normalize(a.City + " " + a.District)
}

// Geohash returns the coarse cell of the address, or "" without coordinates.
func (a Address) Geohash() string {
	if a.Lat == nil || a.Lng == nil {
		return ""
	}
	return geo.Encode(*a.Lat, *a.Lng, geo.DefaultPrecision)
}

// SearchText returns the normalized declared text fields joined by a single
// space. Keyword terms never contain whitespace, so a term cannot match across
// two fields.
func (a Address) SearchText() string {
	parts := make([]string, 0, 5)
	for _, s := range []string{a.Label, a.City, a.District, a.Street, a.BuildingName} {
		if n := Normalize(s); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}

func (a Address) clone() Address {
	c := a
	if a.Lat != nil {
		lat := *a.Lat
		c.Lat = &lat
	}
	if a.Lng != nil {
		lng := *a.Lng
		c.Lng = &lng
	}
	return c
}
