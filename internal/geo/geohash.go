// Package geo provides coarse location cells for room listing addresses.
package geo

import (
	"strings"

	"github.com/mmcloughlin/geohash"
)

// DefaultPrecision is the default geohash precision for listing cells.
// Six characters is roughly a 1.2km x 0.6km cell, enough to group listings
// by neighbourhood without exposing the building.
const DefaultPrecision = 6

// validGeohashChars is a lookup map for valid base32 characters used in geohashes.
// Geohash uses a custom base32 alphabet excluding 'a', 'i', 'l', and 'o'.
var validGeohashChars = map[rune]bool{
	'0': true, '1': true, '2': true, '3': true, '4': true,
	'5': true, '6': true, '7': true, '8': true, '9': true,
	'b': true, 'c': true, 'd': true, 'e': true, 'f': true,
	'g': true, 'h': true, 'j': true, 'k': true, 'm': true,
	'n': true, 'p': true, 'q': true, 'r': true, 's': true,
	't': true, 'u': true, 'v': true, 'w': true, 'x': true,
	'y': true, 'z': true,
}

// Encode encodes latitude and longitude into a geohash of the given precision.
// Precision below 1 falls back to DefaultPrecision.
func Encode(lat, lng float64, precision int) string {
	if precision < 1 {
		precision = DefaultPrecision
	}
	return geohash.EncodeWithPrecision(lat, lng, uint(precision))
}

// RoundGeohash truncates a geohash string to the specified precision.
//
// Returns:
//   - The truncated geohash if valid
//   - Empty string if input is empty, contains invalid characters, or precision is less than 1
//   - The input normalized to lowercase if it is shorter than precision
func RoundGeohash(input string, precision int) string {
	if input == "" || precision < 1 {
		return ""
	}

	lower := strings.ToLower(strings.TrimSpace(input))
	if !IsValid(lower) {
		return ""
	}

	if len(lower) <= precision {
		return lower
	}
	return lower[:precision]
}

// IsValid reports whether s is a non-empty lowercase geohash.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !validGeohashChars[c] {
			return false
		}
	}
	return true
}
