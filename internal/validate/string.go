// Package validate checks free-text search parameters before they reach the
// filter builder.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrInvalidEncoding   = errors.New("string is not valid UTF-8")
)

// Parameter limits.
const (
	MaxKeywordLength  = 100
	MaxLocationLength = 100
	MaxGeohashLength  = 12
)

var geohashPattern = regexp.MustCompile(`^[0-9bcdefghjkmnpqrstuvwxyz]+$`)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MaxLength      int            // in runes; 0 = no maximum
	AllowedPattern *regexp.Regexp // checked after trimming
	TrimSpace      bool
}

// String validates s against constraints and returns it, trimmed when
// requested. Control characters are always rejected. An empty string is
// always valid.
func String(s string, constraints StringConstraints) (string, error) {
	if !utf8.ValidString(s) {
		return "", ErrInvalidEncoding
	}
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return s, nil
	}

	if n := utf8.RuneCountInString(s); constraints.MaxLength > 0 && n > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, n, constraints.MaxLength)
	}
	if strings.IndexFunc(s, unicode.IsControl) >= 0 {
		return "", fmt.Errorf("%w: control character", ErrInvalidCharacters)
	}
	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}
	return s, nil
}

// Keyword validates a free-text keyword. Whitespace is kept; the filter
// splits it into terms.
func Keyword(s string) (string, error) {
	return String(s, StringConstraints{MaxLength: MaxKeywordLength})
}

// Location validates a "city district" location prefix.
func Location(s string) (string, error) {
	return String(s, StringConstraints{MaxLength: MaxLocationLength, TrimSpace: true})
}

// Geohash validates a geohash cell prefix. Case is ignored.
func Geohash(s string) (string, error) {
	return String(strings.ToLower(s), StringConstraints{
		MaxLength:      MaxGeohashLength,
		AllowedPattern: geohashPattern,
		TrimSpace:      true,
	})
}
