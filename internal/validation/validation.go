package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrLocationEmpty is returned when location is empty or whitespace-only after trim.
var ErrLocationEmpty = errors.New("location is required")

// ErrLocationTooLong is returned when location length exceeds the maximum.
var ErrLocationTooLong = errors.New("location too long")

// ValidateLocation trims the input and enforces a non-empty value of at most maxLen
// runes (maxLen <= 0 disables the bound). Locations are free text: city names,
// "lat,lon" pairs and postal codes all pass, and semantic checks are left to the
// weather provider. Returns the trimmed string or an error suitable for
// 400 INVALID_LOCATION responses.
func ValidateLocation(input string, maxLen int) (string, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return "", ErrLocationEmpty
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		return "", ErrLocationTooLong
	}
	return s, nil
}
