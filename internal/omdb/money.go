package omdb

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// ParseMoney normalizes an amount such as "$123,456,789" into a float. Absent,
// unparsable, non-finite, or non-positive amounts yield nil.
func ParseMoney(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, notAvailable) {
		return nil
	}
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return nil
	}
	return &v
}

// optionalString maps the service's placeholders to nil.
func optionalString(raw string) *string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, notAvailable) {
		return nil
	}
	return &raw
}
