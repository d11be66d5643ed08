package gis

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents removes combining marks after NFD decomposition, so that
// "Ñuble" and "Nuble" compare equal.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName canonicalizes a feature name for matching: accents
// stripped, lowercased, whitespace collapsed. Official Chilean layer names
// mix accented and unaccented spellings of the same feature.
func NormalizeName(s string) string {
	out, _, err := transform.String(stripAccents, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// SameFeature reports whether two feature names refer to the same feature
// under normalization.
func SameFeature(a, b string) bool {
	return NormalizeName(a) == NormalizeName(b)
}
