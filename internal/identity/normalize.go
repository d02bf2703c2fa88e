// Package identity normalizes identity keys so ledger lookups match across
// capture spellings (recognizer slugs vs. display names).
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Normalize canonicalizes an identity key: trimmed, lowercase, no
// diacritics, dashes and underscores collapsed to single spaces. "Jan-Novák"
// and "jan novak" map to the same ledger identity.
func Normalize(id string) string {
	id = RemoveDiacritics(strings.TrimSpace(id))
	id = strings.ToLower(id)
	id = strings.ReplaceAll(id, "-", " ")
	id = strings.ReplaceAll(id, "_", " ")
	return strings.Join(strings.Fields(id), " ")
}
