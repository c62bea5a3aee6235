// Package identity provides customer identity-key normalization.
// Transactional records carry no stable customer identifier, so the
// RFV pipeline keys customers by display name. NormalizeKey makes that
// key insensitive to case, accents, and whitespace noise.
// This is part of the platform layer and contains no business logic.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeKey converts a customer display name into the canonical
// identity key: lower-cased, diacritics stripped, inner whitespace
// collapsed to single spaces.
func NormalizeKey(name string) string {
	folded := strings.ToLower(strings.TrimSpace(name))
	if folded == "" {
		return ""
	}

	if stripped, _, err := transform.String(stripMarks, folded); err == nil {
		folded = stripped
	}

	return strings.Join(strings.Fields(folded), " ")
}

// IsNumeric reports whether a name consists solely of digits and
// separator punctuation. Such "names" are misfiled national ids in the
// source feed and must not become customer identities.
func IsNumeric(name string) bool {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false
	}

	sawDigit := false
	for _, r := range trimmed {
		switch {
		case unicode.IsDigit(r):
			sawDigit = true
		case r == '.' || r == '-' || r == '/' || r == ' ':
			// common CPF / medical-record separators
		default:
			return false
		}
	}
	return sawDigit
}
