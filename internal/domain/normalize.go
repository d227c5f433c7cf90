package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize canonicalizes free text for comparison: lower-cases, strips
// combining diacritical marks (Vietnamese compares accent-insensitively),
// and trims/collapses whitespace. Idempotent and total on any input.
func Normalize(text string) string {
	lowered := strings.ToLower(text)

	// NFD decomposition exposes combining marks so they can be removed.
	// The chain carries state, so it is built per call.
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripper, lowered)
	if err != nil {
		stripped = lowered
	}

	// đ is a base letter, not a combining mark
	stripped = strings.ReplaceAll(stripped, "đ", "d")

	return strings.Join(strings.Fields(stripped), " ")
}

// NormalizeTokens splits text into normalized whitespace-separated tokens.
func NormalizeTokens(text string) []string {
	return strings.Fields(Normalize(text))
}
