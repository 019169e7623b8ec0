// Package textnorm provides the text normalizations shared by slug
// generation, query expansion and tokenization.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Slug converts a label to its normalized identity form.
// "A&B - Café da manhã" -> "a-b-cafe-da-manha".
// "Wi-Fi / Internet" -> "wi-fi-internet".
// Slug(Slug(s)) == Slug(s) for every s.
func Slug(s string) string {
	ascii := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	s, _, _ = transform.String(ascii, s)

	var b strings.Builder
	b.Grow(len(s))
	gap := false
	for _, r := range strings.ToLower(s) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			if gap && b.Len() > 0 {
				b.WriteByte('-')
			}
			gap = false
			b.WriteRune(r)
			continue
		}
		gap = true
	}
	return b.String()
}

// StripAccents removes combining marks after NFD decomposition, leaving
// case, punctuation and spacing untouched. "Manhã" -> "Manha".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, _ := transform.String(t, s)
	return out
}

// Fold lowercases and strips accents. Used for dictionary matching.
func Fold(s string) string {
	return StripAccents(strings.ToLower(s))
}
