// Package expander enriches guest feedback text with hotel-domain synonyms
// before it is embedded.
package expander

import (
	"strings"

	"github.com/hejijunhao/taxon/internal/textnorm"
)

// Entry maps a trigger phrase to the expansions appended when the phrase
// occurs in the input.
type Entry struct {
	Term       string
	Expansions []string
}

// Expander rewrites text by appending synonyms. It is pure and safe for
// concurrent use.
type Expander struct {
	entries []entry
}

type entry struct {
	term       string // lowercase
	folded     string // lowercase, accents stripped
	expansions []string
}

// New builds an Expander over dict. Entries are tried in order, so the
// output is deterministic.
func New(dict []Entry) *Expander {
	e := &Expander{entries: make([]entry, 0, len(dict))}
	for _, d := range dict {
		term := strings.ToLower(strings.TrimSpace(d.Term))
		if term == "" {
			continue
		}
		e.entries = append(e.entries, entry{
			term:       term,
			folded:     textnorm.Fold(term),
			expansions: d.Expansions,
		})
	}
	return e
}

// Default returns an Expander over the built-in hotel dictionary.
func Default() *Expander {
	return New(hotelDictionary)
}

// Expand returns raw followed by the expansions of every dictionary term it
// contains and then its accent-stripped form, each phrase once. raw is
// always the prefix. Blank input yields "".
func (e *Expander) Expand(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	lower := strings.ToLower(raw)
	folded := textnorm.Fold(raw)

	seen := map[string]bool{raw: true}
	parts := []string{raw}
	add := func(s string) {
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		parts = append(parts, s)
	}

	for _, en := range e.entries {
		if strings.Contains(lower, en.term) || strings.Contains(folded, en.folded) {
			for _, x := range en.expansions {
				add(x)
			}
		}
	}
	add(textnorm.StripAccents(raw))

	return strings.Join(parts, " ")
}
