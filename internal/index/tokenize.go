// Package index implements the inverted text index and the rank indices that
// back search and ranked pagination over the catalog.
package index

import (
	"strings"
	"unicode"
)

// Tokenize splits text into distinct lowercase terms. A term is a maximal run
// of letters and digits; everything else is a separator. Order follows first
// appearance.
func Tokenize(text string) []string {
	var (
		terms []string
		seen  = make(map[string]struct{})
		b     strings.Builder
	)

	flush := func() {
		if b.Len() == 0 {
			return
		}
		term := b.String()
		b.Reset()
		if _, ok := seen[term]; ok {
			return
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		flush()
	}
	flush()

	return terms
}

// EntryTerms returns the distinct terms of an entry's searchable fields.
func EntryTerms(title string, authors []string, isbn string) []string {
	parts := make([]string, 0, len(authors)+2)
	parts = append(parts, title)
	parts = append(parts, authors...)
	parts = append(parts, isbn)
	return Tokenize(strings.Join(parts, " "))
}
