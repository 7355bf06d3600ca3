package index

import (
	"context"
	"fmt"
	"sort"

	"github.com/has99an/gtl-marketplace-search/internal/store"
)

const (
	termKeyPrefix = "catalog:term:"
	vocabKey      = "catalog:terms"
)

// TermKey returns the store key for a term's posting set.
func TermKey(term string) string {
	return termKeyPrefix + term
}

// TextIndex is a store-backed inverted index from terms to ISBN posting sets,
// with a vocabulary set for fuzzy expansion and suggestions.
type TextIndex struct {
	store store.Adapter
}

// NewTextIndex creates an inverted text index over the given store.
func NewTextIndex(s store.Adapter) *TextIndex {
	return &TextIndex{store: s}
}

// Add registers an ISBN under each term and grows the vocabulary.
func (idx *TextIndex) Add(ctx context.Context, isbn string, terms []string) error {
	if len(terms) == 0 {
		return nil
	}
	for _, term := range terms {
		if err := idx.store.SetAdd(ctx, TermKey(term), isbn); err != nil {
			return fmt.Errorf("index term %q: %w", term, err)
		}
	}
	if err := idx.store.SetAdd(ctx, vocabKey, terms...); err != nil {
		return fmt.Errorf("grow vocabulary: %w", err)
	}
	return nil
}

// Remove deregisters an ISBN from each term's posting set. Terms whose
// posting set drains empty are pruned from the vocabulary so fuzzy expansion
// never suggests a term with no results.
func (idx *TextIndex) Remove(ctx context.Context, isbn string, terms []string) error {
	for _, term := range terms {
		key := TermKey(term)
		if err := idx.store.SetRemove(ctx, key, isbn); err != nil {
			return fmt.Errorf("deindex term %q: %w", term, err)
		}

		n, err := idx.store.SetCard(ctx, key)
		if err != nil {
			return fmt.Errorf("check term %q: %w", term, err)
		}
		if n == 0 {
			if err := idx.store.Delete(ctx, key); err != nil {
				return fmt.Errorf("prune term %q: %w", term, err)
			}
			if err := idx.store.SetRemove(ctx, vocabKey, term); err != nil {
				return fmt.Errorf("prune vocabulary %q: %w", term, err)
			}
		}
	}
	return nil
}

// Search returns the ISBNs whose indexed text contains every given term.
// An unknown term makes the intersection empty.
func (idx *TextIndex) Search(ctx context.Context, terms []string) ([]string, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	keys := make([]string, len(terms))
	for i, term := range terms {
		keys[i] = TermKey(term)
	}

	isbns, err := idx.store.SetIntersect(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("intersect terms: %w", err)
	}
	return isbns, nil
}

// FuzzyExpand maps each query term to the vocabulary terms it fuzzily
// matches. A term with an exact vocabulary hit keeps only itself.
func (idx *TextIndex) FuzzyExpand(ctx context.Context, terms []string) (map[string][]string, error) {
	vocab, err := idx.store.SetMembers(ctx, vocabKey)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}

	expansions := make(map[string][]string, len(terms))
	for _, term := range terms {
		var matches []string
		exact := false
		for _, candidate := range vocab {
			if candidate == term {
				exact = true
				break
			}
			if fuzzyMatches(term, candidate) {
				matches = append(matches, candidate)
			}
		}
		if exact {
			expansions[term] = []string{term}
			continue
		}
		sort.Slice(matches, func(i, j int) bool {
			di, dj := levenshtein(term, matches[i]), levenshtein(term, matches[j])
			if di != dj {
				return di < dj
			}
			return matches[i] < matches[j]
		})
		expansions[term] = matches
	}
	return expansions, nil
}

// Suggest returns up to limit vocabulary terms closest to the given term,
// for "did you mean" hints on empty results.
func (idx *TextIndex) Suggest(ctx context.Context, term string, limit int) ([]string, error) {
	expansions, err := idx.FuzzyExpand(ctx, []string{term})
	if err != nil {
		return nil, err
	}

	matches := expansions[term]
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
