package service

import (
	"sort"
	"strings"

	"github.com/has99an/gtl-marketplace-search/internal/domain"
)

// Relevance boosts. Boosts are cumulative: an exact title match also earns
// the prefix and contains boosts, keeping the ordering monotonic as matches
// get stronger.
const (
	boostExactTitle    = 100.0
	boostTitlePrefix   = 50.0
	boostTitleContains = 25.0
	boostAuthor        = 15.0
	boostISBN          = 10.0

	ratingWeight  = 2.0
	stockWeight   = 0.5
	stockBoostCap = 10.0
)

// relevanceScore ranks an entry against the normalized query and its terms.
func relevanceScore(entry *domain.CatalogEntry, query string, terms []string) float64 {
	var score float64

	title := strings.ToLower(entry.Title)
	q := strings.ToLower(strings.TrimSpace(query))

	if title == q {
		score += boostExactTitle
	}
	if strings.HasPrefix(title, q) {
		score += boostTitlePrefix
	}
	if strings.Contains(title, q) {
		score += boostTitleContains
	}

	for _, author := range entry.Authors {
		a := strings.ToLower(author)
		for _, term := range terms {
			if strings.Contains(a, term) {
				score += boostAuthor
				break
			}
		}
	}

	isbn := strings.ToLower(entry.ISBN)
	for _, term := range terms {
		if strings.Contains(isbn, term) {
			score += boostISBN
			break
		}
	}

	score += entry.Rating * ratingWeight
	score += min(float64(entry.TotalStock)*stockWeight, stockBoostCap)

	return score
}

// sortEntries orders matched entries for the requested sort. Relevance
// ignores the order parameter; best match always comes first.
func sortEntries(entries []*domain.CatalogEntry, query string, terms []string, sortBy, order string) {
	asc := order == domain.OrderAsc

	var less func(a, b *domain.CatalogEntry) bool
	switch sortBy {
	case domain.SortTitle:
		less = func(a, b *domain.CatalogEntry) bool {
			ta, tb := strings.ToLower(a.Title), strings.ToLower(b.Title)
			if ta != tb {
				return (ta < tb) == asc
			}
			return a.ISBN < b.ISBN
		}
	case domain.SortPrice:
		less = func(a, b *domain.CatalogEntry) bool {
			if a.MinPriceCents != b.MinPriceCents {
				return (a.MinPriceCents < b.MinPriceCents) == asc
			}
			return a.ISBN < b.ISBN
		}
	case domain.SortRating:
		less = func(a, b *domain.CatalogEntry) bool {
			if a.Rating != b.Rating {
				return (a.Rating < b.Rating) == asc
			}
			return a.ISBN < b.ISBN
		}
	default:
		scores := make(map[string]float64, len(entries))
		for _, e := range entries {
			scores[e.ISBN] = relevanceScore(e, query, terms)
		}
		less = func(a, b *domain.CatalogEntry) bool {
			if scores[a.ISBN] != scores[b.ISBN] {
				return scores[a.ISBN] > scores[b.ISBN]
			}
			return a.ISBN < b.ISBN
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return less(entries[i], entries[j])
	})
}
