package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	apperrors "github.com/has99an/gtl-marketplace-search/pkg/errors"
	"github.com/has99an/gtl-marketplace-search/pkg/pagination"

	"github.com/has99an/gtl-marketplace-search/internal/cache"
	"github.com/has99an/gtl-marketplace-search/internal/domain"
	"github.com/has99an/gtl-marketplace-search/internal/index"
)

// maxSuggestions bounds "did you mean" hints on empty results.
const maxSuggestions = 5

// SearchByText runs a full text search: exact term intersection first, fuzzy
// expansion as a fallback, suggestions when even that finds nothing.
func (s *CatalogService) SearchByText(ctx context.Context, query, sortBy, order string, params pagination.Params) (*domain.SearchResult, error) {
	terms := index.Tokenize(query)
	if len(terms) == 0 {
		return nil, apperrors.InvalidInput("query must contain at least one searchable term")
	}

	sortBy, order, err := normalizeSort(sortBy, order, domain.SortRelevance)
	if err != nil {
		return nil, err
	}

	// The normalized query feeds both the cache key and relevance scoring,
	// so every raw spelling that tokenizes the same shares one ranking.
	normalized := strings.Join(terms, " ")
	cacheKey := cache.SearchKey(normalized, sortBy, order, params.Page, params.PageSize)
	var cached domain.SearchResult
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	start := time.Now()

	isbns, err := s.text.Search(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("exact search: %w", err)
	}

	var suggestions []string
	if len(isbns) == 0 {
		isbns, err = s.fuzzySearch(ctx, terms)
		if err != nil {
			return nil, fmt.Errorf("fuzzy search: %w", err)
		}
	}
	if len(isbns) == 0 {
		suggestions, err = s.suggestTerms(ctx, terms)
		if err != nil {
			return nil, fmt.Errorf("suggest: %w", err)
		}
	}

	entries, err := s.entries.GetMany(ctx, isbns)
	if err != nil {
		return nil, fmt.Errorf("fetch matches: %w", err)
	}

	sortEntries(entries, normalized, terms, sortBy, order)

	totalItems := len(entries)
	entries = pageWindow(entries, params)

	rows, err := s.expandRows(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("expand rows: %w", err)
	}

	result := &domain.SearchResult{
		Rows:        rows,
		TotalItems:  totalItems,
		Page:        params.Page,
		PageSize:    params.PageSize,
		Suggestions: suggestions,
		TookMs:      time.Since(start).Milliseconds(),
	}

	if err := s.cache.Set(ctx, cacheKey, result); err != nil {
		s.logger.Warn("cache write failed", slog.String("error", err.Error()))
	}
	return result, nil
}

// fuzzySearch intersects the unions of each term's fuzzy expansions. A term
// with no expansion at all makes the result empty, mirroring exact AND
// semantics.
func (s *CatalogService) fuzzySearch(ctx context.Context, terms []string) ([]string, error) {
	expansions, err := s.text.FuzzyExpand(ctx, terms)
	if err != nil {
		return nil, err
	}

	var matched map[string]struct{}
	for _, term := range terms {
		union := make(map[string]struct{})
		for _, candidate := range expansions[term] {
			isbns, err := s.text.Search(ctx, []string{candidate})
			if err != nil {
				return nil, err
			}
			for _, isbn := range isbns {
				union[isbn] = struct{}{}
			}
		}
		if matched == nil {
			matched = union
			continue
		}
		for isbn := range matched {
			if _, ok := union[isbn]; !ok {
				delete(matched, isbn)
			}
		}
	}

	isbns := make([]string, 0, len(matched))
	for isbn := range matched {
		isbns = append(isbns, isbn)
	}
	sort.Strings(isbns)
	return isbns, nil
}

func (s *CatalogService) suggestTerms(ctx context.Context, terms []string) ([]string, error) {
	var suggestions []string
	seen := make(map[string]struct{})
	for _, term := range terms {
		hints, err := s.text.Suggest(ctx, term, maxSuggestions)
		if err != nil {
			return nil, err
		}
		for _, hint := range hints {
			if _, ok := seen[hint]; ok {
				continue
			}
			seen[hint] = struct{}{}
			suggestions = append(suggestions, hint)
			if len(suggestions) == maxSuggestions {
				return suggestions, nil
			}
		}
	}
	return suggestions, nil
}

// GetAvailablePaged lists in-stock books in rank order. Only the title and
// price orders are indexed; totalCount counts books, not expanded seller
// rows.
func (s *CatalogService) GetAvailablePaged(ctx context.Context, sortBy, order string, params pagination.Params) (*pagination.Result[domain.ResultRow], error) {
	sortBy, order, err := normalizeSort(sortBy, order, domain.SortTitle)
	if err != nil {
		return nil, err
	}

	var rankKey string
	switch sortBy {
	case domain.SortTitle:
		rankKey = index.TitleRankKey
	case domain.SortPrice:
		rankKey = index.PriceRankKey
	default:
		return nil, apperrors.InvalidInput("availability listing supports sort by title or price")
	}

	cacheKey := cache.PageKey(sortBy, order, params.Page, params.PageSize)
	var cached pagination.Result[domain.ResultRow]
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	total, err := s.ranks.Card(ctx, rankKey)
	if err != nil {
		return nil, fmt.Errorf("count ranked: %w", err)
	}

	isbns, err := s.ranks.Range(ctx, rankKey, int64(params.Offset), int64(params.PageSize), order == domain.OrderDesc)
	if err != nil {
		return nil, fmt.Errorf("rank window: %w", err)
	}

	entries, err := s.entries.GetMany(ctx, isbns)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}

	rows, err := s.expandRows(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("expand rows: %w", err)
	}

	result := pagination.NewResult(rows, int(total), params)

	if err := s.cache.Set(ctx, cacheKey, result); err != nil {
		s.logger.Warn("cache write failed", slog.String("error", err.Error()))
	}
	return &result, nil
}

// GetByISBN returns one catalog entry, served from cache when possible.
func (s *CatalogService) GetByISBN(ctx context.Context, isbn string) (*domain.CatalogEntry, error) {
	if isbn == "" {
		return nil, apperrors.InvalidInput("isbn is required")
	}

	cacheKey := cache.EntryKey(isbn)
	var cached domain.CatalogEntry
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	entry, err := s.entries.Get(ctx, isbn)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("catalog entry", isbn)
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	if err := s.cache.Set(ctx, cacheKey, entry); err != nil {
		s.logger.Warn("cache write failed", slog.String("error", err.Error()))
	}
	return entry, nil
}

// GetSellers returns the purchasable offers for a book, cheapest first.
// Zero-quantity offers are filtered out.
func (s *CatalogService) GetSellers(ctx context.Context, isbn string) ([]domain.SellerOffer, error) {
	if _, err := s.entries.Get(ctx, isbn); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("catalog entry", isbn)
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}

	stored, err := s.offers.GetOffers(ctx, isbn)
	if err != nil {
		return nil, fmt.Errorf("get offers: %w", err)
	}

	offers := make([]domain.SellerOffer, 0, len(stored))
	for _, offer := range stored {
		if offer.Quantity > 0 {
			offers = append(offers, offer)
		}
	}
	sort.Slice(offers, func(i, j int) bool {
		if offers[i].PriceCents != offers[j].PriceCents {
			return offers[i].PriceCents < offers[j].PriceCents
		}
		return offers[i].SellerID < offers[j].SellerID
	})
	return offers, nil
}

// expandRows turns entries into result rows, one per purchasable seller
// offer. Entries with no qualifying offers still yield one row so they stay
// discoverable.
func (s *CatalogService) expandRows(ctx context.Context, entries []*domain.CatalogEntry) ([]domain.ResultRow, error) {
	rows := make([]domain.ResultRow, 0, len(entries))
	for _, entry := range entries {
		base := domain.ResultRow{
			ISBN:            entry.ISBN,
			Title:           entry.Title,
			Authors:         entry.Authors,
			PublicationYear: entry.PublicationYear,
			Publisher:       entry.Publisher,
			ThumbnailURL:    entry.ThumbnailURL,
			Genre:           entry.Genre,
			Format:          entry.Format,
			Rating:          entry.Rating,
			TotalStock:      entry.TotalStock,
			SellerCount:     entry.SellerCount,
			MinPriceCents:   entry.MinPriceCents,
		}

		stored, err := s.offers.GetOffers(ctx, entry.ISBN)
		if err != nil {
			return nil, err
		}

		sellers := make([]domain.SellerOffer, 0, len(stored))
		for _, offer := range stored {
			if offer.Quantity > 0 {
				sellers = append(sellers, offer)
			}
		}
		if len(sellers) == 0 {
			rows = append(rows, base)
			continue
		}

		sort.Slice(sellers, func(i, j int) bool {
			if sellers[i].PriceCents != sellers[j].PriceCents {
				return sellers[i].PriceCents < sellers[j].PriceCents
			}
			return sellers[i].SellerID < sellers[j].SellerID
		})
		for _, offer := range sellers {
			row := base
			row.SellerID = offer.SellerID
			row.SellerPriceCents = offer.PriceCents
			row.SellerQuantity = offer.Quantity
			row.SellerCondition = offer.Condition
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// normalizeSort validates the sort option and order, filling defaults.
func normalizeSort(sortBy, order, defaultSort string) (string, string, error) {
	if sortBy == "" {
		sortBy = defaultSort
	}
	if !domain.IsValidSort(sortBy) {
		return "", "", apperrors.InvalidInput(fmt.Sprintf("unknown sort option %q", sortBy))
	}

	switch order {
	case "":
		if sortBy == domain.SortRelevance || sortBy == domain.SortRating {
			order = domain.OrderDesc
		} else {
			order = domain.OrderAsc
		}
	case domain.OrderAsc, domain.OrderDesc:
	default:
		return "", "", apperrors.InvalidInput(fmt.Sprintf("unknown sort order %q", order))
	}
	return sortBy, order, nil
}

func pageWindow(entries []*domain.CatalogEntry, params pagination.Params) []*domain.CatalogEntry {
	if params.Offset >= len(entries) {
		return nil
	}
	end := min(params.Offset+params.PageSize, len(entries))
	return entries[params.Offset:end]
}
