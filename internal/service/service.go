// Package service implements the catalog query engine and the write path
// that keeps the entry records, indices, and caches consistent.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/has99an/gtl-marketplace-search/pkg/errors"

	"github.com/has99an/gtl-marketplace-search/internal/aggregate"
	"github.com/has99an/gtl-marketplace-search/internal/cache"
	"github.com/has99an/gtl-marketplace-search/internal/domain"
	"github.com/has99an/gtl-marketplace-search/internal/index"
	"github.com/has99an/gtl-marketplace-search/internal/repository"
)

// CatalogService coordinates catalog reads and writes. All mutations flow
// through it so index updates and cache invalidation never diverge from the
// stored records.
type CatalogService struct {
	entries    *repository.EntryRepository
	offers     *repository.OfferRepository
	text       *index.TextIndex
	ranks      *index.RankIndex
	aggregator *aggregate.Aggregator
	builder    *index.Builder
	cache      *cache.Cache
	logger     *slog.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(
	entries *repository.EntryRepository,
	offers *repository.OfferRepository,
	text *index.TextIndex,
	ranks *index.RankIndex,
	aggregator *aggregate.Aggregator,
	builder *index.Builder,
	resultCache *cache.Cache,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		entries:    entries,
		offers:     offers,
		text:       text,
		ranks:      ranks,
		aggregator: aggregator,
		builder:    builder,
		cache:      resultCache,
		logger:     logger,
	}
}

// IndexEntry stores a catalog entry and refreshes its text postings, rank
// positions, and aggregates. Descriptive fields replace the stored ones
// wholesale; aggregates are recomputed from the current offer set, so a
// republished entry cannot resurrect stale commerce data. An upsert whose
// source timestamp is older than the stored entry's is discarded, so an
// out-of-order replay cannot roll the entry back.
func (s *CatalogService) IndexEntry(ctx context.Context, entry *domain.CatalogEntry) error {
	if entry.ISBN == "" {
		return apperrors.InvalidInput("isbn is required")
	}
	if entry.Title == "" {
		return apperrors.InvalidInput("title is required")
	}

	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.SourceTimestamp.IsZero() {
		entry.SourceTimestamp = now
	}

	old, err := s.entries.Get(ctx, entry.ISBN)
	switch {
	case err == nil:
		if old.SourceTimestamp.After(entry.SourceTimestamp) {
			s.logger.Warn("stale catalog upsert discarded",
				slog.String("isbn", entry.ISBN),
				slog.Time("stored", old.SourceTimestamp),
				slog.Time("incoming", entry.SourceTimestamp))
			return nil
		}
		entry.CreatedAt = old.CreatedAt
		oldTerms := index.EntryTerms(old.Title, old.Authors, old.ISBN)
		if err := s.text.Remove(ctx, entry.ISBN, oldTerms); err != nil {
			return fmt.Errorf("deindex old terms: %w", err)
		}
	case errors.Is(err, apperrors.ErrNotFound):
		// First sighting of this ISBN.
	default:
		return fmt.Errorf("load existing entry: %w", err)
	}

	if err := s.entries.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("store entry: %w", err)
	}

	terms := index.EntryTerms(entry.Title, entry.Authors, entry.ISBN)
	if err := s.text.Add(ctx, entry.ISBN, terms); err != nil {
		return fmt.Errorf("index terms: %w", err)
	}

	if err := s.aggregator.RecomputeAggregates(ctx, entry.ISBN); err != nil {
		return fmt.Errorf("recompute aggregates: %w", err)
	}

	if err := s.cache.InvalidateItem(ctx, entry.ISBN); err != nil {
		s.logger.Warn("cache invalidation failed",
			slog.String("isbn", entry.ISBN),
			slog.String("error", err.Error()))
	}

	s.logger.Info("catalog entry indexed",
		slog.String("isbn", entry.ISBN),
		slog.String("title", entry.Title))
	return nil
}

// DeleteEntry removes an entry, its offers, and every index trace of it.
// Deleting an unknown ISBN is a no-op so replayed delete events stay safe.
func (s *CatalogService) DeleteEntry(ctx context.Context, isbn string) error {
	entry, err := s.entries.Get(ctx, isbn)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Debug("delete for unknown isbn ignored", slog.String("isbn", isbn))
			return nil
		}
		return fmt.Errorf("load entry: %w", err)
	}

	terms := index.EntryTerms(entry.Title, entry.Authors, entry.ISBN)
	if err := s.text.Remove(ctx, isbn, terms); err != nil {
		return fmt.Errorf("deindex terms: %w", err)
	}
	if err := s.ranks.Remove(ctx, isbn); err != nil {
		return fmt.Errorf("unrank entry: %w", err)
	}
	if err := s.offers.DeleteOffers(ctx, isbn); err != nil {
		return fmt.Errorf("delete offers: %w", err)
	}
	if err := s.entries.Delete(ctx, isbn); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}

	if err := s.cache.InvalidateItem(ctx, isbn); err != nil {
		s.logger.Warn("cache invalidation failed",
			slog.String("isbn", isbn),
			slog.String("error", err.Error()))
	}

	s.logger.Info("catalog entry deleted", slog.String("isbn", isbn))
	return nil
}

// ApplyStockChange records a seller's current offer for a book and refreshes
// aggregates and caches.
func (s *CatalogService) ApplyStockChange(ctx context.Context, isbn string, offer domain.SellerOffer) error {
	if isbn == "" {
		return apperrors.InvalidInput("isbn is required")
	}
	if offer.SellerID == "" {
		return apperrors.InvalidInput("sellerId is required")
	}
	if offer.Quantity < 0 {
		return apperrors.InvalidInput("quantity must not be negative")
	}
	if offer.PriceCents < 0 {
		return apperrors.InvalidInput("price must not be negative")
	}

	if err := s.aggregator.UpsertOffer(ctx, isbn, offer); err != nil {
		return fmt.Errorf("apply stock change: %w", err)
	}

	if err := s.cache.InvalidateItem(ctx, isbn); err != nil {
		s.logger.Warn("cache invalidation failed",
			slog.String("isbn", isbn),
			slog.String("error", err.Error()))
	}
	return nil
}

// RemoveSellerOffer drops one seller's offer for a book entirely.
func (s *CatalogService) RemoveSellerOffer(ctx context.Context, isbn, sellerID string) error {
	if err := s.aggregator.RemoveOffer(ctx, isbn, sellerID); err != nil {
		return fmt.Errorf("remove offer: %w", err)
	}
	if err := s.cache.InvalidateItem(ctx, isbn); err != nil {
		s.logger.Warn("cache invalidation failed",
			slog.String("isbn", isbn),
			slog.String("error", err.Error()))
	}
	return nil
}

// BulkIndex stores a batch of entries, returning how many were indexed. The
// first failure aborts the batch; already-indexed entries stay indexed.
func (s *CatalogService) BulkIndex(ctx context.Context, entries []*domain.CatalogEntry) (int, error) {
	for i, entry := range entries {
		if err := s.IndexEntry(ctx, entry); err != nil {
			return i, fmt.Errorf("bulk index entry %d: %w", i, err)
		}
	}
	return len(entries), nil
}

// Reindex rebuilds the text and rank indices from stored entries.
func (s *CatalogService) Reindex(ctx context.Context) error {
	if err := s.builder.Rebuild(ctx); err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	return nil
}
