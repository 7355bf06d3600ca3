package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/has99an/gtl-marketplace-search/internal/cache"
	"github.com/has99an/gtl-marketplace-search/internal/domain"
)

// statsBatchSize is how many entries one stats scan batch fetches.
const statsBatchSize = 200

// GetStats computes catalog-wide statistics over every stored entry. The
// result is cached; the scan itself is batched so a large catalog never
// needs one giant round-trip.
func (s *CatalogService) GetStats(ctx context.Context) (*domain.CatalogStats, error) {
	cacheKey := cache.StatsKey()
	var cached domain.CatalogStats
	if s.cache.Get(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	isbns, err := s.entries.ISBNs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list isbns: %w", err)
	}

	stats := &domain.CatalogStats{
		EntriesByGenre: make(map[string]int),
		GeneratedAt:    time.Now().UTC(),
	}

	var (
		priceSum   int64
		priceCount int64
	)

	for start := 0; start < len(isbns); start += statsBatchSize {
		end := min(start+statsBatchSize, len(isbns))

		entries, err := s.entries.GetMany(ctx, isbns[start:end])
		if err != nil {
			return nil, fmt.Errorf("fetch stats batch: %w", err)
		}

		for _, entry := range entries {
			stats.TotalEntries++
			genre := entry.Genre
			if genre == "" {
				genre = "unknown"
			}
			stats.EntriesByGenre[genre]++

			if !entry.Available() {
				continue
			}
			stats.AvailableEntries++
			stats.TotalStock += entry.TotalStock

			if priceCount == 0 || entry.MinPriceCents < stats.MinPriceCents {
				stats.MinPriceCents = entry.MinPriceCents
			}
			if entry.MaxPriceCents > stats.MaxPriceCents {
				stats.MaxPriceCents = entry.MaxPriceCents
			}
			priceSum += entry.MinPriceCents
			priceCount++
		}
	}

	if priceCount > 0 {
		stats.AvgPriceCents = priceSum / priceCount
	}

	if err := s.cache.Set(ctx, cacheKey, stats); err != nil {
		s.logger.Warn("cache write failed", slog.String("error", err.Error()))
	}
	return stats, nil
}
