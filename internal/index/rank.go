package index

import (
	"context"
	"fmt"

	"github.com/has99an/gtl-marketplace-search/internal/store"
)

// Rank index keys. Only available entries are ranked, so page windows never
// need post-filtering.
const (
	TitleRankKey = "catalog:rank:title"
	PriceRankKey = "catalog:rank:price"
)

// RankIndex maintains the two sorted indices used for ranked pagination:
// title order and minimum price order.
type RankIndex struct {
	store store.Adapter
}

// NewRankIndex creates the rank index pair over the given store.
func NewRankIndex(s store.Adapter) *RankIndex {
	return &RankIndex{store: s}
}

// Upsert ranks an ISBN under both orders. The price score is the entry's
// minimum offer price in cents; cents fit float64 exactly far beyond any
// plausible book price.
func (r *RankIndex) Upsert(ctx context.Context, isbn, title string, minPriceCents int64) error {
	if err := r.store.SortedSetAdd(ctx, TitleRankKey, TitleScore(title), isbn); err != nil {
		return fmt.Errorf("rank title: %w", err)
	}
	if err := r.store.SortedSetAdd(ctx, PriceRankKey, float64(minPriceCents), isbn); err != nil {
		return fmt.Errorf("rank price: %w", err)
	}
	return nil
}

// Remove drops an ISBN from both orders. Absent members are not an error.
func (r *RankIndex) Remove(ctx context.Context, isbn string) error {
	if err := r.store.SortedSetRemove(ctx, TitleRankKey, isbn); err != nil {
		return fmt.Errorf("unrank title: %w", err)
	}
	if err := r.store.SortedSetRemove(ctx, PriceRankKey, isbn); err != nil {
		return fmt.Errorf("unrank price: %w", err)
	}
	return nil
}

// Range returns the ISBNs in the page window [offset, offset+limit) of the
// given rank order.
func (r *RankIndex) Range(ctx context.Context, key string, offset, limit int64, descending bool) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}
	isbns, err := r.store.SortedSetRange(ctx, key, offset, offset+limit-1, descending)
	if err != nil {
		return nil, fmt.Errorf("rank range: %w", err)
	}
	return isbns, nil
}

// Card returns how many ISBNs the given rank order holds.
func (r *RankIndex) Card(ctx context.Context, key string) (int64, error) {
	n, err := r.store.SortedSetCard(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("rank card: %w", err)
	}
	return n, nil
}
