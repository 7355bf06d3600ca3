// Package aggregate folds the per-seller offer set of a book into the
// denormalized commerce fields on its catalog entry and keeps the rank
// indices consistent with availability.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "github.com/has99an/gtl-marketplace-search/pkg/errors"

	"github.com/has99an/gtl-marketplace-search/internal/domain"
	"github.com/has99an/gtl-marketplace-search/internal/index"
	"github.com/has99an/gtl-marketplace-search/internal/repository"
)

// Aggregator recomputes catalog entry aggregates from seller offers.
type Aggregator struct {
	entries *repository.EntryRepository
	offers  *repository.OfferRepository
	ranks   *index.RankIndex
	logger  *slog.Logger
	now     func() time.Time
}

// NewAggregator creates an offer aggregator.
func NewAggregator(entries *repository.EntryRepository, offers *repository.OfferRepository, ranks *index.RankIndex, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		entries: entries,
		offers:  offers,
		ranks:   ranks,
		logger:  logger,
		now:     time.Now,
	}
}

// UpsertOffer records a seller's current price and quantity for a book and
// recomputes the entry's aggregates. A quantity of zero keeps the offer
// stored but drops it from aggregation. An offer older than the seller's
// stored one is discarded, so replayed stock events cannot roll back a
// newer quantity.
func (a *Aggregator) UpsertOffer(ctx context.Context, isbn string, offer domain.SellerOffer) error {
	stored, err := a.offers.GetOffers(ctx, isbn)
	if err != nil {
		return fmt.Errorf("load offers: %w", err)
	}

	if offer.UpdatedAt.IsZero() {
		offer.UpdatedAt = a.now().UTC()
	}
	if prev, ok := stored[offer.SellerID]; ok && prev.UpdatedAt.After(offer.UpdatedAt) {
		a.logger.Warn("stale offer discarded",
			slog.String("isbn", isbn),
			slog.String("seller_id", offer.SellerID))
		return nil
	}
	stored[offer.SellerID] = offer

	if err := a.offers.PutOffers(ctx, isbn, stored); err != nil {
		return fmt.Errorf("store offers: %w", err)
	}
	return a.RecomputeAggregates(ctx, isbn)
}

// RemoveOffer deletes a seller's offer for a book and recomputes aggregates.
func (a *Aggregator) RemoveOffer(ctx context.Context, isbn, sellerID string) error {
	stored, err := a.offers.GetOffers(ctx, isbn)
	if err != nil {
		return fmt.Errorf("load offers: %w", err)
	}
	if _, ok := stored[sellerID]; !ok {
		return nil
	}
	delete(stored, sellerID)

	if err := a.offers.PutOffers(ctx, isbn, stored); err != nil {
		return fmt.Errorf("store offers: %w", err)
	}
	return a.RecomputeAggregates(ctx, isbn)
}

// RecomputeAggregates rebuilds the entry's aggregated commerce fields from
// the stored offer set and re-ranks the entry by availability. Offers for an
// ISBN with no catalog entry stay stored and are folded in once the entry
// arrives.
func (a *Aggregator) RecomputeAggregates(ctx context.Context, isbn string) error {
	entry, err := a.entries.Get(ctx, isbn)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			a.logger.Warn("aggregates deferred, no catalog entry yet",
				slog.String("isbn", isbn))
			return nil
		}
		return fmt.Errorf("load entry: %w", err)
	}

	stored, err := a.offers.GetOffers(ctx, isbn)
	if err != nil {
		return fmt.Errorf("load offers: %w", err)
	}

	applyAggregates(entry, stored, a.now().UTC())

	if err := a.entries.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("store entry: %w", err)
	}

	if entry.Available() {
		if err := a.ranks.Upsert(ctx, isbn, entry.Title, entry.MinPriceCents); err != nil {
			return fmt.Errorf("rank entry: %w", err)
		}
		return nil
	}
	if err := a.ranks.Remove(ctx, isbn); err != nil {
		return fmt.Errorf("unrank entry: %w", err)
	}
	return nil
}

// applyAggregates folds qualifying offers (quantity > 0) into the entry.
func applyAggregates(entry *domain.CatalogEntry, offers map[string]domain.SellerOffer, now time.Time) {
	var (
		totalStock int
		sum        int64
		minPrice   int64
		maxPrice   int64
		count      int
		conditions = make(map[string]struct{})
	)

	for _, offer := range offers {
		if offer.Quantity <= 0 {
			continue
		}
		totalStock += offer.Quantity
		sum += offer.PriceCents
		if count == 0 || offer.PriceCents < minPrice {
			minPrice = offer.PriceCents
		}
		if count == 0 || offer.PriceCents > maxPrice {
			maxPrice = offer.PriceCents
		}
		count++
		if offer.Condition != "" {
			conditions[offer.Condition] = struct{}{}
		}
	}

	entry.TotalStock = totalStock
	entry.SellerCount = count
	entry.MinPriceCents = minPrice
	entry.MaxPriceCents = maxPrice
	if count > 0 {
		entry.AvgPriceCents = sum / int64(count)
	} else {
		entry.AvgPriceCents = 0
	}

	entry.Conditions = entry.Conditions[:0]
	for c := range conditions {
		entry.Conditions = append(entry.Conditions, c)
	}
	sort.Strings(entry.Conditions)

	entry.StockUpdatedAt = now
	entry.UpdatedAt = now
}
