package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "github.com/has99an/gtl-marketplace-search/pkg/errors"

	"github.com/has99an/gtl-marketplace-search/internal/domain"
	"github.com/has99an/gtl-marketplace-search/internal/store"
)

// OfferRepository stores the per-book seller offer map. The whole map is one
// record keyed by ISBN; offer churn per book is low enough that rewriting it
// wholesale is cheaper than per-seller keys.
type OfferRepository struct {
	store store.Adapter
}

// NewOfferRepository creates a seller offer repository.
func NewOfferRepository(s store.Adapter) *OfferRepository {
	return &OfferRepository{store: s}
}

// GetOffers returns the seller offer map for a book, keyed by seller ID.
// A book with no offers yet yields an empty map, not an error.
func (r *OfferRepository) GetOffers(ctx context.Context, isbn string) (map[string]domain.SellerOffer, error) {
	raw, err := r.store.Get(ctx, OffersKey(isbn))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return map[string]domain.SellerOffer{}, nil
		}
		return nil, fmt.Errorf("get offers: %w", err)
	}

	var offers map[string]domain.SellerOffer
	if err := json.Unmarshal([]byte(raw), &offers); err != nil {
		return nil, fmt.Errorf("unmarshal offers %s: %w", isbn, err)
	}
	return offers, nil
}

// PutOffers replaces the stored offer map for a book.
func (r *OfferRepository) PutOffers(ctx context.Context, isbn string, offers map[string]domain.SellerOffer) error {
	data, err := json.Marshal(offers)
	if err != nil {
		return fmt.Errorf("marshal offers %s: %w", isbn, err)
	}
	if err := r.store.Set(ctx, OffersKey(isbn), string(data), 0); err != nil {
		return fmt.Errorf("set offers: %w", err)
	}
	return nil
}

// DeleteOffers removes the offer map for a book.
func (r *OfferRepository) DeleteOffers(ctx context.Context, isbn string) error {
	if err := r.store.Delete(ctx, OffersKey(isbn)); err != nil {
		return fmt.Errorf("delete offers: %w", err)
	}
	return nil
}
