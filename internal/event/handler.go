package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/has99an/gtl-marketplace-search/pkg/errors"
	"github.com/has99an/gtl-marketplace-search/pkg/kafka"

	"github.com/has99an/gtl-marketplace-search/internal/domain"
	"github.com/has99an/gtl-marketplace-search/internal/service"
)

// Handler applies marketplace events to the catalog. Malformed payloads and
// validation failures are permanent: retrying cannot fix them, so they go to
// the DLQ instead of blocking the partition.
type Handler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewHandler creates the catalog event handler.
func NewHandler(catalog *service.CatalogService, logger *slog.Logger) *Handler {
	return &Handler{catalog: catalog, logger: logger}
}

// Handle dispatches an event by type. Unknown types are logged and dropped;
// new upstream event types must never wedge the consumer.
func (h *Handler) Handle(ctx context.Context, event *kafka.Event) error {
	switch event.EventType {
	case TypeCatalogCreated, TypeCatalogUpdated:
		return h.handleCatalogUpsert(ctx, event)
	case TypeCatalogDeleted:
		return h.handleCatalogDeleted(ctx, event)
	case TypeStockChanged:
		return h.handleStockChanged(ctx, event)
	default:
		h.logger.Warn("ignoring unknown event type",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID))
		return nil
	}
}

func (h *Handler) handleCatalogUpsert(ctx context.Context, event *kafka.Event) error {
	var payload CatalogEventPayload
	if err := event.UnmarshalData(&payload); err != nil {
		return fmt.Errorf("decode catalog payload: %v: %w", err, kafka.ErrPermanent)
	}

	entry := &domain.CatalogEntry{
		SourceTimestamp: event.Timestamp,
		ISBN:            payload.ISBN,
		Title:           payload.Title,
		Authors:         payload.Authors,
		PublicationYear: payload.PublicationYear,
		Publisher:       payload.Publisher,
		CoverImageURL:   payload.CoverImageURL,
		ThumbnailURL:    payload.ThumbnailURL,
		Genre:           payload.Genre,
		Language:        payload.Language,
		PageCount:       payload.PageCount,
		Description:     payload.Description,
		Rating:          payload.Rating,
		Edition:         payload.Edition,
		Format:          payload.Format,
	}

	if err := h.catalog.IndexEntry(ctx, entry); err != nil {
		return permanentIfInvalid(fmt.Errorf("index entry: %w", err))
	}
	return nil
}

func (h *Handler) handleCatalogDeleted(ctx context.Context, event *kafka.Event) error {
	var payload CatalogDeletedPayload
	if err := event.UnmarshalData(&payload); err != nil {
		return fmt.Errorf("decode delete payload: %v: %w", err, kafka.ErrPermanent)
	}
	if payload.ISBN == "" {
		payload.ISBN = event.AggregateID
	}
	if payload.ISBN == "" {
		return fmt.Errorf("delete event without isbn: %w", kafka.ErrPermanent)
	}

	if err := h.catalog.DeleteEntry(ctx, payload.ISBN); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

func (h *Handler) handleStockChanged(ctx context.Context, event *kafka.Event) error {
	var payload StockChangedPayload
	if err := event.UnmarshalData(&payload); err != nil {
		return fmt.Errorf("decode stock payload: %v: %w", err, kafka.ErrPermanent)
	}

	if payload.Removed {
		if err := h.catalog.RemoveSellerOffer(ctx, payload.ISBN, payload.SellerID); err != nil {
			return fmt.Errorf("remove offer: %w", err)
		}
		return nil
	}

	offer := domain.SellerOffer{
		SellerID:   payload.SellerID,
		PriceCents: payload.PriceCents,
		Quantity:   payload.Quantity,
		Condition:  payload.Condition,
		UpdatedAt:  event.Timestamp,
	}
	if err := h.catalog.ApplyStockChange(ctx, payload.ISBN, offer); err != nil {
		return permanentIfInvalid(fmt.Errorf("apply stock change: %w", err))
	}
	return nil
}

// permanentIfInvalid upgrades validation failures to permanent errors so a
// bad event cannot loop through the retry budget.
func permanentIfInvalid(err error) error {
	if errors.Is(err, apperrors.ErrInvalidInput) {
		return fmt.Errorf("%v: %w", err, kafka.ErrPermanent)
	}
	return err
}
