// Package event consumes the marketplace event streams that feed the
// catalog: book lifecycle events from the catalog service and stock changes
// from the inventory service.
package event

import (
	"github.com/has99an/gtl-marketplace-search/pkg/kafka"
)

// Event types consumed by the catalog ingestion pipeline.
var (
	TypeCatalogCreated = kafka.Topic("catalog", "created")
	TypeCatalogUpdated = kafka.Topic("catalog", "updated")
	TypeCatalogDeleted = kafka.Topic("catalog", "deleted")
	TypeStockChanged   = kafka.Topic("inventory", "stock_changed")
)

// Topics lists every topic the ingestion pipeline subscribes to. Event types
// double as topic names, so per-book ordering holds within each stream via
// partition keying on the ISBN.
func Topics() []string {
	return []string{
		TypeCatalogCreated,
		TypeCatalogUpdated,
		TypeCatalogDeleted,
		TypeStockChanged,
	}
}

// CatalogEventPayload is the body of catalog created and updated events.
type CatalogEventPayload struct {
	ISBN            string   `json:"isbn"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	PublicationYear int      `json:"publicationYear"`
	Publisher       string   `json:"publisher"`
	CoverImageURL   string   `json:"coverImageUrl"`
	ThumbnailURL    string   `json:"thumbnailUrl"`
	Genre           string   `json:"genre"`
	Language        string   `json:"language"`
	PageCount       int      `json:"pageCount"`
	Description     string   `json:"description"`
	Rating          float64  `json:"rating"`
	Edition         string   `json:"edition"`
	Format          string   `json:"format"`
}

// CatalogDeletedPayload is the body of catalog deleted events.
type CatalogDeletedPayload struct {
	ISBN string `json:"isbn"`
}

// StockChangedPayload is the body of inventory stock change events. It
// carries the seller's absolute current state, not a delta, so replays and
// reordering across sellers cannot corrupt totals.
type StockChangedPayload struct {
	ISBN       string `json:"isbn"`
	SellerID   string `json:"sellerId"`
	PriceCents int64  `json:"priceCents"`
	Quantity   int    `json:"quantity"`
	Condition  string `json:"condition"`
	Removed    bool   `json:"removed,omitempty"`
}
