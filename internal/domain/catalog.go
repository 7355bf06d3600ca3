package domain

import (
	"time"
)

// CatalogEntry is the denormalized search/display record for one book.
// Descriptive fields come from catalog events and are replaced wholesale on
// update; the aggregated commerce fields are derived from the current seller
// offer set and are never patched incrementally.
type CatalogEntry struct {
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
	Availability    string   `json:"availability"`
	Edition         string   `json:"edition"`
	Format          string   `json:"format"`

	// Aggregated commerce fields (derived, not authoritative).
	TotalStock     int       `json:"totalStock"`
	SellerCount    int       `json:"sellerCount"`
	MinPriceCents  int64     `json:"minPriceCents"`
	MaxPriceCents  int64     `json:"maxPriceCents"`
	AvgPriceCents  int64     `json:"avgPriceCents"`
	Conditions     []string  `json:"conditions"`
	StockUpdatedAt time.Time `json:"stockUpdatedAt"`

	// SourceTimestamp is the upstream event time that produced the
	// descriptive fields. Upserts carrying an older timestamp than the
	// stored one are discarded, so late replays cannot clobber newer data.
	SourceTimestamp time.Time `json:"sourceTimestamp"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Available reports whether the entry has purchasable stock.
func (e *CatalogEntry) Available() bool {
	return e.TotalStock > 0
}

// SellerOffer is one seller's price/quantity/condition for one book.
// Offers with quantity 0 stay stored (audit trail) but are excluded from
// aggregation.
type SellerOffer struct {
	SellerID   string    `json:"sellerId"`
	PriceCents int64     `json:"priceCents"`
	Quantity   int       `json:"quantity"`
	Condition  string    `json:"condition"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Sort options for search and availability listings.
const (
	SortRelevance = "relevance"
	SortTitle     = "title"
	SortPrice     = "price"
	SortRating    = "rating"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// IsValidSort reports whether the given sort option is recognized.
func IsValidSort(sort string) bool {
	switch sort {
	case SortRelevance, SortTitle, SortPrice, SortRating:
		return true
	}
	return false
}

// ResultRow is one search/listing result row. Rows are expanded per seller
// offer with quantity > 0; an entry with no qualifying offers still yields a
// single row with empty seller fields so it stays discoverable.
type ResultRow struct {
	ISBN            string   `json:"isbn"`
	Title           string   `json:"title"`
	Authors         []string `json:"authors"`
	PublicationYear int      `json:"publicationYear"`
	Publisher       string   `json:"publisher"`
	ThumbnailURL    string   `json:"thumbnailUrl"`
	Genre           string   `json:"genre"`
	Format          string   `json:"format"`
	Rating          float64  `json:"rating"`
	TotalStock      int      `json:"totalStock"`
	SellerCount     int      `json:"sellerCount"`
	MinPriceCents   int64    `json:"minPriceCents"`

	SellerID         string `json:"sellerId,omitempty"`
	SellerPriceCents int64  `json:"sellerPriceCents,omitempty"`
	SellerQuantity   int    `json:"sellerQuantity,omitempty"`
	SellerCondition  string `json:"sellerCondition,omitempty"`
}

// SearchResult holds the response for a text search.
//
// TotalItems counts matched catalog entries, not expanded per-seller rows;
// pagination windows are item windows.
type SearchResult struct {
	Rows        []ResultRow `json:"rows"`
	TotalItems  int         `json:"totalItems"`
	Page        int         `json:"page"`
	PageSize    int         `json:"pageSize"`
	Suggestions []string    `json:"suggestions,omitempty"`
	TookMs      int64       `json:"tookMs"`
}

// CatalogStats holds catalog-wide aggregate statistics.
type CatalogStats struct {
	TotalEntries     int            `json:"totalEntries"`
	AvailableEntries int            `json:"availableEntries"`
	TotalStock       int            `json:"totalStock"`
	MinPriceCents    int64          `json:"minPriceCents"`
	MaxPriceCents    int64          `json:"maxPriceCents"`
	AvgPriceCents    int64          `json:"avgPriceCents"`
	EntriesByGenre   map[string]int `json:"entriesByGenre"`
	GeneratedAt      time.Time      `json:"generatedAt"`
}
