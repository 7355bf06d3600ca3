// Package http exposes the catalog query engine over REST.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/has99an/gtl-marketplace-search/pkg/errors"
	"github.com/has99an/gtl-marketplace-search/pkg/httputil"
	"github.com/has99an/gtl-marketplace-search/pkg/pagination"
	"github.com/has99an/gtl-marketplace-search/pkg/validator"

	"github.com/has99an/gtl-marketplace-search/internal/domain"
	"github.com/has99an/gtl-marketplace-search/internal/service"
)

// CatalogHandler serves the catalog search and availability endpoints.
type CatalogHandler struct {
	catalog *service.CatalogService
	logger  *slog.Logger
}

// NewCatalogHandler creates the catalog HTTP handler.
func NewCatalogHandler(catalog *service.CatalogService, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// Search handles GET /api/v1/search.
func (h *CatalogHandler) Search(w nethttp.ResponseWriter, r *nethttp.Request) {
	q := r.URL.Query()
	params := pagination.FromRequest(r)

	result, err := h.catalog.SearchByText(r.Context(), q.Get("query"), q.Get("sortBy"), q.Get("sortOrder"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, nethttp.StatusOK, httputil.Response{Data: result})
}

// Available handles GET /api/v1/search/available.
func (h *CatalogHandler) Available(w nethttp.ResponseWriter, r *nethttp.Request) {
	q := r.URL.Query()
	params := pagination.FromRequest(r)

	result, err := h.catalog.GetAvailablePaged(r.Context(), q.Get("sortBy"), q.Get("sortOrder"), params)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, nethttp.StatusOK, httputil.Response{Data: result})
}

// ByISBN handles GET /api/v1/search/by-isbn/{isbn}.
func (h *CatalogHandler) ByISBN(w nethttp.ResponseWriter, r *nethttp.Request) {
	isbn := chi.URLParam(r, "isbn")

	entry, err := h.catalog.GetByISBN(r.Context(), isbn)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, nethttp.StatusOK, httputil.Response{Data: entry})
}

// Sellers handles GET /api/v1/search/sellers/{isbn}.
func (h *CatalogHandler) Sellers(w nethttp.ResponseWriter, r *nethttp.Request) {
	isbn := chi.URLParam(r, "isbn")

	offers, err := h.catalog.GetSellers(r.Context(), isbn)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, nethttp.StatusOK, httputil.Response{Data: offers})
}

// Stats handles GET /api/v1/search/stats.
func (h *CatalogHandler) Stats(w nethttp.ResponseWriter, r *nethttp.Request) {
	stats, err := h.catalog.GetStats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, nethttp.StatusOK, httputil.Response{Data: stats})
}

// IndexEntryRequest is the body for direct (non-event) catalog indexing.
type IndexEntryRequest struct {
	ISBN            string   `json:"isbn" validate:"required"`
	Title           string   `json:"title" validate:"required"`
	Authors         []string `json:"authors"`
	PublicationYear int      `json:"publicationYear" validate:"gte=0"`
	Publisher       string   `json:"publisher"`
	CoverImageURL   string   `json:"coverImageUrl" validate:"omitempty,url"`
	ThumbnailURL    string   `json:"thumbnailUrl" validate:"omitempty,url"`
	Genre           string   `json:"genre"`
	Language        string   `json:"language"`
	PageCount       int      `json:"pageCount" validate:"gte=0"`
	Description     string   `json:"description"`
	Rating          float64  `json:"rating" validate:"gte=0,lte=5"`
	Edition         string   `json:"edition"`
	Format          string   `json:"format"`
}

func (req *IndexEntryRequest) toEntry() *domain.CatalogEntry {
	return &domain.CatalogEntry{
		ISBN:            req.ISBN,
		Title:           req.Title,
		Authors:         req.Authors,
		PublicationYear: req.PublicationYear,
		Publisher:       req.Publisher,
		CoverImageURL:   req.CoverImageURL,
		ThumbnailURL:    req.ThumbnailURL,
		Genre:           req.Genre,
		Language:        req.Language,
		PageCount:       req.PageCount,
		Description:     req.Description,
		Rating:          req.Rating,
		Edition:         req.Edition,
		Format:          req.Format,
	}
}

// Index handles POST /api/v1/search/index.
func (h *CatalogHandler) Index(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req IndexEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.catalog.IndexEntry(r.Context(), req.toEntry()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, nethttp.StatusCreated, httputil.Response{Data: map[string]string{"isbn": req.ISBN}})
}

// BulkIndexRequest is the body for batch indexing.
type BulkIndexRequest struct {
	Entries []IndexEntryRequest `json:"entries" validate:"required,min=1,max=500,dive"`
}

// BulkIndex handles POST /api/v1/search/bulk.
func (h *CatalogHandler) BulkIndex(w nethttp.ResponseWriter, r *nethttp.Request) {
	var req BulkIndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body"), h.logger)
		return
	}
	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	entries := make([]*domain.CatalogEntry, len(req.Entries))
	for i := range req.Entries {
		entries[i] = req.Entries[i].toEntry()
	}

	indexed, err := h.catalog.BulkIndex(r.Context(), entries)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, nethttp.StatusOK, httputil.Response{Data: map[string]int{"indexed": indexed}})
}

// Reindex handles POST /api/v1/search/reindex. The rebuild runs in the
// background; the response only acknowledges that it started.
func (h *CatalogHandler) Reindex(w nethttp.ResponseWriter, r *nethttp.Request) {
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := h.catalog.Reindex(ctx); err != nil {
			h.logger.Error("background reindex failed", slog.String("error", err.Error()))
		}
	}()
	httputil.WriteJSON(w, nethttp.StatusAccepted, httputil.Response{Data: map[string]string{"status": "reindex started"}})
}
