package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/has99an/gtl-marketplace-search/pkg/health"

	"github.com/has99an/gtl-marketplace-search/internal/aggregate"
	"github.com/has99an/gtl-marketplace-search/internal/cache"
	"github.com/has99an/gtl-marketplace-search/internal/domain"
	"github.com/has99an/gtl-marketplace-search/internal/index"
	"github.com/has99an/gtl-marketplace-search/internal/repository"
	"github.com/has99an/gtl-marketplace-search/internal/service"
	"github.com/has99an/gtl-marketplace-search/internal/store"
)

type fixture struct {
	router  nethttp.Handler
	catalog *service.CatalogService
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := store.NewRedisAdapter(client)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	entries := repository.NewEntryRepository(s)
	offers := repository.NewOfferRepository(s)
	text := index.NewTextIndex(s)
	ranks := index.NewRankIndex(s)
	aggregator := aggregate.NewAggregator(entries, offers, ranks, logger)
	builder := index.NewBuilder(entries, text, ranks, logger)
	catalog := service.NewCatalogService(entries, offers, text, ranks, aggregator, builder, cache.New(s, time.Minute), logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("store", s.Ping)

	return &fixture{
		router:  NewRouter(NewCatalogHandler(catalog, logger), healthHandler, logger),
		catalog: catalog,
	}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Accept-Encoding", "identity")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) seedBook(t *testing.T, isbn, title string, priceCents int64, qty int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.catalog.IndexEntry(ctx, &domain.CatalogEntry{
		ISBN:    isbn,
		Title:   title,
		Authors: []string{"Robert Martin"},
		Genre:   "Software",
		Rating:  4.5,
	}))
	if qty >= 0 {
		require.NoError(t, f.catalog.ApplyStockChange(ctx, isbn, domain.SellerOffer{
			SellerID:   "s1",
			PriceCents: priceCents,
			Quantity:   qty,
			Condition:  "new",
		}))
	}
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func TestSearchEndpoint(t *testing.T) {
	f := setup(t)
	f.seedBook(t, "9780132350884", "Clean Code", 1099, 5)

	rec := f.do(t, nethttp.MethodGet, "/api/v1/search?query=clean+code", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var result domain.SearchResult
	decodeData(t, rec, &result)
	assert.Equal(t, 1, result.TotalItems)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "9780132350884", result.Rows[0].ISBN)
	assert.Equal(t, "s1", result.Rows[0].SellerID)
}

func TestSearchEndpoint_MissingQuery(t *testing.T) {
	f := setup(t)

	rec := f.do(t, nethttp.MethodGet, "/api/v1/search", nil)
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestAvailableEndpoint(t *testing.T) {
	f := setup(t)
	f.seedBook(t, "isbn-a", "Alpha", 1000, 2)
	f.seedBook(t, "isbn-b", "Beta", 900, 0)

	rec := f.do(t, nethttp.MethodGet, "/api/v1/search/available?sortBy=title&sortOrder=asc", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var result struct {
		Data       []domain.ResultRow `json:"data"`
		TotalCount int                `json:"totalCount"`
	}
	decodeData(t, rec, &result)
	assert.Equal(t, 1, result.TotalCount)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "isbn-a", result.Data[0].ISBN)
}

func TestByISBNEndpoint(t *testing.T) {
	f := setup(t)
	f.seedBook(t, "isbn-1", "Clean Code", 1099, 5)

	rec := f.do(t, nethttp.MethodGet, "/api/v1/search/by-isbn/isbn-1", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var entry domain.CatalogEntry
	decodeData(t, rec, &entry)
	assert.Equal(t, "Clean Code", entry.Title)
	assert.Equal(t, 5, entry.TotalStock)

	rec = f.do(t, nethttp.MethodGet, "/api/v1/search/by-isbn/missing", nil)
	assert.Equal(t, nethttp.StatusNotFound, rec.Code)
}

func TestSellersEndpoint(t *testing.T) {
	f := setup(t)
	f.seedBook(t, "isbn-1", "Clean Code", 1099, 5)

	rec := f.do(t, nethttp.MethodGet, "/api/v1/search/sellers/isbn-1", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var sellers []domain.SellerOffer
	decodeData(t, rec, &sellers)
	require.Len(t, sellers, 1)
	assert.Equal(t, "s1", sellers[0].SellerID)
}

func TestStatsEndpoint(t *testing.T) {
	f := setup(t)
	f.seedBook(t, "isbn-1", "Clean Code", 1099, 5)
	f.seedBook(t, "isbn-2", "Gone Book", 900, 0)

	rec := f.do(t, nethttp.MethodGet, "/api/v1/search/stats", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var stats domain.CatalogStats
	decodeData(t, rec, &stats)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.AvailableEntries)
}

func TestIndexEndpoint(t *testing.T) {
	f := setup(t)

	rec := f.do(t, nethttp.MethodPost, "/api/v1/search/index", IndexEntryRequest{
		ISBN:   "isbn-1",
		Title:  "Clean Code",
		Rating: 4.7,
	})
	require.Equal(t, nethttp.StatusCreated, rec.Code)

	entry, err := f.catalog.GetByISBN(context.Background(), "isbn-1")
	require.NoError(t, err)
	assert.Equal(t, "Clean Code", entry.Title)
}

func TestIndexEndpoint_ValidationFailure(t *testing.T) {
	f := setup(t)

	rec := f.do(t, nethttp.MethodPost, "/api/v1/search/index", IndexEntryRequest{
		Title:  "No ISBN",
		Rating: 9.9,
	})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestIndexEndpoint_MalformedBody(t *testing.T) {
	f := setup(t)

	req := httptest.NewRequest(nethttp.MethodPost, "/api/v1/search/index", bytes.NewReader([]byte("{{")))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestBulkEndpoint(t *testing.T) {
	f := setup(t)

	rec := f.do(t, nethttp.MethodPost, "/api/v1/search/bulk", BulkIndexRequest{
		Entries: []IndexEntryRequest{
			{ISBN: "isbn-1", Title: "Alpha"},
			{ISBN: "isbn-2", Title: "Beta"},
		},
	})
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var result map[string]int
	decodeData(t, rec, &result)
	assert.Equal(t, 2, result["indexed"])
}

func TestBulkEndpoint_EmptyRejected(t *testing.T) {
	f := setup(t)

	rec := f.do(t, nethttp.MethodPost, "/api/v1/search/bulk", BulkIndexRequest{})
	assert.Equal(t, nethttp.StatusBadRequest, rec.Code)
}

func TestReindexEndpoint(t *testing.T) {
	f := setup(t)
	f.seedBook(t, "isbn-1", "Clean Code", 1099, 5)

	rec := f.do(t, nethttp.MethodPost, "/api/v1/search/reindex", nil)
	assert.Equal(t, nethttp.StatusAccepted, rec.Code)
}

func TestHealthEndpoints(t *testing.T) {
	f := setup(t)

	rec := f.do(t, nethttp.MethodGet, "/health/live", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec = f.do(t, nethttp.MethodGet, "/health/ready", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := setup(t)

	rec := f.do(t, nethttp.MethodGet, "/metrics", nil)
	assert.Equal(t, nethttp.StatusOK, rec.Code)
}

func TestCorrelationIDHeader(t *testing.T) {
	f := setup(t)
	f.seedBook(t, "isbn-1", "Clean Code", 1099, 5)

	rec := f.do(t, nethttp.MethodGet, "/api/v1/search/by-isbn/isbn-1", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}

func TestPaginationQueryParams(t *testing.T) {
	f := setup(t)
	for i := 1; i <= 3; i++ {
		f.seedBook(t, fmt.Sprintf("isbn-%d", i), fmt.Sprintf("Book %d", i), int64(1000*i), 1)
	}

	rec := f.do(t, nethttp.MethodGet, "/api/v1/search/available?sortBy=price&sortOrder=asc&page=2&pageSize=1", nil)
	require.Equal(t, nethttp.StatusOK, rec.Code)

	var result struct {
		Data       []domain.ResultRow `json:"data"`
		Page       int                `json:"page"`
		TotalCount int                `json:"totalCount"`
	}
	decodeData(t, rec, &result)
	assert.Equal(t, 2, result.Page)
	assert.Equal(t, 3, result.TotalCount)
	require.Len(t, result.Data, 1)
	assert.Equal(t, "isbn-2", result.Data[0].ISBN)
}
