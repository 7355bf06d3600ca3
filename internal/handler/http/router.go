package http

import (
	"log/slog"
	nethttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/has99an/gtl-marketplace-search/pkg/health"
	"github.com/has99an/gtl-marketplace-search/pkg/middleware"
)

// NewRouter assembles the HTTP routes and middleware stack for the catalog
// service.
func NewRouter(handler *CatalogHandler, healthHandler *health.Handler, logger *slog.Logger) nethttp.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("catalog-search"))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/search", func(r chi.Router) {
		r.Get("/", handler.Search)
		r.Get("/available", handler.Available)
		r.Get("/stats", handler.Stats)
		r.Get("/by-isbn/{isbn}", handler.ByISBN)
		r.Get("/sellers/{isbn}", handler.Sellers)

		r.Post("/index", handler.Index)
		r.Post("/bulk", handler.BulkIndex)
		r.Post("/reindex", handler.Reindex)
	})

	return r
}
