// Package app wires the catalog service together and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	nethttp "net/http"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/has99an/gtl-marketplace-search/pkg/database"
	"github.com/has99an/gtl-marketplace-search/pkg/health"
	"github.com/has99an/gtl-marketplace-search/pkg/kafka"

	"github.com/has99an/gtl-marketplace-search/internal/aggregate"
	"github.com/has99an/gtl-marketplace-search/internal/cache"
	"github.com/has99an/gtl-marketplace-search/internal/config"
	"github.com/has99an/gtl-marketplace-search/internal/event"
	httphandler "github.com/has99an/gtl-marketplace-search/internal/handler/http"
	"github.com/has99an/gtl-marketplace-search/internal/index"
	"github.com/has99an/gtl-marketplace-search/internal/repository"
	"github.com/has99an/gtl-marketplace-search/internal/service"
	"github.com/has99an/gtl-marketplace-search/internal/store"
)

const shutdownTimeout = 10 * time.Second

// App holds the assembled catalog service.
type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	redis    *goredis.Client
	catalog  *service.CatalogService
	builder  *index.Builder
	server   *nethttp.Server
	consumer *kafka.Consumer
	dlq      *kafka.DLQProducer
}

// New connects the dependencies and assembles the service.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	redisClient, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	adapter := store.NewRedisAdapter(redisClient)
	entries := repository.NewEntryRepository(adapter)
	offers := repository.NewOfferRepository(adapter)
	text := index.NewTextIndex(adapter)
	ranks := index.NewRankIndex(adapter)
	aggregator := aggregate.NewAggregator(entries, offers, ranks, logger)
	builder := index.NewBuilder(entries, text, ranks, logger)
	resultCache := cache.New(adapter, cfg.CacheTTL)

	catalog := service.NewCatalogService(entries, offers, text, ranks, aggregator, builder, resultCache, logger)

	healthHandler := health.NewHandler()
	healthHandler.Register("redis", adapter.Ping)

	app := &App{
		cfg:     cfg,
		logger:  logger,
		redis:   redisClient,
		catalog: catalog,
		builder: builder,
	}

	if cfg.KafkaEnabled {
		healthHandler.Register("kafka", func(ctx context.Context) error {
			return kafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
		app.dlq = kafka.NewDLQProducer(cfg.KafkaBrokers, logger)

		idempotency := kafka.NewRedisIdempotencyStore(redisClient, "ingest:seen:", cfg.IdempotencyTTL)
		handler := kafka.IdempotentHandler(
			idempotency,
			cfg.ConsumerGroup,
			event.NewHandler(catalog, logger).Handle,
			logger,
		)

		// One reader over every ingestion topic. Processing stays strictly
		// sequential, so catalog and stock events for the same item never
		// race each other inside a process.
		app.consumer = kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.KafkaBrokers,
			GroupID: cfg.ConsumerGroup,
			Topics:  event.Topics(),
		}, handler, app.dlq, logger)
	}

	router := httphandler.NewRouter(httphandler.NewCatalogHandler(catalog, logger), healthHandler, logger)
	app.server = &nethttp.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return app, nil
}

// Run starts the consumers and the HTTP server and blocks until the context
// is canceled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if err := a.builder.BuildIfEmpty(ctx); err != nil {
		return fmt.Errorf("startup index build: %w", err)
	}

	var wg sync.WaitGroup
	if a.consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := a.consumer.Start(ctx); err != nil {
				a.logger.Error("consumer stopped with error", slog.String("error", err.Error()))
			}
		}()
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown failed", slog.String("error", err.Error()))
	}

	wg.Wait()

	if err := a.redis.Close(); err != nil {
		a.logger.Error("redis close failed", slog.String("error", err.Error()))
	}
	return nil
}
