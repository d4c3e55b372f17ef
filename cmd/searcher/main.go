package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/changefeed"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/loader"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/textsearch/internal/searcher/handler"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/middleware"
	"github.com/Adithya-Monish-Kumar-K/textsearch/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/textsearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := run(cfg); err != nil {
		slog.Error("search service failed", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port, nil)
		defer shutdownMetrics(context.Background())
	}

	engineOpts := []indexer.Option{indexer.WithMetrics(m)}
	kafkaEnabled := len(cfg.Kafka.Brokers) > 0
	if cfg.ChangeFeed.Enabled && kafkaEnabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexChanges)
		defer producer.Close()
		feed := changefeed.New(producer, changefeed.Config{
			BufferSize:    cfg.ChangeFeed.BufferSize,
			BatchSize:     cfg.ChangeFeed.BatchSize,
			FlushInterval: cfg.ChangeFeed.FlushInterval,
		}, m)
		engineOpts = append(engineOpts, indexer.WithListener(feed))
		g.Go(func() error { return feed.Run(gctx) })
		slog.Info("change feed enabled", "topic", cfg.Kafka.Topics.IndexChanges)
	}
	engine := indexer.NewEngine(engineOpts...)

	if err := seed(gctx, cfg, engine); err != nil {
		stop()
		_ = g.Wait()
		return err
	}

	var redisClient *pkgredis.Client
	var queryCache *cache.QueryCache
	if cfg.Search.CacheEnabled {
		var store cache.Store
		if cfg.Redis.Addr != "" {
			client, err := pkgredis.NewClient(ctx, cfg.Redis)
			if err != nil {
				slog.Warn("redis unavailable, shared cache tier disabled", "error", err)
			} else {
				redisClient = client
				defer redisClient.Close()
				store = redisClient
			}
		}
		c, err := cache.New(cache.Config{
			LocalSize: cfg.Search.LocalCacheSize,
			TTL:       cfg.Redis.CacheTTL,
		}, store, m)
		if err != nil {
			return fmt.Errorf("creating query cache: %w", err)
		}
		queryCache = c
		slog.Info("search cache enabled",
			"local_size", cfg.Search.LocalCacheSize,
			"shared", store != nil,
		)
	}

	if kafkaEnabled {
		ingest := consumer.New(kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.DocumentIngest, consumer.HandleMessage(engine, m)))
		g.Go(func() error { return ingest.Start(gctx) })
	}

	checker := health.NewChecker()
	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		stats := engine.Stats()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", stats.Documents, stats.Terms),
		}
	})
	if redisClient != nil {
		checker.Register("redis", health.Ping(redisClient.Ping, false))
	}
	if kafkaEnabled {
		checker.Register("kafka", health.Ping(func(ctx context.Context) error {
			return kafka.Ping(ctx, cfg.Kafka.Brokers)
		}, false))
	}

	opts := []handler.Option{handler.WithMetrics(m), handler.WithMaxBodyBytes(cfg.Server.MaxBodyBytes)}
	if queryCache != nil {
		opts = append(opts, handler.WithCache(queryCache))
	}
	mux := http.NewServeMux()
	handler.New(engine, opts...).Register(mux)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	server := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: middleware.Chain(mux,
			middleware.RequestID,
			middleware.Metrics(m),
			middleware.Timeout(cfg.Server.WriteTimeout),
		),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	g.Go(func() error {
		slog.Info("search service listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// seed loads the configured file and PostgreSQL sources, in that order.
func seed(ctx context.Context, cfg *config.Config, engine *indexer.Engine) error {
	var sources []loader.Source
	if cfg.Seed.File != "" {
		sources = append(sources, loader.FileSource{Path: cfg.Seed.File})
	}
	if cfg.Seed.PostgresQuery != "" {
		db, err := postgres.New(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("connecting to seed database: %w", err)
		}
		defer db.Close()
		sources = append(sources, loader.PostgresSource{Client: db, Query: cfg.Seed.PostgresQuery})
	}
	if len(sources) == 0 {
		return nil
	}
	results, err := loader.Load(ctx, engine, sources...)
	if err != nil {
		return err
	}
	for _, r := range results {
		slog.Info("seed loaded", "source", r.Source, "documents", r.Count, "first_id", r.First)
	}
	return nil
}
