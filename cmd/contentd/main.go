package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/cluster"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content/store"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/intel"
	searchcache "github.com/thetaroot/blog-luistravels-website-sub000/internal/search/cache"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/server"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/config"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/health"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/kafka"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/logger"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/metrics"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/postgres"
	pkgredis "github.com/thetaroot/blog-luistravels-website-sub000/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting content intelligence service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to content store", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()
	contentStore := store.NewPostgres(pgClient)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
		shutdownMetrics := metrics.StartServer(cfg.Metrics.Port)
		defer shutdownMetrics(context.Background())
	}

	var queryCache *searchcache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = searchcache.New(redisClient, cfg.Redis)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
	defer producer.Close()

	engine := index.NewEngine(index.BuildOptions{
		KeywordsPerDocument: cfg.Cluster.KeywordsPerDocument,
	})
	clusterer := cluster.NewEngine(cluster.Options{
		SimilarityThreshold: cfg.Cluster.SimilarityThreshold,
	})
	service := intel.New(contentStore, engine, clusterer, intel.Options{
		Cache:    queryCache,
		Producer: producer,
		Metrics:  m,
	})

	if err := service.Rebuild(ctx); err != nil {
		slog.Error("initial index build failed", "error", err)
		os.Exit(1)
	}

	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.ContentUpdated,
		func(ctx context.Context, key, value []byte) error {
			slog.Info("content update received, rebuilding", "key", string(key))
			return service.Rebuild(ctx)
		})
	go func() {
		if err := consumer.Start(ctx); err != nil {
			slog.Error("content-updated consumer stopped", "error", err)
		}
	}()

	checker := health.NewChecker()
	checker.Register("content_store", func(ctx context.Context) health.ComponentHealth {
		if err := pgClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDown, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	checker.Register("index_engine", func(ctx context.Context) health.ComponentHealth {
		if !service.Ready() {
			return health.ComponentHealth{Status: health.StatusDown, Message: "no index published"}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})
	if redisClient != nil {
		checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
			if err := redisClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	handler := server.New(service, cfg.Search.DefaultLimit, cfg.Search.MaxResults)
	router := server.NewRouter(handler, checker, m, cfg.Server.RequestTimeout)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		slog.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
}
