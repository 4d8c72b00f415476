// Command reindex rebuilds the full content intelligence index once and
// exits. It is intended for cron jobs and deploy hooks where the long
// running service is not the right trigger.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thetaroot/blog-luistravels-website-sub000/internal/cluster"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/content/store"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/index"
	"github.com/thetaroot/blog-luistravels-website-sub000/internal/intel"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/config"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/kafka"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/logger"
	"github.com/thetaroot/blog-luistravels-website-sub000/pkg/postgres"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	timeout := flag.Duration("timeout", 5*time.Minute, "abort the rebuild after this long")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	pgClient, err := postgres.New(cfg.Postgres)
	if err != nil {
		slog.Error("failed to connect to content store", "error", err)
		os.Exit(1)
	}
	defer pgClient.Close()

	producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.IndexComplete)
	defer producer.Close()

	engine := index.NewEngine(index.BuildOptions{
		KeywordsPerDocument: cfg.Cluster.KeywordsPerDocument,
	})
	clusterer := cluster.NewEngine(cluster.Options{
		SimilarityThreshold: cfg.Cluster.SimilarityThreshold,
	})
	service := intel.New(store.NewPostgres(pgClient), engine, clusterer, intel.Options{
		Producer: producer,
	})

	start := time.Now()
	if err := service.Rebuild(ctx); err != nil {
		slog.Error("rebuild failed", "error", err)
		os.Exit(1)
	}

	snap, err := engine.Snapshot()
	if err != nil {
		slog.Error("no snapshot after rebuild", "error", err)
		os.Exit(1)
	}
	slog.Info("rebuild complete",
		"documents", snap.DocCount(),
		"vocabulary", len(snap.Vocabulary()),
		"duration", time.Since(start),
	)
}
