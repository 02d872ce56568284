package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vanshika/socialnet/internal/bootstrap"
	"github.com/vanshika/socialnet/internal/config"
	"github.com/vanshika/socialnet/internal/dataset"
	"github.com/vanshika/socialnet/internal/logging"
	"github.com/vanshika/socialnet/internal/service"
)

func main() {
	var (
		datasetPath = flag.String("dataset", "./seed-data/dataset.json", "Path to a dataset file (.json, .yaml or .yml)")
		workers     = flag.Int("workers", 4, "Number of workers validating and hashing users; writes keep dataset order")
		report      = flag.Bool("report", false, "Print a community report after ingestion")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	ds, err := dataset.Load(*datasetPath)
	if err != nil {
		logger.Error("failed to load dataset", "error", err, "path", *datasetPath)
		os.Exit(1)
	}
	if len(ds.Users) == 0 {
		logger.Error("dataset has no users", "path", *datasetPath)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := bootstrap.NewStore(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create store", "error", err, "backend", cfg.Store.Backend)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	svc, err := bootstrap.NewService(logger, cfg, store, nil)
	if err != nil {
		logger.Error("failed to create social service", "error", err)
		os.Exit(1)
	}
	ingestor := service.NewBulkIngestor(svc, *workers)

	start := time.Now()
	logger.Info("ingesting users", "count", len(ds.Users), "workers", *workers)
	if err := ingestor.IngestUsers(ctx, ds.Users); err != nil {
		logger.Error("user ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingesting friendships", "count", len(ds.Friendships))
	if err := ingestor.IngestFriendships(ctx, ds.Friendships); err != nil {
		logger.Error("friendship ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete", "duration", time.Since(start).String(), "users", len(ds.Users), "friendships", len(ds.Friendships))

	if *report {
		rep, err := svc.Report(ctx)
		if err != nil {
			logger.Error("community report failed", "error", err)
			os.Exit(1)
		}
		logger.Info("community report", "communities", rep.Communities, "most_active_size", len(rep.MostActive))
	}
}
