package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vanshika/socialnet/internal/bootstrap"
	"github.com/vanshika/socialnet/internal/config"
	"github.com/vanshika/socialnet/internal/logging"
	"github.com/vanshika/socialnet/internal/metrics"
	"github.com/vanshika/socialnet/internal/server"
	"github.com/vanshika/socialnet/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)
	if err := run(logger, cfg); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := bootstrap.NewStore(ctx, logger, cfg)
	if err != nil {
		return fmt.Errorf("create %s store: %w", cfg.Store.Backend, err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	var (
		collector *metrics.Collector
		observer  service.AnalysisObserver
	)
	if cfg.HTTP.MetricsEnabled {
		collector = metrics.NewCollector()
		observer = collector
	}

	socialService, err := bootstrap.NewService(logger, cfg, store, observer)
	if err != nil {
		return fmt.Errorf("create social service: %w", err)
	}

	srv := server.New(logger, cfg.HTTP, server.NewRouter(logger, server.RouterDependencies{
		Health:           server.GraphHealthService{Client: store.Client},
		API:              server.NewAPIHandlers(logger, socialService),
		Metrics:          collector,
		AllowedOrigins:   server.ParseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return <-errCh
}
