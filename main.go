package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"healthrisk/classify"
	qhttp "healthrisk/http"
	"healthrisk/logging"
	"healthrisk/monitoring"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config
	config, err := loadConfig("config.yaml", os.Getenv)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(config.Log)
	defer logger.Sync()

	// 2. Prepare the model directory
	if err := os.MkdirAll(config.Models.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	inventory := classify.NewInventory(config.Models.Dir, logger)
	files, err := inventory.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan model directory: %w", err)
	}
	logger.Info("model directory ready",
		zap.String("dir", config.Models.Dir),
		zap.Strings("artifacts", files),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := inventory.Watch(ctx); err != nil {
		logger.Warn("artifact watcher disabled", zap.Error(err))
	}

	// 3. Wire the classification stack
	metrics := monitoring.NewMetrics()
	catalog := classify.DefaultCatalog()
	cache, err := classify.NewCache(catalog, classify.NewStore(config.Models.Dir, logger), logger, metrics)
	if err != nil {
		return err
	}
	targets, err := classify.NewTargetPredictor(config.Targets.CacheSize, logger)
	if err != nil {
		return err
	}
	handler := &qhttp.Handler{
		Catalog:    catalog,
		Cache:      cache,
		Dispatcher: classify.NewDispatcher(catalog, cache, logger, metrics),
		Targets:    targets,
		Inventory:  inventory,
		ModelDir:   config.Models.Dir,
		Logger:     logger,
		Metrics:    metrics,
	}

	// 4. Start HTTP server
	server := qhttp.NewServer(config.HTTP, handler, logger)
	errc := make(chan error, 1)
	go func() {
		errc <- server.Start()
	}()

	// 5. Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.Stringer("signal", sig))
	}

	if err := server.Stop(); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
	return nil
}
