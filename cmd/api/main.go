package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/billprepared/backend/internal/api"
	"github.com/billprepared/backend/internal/application/service"
	"github.com/billprepared/backend/internal/infrastructure/config"
	"github.com/billprepared/backend/internal/infrastructure/logging"
	"github.com/billprepared/backend/internal/infrastructure/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	verbose := flag.Bool("verbose", false, "Verbose output")
	flag.Parse()

	cfg := config.LoadOrEnvWithPath(*configPath)

	loggingCfg := cfg.Observability.Logging
	if *verbose {
		loggingCfg.Level = "debug"
	}
	logger := logging.NewLoggerWithSystem(loggingCfg, "api")

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Initialize storage
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Wire services
	settings := service.NewSettingsService(store, logger)
	if err := settings.SeedDefaults(); err != nil {
		return err
	}
	ledger := service.NewLedgerService(store, settings, logger)
	imports := service.NewImportService(store, settings, logger)

	apiCfg := api.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.CORSOrigins,
	}
	server := api.NewServer(apiCfg, ledger, settings, imports, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
