package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nftpulse/market-indexer/internal/adapter"
	"github.com/nftpulse/market-indexer/internal/config"
	"github.com/nftpulse/market-indexer/internal/ingest"
	"github.com/nftpulse/market-indexer/internal/logger"
	"github.com/nftpulse/market-indexer/internal/normalizer"
	"github.com/nftpulse/market-indexer/internal/providers/rarify"
	"github.com/nftpulse/market-indexer/internal/ratelimit"
	"github.com/nftpulse/market-indexer/internal/store"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadIngestConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "ingest",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Starting market ingester")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Configure connection pool
	if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
		logger.Fatal("Failed to configure connection pool", zap.Error(err))
	}
	logger.Info("Connected to database",
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
	)

	// Initialize store
	dataStore := store.NewPGStore(db)

	// Initialize adapters
	httpClient := adapter.NewHTTPClient(cfg.Rarify.HTTPTimeout)
	jsonAdapter := adapter.NewJSON()
	clock := adapter.NewClock()

	// Initialize rate-limiting proxy for upstream calls
	rateLimitProxy, err := ratelimit.NewProxy(cfg.RateLimiter)
	if err != nil {
		logger.Fatal("Failed to create rate limit proxy", zap.Error(err))
	}
	defer func() {
		if err := rateLimitProxy.Close(); err != nil {
			logger.Error(err)
		}
	}()

	// Initialize upstream client and normalizer
	rarifyClient := rarify.NewClient(httpClient, rateLimitProxy, cfg.Rarify.BaseURL, cfg.Rarify.APIKey, jsonAdapter)
	norm := normalizer.New(clock, jsonAdapter)

	// Initialize sweeper
	sweeper := ingest.NewMarketSweeper(&cfg.Sweep, &cfg.Worker, rarifyClient, dataStore, norm, clock)

	logger.Info("Initialized market sweeper",
		zap.String("network", string(cfg.Sweep.Network)),
		zap.String("period", string(cfg.Sweep.Period)),
		zap.Int("max_collections", cfg.Sweep.MaxCollections),
		zap.Duration("interval", cfg.Sweep.Interval),
	)

	// Start the sweeper in a goroutine
	errChan := make(chan error, 1)
	doneChan := make(chan struct{})
	go func() {
		if err := sweeper.Start(ctx); err != nil {
			errChan <- err
			return
		}
		close(doneChan)
	}()

	// Wait for completion, interrupt signal, or error
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-doneChan:
		logger.Info("Sweep completed")
	case sig := <-sigCh:
		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		logger.Error(err)
	}

	// Cancel context to stop the sweeper
	cancel()

	// Give the sweeper time to shut down gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := sweeper.Stop(shutdownCtx); err != nil {
		logger.Error(err)
	}

	logger.Info("Ingester stopped")
}
