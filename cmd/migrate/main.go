package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/nftpulse/market-indexer/internal/config"
	"github.com/nftpulse/market-indexer/internal/domain"
	"github.com/nftpulse/market-indexer/internal/logger"
	"github.com/nftpulse/market-indexer/internal/store"
	"github.com/nftpulse/market-indexer/internal/store/schema"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadMigrateConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "migrate",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.Info("Running database migrations")

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("host", cfg.Database.Host))
	}

	// Migrate schema
	if err := store.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}
	logger.Info("Schema migrated")

	if !cfg.Seed {
		logger.Info("Seeding disabled, done")
		return
	}

	// Seed reference data
	dataStore := store.NewPGStore(db)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	networks := []schema.Network{
		{NetworkID: string(domain.NetworkEthereum), ShortName: "Ethereum"},
		{NetworkID: string(domain.NetworkPolygon), ShortName: "Polygon"},
	}
	if err := dataStore.SeedNetworks(ctx, networks); err != nil {
		logger.Fatal("Failed to seed networks", zap.Error(err))
	}

	sources := []schema.APISource{
		{APIID: domain.SourceRarify, Name: "Rarify", EndpointURL: "https://api.rarify.tech"},
	}
	if err := dataStore.SeedAPISources(ctx, sources); err != nil {
		logger.Fatal("Failed to seed API sources", zap.Error(err))
	}

	logger.Info("Reference data seeded",
		zap.Int("networks", len(networks)),
		zap.Int("api_sources", len(sources)),
	)
}
