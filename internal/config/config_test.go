package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftpulse/market-indexer/internal/domain"
)

func writeConfigFile(t *testing.T, contents string) string {
	tmpDir := t.TempDir()
	if contents == "" {
		return filepath.Join(tmpDir, "nonexistent.yaml")
	}
	configFile := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(contents), 0600))
	return configFile
}

func TestLoadIngestConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *IngestConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
database:
  host: localhost
  port: 5432
  user: testuser
  password: testpass
  dbname: testdb
  sslmode: require
rarify:
  api_key: "secret"
  base_url: "https://api.example.com"
  http_timeout: "15s"
rate_limiter:
  max_workers: 4
  max_queue_size: 64
  providers:
    rarify:
      requests_per_second: 5
      burst: 10
      max_queue_time: "30s"
worker:
  pool_size: 12
  queue_size: 512
sweep:
  network: ethereum
  period: all_time
  max_collections: 50
  fetch_tokens: false
  fetch_whales: true
  interval: "1h"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *IngestConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "localhost", cfg.Database.Host)
				assert.Equal(t, "testdb", cfg.Database.DBName)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "secret", cfg.Rarify.APIKey)
				assert.Equal(t, "https://api.example.com", cfg.Rarify.BaseURL)
				assert.Equal(t, 15*time.Second, cfg.Rarify.HTTPTimeout)
				assert.Equal(t, 4, cfg.RateLimiter.MaxWorkers)
				assert.Equal(t, 5.0, cfg.RateLimiter.Providers["rarify"].RequestsPerSecond)
				assert.Equal(t, 12, cfg.Worker.WorkerPoolSize)
				assert.Equal(t, 512, cfg.Worker.WorkerQueueSize)
				assert.Equal(t, domain.NetworkEthereum, cfg.Sweep.Network)
				assert.Equal(t, domain.PeriodAllTime, cfg.Sweep.Period)
				assert.Equal(t, 50, cfg.Sweep.MaxCollections)
				assert.False(t, cfg.Sweep.FetchTokens)
				assert.True(t, cfg.Sweep.FetchWhales)
				assert.Equal(t, time.Hour, cfg.Sweep.Interval)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  user: testuser
  password: testpass
  dbname: testdb
rarify:
  api_key: "secret"
`,
			expectError: false,
			validate: func(t *testing.T, cfg *IngestConfig) {
				// Check defaults
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, "https://api.rarify.tech", cfg.Rarify.BaseURL)
				assert.Equal(t, 30*time.Second, cfg.Rarify.HTTPTimeout)
				assert.Equal(t, 8, cfg.Worker.WorkerPoolSize)
				assert.Equal(t, domain.Period90d, cfg.Sweep.Period)
				assert.Equal(t, 100, cfg.Sweep.MaxCollections)
				assert.True(t, cfg.Sweep.FetchTokens)
				assert.False(t, cfg.Sweep.FetchWhales)
				assert.Equal(t, time.Duration(0), cfg.Sweep.Interval)
			},
		},
		{
			name: "missing database host",
			configFile: `
database:
  dbname: testdb
rarify:
  api_key: "secret"
`,
			expectError: true,
		},
		{
			name: "missing api key",
			configFile: `
database:
  host: localhost
  dbname: testdb
`,
			expectError: true,
		},
		{
			name: "unsupported period",
			configFile: `
database:
  host: localhost
  dbname: testdb
rarify:
  api_key: "secret"
sweep:
  period: "7d"
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadIngestConfig(writeConfigFile(t, tt.configFile), "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
server:
  host: 127.0.0.1
  port: 9090
  read_timeout: 20
database:
  host: localhost
  dbname: testdb
auth:
  api_keys:
    - key-one
    - key-two
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, 20, cfg.Server.ReadTimeout)
				assert.Equal(t, []string{"key-one", "key-two"}, cfg.Auth.APIKeys)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  dbname: testdb
`,
			expectError: false,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 120, cfg.Server.IdleTimeout)
				assert.Empty(t, cfg.Auth.APIKeys)
			},
		},
		{
			name:        "missing database",
			configFile:  `debug: true`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadAPIConfig(writeConfigFile(t, tt.configFile), "")

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestLoadMigrateConfig(t *testing.T) {
	cfg, err := LoadMigrateConfig(writeConfigFile(t, `
database:
  host: localhost
  dbname: testdb
seed: false
`), "")
	require.NoError(t, err)
	assert.False(t, cfg.Seed)

	cfg, err = LoadMigrateConfig(writeConfigFile(t, `
database:
  host: localhost
  dbname: testdb
`), "")
	require.NoError(t, err)
	assert.True(t, cfg.Seed, "seeding defaults to on")
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "svc",
		Password: "secret",
		DBName:   "market",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()
	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "port=5433")
	assert.Contains(t, dsn, "user=svc")
	assert.Contains(t, dsn, "password=secret")
	assert.Contains(t, dsn, "dbname=market")
	assert.Contains(t, dsn, "sslmode=require")
}
