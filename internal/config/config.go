package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/nftpulse/market-indexer/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// RarifyConfig holds configuration for the Rarify collection source
type RarifyConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
}

// RateLimitConfig holds rate-limit settings for a single upstream provider
type RateLimitConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxQueueTime      time.Duration `mapstructure:"max_queue_time"`
}

// RateLimiterConfig holds configuration for the rate-limiting proxy
type RateLimiterConfig struct {
	MaxWorkers   int                        `mapstructure:"max_workers"`
	MaxQueueSize int                        `mapstructure:"max_queue_size"`
	Providers    map[string]RateLimitConfig `mapstructure:"providers"`
}

// WorkerConfig holds worker pool configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// SweepConfig holds ingestion sweep configuration
type SweepConfig struct {
	Network         domain.NetworkID `mapstructure:"network"`
	Period          domain.Period    `mapstructure:"period"`
	MaxCollections  int              `mapstructure:"max_collections"`
	FetchTokens     bool             `mapstructure:"fetch_tokens"`
	FetchAttributes bool             `mapstructure:"fetch_attributes"`
	FetchWhales     bool             `mapstructure:"fetch_whales"`
	Interval        time.Duration    `mapstructure:"interval"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// IngestConfig holds configuration for the ingest binary
type IngestConfig struct {
	BaseConfig  `mapstructure:",squash"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Rarify      RarifyConfig      `mapstructure:"rarify"`
	RateLimiter RateLimiterConfig `mapstructure:"rate_limiter"`
	Worker      WorkerConfig      `mapstructure:"worker"`
	Sweep       SweepConfig       `mapstructure:"sweep"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Auth       AuthConfig     `mapstructure:"auth"`
}

// MigrateConfig holds configuration for the migrate binary
type MigrateConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Seed       bool           `mapstructure:"seed"`
}

// LoadIngestConfig loads configuration for the ingest binary
func LoadIngestConfig(configFile string, envPath string) (*IngestConfig, error) {
	v := configureViper("ingest", configFile, envPath)

	// Set defaults
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("rarify.base_url", "https://api.rarify.tech")
	v.SetDefault("rarify.http_timeout", "30s")
	v.SetDefault("rate_limiter.max_workers", 8)
	v.SetDefault("rate_limiter.max_queue_size", 256)
	v.SetDefault("worker.pool_size", 8)
	v.SetDefault("worker.queue_size", 256)
	v.SetDefault("sweep.network", "ethereum")
	v.SetDefault("sweep.period", "90d")
	v.SetDefault("sweep.max_collections", 100)
	v.SetDefault("sweep.fetch_tokens", true)
	v.SetDefault("sweep.fetch_attributes", true)
	v.SetDefault("sweep.fetch_whales", false)
	v.SetDefault("sweep.interval", "0s") // 0 = single sweep

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var cfg IngestConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}
	if cfg.Rarify.APIKey == "" {
		return nil, errors.New("rarify.api_key is required")
	}
	if !domain.IsValidPeriod(cfg.Sweep.Period) {
		return nil, fmt.Errorf("unsupported sweep.period %q", cfg.Sweep.Period)
	}

	return &cfg, nil
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}

	return &cfg, nil
}

// LoadMigrateConfig loads configuration for the migrate binary
func LoadMigrateConfig(configFile string, envPath string) (*MigrateConfig, error) {
	v := configureViper("migrate", configFile, envPath)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("seed", true)

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var cfg MigrateConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Database.Host == "" {
		return nil, errors.New("database.host is required")
	}
	if cfg.Database.DBName == "" {
		return nil, errors.New("database.dbname is required")
	}

	return &cfg, nil
}

// readInConfig reads the config file, tolerating a missing file so the
// environment alone can configure a binary
func readInConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/ingest/, cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("NFTPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	commonKeys := []string{
		"debug",
		"sentry_dsn",
		"seed",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Rarify
		"rarify.base_url",
		"rarify.api_key",
		"rarify.http_timeout",
		// Rate limiter
		"rate_limiter.max_workers",
		"rate_limiter.max_queue_size",
		// Worker
		"worker.pool_size",
		"worker.queue_size",
		// Sweep
		"sweep.network",
		"sweep.period",
		"sweep.max_collections",
		"sweep.fetch_tokens",
		"sweep.fetch_attributes",
		"sweep.fetch_whales",
		"sweep.interval",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.api_keys",
	}

	for _, key := range commonKeys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
