package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL     string        `env:"DATABASE_URL"`
	StorageBackend  string        `env:"STORAGE_BACKEND" envDefault:"postgres"`
	MigrateDatabase bool          `env:"DATABASE_MIGRATE" envDefault:"false"`
	VendorsFile     string        `env:"VENDORS_FILE" envDefault:"vendors.yaml"`
	HTTPTimeout     time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
	BatchSize       int           `env:"BATCH_SIZE" envDefault:"50"`
	Concurrency     int           `env:"BATCH_CONCURRENCY" envDefault:"0"`
	Workers         int           `env:"WORKERS" envDefault:"8"`
	ParallelVendors int           `env:"PARALLEL_VENDORS" envDefault:"2"`
	MatchCacheTTL   time.Duration `env:"MATCH_CACHE_TTL" envDefault:"5m"`
	StaleRunAfter   time.Duration `env:"STALE_RUN_AFTER" envDefault:"6h"`
	DownloadDir     string        `env:"DOWNLOAD_DIR" envDefault:"/tmp/vendor-feeds"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	// RunVendor, when set, reconciles vendor (or "all") once and exits without consuming commands.
	RunVendor string `env:"RUN_VENDOR"`

	Retry    Retry
	RabbitMQ RabbitMQ
}

// Retry holds default retry policy of vendor transports.
type Retry struct {
	MaxAttempts int           `env:"RETRY_MAX_ATTEMPTS" envDefault:"3"`
	Backoff     time.Duration `env:"RETRY_BACKOFF" envDefault:"1s"`
}

// RabbitMQ holds RabbitMQ configuration.
type RabbitMQ struct {
	URL               string `env:"RABBITMQ_URL"`
	Exchange          string `env:"RABBITMQ_EXCHANGE" envDefault:"vfr-ex"`
	Queue             string `env:"RABBITMQ_QUEUE" envDefault:"vendor-feed-reconciler.commands"`
	CommandRoutingKey string `env:"RABBITMQ_COMMAND_ROUTING_KEY" envDefault:"vendor-feed-reconciler.commands"`
	SummaryRoutingKey string `env:"RABBITMQ_SUMMARY_ROUTING_KEY" envDefault:"vendor-feed-reconciler.runs"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("can't parse env variables: %w", err)
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	var errs []error

	if c.StorageBackend != "memory" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required by postgres storage"))
	}

	if c.RunVendor == "" && c.RabbitMQ.URL == "" {
		errs = append(errs, errors.New("RABBITMQ_URL is required unless RUN_VENDOR is set"))
	}

	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("BATCH_SIZE must be positive, got %d", c.BatchSize))
	}

	return errors.Join(errs...)
}
