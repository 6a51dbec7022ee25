// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables on top.
// - Validate reports errors wrapping ErrInvalidConfig.
package config

import (
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/okian/vigil/internal/domain/locale"
	"github.com/okian/vigil/internal/domain/model"
	"github.com/okian/vigil/pkg/logger"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Locale selects the language of descriptions and action summaries.
	Locale string `koanf:"locale"`

	// CatalogPath points to an optional YAML overlay of descriptions.
	CatalogPath string `koanf:"catalog_path"`

	// CombineScores enables the weighted combined score.
	CombineScores  bool    `koanf:"combine_scores"`
	StatMultiplier float64 `koanf:"stat_multiplier"`
	MLMultiplier   float64 `koanf:"ml_multiplier"`

	// Parallelism bounds rows evaluated at once by synchronous batches.
	Parallelism int `koanf:"parallelism"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of queue workers. Zero selects a CPU multiple.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the in-memory store.
	ShardCount int `koanf:"shard_count"`

	// ModelURLs lists the three model servers used to fill missing
	// predictions. ModelColumns reads them from input columns instead.
	ModelURLs      []string `koanf:"model_urls"`
	ModelColumns   []string `koanf:"model_columns"`
	ModelTimeoutMS int      `koanf:"model_timeout_ms"`

	// Redis pub/sub transport; disabled when RedisAddr is empty.
	RedisAddr          string `koanf:"redis_addr"`
	RedisPassword      string `koanf:"redis_password"`
	RedisDB            int    `koanf:"redis_db"`
	RedisInputChannel  string `koanf:"redis_input_channel"`
	RedisResultChannel string `koanf:"redis_result_channel"`

	// PostgresDSN selects the Postgres store instead of the in-memory one.
	PostgresDSN   string `koanf:"postgres_dsn"`
	PostgresTable string `koanf:"postgres_table"`

	// Blob storage for vigilctl inputs and outputs.
	BlobConnectionString string `koanf:"blob_connection_string"`
	BlobContainer        string `koanf:"blob_container"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          logger.FormatText,
		Addr:               ":9080",
		Locale:             locale.DefaultLocale,
		StatMultiplier:     1,
		MLMultiplier:       1,
		Parallelism:        runtime.NumCPU(),
		QueueSize:          100_000,
		WorkerCount:        runtime.NumCPU() * 4,
		DedupeSize:         500_000,
		ShardCount:         16,
		ModelTimeoutMS:     30_000,
		RedisInputChannel:  "vigil:rows",
		RedisResultChannel: "vigil:results",
		PostgresTable:      "row_results",
	}
}

// ModelTimeout returns the per-request model server timeout.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.ModelTimeoutMS) * time.Millisecond
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Validate checks field domains.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LogFormat != logger.FormatText && c.LogFormat != logger.FormatJSON:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	case !finite(c.StatMultiplier) || !finite(c.MLMultiplier):
		return fmt.Errorf("%w: multipliers must be finite", ErrInvalidConfig)
	case c.WorkerCount < 0:
		return fmt.Errorf("%w: worker_count must not be negative", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.Parallelism < 0:
		return fmt.Errorf("%w: parallelism must not be negative", ErrInvalidConfig)
	case len(c.ModelURLs) > 0 && len(c.ModelColumns) > 0:
		return fmt.Errorf("%w: set model_urls or model_columns, not both", ErrInvalidConfig)
	case len(c.ModelURLs) > 0 && len(c.ModelURLs) != model.ModelCount:
		return fmt.Errorf("%w: model_urls needs %d entries, got %d", ErrInvalidConfig, model.ModelCount, len(c.ModelURLs))
	case len(c.ModelColumns) > 0 && len(c.ModelColumns) != model.ModelCount:
		return fmt.Errorf("%w: model_columns needs %d entries, got %d", ErrInvalidConfig, model.ModelCount, len(c.ModelColumns))
	}
	if _, err := locale.Canonical(c.Locale); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
