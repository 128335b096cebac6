// Package config provides centralized configuration management for the ETL.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"errors"
	"time"
)

// ErrNoDatabase is returned by RequireDatabase when no connection string is set.
var ErrNoDatabase = errors.New("DATABASE_URL is required for this command")

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig
	Tracing  TracingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	// Only commands that touch the store need it; see RequireDatabase.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 4)
	MaxConns int `env:"DB_MAX_CONNS" default:"4"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// PipelineConfig holds spreadsheet ETL settings.
type PipelineConfig struct {
	// MaxFileSize is the maximum accepted workbook size in bytes (default: 50MB)
	MaxFileSize int64 `env:"PIPELINE_MAX_FILE_SIZE" default:"52428800"`

	// Timeout bounds a single pipeline run end to end (default: 10m)
	Timeout time.Duration `env:"PIPELINE_TIMEOUT" default:"10m"`

	// MaxConcurrent is the number of runs allowed at once (default: 1)
	MaxConcurrent int `env:"PIPELINE_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long a run waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"PIPELINE_MAX_WAIT_TIME" default:"30s"`

	// LookupsFile is an optional YAML file overriding the hours/aims/column tables
	LookupsFile string `env:"PIPELINE_LOOKUPS_FILE"`

	// MigrateOnStart applies pending schema migrations before loading (default: true)
	MigrateOnStart bool `env:"PIPELINE_MIGRATE_ON_START" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// TracingConfig holds OpenTelemetry trace export settings.
type TracingConfig struct {
	// Enabled turns on span export (default: false)
	Enabled bool `env:"OTEL_ENABLED" default:"false"`

	// Endpoint is the OTLP/HTTP collector host:port; empty exports to stderr
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	// Insecure disables TLS towards the collector (default: false)
	Insecure bool `env:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`

	// SampleRatio is the fraction of runs traced (default: 1)
	SampleRatio float64 `env:"OTEL_SAMPLER_RATIO" default:"1"`

	// ServiceName is reported as service.name (default: survey-etl)
	ServiceName string `env:"OTEL_SERVICE_NAME" default:"survey-etl"`
}

// RequireDatabase reports ErrNoDatabase when the connection string is empty.
func (c *DatabaseConfig) RequireDatabase() error {
	if c.URL == "" {
		return ErrNoDatabase
	}
	return nil
}
