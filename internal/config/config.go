// Package config provides centralized configuration management for the
// ingestion pipeline. It loads configuration from environment variables
// with sensible defaults and validates all settings on startup to fail
// fast on misconfiguration.
package config

import (
	"time"
)

// Config holds all pipeline configuration.
// All settings can be configured via environment variables.
type Config struct {
	Database DatabaseConfig
	Paths    PathsConfig
	Router   RouterConfig
	Logging  LoggingConfig
}

// DatabaseConfig holds record-store connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// ConnectTimeout bounds the initial connect and ping (default: 10s)
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT" default:"10s"`
}

// PathsConfig holds the durable directories the pipeline writes.
type PathsConfig struct {
	// UploadsDir is where raw uploads are persisted (default: portal_uploads)
	UploadsDir string `env:"PORTAL_UPLOADS_DIR" default:"portal_uploads"`

	// StagingDir is where staged review artifacts live (default: portal_staging)
	StagingDir string `env:"PORTAL_STAGING_DIR" default:"portal_staging"`

	// SchemaDir holds the TOML schema sources (default: schemas)
	SchemaDir string `env:"PORTAL_SCHEMA_DIR" default:"schemas"`
}

// RouterConfig holds the three independent persistence switches.
// Both persistence switches may be set together, or neither (dry run).
type RouterConfig struct {
	// AutoConfirm commits uploads directly to the record store (default: false)
	AutoConfirm bool `env:"ROUTER_AUTO_CONFIRM" default:"false"`

	// PersistStagingArtifact writes a durable review artifact (default: true)
	PersistStagingArtifact bool `env:"ROUTER_PERSIST_STAGING" default:"true"`

	// FullFieldOverwrite makes direct commits replace all stored fields
	// instead of changed-only (default: false)
	FullFieldOverwrite bool `env:"ROUTER_FULL_OVERWRITE" default:"false"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}
