// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Upload  UploadConfig
	Rate    RateLimitConfig
	Invoice InvoiceConfig
	Backup  BackupConfig
	Logging LoggingConfig

	// ProfilePath points at an optional TOML file with the issuer profile.
	ProfilePath string `env:"INVOICER_CONFIG"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 127.0.0.1, local only)
	Host string `env:"SERVER_HOST" default:"127.0.0.1"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 60s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects and configures the invoice store.
type StoreConfig struct {
	// Driver is one of sqlite, postgres, memory (default: sqlite)
	Driver string `env:"STORE_DRIVER" default:"sqlite"`

	// Path is the SQLite database file (default: data/invoices.db)
	Path string `env:"STORE_PATH" default:"data/invoices.db"`

	// DatabaseURL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig holds dataset upload settings.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed file size in bytes (default: 10MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"10485760"`

	// MaxConcurrent is the maximum number of parallel uploads (default: 4)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for an upload slot (default: 10s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"10s"`

	// DatasetTTL is how long an uploaded dataset stays available (default: 1h)
	DatasetTTL time.Duration `env:"UPLOAD_DATASET_TTL" default:"1h"`

	// MaxDatasets bounds the number of staged datasets (default: 32)
	MaxDatasets int `env:"UPLOAD_MAX_DATASETS" default:"32"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// InvoiceConfig holds invoice defaults and store query settings.
type InvoiceConfig struct {
	// HighValueThreshold is the total above which an invoice is high-value (default: 1000)
	HighValueThreshold float64 `env:"INVOICE_HIGH_VALUE_THRESHOLD" default:"1000"`

	// RecentDays is the trailing window of the recent filter (default: 30)
	RecentDays int `env:"INVOICE_RECENT_DAYS" default:"30"`

	// DefaultTaxRate pre-fills new invoice configurations (default: 0)
	DefaultTaxRate float64 `env:"INVOICE_DEFAULT_TAX_RATE" default:"0"`

	// PaymentTermsDays sets the default due date after the invoice date (default: 30)
	PaymentTermsDays int `env:"INVOICE_PAYMENT_TERMS_DAYS" default:"30"`
}

// BackupConfig holds scheduled backup settings.
type BackupConfig struct {
	// Dir enables scheduled backups when set
	Dir string `env:"BACKUP_DIR"`

	// Interval is how often to write a backup (default: 24h)
	Interval time.Duration `env:"BACKUP_INTERVAL" default:"24h"`

	// Keep is the number of backup files retained (default: 7)
	Keep int `env:"BACKUP_KEEP" default:"7"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// BackupsEnabled reports whether scheduled backups are configured.
func (c *BackupConfig) BackupsEnabled() bool {
	return c.Dir != ""
}
