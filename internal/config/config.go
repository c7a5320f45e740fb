// Package config provides centralized configuration management for listcheck.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Backend  BackendConfig
	Upload   UploadConfig
	Batch    BatchConfig
	Results  ResultsConfig
	History  HistoryConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 0, exports stream)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 5m, batches are sequential)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"5m"`

	// WorkspaceIdleTTL drops per-client workspaces that have not been touched (default: 2h)
	WorkspaceIdleTTL time.Duration `env:"SERVER_WORKSPACE_IDLE_TTL" default:"2h"`
}

// BackendConfig holds settings for the remote job service.
type BackendConfig struct {
	// URL is the base URL of the job service API, including the /api prefix.
	// Supports NEXT_PUBLIC_API_URL for compatibility with the old front end.
	URL string `env:"BACKEND_URL" envAlt:"NEXT_PUBLIC_API_URL" default:"http://localhost:3009/api"`

	// Timeout bounds a single backend request (default: 60s)
	Timeout time.Duration `env:"BACKEND_TIMEOUT" default:"60s"`

	// UserAgent is sent on every backend request
	UserAgent string `env:"BACKEND_USER_AGENT" default:"listcheck/1.0"`
}

// UploadConfig holds file ingestion and submission settings.
type UploadConfig struct {
	// MaxFileSize is the maximum accepted file size in bytes (default: 100MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"104857600"`

	// PreviewRows is how many data rows the column picker samples (default: 5)
	PreviewRows int `env:"UPLOAD_PREVIEW_ROWS" default:"5"`

	// Background is forwarded to bulk-verify as the background flag (default: false)
	Background bool `env:"UPLOAD_BACKGROUND" default:"false"`

	// MaxConcurrent is the maximum number of in-flight bulk submissions (default: 5)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a submission waits for a slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// BatchConfig holds paste-lines batch runner settings.
type BatchConfig struct {
	// Workers is the number of single-item requests in flight (default: 1, strictly sequential)
	Workers int `env:"BATCH_WORKERS" default:"1"`

	// MaxLines caps the number of candidate lines per batch (default: 1000)
	MaxLines int `env:"BATCH_MAX_LINES" default:"1000"`
}

// ResultsConfig holds result paging settings.
type ResultsConfig struct {
	// PageSize is the page size requested from the job service (default: 20)
	PageSize int `env:"RESULTS_PAGE_SIZE" default:"20"`

	// LocalPageSize is the page size for locally held extraction results (default: 20)
	LocalPageSize int `env:"RESULTS_LOCAL_PAGE_SIZE" default:"20"`
}

// HistoryConfig holds job history ("recent lists") storage settings.
type HistoryConfig struct {
	// DatabaseURL is the PostgreSQL connection string. Empty keeps history in memory.
	DatabaseURL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// RetentionDays is how long history entries are kept (default: 90)
	RetentionDays int `env:"HISTORY_RETENTION_DAYS" default:"90"`

	// PurgeInterval is how often expired entries are removed (default: 24h)
	PurgeInterval time.Duration `env:"HISTORY_PURGE_INTERVAL" default:"24h"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// SubmitLimit is requests per minute for submission and batch endpoints (default: 10)
	SubmitLimit int `env:"RATE_LIMIT_SUBMIT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RequireAPIKey rejects /api requests without a valid X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// SecureCookies marks the workspace cookie Secure (default: false)
	SecureCookies bool `env:"SECURITY_SECURE_COOKIES" default:"false"`

	// TrustedProxies lists proxy CIDRs whose X-Real-IP / X-Forwarded-For
	// headers are believed. Empty trusts nobody.
	TrustedProxies []string `env:"SECURITY_TRUSTED_PROXIES"`
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
