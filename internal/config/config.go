// Package config provides centralized configuration management for the
// dashboard server. It loads configuration from environment variables with
// sensible defaults and validates all settings on startup to fail fast on
// misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Grid     GridConfig
	Fetch    FetchConfig
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

	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"60s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds graceful shutdown, including waiting for
	// in-flight page fetches (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required)
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"20"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"4"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// EnsureSchema creates missing dashboard tables on startup (default: true)
	EnsureSchema bool `env:"DB_ENSURE_SCHEMA" default:"true"`
}

// GridConfig holds data grid defaults and session housekeeping.
type GridConfig struct {
	// DefaultPageSize applies to tables without their own (default: 25)
	DefaultPageSize int `env:"GRID_DEFAULT_PAGE_SIZE" default:"25"`

	// PageSizeOptions are the selectable page sizes (default: 10,25,50,100)
	PageSizeOptions []int `env:"GRID_PAGE_SIZE_OPTIONS" default:"10,25,50,100"`

	// FilterDebounce delays server-side refetches while the user types
	// (default: 300ms). A negative value disables the delay.
	FilterDebounce time.Duration `env:"GRID_FILTER_DEBOUNCE" default:"300ms"`

	// SessionIdleTimeout closes grid sessions nobody used for this long (default: 30m)
	SessionIdleTimeout time.Duration `env:"GRID_SESSION_IDLE_TIMEOUT" default:"30m"`

	// SweepInterval is how often idle sessions are checked (default: 1m)
	SweepInterval time.Duration `env:"GRID_SWEEP_INTERVAL" default:"1m"`

	// MaxSessions caps open grid sessions; 0 is unlimited (default: 500)
	MaxSessions int `env:"GRID_MAX_SESSIONS" default:"500"`

	// PresetsFile is a YAML file of per-table grid presets (optional)
	PresetsFile string `env:"GRID_PRESETS_FILE"`

	// ExportDir receives files from the "export selected" batch action (optional)
	ExportDir string `env:"GRID_EXPORT_DIR"`

	// SkipCounts pages server-side tables without COUNT(*) (default: false)
	SkipCounts bool `env:"GRID_SKIP_COUNTS" default:"false"`
}

// FetchConfig bounds server-side page queries.
type FetchConfig struct {
	// MaxConcurrent is the maximum number of parallel page queries (default: 8)
	MaxConcurrent int `env:"FETCH_MAX_CONCURRENT" default:"8"`

	// MaxWaitTime is how long a fetch waits for a slot (default: 5s)
	MaxWaitTime time.Duration `env:"FETCH_MAX_WAIT_TIME" default:"5s"`

	// Timeout bounds a single page query (default: 15s)
	Timeout time.Duration `env:"FETCH_TIMEOUT" default:"15s"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// ExportLimit is requests per minute for export endpoints (default: 10)
	ExportLimit int `env:"RATE_LIMIT_EXPORT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey guards the JSON API with X-API-Key (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`
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
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
