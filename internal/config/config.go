package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database"  validate:"required"`
	Selection SelectionConfig `mapstructure:"selection" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`

	// RateLimitRPS and RateLimitBurst bound the deal and query endpoints per client.
	// A zero RPS disables the limiter.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"   validate:"gte=0"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" validate:"gte=0"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig selects the storage backend and sizes its connection pool.
type DatabaseConfig struct {
	Driver string `mapstructure:"driver" validate:"required,oneof=postgres sqlite"`
	URL    string `mapstructure:"url"    validate:"omitempty,url"`
	Path   string `mapstructure:"path"`

	MaxOpenConns int `mapstructure:"max_open_conns" validate:"gte=1"`
	MaxIdleConns int `mapstructure:"max_idle_conns" validate:"gte=0"`
}

// Selection strategies.
const (
	StrategyStream   = "stream"
	StrategyPushdown = "pushdown"
)

// SelectionConfig controls how tag matching is executed.
type SelectionConfig struct {
	// Strategy "stream" compares tags in process; "pushdown" evaluates the
	// predicate in SQL on whichever driver is configured.
	Strategy string `mapstructure:"strategy" validate:"required,oneof=stream pushdown"`

	// ValidityCacheTTL bounds how long a computed is_valid flag is reused.
	// Zero disables caching.
	ValidityCacheTTL time.Duration `mapstructure:"validity_cache_ttl" validate:"gte=0"`

	// ValidityWorkers bounds concurrent validity checks when listing filters.
	ValidityWorkers int `mapstructure:"validity_workers" validate:"gte=1"`
}
