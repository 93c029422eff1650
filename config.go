// Package pgaccess is a database access core combining an injection-safe
// SQL builder for PostgreSQL, a pooled query executor with per-operation
// result normalization, and a read-through/write-invalidate cache layer
// guarded by a circuit breaker (spec §1).
//
// Config/DefaultConfig/Validate are modeled directly on
// cache.Config/cache.DefaultConfig/(Config).Validate: a plain struct with a
// constructor for sane defaults and a Validate method returning a typed
// field/message error, generalized from that package's single sturdyc
// in-process cache config to the DSN/pool/store/breaker/TTL fields spec §6
// names for this module's external-store cache layer.
package pgaccess

import "time"

// Config is the top-level configuration surface for one registry entry
// (spec §6).
type Config struct {
	DSN    string
	Schema string

	MaxConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	ConnectTimeout  time.Duration

	DefaultTTL              time.Duration
	MaxTTL                  time.Duration
	KeyPrefix               string
	MaxRetries              int
	RetryDelay              time.Duration
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration

	FieldCacheShards int
}

// DefaultConfig returns a Config populated with spec §6's defaults.
func DefaultConfig() Config {
	return Config{
		MaxConns:                10,
		MaxConnLifetime:         time.Hour,
		MaxConnIdleTime:         30 * time.Minute,
		ConnectTimeout:          5 * time.Second,
		DefaultTTL:              300 * time.Second,
		MaxTTL:                  3600 * time.Second,
		KeyPrefix:               "pgcache:",
		MaxRetries:              3,
		RetryDelay:              100 * time.Millisecond,
		CircuitBreakerThreshold: 5,
		CircuitBreakerTimeout:   30 * time.Second,
		FieldCacheShards:        16,
	}
}

// ConfigError reports an invalid configuration field, matching the
// internal/cacheinfra.ConfigError{Field, Message} shape this module's
// teacher uses for its own config validation.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "pgaccess: config error in field " + e.Field + ": " + e.Message
}

// Validate checks c for internally-consistent, usable values.
func (c Config) Validate() error {
	if c.DSN == "" {
		return &ConfigError{Field: "DSN", Message: "must not be empty"}
	}
	if c.MaxConns <= 0 {
		return &ConfigError{Field: "MaxConns", Message: "must be greater than 0"}
	}
	if c.DefaultTTL <= 0 {
		return &ConfigError{Field: "DefaultTTL", Message: "must be greater than 0"}
	}
	if c.MaxTTL > 0 && c.MaxTTL < c.DefaultTTL {
		return &ConfigError{Field: "MaxTTL", Message: "must be zero or >= DefaultTTL"}
	}
	if c.KeyPrefix == "" {
		return &ConfigError{Field: "KeyPrefix", Message: "must not be empty"}
	}
	if c.MaxRetries < 0 {
		return &ConfigError{Field: "MaxRetries", Message: "must be non-negative"}
	}
	if c.CircuitBreakerThreshold <= 0 {
		return &ConfigError{Field: "CircuitBreakerThreshold", Message: "must be greater than 0"}
	}
	if c.CircuitBreakerTimeout <= 0 {
		return &ConfigError{Field: "CircuitBreakerTimeout", Message: "must be greater than 0"}
	}
	return nil
}
