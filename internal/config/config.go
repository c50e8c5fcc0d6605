// Package config defines cpcompare's process configuration.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendDisk   = "disk"
	BackendRedis  = "redis"
)

// Config contains process configuration.
//
//nolint:govet // fieldalignment: grouped by concern
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// AllowedOrigins lists CORS origins for the browser frontend.
	AllowedOrigins []string `koanf:"allowed_origins"`

	// HTTPCacheDir holds cached upstream responses. Empty uses the user cache dir.
	HTTPCacheDir string        `koanf:"http_cache_dir"`
	HTTPCacheTTL time.Duration `koanf:"http_cache_ttl"`
	NoHTTPCache  bool          `koanf:"no_http_cache"`

	// HTTPCacheNegativeTTL is how long 4xx upstream answers are remembered.
	// Zero disables caching them.
	HTTPCacheNegativeTTL time.Duration `koanf:"http_cache_negative_ttl"`

	// ProfileCacheTTL is how long normalized profiles are reused. Zero disables it.
	ProfileCacheTTL time.Duration `koanf:"profile_cache_ttl"`

	// FetchTimeout bounds each platform fetch.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// RateLimitPerMinute caps API requests per caller address. Zero disables limiting.
	RateLimitPerMinute int `koanf:"rate_limit_per_minute"`

	// TrustProxyHeaders takes the caller address from X-Forwarded-For.
	TrustProxyHeaders bool `koanf:"trust_proxy_headers"`

	// SessionBackend selects where saved pairs live: memory, disk or redis.
	SessionBackend   string        `koanf:"session_backend"`
	SessionDir       string        `koanf:"session_dir"`
	SessionRetention time.Duration `koanf:"session_retention"`

	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":8080",
		AllowedOrigins:       []string{"http://localhost:5173"},
		HTTPCacheTTL:         5 * time.Minute,
		HTTPCacheNegativeTTL: time.Minute,
		ProfileCacheTTL:      5 * time.Minute,
		FetchTimeout:         30 * time.Second,
		RateLimitPerMinute:   100,
		SessionBackend:       BackendMemory,
		SessionRetention:     90 * 24 * time.Hour,
		RedisAddr:            "localhost:6379",
	}
}

// SessionPath returns the disk session directory, defaulting under the
// user cache directory.
func (c *Config) SessionPath() string {
	if c.SessionDir != "" {
		return c.SessionDir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "cpcompare", "sessions")
}
