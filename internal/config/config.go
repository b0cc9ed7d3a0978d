// Package config provides configuration management for the scholarview service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable override,
// e.g. SCHOLARVIEW_OPENALEX_EMAIL.
const EnvPrefix = "SCHOLARVIEW"

// DefaultContactEmail is sent as mailto when no contact is configured.
const DefaultContactEmail = "user@example.com"

// Config holds all configuration for the scholarview service.
type Config struct {
	// Server contains HTTP server settings.
	Server ServerConfig `mapstructure:"server"`
	// Logging contains structured logging settings.
	Logging LoggingConfig `mapstructure:"logging"`
	// Metrics contains Prometheus metrics exposure settings.
	Metrics MetricsConfig `mapstructure:"metrics"`
	// OpenAlex contains upstream API client settings.
	OpenAlex OpenAlexConfig `mapstructure:"openalex"`
	// Cache contains response cache settings.
	Cache CacheConfig `mapstructure:"cache"`
	// CORS contains cross-origin settings for the browser UI.
	CORS CORSConfig `mapstructure:"cors"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	// Host is the address to bind the server to (default: 0.0.0.0).
	Host string `mapstructure:"host"`
	// HTTPPort is the HTTP API port (default: 8080).
	HTTPPort int `mapstructure:"http_port"`
	// MetricsPort is the metrics server port (default: 9091).
	MetricsPort int `mapstructure:"metrics_port"`
	// ReadTimeout is the maximum duration for reading request body.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the maximum duration for writing response.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the log level (trace, debug, info, warn, error, fatal, panic).
	Level string `mapstructure:"level"`
	// Format is the log format (json, console).
	Format string `mapstructure:"format"`
	// Output is the log output destination (stdout, stderr, file path).
	Output string `mapstructure:"output"`
	// AddSource adds source file and line to log output.
	AddSource bool `mapstructure:"add_source"`
	// TimeFormat is the timestamp format.
	TimeFormat string `mapstructure:"time_format"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	// Enabled enables metrics collection and exposure.
	Enabled bool `mapstructure:"enabled"`
	// Path is the HTTP path for metrics endpoint.
	Path string `mapstructure:"path"`
}

// OpenAlexConfig holds the upstream API client configuration.
type OpenAlexConfig struct {
	// BaseURL is the API root (default: https://api.openalex.org).
	BaseURL string `mapstructure:"base_url"`
	// Email is the contact address sent as mailto on every request. It may
	// not be empty; the default is a placeholder that should be overridden.
	Email string `mapstructure:"email"`
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `mapstructure:"timeout"`
	// RateLimit is the request rate in requests per second.
	RateLimit float64 `mapstructure:"rate_limit"`
	// BurstSize is the rate limiter burst.
	BurstSize int `mapstructure:"burst_size"`
	// MaxRetries bounds transport retries of network errors, 429 and 5xx
	// responses. The default 0 surfaces every failure on the first attempt.
	MaxRetries int `mapstructure:"max_retries"`
	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration `mapstructure:"retry_delay"`
	// DefaultPerPage is the page size used when a request leaves it unset.
	DefaultPerPage int `mapstructure:"default_per_page"`
	// MaxPerPage is the largest page size forwarded upstream.
	MaxPerPage int `mapstructure:"max_per_page"`
}

// CacheConfig holds response cache configuration.
type CacheConfig struct {
	// TTL is the expiry window of cached responses (default: 10m).
	TTL time.Duration `mapstructure:"ttl"`
	// CoalesceInflight routes concurrent misses for one key through a single upstream call.
	CoalesceInflight bool `mapstructure:"coalesce_inflight"`
}

// CORSConfig holds CORS configuration.
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to call the API.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// HTTPAddress returns the HTTP server address.
func (c *ServerConfig) HTTPAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.HTTPPort)
}

// MetricsAddress returns the metrics server address.
func (c *ServerConfig) MetricsAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.MetricsPort)
}

// Load reads configuration from an optional .env file, an optional
// config.yaml, and SCHOLARVIEW_* environment variables, in increasing order
// of precedence, then validates the result.
func Load() (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/scholarview")

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.metrics_port", 9091)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("openalex.base_url", "https://api.openalex.org")
	v.SetDefault("openalex.email", DefaultContactEmail)
	v.SetDefault("openalex.timeout", "30s")
	v.SetDefault("openalex.rate_limit", 10.0) // OpenAlex polite pool allows 10 req/sec
	v.SetDefault("openalex.burst_size", 5)
	v.SetDefault("openalex.max_retries", 0)
	v.SetDefault("openalex.retry_delay", "1s")
	v.SetDefault("openalex.default_per_page", 25)
	v.SetDefault("openalex.max_per_page", 200)

	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.coalesce_inflight", false)

	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.Server.HTTPPort)
	}
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port: %d", c.Server.MetricsPort)
	}
	if c.Metrics.Enabled && c.Server.MetricsPort == c.Server.HTTPPort {
		return fmt.Errorf("metrics port must differ from HTTP port: %d", c.Server.HTTPPort)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.OpenAlex.BaseURL == "" {
		return fmt.Errorf("openalex base_url is required")
	}
	if strings.TrimSpace(c.OpenAlex.Email) == "" {
		return fmt.Errorf("openalex email is required")
	}
	if c.OpenAlex.RateLimit <= 0 {
		return fmt.Errorf("openalex rate_limit must be positive")
	}
	if c.OpenAlex.MaxRetries < 0 {
		return fmt.Errorf("openalex max_retries must not be negative")
	}
	if c.OpenAlex.MaxPerPage < 1 || c.OpenAlex.MaxPerPage > 200 {
		return fmt.Errorf("openalex max_per_page must be between 1 and 200, got %d", c.OpenAlex.MaxPerPage)
	}
	if c.OpenAlex.DefaultPerPage < 1 || c.OpenAlex.DefaultPerPage > c.OpenAlex.MaxPerPage {
		return fmt.Errorf("openalex default_per_page must be between 1 and %d, got %d", c.OpenAlex.MaxPerPage, c.OpenAlex.DefaultPerPage)
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	return nil
}
