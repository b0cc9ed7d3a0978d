package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, 9091, cfg.Server.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, time.RFC3339, cfg.Logging.TimeFormat)

	// Metrics defaults
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)

	// OpenAlex defaults
	assert.Equal(t, "https://api.openalex.org", cfg.OpenAlex.BaseURL)
	assert.Equal(t, DefaultContactEmail, cfg.OpenAlex.Email)
	assert.Equal(t, 30*time.Second, cfg.OpenAlex.Timeout)
	assert.Equal(t, 10.0, cfg.OpenAlex.RateLimit)
	assert.Zero(t, cfg.OpenAlex.MaxRetries, "failures must reach the caller without automatic retries")
	assert.Equal(t, 25, cfg.OpenAlex.DefaultPerPage)
	assert.Equal(t, 200, cfg.OpenAlex.MaxPerPage)

	// Cache defaults
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.False(t, cfg.Cache.CoalesceInflight)

	// CORS defaults
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("SCHOLARVIEW_SERVER_HTTP_PORT", "8888")
	t.Setenv("SCHOLARVIEW_LOGGING_LEVEL", "debug")
	t.Setenv("SCHOLARVIEW_OPENALEX_EMAIL", "ops@example.org")
	t.Setenv("SCHOLARVIEW_OPENALEX_MAX_RETRIES", "2")
	t.Setenv("SCHOLARVIEW_CACHE_TTL", "90s")
	t.Setenv("SCHOLARVIEW_CACHE_COALESCE_INFLIGHT", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "ops@example.org", cfg.OpenAlex.Email)
	assert.Equal(t, 2, cfg.OpenAlex.MaxRetries)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Cache.CoalesceInflight)
}

func TestLoad_InvalidEnvironmentFailsValidation(t *testing.T) {
	clearEnvVars(t)
	t.Setenv("SCHOLARVIEW_LOGGING_LEVEL", "verbose")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level: verbose")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectedErr string
	}{
		{
			name:        "HTTP port zero",
			modifyFunc:  func(c *Config) { c.Server.HTTPPort = 0 },
			expectedErr: "invalid HTTP port: 0",
		},
		{
			name:        "HTTP port too high",
			modifyFunc:  func(c *Config) { c.Server.HTTPPort = 70000 },
			expectedErr: "invalid HTTP port: 70000",
		},
		{
			name:        "metrics port negative",
			modifyFunc:  func(c *Config) { c.Server.MetricsPort = -1 },
			expectedErr: "invalid metrics port: -1",
		},
		{
			name:        "metrics port clashes with HTTP port",
			modifyFunc:  func(c *Config) { c.Server.MetricsPort = c.Server.HTTPPort },
			expectedErr: "metrics port must differ from HTTP port: 8080",
		},
		{
			name:        "invalid log level",
			modifyFunc:  func(c *Config) { c.Logging.Level = "verbose" },
			expectedErr: "invalid log level: verbose",
		},
		{
			name:        "missing base URL",
			modifyFunc:  func(c *Config) { c.OpenAlex.BaseURL = "" },
			expectedErr: "openalex base_url is required",
		},
		{
			name:        "missing contact email",
			modifyFunc:  func(c *Config) { c.OpenAlex.Email = "  " },
			expectedErr: "openalex email is required",
		},
		{
			name:        "non-positive rate limit",
			modifyFunc:  func(c *Config) { c.OpenAlex.RateLimit = 0 },
			expectedErr: "openalex rate_limit must be positive",
		},
		{
			name:        "negative retries",
			modifyFunc:  func(c *Config) { c.OpenAlex.MaxRetries = -1 },
			expectedErr: "openalex max_retries must not be negative",
		},
		{
			name:        "max per page above upstream limit",
			modifyFunc:  func(c *Config) { c.OpenAlex.MaxPerPage = 500 },
			expectedErr: "openalex max_per_page must be between 1 and 200, got 500",
		},
		{
			name:        "default per page above max",
			modifyFunc:  func(c *Config) { c.OpenAlex.DefaultPerPage = 150; c.OpenAlex.MaxPerPage = 100 },
			expectedErr: "openalex default_per_page must be between 1 and 100, got 150",
		},
		{
			name:        "default per page zero",
			modifyFunc:  func(c *Config) { c.OpenAlex.DefaultPerPage = 0 },
			expectedErr: "openalex default_per_page must be between 1 and 200, got 0",
		},
		{
			name:        "zero cache ttl",
			modifyFunc:  func(c *Config) { c.Cache.TTL = 0 },
			expectedErr: "cache ttl must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modifyFunc(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.expectedErr, err.Error())
		})
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	t.Run("log level is case insensitive", func(t *testing.T) {
		cfg := validConfig()
		cfg.Logging.Level = "WARN"
		assert.NoError(t, cfg.Validate())
	})

	t.Run("shared port allowed when metrics disabled", func(t *testing.T) {
		cfg := validConfig()
		cfg.Metrics.Enabled = false
		cfg.Server.MetricsPort = cfg.Server.HTTPPort
		assert.NoError(t, cfg.Validate())
	})
}

func TestServerConfig_Addresses(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", HTTPPort: 8080, MetricsPort: 9091}
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTPAddress())
	assert.Equal(t, "127.0.0.1:9091", cfg.MetricsAddress())
}

// clearEnvVars unsets every SCHOLARVIEW_ variable for the duration of the test.
func clearEnvVars(t *testing.T) {
	t.Helper()
	for _, env := range os.Environ() {
		key, _, _ := strings.Cut(env, "=")
		if strings.HasPrefix(key, EnvPrefix+"_") {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			HTTPPort:    8080,
			MetricsPort: 9091,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		OpenAlex: OpenAlexConfig{
			BaseURL:        "https://api.openalex.org",
			Email:          "ops@example.org",
			RateLimit:      10,
			DefaultPerPage: 25,
			MaxPerPage:     200,
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
	}
}
