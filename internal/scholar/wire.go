package scholar

import (
	"github.com/rs/zerolog"

	"github.com/helixir/scholarview/internal/cache"
	"github.com/helixir/scholarview/internal/config"
	"github.com/helixir/scholarview/internal/observability"
	"github.com/helixir/scholarview/internal/papersources/openalex"
)

// NewFromConfig assembles a Service backed by the OpenAlex client and a
// fresh response cache. metrics may be nil.
func NewFromConfig(cfg *config.Config, metrics *observability.Metrics, logger zerolog.Logger) *Service {
	client := openalex.New(openalex.Config{
		BaseURL:    cfg.OpenAlex.BaseURL,
		Email:      cfg.OpenAlex.Email,
		Timeout:    cfg.OpenAlex.Timeout,
		RateLimit:  cfg.OpenAlex.RateLimit,
		BurstSize:  cfg.OpenAlex.BurstSize,
		MaxRetries: cfg.OpenAlex.MaxRetries,
		RetryDelay: cfg.OpenAlex.RetryDelay,
	}, metrics)

	responses := cache.New(cache.Config{
		TTL:              cfg.Cache.TTL,
		CoalesceInflight: cfg.Cache.CoalesceInflight,
		Metrics:          metrics,
	}, logger)

	return New(client, responses, Config{Metrics: metrics}, logger)
}
