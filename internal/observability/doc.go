// Package observability provides logging, metrics, and request context
// support for the scholarview service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for searches, upstream requests, and the cache
//   - Context helpers for propagating request data
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger = observability.WithComponent(logger, "scholar")
//
// Attach request fields carried by a context:
//
//	logger = observability.LoggerFromContext(ctx, logger)
//
// # Metrics
//
// Initialize metrics once per process:
//
//	metrics := observability.NewMetrics("scholarview")
//
// Record metrics:
//
//	metrics.RecordCacheHit("works-search")
//	metrics.RecordSourceRequest("openalex", "works", elapsed.Seconds())
//
// A nil *Metrics is valid and records nothing.
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - component: Emitting component (scholar, cache, openalex, http)
//   - query: Free-text search query
//   - paper_id: Upstream work identifier
//   - partition: Cache partition
//   - field: Normalized field that received a placeholder
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
