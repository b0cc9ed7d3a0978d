package observability

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLoggingConfig(t *testing.T) {
	cfg := DefaultLoggingConfig()

	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, time.RFC3339, cfg.TimeFormat)
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LoggingConfig{Level: "info", Format: "json"})

	logger.Debug().Msg("cache hit")
	assert.Zero(t, buf.Len(), "debug is below the configured level")

	logger.Warn().Str("operation", "get_related").Msg("supplementary lookup failed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "get_related", entry["operation"])
	assert.Equal(t, "supplementary lookup failed", entry["message"])
	assert.Contains(t, entry, "time")
	assert.NotContains(t, entry, "caller")
}

func TestNewLogger_AddSource(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, LoggingConfig{Level: "debug", Format: "json", AddSource: true})

	logger.Debug().Msg("normalizer default applied")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Contains(t, entry["caller"], "logger_test.go")
}

func TestNewLogger_ConsoleFormats(t *testing.T) {
	for _, format := range []string{"console", "pretty", "CONSOLE"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, LoggingConfig{Level: "warn", Format: format})

			logger.Info().Msg("dropped")
			logger.Error().Msg("upstream unavailable")

			out := buf.String()
			assert.NotContains(t, out, "dropped")
			assert.Contains(t, out, "upstream unavailable")
			assert.False(t, json.Valid(bytes.TrimSpace(buf.Bytes())), "console output is not JSON")
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"Warning", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"panic", zerolog.PanicLevel},
		{"disabled", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithComponent(logger, "cache")
	enriched.Info().Msg("test message")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "cache", logEntry["component"])
	assert.Equal(t, "test message", logEntry["message"])
}

func TestWithSearchContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithSearchContext(logger, "machine learning", 2, 25)
	enriched.Info().Msg("search started")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "machine learning", logEntry["query"])
	assert.Equal(t, float64(2), logEntry["page"])
	assert.Equal(t, float64(25), logEntry["per_page"])
}

func TestWithPaperContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithPaperContext(logger, "W2741809807")
	enriched.Info().Msg("paper fetched")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "W2741809807", logEntry["paper_id"])
}

func TestWithCacheContext(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	enriched := WithCacheContext(logger, "authors", "authors?per-page=30")
	enriched.Debug().Msg("cache hit")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "authors", logEntry["partition"])
	assert.Equal(t, "authors?per-page=30", logEntry["cache_key"])
}

func TestLoggerContextChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	// Chain multiple context enrichments
	enriched := WithComponent(logger, "scholar")
	enriched = WithSearchContext(enriched, "neural networks", 1, 25)
	enriched = WithPaperContext(enriched, "W1")
	enriched.Info().Msg("chained context")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "scholar", logEntry["component"])
	assert.Equal(t, "neural networks", logEntry["query"])
	assert.Equal(t, "W1", logEntry["paper_id"])
}
