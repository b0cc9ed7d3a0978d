package scholar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/scholarview/internal/config"
	"github.com/helixir/scholarview/internal/domain"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		OpenAlex: config.OpenAlexConfig{
			BaseURL:    baseURL,
			Email:      "ops@example.org",
			Timeout:    5 * time.Second,
			RateLimit:  100,
			BurstSize:  100,
			MaxRetries: 0,
		},
		Cache: config.CacheConfig{TTL: time.Minute},
	}
}

func TestNewFromConfig_SearchEndToEnd(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		q := r.URL.Query()
		if r.URL.Path != "/works" || q.Get("mailto") != "ops@example.org" || q.Get("filter") != "publication_year:2020-2020" {
			http.Error(w, `{"error": "unexpected request"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meta": {"count": 1}, "results": [{"id": "https://openalex.org/W7", "title": "Paper A", "authorships": [], "cited_by_count": 5, "publication_year": 2020}]}`))
	}))
	defer server.Close()

	svc := NewFromConfig(testConfig(server.URL), nil, zerolog.Nop())
	req := domain.SearchRequest{YearFrom: domain.Year(2020), YearTo: domain.Year(2020)}

	page, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, page.Papers, 1)

	paper := page.Papers[0]
	assert.Equal(t, "W7", paper.ID)
	assert.Equal(t, "Paper A", paper.Title)
	assert.Equal(t, []string{domain.UnknownAuthor}, paper.Authors)
	assert.Equal(t, 5, paper.Citations)
	assert.Equal(t, 2020, paper.Year)
	assert.Equal(t, domain.UnknownJournal, paper.Journal)

	_, err = svc.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewFromConfig_DefaultsDoNotRetryFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": "maintenance"}`))
	}))
	defer server.Close()

	t.Setenv(config.EnvPrefix+"_OPENALEX_BASE_URL", server.URL)
	t.Setenv(config.EnvPrefix+"_OPENALEX_RATE_LIMIT", "100")
	cfg, err := config.Load()
	require.NoError(t, err)

	svc := NewFromConfig(cfg, nil, zerolog.Nop())

	_, err = svc.Search(context.Background(), domain.SearchRequest{Query: "graphs"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNewFromConfig_UpstreamErrorCarriesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "blocked"}`))
	}))
	defer server.Close()

	svc := NewFromConfig(testConfig(server.URL), nil, zerolog.Nop())

	_, err := svc.GetByID(context.Background(), "W1")
	require.Error(t, err)

	var apiErr *domain.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "blocked", apiErr.Message)
	assert.ErrorIs(t, err, domain.ErrUpstream)

	assert.Empty(t, svc.ListPopularAuthors(context.Background(), 10))
}
