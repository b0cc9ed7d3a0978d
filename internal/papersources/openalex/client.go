package openalex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/helixir/scholarview/internal/domain"
	"github.com/helixir/scholarview/internal/observability"
	"github.com/helixir/scholarview/internal/papersources"
)

const (
	// DefaultBaseURL is the default OpenAlex API base URL.
	DefaultBaseURL = "https://api.openalex.org"

	// DefaultRateLimit is the default rate limit for requests per second.
	DefaultRateLimit = 10.0

	// DefaultBurstSize is the default burst size for rate limiting.
	DefaultBurstSize = 10

	// DefaultEmail is the mailto contact used when Config.Email is empty.
	DefaultEmail = "user@example.com"

	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second

	// SourceName labels errors and metrics produced by this client.
	SourceName = "OpenAlex"

	// metricsSource is the metrics label for this client.
	metricsSource = "openalex"

	// maxResponseBytes limits response bodies to prevent resource exhaustion.
	maxResponseBytes = 10 << 20

	// maxErrorMessage bounds the upstream text kept in an ExternalAPIError.
	maxErrorMessage = 512
)

// Endpoint identifiers for the OpenAlex entity lists.
const (
	EndpointWorks   = "works"
	EndpointAuthors = "authors"
	EndpointSources = "sources"
)

// Config holds configuration for the OpenAlex client.
type Config struct {
	// BaseURL is the OpenAlex API base URL.
	// Defaults to https://api.openalex.org
	BaseURL string

	// Email is the contact address sent as the mailto parameter on every
	// request. Providing a real one grants access to the polite pool.
	// Defaults to DefaultEmail.
	// See: https://docs.openalex.org/how-to-use-the-api/rate-limits-and-authentication
	Email string

	// Timeout is the request timeout.
	// Defaults to 30 seconds.
	Timeout time.Duration

	// RateLimit is the maximum requests per second.
	// Defaults to 10 req/sec.
	RateLimit float64

	// BurstSize is the maximum burst of requests allowed.
	// Defaults to 10.
	BurstSize int

	// MaxRetries bounds transport retries of network errors, 429 and 5xx.
	// Zero, the default, disables them.
	MaxRetries int

	// RetryDelay is the base delay between retries.
	RetryDelay time.Duration
}

// applyDefaults sets default values for unset configuration fields.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" {
		c.Email = DefaultEmail
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.BurstSize == 0 {
		c.BurstSize = DefaultBurstSize
	}
}

// Client performs GET requests against OpenAlex list and entity endpoints
// and returns the raw JSON payload.
type Client struct {
	config     Config
	httpClient *papersources.HTTPClient
	metrics    *observability.Metrics
}

// New creates a new OpenAlex client with the given configuration.
// metrics may be nil.
func New(cfg Config, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	userAgent := papersources.DefaultUserAgent + " (mailto:" + cfg.Email + ")"

	httpClient := papersources.NewHTTPClient(papersources.HTTPClientConfig{
		Source:     metricsSource,
		Timeout:    cfg.Timeout,
		RateLimit:  cfg.RateLimit,
		BurstSize:  cfg.BurstSize,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		UserAgent:  userAgent,
		Metrics:    metrics,
	})

	return NewWithHTTPClient(cfg, httpClient, metrics)
}

// NewWithHTTPClient creates a new OpenAlex client with a custom HTTP client.
// This is useful for testing with mock servers.
func NewWithHTTPClient(cfg Config, httpClient *papersources.HTTPClient, metrics *observability.Metrics) *Client {
	cfg.applyDefaults()

	return &Client{
		config:     cfg,
		httpClient: httpClient,
		metrics:    metrics,
	}
}

// Get fetches endpoint with params and returns the response body, which is
// guaranteed to be valid JSON. Every request carries the mailto parameter.
// Non-2xx responses become *domain.ExternalAPIError.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	label := endpointLabel(endpoint)
	startTime := time.Now()

	reqURL, err := c.buildURL(endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("building %s URL: %w", label, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordSourceRequestFailed(metricsSource, label, "network")
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	c.metrics.RecordSourceRequest(metricsSource, label, time.Since(startTime).Seconds())

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.RecordSourceRequestFailed(metricsSource, label, "read")
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.RecordSourceRequestFailed(metricsSource, label, "status_"+strconv.Itoa(resp.StatusCode))
		return nil, domain.NewExternalAPIError(SourceName, resp.StatusCode, upstreamMessage(body), nil)
	}

	if !json.Valid(body) {
		c.metrics.RecordSourceRequestFailed(metricsSource, label, "decode")
		return nil, errors.New("decoding response: invalid JSON payload")
	}

	return json.RawMessage(body), nil
}

// buildURL joins the base URL, endpoint path, and query parameters.
func (c *Client) buildURL(endpoint string, params url.Values) (string, error) {
	baseURL, err := url.Parse(c.config.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parsing base URL: %w", err)
	}

	baseURL.Path = strings.TrimRight(baseURL.Path, "/") + "/" + strings.TrimLeft(endpoint, "/")

	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	query.Set(ParamMailto, c.config.Email)
	baseURL.RawQuery = query.Encode()

	return baseURL.String(), nil
}

// WorkEndpoint returns the entity path for a single work. It accepts short
// OpenAlex IDs (W123), full OpenAlex URLs, bare DOIs (10.x/...), doi:
// prefixed DOIs, and DOI resolver URLs.
func WorkEndpoint(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", domain.NewValidationError("id", "must not be empty")
	}

	var workID string
	switch {
	case strings.HasPrefix(id, openAlexIDPrefix):
		workID = strings.TrimPrefix(id, openAlexIDPrefix)
	case strings.HasPrefix(id, doiPrefix), strings.HasPrefix(id, "http://doi.org/"):
		workID = doiPrefix + normalizeDOI(id)
	case strings.HasPrefix(id, "10."):
		workID = doiPrefix + normalizeDOI(id)
	case strings.HasPrefix(strings.ToLower(id), "doi:"):
		workID = doiPrefix + normalizeDOI(strings.ToLower(id[:4])+id[4:])
	default:
		if strings.Contains(id, "/") {
			return "", domain.NewValidationError("id", "must be an OpenAlex ID or a DOI")
		}
		workID = id
	}

	if strings.ContainsAny(workID, "?#") {
		return "", domain.NewValidationError("id", "must not contain query or fragment characters")
	}

	return EndpointWorks + "/" + workID, nil
}

// WorkID returns the short form (W123) of an OpenAlex work ID given either
// the short form or the full https://openalex.org/ URL. ok is false for
// anything else, including blank input and DOIs.
func WorkID(id string) (string, bool) {
	id = strings.TrimPrefix(strings.TrimSpace(id), openAlexIDPrefix)
	if len(id) < 2 || (id[0] != 'W' && id[0] != 'w') {
		return "", false
	}
	for _, r := range id[1:] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return "W" + id[1:], true
}

// endpointLabel collapses entity paths so metrics stay low-cardinality.
func endpointLabel(endpoint string) string {
	endpoint = strings.Trim(endpoint, "/")
	if i := strings.IndexByte(endpoint, '/'); i >= 0 {
		return endpoint[:i] + "_by_id"
	}
	return endpoint
}

// upstreamMessage extracts the error text OpenAlex returns, preferring the
// JSON error and message fields over the raw body.
func upstreamMessage(body []byte) string {
	if doc, err := DecodeDoc(body); err == nil && doc != nil {
		errText := doc.String("", "error")
		msg := doc.String("", "message")
		switch {
		case errText != "" && msg != "":
			return truncate(errText + ": " + msg)
		case msg != "":
			return truncate(msg)
		case errText != "":
			return truncate(errText)
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	if len(s) <= maxErrorMessage {
		return s
	}
	return s[:maxErrorMessage] + "..."
}
