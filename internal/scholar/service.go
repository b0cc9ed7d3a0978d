// Package scholar implements the bibliographic query service: paper search,
// single-work lookup, related works, and the popular author and journal
// lists that feed the filter dropdowns.
//
// Every read goes through the response cache. Search and GetByID surface
// failures to the caller; the supplementary reads log the failure and
// return an empty result.
package scholar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/scholarview/internal/cache"
	"github.com/helixir/scholarview/internal/domain"
	"github.com/helixir/scholarview/internal/observability"
	"github.com/helixir/scholarview/internal/papersources/openalex"
)

// Default result limits for the supplementary reads.
const (
	DefaultRelatedLimit = 5
	DefaultPopularLimit = 30
)

// Lookup outcomes recorded by RecordLookup.
const (
	outcomeSuccess  = "success"
	outcomeAbsent   = "absent"
	outcomeError    = "error"
	outcomeDegraded = "degraded"
)

// Operation names used in logs and metrics.
const (
	opGetByID         = "get_by_id"
	opGetRelated      = "get_related"
	opPopularAuthors  = "popular_authors"
	opPopularJournals = "popular_journals"
)

// Fetcher performs a GET against an upstream endpoint and returns the raw
// JSON payload. *openalex.Client implements it.
type Fetcher interface {
	Get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error)
}

// Config holds the optional collaborators of a Service.
type Config struct {
	// Metrics may be nil.
	Metrics *observability.Metrics

	// Now is the clock used for the year fallback and tab presets.
	// Defaults to time.Now.
	Now func() time.Time
}

// Service is the bibliographic query service. It is safe for concurrent use.
type Service struct {
	fetcher    Fetcher
	cache      *cache.Cache
	normalizer *openalex.Normalizer
	metrics    *observability.Metrics
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a Service reading through c.
func New(fetcher Fetcher, c *cache.Cache, cfg Config, logger zerolog.Logger) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Service{
		fetcher: fetcher,
		cache:   c,
		metrics: cfg.Metrics,
		logger:  observability.WithComponent(logger, "scholar"),
		now:     cfg.Now,
	}
	s.normalizer = &openalex.Normalizer{
		Now:       cfg.Now,
		OnDefault: s.onNormalizerDefault,
	}
	return s
}

func (s *Service) onNormalizerDefault(field string) {
	s.metrics.RecordNormalizerDefault(field)
	s.logger.Debug().Str("field", field).Msg("normalizer substituted placeholder")
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// Search runs a paper search and returns one normalized page of results.
// Invalid requests fail with a *domain.ValidationError before any network
// access.
func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResultPage, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	req = req.Normalize()

	logger := observability.WithSearchContext(observability.LoggerFromContext(ctx, s.logger), req.Query, req.Page, req.PerPage)

	params := openalex.BuildSearchParams(req)
	raw, err := s.fetch(ctx, cache.PartitionWorksSearch, openalex.EndpointWorks, params)
	if err != nil {
		s.metrics.RecordSearchFailed(time.Since(start).Seconds())
		logger.Error().Err(err).Msg("search failed")
		return nil, fmt.Errorf("search works: %w", err)
	}

	doc, err := openalex.DecodeDoc(raw)
	if err != nil {
		s.metrics.RecordSearchFailed(time.Since(start).Seconds())
		return nil, fmt.Errorf("search works: %w", err)
	}

	page := s.normalizer.NormalizePage(doc, req.Page, req.PerPage)
	s.metrics.RecordSearchCompleted(len(page.Papers), time.Since(start).Seconds())
	logger.Debug().
		Int("papers", len(page.Papers)).
		Int("total_count", page.TotalCount).
		Msg("search completed")

	return page, nil
}

// GetByID fetches a single work. id may be a short OpenAlex ID, a full
// OpenAlex URL, or a DOI. It returns (nil, nil) when the upstream answers
// with a null document.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.PaperRecord, error) {
	endpoint, err := openalex.WorkEndpoint(id)
	if err != nil {
		return nil, err
	}

	logger := observability.WithPaperContext(observability.LoggerFromContext(ctx, s.logger), id)

	raw, err := s.fetch(ctx, cache.PartitionWorksByID, endpoint, nil)
	if err != nil {
		s.metrics.RecordLookup(opGetByID, outcomeError)
		logger.Error().Err(err).Msg("work lookup failed")
		return nil, fmt.Errorf("get work %s: %w", id, err)
	}

	doc, err := openalex.DecodeDoc(raw)
	if err != nil {
		s.metrics.RecordLookup(opGetByID, outcomeError)
		return nil, fmt.Errorf("get work %s: %w", id, err)
	}

	paper := s.normalizer.Normalize(doc)
	if paper == nil {
		s.metrics.RecordLookup(opGetByID, outcomeAbsent)
		return nil, nil
	}

	s.metrics.RecordLookup(opGetByID, outcomeSuccess)
	return paper, nil
}

// FormatCitation looks up a work and renders it in the given style.
// A work the upstream reports as absent yields a *domain.NotFoundError.
func (s *Service) FormatCitation(ctx context.Context, id string, style domain.CitationStyle) (string, error) {
	paper, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if paper == nil {
		return "", domain.NewNotFoundError("work", id)
	}
	return domain.FormatCitation(*paper, style), nil
}

// GetRelated returns up to limit works related to the given work, in
// upstream order. id may be an OpenAlex work ID or any identifier GetByID
// accepts; DOIs are resolved to their OpenAlex ID through the work lookup.
// A blank or unresolvable id and any failure yield an empty slice.
func (s *Service) GetRelated(ctx context.Context, id string, limit int) []domain.PaperRecord {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	logger := observability.WithPaperContext(observability.LoggerFromContext(ctx, s.logger), id)

	if strings.TrimSpace(id) == "" {
		s.metrics.RecordLookup(opGetRelated, outcomeAbsent)
		logger.Debug().Msg("related works requested without a work id")
		return []domain.PaperRecord{}
	}

	workID, ok := openalex.WorkID(id)
	if !ok {
		paper, err := s.GetByID(ctx, id)
		if err != nil {
			s.degraded(logger, opGetRelated, err)
			return []domain.PaperRecord{}
		}
		if paper != nil {
			workID, ok = openalex.WorkID(paper.ID)
		}
		if !ok {
			s.metrics.RecordLookup(opGetRelated, outcomeAbsent)
			logger.Debug().Msg("no OpenAlex work found for related works")
			return []domain.PaperRecord{}
		}
	}

	params, err := openalex.RelatedParams(workID, limit)
	if err == nil {
		var raw json.RawMessage
		if raw, err = s.fetch(ctx, cache.PartitionWorksSearch, openalex.EndpointWorks, params); err == nil {
			var doc openalex.Doc
			if doc, err = openalex.DecodeDoc(raw); err == nil {
				page := s.normalizer.NormalizePage(doc, 1, limit)
				papers := page.Papers
				if len(papers) > limit {
					papers = papers[:limit]
				}
				s.metrics.RecordLookup(opGetRelated, outcomeSuccess)
				return papers
			}
		}
	}

	s.degraded(logger, opGetRelated, err)
	return []domain.PaperRecord{}
}

// ListPopularAuthors returns the display names of the most cited authors.
// Failures are logged and yield an empty slice.
func (s *Service) ListPopularAuthors(ctx context.Context, limit int) []string {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	return s.listNames(ctx, opPopularAuthors, cache.PartitionAuthors, openalex.EndpointAuthors, openalex.PopularAuthorsParams(limit), limit)
}

// ListPopularJournals returns the display names of the most cited journals.
// Failures are logged and yield an empty slice.
func (s *Service) ListPopularJournals(ctx context.Context, limit int) []string {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	return s.listNames(ctx, opPopularJournals, cache.PartitionJournals, openalex.EndpointSources, openalex.PopularJournalsParams(limit), limit)
}

func (s *Service) listNames(ctx context.Context, op string, partition cache.Partition, endpoint string, params url.Values, limit int) []string {
	logger := observability.LoggerFromContext(ctx, s.logger)

	raw, err := s.fetch(ctx, partition, endpoint, params)
	if err == nil {
		var doc openalex.Doc
		if doc, err = openalex.DecodeDoc(raw); err == nil {
			names := openalex.NamesFrom(doc)
			if len(names) > limit {
				names = names[:limit]
			}
			s.metrics.RecordLookup(op, outcomeSuccess)
			return names
		}
	}

	s.degraded(logger, op, err)
	return []string{}
}

func (s *Service) degraded(logger zerolog.Logger, op string, err error) {
	s.metrics.RecordLookup(op, outcomeDegraded)
	s.metrics.RecordSupplementaryFailure(op)
	logger.Warn().Err(err).Str("operation", op).Msg("supplementary lookup failed, returning empty result")
}

// ClearCache wipes every cache partition.
func (s *Service) ClearCache() {
	s.cache.ClearAll()
}

func (s *Service) fetch(ctx context.Context, partition cache.Partition, endpoint string, params url.Values) (json.RawMessage, error) {
	return s.cache.Fetch(ctx, partition, endpoint, params, func(ctx context.Context) (json.RawMessage, error) {
		return s.fetcher.Get(ctx, endpoint, params)
	})
}
