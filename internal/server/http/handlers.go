package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helixir/scholarview/internal/domain"
)

// Limits accepted by the supplementary list endpoints.
const (
	maxRelatedLimit = 50
	maxPopularLimit = 200
)

// searchPapers handles GET /api/v1/papers.
//
// Query parameters: q, page, per_page, year_from, year_to, author, journal,
// subject, sort, filter, tab. A tab preset overrides sort and the filters
// it owns.
func (s *Server) searchPapers(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseSearchRequest(r.URL.Query())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	page, err := s.service.Search(r.Context(), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// getPaper handles GET /api/v1/papers/{id}.
func (s *Server) getPaper(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	paper, err := s.service.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if paper == nil {
		writeError(w, http.StatusNotFound, "paper not found")
		return
	}

	writeJSON(w, http.StatusOK, paper)
}

// getRelatedPapers handles GET /api/v1/papers/{id}/related.
// Upstream failures degrade to an empty list.
func (s *Server) getRelatedPapers(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	limit, err := parseLimit(r.URL.Query(), maxRelatedLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, relatedPapersResponse{
		Papers: s.service.GetRelated(r.Context(), id, limit),
	})
}

// getCitation handles GET /api/v1/papers/{id}/citation.
func (s *Server) getCitation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	style := domain.CitationStyle(strings.ToLower(r.URL.Query().Get("style")))
	if style == "" {
		style = domain.CitationAPA
	}
	switch style {
	case domain.CitationAPA, domain.CitationMLA, domain.CitationChicago, domain.CitationBibTeX, domain.CitationPlain:
	default:
		writeDomainError(w, domain.NewValidationError("style", "must be one of: apa mla chicago bibtex plain"))
		return
	}

	citation, err := s.service.FormatCitation(r.Context(), id, style)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, citationResponse{
		ID:       id,
		Style:    string(style),
		Citation: citation,
	})
}

// listPopularAuthors handles GET /api/v1/authors/popular.
func (s *Server) listPopularAuthors(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query(), maxPopularLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, namesResponse{Names: s.service.ListPopularAuthors(r.Context(), limit)})
}

// listPopularJournals handles GET /api/v1/journals/popular.
func (s *Server) listPopularJournals(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query(), maxPopularLimit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, namesResponse{Names: s.service.ListPopularJournals(r.Context(), limit)})
}

// clearCache handles DELETE /api/v1/cache.
func (s *Server) clearCache(w http.ResponseWriter, r *http.Request) {
	s.service.ClearCache()
	w.WriteHeader(http.StatusNoContent)
}

// parseSearchRequest builds a SearchRequest from query parameters.
func (s *Server) parseSearchRequest(q url.Values) (domain.SearchRequest, error) {
	req := domain.SearchRequest{
		Query:       q.Get("q"),
		Sort:        domain.SortKey(q.Get("sort")),
		AuthorName:  q.Get("author"),
		JournalName: q.Get("journal"),
		Subject:     q.Get("subject"),
		RawFilter:   q.Get("filter"),
	}

	var err error
	if req.Page, err = optionalInt(q, "page"); err != nil {
		return req, err
	}
	if req.PerPage, err = optionalInt(q, "per_page"); err != nil {
		return req, err
	}
	if req.PerPage == 0 {
		req.PerPage = s.cfg.DefaultPerPage
	}
	if req.PerPage > s.cfg.MaxPerPage {
		req.PerPage = s.cfg.MaxPerPage
	}

	if req.YearFrom, err = optionalYear(q, "year_from"); err != nil {
		return req, err
	}
	if req.YearTo, err = optionalYear(q, "year_to"); err != nil {
		return req, err
	}

	switch tab := domain.Tab(q.Get("tab")); tab {
	case "", domain.TabAll:
	case domain.TabMostCited, domain.TabRecent:
		req = req.WithTab(tab, s.service.Now())
	default:
		return req, domain.NewValidationError("tab", "must be one of: all mostCited recent")
	}

	return req, nil
}

func optionalInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(name, "must be an integer")
	}
	return n, nil
}

func optionalYear(q url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "must be a year")
	}
	return domain.Year(n), nil
}

// parseLimit reads the optional limit parameter. Zero means the service default.
func parseLimit(q url.Values, max int) (int, error) {
	limit, err := optionalInt(q, "limit")
	if err != nil {
		return 0, err
	}
	if limit < 0 {
		return 0, domain.NewValidationError("limit", "must not be negative")
	}
	if limit > max {
		limit = max
	}
	return limit, nil
}

// pathID extracts the {id} route parameter, writing a 400 response if it
// cannot be decoded. DOIs arrive with their slash percent-encoded.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "id must be a valid work identifier")
		return "", false
	}
	return id, true
}

// writeDomainError maps domain errors to HTTP status codes and writes a
// JSON error response. Upstream failures carry the upstream status.
func writeDomainError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}

	resp := errorResponse{}
	var apiErr *domain.ExternalAPIError
	if errors.As(err, &apiErr) {
		resp.UpstreamStatus = apiErr.StatusCode
	}

	var status int
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status, resp.Error = http.StatusNotFound, "resource not found"
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			resp.Error = ve.Error()
		} else {
			resp.Error = "invalid input"
		}
	case errors.Is(err, domain.ErrRateLimited):
		status, resp.Error = http.StatusTooManyRequests, "rate limited by upstream"
	case errors.Is(err, domain.ErrServiceUnavailable):
		status, resp.Error = http.StatusServiceUnavailable, "upstream service unavailable"
	case errors.Is(err, domain.ErrUpstream):
		status = http.StatusBadGateway
		resp.Error = "upstream request failed"
		if apiErr != nil && apiErr.Message != "" {
			resp.Error = fmt.Sprintf("upstream request failed: %s", apiErr.Message)
		}
	default:
		status, resp.Error = http.StatusBadGateway, "upstream request failed"
	}

	writeJSON(w, status, resp)
}
