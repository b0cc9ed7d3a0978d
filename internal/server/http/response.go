package httpserver

import (
	"github.com/helixir/scholarview/internal/domain"
)

// Response types for JSON serialization.

type errorResponse struct {
	Error string `json:"error"`
	// UpstreamStatus is the status code reported by the upstream API, when
	// the failure came from there.
	UpstreamStatus int `json:"upstream_status,omitempty"`
}

type relatedPapersResponse struct {
	Papers []domain.PaperRecord `json:"papers"`
}

type namesResponse struct {
	Names []string `json:"names"`
}

type citationResponse struct {
	ID       string `json:"id"`
	Style    string `json:"style"`
	Citation string `json:"citation"`
}
