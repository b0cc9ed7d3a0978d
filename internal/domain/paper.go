// Package domain provides the request, paper, and error types shared by the
// scholarview query service.
package domain

// Placeholder values substituted by the normalizer when upstream data is missing.
const (
	UnknownTitle    = "Untitled Paper"
	UnknownAuthor   = "Unknown Author"
	UnknownJournal  = "Unknown Journal"
	MissingAbstract = "No abstract available for this paper."

	// NoLink is the sentinel external link used when a work has neither a
	// DOI nor an open-access URL.
	NoLink = "#"

	// MaxConcepts caps the number of concepts kept per paper.
	MaxConcepts = 5
)

// Concept is a subject tag attached to a paper with its relevance score.
type Concept struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// PaperRecord is the normalized representation of an upstream work.
// Every field except PublicationDate always carries a defined value.
type PaperRecord struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Authors         []string  `json:"authors"`
	Abstract        string    `json:"abstract"`
	Year            int       `json:"year"`
	Journal         string    `json:"journal"`
	Citations       int       `json:"citations"`
	Link            string    `json:"link"`
	DOI             string    `json:"doi"`
	Concepts        []Concept `json:"concepts"`
	OpenAccess      bool      `json:"open_access"`
	PublicationDate string    `json:"publication_date,omitempty"`
}

// HasLink reports whether the record resolves to a real URL.
func (p *PaperRecord) HasLink() bool {
	return p.Link != "" && p.Link != NoLink
}

// SearchResultPage is one page of normalized search results.
// Papers keep the upstream order.
type SearchResultPage struct {
	Papers      []PaperRecord `json:"papers"`
	TotalCount  int           `json:"total_count"`
	CurrentPage int           `json:"current_page"`
	TotalPages  int           `json:"total_pages"`
	PerPage     int           `json:"per_page"`
}

// TotalPages returns ceil(total / perPage), or 0 when perPage is not positive.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
