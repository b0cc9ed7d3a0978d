package openalex

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/helixir/scholarview/internal/domain"
)

// Wire parameter names understood by the OpenAlex list endpoints.
const (
	ParamSearch  = "search"
	ParamPage    = "page"
	ParamPerPage = "per-page"
	ParamFilter  = "filter"
	ParamSort    = "sort"
	ParamMailto  = "mailto"
)

// Filter fields used by the query builder.
const (
	fieldPublicationYear = "publication_year"
	fieldAuthorName      = "author.display_name"
	fieldJournalName     = "primary_location.source.display_name"
	fieldConceptName     = "concepts.display_name"
	fieldRelatedTo       = "related_to"
	fieldType            = "type"
)

// Clause is one condition of an OpenAlex filter expression.
type Clause interface {
	// Wire renders the clause in the filter mini-language.
	Wire() string
}

// RangeClause matches values in the inclusive range [From, To].
type RangeClause struct {
	Field    string
	From, To int
}

// Wire implements Clause.
func (c RangeClause) Wire() string {
	return fmt.Sprintf("%s:%d-%d", c.Field, c.From, c.To)
}

// Comparator is a strict comparison operator.
type Comparator string

const (
	GreaterThan Comparator = ">"
	LessThan    Comparator = "<"
)

// ComparatorClause matches values strictly above or below Value.
type ComparatorClause struct {
	Field string
	Op    Comparator
	Value int
}

// Wire implements Clause.
func (c ComparatorClause) Wire() string {
	return fmt.Sprintf("%s:%s%d", c.Field, c.Op, c.Value)
}

// EqualsClause matches an exact value.
type EqualsClause struct {
	Field string
	Value string
}

// Wire implements Clause.
func (c EqualsClause) Wire() string {
	v := sanitizeValue(c.Value)
	if v == "" {
		return ""
	}
	return c.Field + ":" + v
}

// SearchClause matches a case-insensitive substring of a text field.
type SearchClause struct {
	Field string
	Term  string
}

// Wire implements Clause.
func (c SearchClause) Wire() string {
	t := sanitizeValue(c.Term)
	if t == "" {
		return ""
	}
	return c.Field + ".search:" + t
}

// RawClause is passed through unchanged.
type RawClause string

// Wire implements Clause.
func (c RawClause) Wire() string {
	return string(c)
}

// sanitizeValue keeps a value from splitting the comma-joined expression.
func sanitizeValue(v string) string {
	return strings.Join(strings.Fields(strings.ReplaceAll(v, ",", " ")), " ")
}

// Filter is an ordered list of clauses joined with the AND combinator.
type Filter []Clause

// Wire renders the whole expression. Clauses that render empty are skipped.
func (f Filter) Wire() string {
	parts := make([]string, 0, len(f))
	for _, c := range f {
		if w := c.Wire(); w != "" {
			parts = append(parts, w)
		}
	}
	return strings.Join(parts, ",")
}

// YearClause returns the clause for an inclusive publication-year bound,
// or nil when neither bound is set. Both bounds produce one closed range.
func YearClause(from, to *int) Clause {
	switch {
	case from != nil && to != nil:
		return RangeClause{Field: fieldPublicationYear, From: *from, To: *to}
	case from != nil:
		return ComparatorClause{Field: fieldPublicationYear, Op: GreaterThan, Value: *from - 1}
	case to != nil:
		return ComparatorClause{Field: fieldPublicationYear, Op: LessThan, Value: *to + 1}
	default:
		return nil
	}
}

// FilterFor builds the filter clauses of a search request in wire order:
// year, author, journal, subject, then the raw override.
func FilterFor(req domain.SearchRequest) Filter {
	var f Filter
	if c := YearClause(req.YearFrom, req.YearTo); c != nil {
		f = append(f, c)
	}
	if req.AuthorName != "" {
		f = append(f, SearchClause{Field: fieldAuthorName, Term: req.AuthorName})
	}
	if req.JournalName != "" {
		f = append(f, SearchClause{Field: fieldJournalName, Term: req.JournalName})
	}
	if req.Subject != "" {
		f = append(f, SearchClause{Field: fieldConceptName, Term: req.Subject})
	}
	if req.RawFilter != "" {
		f = append(f, RawClause(req.RawFilter))
	}
	return f
}

var sortVocabulary = map[domain.SortKey]string{
	domain.SortCitationCountDesc:   "cited_by_count:desc",
	domain.SortPublicationDateDesc: "publication_date:desc",
	domain.SortTitleAscending:      "display_name:asc",
	domain.SortRelevanceDesc:       "relevance_score:desc",
}

// SortParam maps a sort key onto the OpenAlex sort vocabulary. Unknown
// keys map to the default sort.
func SortParam(key domain.SortKey) string {
	if s, ok := sortVocabulary[key]; ok {
		return s
	}
	return sortVocabulary[domain.DefaultSort]
}

// BuildSearchParams translates a search request into works-endpoint query
// parameters. The request is normalized first. search and filter are
// omitted when empty.
func BuildSearchParams(req domain.SearchRequest) url.Values {
	req = req.Normalize()

	params := url.Values{}
	if req.Query != "" {
		params.Set(ParamSearch, req.Query)
	}
	params.Set(ParamPage, strconv.Itoa(req.Page))
	params.Set(ParamPerPage, strconv.Itoa(req.PerPage))
	// OpenAlex only scores relevance for full-text searches.
	sortKey := req.Sort
	if sortKey == domain.SortRelevanceDesc && req.Query == "" {
		sortKey = domain.DefaultSort
	}
	params.Set(ParamSort, SortParam(sortKey))
	setFilter(params, FilterFor(req))
	return params
}

// RelatedParams returns the parameters for works related to a work. OpenAlex
// only relates works by their OpenAlex ID, so workID must be a short or full
// OpenAlex work ID; DOIs have to be resolved through the work endpoint first.
func RelatedParams(workID string, limit int) (url.Values, error) {
	id, ok := WorkID(workID)
	if !ok {
		return nil, domain.NewValidationError("id", "must be an OpenAlex work ID")
	}

	params := url.Values{}
	params.Set(ParamPage, "1")
	params.Set(ParamPerPage, strconv.Itoa(clampPerPage(limit)))
	params.Set(ParamSort, SortParam(domain.DefaultSort))
	setFilter(params, Filter{EqualsClause{Field: fieldRelatedTo, Value: id}})
	return params, nil
}

// PopularAuthorsParams returns the parameters for the most cited authors.
func PopularAuthorsParams(limit int) url.Values {
	params := url.Values{}
	params.Set(ParamPerPage, strconv.Itoa(clampPerPage(limit)))
	params.Set(ParamSort, "cited_by_count:desc")
	return params
}

// PopularJournalsParams returns the parameters for the most cited journals.
func PopularJournalsParams(limit int) url.Values {
	params := url.Values{}
	params.Set(ParamPerPage, strconv.Itoa(clampPerPage(limit)))
	params.Set(ParamSort, "cited_by_count:desc")
	setFilter(params, Filter{EqualsClause{Field: fieldType, Value: "journal"}})
	return params
}

func setFilter(params url.Values, f Filter) {
	if w := f.Wire(); w != "" {
		params.Set(ParamFilter, w)
	}
}

func clampPerPage(n int) int {
	if n < 1 {
		return domain.DefaultPerPage
	}
	if n > domain.MaxPerPage {
		return domain.MaxPerPage
	}
	return n
}
