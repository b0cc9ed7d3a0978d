package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Paging limits imposed by the upstream API.
const (
	DefaultPerPage = 25
	MaxPerPage     = 200
)

// SortKey is the caller-facing sort order. The query builder maps it onto
// the upstream sort vocabulary.
type SortKey string

const (
	SortCitationCountDesc   SortKey = "citation-count-desc"
	SortPublicationDateDesc SortKey = "publication-date-desc"
	SortTitleAscending      SortKey = "title-ascending"
	SortRelevanceDesc       SortKey = "relevance-desc"
)

// DefaultSort is applied when a request leaves Sort empty.
const DefaultSort = SortCitationCountDesc

// Valid reports whether s is one of the known sort keys.
func (s SortKey) Valid() bool {
	switch s {
	case SortCitationCountDesc, SortPublicationDateDesc, SortTitleAscending, SortRelevanceDesc:
		return true
	default:
		return false
	}
}

// SearchRequest carries the caller's search and filter intent.
type SearchRequest struct {
	Query   string  `json:"query"`
	Page    int     `json:"page" validate:"min=0"`
	PerPage int     `json:"per_page" validate:"min=0,max=200"`
	Sort    SortKey `json:"sort" validate:"omitempty,oneof=citation-count-desc publication-date-desc title-ascending relevance-desc"`

	// YearFrom and YearTo bound the publication year inclusively.
	YearFrom *int `json:"year_from,omitempty" validate:"omitempty,min=0,max=9999"`
	YearTo   *int `json:"year_to,omitempty" validate:"omitempty,min=0,max=9999"`

	AuthorName  string `json:"author_name,omitempty" validate:"max=256"`
	JournalName string `json:"journal_name,omitempty" validate:"max=256"`
	Subject     string `json:"subject,omitempty" validate:"max=256"`

	// RawFilter is appended verbatim to the upstream filter expression.
	RawFilter string `json:"raw_filter,omitempty" validate:"max=1024"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Year returns a pointer to y, for filling the optional year bounds.
func Year(y int) *int {
	return &y
}

// Normalize returns a copy with Page, PerPage, and Sort defaulted and
// PerPage clamped to the upstream maximum.
func (r SearchRequest) Normalize() SearchRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PerPage < 1 {
		r.PerPage = DefaultPerPage
	}
	if r.PerPage > MaxPerPage {
		r.PerPage = MaxPerPage
	}
	if r.Sort == "" {
		r.Sort = DefaultSort
	}
	r.Query = strings.TrimSpace(r.Query)
	r.AuthorName = strings.TrimSpace(r.AuthorName)
	r.JournalName = strings.TrimSpace(r.JournalName)
	r.Subject = strings.TrimSpace(r.Subject)
	r.RawFilter = strings.TrimSpace(r.RawFilter)
	return r
}

// Validate checks field constraints and the year-range invariant.
// It returns a *ValidationError for the first violation.
func (r SearchRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return NewValidationError(fe.Field(), describeFieldError(fe))
		}
		return NewValidationError("request", err.Error())
	}
	if r.YearFrom != nil && r.YearTo != nil && *r.YearFrom > *r.YearTo {
		return NewValidationError("year_from", fmt.Sprintf("must not be after year_to (%d > %d)", *r.YearFrom, *r.YearTo))
	}
	return nil
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// Tab names the preset views of the paper list.
type Tab string

const (
	TabAll       Tab = "all"
	TabMostCited Tab = "mostCited"
	TabRecent    Tab = "recent"
)

// MostCitedThreshold is the citation floor of the mostCited tab.
const MostCitedThreshold = 100

// recentWindowYears is how far back the recent tab reaches.
const recentWindowYears = 2

// WithTab applies the overrides of a preset tab. Unknown tabs and TabAll
// leave the request unchanged.
func (r SearchRequest) WithTab(tab Tab, now time.Time) SearchRequest {
	switch tab {
	case TabMostCited:
		r.Sort = SortCitationCountDesc
		r.RawFilter = fmt.Sprintf("cited_by_count:>%d", MostCitedThreshold)
	case TabRecent:
		r.Sort = SortPublicationDateDesc
		r.YearFrom = Year(now.Year() - recentWindowYears)
		r.YearTo = Year(now.Year())
	}
	return r
}
