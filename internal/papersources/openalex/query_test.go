package openalex

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/scholarview/internal/domain"
)

func TestClauses_Wire(t *testing.T) {
	tests := []struct {
		name     string
		clause   Clause
		expected string
	}{
		{name: "range", clause: RangeClause{Field: "publication_year", From: 2019, To: 2021}, expected: "publication_year:2019-2021"},
		{name: "greater than", clause: ComparatorClause{Field: "cited_by_count", Op: GreaterThan, Value: 99}, expected: "cited_by_count:>99"},
		{name: "less than", clause: ComparatorClause{Field: "publication_year", Op: LessThan, Value: 2001}, expected: "publication_year:<2001"},
		{name: "equals", clause: EqualsClause{Field: "type", Value: "journal"}, expected: "type:journal"},
		{name: "search", clause: SearchClause{Field: "author.display_name", Term: "Geoffrey Hinton"}, expected: "author.display_name.search:Geoffrey Hinton"},
		{name: "search strips commas", clause: SearchClause{Field: "author.display_name", Term: "Hinton, G."}, expected: "author.display_name.search:Hinton G."},
		{name: "search with only commas", clause: SearchClause{Field: "author.display_name", Term: ", ,"}, expected: ""},
		{name: "raw", clause: RawClause("is_oa:true,type:article"), expected: "is_oa:true,type:article"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.clause.Wire())
		})
	}
}

func TestYearClause(t *testing.T) {
	t.Run("closed range", func(t *testing.T) {
		assert.Equal(t, "publication_year:2015-2020", YearClause(domain.Year(2015), domain.Year(2020)).Wire())
	})

	t.Run("single year is a degenerate range", func(t *testing.T) {
		assert.Equal(t, "publication_year:2020-2020", YearClause(domain.Year(2020), domain.Year(2020)).Wire())
	})

	t.Run("lower bound only is inclusive", func(t *testing.T) {
		assert.Equal(t, "publication_year:>2014", YearClause(domain.Year(2015), nil).Wire())
	})

	t.Run("upper bound only is inclusive", func(t *testing.T) {
		assert.Equal(t, "publication_year:<2021", YearClause(nil, domain.Year(2020)).Wire())
	})

	t.Run("no bounds", func(t *testing.T) {
		assert.Nil(t, YearClause(nil, nil))
	})
}

func TestBuildSearchParams(t *testing.T) {
	t.Run("minimal request omits search and filter", func(t *testing.T) {
		params := BuildSearchParams(domain.SearchRequest{})

		assert.False(t, params.Has(ParamSearch))
		assert.False(t, params.Has(ParamFilter))
		assert.Equal(t, "1", params.Get(ParamPage))
		assert.Equal(t, "25", params.Get(ParamPerPage))
		assert.Equal(t, "cited_by_count:desc", params.Get(ParamSort))
	})

	t.Run("blank query is omitted", func(t *testing.T) {
		params := BuildSearchParams(domain.SearchRequest{Query: "   "})
		assert.False(t, params.Has(ParamSearch))
	})

	t.Run("full request", func(t *testing.T) {
		params := BuildSearchParams(domain.SearchRequest{
			Query:       "protein folding",
			Page:        3,
			PerPage:     50,
			Sort:        domain.SortPublicationDateDesc,
			YearFrom:    domain.Year(2018),
			YearTo:      domain.Year(2022),
			AuthorName:  "Jumper",
			JournalName: "Nature",
			Subject:     "Biology",
			RawFilter:   "is_oa:true",
		})

		assert.Equal(t, "protein folding", params.Get(ParamSearch))
		assert.Equal(t, "3", params.Get(ParamPage))
		assert.Equal(t, "50", params.Get(ParamPerPage))
		assert.Equal(t, "publication_date:desc", params.Get(ParamSort))
		assert.Equal(t,
			"publication_year:2018-2022,"+
				"author.display_name.search:Jumper,"+
				"primary_location.source.display_name.search:Nature,"+
				"concepts.display_name.search:Biology,"+
				"is_oa:true",
			params.Get(ParamFilter))
	})

	t.Run("both year bounds produce one closed range", func(t *testing.T) {
		params := BuildSearchParams(domain.SearchRequest{YearFrom: domain.Year(2020), YearTo: domain.Year(2020)})

		filter := params.Get(ParamFilter)
		assert.Equal(t, "publication_year:2020-2020", filter)
		assert.Equal(t, 1, strings.Count(filter, "publication_year"))
	})

	t.Run("raw filter is appended after other clauses", func(t *testing.T) {
		params := BuildSearchParams(domain.SearchRequest{
			AuthorName: "Curie",
			RawFilter:  "cited_by_count:>100",
		})
		assert.Equal(t, "author.display_name.search:Curie,cited_by_count:>100", params.Get(ParamFilter))
	})

	t.Run("per page is clamped", func(t *testing.T) {
		params := BuildSearchParams(domain.SearchRequest{PerPage: 1000})
		assert.Equal(t, "200", params.Get(ParamPerPage))
	})

	t.Run("relevance without query falls back to default sort", func(t *testing.T) {
		params := BuildSearchParams(domain.SearchRequest{Sort: domain.SortRelevanceDesc})
		assert.Equal(t, "cited_by_count:desc", params.Get(ParamSort))

		params = BuildSearchParams(domain.SearchRequest{Query: "llm", Sort: domain.SortRelevanceDesc})
		assert.Equal(t, "relevance_score:desc", params.Get(ParamSort))
	})

	t.Run("never emits an empty filter", func(t *testing.T) {
		requests := []domain.SearchRequest{
			{},
			{Query: "x"},
			{AuthorName: ","},
			{JournalName: "  "},
			{Subject: ",,,"},
			{RawFilter: "   "},
		}
		for _, req := range requests {
			params := BuildSearchParams(req)
			if params.Has(ParamFilter) {
				assert.NotEmpty(t, params.Get(ParamFilter))
			}
		}
	})
}

func TestSortParam(t *testing.T) {
	assert.Equal(t, "cited_by_count:desc", SortParam(domain.SortCitationCountDesc))
	assert.Equal(t, "publication_date:desc", SortParam(domain.SortPublicationDateDesc))
	assert.Equal(t, "display_name:asc", SortParam(domain.SortTitleAscending))
	assert.Equal(t, "relevance_score:desc", SortParam(domain.SortRelevanceDesc))
	assert.Equal(t, "cited_by_count:desc", SortParam("bogus"))
}

func TestRelatedParams(t *testing.T) {
	params, err := RelatedParams("W2741809807", 5)
	require.NoError(t, err)

	assert.Equal(t, "related_to:W2741809807", params.Get(ParamFilter))
	assert.Equal(t, "5", params.Get(ParamPerPage))
	assert.Equal(t, "1", params.Get(ParamPage))

	params, err = RelatedParams("https://openalex.org/W2741809807", 0)
	require.NoError(t, err)
	assert.Equal(t, "related_to:W2741809807", params.Get(ParamFilter))
	assert.Equal(t, "25", params.Get(ParamPerPage))

	for _, id := range []string{"", "   ", "10.1038/nature12373", "https://doi.org/10.1038/nature12373", "A123", "W12x"} {
		_, err := RelatedParams(id, 5)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "id %q", id)
	}
}

func TestWorkID(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"W2741809807", "W2741809807", true},
		{"w42", "W42", true},
		{" https://openalex.org/W7 ", "W7", true},
		{"", "", false},
		{"W", "", false},
		{"10.1038/nature12373", "", false},
		{"doi:10.1038/nature12373", "", false},
		{"local:5f1c", "", false},
	}

	for _, tt := range tests {
		got, ok := WorkID(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestPopularParams(t *testing.T) {
	authors := PopularAuthorsParams(30)
	assert.Equal(t, "30", authors.Get(ParamPerPage))
	assert.Equal(t, "cited_by_count:desc", authors.Get(ParamSort))
	assert.False(t, authors.Has(ParamFilter))

	journals := PopularJournalsParams(0)
	assert.Equal(t, "25", journals.Get(ParamPerPage))
	assert.Equal(t, "type:journal", journals.Get(ParamFilter))
}
