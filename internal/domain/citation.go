package domain

import (
	"fmt"
	"strings"
)

// CitationStyle selects the reference format produced by FormatCitation.
type CitationStyle string

const (
	CitationAPA     CitationStyle = "apa"
	CitationMLA     CitationStyle = "mla"
	CitationChicago CitationStyle = "chicago"
	CitationBibTeX  CitationStyle = "bibtex"
	CitationPlain   CitationStyle = "plain"
)

// placeholderDOI stands in for a missing DOI in formats that require one.
const placeholderDOI = "10.xxxx/xxxxx"

// FormatCitation renders p in the requested style. Unknown styles fall back
// to the plain format.
func FormatCitation(p PaperRecord, style CitationStyle) string {
	authors := p.Authors
	if len(authors) == 0 {
		authors = []string{UnknownAuthor}
	}
	names := strings.Join(authors, ", ")
	doi := p.DOI
	if doi == "" {
		doi = placeholderDOI
	}

	switch style {
	case CitationAPA:
		return fmt.Sprintf("%s. (%d). %s. %s. https://doi.org/%s", names, p.Year, p.Title, p.Journal, doi)
	case CitationMLA:
		return fmt.Sprintf("%s. %q. %s, %d. Web.", names, p.Title, p.Journal, p.Year)
	case CitationChicago:
		return fmt.Sprintf("%s. %q. %s (%d).", names, p.Title, p.Journal, p.Year)
	case CitationBibTeX:
		var b strings.Builder
		fmt.Fprintf(&b, "@article{%s%d,\n", bibtexKeyPrefix(authors[0]), p.Year)
		fmt.Fprintf(&b, "  title = {%s},\n", p.Title)
		fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(authors, " and "))
		fmt.Fprintf(&b, "  journal = {%s},\n", p.Journal)
		fmt.Fprintf(&b, "  year = {%d},\n", p.Year)
		fmt.Fprintf(&b, "  doi = {%s}\n", doi)
		b.WriteString("}")
		return b.String()
	default:
		return fmt.Sprintf("%s (%d). %s. %s.", names, p.Year, p.Title, p.Journal)
	}
}

// bibtexKeyPrefix is the lowercased first token of an author name.
func bibtexKeyPrefix(author string) string {
	fields := strings.Fields(author)
	if len(fields) == 0 {
		return "unknown"
	}
	return strings.ToLower(fields[0])
}
