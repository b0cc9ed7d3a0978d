package openalex

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/helixir/scholarview/internal/domain"
)

const (
	// doiPrefix is the URL prefix that OpenAlex uses for DOIs.
	doiPrefix = "https://doi.org/"

	// openAlexIDPrefix is the URL prefix for OpenAlex IDs.
	openAlexIDPrefix = "https://openalex.org/"

	// localIDPrefix marks identifiers generated for works without one.
	localIDPrefix = "local:"

	// maxAbstractWords bounds inverted-index reconstruction.
	maxAbstractWords = 100_000
)

// localIDNamespace scopes the name-based UUIDs given to works without an id.
var localIDNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://openalex.org/works#local"))

// Fields reported to Normalizer.OnDefault.
const (
	FieldID       = "id"
	FieldTitle    = "title"
	FieldAuthors  = "authors"
	FieldAbstract = "abstract"
	FieldYear     = "year"
	FieldJournal  = "journal"
	FieldLink     = "link"
)

// Normalizer maps raw OpenAlex work documents onto domain.PaperRecord.
// The zero value is ready to use. It holds no state between calls.
type Normalizer struct {
	// Now supplies the year used when a work has none. Defaults to time.Now.
	Now func() time.Time

	// OnDefault is called with the field name whenever a placeholder is
	// substituted. May be nil.
	OnDefault func(field string)
}

func (n *Normalizer) now() time.Time {
	if n.Now != nil {
		return n.Now()
	}
	return time.Now()
}

// localID derives a stable identifier from the work's content, so the same
// cached payload always yields the same record.
func localID(work Doc) string {
	// Map keys are encoded in sorted order, which makes the bytes canonical.
	data, err := json.Marshal(work)
	if err != nil {
		return uuid.Nil.String()
	}
	return uuid.NewSHA1(localIDNamespace, data).String()
}

func (n *Normalizer) defaulted(field string) {
	if n.OnDefault != nil {
		n.OnDefault(field)
	}
}

// Normalize converts one work. A nil document yields nil so batch callers
// can drop it; every other input yields a fully populated record.
func (n *Normalizer) Normalize(work Doc) *domain.PaperRecord {
	if work == nil {
		return nil
	}

	p := &domain.PaperRecord{
		ID:              normalizeOpenAlexID(work.String("", "id")),
		Title:           work.String("", "title"),
		Authors:         n.authors(work),
		Abstract:        n.abstract(work),
		Year:            work.Int(0, "publication_year"),
		Journal:         work.String("", "primary_location", "source", "display_name"),
		Citations:       work.Int(0, "cited_by_count"),
		DOI:             normalizeDOI(work.String("", "doi")),
		Concepts:        concepts(work),
		OpenAccess:      work.Bool(work.Bool(false, "is_oa"), "open_access", "is_oa"),
		PublicationDate: work.String("", "publication_date"),
	}

	if p.ID == "" {
		p.ID = localIDPrefix + localID(work)
		n.defaulted(FieldID)
	}
	if p.Title == "" {
		p.Title = work.String("", "display_name")
	}
	if p.Title == "" {
		p.Title = domain.UnknownTitle
		n.defaulted(FieldTitle)
	}
	if p.Year <= 0 {
		p.Year = n.now().Year()
		n.defaulted(FieldYear)
	}
	if p.Journal == "" {
		p.Journal = domain.UnknownJournal
		n.defaulted(FieldJournal)
	}
	if p.Citations < 0 {
		p.Citations = 0
	}
	if p.DOI == "" {
		p.DOI = normalizeDOI(work.String("", "ids", "doi"))
	}

	switch oaURL := work.String("", "open_access", "oa_url"); {
	case p.DOI != "":
		p.Link = doiPrefix + p.DOI
	case oaURL != "":
		p.Link = oaURL
	default:
		p.Link = domain.NoLink
		n.defaulted(FieldLink)
	}

	return p
}

// NormalizePage converts a works list response into a result page. Null
// entries in results are dropped. TotalPages comes from meta.count and
// the requested page size, not from the number of records returned.
func (n *Normalizer) NormalizePage(resp Doc, page, perPage int) *domain.SearchResultPage {
	results := resp.Docs("results")
	papers := make([]domain.PaperRecord, 0, len(results))
	for _, work := range results {
		if p := n.Normalize(work); p != nil {
			papers = append(papers, *p)
		}
	}

	total := resp.Int(0, "meta", "count")
	if total < 0 {
		total = 0
	}

	return &domain.SearchResultPage{
		Papers:      papers,
		TotalCount:  total,
		CurrentPage: page,
		TotalPages:  domain.TotalPages(total, perPage),
		PerPage:     perPage,
	}
}

func (n *Normalizer) authors(work Doc) []string {
	authorships := work.Docs("authorships")
	names := make([]string, 0, len(authorships))
	for _, a := range authorships {
		names = append(names, a.String(domain.UnknownAuthor, "author", "display_name"))
	}
	if len(names) == 0 {
		n.defaulted(FieldAuthors)
		return []string{domain.UnknownAuthor}
	}
	return names
}

func (n *Normalizer) abstract(work Doc) string {
	if text := reconstructAbstract(work.Sub("abstract_inverted_index")); text != "" {
		return text
	}
	if text := work.String("", "abstract"); text != "" {
		return text
	}
	n.defaulted(FieldAbstract)
	return domain.MissingAbstract
}

// concepts returns the highest scoring named concepts, at most
// domain.MaxConcepts, in descending score order.
func concepts(work Doc) []domain.Concept {
	raw := work.Docs("concepts")
	out := make([]domain.Concept, 0, len(raw))
	for _, c := range raw {
		name := c.String("", "display_name")
		if name == "" {
			continue
		}
		out = append(out, domain.Concept{Name: name, Score: c.Float(0, "score")})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if len(out) > domain.MaxConcepts {
		out = out[:domain.MaxConcepts]
	}
	return out
}

// NamesFrom returns the display names of a list response's results,
// skipping entries without one.
func NamesFrom(resp Doc) []string {
	results := resp.Docs("results")
	names := make([]string, 0, len(results))
	for _, r := range results {
		if name := r.String("", "display_name"); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// normalizeDOI strips the resolver prefix from DOIs and returns lowercase.
func normalizeDOI(doi string) string {
	if doi == "" {
		return ""
	}
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, doiPrefix)
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(strings.TrimSpace(doi))
}

// normalizeOpenAlexID extracts the short ID from full OpenAlex URLs.
func normalizeOpenAlexID(id string) string {
	if id == "" {
		return ""
	}
	id = strings.TrimPrefix(id, openAlexIDPrefix)
	return strings.TrimSpace(id)
}

// reconstructAbstract rebuilds abstract text from OpenAlex's inverted index,
// which maps each word to the positions it occupies.
func reconstructAbstract(invertedIndex Doc) string {
	if len(invertedIndex) == 0 {
		return ""
	}

	type posWord struct {
		pos  int
		word string
	}
	totalPairs := 0
	for word := range invertedIndex {
		totalPairs += len(invertedIndex.Slice(word))
	}
	if totalPairs == 0 || totalPairs > maxAbstractWords {
		return ""
	}

	pairs := make([]posWord, 0, totalPairs)
	for word := range invertedIndex {
		for _, v := range invertedIndex.Slice(word) {
			pos, ok := intValue(v)
			if !ok || pos < 0 {
				continue
			}
			pairs = append(pairs, posWord{pos: pos, word: word})
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].pos == pairs[j].pos {
			return pairs[i].word < pairs[j].word
		}
		return pairs[i].pos < pairs[j].pos
	})

	var builder strings.Builder
	builder.Grow(totalPairs * 7)
	for i, pair := range pairs {
		if i > 0 {
			builder.WriteByte(' ')
		}
		builder.WriteString(pair.word)
	}

	return strings.TrimSpace(builder.String())
}
