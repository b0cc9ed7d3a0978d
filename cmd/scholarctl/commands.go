package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/helixir/scholarview/internal/domain"
)

func newSearchCmd(service func() queryService, opts *globalOptions) *cobra.Command {
	var (
		req      domain.SearchRequest
		sort     string
		tab      string
		yearFrom int
		yearTo   int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search works",
		Long: `Search works by free text and optional filters. Without a query the most
cited works matching the filters are returned.

Tabs apply the browser presets: mostCited keeps works cited more than 100
times, recent keeps works from the last two years sorted by date.`,
		Example: `  scholarctl search "graph neural networks" --year-from 2020 --per-page 10
  scholarctl search --author "Hinton" --sort publication-date-desc -o yaml
  scholarctl search transformers --tab recent`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := service()
			req.Query = strings.Join(args, " ")
			req.Sort = domain.SortKey(sort)
			if cmd.Flags().Changed("year-from") {
				req.YearFrom = domain.Year(yearFrom)
			}
			if cmd.Flags().Changed("year-to") {
				req.YearTo = domain.Year(yearTo)
			}

			switch t := domain.Tab(tab); t {
			case "", domain.TabAll:
			case domain.TabMostCited, domain.TabRecent:
				req = req.WithTab(t, svc.Now())
			default:
				return fmt.Errorf("unknown tab %q: use all, mostCited, or recent", tab)
			}

			page, err := svc.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, page)
		},
	}

	f := cmd.Flags()
	f.IntVar(&req.Page, "page", 1, "result page, starting at 1")
	f.IntVar(&req.PerPage, "per-page", domain.DefaultPerPage, "results per page (max 200)")
	f.IntVar(&yearFrom, "year-from", 0, "earliest publication year, inclusive")
	f.IntVar(&yearTo, "year-to", 0, "latest publication year, inclusive")
	f.StringVar(&req.AuthorName, "author", "", "author name substring")
	f.StringVar(&req.JournalName, "journal", "", "journal name substring")
	f.StringVar(&req.Subject, "subject", "", "subject (concept) name substring")
	f.StringVar(&sort, "sort", string(domain.DefaultSort), "citation-count-desc, publication-date-desc, title-ascending, or relevance-desc")
	f.StringVar(&req.RawFilter, "filter", "", "raw OpenAlex filter appended to the built filter")
	f.StringVar(&tab, "tab", "", "preset view: all, mostCited, or recent")

	return cmd
}

func newGetCmd(service func() queryService, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a single work by OpenAlex ID or DOI",
		Example: `  scholarctl get W2741809807
  scholarctl get 10.1038/nature12373`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paper, err := service().GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if paper == nil {
				return domain.NewNotFoundError("work", args[0])
			}
			return render(cmd.OutOrStdout(), opts.output, paper)
		},
	}
}

func newRelatedCmd(service func() queryService, opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "related <id>",
		Short: "List works related to a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			papers := service().GetRelated(cmd.Context(), args[0], limit)
			return render(cmd.OutOrStdout(), opts.output, papers)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 5, "maximum number of related works")
	return cmd
}

func newAuthorsCmd(service func() queryService, opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "authors",
		Short: "List the most cited authors",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.OutOrStdout(), opts.output, service().ListPopularAuthors(cmd.Context(), limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 30, "number of authors")
	return cmd
}

func newJournalsCmd(service func() queryService, opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "journals",
		Short: "List the most cited journals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return render(cmd.OutOrStdout(), opts.output, service().ListPopularJournals(cmd.Context(), limit))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 30, "number of journals")
	return cmd
}

// citation is the rendered form of the cite command.
type citation struct {
	ID       string `json:"id"`
	Style    string `json:"style"`
	Citation string `json:"citation"`
}

func newCiteCmd(service func() queryService, opts *globalOptions) *cobra.Command {
	var style string

	cmd := &cobra.Command{
		Use:     "cite <id>",
		Short:   "Format a citation for a work",
		Example: `  scholarctl cite W2741809807 --style bibtex`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := domain.CitationStyle(strings.ToLower(style))
			switch s {
			case domain.CitationAPA, domain.CitationMLA, domain.CitationChicago, domain.CitationBibTeX, domain.CitationPlain:
			default:
				return fmt.Errorf("unknown style %q: use apa, mla, chicago, bibtex, or plain", style)
			}

			text, err := service().FormatCitation(cmd.Context(), args[0], s)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), opts.output, citation{ID: args[0], Style: string(s), Citation: text})
		},
	}
	cmd.Flags().StringVar(&style, "style", string(domain.CitationAPA), "apa, mla, chicago, bibtex, or plain")
	return cmd
}
