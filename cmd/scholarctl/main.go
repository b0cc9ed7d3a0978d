// Package main is the entry point for scholarctl, a command-line client
// for the scholarview bibliographic query service.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/helixir/scholarview/internal/config"
	"github.com/helixir/scholarview/internal/domain"
	"github.com/helixir/scholarview/internal/observability"
	"github.com/helixir/scholarview/internal/scholar"
)

// version is set at build time via ldflags.
var version = "dev"

// queryService is the part of the query service the CLI drives.
type queryService interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResultPage, error)
	GetByID(ctx context.Context, id string) (*domain.PaperRecord, error)
	FormatCitation(ctx context.Context, id string, style domain.CitationStyle) (string, error)
	GetRelated(ctx context.Context, id string, limit int) []domain.PaperRecord
	ListPopularAuthors(ctx context.Context, limit int) []string
	ListPopularJournals(ctx context.Context, limit int) []string
	Now() time.Time
}

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	output  string
	email   string
	baseURL string
	verbose bool
}

// serviceFactory builds the query service once flags are parsed.
type serviceFactory func(opts *globalOptions) (queryService, error)

// newService loads configuration, applies flag overrides, and assembles the
// query service. Logs go to stderr so stdout stays machine-readable.
func newService(opts *globalOptions) (queryService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.email != "" {
		cfg.OpenAlex.Email = opts.email
	}
	if opts.baseURL != "" {
		cfg.OpenAlex.BaseURL = opts.baseURL
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:  level,
		Format: "console",
		Output: "stderr",
	})

	return scholar.NewFromConfig(cfg, nil, observability.WithComponent(logger, "scholarctl")), nil
}

// newRootCmd builds the command tree. Output is written to out.
func newRootCmd(factory serviceFactory, out io.Writer) *cobra.Command {
	opts := &globalOptions{}
	var svc queryService

	root := &cobra.Command{
		Use:   "scholarctl",
		Short: "Query the OpenAlex scholarly catalogue",
		Long: `scholarctl searches works, looks up single papers and related works, lists
the most cited authors and journals, and formats citations.

Configuration is read the same way as the server: an optional .env file,
config.yaml, and SCHOLARVIEW_* environment variables. Results are printed
as JSON or YAML.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case formatJSON, formatYAML:
			default:
				return fmt.Errorf("unsupported output format %q: use json or yaml", opts.output)
			}
			s, err := factory(opts)
			if err != nil {
				return err
			}
			svc = s
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&opts.output, "output", "o", formatJSON, "output format: json or yaml")
	root.PersistentFlags().StringVar(&opts.email, "email", "", "contact address sent as mailto (overrides SCHOLARVIEW_OPENALEX_EMAIL)")
	root.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "OpenAlex API base URL")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	service := func() queryService { return svc }

	root.AddCommand(
		newSearchCmd(service, opts),
		newGetCmd(service, opts),
		newRelatedCmd(service, opts),
		newAuthorsCmd(service, opts),
		newJournalsCmd(service, opts),
		newCiteCmd(service, opts),
	)

	return root
}

func main() {
	if err := newRootCmd(newService, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
