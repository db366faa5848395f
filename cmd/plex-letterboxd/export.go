package main

import (
	"context"
	"fmt"
	"io"

	"github.com/harrietfigueroa/plex-to-letterboxd/internal/client"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/config"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/export"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/metrics"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/models"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/parser"
	"github.com/harrietfigueroa/plex-to-letterboxd/internal/services"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newExportCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Fetch the full watch history and write the Letterboxd CSV",
		Long: `Walks the Plex watch history page by page, resolves every watched item to
an IMDb id and writes Title,imdbID,WatchedDate,Tags rows. Items without an
IMDb id are skipped and counted. If the run aborts, the records gathered
before the failure are still written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), config.GetConfig(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "", "CSV output path")
	flags.Int("account-id", 0, "Plex account id to export (0 for every account)")
	flags.String("section", "", "Only export history from this library section id")
	flags.Int("concurrency", 0, "Metadata lookups in flight")
	flags.Bool("date-only", false, "Write WatchedDate as YYYY-MM-DD")
	flags.String("tags", "", "Value of the Tags column")
	flags.String("metrics-textfile", "", "Write run metrics to this node-exporter textfile")
	bindFlags(v, flags, map[string]string{
		"export.output_path":      "output",
		"plex.account_id":         "account-id",
		"plex.library_section_id": "section",
		"pipeline.concurrency":    "concurrency",
		"export.date_only":        "date-only",
		"export.tags":             "tags",
		"metrics.textfile":        "metrics-textfile",
	})

	return cmd
}

// runExport runs one export with cfg and prints the run summary to out.
func runExport(ctx context.Context, cfg *config.Config, out io.Writer) error {
	logger := config.GetLogger()

	flush, err := initSentry(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialise Sentry, continuing without error reporting")
	}
	defer flush()

	logger.Info().
		Str("plex_url", cfg.Plex.URL).
		Int("account_id", cfg.Plex.AccountID).
		Str("library_section_id", cfg.Plex.LibrarySectionID).
		Str("output", cfg.Export.OutputPath).
		Msg("Export started with configuration")

	plex := client.NewClient(cfg)
	defer plex.Close()

	exporter := services.NewHistoryExporter(plex, services.ExporterOptions{
		Concurrency: cfg.Pipeline.Concurrency,
		Tags:        cfg.Export.Tags,
		Resolver:    parser.NewGUIDResolver(),
		Reporter:    services.NewLogReporter(logger),
	})

	result, runErr := exporter.Export(ctx)
	if runErr != nil {
		reportError(runErr)
	}

	if result != nil && (runErr == nil || len(result.Records) > 0) {
		if err := export.WriteFile(cfg.Export.OutputPath, result.Records, export.Options{DateOnly: cfg.Export.DateOnly}); err != nil {
			reportError(err)
			if runErr == nil {
				runErr = err
			} else {
				logger.Error().Err(err).Msg("Failed to write partial CSV")
			}
		}
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Metrics.Textfile).Msg("Failed to write metrics textfile")
		}
	}

	if result != nil {
		printSummary(out, result.Summary, cfg.Export.OutputPath)
	}
	return runErr
}

func printSummary(out io.Writer, s models.Summary, path string) {
	fmt.Fprintf(out, "Status:     %s\n", s.Status())
	fmt.Fprintf(out, "Exported:   %d -> %s\n", s.Exported, path)
	fmt.Fprintf(out, "Skipped:    %d (no metadata %d, no imdb id %d, transport %d)\n",
		s.Skipped(), s.SkippedNoMetadata, s.SkippedNoIMDbID, s.SkippedTransportFailure)
	fmt.Fprintf(out, "Duplicates: %d\n", s.Duplicates)
	fmt.Fprintf(out, "Pages:      %d\n", s.PagesFetched)
}
