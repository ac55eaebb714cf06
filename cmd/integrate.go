package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lehigh-university-libraries/bookintegrate/internal/config"
	"github.com/lehigh-university-libraries/bookintegrate/internal/pipeline"
)

func newIntegrateCmd(v *viper.Viper) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "integrate",
		Short: "Run the integration pipeline over the landing files",
		Long: `Load the catalog scrape (JSON) and the bibliographic export (';'-delimited CSV),
normalize and validate every record, resolve one canonical book per identity
and publish:

  standard/dim_book.parquet
  standard/book_source_detail.parquet
  staging/books_staging.parquet
  docs/quality_metrics.json (or .yaml)
  docs/schema.md

Either every artifact is written or none is.`,
		Example: `  # Run with the default landing/ layout
  bookintegrate integrate

  # Read inputs from another directory and write YAML metrics
  bookintegrate integrate --landing ./data/landing --metrics-format yaml

  # Pin the run id recorded in the lineage table
  bookintegrate integrate --run-id nightly-2024-05-01`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd,
				flagBinding{"landing", config.KeyLandingDir},
				flagBinding{"goodreads", config.KeyGoodreadsPath},
				flagBinding{"googlebooks", config.KeyGoogleBooks},
				flagBinding{"standard-dir", config.KeyStandardDir},
				flagBinding{"staging-dir", config.KeyStagingDir},
				flagBinding{"docs-dir", config.KeyDocsDir},
				flagBinding{"metrics-format", config.KeyMetricsFormat},
			)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Resolve(v)
			if err != nil {
				return err
			}

			result, err := pipeline.Run(cmd.Context(), pipeline.Options{
				GoodreadsPath:   settings.GoodreadsPath,
				GoogleBooksPath: settings.GoogleBooksPath,
				StandardDir:     settings.StandardDir,
				StagingDir:      settings.StagingDir,
				DocsDir:         settings.DocsDir,
				MetricsFormat:   settings.MetricsFormat,
				RunID:           runID,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Integration run %s complete: %d records, %d books, %d invalid\n",
				result.RunID, result.Records, result.Books, result.Invalid)
			for _, path := range []string{
				result.Paths.DimBook,
				result.Paths.SourceDetail,
				result.Paths.Staging,
				result.Paths.Metrics,
				result.Paths.Schema,
			} {
				fmt.Fprintln(out, path)
			}
			return nil
		},
	}

	cmd.Flags().String("landing", "landing", "Directory holding the landing files")
	cmd.Flags().String("goodreads", "", "Catalog JSON path (default <landing>/goodreads_books.json)")
	cmd.Flags().String("googlebooks", "", "Bibliographic CSV path (default <landing>/googlebooks_books.csv)")
	cmd.Flags().String("standard-dir", "standard", "Output directory for the canonical and lineage tables")
	cmd.Flags().String("staging-dir", "staging", "Output directory for the staging table")
	cmd.Flags().String("docs-dir", "docs", "Output directory for metrics and schema documents")
	cmd.Flags().String("metrics-format", "json", "Quality metrics format (json or yaml)")
	cmd.Flags().StringVar(&runID, "run-id", "", "Run identifier (default random UUID)")

	return cmd
}
