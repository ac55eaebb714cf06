package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lehigh-university-libraries/bookintegrate/internal/config"
	"github.com/lehigh-university-libraries/bookintegrate/internal/googlebooks"
	"github.com/lehigh-university-libraries/bookintegrate/internal/output"
	"github.com/lehigh-university-libraries/bookintegrate/internal/sources"
)

func newEnrichCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Look catalog records up in Google Books and write the bibliographic CSV",
		Long: `Query the Google Books volumes API once per catalog record and write the
matches as the ';'-delimited bibliographic landing file.

Records are looked up by ISBN-13, ISBN-10 or ASIN when present, otherwise by
title and author. Throttled (429) and unavailable (503) responses are retried
with a linearly growing pause; other failures skip the record.

Set GOOGLE_BOOKS_API_KEY (or put it in .env) to avoid the stricter limits on
unauthenticated calls.`,
		Example: `  # Enrich landing/goodreads_books.json into landing/googlebooks_books.csv
  bookintegrate enrich

  # Slow down and retry harder
  bookintegrate enrich --delay 1s --max-retries 5 --backoff 5s`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd,
				flagBinding{"landing", config.KeyLandingDir},
				flagBinding{"input", config.KeyGoodreadsPath},
				flagBinding{"output", config.KeyGoogleBooks},
				flagBinding{"delay", config.KeyEnrichDelay},
				flagBinding{"max-retries", config.KeyEnrichRetries},
				flagBinding{"backoff", config.KeyEnrichBackoff},
				flagBinding{"timeout", config.KeyEnrichTimeout},
			)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Resolve(v)
			if err != nil {
				return err
			}

			if settings.APIKey == "" {
				slog.Warn("No Google Books API key configured, using unauthenticated requests", "env", config.APIKeyEnv)
			}

			dataset, err := sources.NewLoader(settings.GoodreadsPath).Load()
			if err != nil {
				return fmt.Errorf("failed to load catalog records: %w", err)
			}
			if dataset.Source != sources.Goodreads {
				return fmt.Errorf("enrich expects the catalog JSON as input, got %s", settings.GoodreadsPath)
			}
			slog.Info("Loaded catalog records", "path", settings.GoodreadsPath, "records", dataset.Rows())

			client, err := googlebooks.NewClient(cmd.Context(), settings.APIKey, settings.Enrich.Timeout)
			if err != nil {
				return err
			}

			enricher := googlebooks.NewEnricher(client, googlebooks.Options{
				Delay:      settings.Enrich.Delay,
				MaxRetries: settings.Enrich.MaxRetries,
				Backoff:    settings.Enrich.Backoff,
			})

			rows, stats, err := enricher.Enrich(cmd.Context(), dataset.Records)
			if err != nil {
				return fmt.Errorf("enrichment interrupted: %w", err)
			}

			err = output.Publish(output.Artifact{
				Path: settings.GoogleBooksPath,
				Render: func(w io.Writer) error {
					return googlebooks.WriteCSV(w, rows)
				},
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved %d of %d records to %s\n", stats.Matched, stats.Records, settings.GoogleBooksPath)
			return nil
		},
	}

	defaults := googlebooks.DefaultOptions()
	cmd.Flags().String("landing", "landing", "Directory holding the landing files")
	cmd.Flags().String("input", "", "Catalog JSON to enrich (default <landing>/goodreads_books.json)")
	cmd.Flags().String("output", "", "Bibliographic CSV to write (default <landing>/googlebooks_books.csv)")
	cmd.Flags().Duration("delay", defaults.Delay, "Minimum pause between lookups")
	cmd.Flags().Int("max-retries", defaults.MaxRetries, "Attempts per lookup on 429/503 responses")
	cmd.Flags().Duration("backoff", defaults.Backoff, "Base pause between retries, multiplied by the attempt number")
	cmd.Flags().Duration("timeout", 20*time.Second, "Timeout for a single API call")

	return cmd
}
