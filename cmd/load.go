package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lehigh-university-libraries/bookintegrate/internal/config"
	"github.com/lehigh-university-libraries/bookintegrate/internal/dedup"
	"github.com/lehigh-university-libraries/bookintegrate/internal/output"
	"github.com/lehigh-university-libraries/bookintegrate/internal/quality"
	"github.com/lehigh-university-libraries/bookintegrate/internal/warehouse"
)

func newLoadCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the canonical and lineage tables into SQLite",
		Long: `Read dim_book and book_source_detail from their parquet files and replace the
matching tables of a SQLite database in a single transaction. List columns
are stored as JSON text.`,
		Example: `  # Load into warehouse/books.db
  bookintegrate load

  # Load into another database
  bookintegrate load --db /tmp/books.db --batch-size 1000`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd,
				flagBinding{"standard-dir", config.KeyStandardDir},
				flagBinding{"db", config.KeyWarehousePath},
				flagBinding{"batch-size", config.KeyWarehouseBatch},
			)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Resolve(v)
			if err != nil {
				return err
			}

			books, err := output.ReadParquet[dedup.CanonicalBook](filepath.Join(settings.StandardDir, quality.DimBook+".parquet"))
			if err != nil {
				return err
			}
			details, err := output.ReadParquet[dedup.SourceDetail](filepath.Join(settings.StandardDir, quality.BookSourceDetail+".parquet"))
			if err != nil {
				return err
			}

			store, err := warehouse.Open(settings.Warehouse.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Replace(cmd.Context(), books, details, settings.Warehouse.BatchSize); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d books and %d source records into %s\n",
				len(books), len(details), settings.Warehouse.Path)
			return nil
		},
	}

	cmd.Flags().String("standard-dir", "standard", "Directory holding the canonical and lineage tables")
	cmd.Flags().String("db", filepath.Join("warehouse", "books.db"), "SQLite database path")
	cmd.Flags().Int("batch-size", 500, "Rows per insert statement")

	return cmd
}
