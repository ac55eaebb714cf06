package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lehigh-university-libraries/bookintegrate/internal/config"
	"github.com/lehigh-university-libraries/bookintegrate/internal/export"
	"github.com/lehigh-university-libraries/bookintegrate/internal/output"
)

func newExportCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Convert the published parquet tables to CSV (and optionally XLSX)",
		Long: `Read dim_book, book_source_detail and books_staging back from their parquet
files and write one comma-separated file per table. List columns are joined
with '|'. With --xlsx a workbook with one sheet per table is written too.`,
		Example: `  # CSVs into ./export
  bookintegrate export

  # CSVs plus a workbook into ./reports
  bookintegrate export --dir reports --xlsx`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd,
				flagBinding{"standard-dir", config.KeyStandardDir},
				flagBinding{"staging-dir", config.KeyStagingDir},
				flagBinding{"dir", config.KeyExportDir},
				flagBinding{"xlsx", config.KeyExportXLSX},
			)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Resolve(v)
			if err != nil {
				return err
			}

			tables, err := export.LoadTables(settings.StandardDir, settings.StagingDir)
			if err != nil {
				return err
			}

			artifacts := export.Artifacts(settings.Export.Dir, settings.Export.XLSX, tables...)
			if err := output.Publish(artifacts...); err != nil {
				return err
			}

			for _, a := range artifacts {
				fmt.Fprintln(cmd.OutOrStdout(), a.Path)
			}
			return nil
		},
	}

	cmd.Flags().String("standard-dir", "standard", "Directory holding the canonical and lineage tables")
	cmd.Flags().String("staging-dir", "staging", "Directory holding the staging table")
	cmd.Flags().String("dir", "export", "Output directory")
	cmd.Flags().Bool("xlsx", false, "Also write a workbook with one sheet per table")

	return cmd
}
