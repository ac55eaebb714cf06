package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lehigh-university-libraries/bookintegrate/internal/config"
)

func NewRootCmd() *cobra.Command {
	v := config.New()

	var configFile string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bookintegrate",
		Short: "Merge catalog and bibliographic book metadata into one deduplicated catalog",
		Long: `Bookintegrate merges book metadata scraped from a catalog site with records
from the Google Books API into a single canonical catalog.

Every input record is kept in a lineage table together with the validation
rules it broke, and each run publishes data-quality metrics and a schema
document alongside the parquet tables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logLevel := slog.LevelInfo
			if verbose {
				logLevel = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
			slog.SetDefault(logger)

			// Load .env files if present (ignore missing)
			config.LoadEnvFiles()

			return config.ReadFile(v, configFile)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ./bookintegrate.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newIntegrateCmd(v))
	cmd.AddCommand(newEnrichCmd(v))
	cmd.AddCommand(newExportCmd(v))
	cmd.AddCommand(newLoadCmd(v))
	cmd.AddCommand(newLineageCmd(v))

	return cmd
}

// flagBinding ties a command line flag to a config key
type flagBinding struct {
	flag string
	key  string
}

// bindFlags binds cmd's flags onto viper keys. It runs just before the
// selected command so that commands sharing a key do not override each
// other's flags.
func bindFlags(v *viper.Viper, cmd *cobra.Command, bindings ...flagBinding) error {
	for _, b := range bindings {
		flag := cmd.Flags().Lookup(b.flag)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", b.flag)
		}
		if err := v.BindPFlag(b.key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", b.flag, err)
		}
	}
	return nil
}
