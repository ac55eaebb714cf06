package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lehigh-university-libraries/bookintegrate/internal/config"
	"github.com/lehigh-university-libraries/bookintegrate/internal/dedup"
	"github.com/lehigh-university-libraries/bookintegrate/internal/warehouse"
)

func newLineageCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lineage <book_id>",
		Short: "Show a canonical book and the source records resolved to it",
		Long: `Look a book id up in the SQLite warehouse written by 'load' and print the
surviving canonical row followed by every source record that shares the id,
in lineage order, with the validation rules each one broke.

A book whose source records all failed validation has lineage but no
canonical row.`,
		Example: `  # Inspect a book by ISBN-13
  bookintegrate lineage 9781491912058

  # Against another database
  bookintegrate lineage 9781491912058 --db /tmp/books.db`,
		Args: cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd,
				flagBinding{"db", config.KeyWarehousePath},
			)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Resolve(v)
			if err != nil {
				return err
			}
			bookID := strings.TrimSpace(args[0])

			store, err := warehouse.Open(settings.Warehouse.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			book, err := store.Book(cmd.Context(), bookID)
			if err != nil && !errors.Is(err, warehouse.ErrNotFound) {
				return err
			}
			details, err := store.Lineage(cmd.Context(), bookID)
			if err != nil {
				return err
			}
			if book == nil && len(details) == 0 {
				return fmt.Errorf("%w: %s", warehouse.ErrNotFound, bookID)
			}

			printLineage(cmd.OutOrStdout(), bookID, book, details)
			return nil
		},
	}

	cmd.Flags().String("db", filepath.Join("warehouse", "books.db"), "SQLite database path")

	return cmd
}

func printLineage(w io.Writer, bookID string, book *dedup.CanonicalBook, details []dedup.SourceDetail) {
	fmt.Fprintf(w, "BOOK %s\n", bookID)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	if book == nil {
		fmt.Fprintln(w, "No canonical row: every source record failed validation")
	} else {
		fmt.Fprintf(w, "Title:          %s\n", text(book.Title))
		fmt.Fprintf(w, "Authors:        %s\n", strings.Join(book.Authors, ", "))
		fmt.Fprintf(w, "Publisher:      %s\n", text(book.Publisher))
		fmt.Fprintf(w, "ISBN-13:        %s\n", text(book.ISBN13))
		fmt.Fprintf(w, "Categories:     %s\n", strings.Join(book.Categories, ", "))
		if book.Price != nil {
			fmt.Fprintf(w, "Price:          %.2f %s\n", *book.Price, text(book.Currency))
		}
		fmt.Fprintf(w, "Winning source: %s\n", book.WinningSource)
	}

	fmt.Fprintf(w, "\n%d source records\n", len(details))
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, d := range details {
		status := "valid"
		if d.HasError {
			status = strings.Join(d.ErrorCodes, ", ")
		}
		fmt.Fprintf(w, "#%-4d %-12s %s row %d: %s [%s]\n",
			d.SourceID, d.SourceName, d.SourceFile, d.SourceRow, text(d.Title), status)
	}
}

func text(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
