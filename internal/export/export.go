// Package export converts the published parquet tables into flat files
// for people who do not read parquet: one CSV per table and optionally a
// single XLSX workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lehigh-university-libraries/bookintegrate/internal/dedup"
	"github.com/lehigh-university-libraries/bookintegrate/internal/output"
	"github.com/lehigh-university-libraries/bookintegrate/internal/quality"
	"github.com/lehigh-university-libraries/bookintegrate/internal/staging"
	"github.com/lehigh-university-libraries/bookintegrate/internal/table"
)

// WorkbookName is the XLSX file written next to the CSVs
const WorkbookName = "books.xlsx"

// LoadTables reads the published parquet artifacts back as tables
func LoadTables(standardDir, stagingDir string) ([]table.Table, error) {
	books, err := output.ReadParquet[dedup.CanonicalBook](filepath.Join(standardDir, quality.DimBook+".parquet"))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", quality.DimBook, err)
	}

	details, err := output.ReadParquet[dedup.SourceDetail](filepath.Join(standardDir, quality.BookSourceDetail+".parquet"))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", quality.BookSourceDetail, err)
	}

	records, err := output.ReadParquet[staging.Record](filepath.Join(stagingDir, quality.BooksStaging+".parquet"))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", quality.BooksStaging, err)
	}

	return []table.Table{
		table.New(quality.DimBook, books),
		table.New(quality.BookSourceDetail, details),
		table.New(quality.BooksStaging, records),
	}, nil
}

// Artifacts returns one CSV per table in dir, plus the workbook when
// withWorkbook is set.
func Artifacts(dir string, withWorkbook bool, tables ...table.Table) []output.Artifact {
	artifacts := make([]output.Artifact, 0, len(tables)+1)
	for _, t := range tables {
		artifacts = append(artifacts, output.Artifact{
			Path: filepath.Join(dir, t.Name+".csv"),
			Render: func(w io.Writer) error {
				return WriteCSV(w, t)
			},
		})
	}

	if withWorkbook {
		artifacts = append(artifacts, output.Artifact{
			Path: filepath.Join(dir, WorkbookName),
			Render: func(w io.Writer) error {
				return WriteXLSX(w, tables...)
			},
		})
	}
	return artifacts
}

// WriteCSV writes a comma separated file with a header row. Nulls are
// empty fields and lists are pipe-joined.
func WriteCSV(w io.Writer, t table.Table) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.Names()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := 0; i < t.Rows; i++ {
		if err := writer.Write(t.Row(i)); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// WriteXLSX writes a workbook with one sheet per table, keeping numbers,
// booleans and timestamps as typed cells.
func WriteXLSX(w io.Writer, tables ...table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		idx, err := f.NewSheet(t.Name)
		if err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}
		if i == 0 {
			f.SetActiveSheet(idx)
		}

		header := make([]any, len(t.Columns))
		for c, name := range t.Names() {
			header[c] = name
		}
		if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", t.Name, err)
		}

		for r := 0; r < t.Rows; r++ {
			row := make([]any, len(t.Columns))
			for c, col := range t.Columns {
				row[c] = cellValue(col.Values[r])
			}

			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return fmt.Errorf("failed to address row %d: %w", r+2, err)
			}
			if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
				return fmt.Errorf("failed to write row %d of %s: %w", r+1, t.Name, err)
			}
		}
	}

	if len(tables) > 0 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("failed to drop default sheet: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func cellValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64, int64, bool:
		return x
	case time.Time:
		return x.UTC()
	default:
		return table.Format(v)
	}
}
