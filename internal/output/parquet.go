// Package output renders and publishes the pipeline's artifacts.
package output

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/parquet-go/parquet-go"
)

const readBatchSize = 128

// WriteParquet writes rows as a parquet file, schema taken from T's tags
func WriteParquet[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)

	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ParquetArtifact is an artifact rendering rows as parquet
func ParquetArtifact[T any](path string, rows []T) Artifact {
	return Artifact{
		Path: path,
		Render: func(w io.Writer) error {
			return WriteParquet(w, rows)
		},
	}
}

// ReadParquet loads every row of a parquet file into T
func ReadParquet[T any](path string) ([]T, error) {
	slog.Debug("Opening Parquet file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "path", path, "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	records := make([]T, 0, pf.NumRows())
	for {
		// fresh batch each time; the reader may reuse list and pointer storage
		rows := make([]T, readBatchSize)
		n, err := reader.Read(rows)
		if n > 0 {
			records = append(records, rows[:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}

	slog.Debug("Finished reading Parquet file", "path", path, "total_records", len(records))

	return records, nil
}
