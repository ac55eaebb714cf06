package sources

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/spf13/cast"
)

// LoadCatalog reads the catalog scrape: a JSON array of objects with the
// optional fields title, author, rating, ratings_count, book_url, isbn10,
// isbn13 and asin. Unknown fields are counted as columns but otherwise ignored.
func LoadCatalog(path string) (*Dataset, error) {
	slog.Debug("Opening catalog file", "path", path)

	file, size, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var raw []map[string]any
	decoder := json.NewDecoder(file)
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse catalog JSON: %w", err)
	}

	columns := make(map[string]bool)
	records := make([]Record, 0, len(raw))
	for i, obj := range raw {
		for key := range obj {
			columns[key] = true
		}
		records = append(records, catalogRecord(obj, filepath.Base(path), i+1))
	}

	slog.Debug("Finished reading catalog file", "total_records", len(records), "columns", len(columns))

	return &Dataset{
		Source:    Goodreads,
		Path:      path,
		Records:   records,
		Columns:   len(columns),
		SizeBytes: size,
	}, nil
}

func catalogRecord(obj map[string]any, file string, row int) Record {
	rec := Record{
		Title:      text(obj["title"]),
		Author:     text(obj["author"]),
		BookURL:    text(obj["book_url"]),
		ISBN10:     text(obj["isbn10"]),
		ISBN13:     text(obj["isbn13"]),
		ASIN:       text(obj["asin"]),
		SourceName: Goodreads,
		SourceFile: file,
		RowNumber:  row,
	}

	switch v := obj["rating"].(type) {
	case nil:
	case json.Number:
		if f, err := v.Float64(); err == nil && !math.IsNaN(f) {
			rec.Rating = &f
		}
	default:
		rec.RatingRaw = text(v)
	}

	if v := obj["ratings_count"]; v != nil {
		if n, err := cast.ToInt64E(v); err == nil {
			rec.RatingsCount = &n
		} else {
			slog.Debug("Unparseable ratings_count", "file", file, "row", row, "value", v)
		}
	}

	return rec
}

// text converts a loosely typed JSON value into an optional string
func text(v any) *string {
	if v == nil {
		return nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return nil
	}
	return strPtr(s)
}
