package sources

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Delimiter separates fields in the bibliographic export
const Delimiter = ';'

// naValues are cell contents treated as missing, matching what spreadsheet
// and dataframe tooling writes for empty values.
var naValues = map[string]bool{
	"":     true,
	"#N/A": true,
	"N/A":  true,
	"NA":   true,
	"n/a":  true,
	"NaN":  true,
	"nan":  true,
	"-NaN": true,
	"-nan": true,
	"NULL": true,
	"null": true,
	"None": true,
	"<NA>": true,
}

// LoadBibliographic reads the bibliographic API export: ';'-delimited UTF-8
// text with a header row. Recognized columns are title, subtitle, authors,
// publisher, pub_date, language, categories, isbn13, isbn10, asin,
// price_amount and price_currency; absent columns read as missing values.
func LoadBibliographic(path string) (*Dataset, error) {
	slog.Debug("Opening bibliographic file", "path", path)

	file, size, err := openInput(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(bomSkipper(file))
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("bibliographic file %s has no header row", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	base := filepath.Base(path)
	var records []Record
	row := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV at row %d: %w", row+1, err)
		}
		if len(fields) > len(header) {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d has %d fields, header has %d", line, len(fields), len(header))
		}
		row++

		cell := func(column string) *string {
			i, ok := index[column]
			if !ok || i >= len(fields) || naValues[fields[i]] {
				return nil
			}
			return strPtr(fields[i])
		}

		rec := Record{
			Title:      cell("title"),
			Subtitle:   cell("subtitle"),
			Authors:    cell("authors"),
			Publisher:  cell("publisher"),
			PubDate:    cell("pub_date"),
			Language:   cell("language"),
			Categories: cell("categories"),
			ISBN13:     cell("isbn13"),
			ISBN10:     cell("isbn10"),
			ASIN:       cell("asin"),
			Currency:   cell("price_currency"),
			SourceName: GoogleBooks,
			SourceFile: base,
			RowNumber:  row,
		}

		if amount := cell("price_amount"); amount != nil {
			price, err := strconv.ParseFloat(strings.TrimSpace(*amount), 64)
			if err == nil && !math.IsNaN(price) {
				rec.Price = &price
			} else {
				slog.Debug("Unparseable price_amount", "file", base, "row", row, "value", *amount)
			}
		}

		records = append(records, rec)

		if row%1000 == 0 {
			slog.Debug("Reading bibliographic file", "rows_read", row)
		}
	}

	slog.Debug("Finished reading bibliographic file", "total_records", len(records), "columns", len(header))

	return &Dataset{
		Source:    GoogleBooks,
		Path:      path,
		Records:   records,
		Columns:   len(header),
		SizeBytes: size,
	}, nil
}

// bomSkipper drops a leading UTF-8 byte order mark
func bomSkipper(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}
