package googlebooks

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	books "google.golang.org/api/books/v1"

	"github.com/lehigh-university-libraries/bookintegrate/internal/normalize"
	"github.com/lehigh-university-libraries/bookintegrate/internal/sources"
)

// Header is the bibliographic landing file's column order
var Header = []string{
	"gb_id",
	"original_title",
	"original_author",
	"title",
	"subtitle",
	"authors",
	"publisher",
	"pub_date",
	"language",
	"categories",
	"isbn13",
	"isbn10",
	"asin",
	"price_amount",
	"price_currency",
}

// Row is one matched volume. Empty strings and a nil price are written as
// empty fields.
type Row struct {
	GoogleID       string
	OriginalTitle  string
	OriginalAuthor string
	Title          string
	Subtitle       string
	Authors        string
	Publisher      string
	PubDate        string
	Language       string
	Categories     string
	ISBN13         string
	ISBN10         string
	ASIN           string
	PriceAmount    *float64
	PriceCurrency  string
}

// Fields returns the row in Header order
func (r Row) Fields() []string {
	price := ""
	if r.PriceAmount != nil {
		price = strconv.FormatFloat(*r.PriceAmount, 'f', -1, 64)
	}
	return []string{
		r.GoogleID,
		r.OriginalTitle,
		r.OriginalAuthor,
		r.Title,
		r.Subtitle,
		r.Authors,
		r.Publisher,
		r.PubDate,
		r.Language,
		r.Categories,
		r.ISBN13,
		r.ISBN10,
		r.ASIN,
		price,
		r.PriceCurrency,
	}
}

// ExtractFields maps a volume onto a row, keeping the catalog record's
// title and author for traceability. The list price wins over the retail
// price.
func ExtractFields(v *books.Volume, original *sources.Record) Row {
	row := Row{
		GoogleID:       v.Id,
		OriginalTitle:  deref(original.Title),
		OriginalAuthor: deref(original.Author),
	}

	if info := v.VolumeInfo; info != nil {
		row.Title = info.Title
		row.Subtitle = info.Subtitle
		row.Authors = strings.Join(info.Authors, normalize.ListSeparator)
		row.Publisher = info.Publisher
		row.PubDate = info.PublishedDate
		row.Language = info.Language
		row.Categories = strings.Join(info.Categories, normalize.ListSeparator)

		for _, id := range info.IndustryIdentifiers {
			if id == nil {
				continue
			}
			switch id.Type {
			case "ISBN_13":
				row.ISBN13 = id.Identifier
			case "ISBN_10":
				row.ISBN10 = id.Identifier
			case "ASIN":
				row.ASIN = id.Identifier
			}
		}
	}

	if sale := v.SaleInfo; sale != nil {
		switch {
		case sale.ListPrice != nil:
			amount := sale.ListPrice.Amount
			row.PriceAmount = &amount
			row.PriceCurrency = sale.ListPrice.CurrencyCode
		case sale.RetailPrice != nil:
			amount := sale.RetailPrice.Amount
			row.PriceAmount = &amount
			row.PriceCurrency = sale.RetailPrice.CurrencyCode
		}
	}

	return row
}

// WriteCSV writes rows with a header using the bibliographic delimiter
func WriteCSV(w io.Writer, rows []Row) error {
	writer := csv.NewWriter(w)
	writer.Comma = sources.Delimiter

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range rows {
		if err := writer.Write(r.Fields()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
