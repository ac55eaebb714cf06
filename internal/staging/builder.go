package staging

import (
	"log/slog"
	"unicode/utf8"

	"github.com/lehigh-university-libraries/bookintegrate/internal/isbn"
	"github.com/lehigh-university-libraries/bookintegrate/internal/normalize"
	"github.com/lehigh-university-libraries/bookintegrate/internal/sources"
)

// Build maps the records of every dataset, in order, into staging records
func Build(datasets ...*sources.Dataset) []Record {
	total := 0
	for _, ds := range datasets {
		total += ds.Rows()
	}

	records := make([]Record, 0, total)
	for _, ds := range datasets {
		for i := range ds.Records {
			records = append(records, FromSource(&ds.Records[i]))
		}
		slog.Debug("Staged source", "source", ds.Source, "records", ds.Rows())
	}

	return records
}

// FromSource normalizes a single source record
func FromSource(src *sources.Record) Record {
	rec := Record{
		Title:         src.Title,
		Subtitle:      src.Subtitle,
		AuthorsRaw:    src.Authors,
		Publisher:     src.Publisher,
		PubDateRaw:    src.PubDate,
		LanguageRaw:   src.Language,
		CategoriesRaw: src.Categories,
		ASIN:          src.ASIN,
		Price:         src.Price,
		Rating:        src.Rating,
		RatingRaw:     src.RatingRaw,
		RatingsCount:  src.RatingsCount,
		BookURL:       src.BookURL,
		SourceName:    src.SourceName,
		SourceFile:    src.SourceFile,
		SourceRow:     int64(src.RowNumber),
	}

	// Identifiers
	if src.ISBN10 != nil {
		rec.ISBN10 = optional(isbn.Clean(*src.ISBN10))
	}
	if src.ISBN13 != nil {
		rec.ISBN13 = optional(isbn.NormalizeISBN13(*src.ISBN13))
	}
	if rec.ISBN13 == nil && rec.ISBN10 != nil {
		rec.ISBN13 = optional(isbn.ToISBN13(*rec.ISBN10))
	}

	// Free text
	if src.Title != nil {
		title := normalize.Title(*src.Title)
		rec.TitleNormalized = &title
		rec.TitleLength = int64(utf8.RuneCountInString(*src.Title))
	}
	if src.Language != nil {
		if lang, ok := normalize.Language(*src.Language); ok {
			rec.Language = &lang
		}
	}
	if src.Currency != nil {
		if cur, ok := normalize.Currency(*src.Currency); ok {
			rec.Currency = &cur
		}
	}
	if src.PubDate != nil {
		if date, ok := normalize.Date(*src.PubDate); ok {
			rec.PubDate = &date
			if year, ok := normalize.Year(date); ok {
				rec.PubYear = &year
			}
		}
	}

	// Lists
	rec.Authors = splitOptional(src.Authors)
	rec.Categories = splitOptional(src.Categories)

	rec.PrimaryAuthor = src.Author
	if rec.PrimaryAuthor == nil && len(rec.Authors) > 0 {
		first := rec.Authors[0]
		rec.PrimaryAuthor = &first
	}

	rec.AuthorKey = normalize.Key(deref(rec.PrimaryAuthor))
	rec.PublisherKey = normalize.Key(deref(rec.Publisher))
	rec.BookID = BookID(&rec)

	return rec
}

func splitOptional(s *string) []string {
	if s == nil {
		return []string{}
	}
	return normalize.SplitList(*s)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
