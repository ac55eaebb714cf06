// Package quality aggregates data-quality metrics over the canonical and
// lineage tables and documents their schema.
package quality

import (
	"strings"
	"time"

	"github.com/lehigh-university-libraries/bookintegrate/internal/dedup"
	"github.com/lehigh-university-libraries/bookintegrate/internal/table"
	"github.com/lehigh-university-libraries/bookintegrate/internal/validation"
)

// Table names, as published
const (
	DimBook          = "dim_book"
	BookSourceDetail = "book_source_detail"
	BooksStaging     = "books_staging"
)

// Report is the quality metrics document
type Report struct {
	RunID       string                 `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	GeneratedAt *time.Time             `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	DimBook     TableStats             `json:"dim_book" yaml:"dim_book"`
	Detail      DetailStats            `json:"book_source_detail" yaml:"book_source_detail"`
	Validations Validations            `json:"validations" yaml:"validations"`
	Logs        Logs                   `json:"logs" yaml:"logs"`
	Inputs      map[string]InputSource `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// TableStats holds the basic shape of a table
type TableStats struct {
	Rows           int                `json:"rows" yaml:"rows"`
	Columns        int                `json:"columns" yaml:"columns"`
	NullPctByField map[string]float64 `json:"null_pct_by_field" yaml:"null_pct_by_field"`
}

// DetailStats extends TableStats with duplicate and source counts
type DetailStats struct {
	TableStats `yaml:",inline"`

	DuplicatesByISBN13               int            `json:"duplicates_by_isbn13" yaml:"duplicates_by_isbn13"`
	DuplicatesByTitleAuthorPublisher int            `json:"duplicates_by_title_author_publisher" yaml:"duplicates_by_title_author_publisher"`
	RowsBySource                     map[string]int `json:"rows_by_source" yaml:"rows_by_source"`
}

// Validations are row fractions over the lineage table, each in [0, 1]
type Validations struct {
	PctValidLanguages     float64 `json:"pct_valid_languages" yaml:"pct_valid_languages"`
	PctValidCurrencies    float64 `json:"pct_valid_currencies" yaml:"pct_valid_currencies"`
	PctValidDates         float64 `json:"pct_valid_dates" yaml:"pct_valid_dates"`
	PctTitleAuthorPresent float64 `json:"pct_title_author_present" yaml:"pct_title_author_present"`
	PctValidRows          float64 `json:"pct_valid_rows" yaml:"pct_valid_rows"`
	PctValidRatings       float64 `json:"pct_valid_ratings" yaml:"pct_valid_ratings"`
	PctNullTitle          float64 `json:"pct_null_title" yaml:"pct_null_title"`
	PctNullISBN13         float64 `json:"pct_null_isbn13" yaml:"pct_null_isbn13"`
	PctNullPrice          float64 `json:"pct_null_price" yaml:"pct_null_price"`
	PctInvalidRecords     float64 `json:"pct_invalid_records" yaml:"pct_invalid_records"`
}

// Logs counts rule violations per source file and per rule
type Logs struct {
	ByFile map[string]map[string]int `json:"by_file" yaml:"by_file"`
	ByRule map[string]int            `json:"by_rule" yaml:"by_rule"`
}

// InputSource describes one input file
type InputSource struct {
	Path      string `json:"path" yaml:"path"`
	Rows      int    `json:"rows" yaml:"rows"`
	Columns   int    `json:"columns" yaml:"columns"`
	SizeBytes int64  `json:"size_bytes" yaml:"size_bytes"`
}

// Compute aggregates metrics. It never fails: empty input yields zeros.
func Compute(books []dedup.CanonicalBook, details []dedup.SourceDetail) *Report {
	dim := table.New(DimBook, books)
	detail := table.New(BookSourceDetail, details)

	return &Report{
		DimBook: stats(dim),
		Detail: DetailStats{
			TableStats:                       stats(detail),
			DuplicatesByISBN13:               duplicates(details, isbnKey),
			DuplicatesByTitleAuthorPublisher: duplicates(details, titleAuthorPublisherKey),
			RowsBySource:                     rowsBySource(details),
		},
		Validations: validations(details),
		Logs:        logs(details),
	}
}

func stats(t table.Table) TableStats {
	nulls := make(map[string]float64, len(t.Columns))
	for _, c := range t.Columns {
		nulls[c.Name] = c.NullFraction()
	}
	return TableStats{
		Rows:           t.Rows,
		Columns:        len(t.Columns),
		NullPctByField: nulls,
	}
}

// key renders a nullable value so that nulls compare equal to each other
// and never to a present value.
func key(s *string) string {
	if s == nil {
		return "\x00"
	}
	return "=" + *s
}

func isbnKey(d *dedup.SourceDetail) string {
	return key(d.ISBN13)
}

func titleAuthorPublisherKey(d *dedup.SourceDetail) string {
	return strings.Join([]string{key(d.TitleNormalized), key(d.PrimaryAuthor), key(d.Publisher)}, "\x1f")
}

// duplicates counts every row whose key occurs more than once
func duplicates(details []dedup.SourceDetail, keyOf func(*dedup.SourceDetail) string) int {
	counts := map[string]int{}
	for i := range details {
		counts[keyOf(&details[i])]++
	}

	n := 0
	for _, c := range counts {
		if c > 1 {
			n += c
		}
	}
	return n
}

func rowsBySource(details []dedup.SourceDetail) map[string]int {
	out := map[string]int{}
	for i := range details {
		out[details[i].SourceName]++
	}
	return out
}

func validations(details []dedup.SourceDetail) Validations {
	var v Validations
	if len(details) == 0 {
		return v
	}

	var languages, currencies, dates, keys, ratings, nullTitle, nullISBN, nullPrice, invalid int
	for i := range details {
		d := &details[i]
		if d.Language != nil && validation.ValidLanguage(*d.Language) {
			languages++
		}
		if d.Currency != nil && validation.ValidCurrency(*d.Currency) {
			currencies++
		}
		if d.PubDate != nil {
			dates++
		}
		if d.Title != nil && d.PrimaryAuthor != nil {
			keys++
		}
		if validation.ValidRating(d.Rating, d.RatingRaw) {
			ratings++
		}
		if d.Title == nil {
			nullTitle++
		}
		if d.ISBN13 == nil {
			nullISBN++
		}
		if d.Price == nil {
			nullPrice++
		}
		if d.HasError {
			invalid++
		}
	}

	total := float64(len(details))
	v.PctValidLanguages = float64(languages) / total
	v.PctValidCurrencies = float64(currencies) / total
	v.PctValidDates = float64(dates) / total
	v.PctTitleAuthorPresent = float64(keys) / total
	v.PctValidRows = v.PctTitleAuthorPresent
	v.PctValidRatings = float64(ratings) / total
	v.PctNullTitle = float64(nullTitle) / total
	v.PctNullISBN13 = float64(nullISBN) / total
	v.PctNullPrice = float64(nullPrice) / total
	v.PctInvalidRecords = float64(invalid) / total
	return v
}

func logs(details []dedup.SourceDetail) Logs {
	l := Logs{
		ByFile: map[string]map[string]int{},
		ByRule: map[string]int{},
	}
	for i := range details {
		file := details[i].SourceFile
		if file == "" {
			file = "UNKNOWN"
		}
		for _, code := range details[i].ErrorCodes {
			if l.ByFile[file] == nil {
				l.ByFile[file] = map[string]int{}
			}
			l.ByFile[file][code]++
			l.ByRule[code]++
		}
	}
	return l
}
