package sources

// Source names double as the provenance tag carried on every record
const (
	Goodreads   = "goodreads"
	GoogleBooks = "googlebooks"
)

// Default landing file names for each source
const (
	GoodreadsFile   = "goodreads_books.json"
	GoogleBooksFile = "googlebooks_books.csv"
)

// Record is one observation of a book from one source.
// Nil pointers mean the source did not provide the field.
type Record struct {
	Title    *string
	Subtitle *string

	// Author is the explicit primary author (catalog source only)
	Author *string
	// Authors and Categories are raw pipe-joined lists (bibliographic source only)
	Authors    *string
	Categories *string

	Publisher *string
	PubDate   *string
	Language  *string

	Price    *float64
	Currency *string

	ISBN10 *string
	ISBN13 *string
	ASIN   *string

	Rating *float64
	// RatingRaw holds a rating value that was present but not numeric
	RatingRaw    *string
	RatingsCount *int64
	BookURL      *string

	// Provenance
	SourceName string
	SourceFile string
	RowNumber  int
}

// Dataset is the result of ingesting one source file
type Dataset struct {
	Source    string
	Path      string
	Records   []Record
	Columns   int
	SizeBytes int64
}

// Rows returns the number of ingested records
func (d *Dataset) Rows() int {
	return len(d.Records)
}

func strPtr(s string) *string {
	return &s
}
