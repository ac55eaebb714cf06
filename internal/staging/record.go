// Package staging unifies source records into one common, normalized shape.
package staging

// Record is a source record after field normalization, tagged with its
// candidate identity and, once annotated, its validation outcome.
type Record struct {
	Title           *string `json:"title" parquet:"title"`
	TitleNormalized *string `json:"title_normalized" parquet:"title_normalized"`
	Subtitle        *string `json:"subtitle" parquet:"subtitle"`
	TitleLength     int64   `json:"title_length" parquet:"title_length"`

	PrimaryAuthor *string  `json:"primary_author" parquet:"primary_author"`
	AuthorsRaw    *string  `json:"authors_raw" parquet:"authors_raw"`
	Authors       []string `json:"authors" parquet:"authors,list"`

	Publisher *string `json:"publisher" parquet:"publisher"`

	PubDateRaw *string `json:"pub_date_raw" parquet:"pub_date_raw"`
	PubDate    *string `json:"pub_date" parquet:"pub_date"`
	PubYear    *int64  `json:"pub_year" parquet:"pub_year"`

	LanguageRaw *string `json:"language_raw" parquet:"language_raw"`
	Language    *string `json:"language" parquet:"language"`

	CategoriesRaw *string  `json:"categories_raw" parquet:"categories_raw"`
	Categories    []string `json:"categories" parquet:"categories,list"`

	ISBN10 *string `json:"isbn10" parquet:"isbn10"`
	ISBN13 *string `json:"isbn13" parquet:"isbn13"`
	ASIN   *string `json:"asin" parquet:"asin"`

	Price    *float64 `json:"price" parquet:"price"`
	Currency *string  `json:"currency" parquet:"currency"`

	Rating       *float64 `json:"rating" parquet:"rating"`
	RatingRaw    *string  `json:"rating_raw" parquet:"rating_raw"`
	RatingsCount *int64   `json:"ratings_count" parquet:"ratings_count"`
	BookURL      *string  `json:"book_url" parquet:"book_url"`

	SourceName string `json:"source_name" parquet:"source_name"`
	SourceFile string `json:"source_file" parquet:"source_file"`
	SourceRow  int64  `json:"source_row" parquet:"source_row"`

	// Identity inputs; never published outside the pipeline
	AuthorKey    string `json:"-" parquet:"-"`
	PublisherKey string `json:"-" parquet:"-"`

	BookID string `json:"book_id" parquet:"book_id"`

	ErrorCodes []string `json:"error_codes" parquet:"error_codes,list"`
	HasError   bool     `json:"has_error" parquet:"has_error"`
}

// Valid reports whether the record passed every validation rule
func (r *Record) Valid() bool {
	return !r.HasError
}

// HasISBN13 reports whether the record carries a normalized ISBN-13
func (r *Record) HasISBN13() bool {
	return r.ISBN13 != nil
}

// HasPrice reports whether the record carries a price
func (r *Record) HasPrice() bool {
	return r.Price != nil
}
