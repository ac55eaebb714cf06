package dedup

import (
	"time"
)

// CanonicalBook is the surviving record for one book identity (dim_book)
type CanonicalBook struct {
	BookID          string    `json:"book_id" parquet:"book_id" gorm:"column:book_id;primaryKey"`
	Title           *string   `json:"title" parquet:"title" gorm:"column:title"`
	TitleNormalized *string   `json:"title_normalized" parquet:"title_normalized" gorm:"column:title_normalized"`
	PrimaryAuthor   *string   `json:"primary_author" parquet:"primary_author" gorm:"column:primary_author"`
	Authors         []string  `json:"authors" parquet:"authors,list" gorm:"column:authors;serializer:json"`
	Publisher       *string   `json:"publisher" parquet:"publisher" gorm:"column:publisher"`
	PubYear         *int64    `json:"pub_year" parquet:"pub_year" gorm:"column:pub_year"`
	PubDate         *string   `json:"pub_date" parquet:"pub_date" gorm:"column:pub_date"`
	Language        *string   `json:"language" parquet:"language" gorm:"column:language"`
	ISBN10          *string   `json:"isbn10" parquet:"isbn10" gorm:"column:isbn10"`
	ISBN13          *string   `json:"isbn13" parquet:"isbn13" gorm:"column:isbn13"`
	ASIN            *string   `json:"asin" parquet:"asin" gorm:"column:asin"`
	Categories      []string  `json:"categories" parquet:"categories,list" gorm:"column:categories;serializer:json"`
	Price           *float64  `json:"price" parquet:"price" gorm:"column:price"`
	Currency        *string   `json:"currency" parquet:"currency" gorm:"column:currency"`
	WinningSource   string    `json:"winning_source" parquet:"winning_source" gorm:"column:winning_source"`
	UpdatedAt       time.Time `json:"updated_at" parquet:"updated_at,timestamp(millisecond)" gorm:"column:updated_at;autoUpdateTime:false"`
}

// TableName implements gorm's tabler interface
func (CanonicalBook) TableName() string {
	return "dim_book"
}

// SourceDetail is the lineage row kept for every staging record, valid or
// not (book_source_detail).
type SourceDetail struct {
	SourceID  int64  `json:"source_id" parquet:"source_id" gorm:"column:source_id;primaryKey;autoIncrement:false"`
	RunID     string `json:"run_id" parquet:"run_id" gorm:"column:run_id;index"`
	BookID    string `json:"book_id" parquet:"book_id" gorm:"column:book_id;index"`
	RowNumber int64  `json:"row_number" parquet:"row_number" gorm:"column:row_number"`

	SourceName string `json:"source_name" parquet:"source_name" gorm:"column:source_name"`
	SourceFile string `json:"source_file" parquet:"source_file" gorm:"column:source_file"`
	SourceRow  int64  `json:"source_row" parquet:"source_row" gorm:"column:source_row"`

	Title           *string `json:"title" parquet:"title" gorm:"column:title"`
	TitleNormalized *string `json:"title_normalized" parquet:"title_normalized" gorm:"column:title_normalized"`
	Subtitle        *string `json:"subtitle" parquet:"subtitle" gorm:"column:subtitle"`
	TitleLength     int64   `json:"title_length" parquet:"title_length" gorm:"column:title_length"`

	PrimaryAuthor *string  `json:"primary_author" parquet:"primary_author" gorm:"column:primary_author"`
	AuthorsRaw    *string  `json:"authors_raw" parquet:"authors_raw" gorm:"column:authors_raw"`
	Authors       []string `json:"authors" parquet:"authors,list" gorm:"column:authors;serializer:json"`
	Publisher     *string  `json:"publisher" parquet:"publisher" gorm:"column:publisher"`

	PubDateRaw  *string `json:"pub_date_raw" parquet:"pub_date_raw" gorm:"column:pub_date_raw"`
	PubDate     *string `json:"pub_date" parquet:"pub_date" gorm:"column:pub_date"`
	PubYear     *int64  `json:"pub_year" parquet:"pub_year" gorm:"column:pub_year"`
	LanguageRaw *string `json:"language_raw" parquet:"language_raw" gorm:"column:language_raw"`
	Language    *string `json:"language" parquet:"language" gorm:"column:language"`

	CategoriesRaw *string  `json:"categories_raw" parquet:"categories_raw" gorm:"column:categories_raw"`
	Categories    []string `json:"categories" parquet:"categories,list" gorm:"column:categories;serializer:json"`

	ISBN10 *string `json:"isbn10" parquet:"isbn10" gorm:"column:isbn10"`
	ISBN13 *string `json:"isbn13" parquet:"isbn13" gorm:"column:isbn13"`
	ASIN   *string `json:"asin" parquet:"asin" gorm:"column:asin"`

	Price    *float64 `json:"price" parquet:"price" gorm:"column:price"`
	Currency *string  `json:"currency" parquet:"currency" gorm:"column:currency"`

	Rating       *float64 `json:"rating" parquet:"rating" gorm:"column:rating"`
	RatingRaw    *string  `json:"rating_raw" parquet:"rating_raw" gorm:"column:rating_raw"`
	RatingsCount *int64   `json:"ratings_count" parquet:"ratings_count" gorm:"column:ratings_count"`
	BookURL      *string  `json:"book_url" parquet:"book_url" gorm:"column:book_url"`

	HasISBN13      bool `json:"has_isbn13" parquet:"has_isbn13" gorm:"column:has_isbn13"`
	HasPrice       bool `json:"has_price" parquet:"has_price" gorm:"column:has_price"`
	SourcePriority int  `json:"source_priority" parquet:"source_priority" gorm:"column:source_priority"`

	ErrorCodes []string `json:"error_codes" parquet:"error_codes,list" gorm:"column:error_codes;serializer:json"`
	HasError   bool     `json:"has_error" parquet:"has_error" gorm:"column:has_error"`

	IngestedAt time.Time `json:"ingested_at" parquet:"ingested_at,timestamp(millisecond)" gorm:"column:ingested_at"`
}

// TableName implements gorm's tabler interface
func (SourceDetail) TableName() string {
	return "book_source_detail"
}
