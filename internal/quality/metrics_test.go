package quality

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/bookintegrate/internal/dedup"
	"github.com/lehigh-university-libraries/bookintegrate/internal/sources"
	"github.com/lehigh-university-libraries/bookintegrate/internal/table"
	"github.com/lehigh-university-libraries/bookintegrate/internal/validation"
)

func s(v string) *string { return &v }

func f(v float64) *float64 { return &v }

func sampleDetails() []dedup.SourceDetail {
	return []dedup.SourceDetail{
		{
			SourceID: 1, SourceName: sources.GoogleBooks, SourceFile: sources.GoogleBooksFile,
			Title: s("Data Science"), TitleNormalized: s("data science"), PrimaryAuthor: s("Joel Grus"),
			ISBN13: s("9781491912058"), Price: f(29.99), Currency: s("USD"), Language: s("en"),
			PubDate: s("2015-04-14"), ErrorCodes: []string{},
		},
		{
			SourceID: 2, SourceName: sources.Goodreads, SourceFile: sources.GoodreadsFile,
			Title: s("Data Science"), TitleNormalized: s("data science"), PrimaryAuthor: s("Joel Grus"),
			ISBN13: s("9781491912058"), Rating: f(4.1), ErrorCodes: []string{},
		},
		{
			SourceID: 3, SourceName: sources.Goodreads, SourceFile: sources.GoodreadsFile,
			Title: s("Untitled"), Rating: f(7.5), Language: s("english"),
			ErrorCodes: []string{validation.MissingKey, validation.InvalidLanguage, validation.InvalidRating}, HasError: true,
		},
		{
			SourceID: 4, SourceName: sources.GoogleBooks, SourceFile: sources.GoogleBooksFile,
			PrimaryAuthor: s("Anon"), Currency: s("usd"),
			ErrorCodes: []string{validation.MissingKey, validation.InvalidCurrency}, HasError: true,
		},
	}
}

func TestComputeValidations(t *testing.T) {
	report := Compute(nil, sampleDetails())
	v := report.Validations

	assert.InDelta(t, 0.25, v.PctValidLanguages, 1e-9)
	assert.InDelta(t, 0.25, v.PctValidCurrencies, 1e-9)
	assert.InDelta(t, 0.25, v.PctValidDates, 1e-9)
	assert.InDelta(t, 0.5, v.PctTitleAuthorPresent, 1e-9)
	assert.Equal(t, v.PctTitleAuthorPresent, v.PctValidRows)
	assert.InDelta(t, 0.75, v.PctValidRatings, 1e-9)
	assert.InDelta(t, 0.25, v.PctNullTitle, 1e-9)
	assert.InDelta(t, 0.5, v.PctNullISBN13, 1e-9)
	assert.InDelta(t, 0.75, v.PctNullPrice, 1e-9)
	assert.InDelta(t, 0.5, v.PctInvalidRecords, 1e-9)
}

func TestComputeDuplicates(t *testing.T) {
	report := Compute(nil, sampleDetails())

	// rows 3 and 4 share a null isbn13, rows 1 and 2 share a real one
	assert.Equal(t, 4, report.Detail.DuplicatesByISBN13)
	// rows 1 and 2 share title, author and a null publisher
	assert.Equal(t, 2, report.Detail.DuplicatesByTitleAuthorPublisher)
	assert.Equal(t, map[string]int{sources.GoogleBooks: 2, sources.Goodreads: 2}, report.Detail.RowsBySource)
	assert.Equal(t, 4, report.Detail.Rows)
}

func TestComputeLogs(t *testing.T) {
	report := Compute(nil, sampleDetails())

	assert.Equal(t, map[string]int{
		validation.MissingKey:      2,
		validation.InvalidLanguage: 1,
		validation.InvalidRating:   1,
		validation.InvalidCurrency: 1,
	}, report.Logs.ByRule)
	assert.Equal(t, 1, report.Logs.ByFile[sources.GoodreadsFile][validation.InvalidRating])
	assert.Equal(t, 1, report.Logs.ByFile[sources.GoogleBooksFile][validation.MissingKey])
}

func TestComputeNullPercentages(t *testing.T) {
	books := []dedup.CanonicalBook{
		{BookID: "1", Title: s("A"), Authors: []string{}, Categories: []string{}},
		{BookID: "2", Authors: []string{}, Categories: []string{}},
	}
	report := Compute(books, sampleDetails())

	assert.Equal(t, 2, report.DimBook.Rows)
	assert.Equal(t, len(table.Columns(books)), report.DimBook.Columns)
	assert.InDelta(t, 0.5, report.DimBook.NullPctByField["title"], 1e-9)
	assert.InDelta(t, 0.0, report.DimBook.NullPctByField["book_id"], 1e-9)
	assert.InDelta(t, 0.0, report.DimBook.NullPctByField["authors"], 1e-9)
	assert.InDelta(t, 0.75, report.Detail.NullPctByField["price"], 1e-9)
}

func TestComputeEmpty(t *testing.T) {
	report := Compute(nil, nil)

	assert.Equal(t, Validations{}, report.Validations)
	assert.Equal(t, 0, report.Detail.Rows)
	assert.Equal(t, 0, report.Detail.DuplicatesByISBN13)
	for name, pct := range report.Detail.NullPctByField {
		assert.Zero(t, pct, name)
	}
	assert.NotNil(t, report.Logs.ByFile)
	assert.NotNil(t, report.Detail.RowsBySource)
}

func TestReportEncodings(t *testing.T) {
	report := Compute(nil, sampleDetails())

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	detail, ok := decoded["book_source_detail"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, detail, "rows")
	assert.Contains(t, detail, "duplicates_by_isbn13")
	assert.NotContains(t, decoded, "inputs")

	out, err := yaml.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(out), "  rows: 4\n")
	assert.Contains(t, string(out), "pct_valid_rows:")
}

func TestWriteSchema(t *testing.T) {
	books := []dedup.CanonicalBook{
		{BookID: "9781491912058", Title: s(strings.Repeat("x", 50)), Authors: []string{"A", "B"}, Categories: []string{}},
		{BookID: "2", Authors: []string{}, Categories: []string{}},
	}

	var buf bytes.Buffer
	err := WriteSchema(&buf, table.New(DimBook, books), table.New(BookSourceDetail, sampleDetails()))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "# Table schema")
	assert.Contains(t, out, "## dim_book")
	assert.Contains(t, out, "## book_source_detail")
	assert.Contains(t, out, "NULL (50.0%)")
	assert.Contains(t, out, "NOT NULL")
	assert.Contains(t, out, strings.Repeat("x", 37)+"...")
	assert.NotContains(t, out, strings.Repeat("x", 38))
	assert.Contains(t, out, `A\|B`)
	assert.Contains(t, out, "Survivorship")
	assert.Contains(t, out, "## Validation rules")
	for _, r := range validation.Rules {
		assert.Contains(t, out, r.Code)
		assert.Contains(t, out, r.Description)
	}
}

func TestExample(t *testing.T) {
	col := table.Column{Name: "c", Values: []any{nil, "short"}}
	assert.Equal(t, "short", Example(col))

	col = table.Column{Name: "c", Type: table.TypeList, Values: []any{[]string{}, nil, []string{"A", "B"}}}
	assert.Equal(t, "A|B", Example(col))

	col = table.Column{Name: "c", Type: table.TypeList, Values: []any{[]string{}, []string{}}}
	assert.Equal(t, "[]", Example(col))

	col = table.Column{Name: "c", Values: []any{nil}}
	assert.Equal(t, "", Example(col))
	assert.Equal(t, "NULL (100.0%)", Nullability(col))
}
