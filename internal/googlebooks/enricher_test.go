package googlebooks

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"

	"github.com/lehigh-university-libraries/bookintegrate/internal/sources"
)

func s(v string) *string { return &v }

type fakeSearcher struct {
	volumes map[string]*books.Volume
	errs    map[string][]error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) (*books.Volume, error) {
	f.queries = append(f.queries, query)
	if errs := f.errs[query]; len(errs) > 0 {
		f.errs[query] = errs[1:]
		return nil, errs[0]
	}
	return f.volumes[query], nil
}

func testEnricher(searcher VolumeSearcher, waits *[]time.Duration) *Enricher {
	e := NewEnricher(searcher, Options{MaxRetries: 3, Backoff: 2 * time.Second})
	e.sleep = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return e
}

func dataScienceVolume() *books.Volume {
	return &books.Volume{
		Id: "gb-1",
		VolumeInfo: &books.VolumeVolumeInfo{
			Title:         "Data Science from Scratch",
			Subtitle:      "First Principles with Python",
			Authors:       []string{"Joel Grus"},
			Publisher:     "O'Reilly",
			PublishedDate: "2015-04-14",
			Language:      "en",
			Categories:    []string{"Computers", "Data"},
			IndustryIdentifiers: []*books.VolumeVolumeInfoIndustryIdentifiers{
				{Type: "ISBN_10", Identifier: "1491901411"},
				{Type: "ISBN_13", Identifier: "9781491901410"},
			},
		},
		SaleInfo: &books.VolumeSaleInfo{
			RetailPrice: &books.VolumeSaleInfoRetailPrice{Amount: 25.5, CurrencyCode: "EUR"},
		},
	}
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		record   sources.Record
		expected string
	}{
		{"isbn13 first", sources.Record{ISBN13: s("9781491901410"), ISBN10: s("1491901411")}, "isbn:9781491901410"},
		{"isbn10 next", sources.Record{ISBN13: s(" "), ISBN10: s("1491901411"), ASIN: s("B00X")}, "isbn:1491901411"},
		{"asin last", sources.Record{ASIN: s("B00X"), Title: s("T")}, "isbn:B00X"},
		{"title and author", sources.Record{Title: s("Dune"), Author: s("Frank Herbert")}, `intitle:"Dune"+inauthor:"Frank Herbert"`},
		{"title only", sources.Record{Title: s("Dune")}, `intitle:"Dune"`},
		{"author only", sources.Record{Author: s("Frank Herbert")}, `inauthor:"Frank Herbert"`},
		{"quotes kept verbatim", sources.Record{Title: s(`The "Best" Book`), Author: s(`O\Brien`)}, `intitle:"The "Best" Book"+inauthor:"O\Brien"`},
		{"nothing", sources.Record{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BuildQuery(&tt.record))
		})
	}
}

func TestExtractFields(t *testing.T) {
	vol := dataScienceVolume()
	row := ExtractFields(vol, &sources.Record{Title: s("Data Science"), Author: s("Joel Grus")})

	assert.Equal(t, "gb-1", row.GoogleID)
	assert.Equal(t, "Data Science", row.OriginalTitle)
	assert.Equal(t, "Joel Grus", row.Authors)
	assert.Equal(t, "Computers|Data", row.Categories)
	assert.Equal(t, "9781491901410", row.ISBN13)
	assert.Equal(t, "1491901411", row.ISBN10)
	require.NotNil(t, row.PriceAmount)
	assert.Equal(t, 25.5, *row.PriceAmount)
	assert.Equal(t, "EUR", row.PriceCurrency)

	vol.SaleInfo.ListPrice = &books.VolumeSaleInfoListPrice{Amount: 30, CurrencyCode: "USD"}
	row = ExtractFields(vol, &sources.Record{})
	assert.Equal(t, 30.0, *row.PriceAmount)
	assert.Equal(t, "USD", row.PriceCurrency)

	row = ExtractFields(&books.Volume{Id: "bare"}, &sources.Record{})
	assert.Nil(t, row.PriceAmount)
	assert.Equal(t, "", row.Authors)
}

func TestLookupRetriesThrottling(t *testing.T) {
	query := "isbn:1"
	searcher := &fakeSearcher{
		volumes: map[string]*books.Volume{query: dataScienceVolume()},
		errs: map[string][]error{query: {
			&googleapi.Error{Code: http.StatusTooManyRequests},
			&googleapi.Error{Code: http.StatusServiceUnavailable},
		}},
	}
	var waits []time.Duration

	vol, err := testEnricher(searcher, &waits).Lookup(context.Background(), query)
	require.NoError(t, err)
	require.NotNil(t, vol)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
	assert.Len(t, searcher.queries, 3)
}

func TestLookupGivesUp(t *testing.T) {
	query := "isbn:1"
	throttled := &googleapi.Error{Code: http.StatusTooManyRequests}
	searcher := &fakeSearcher{errs: map[string][]error{query: {throttled, throttled, throttled, throttled}}}
	var waits []time.Duration

	_, err := testEnricher(searcher, &waits).Lookup(context.Background(), query)
	require.Error(t, err)
	assert.Len(t, searcher.queries, 3)
	assert.Len(t, waits, 2)
}

func TestLookupDoesNotRetryOtherErrors(t *testing.T) {
	query := "isbn:1"
	searcher := &fakeSearcher{errs: map[string][]error{query: {&googleapi.Error{Code: http.StatusForbidden}}}}
	var waits []time.Duration

	_, err := testEnricher(searcher, &waits).Lookup(context.Background(), query)
	require.Error(t, err)
	assert.Len(t, searcher.queries, 1)
	assert.Empty(t, waits)
}

func TestEnrich(t *testing.T) {
	searcher := &fakeSearcher{
		volumes: map[string]*books.Volume{"isbn:1491901411": dataScienceVolume()},
		errs:    map[string][]error{`intitle:"Broken"`: {errors.New("network down")}},
	}
	records := []sources.Record{
		{Title: s("Data Science"), Author: s("Joel Grus"), ISBN10: s("1491901411"), RowNumber: 1},
		{Title: s("Unknown Book"), RowNumber: 2},
		{RowNumber: 3},
		{Title: s("Broken"), RowNumber: 4},
	}
	var waits []time.Duration

	rows, stats, err := testEnricher(searcher, &waits).Enrich(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, rows, 1)
	assert.Equal(t, "gb-1", rows[0].GoogleID)
	assert.Equal(t, Stats{Records: 4, Matched: 1, Skipped: 1, Missed: 1, Failed: 1}, stats)
	assert.Equal(t, []string{"isbn:1491901411", `intitle:"Unknown Book"`, `intitle:"Broken"`}, searcher.queries)
}

func TestEnrichCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var waits []time.Duration
	_, _, err := testEnricher(&fakeSearcher{}, &waits).Enrich(ctx, []sources.Record{{Title: s("A")}})
	assert.Error(t, err)
}

func TestWriteCSVReadsBack(t *testing.T) {
	row := ExtractFields(dataScienceVolume(), &sources.Record{Title: s("Data Science"), Author: s("Joel Grus")})

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Row{row}))

	path := filepath.Join(t.TempDir(), sources.GoogleBooksFile)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	ds, err := sources.LoadBibliographic(path)
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)

	rec := ds.Records[0]
	assert.Equal(t, "Data Science from Scratch", *rec.Title)
	assert.Equal(t, "Joel Grus", *rec.Authors)
	assert.Equal(t, "9781491901410", *rec.ISBN13)
	assert.Nil(t, rec.ASIN)
	require.NotNil(t, rec.Price)
	assert.Equal(t, 25.5, *rec.Price)
	assert.Equal(t, len(Header), ds.Columns)
}
