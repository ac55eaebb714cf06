// Package dedup resolves staging records into one canonical book per
// identity and keeps a lineage row for every record it saw.
package dedup

import (
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/lehigh-university-libraries/bookintegrate/internal/sources"
	"github.com/lehigh-university-libraries/bookintegrate/internal/staging"
)

// Source priorities, higher is more authoritative
const (
	PriorityGoogleBooks = 3
	PriorityGoodreads   = 2
	PriorityOther       = 1
)

// SourcePriority maps a source name to its survivorship priority
func SourcePriority(name string) int {
	switch name {
	case sources.GoogleBooks:
		return PriorityGoogleBooks
	case sources.Goodreads:
		return PriorityGoodreads
	default:
		return PriorityOther
	}
}

// Result holds the outputs of one resolution run
type Result struct {
	Books   []CanonicalBook
	Details []SourceDetail
}

// Resolver selects survivors. Now and RunID are stamped onto every row it
// produces.
type Resolver struct {
	RunID string
	Now   func() time.Time
}

// NewResolver creates a resolver stamping rows with runID and the current time
func NewResolver(runID string) *Resolver {
	return &Resolver{
		RunID: runID,
		Now:   time.Now,
	}
}

// Resolve ranks every record, picks the first valid record per book_id as
// its winner and emits lineage for all records in the same order.
func (r *Resolver) Resolve(records []staging.Record) *Result {
	now := r.Now().UTC()

	ordered := make([]*staging.Record, len(records))
	for i := range records {
		ordered[i] = &records[i]
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return less(ordered[i], ordered[j])
	})

	authors := map[string][]string{}
	categories := map[string][]string{}
	for _, rec := range ordered {
		if !rec.Valid() {
			continue
		}
		authors[rec.BookID] = append(authors[rec.BookID], rec.Authors...)
		categories[rec.BookID] = append(categories[rec.BookID], rec.Categories...)
	}

	result := &Result{
		Books:   []CanonicalBook{},
		Details: make([]SourceDetail, 0, len(ordered)),
	}

	seen := map[string]bool{}
	perSource := map[string]int64{}
	for i, rec := range ordered {
		perSource[rec.SourceName]++
		result.Details = append(result.Details, r.detail(rec, int64(i+1), perSource[rec.SourceName], now))

		if !rec.Valid() || seen[rec.BookID] {
			continue
		}
		seen[rec.BookID] = true
		result.Books = append(result.Books, canonical(rec, union(authors[rec.BookID]), union(categories[rec.BookID]), now))
	}

	slog.Debug("Resolved book identities",
		"records", len(records),
		"books", len(result.Books),
		"invalid", len(records)-countValid(records))

	return result
}

// less orders records by book_id, then prefers an ISBN-13, a price, a more
// authoritative source and a longer title.
func less(a, b *staging.Record) bool {
	if a.BookID != b.BookID {
		return a.BookID < b.BookID
	}
	if a.HasISBN13() != b.HasISBN13() {
		return a.HasISBN13()
	}
	if a.HasPrice() != b.HasPrice() {
		return a.HasPrice()
	}
	if pa, pb := SourcePriority(a.SourceName), SourcePriority(b.SourceName); pa != pb {
		return pa > pb
	}
	return a.TitleLength > b.TitleLength
}

func canonical(rec *staging.Record, authors, categories []string, now time.Time) CanonicalBook {
	return CanonicalBook{
		BookID:          rec.BookID,
		Title:           rec.Title,
		TitleNormalized: rec.TitleNormalized,
		PrimaryAuthor:   rec.PrimaryAuthor,
		Authors:         authors,
		Publisher:       rec.Publisher,
		PubYear:         rec.PubYear,
		PubDate:         rec.PubDate,
		Language:        rec.Language,
		ISBN10:          rec.ISBN10,
		ISBN13:          rec.ISBN13,
		ASIN:            rec.ASIN,
		Categories:      categories,
		Price:           rec.Price,
		Currency:        rec.Currency,
		WinningSource:   rec.SourceName,
		UpdatedAt:       now,
	}
}

func (r *Resolver) detail(rec *staging.Record, sourceID, rowNumber int64, now time.Time) SourceDetail {
	codes := rec.ErrorCodes
	if codes == nil {
		codes = []string{}
	}

	return SourceDetail{
		SourceID:        sourceID,
		RunID:           r.RunID,
		BookID:          rec.BookID,
		RowNumber:       rowNumber,
		SourceName:      rec.SourceName,
		SourceFile:      rec.SourceFile,
		SourceRow:       rec.SourceRow,
		Title:           rec.Title,
		TitleNormalized: rec.TitleNormalized,
		Subtitle:        rec.Subtitle,
		TitleLength:     rec.TitleLength,
		PrimaryAuthor:   rec.PrimaryAuthor,
		AuthorsRaw:      rec.AuthorsRaw,
		Authors:         nonNil(rec.Authors),
		Publisher:       rec.Publisher,
		PubDateRaw:      rec.PubDateRaw,
		PubDate:         rec.PubDate,
		PubYear:         rec.PubYear,
		LanguageRaw:     rec.LanguageRaw,
		Language:        rec.Language,
		CategoriesRaw:   rec.CategoriesRaw,
		Categories:      nonNil(rec.Categories),
		ISBN10:          rec.ISBN10,
		ISBN13:          rec.ISBN13,
		ASIN:            rec.ASIN,
		Price:           rec.Price,
		Currency:        rec.Currency,
		Rating:          rec.Rating,
		RatingRaw:       rec.RatingRaw,
		RatingsCount:    rec.RatingsCount,
		BookURL:         rec.BookURL,
		HasISBN13:       rec.HasISBN13(),
		HasPrice:        rec.HasPrice(),
		SourcePriority:  SourcePriority(rec.SourceName),
		ErrorCodes:      codes,
		HasError:        rec.HasError,
		IngestedAt:      now,
	}
}

// union returns the sorted distinct values, never nil
func union(values []string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func countValid(records []staging.Record) int {
	n := 0
	for i := range records {
		if records[i].Valid() {
			n++
		}
	}
	return n
}
