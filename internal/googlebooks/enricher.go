package googlebooks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	books "google.golang.org/api/books/v1"
	"google.golang.org/api/googleapi"

	"github.com/lehigh-university-libraries/bookintegrate/internal/sources"
)

// Options tunes lookups
type Options struct {
	// Delay is the minimum spacing between lookups
	Delay time.Duration
	// MaxRetries is the number of attempts per lookup
	MaxRetries int
	// Backoff is multiplied by the attempt number between retries
	Backoff time.Duration
}

// DefaultOptions returns the standard pacing
func DefaultOptions() Options {
	return Options{
		Delay:      300 * time.Millisecond,
		MaxRetries: 3,
		Backoff:    2 * time.Second,
	}
}

// Enricher looks catalog records up one at a time
type Enricher struct {
	searcher VolumeSearcher
	opts     Options
	limiter  *rate.Limiter

	// sleep waits between retries; replaced in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// Stats counts lookup outcomes
type Stats struct {
	Records int
	Matched int
	Skipped int
	Missed  int
	Failed  int
}

// NewEnricher creates an enricher over searcher
func NewEnricher(searcher VolumeSearcher, opts Options) *Enricher {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 1
	}

	limit := rate.Inf
	if opts.Delay > 0 {
		limit = rate.Every(opts.Delay)
	}

	return &Enricher{
		searcher: searcher,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, 1),
		sleep:    sleepContext,
	}
}

// Enrich looks every record up and returns one row per match. A failed
// lookup is logged and skipped; only context cancellation stops the run.
func (e *Enricher) Enrich(ctx context.Context, records []sources.Record) ([]Row, Stats, error) {
	stats := Stats{Records: len(records)}
	rows := []Row{}

	for i := range records {
		rec := &records[i]
		query := BuildQuery(rec)
		if query == "" {
			slog.Debug("No query terms for record", "row", rec.RowNumber)
			stats.Skipped++
			continue
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return rows, stats, fmt.Errorf("failed waiting for rate limiter: %w", err)
		}

		slog.Debug("Querying Google Books", "row", rec.RowNumber, "query", query)

		volume, err := e.Lookup(ctx, query)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return rows, stats, ctxErr
			}
			slog.Warn("Google Books lookup failed", "row", rec.RowNumber, "query", query, "error", err)
			stats.Failed++
			continue
		}
		if volume == nil {
			slog.Debug("No Google Books match", "row", rec.RowNumber, "title", deref(rec.Title))
			stats.Missed++
			continue
		}

		rows = append(rows, ExtractFields(volume, rec))
		stats.Matched++
	}

	slog.Info("Enrichment complete",
		"records", stats.Records,
		"matched", stats.Matched,
		"missed", stats.Missed,
		"skipped", stats.Skipped,
		"failed", stats.Failed)

	return rows, stats, nil
}

// Lookup searches once per attempt, retrying throttling and unavailability
// responses with a linearly growing pause.
func (e *Enricher) Lookup(ctx context.Context, query string) (*books.Volume, error) {
	var lastErr error
	for attempt := 1; attempt <= e.opts.MaxRetries; attempt++ {
		volume, err := e.searcher.Search(ctx, query)
		if err == nil {
			return volume, nil
		}
		lastErr = err

		if !retryable(err) || attempt == e.opts.MaxRetries {
			break
		}

		wait := e.opts.Backoff * time.Duration(attempt)
		slog.Warn("Google Books throttled, retrying",
			"attempt", attempt,
			"max_retries", e.opts.MaxRetries,
			"wait", wait,
			"error", err)

		if err := e.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func retryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code == http.StatusServiceUnavailable
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BuildQuery prefers an identifier (isbn13, isbn10, then asin) and falls
// back to title and author terms. It returns "" when nothing is usable.
func BuildQuery(rec *sources.Record) string {
	for _, id := range []*string{rec.ISBN13, rec.ISBN10, rec.ASIN} {
		if v := strings.TrimSpace(deref(id)); v != "" {
			return "isbn:" + v
		}
	}

	var parts []string
	if title := strings.TrimSpace(deref(rec.Title)); title != "" {
		parts = append(parts, `intitle:"`+title+`"`)
	}
	if author := strings.TrimSpace(deref(rec.Author)); author != "" {
		parts = append(parts, `inauthor:"`+author+`"`)
	}
	return strings.Join(parts, "+")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
