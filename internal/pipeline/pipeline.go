// Package pipeline runs one integration: load both landing files, build
// and validate staging records, resolve identities, compute metrics and
// publish every artifact or none.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/bookintegrate/internal/dedup"
	"github.com/lehigh-university-libraries/bookintegrate/internal/output"
	"github.com/lehigh-university-libraries/bookintegrate/internal/quality"
	"github.com/lehigh-university-libraries/bookintegrate/internal/sources"
	"github.com/lehigh-university-libraries/bookintegrate/internal/staging"
	"github.com/lehigh-university-libraries/bookintegrate/internal/table"
	"github.com/lehigh-university-libraries/bookintegrate/internal/validation"
)

// Options configures a run
type Options struct {
	GoodreadsPath   string
	GoogleBooksPath string
	StandardDir     string
	StagingDir      string
	DocsDir         string
	MetricsFormat   string

	// RunID defaults to a random UUID
	RunID string
	// Now defaults to time.Now
	Now func() time.Time
}

// Paths of the published artifacts
type Paths struct {
	DimBook      string
	SourceDetail string
	Staging      string
	Metrics      string
	Schema       string
}

// Result summarizes a completed run
type Result struct {
	RunID   string
	Records int
	Books   int
	Invalid int
	Paths   Paths
	Report  *quality.Report
}

// ArtifactPaths returns where a run with these options publishes
func (o Options) ArtifactPaths() Paths {
	format := o.MetricsFormat
	if format == "" {
		format = output.FormatJSON
	}
	return Paths{
		DimBook:      filepath.Join(o.StandardDir, quality.DimBook+".parquet"),
		SourceDetail: filepath.Join(o.StandardDir, quality.BookSourceDetail+".parquet"),
		Staging:      filepath.Join(o.StagingDir, quality.BooksStaging+".parquet"),
		Metrics:      filepath.Join(o.DocsDir, "quality_metrics."+format),
		Schema:       filepath.Join(o.DocsDir, "schema.md"),
	}
}

// Run executes the pipeline. Input errors abort before anything is written.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.MetricsFormat == "" {
		opts.MetricsFormat = output.FormatJSON
	}
	if !output.ValidFormat(opts.MetricsFormat) {
		return nil, fmt.Errorf("unsupported metrics format: %s", opts.MetricsFormat)
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	slog.Info("Starting integration run", "run_id", opts.RunID)

	catalog, err := sources.LoadCatalog(opts.GoodreadsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog source: %w", err)
	}
	slog.Info("Loaded catalog source", "path", catalog.Path, "rows", catalog.Rows())

	biblio, err := sources.LoadBibliographic(opts.GoogleBooksPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load bibliographic source: %w", err)
	}
	slog.Info("Loaded bibliographic source", "path", biblio.Path, "rows", biblio.Rows())

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	records := validation.Annotate(staging.Build(catalog, biblio))
	slog.Info("Built staging records", "records", len(records))

	resolver := dedup.NewResolver(opts.RunID)
	resolver.Now = opts.Now
	resolved := resolver.Resolve(records)
	slog.Info("Resolved canonical books", "books", len(resolved.Books), "lineage_rows", len(resolved.Details))

	report := quality.Compute(resolved.Books, resolved.Details)
	generatedAt := opts.Now().UTC()
	report.RunID = opts.RunID
	report.GeneratedAt = &generatedAt
	report.Inputs = map[string]quality.InputSource{
		catalog.Source: inputSource(catalog),
		biblio.Source:  inputSource(biblio),
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	paths := opts.ArtifactPaths()
	err = output.Publish(
		output.ParquetArtifact(paths.Staging, records),
		output.ParquetArtifact(paths.DimBook, resolved.Books),
		output.ParquetArtifact(paths.SourceDetail, resolved.Details),
		output.MetricsArtifact(paths.Metrics, report, opts.MetricsFormat),
		output.SchemaArtifact(paths.Schema,
			table.New(quality.DimBook, resolved.Books),
			table.New(quality.BookSourceDetail, resolved.Details)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to publish artifacts: %w", err)
	}

	result := &Result{
		RunID:   opts.RunID,
		Records: len(records),
		Books:   len(resolved.Books),
		Invalid: len(records) - countValid(records),
		Paths:   paths,
		Report:  report,
	}

	slog.Info("Integration run complete",
		"run_id", result.RunID,
		"records", result.Records,
		"books", result.Books,
		"invalid", result.Invalid)

	return result, nil
}

func inputSource(d *sources.Dataset) quality.InputSource {
	return quality.InputSource{
		Path:      d.Path,
		Rows:      d.Rows(),
		Columns:   d.Columns,
		SizeBytes: d.SizeBytes,
	}
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
