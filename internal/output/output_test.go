package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/bookintegrate/internal/dedup"
	"github.com/lehigh-university-libraries/bookintegrate/internal/quality"
)

func s(v string) *string { return &v }

func f(v float64) *float64 { return &v }

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dim_book.parquet")
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	books := []dedup.CanonicalBook{
		{
			BookID:        "9781491912058",
			Title:         s("Data Science"),
			Authors:       []string{"Joel Grus"},
			Categories:    []string{},
			Price:         f(29.99),
			WinningSource: "googlebooks",
			UpdatedAt:     updated,
		},
		{
			BookID:        "abc",
			Authors:       []string{"A", "B"},
			Categories:    []string{"X"},
			WinningSource: "goodreads",
			UpdatedAt:     updated,
		},
	}

	require.NoError(t, Publish(ParquetArtifact(path, books)))

	read, err := ReadParquet[dedup.CanonicalBook](path)
	require.NoError(t, err)
	require.Len(t, read, 2)

	assert.Equal(t, "9781491912058", read[0].BookID)
	require.NotNil(t, read[0].Title)
	assert.Equal(t, "Data Science", *read[0].Title)
	require.NotNil(t, read[0].Price)
	assert.InDelta(t, 29.99, *read[0].Price, 1e-9)
	assert.Equal(t, []string{"Joel Grus"}, read[0].Authors)
	assert.True(t, updated.Equal(read[0].UpdatedAt))

	assert.Nil(t, read[1].Title)
	assert.Nil(t, read[1].Price)
	assert.Equal(t, []string{"A", "B"}, read[1].Authors)
	assert.Equal(t, []string{"X"}, read[1].Categories)
}

func TestParquetEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")

	require.NoError(t, Publish(ParquetArtifact(path, []dedup.SourceDetail{})))

	read, err := ReadParquet[dedup.SourceDetail](path)
	require.NoError(t, err)
	assert.Empty(t, read)
}

func TestReadParquetMissingFile(t *testing.T) {
	_, err := ReadParquet[dedup.CanonicalBook](filepath.Join(t.TempDir(), "nope.parquet"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestPublishAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "docs", "good.txt")
	bad := filepath.Join(dir, "docs", "bad.txt")

	err := Publish(
		Artifact{Path: good, Render: func(w io.Writer) error {
			_, err := io.WriteString(w, "ok")
			return err
		}},
		Artifact{Path: bad, Render: func(w io.Writer) error {
			return errors.New("boom")
		}},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	_, statErr := os.Stat(good)
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "expected no artifact to be published")

	entries, err := os.ReadDir(filepath.Join(dir, "docs"))
	require.NoError(t, err)
	assert.Empty(t, entries, "expected temporary files to be removed")
}

func TestPublishReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	err := Publish(Artifact{Path: path, Render: func(w io.Writer) error {
		_, err := io.WriteString(w, "new")
		return err
	}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func writeString(content string) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	}
}

// failRenameTo makes every move of a rendered file onto target fail
func failRenameTo(t *testing.T, target string) {
	t.Helper()
	orig := rename
	t.Cleanup(func() { rename = orig })
	rename = func(oldpath, newpath string) error {
		if newpath == target && !strings.HasSuffix(oldpath, ".bak") {
			return &os.LinkError{Op: "rename", Old: oldpath, New: newpath, Err: os.ErrPermission}
		}
		return orig(oldpath, newpath)
	}
}

func TestPublishRenameFailureRestoresPrevious(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")
	third := filepath.Join(dir, "third.txt")
	require.NoError(t, os.WriteFile(first, []byte("old"), 0o644))

	failRenameTo(t, second)

	err := Publish(
		Artifact{Path: first, Render: writeString("new")},
		Artifact{Path: second, Render: writeString("new")},
		Artifact{Path: third, Render: writeString("new")},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "expected only the previous artifact to remain")
	assert.Equal(t, "first.txt", entries[0].Name())
}

func TestPublishRenameFailureWithdrawsNewFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	second := filepath.Join(dir, "second.txt")

	failRenameTo(t, second)

	err := Publish(
		Artifact{Path: first, Render: writeString("new")},
		Artifact{Path: second, Render: writeString("new")},
	)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPublishRemovesBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, Publish(Artifact{Path: path, Render: writeString("new")}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.txt", entries[0].Name())
}

func TestWriteMetrics(t *testing.T) {
	report := quality.Compute(nil, nil)
	report.RunID = "run-1"

	var buf bytes.Buffer
	require.NoError(t, WriteMetrics(&buf, report, FormatJSON))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.Contains(t, buf.String(), "\n  \"dim_book\"")

	buf.Reset()
	require.NoError(t, WriteMetrics(&buf, report, FormatYAML))
	assert.True(t, strings.HasPrefix(buf.String(), "run_id: run-1\n"))

	assert.Error(t, WriteMetrics(&buf, report, "toml"))
	assert.True(t, ValidFormat(FormatYAML))
	assert.False(t, ValidFormat("toml"))
}
