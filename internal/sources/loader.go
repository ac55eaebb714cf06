package sources

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrInputNotFound is returned when a required source file does not exist
var ErrInputNotFound = errors.New("input file not found")

// Loader handles loading of one landing file
type Loader struct {
	path string
}

// NewLoader creates a new source loader
func NewLoader(path string) *Loader {
	return &Loader{
		path: path,
	}
}

// Load reads the landing file, choosing the source schema from its extension:
// JSON files are catalog scrapes, CSV files are bibliographic API exports.
func (l *Loader) Load() (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(l.path))

	switch ext {
	case ".json":
		return LoadCatalog(l.path)
	case ".csv":
		return LoadBibliographic(l.path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .csv)", ext)
	}
}

// openInput opens a landing file, mapping a missing file to ErrInputNotFound
func openInput(path string) (*os.File, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, 0, fmt.Errorf("failed to open input file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, 0, fmt.Errorf("failed to stat file: %w", err)
	}

	slog.Debug("Input file stats", "path", path, "size_bytes", info.Size())

	return file, info.Size(), nil
}
