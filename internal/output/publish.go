package output

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// Artifact is one output file and the function that renders it
type Artifact struct {
	Path   string
	Render func(w io.Writer) error
}

type staged struct {
	tmp    string
	path   string
	backup string
}

// rename is swapped in tests to simulate a failing filesystem
var rename = os.Rename

// Publish renders every artifact to a temporary file next to its final
// path. Only when all of them rendered are they moved into place; on any
// render failure the temporaries are removed and no artifact is touched.
// Files being replaced are kept aside until every move succeeded, so a
// failed move restores the previous outputs.
func Publish(artifacts ...Artifact) error {
	var pending []staged

	for _, a := range artifacts {
		tmp, err := render(a)
		if tmp != "" {
			pending = append(pending, staged{tmp: tmp, path: a.Path})
		}
		if err != nil {
			removeTemps(pending)
			return err
		}
	}

	for i := range pending {
		if err := swap(&pending[i]); err != nil {
			rollback(pending[:i])
			removeTemps(pending[i:])
			return fmt.Errorf("failed to publish %s: %w", pending[i].path, err)
		}
	}

	for _, p := range pending {
		if p.backup != "" {
			if err := os.Remove(p.backup); err != nil {
				slog.Warn("Failed to remove previous artifact", "path", p.backup, "error", err)
			}
		}
		slog.Info("Wrote artifact", "path", p.path)
	}
	return nil
}

// swap moves an existing file at p.path aside and the rendered file into
// its place. On failure the previous file is put back.
func swap(p *staged) error {
	if _, err := os.Lstat(p.path); err == nil {
		backup := p.tmp + ".bak"
		if err := rename(p.path, backup); err != nil {
			return err
		}
		p.backup = backup
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := rename(p.tmp, p.path); err != nil {
		restore(*p)
		return err
	}
	return nil
}

// rollback undoes completed swaps, newest first
func rollback(done []staged) {
	for i := len(done) - 1; i >= 0; i-- {
		p := done[i]
		if p.backup == "" {
			if err := os.Remove(p.path); err != nil {
				slog.Error("Failed to withdraw artifact", "path", p.path, "error", err)
			}
			continue
		}
		restore(p)
	}
}

func restore(p staged) {
	if p.backup == "" {
		return
	}
	if err := rename(p.backup, p.path); err != nil {
		slog.Error("Failed to restore previous artifact", "path", p.path, "backup", p.backup, "error", err)
	}
}

func removeTemps(pending []staged) {
	for _, p := range pending {
		if err := os.Remove(p.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove temporary file", "path", p.tmp, "error", err)
		}
	}
}

// render writes a to a temporary file and returns its path, which is set
// whenever a file was created even if rendering failed.
func render(a Artifact) (string, error) {
	dir := filepath.Dir(a.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(a.Path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file for %s: %w", a.Path, err)
	}

	if err := a.Render(file); err != nil {
		file.Close()
		return file.Name(), fmt.Errorf("failed to render %s: %w", a.Path, err)
	}
	if err := file.Close(); err != nil {
		return file.Name(), fmt.Errorf("failed to close %s: %w", a.Path, err)
	}
	if err := os.Chmod(file.Name(), 0o644); err != nil {
		return file.Name(), fmt.Errorf("failed to set permissions on %s: %w", a.Path, err)
	}
	return file.Name(), nil
}
