package metadata

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"path/filepath"
)

// FileWriter persists a file atomically
type FileWriter interface {
	WriteFile(path string, data []byte) error
}

// Writer stores bundles as <dir>/<key>_<part>.json
type Writer struct {
	dir   string
	files FileWriter
}

// NewWriter creates a Writer for dir
func NewWriter(dir string, files FileWriter) *Writer {
	return &Writer{dir: dir, files: files}
}

// PartPath returns where part of key is stored
func (w *Writer) PartPath(key string, part Part) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_%s.json", key, part))
}

// Write stores every non-nil part of b under key with two-space indentation.
// It returns the paths written. A failing part doesn't stop the others.
func (w *Writer) Write(key string, b *Bundle) ([]string, error) {
	var (
		written []string
		errs    []error
	)

	for _, part := range Parts {
		raw := b.Raw(part)
		if raw == nil {
			continue
		}

		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			errs = append(errs, fmt.Errorf("%s: failed to format JSON: %w", part, err))
			continue
		}
		buf.WriteByte('\n')

		path := w.PartPath(key, part)
		if err := w.files.WriteFile(path, buf.Bytes()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", part, err))
			continue
		}
		written = append(written, path)
	}

	return written, stderrors.Join(errs...)
}
