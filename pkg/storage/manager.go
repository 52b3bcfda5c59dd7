package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"

	"flickrdl/pkg/errors"
)

const (
	dataDirName   = "data"
	photosDirName = "photos"
	indexFileName = "index.html"
)

// Options controls how the output tree is created
type Options struct {
	// FailIfExists makes an existing <base>/<kind> directory a fatal error
	FailIfExists bool
	DirPerm      os.FileMode
	FilePerm     os.FileMode
}

// DefaultOptions returns the permissions used when none are configured
func DefaultOptions() Options {
	return Options{DirPerm: 0755, FilePerm: 0644}
}

// Manager owns the output tree of one listing kind:
//
//	<base>/<kind>/data/      JSON metadata
//	<base>/<kind>/photos/    media files
//	<base>/<kind>/index.html
type Manager struct {
	rootDir    string
	dataDir    string
	photosDir  string
	filePerm   os.FileMode
	downloaded IDSet
	mu         sync.RWMutex
}

// NewManager creates the output directories for kind under baseDir and scans
// the photos directory for media that is already there.
func NewManager(baseDir, kind string, opts Options) (*Manager, error) {
	if opts.DirPerm == 0 {
		opts.DirPerm = DefaultOptions().DirPerm
	}
	if opts.FilePerm == 0 {
		opts.FilePerm = DefaultOptions().FilePerm
	}

	root := filepath.Join(baseDir, kind)
	if opts.FailIfExists {
		if _, err := os.Stat(root); err == nil {
			return nil, errors.Fatal("the %q directory already exists, move or delete it before running again", root)
		}
	}

	m := &Manager{
		rootDir:   root,
		dataDir:   filepath.Join(root, dataDirName),
		photosDir: filepath.Join(root, photosDirName),
		filePerm:  opts.FilePerm,
	}

	for _, dir := range []string{m.dataDir, m.photosDir} {
		if err := os.MkdirAll(dir, opts.DirPerm); err != nil {
			return nil, errors.Fatal("failed to create output directory: %w", err)
		}
	}

	existing, err := ScanExistingIDs(m.photosDir)
	if err != nil {
		return nil, errors.Fatal("failed to scan existing files: %w", err)
	}
	m.downloaded = existing

	return m, nil
}

// DataDir returns the JSON metadata directory
func (m *Manager) DataDir() string {
	return m.dataDir
}

// PhotosDir returns the media directory
func (m *Manager) PhotosDir() string {
	return m.photosDir
}

// IndexPath returns the path of the generated HTML index
func (m *Manager) IndexPath() string {
	return filepath.Join(m.rootDir, indexFileName)
}

// Existing returns a copy of the IDs found on disk at startup plus those
// saved since.
func (m *Manager) Existing() IDSet {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make(IDSet, len(m.downloaded))
	for id := range m.downloaded {
		ids.Add(id)
	}
	return ids
}

// SavePhoto atomically writes media read from r to photos/<key><ext> and
// returns the final path. key must end in "_<id>".
func (m *Manager) SavePhoto(r io.Reader, key, ext string) (string, error) {
	filename := filepath.Join(m.photosDir, key+ext)

	pending, err := renameio.NewPendingFile(filename, renameio.WithPermissions(m.filePerm))
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer pending.Cleanup()

	if _, err := io.Copy(pending, r); err != nil {
		return "", fmt.Errorf("failed to save photo data: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	if id, ok := ExtractID(filepath.Base(filename)); ok {
		m.mu.Lock()
		m.downloaded.Add(id)
		m.mu.Unlock()
	}

	return filename, nil
}

// WriteFile atomically writes data to path with the configured file mode
func (m *Manager) WriteFile(path string, data []byte) error {
	if err := renameio.WriteFile(path, data, m.filePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// GetDownloadedCount returns the number of photos with media on disk
func (m *Manager) GetDownloadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.downloaded)
}
