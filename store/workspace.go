// Package store manages the per-app on-disk workspace layout.
package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aluiziolira/fdscrape/models"
)

const (
	ratingFile = "rating.json"
	srcDir     = "src"
)

// Store lays out one workspace directory per package identifier under
// a root. The existence of a workspace directory is the resume marker:
// the filesystem tree itself is the only durable state.
type Store struct {
	root string
}

// New ensures the root directory exists.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create download root %q: %w", root, err)
	}
	return &Store{root: root}, nil
}

// Root returns the download root path.
func (s *Store) Root() string {
	return s.root
}

// AppDir returns the workspace directory for a package.
func (s *Store) AppDir(pkg string) string {
	return filepath.Join(s.root, pkg)
}

// ArchivePath returns the path an archive named name is streamed to
// inside the package workspace.
func (s *Store) ArchivePath(pkg, name string) string {
	return filepath.Join(s.root, pkg, name)
}

// Exists reports whether a workspace for pkg is present.
func (s *Store) Exists(pkg string) bool {
	_, err := os.Stat(s.AppDir(pkg))
	return err == nil
}

// HasSource reports whether the workspace holds an unpacked src tree.
func (s *Store) HasSource(pkg string) bool {
	info, err := os.Stat(filepath.Join(s.AppDir(pkg), srcDir))
	return err == nil && info.IsDir()
}

// Create makes the workspace directory for pkg. An already-existing
// directory is fine: incomplete-workspace retries re-enter it.
func (s *Store) Create(pkg string) error {
	if err := os.Mkdir(s.AppDir(pkg), 0o755); err != nil && !errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("create workspace %s: %w", pkg, err)
	}
	return nil
}

// WriteRating persists the rating sidecar with exclusive-create
// semantics. An existing sidecar is left untouched: the record is
// written once and never mutated.
func (s *Store) WriteRating(pkg string, stats *models.RatingStatistics) error {
	path := filepath.Join(s.AppDir(pkg), ratingFile)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil
		}
		return fmt.Errorf("create %s: %w", path, err)
	}

	buffer := bufio.NewWriter(f)
	if err := json.NewEncoder(buffer).Encode(stats); err != nil {
		f.Close()
		return fmt.Errorf("encode rating for %s: %w", pkg, err)
	}
	if err := buffer.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush rating for %s: %w", pkg, err)
	}
	return f.Close()
}
