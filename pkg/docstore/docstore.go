// Package docstore persists resume documents on the local filesystem,
// one PDF per consultant, addressed by consultant ID.
package docstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidID rejects IDs that could escape the store directory.
	ErrInvalidID = errors.New("docstore: invalid document id")
	// ErrNotFound reports a missing document.
	ErrNotFound = errors.New("docstore: document not found")
)

// Store is a directory of PDF documents keyed by ID.
type Store struct {
	baseDir string
}

// New creates the base directory if needed and returns a Store over it.
func New(baseDir string) (*Store, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("docstore: base directory required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("docstore: create base dir: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// Save writes the document for id, replacing any previous version.
func (s *Store) Save(id string, data []byte) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("docstore: write %s: %w", id, err)
	}
	return nil
}

// Get reads the document for id.
func (s *Store) Get(id string) ([]byte, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: read %s: %w", id, err)
	}
	return data, nil
}

// Exists reports whether a document for id is stored.
func (s *Store) Exists(id string) (bool, error) {
	path, err := s.path(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("docstore: stat %s: %w", id, err)
	}
	return true, nil
}

// Delete removes the document for id. Deleting a missing document is
// not an error.
func (s *Store) Delete(id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("docstore: delete %s: %w", id, err)
	}
	return nil
}

// Path returns the filesystem path a document for id would occupy.
func (s *Store) Path(id string) (string, error) {
	return s.path(id)
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.baseDir, id+".pdf"), nil
}
