// Package blobstore persists raw DICOM payloads on the local filesystem.
// Blobs live under a fixed root directory and are addressed by a relative
// storage key; the catalog never sees an absolute path, so the root can be
// relocated without rewriting records.
package blobstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/medview/imagestore/common/logger"
)

// Store is a filesystem-backed blob store rooted at a single directory
type Store struct {
	root string
	log  *logger.Logger
}

// New creates a blob store rooted at dir, creating it if necessary
func New(dir string, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &Store{
		root: dir,
		log:  log,
	}, nil
}

// Root returns the storage root directory
func (s *Store) Root() string {
	return s.root
}

// NewKey generates a storage key for an uploaded file: a random UUID joined
// with the sanitized original filename. Uniqueness is probabilistic, no
// existence check is made.
func (s *Store) NewKey(filename string) string {
	return fmt.Sprintf("%s_%s", uuid.New(), sanitizeFilename(filename))
}

// Write stores data under key. Existing blobs are never overwritten in
// place; a fresh key must be generated per upload.
func (s *Store) Write(key string, data []byte) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}

	s.log.Debug("blob written", "storage_key", key, "size_bytes", len(data))
	return nil
}

// Read returns the blob stored under key. A missing blob surfaces as an
// fs.ErrNotExist wrapped error so callers can map it to their own taxonomy.
func (s *Store) Read(key string) ([]byte, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read blob %s: %w", key, err)
	}

	return data, nil
}

// Exists reports whether a blob is stored under key
func (s *Store) Exists(key string) (bool, error) {
	path, err := s.resolve(key)
	if err != nil {
		return false, err
	}

	_, err = os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat blob %s: %w", key, err)
	}

	return true, nil
}

// Delete removes the blob stored under key. Deleting a blob that does not
// exist is not an error, deletion is idempotent.
func (s *Store) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}

	return nil
}

// List returns the storage keys of all blobs under the root
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		keys = append(keys, entry.Name())
	}

	return keys, nil
}

// resolve maps a storage key to an absolute path, rejecting keys that would
// escape the root
func (s *Store) resolve(key string) (string, error) {
	if key == "" || key != filepath.Base(key) || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(s.root, key), nil
}

// sanitizeFilename strips any path components and separator characters from
// an uploaded filename before it becomes part of a storage key
func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '\x00':
			return '_'
		}
		return r
	}, base)

	if base == "" || base == "." || base == ".." {
		return "upload"
	}
	return base
}
