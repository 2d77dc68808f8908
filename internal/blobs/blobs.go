// Package blobs stores encrypted file contents under .lockbox/blobs.
//
// Blobs are addressed by an opaque handle of the form <uuid><ext>, where ext
// is the original file's extension. Handles never contain path separators.
package blobs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/lockbox/internal/errors"

	"github.com/google/uuid"
)

// Store is a directory of blobs.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Handle returns a fresh blob handle for a file with the given original name.
func Handle(originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if strings.ContainsAny(ext, `/\`) || ext == "." {
		ext = ""
	}
	return uuid.New().String() + ext
}

func (s *Store) path(handle string) (string, error) {
	if handle == "" || handle != filepath.Base(handle) || strings.HasPrefix(handle, ".") {
		return "", fmt.Errorf("invalid blob handle %q", handle)
	}
	return filepath.Join(s.Dir, handle), nil
}

// Write stores data under handle, replacing any existing blob.
func (s *Store) Write(handle string, data []byte) error {
	p, err := s.path(handle)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.Dir, 0700); err != nil {
		return fmt.Errorf("failed to create blob directory: %w", err)
	}

	// Write to a temp file first so a crash never leaves a partial blob.
	tmp, err := os.CreateTemp(s.Dir, ".tmp-"+handle+"-*")
	if err != nil {
		return fmt.Errorf("failed to create blob: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("failed to store blob: %w", err)
	}
	return nil
}

// Read returns the blob's contents. A missing blob yields ErrFileNotFound.
func (s *Store) Read(handle string) ([]byte, error) {
	p, err := s.path(handle)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: blob %s", kerrors.ErrFileNotFound, handle)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

// Remove deletes the blob. Removing a missing blob is not an error.
func (s *Store) Remove(handle string) error {
	p, err := s.path(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}

// Exists reports whether the blob is present.
func (s *Store) Exists(handle string) bool {
	p, err := s.path(handle)
	if err != nil {
		return false
	}
	_, err = os.Stat(p)
	return err == nil
}
