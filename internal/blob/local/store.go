// Package local writes snapshot objects to the filesystem.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Store writes objects under a base directory, mirroring the object
// path as subdirectories.
type Store struct {
	baseDir string
}

func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) PutObject(_ context.Context, path, _ string, data []byte) (string, error) {
	full := filepath.Join(s.baseDir, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return full, nil
}
