package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	domain "github.com/mohammadpnp/csv-import/internal/domain/importjob"
)

var _ domain.ObjectStore = (*LocalStore)(nil)

var errPathEscapesBase = errors.New("path escapes storage directory")

// LocalStore serves object paths from a directory on disk.
type LocalStore struct {
	BaseDir string
}

func NewLocalStore(baseDir string) *LocalStore {
	if baseDir == "" {
		baseDir = "."
	}
	return &LocalStore{BaseDir: baseDir}
}

func (s *LocalStore) Download(ctx context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrObjectNotFound, path)
		}
		return nil, fmt.Errorf("read file %s: %w", full, err)
	}
	return content, nil
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file %s: %w", full, err)
	}
	return nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	full := filepath.Join(s.BaseDir, filepath.FromSlash(path))
	rel, err := filepath.Rel(s.BaseDir, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", errPathEscapesBase, path)
	}
	return full, nil
}
