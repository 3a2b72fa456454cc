// Package localblob is a filesystem-backed BlobStore, used for local
// development and tests where tables live on disk rather than in S3/GCS/
// ABFSS. Grounded on the teacher's internal/storage adapters, which keep
// one concrete implementation per backend behind a shared interface
// (internal/storage/adapter.go, internal/storage/factory.go).
package localblob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Store roots every path at a base directory on the local filesystem.
type Store struct {
	base string
}

// New returns a Store rooted at base.
func New(base string) *Store {
	return &Store{base: base}
}

func (s *Store) resolve(key string) string {
	return filepath.Join(s.base, filepath.FromSlash(strings.TrimPrefix(key, "file://")))
}

func (s *Store) List(_ context.Context, prefix string) ([]string, error) {
	root := s.resolve(prefix)
	var keys []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(s.base, path)
		if relErr != nil {
			return relErr
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("localblob: list %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(key))
	if err != nil {
		return nil, fmt.Errorf("localblob: open %s: %w", key, err)
	}
	return f, nil
}
