package localdir

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ee-stats/domain/usage"
)

// Store reads snapshot files from a directory, using the object key as a
// relative path. It is used for offline runs and fixtures.
type Store struct {
	dir string
}

func New(dir string) *Store { return &Store{dir: dir} }

func (s *Store) Fetch(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", path, usage.ErrNotFound)
	}
	return b, err
}
