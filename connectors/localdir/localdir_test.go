package localdir

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"ee-stats/domain/usage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Fetch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "stats"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stats", "ee_2024-04-23.csv"), []byte("dataset,users\nA,1\n"), 0o644))
	s := New(dir)

	b, err := s.Fetch(context.Background(), "stats/ee_2024-04-23.csv")
	require.NoError(t, err)
	assert.Equal(t, "dataset,users\nA,1\n", string(b))

	_, err = s.Fetch(context.Background(), "stats/ee_2024-04-24.csv")
	assert.ErrorIs(t, err, usage.ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Fetch(ctx, "stats/ee_2024-04-23.csv")
	assert.ErrorIs(t, err, context.Canceled)
}
