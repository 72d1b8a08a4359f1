package marker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store reports nothing complete", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		done, err := store.IsComplete(ctx, "packages")
		require.NoError(t, err)
		assert.False(t, done)

		ids, err := store.Completed(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)
	})

	t.Run("mark then query", func(t *testing.T) {
		store, err := NewFileStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.MarkComplete(ctx, "packages"))
		require.NoError(t, store.MarkComplete(ctx, "database"))
		require.NoError(t, store.MarkComplete(ctx, "packages")) // idempotent

		done, err := store.IsComplete(ctx, "packages")
		require.NoError(t, err)
		assert.True(t, done)

		ids, err := store.Completed(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"database", "packages"}, ids)
	})

	t.Run("state survives a new store instance", func(t *testing.T) {
		dir := t.TempDir()

		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.MarkComplete(ctx, "database"))

		reopened, err := NewFileStore(dir)
		require.NoError(t, err)
		done, err := reopened.IsComplete(ctx, "database")
		require.NoError(t, err)
		assert.True(t, done)
	})

	t.Run("writes a per-phase done file for unit conditions", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)

		require.NoError(t, store.MarkComplete(ctx, "database"))

		_, err = os.Stat(filepath.Join(dir, "markers", "database.done"))
		assert.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "markers", "database.done"), store.MarkerPath("database"))
	})

	t.Run("corrupt document is an error, not silent reset", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewFileStore(dir)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "phases.json"), []byte("{not json"), 0o644))

		_, err = store.IsComplete(ctx, "packages")
		assert.ErrorContains(t, err, "parse")
	})
}
