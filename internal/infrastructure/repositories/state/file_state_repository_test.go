//go:build unit

package state_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/monorelease/internal/infrastructure/repositories/state"
)

func TestFileStateRepository(t *testing.T) {
	t.Parallel()

	t.Run("should create parent directories and replace the report", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "reports", "nested", "run.json")
		persister, err := state.NewFileStateRepository().Open(path)
		require.NoError(t, err)

		// when
		require.NoError(t, persister.Persist([]byte(`{"status":"initial"}`)))
		require.NoError(t, persister.Persist([]byte(`{"status":"success"}`)))

		// then
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"success"}`, string(data))

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1)

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	})

	t.Run("should expose the absolute report path", func(t *testing.T) {
		t.Parallel()

		// given
		path := filepath.Join(t.TempDir(), "run.json")

		// when
		persister, err := state.NewFileStateRepository().Open(path)

		// then
		require.NoError(t, err)
		filePersister, ok := persister.(*state.FilePersister)
		require.True(t, ok)
		assert.Equal(t, path, filePersister.Path())
	})
}
