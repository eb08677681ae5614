//go:build unit

package entities_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSettings(t *testing.T) {
	t.Parallel()

	t.Run("should return the defaults without files", func(t *testing.T) {
		t.Parallel()

		// when
		settings, err := entities.LoadSettings(nil, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, entities.DefaultSettings(), *settings)
	})

	t.Run("should let later files override earlier ones key by key", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		root := writeFile(t, dir, "root.yaml", "buildCmd: yarn build\nnpmPublish: false\n")
		pkg := writeFile(t, dir, "pkg.yaml", "buildCmd: make\n")

		// when
		settings, err := entities.LoadSettings([]string{root, pkg}, nil)

		// then
		require.NoError(t, err)
		assert.Equal(t, "make", settings.BuildCmd)
		assert.False(t, settings.NpmPublish)
		assert.True(t, settings.TagPush)
	})

	t.Run("should expand credentials from the environment", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		path := writeFile(t, dir, ".releaserc.yaml",
			"npmToken: ${NPM_TOKEN}\nghToken: ${GH_TOKEN}\nnpmRegistry: https://npm.example.com/\n")

		// when
		settings, err := entities.LoadSettings([]string{path}, map[string]string{"NPM_TOKEN": "secret"})

		// then
		require.NoError(t, err)
		assert.Equal(t, "secret", settings.NpmToken)
		assert.Empty(t, settings.GhToken)
		assert.Equal(t, "https://npm.example.com", settings.NpmRegistry)
	})

	t.Run("should reject unknown keys", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		path := writeFile(t, dir, ".releaserc.yaml", "buildCommand: yarn build\n")

		// when
		_, err := entities.LoadSettings([]string{path}, nil)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid config file")
	})

	t.Run("should reject values of the wrong type", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		path := writeFile(t, dir, ".releaserc.yaml", "tagPush: sometimes\n")

		// when
		_, err := entities.LoadSettings([]string{path}, nil)

		// then
		require.Error(t, err)
	})

	t.Run("should accept an empty file", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		path := writeFile(t, dir, ".releaserc.yaml", "")

		// when
		settings, err := entities.LoadSettings([]string{path}, nil)

		// then
		require.NoError(t, err)
		assert.True(t, settings.NpmPublish)
	})
}

func TestFindSettingsFile(t *testing.T) {
	t.Parallel()

	t.Run("should find the first known file name", func(t *testing.T) {
		t.Parallel()

		// given
		dir := t.TempDir()
		writeFile(t, dir, "release.yml", "")
		expected := writeFile(t, dir, ".releaserc.yml", "")

		// when
		path, err := entities.FindSettingsFile(dir)

		// then
		require.NoError(t, err)
		assert.Equal(t, expected, path)
	})

	t.Run("should report a missing file", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.FindSettingsFile(t.TempDir())

		// then
		require.ErrorIs(t, err, entities.ErrConfigNotFound)
	})
}

func TestSettingsRedacted(t *testing.T) {
	t.Parallel()

	t.Run("should mask tokens only", func(t *testing.T) {
		t.Parallel()

		// given
		settings := entities.DefaultSettings()
		settings.NpmToken = "npm"
		settings.GhToken = "gh"

		// when
		redacted := settings.Redacted()

		// then
		assert.Equal(t, "***", redacted.NpmToken)
		assert.Equal(t, "***", redacted.GhToken)
		assert.Equal(t, settings.NpmRegistry, redacted.NpmRegistry)
		assert.Equal(t, "npm", settings.NpmToken)
	})
}
