//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

func TestParseManifest(t *testing.T) {
	t.Parallel()

	t.Run("should read the release fields", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`{"name":"a","version":"1.0.0","private":true,"dependencies":{"b":"workspace:*"}}`)

		// when
		manifest, err := entities.ParseManifest(data)

		// then
		require.NoError(t, err)
		assert.Equal(t, "a", manifest.Name)
		assert.Equal(t, "1.0.0", manifest.Version)
		assert.True(t, manifest.Private)
		assert.Equal(t, map[string]string{"b": "workspace:*"}, manifest.Scope(entities.ScopeDependencies))
		assert.Nil(t, manifest.Scope(entities.ScopeDevDependencies))
	})

	t.Run("should reject a document that is not an object", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := entities.ParseManifest([]byte(`["a"]`))

		// then
		require.Error(t, err)
	})
}

func TestManifestMarshal(t *testing.T) {
	t.Parallel()

	t.Run("should keep unknown keys and their order", func(t *testing.T) {
		t.Parallel()

		// given
		data := []byte(`{"name":"a","scripts":{"build":"tsc"},"version":"1.0.0","dependencies":{"b":"^1.0.0"},"license":"MIT"}`)
		manifest, err := entities.ParseManifest(data)
		require.NoError(t, err)
		manifest.Version = "1.1.0"
		manifest.Dependencies["b"] = "^1.2.0"

		// when
		out, err := manifest.Marshal()

		// then
		require.NoError(t, err)
		assert.Equal(t, `{
  "name": "a",
  "scripts": {
    "build": "tsc"
  },
  "version": "1.1.0",
  "dependencies": {
    "b": "^1.2.0"
  },
  "license": "MIT"
}
`, string(out))
	})

	t.Run("should append keys that were not in the document", func(t *testing.T) {
		t.Parallel()

		// given
		manifest, err := entities.ParseManifest([]byte(`{"name":"a"}`))
		require.NoError(t, err)
		manifest.Version = "1.0.0"

		// when
		out, err := manifest.Marshal()

		// then
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"name\": \"a\",\n  \"version\": \"1.0.0\"\n}\n", string(out))
	})
}

func TestPackagePrevVersion(t *testing.T) {
	t.Parallel()

	t.Run("should prefer the latest tag over the manifest", func(t *testing.T) {
		t.Parallel()

		// given
		manifest, err := entities.ParseManifest([]byte(`{"name":"a","version":"0.0.0"}`))
		require.NoError(t, err)
		pkg := &entities.Package{Name: "a", Manifest: manifest}

		// when / then
		assert.Equal(t, "0.0.0", pkg.PrevVersion())
		pkg.Latest.Tag = &entities.Tag{Version: "2.0.0"}
		assert.Equal(t, "2.0.0", pkg.PrevVersion())
	})
}
