//go:build unit

package workspace_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/infrastructure/repositories/workspace"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(content), 0o600))
}

func TestWorkspaceGraphRepositoryLoad(t *testing.T) {
	t.Parallel()

	t.Run("should order workspace packages after their dependencies", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeManifest(t, root, `{"name":"root","private":true,"workspaces":["packages/*"]}`)
		writeManifest(t, filepath.Join(root, "packages", "app"),
			`{"name":"app","version":"1.0.0","dependencies":{"lib":"workspace:^","react":"^18.0.0"}}`)
		writeManifest(t, filepath.Join(root, "packages", "lib"),
			`{"name":"lib","version":"1.0.0","devDependencies":{"util":"workspace:*"}}`)
		writeManifest(t, filepath.Join(root, "packages", "util"), `{"name":"util","version":"1.0.0"}`)

		// when
		graph, err := workspace.NewWorkspaceGraphRepository().Load(context.Background(), root)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"util", "lib", "app"}, graph.Queue)
		assert.Equal(t, []string{"lib"}, graph.Prev["app"])
		assert.Equal(t, []string{"util"}, graph.Prev["lib"])
		assert.Empty(t, graph.Prev["util"])
		assert.Equal(t, "packages/app", graph.Packages["app"].RelPath)
		assert.Equal(t, "1.0.0", graph.Packages["app"].Version)
	})

	t.Run("should read workspaces declared as an object", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeManifest(t, root, `{"name":"root","workspaces":{"packages":["libs/**","!libs/internal/**"]}}`)
		writeManifest(t, filepath.Join(root, "libs", "a"), `{"name":"a","version":"1.0.0"}`)
		writeManifest(t, filepath.Join(root, "libs", "group", "b"), `{"name":"b","version":"1.0.0"}`)
		writeManifest(t, filepath.Join(root, "libs", "internal", "c"), `{"name":"c","version":"1.0.0"}`)
		writeManifest(t, filepath.Join(root, "libs", "a", "node_modules", "dep"), `{"name":"dep","version":"1.0.0"}`)

		// when
		graph, err := workspace.NewWorkspaceGraphRepository().Load(context.Background(), root)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, graph.Queue)
	})

	t.Run("should treat a root without workspaces as a single package", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeManifest(t, root, `{"name":"solo","version":"0.1.0"}`)

		// when
		graph, err := workspace.NewWorkspaceGraphRepository().Load(context.Background(), root)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"solo"}, graph.Queue)
		assert.Equal(t, ".", graph.Packages["solo"].RelPath)
	})

	t.Run("should reject cyclic dependencies", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeManifest(t, root, `{"name":"root","workspaces":["packages/*"]}`)
		writeManifest(t, filepath.Join(root, "packages", "a"), `{"name":"a","dependencies":{"b":"*"}}`)
		writeManifest(t, filepath.Join(root, "packages", "b"), `{"name":"b","dependencies":{"a":"*"}}`)

		// when
		_, err := workspace.NewWorkspaceGraphRepository().Load(context.Background(), root)

		// then
		require.ErrorIs(t, err, entities.ErrCyclicGraph)
		assert.Contains(t, err.Error(), "a, b")
	})

	t.Run("should reject a package declared twice", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeManifest(t, root, `{"name":"root","workspaces":["packages/*"]}`)
		writeManifest(t, filepath.Join(root, "packages", "a"), `{"name":"same"}`)
		writeManifest(t, filepath.Join(root, "packages", "b"), `{"name":"same"}`)

		// when
		_, err := workspace.NewWorkspaceGraphRepository().Load(context.Background(), root)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "declared twice")
	})

	t.Run("should fail without a root manifest", func(t *testing.T) {
		t.Parallel()

		// when
		_, err := workspace.NewWorkspaceGraphRepository().Load(context.Background(), t.TempDir())

		// then
		require.Error(t, err)
	})
}

func TestWorkspaceGraphRepositoryWriteManifest(t *testing.T) {
	t.Parallel()

	t.Run("should write the updated manifest back to disk", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		writeManifest(t, root, `{"name":"solo","version":"0.1.0","scripts":{"build":"tsc"}}`)
		repo := workspace.NewWorkspaceGraphRepository()
		graph, err := repo.Load(context.Background(), root)
		require.NoError(t, err)
		pkg := graph.Packages["solo"]
		pkg.Manifest.Version = "0.2.0"

		// when
		err = repo.WriteManifest(pkg)

		// then
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(root, "package.json"))
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"name\": \"solo\",\n  \"version\": \"0.2.0\",\n  \"scripts\": {\n    \"build\": \"tsc\"\n  }\n}\n", string(data))
	})
}

func TestTopoSort(t *testing.T) {
	t.Parallel()

	t.Run("should break ties by name", func(t *testing.T) {
		t.Parallel()

		// given
		packages := map[string]*entities.Package{"c": {}, "a": {}, "b": {}}
		prev := map[string][]string{"c": {}, "a": {}, "b": {}}

		// when
		queue, err := workspace.TopoSort(packages, prev)

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c"}, queue)
	})
}
