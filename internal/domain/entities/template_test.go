//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	builders "github.com/rios0rios0/monorelease/test/domain/entitybuilders"
)

func TestRenderCommand(t *testing.T) {
	t.Parallel()

	t.Run("should substitute package values", func(t *testing.T) {
		t.Parallel()

		// given
		pkg := builders.NewPackageBuilder().WithName("@scope/lib").WithVersion("1.0.0").BuildPackage()
		pkg.Version = "1.1.0"
		pkg.ReleaseType = entities.ReleaseMinor
		pkg.Tag = "2024.1.2-scope.lib.1.1.0-f0"
		pkg.Git = entities.GitContext{Sha: "abc123", Root: "/repo"}

		// when
		cmd, err := entities.RenderCommand(
			"echo ${{name}} ${{ version }} ${{prevVersion}} ${{releaseType}} ${{tag}} ${{git.sha}} ${{git.root}}", pkg)

		// then
		require.NoError(t, err)
		assert.Equal(t, "echo @scope/lib 1.1.0 1.0.0 minor 2024.1.2-scope.lib.1.1.0-f0 abc123 /repo", cmd)
	})

	t.Run("should leave commands without placeholders untouched", func(t *testing.T) {
		t.Parallel()

		// given
		pkg := builders.NewPackageBuilder().BuildPackage()

		// when
		cmd, err := entities.RenderCommand("yarn build && echo ${HOME}", pkg)

		// then
		require.NoError(t, err)
		assert.Equal(t, "yarn build && echo ${HOME}", cmd)
	})

	t.Run("should reject an unknown placeholder", func(t *testing.T) {
		t.Parallel()

		// given
		pkg := builders.NewPackageBuilder().BuildPackage()

		// when
		_, err := entities.RenderCommand("echo ${{ secret }}", pkg)

		// then
		require.ErrorIs(t, err, entities.ErrUnknownPlaceholder)
		assert.Contains(t, err.Error(), "secret")
	})
}
