//go:build unit

package commands_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/monorelease/internal/domain/commands"
	doubles "github.com/rios0rios0/monorelease/test/infrastructure/repositorydoubles"
)

func TestTagsCommandExecute(t *testing.T) {
	t.Parallel()

	tagNames := []string{"2024.1.1-a.1.0.0-f0", "2024.2.1-a.1.1.0-f0", "b@2.0.0", "v9.9.9"}

	t.Run("should list every release tag newest version first", func(t *testing.T) {
		t.Parallel()

		// given
		cmd := commands.NewTagsCommand(&doubles.SpyGitRepository{TagNames: tagNames})

		// when
		tags, err := cmd.Execute(context.Background(), commands.TagsOptions{})

		// then
		require.NoError(t, err)
		require.Len(t, tags, 3)
		assert.Equal(t, "b", tags[0].Name)
		assert.Equal(t, "1.1.0", tags[1].Version)
	})

	t.Run("should return only the latest tag of a package", func(t *testing.T) {
		t.Parallel()

		// given
		cmd := commands.NewTagsCommand(&doubles.SpyGitRepository{TagNames: tagNames})

		// when
		tags, err := cmd.Execute(context.Background(), commands.TagsOptions{Name: "a"})

		// then
		require.NoError(t, err)
		require.Len(t, tags, 1)
		assert.Equal(t, "2024.2.1-a.1.1.0-f0", tags[0].Ref)
	})

	t.Run("should return an empty list for an unreleased package", func(t *testing.T) {
		t.Parallel()

		// given
		cmd := commands.NewTagsCommand(&doubles.SpyGitRepository{TagNames: tagNames})

		// when
		tags, err := cmd.Execute(context.Background(), commands.TagsOptions{Name: "c"})

		// then
		require.NoError(t, err)
		assert.Empty(t, tags)
		assert.NotNil(t, tags)
	})
}
