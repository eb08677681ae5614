//go:build unit

package repositories_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/monorelease/internal/infrastructure/repositories"
	doubles "github.com/rios0rios0/monorelease/test/infrastructure/repositorydoubles"
)

func TestPublisherRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should keep registration order", func(t *testing.T) {
		t.Parallel()

		// given
		registry := repositories.NewPublisherRegistry()

		// when
		registry.Register(&doubles.SpyPublisherRepository{PublisherName: "tag"})
		registry.Register(&doubles.SpyPublisherRepository{PublisherName: "npm"})

		// then
		assert.Equal(t, []string{"tag", "npm"}, registry.Names())
		assert.Len(t, registry.All(), 2)
	})

	t.Run("should replace a publisher registered twice in place", func(t *testing.T) {
		t.Parallel()

		// given
		registry := repositories.NewPublisherRegistry()
		replacement := &doubles.SpyPublisherRepository{PublisherName: "tag"}
		registry.Register(&doubles.SpyPublisherRepository{PublisherName: "tag"})
		registry.Register(&doubles.SpyPublisherRepository{PublisherName: "npm"})

		// when
		registry.Register(replacement)

		// then
		assert.Equal(t, []string{"tag", "npm"}, registry.Names())
		assert.Same(t, replacement, registry.All()[0])
	})
}
