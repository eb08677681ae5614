//go:build unit

package entities_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	builders "github.com/rios0rios0/monorelease/test/domain/entitybuilders"
)

func TestResolveVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		decl    string
		actual  string
		prev    string
		want    string
		changed bool
	}{
		{"should expand a bare caret workspace range", "workspace:^", "1.2.3", "", "^1.2.3", true},
		{"should expand a bare tilde workspace range", "workspace:~", "1.2.3", "", "~1.2.3", true},
		{"should expand a star workspace range to the exact version", "workspace:*", "1.2.3", "", "1.2.3", true},
		{"should keep an exact workspace version that is still satisfied", "workspace:1.2.3", "1.2.3", "", "1.2.3", true},
		{"should bump an exact workspace version that is no longer satisfied", "workspace:1.0.0", "2.0.0", "", "2.0.0", true},
		{"should report nothing when the expanded range equals the snapshot", "workspace:*", "1.2.3", "1.2.3", "", false},
		{"should replace a range the new version escapes", "^1.0.0", "2.0.0", "^1.0.0", "2.0.0", true},
		{"should keep a satisfied range that equals the snapshot", "^1.0.0", "1.5.0", "^1.0.0", "", false},
		{"should report a satisfied range that differs from the snapshot", "^1.0.0", "1.5.0", "", "^1.0.0", true},
		{"should ignore an unknown actual version", "^1.0.0", "", "", "", false},
		{"should ignore an escaped range when actual equals the snapshot", "^1.0.0", "2.0.0", "2.0.0", "", false},
		{"should ignore an empty declaration", "", "1.0.0", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// when
			got, changed := entities.ResolveVersion(tt.decl, tt.actual, tt.prev)

			// then
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSatisfies(t *testing.T) {
	t.Parallel()

	t.Run("should never satisfy unparsable input", func(t *testing.T) {
		t.Parallel()

		assert.True(t, entities.Satisfies("1.2.3", "^1.0.0"))
		assert.False(t, entities.Satisfies("2.0.0", "^1.0.0"))
		assert.False(t, entities.Satisfies("not-a-version", "^1.0.0"))
		assert.False(t, entities.Satisfies("1.0.0", "not a range"))
		assert.False(t, entities.Satisfies("", "*"))
	})
}

func TestUpdateDeps(t *testing.T) {
	t.Parallel()

	t.Run("should rewrite workspace dependencies and report a patch change", func(t *testing.T) {
		t.Parallel()

		// given
		a := builders.NewPackageBuilder().WithName("a").WithVersion("1.1.0").BuildPackage()
		b := builders.NewPackageBuilder().
			WithName("b").
			WithDependency(entities.ScopeDependencies, "a", "workspace:^").
			WithDependency(entities.ScopeDependencies, "lodash", "^4.0.0").
			BuildPackage()
		packages := map[string]*entities.Package{"a": a, "b": b}

		// when
		changes := entities.UpdateDeps(b, packages)

		// then
		require.Len(t, changes, 1)
		assert.Equal(t, entities.ReleasePatch, changes[0].ReleaseType)
		assert.Equal(t, "Dependencies", changes[0].Group)
		assert.Equal(t, "perf: a updated to ^1.1.0", changes[0].Subj)
		assert.Equal(t, "^1.1.0", b.Manifest.Dependencies["a"])
		assert.Equal(t, "^4.0.0", b.Manifest.Dependencies["lodash"])
	})

	t.Run("should not report a bump already recorded by the last release", func(t *testing.T) {
		t.Parallel()

		// given
		a := builders.NewPackageBuilder().WithName("a").WithVersion("1.1.0").BuildPackage()
		b := builders.NewPackageBuilder().
			WithName("b").
			WithDependency(entities.ScopeDevDependencies, "a", "workspace:*").
			BuildPackage()
		b.Latest.Meta = &entities.ReleaseMeta{DevDependencies: map[string]string{"a": "1.1.0"}}
		packages := map[string]*entities.Package{"a": a, "b": b}

		// when
		changes := entities.UpdateDeps(b, packages)

		// then
		assert.Empty(t, changes)
		assert.Equal(t, "workspace:*", b.Manifest.DevDependencies["a"])
	})

	t.Run("should visit every dependency scope", func(t *testing.T) {
		t.Parallel()

		// given
		a := builders.NewPackageBuilder().WithName("a").WithVersion("2.0.0").BuildPackage()
		b := builders.NewPackageBuilder().
			WithName("b").
			WithDependency(entities.ScopePeerDependencies, "a", "^1.0.0").
			WithDependency(entities.ScopeOptionalDependencies, "a", "^1.0.0").
			BuildPackage()
		packages := map[string]*entities.Package{"a": a, "b": b}

		// when
		changes := entities.UpdateDeps(b, packages)

		// then
		assert.Len(t, changes, 2)
		assert.Equal(t, "2.0.0", b.Manifest.PeerDependencies["a"])
		assert.Equal(t, "2.0.0", b.Manifest.OptionalDependencies["a"])
	})
}
