package entities

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	mm "github.com/Masterminds/semver/v3"
)

const workspacePrefix = "workspace:"

// https://yarnpkg.com/features/workspaces#workspace-ranges-workspace
var workspaceRange = regexp.MustCompile(`^workspace:(([\^~*])?.*)$`)

// ResolveVersion decides the next declared value of one dependency.
//
// decl is the declared range, actual the version the workspace dependency is
// released as, prev the value recorded by the last release. It returns false
// when the declaration does not need to change.
func ResolveVersion(decl, actual, prev string) (string, bool) {
	if decl == "" {
		return "", false
	}

	if strings.HasPrefix(decl, workspacePrefix) {
		decl = rewriteWorkspaceRange(decl, actual)
		if decl == "" {
			return "", false
		}
	}

	if !Satisfies(actual, decl) {
		if actual == "" || actual == prev {
			return "", false
		}
		return actual, true
	}

	if decl == prev {
		return "", false
	}
	return decl, true
}

// rewriteWorkspaceRange expands a bare workspace modifier against the actual
// version. Anything else, including an exact version, is kept as written after
// the prefix.
func rewriteWorkspaceRange(decl, actual string) string {
	matched := workspaceRange.FindStringSubmatch(decl)
	if matched == nil {
		return decl
	}
	rng, modifier := matched[1], matched[2]
	if modifier == "" || modifier != rng {
		return rng
	}
	if modifier == "*" {
		return actual
	}
	return modifier + actual
}

// Satisfies reports whether version satisfies the range. Unparsable input never satisfies.
func Satisfies(version, rng string) bool {
	if version == "" || rng == "" {
		return false
	}
	v, err := mm.NewVersion(version)
	if err != nil {
		return false
	}
	c, err := mm.NewConstraint(rng)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// UpdateDeps rewrites the package's declarations of other workspace packages and
// returns one change per rewritten declaration. Values are compared against the
// last released snapshot so an already released bump is not reported twice.
func UpdateDeps(pkg *Package, packages map[string]*Package) []Change {
	var changes []Change
	if pkg.Manifest == nil {
		return changes
	}

	for _, scope := range DependencyScopes {
		deps := pkg.Manifest.Scope(scope)
		if len(deps) == 0 {
			continue
		}

		names := make([]string, 0, len(deps))
		for name := range deps {
			names = append(names, name)
		}
		sort.Strings(names)

		prevDeps := pkg.Latest.Meta.Scope(scope)
		for _, name := range names {
			dep, ok := packages[name]
			if !ok {
				continue
			}

			next, changed := ResolveVersion(deps[name], dep.Version, prevDeps[name])
			if !changed {
				continue
			}

			deps[name] = next
			changes = append(changes, Change{
				Group:       "Dependencies",
				ReleaseType: ReleasePatch,
				Change:      "perf",
				Subj:        fmt.Sprintf("perf: %s updated to %s", name, next),
			})
		}
	}

	return changes
}
