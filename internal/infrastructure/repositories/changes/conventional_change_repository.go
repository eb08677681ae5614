package changes

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// https://www.conventionalcommits.org/en/v1.0.0/
var subjectPattern = regexp.MustCompile(`^(\w+)(?:\([^)]*\))?(!)?:\s*(.+)$`)

type rule struct {
	group       string
	releaseType entities.ReleaseType
	prefixes    []string
}

//nolint:gochecknoglobals // static classification table
var rules = []rule{
	{group: "Features", releaseType: entities.ReleaseMinor, prefixes: []string{"feat"}},
	{group: "Fixes & improvements", releaseType: entities.ReleasePatch, prefixes: []string{"fix", "perf", "refactor"}},
}

const (
	breakingGroup   = "BREAKING CHANGES"
	breakingKeyword = "BREAKING CHANGE"
)

// ConventionalChangeRepository classifies the commits of a package with the
// Conventional Commits convention. Commits of other types are not reasons to release.
type ConventionalChangeRepository struct {
	git repositories.GitRepository
}

var _ repositories.ChangeRepository = (*ConventionalChangeRepository)(nil)

// NewConventionalChangeRepository creates a new ConventionalChangeRepository.
func NewConventionalChangeRepository(git repositories.GitRepository) *ConventionalChangeRepository {
	return &ConventionalChangeRepository{git: git}
}

// Changes returns one change per releasable commit touching dir since sinceRef.
func (it *ConventionalChangeRepository) Changes(
	ctx context.Context,
	dir, sinceRef string,
) ([]entities.Change, error) {
	commits, err := it.git.Commits(ctx, dir, sinceRef)
	if err != nil {
		return nil, fmt.Errorf("failed to read commits: %w", err)
	}

	var changes []entities.Change
	for _, commit := range commits {
		if change, ok := Classify(commit); ok {
			changes = append(changes, change)
		}
	}
	return changes, nil
}

// Classify maps one commit to a change, or reports false when the commit is not
// a reason to release.
func Classify(commit entities.Commit) (entities.Change, bool) {
	matched := subjectPattern.FindStringSubmatch(commit.Subject)
	if matched == nil {
		return entities.Change{}, false
	}
	kind, bang := strings.ToLower(matched[1]), matched[2]

	if bang != "" || strings.Contains(commit.Body, breakingKeyword) {
		return entities.Change{
			Group:       breakingGroup,
			ReleaseType: entities.ReleaseMajor,
			Change:      kind,
			Subj:        commit.Subject,
		}, true
	}

	for _, r := range rules {
		for _, prefix := range r.prefixes {
			if kind == prefix {
				return entities.Change{
					Group:       r.group,
					ReleaseType: r.releaseType,
					Change:      kind,
					Subj:        commit.Subject,
				}, true
			}
		}
	}
	return entities.Change{}, false
}
