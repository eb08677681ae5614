package changelog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
	gitRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/git"
)

const publisherName = "changelog"

// ChangelogPublisher prepends the release notes of a package to its changelog
// file on the changelog branch.
type ChangelogPublisher struct {
	git    repositories.GitRepository
	pusher *gitRepo.BranchPusher
	now    func() time.Time
}

var _ repositories.PublisherRepository = (*ChangelogPublisher)(nil)

// NewChangelogPublisher creates a new ChangelogPublisher.
func NewChangelogPublisher(git repositories.GitRepository, pusher *gitRepo.BranchPusher) *ChangelogPublisher {
	return &ChangelogPublisher{git: git, pusher: pusher, now: time.Now}
}

func (it *ChangelogPublisher) Name() string { return publisherName }

// FileName returns the changelog file of a package on the changelog branch.
func FileName(name string) string {
	return strings.Trim(entities.ArtifactPath(name), "-") + "-changelog.md"
}

// Publish is a no-op unless a changelog branch is configured.
func (it *ChangelogPublisher) Publish(
	ctx context.Context,
	runner repositories.CommandRepository,
	events entities.EventLog,
	pkg *entities.Package,
	env map[string]string,
) error {
	branch := pkg.Settings.ChangelogBranch
	if branch == "" {
		return nil
	}

	file := FileName(pkg.Name)
	existing, err := it.git.ReadBranchFile(ctx, pkg.AbsPath, branch, file)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	content := entities.InsertReleaseNotes(string(existing), entities.FormatReleaseNotes(pkg, it.now()))

	remoteURL, err := it.git.RemoteURL(ctx, pkg.AbsPath)
	if err != nil {
		return err
	}

	events.Log(pkg.Name, logger.InfoLevel, "push release notes to branch '%s'", branch)
	return it.pusher.Push(ctx, runner, gitRepo.BranchCommit{
		RemoteURL: remoteURL,
		Branch:    branch,
		Files:     map[string][]byte{file: []byte(content)},
		Message:   fmt.Sprintf("chore: update changelog %s", pkg.Name),
		Committer: pkg.Settings.Committer(),
		Token:     pkg.Settings.GhToken,
	}, env)
}
