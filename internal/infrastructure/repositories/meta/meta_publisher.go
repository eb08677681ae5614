package meta

import (
	"context"
	"encoding/json"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
	gitRepo "github.com/rios0rios0/monorelease/internal/infrastructure/repositories/git"
)

const publisherName = "meta"

// MetaPublisher stores the release artifact of a package on the meta branch.
type MetaPublisher struct {
	git    repositories.GitRepository
	pusher *gitRepo.BranchPusher
}

var _ repositories.PublisherRepository = (*MetaPublisher)(nil)

// NewMetaPublisher creates a new MetaPublisher.
func NewMetaPublisher(git repositories.GitRepository, pusher *gitRepo.BranchPusher) *MetaPublisher {
	return &MetaPublisher{git: git, pusher: pusher}
}

func (it *MetaPublisher) Name() string { return publisherName }

// Publish commits <artifact path of the tag>.json to the meta branch.
func (it *MetaPublisher) Publish(
	ctx context.Context,
	runner repositories.CommandRepository,
	events entities.EventLog,
	pkg *entities.Package,
	env map[string]string,
) error {
	branch := pkg.Settings.MetaBranch
	if branch == "" {
		events.Log(pkg.Name, logger.DebugLevel, "meta branch disabled")
		return nil
	}

	data, err := json.MarshalIndent(entities.NewReleaseMeta(pkg, pkg.Git.Sha), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode release meta: %w", err)
	}
	remoteURL, err := it.git.RemoteURL(ctx, pkg.AbsPath)
	if err != nil {
		return err
	}

	events.Log(pkg.Name, logger.InfoLevel, "push artifact to branch '%s'", branch)
	return it.pusher.Push(ctx, runner, gitRepo.BranchCommit{
		RemoteURL: remoteURL,
		Branch:    branch,
		Files:     map[string][]byte{ArtifactFiles(pkg.Tag)[0]: append(data, '\n')},
		Message:   fmt.Sprintf("chore: release meta %s %s", pkg.Name, pkg.Version),
		Committer: pkg.Settings.Committer(),
		Token:     pkg.Settings.GhToken,
	}, env)
}
