package git

import (
	"context"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

const tagPublisherName = "tag"

// TagPublisher pushes the release tag of a package.
type TagPublisher struct {
	git repositories.GitRepository
}

var _ repositories.PublisherRepository = (*TagPublisher)(nil)

// NewTagPublisher creates a new TagPublisher.
func NewTagPublisher(git repositories.GitRepository) *TagPublisher {
	return &TagPublisher{git: git}
}

func (it *TagPublisher) Name() string { return tagPublisherName }

// Publish creates and pushes pkg.Tag unless tag pushes are disabled.
func (it *TagPublisher) Publish(
	ctx context.Context,
	_ repositories.CommandRepository,
	events entities.EventLog,
	pkg *entities.Package,
	_ map[string]string,
) error {
	if !pkg.Settings.TagPush {
		events.Log(pkg.Name, logger.DebugLevel, "tag push disabled")
		return nil
	}
	events.Log(pkg.Name, logger.InfoLevel, "push release tag %s", pkg.Tag)
	return it.git.PushTag(ctx, pkg.AbsPath, pkg.Tag, pkg.Settings.Committer(), pkg.Settings.GhToken)
}
