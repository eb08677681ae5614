package commands

import (
	"context"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// Tags is the interface for the tags command.
type Tags interface {
	Execute(ctx context.Context, opts TagsOptions) ([]entities.Tag, error)
}

// TagsOptions holds the filters of a tags listing.
type TagsOptions struct {
	Cwd  string
	Name string // only the latest release of this package
	Ref  string // only tags pointing at this revision
}

// TagsCommand lists the release tags of a repository, newest version first.
type TagsCommand struct {
	git repositories.GitRepository
}

// NewTagsCommand creates a new TagsCommand.
func NewTagsCommand(git repositories.GitRepository) *TagsCommand {
	return &TagsCommand{git: git}
}

// Execute lists every parsed release tag, or the latest one of opts.Name.
func (it *TagsCommand) Execute(ctx context.Context, opts TagsOptions) ([]entities.Tag, error) {
	dir := opts.Cwd
	if dir == "" {
		dir = "."
	}

	if opts.Name != "" {
		latest, err := entities.GetLatestTag(ctx, it.git, dir, opts.Name)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			return []entities.Tag{}, nil
		}
		return []entities.Tag{*latest}, nil
	}

	return entities.GetTags(ctx, it.git, dir, opts.Ref)
}
