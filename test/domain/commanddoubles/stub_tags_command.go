//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/monorelease/internal/domain/commands"
	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

// StubTagsCommand is a stub implementation of commands.Tags.
type StubTagsCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Tags             []entities.Tag
	LastOpts         commands.TagsOptions
}

var _ commands.Tags = (*StubTagsCommand)(nil)

func (s *StubTagsCommand) Execute(_ context.Context, opts commands.TagsOptions) ([]entities.Tag, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	return s.Tags, s.ExecuteErr
}
