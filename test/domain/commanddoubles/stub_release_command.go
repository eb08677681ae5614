//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/monorelease/internal/domain/commands"
	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

// StubReleaseCommand is a stub implementation of commands.Release.
type StubReleaseCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	State            *entities.RunState
	LastOpts         commands.ReleaseOptions
}

var _ commands.Release = (*StubReleaseCommand)(nil)

func (s *StubReleaseCommand) Execute(_ context.Context, opts commands.ReleaseOptions) (*entities.RunState, error) {
	s.ExecuteCallCount++
	s.LastOpts = opts
	if s.State == nil {
		s.State = entities.NewRunState(nil)
	}
	return s.State, s.ExecuteErr
}
