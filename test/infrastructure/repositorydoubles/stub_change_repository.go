//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// StubChangeRepository returns the configured changes of each package directory.
type StubChangeRepository struct {
	ChangesByDir map[string][]entities.Change
	ChangesErr   error
}

var _ repositories.ChangeRepository = (*StubChangeRepository)(nil)

func (s *StubChangeRepository) Changes(_ context.Context, dir, _ string) ([]entities.Change, error) {
	if s.ChangesErr != nil {
		return nil, s.ChangesErr
	}
	return append([]entities.Change(nil), s.ChangesByDir[dir]...), nil
}
