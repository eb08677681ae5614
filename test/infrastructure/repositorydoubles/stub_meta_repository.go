//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync/atomic"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// StubMetaRepository returns the configured release metadata per package name.
type StubMetaRepository struct {
	Metas    map[string]*entities.ReleaseMeta
	FetchErr error
	Calls    atomic.Int32
}

var _ repositories.MetaRepository = (*StubMetaRepository)(nil)

func (s *StubMetaRepository) Fetch(_ context.Context, pkg *entities.Package) (*entities.ReleaseMeta, error) {
	s.Calls.Add(1)
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	return s.Metas[pkg.Name], nil
}

// StubRegistryRepository returns the configured registry manifests per package name.
type StubRegistryRepository struct {
	Metas    map[string]*entities.ReleaseMeta
	FetchErr error
	Calls    atomic.Int32
}

var _ repositories.RegistryRepository = (*StubRegistryRepository)(nil)

func (s *StubRegistryRepository) FetchManifest(
	_ context.Context, pkg *entities.Package,
) (*entities.ReleaseMeta, error) {
	s.Calls.Add(1)
	if s.FetchErr != nil {
		return nil, s.FetchErr
	}
	return s.Metas[pkg.Name], nil
}
