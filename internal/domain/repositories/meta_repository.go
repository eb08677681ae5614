package repositories

import (
	"context"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

// MetaRepository reads the release artifact stored for the package's latest tag.
// A missing artifact is reported as (nil, nil).
type MetaRepository interface {
	Fetch(ctx context.Context, pkg *entities.Package) (*entities.ReleaseMeta, error)
}

// RegistryRepository reads the manifest of the package's current version from the
// package registry. A missing manifest is reported as (nil, nil).
type RegistryRepository interface {
	FetchManifest(ctx context.Context, pkg *entities.Package) (*entities.ReleaseMeta, error)
}
