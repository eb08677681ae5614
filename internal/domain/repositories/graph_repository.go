package repositories

import (
	"context"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

// GraphRepository discovers the workspace packages and their dependency order.
type GraphRepository interface {
	// Load reads the workspace rooted at cwd. The returned queue is topological.
	Load(ctx context.Context, cwd string) (*entities.Graph, error)

	// WriteManifest writes the package manifest back to disk.
	WriteManifest(pkg *entities.Package) error
}
