package repositories

import (
	"context"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

// ChangeRepository detects the semantic changes of a package since a release.
type ChangeRepository interface {
	Changes(ctx context.Context, dir, sinceRef string) ([]entities.Change, error)
}
