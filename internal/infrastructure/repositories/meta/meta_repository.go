package meta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// MetaRepository reads release artifacts from the meta branch.
type MetaRepository struct {
	git repositories.GitRepository
}

var _ repositories.MetaRepository = (*MetaRepository)(nil)

// NewMetaRepository creates a new MetaRepository.
func NewMetaRepository(git repositories.GitRepository) *MetaRepository {
	return &MetaRepository{git: git}
}

// ArtifactFiles lists the layouts an artifact of tag may be stored under, in
// lookup order.
func ArtifactFiles(tag string) []string {
	base := entities.ArtifactPath(tag)
	return []string{base + ".json", base + "/meta.json"}
}

// Fetch returns the artifact of the package's latest tag, or nil when there is
// no tag, no meta branch or no artifact.
func (it *MetaRepository) Fetch(ctx context.Context, pkg *entities.Package) (*entities.ReleaseMeta, error) {
	if pkg.Latest.Tag == nil || pkg.Settings == nil || pkg.Settings.MetaBranch == "" {
		return nil, nil //nolint:nilnil // nothing to read
	}

	for _, path := range ArtifactFiles(pkg.Latest.Tag.Ref) {
		data, err := it.git.ReadBranchFile(ctx, pkg.AbsPath, pkg.Settings.MetaBranch, path)
		if errors.Is(err, repositories.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		var meta entities.ReleaseMeta
		if err = json.Unmarshal(data, &meta); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		return &meta, nil
	}
	return nil, nil //nolint:nilnil // no artifact
}
