package npm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

const registryTimeout = 15 * time.Second

// RegistryRepository reads published manifests from an npm registry.
type RegistryRepository struct {
	client *http.Client
}

var _ repositories.RegistryRepository = (*RegistryRepository)(nil)

// NewRegistryRepository creates a new RegistryRepository.
func NewRegistryRepository() *RegistryRepository {
	return &RegistryRepository{client: &http.Client{Timeout: registryTimeout}}
}

type publishedManifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	GitHead              string            `json:"gitHead"`
	Dependencies         map[string]string `json:"dependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
}

// ManifestURL returns the registry document of one package version.
func ManifestURL(registry, name, version string) string {
	return strings.TrimSuffix(registry, "/") + "/" + url.PathEscape(name) + "/" + url.PathEscape(version)
}

// FetchManifest returns the manifest published for the package's latest tag as a
// release snapshot, or nil when the package is private or unpublished. An
// untagged package is looked up at its manifest version.
func (it *RegistryRepository) FetchManifest(
	ctx context.Context,
	pkg *entities.Package,
) (*entities.ReleaseMeta, error) {
	if pkg.Settings == nil || (pkg.Manifest != nil && pkg.Manifest.Private) {
		return nil, nil //nolint:nilnil // nothing to fetch
	}

	version := publishedVersion(pkg)
	if version == "" {
		return nil, nil //nolint:nilnil // no version to look up
	}
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, ManifestURL(pkg.Settings.NpmRegistry, pkg.Name, version), nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if pkg.Settings.NpmToken != "" {
		req.Header.Set("Authorization", "Bearer "+pkg.Settings.NpmToken)
	}

	resp, err := it.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest of %s@%s: %w", pkg.Name, version, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil //nolint:nilnil // never published
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var manifest publishedManifest
	if decodeErr := json.NewDecoder(resp.Body).Decode(&manifest); decodeErr != nil {
		return nil, fmt.Errorf("failed to parse manifest of %s@%s: %w", pkg.Name, version, decodeErr)
	}

	return &entities.ReleaseMeta{
		MetaVersion:          entities.MetaVersion,
		Name:                 manifest.Name,
		Hash:                 manifest.GitHead,
		Version:              manifest.Version,
		Dependencies:         manifest.Dependencies,
		DevDependencies:      manifest.DevDependencies,
		PeerDependencies:     manifest.PeerDependencies,
		OptionalDependencies: manifest.OptionalDependencies,
	}, nil
}

func publishedVersion(pkg *entities.Package) string {
	if pkg.Latest.Tag != nil {
		return strings.TrimPrefix(pkg.Latest.Tag.Version, "v")
	}
	if pkg.Manifest != nil {
		return pkg.Manifest.Version
	}
	return ""
}
