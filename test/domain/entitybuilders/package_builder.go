//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"encoding/json"
	"path/filepath"

	testkit "github.com/rios0rios0/testkit/pkg/test"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

// PackageBuilder helps create workspace packages with a fluent interface.
type PackageBuilder struct {
	*testkit.BaseBuilder
	name     string
	version  string
	root     string
	private  bool
	deps     map[entities.DependencyScope]map[string]string
	settings *entities.Settings
}

// NewPackageBuilder creates a new package builder with sensible defaults.
func NewPackageBuilder() *PackageBuilder {
	return &PackageBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		name:        "pkg-a",
		version:     "1.0.0",
		root:        "/repo",
		deps:        map[entities.DependencyScope]map[string]string{},
	}
}

// WithName sets the package name.
func (b *PackageBuilder) WithName(name string) *PackageBuilder {
	b.name = name
	return b
}

// WithVersion sets the manifest version.
func (b *PackageBuilder) WithVersion(version string) *PackageBuilder {
	b.version = version
	return b
}

// WithRoot sets the repository root the package lives under.
func (b *PackageBuilder) WithRoot(root string) *PackageBuilder {
	b.root = root
	return b
}

// WithPrivate marks the package as private.
func (b *PackageBuilder) WithPrivate(private bool) *PackageBuilder {
	b.private = private
	return b
}

// WithDependency declares a dependency in the given scope.
func (b *PackageBuilder) WithDependency(scope entities.DependencyScope, name, rng string) *PackageBuilder {
	if b.deps[scope] == nil {
		b.deps[scope] = map[string]string{}
	}
	b.deps[scope][name] = rng
	return b
}

// WithSettings sets the resolved settings.
func (b *PackageBuilder) WithSettings(settings *entities.Settings) *PackageBuilder {
	b.settings = settings
	return b
}

// Build creates the package (satisfies testkit.Builder interface).
func (b *PackageBuilder) Build() interface{} {
	return b.BuildPackage()
}

// BuildPackage creates the package with a concrete return type. The manifest is
// parsed from JSON so that it behaves like one read from disk.
func (b *PackageBuilder) BuildPackage() *entities.Package {
	doc := map[string]any{"name": b.name, "version": b.version}
	if b.private {
		doc["private"] = true
	}
	for scope, deps := range b.deps {
		copied := make(map[string]string, len(deps))
		for name, rng := range deps {
			copied[name] = rng
		}
		doc[string(scope)] = copied
	}
	data, _ := json.Marshal(doc)
	manifest, err := entities.ParseManifest(data)
	if err != nil {
		panic(err)
	}

	relPath := "packages/" + b.name
	return &entities.Package{
		Name:         b.name,
		AbsPath:      filepath.Join(b.root, relPath),
		RelPath:      relPath,
		ManifestPath: filepath.Join(b.root, relPath, "package.json"),
		Manifest:     manifest,
		Version:      b.version,
		Settings:     b.settings,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *PackageBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.name = "pkg-a"
	b.version = "1.0.0"
	b.root = "/repo"
	b.private = false
	b.deps = map[entities.DependencyScope]map[string]string{}
	b.settings = nil
	return b
}

// Clone creates a deep copy of the PackageBuilder.
func (b *PackageBuilder) Clone() testkit.Builder {
	deps := make(map[entities.DependencyScope]map[string]string, len(b.deps))
	for scope, entries := range b.deps {
		deps[scope] = make(map[string]string, len(entries))
		for name, rng := range entries {
			deps[scope][name] = rng
		}
	}
	return &PackageBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		name:        b.name,
		version:     b.version,
		root:        b.root,
		private:     b.private,
		deps:        deps,
		settings:    b.settings,
	}
}

// NewGraph assembles a graph from packages, using the declared workspace
// dependencies as edges and the argument order as queue.
func NewGraph(root string, packages ...*entities.Package) *entities.Graph {
	graph := &entities.Graph{
		Root:     root,
		Packages: make(map[string]*entities.Package, len(packages)),
		Prev:     make(map[string][]string, len(packages)),
	}
	for _, pkg := range packages {
		graph.Packages[pkg.Name] = pkg
		graph.Queue = append(graph.Queue, pkg.Name)
	}
	for _, pkg := range packages {
		prev := []string{}
		for _, scope := range entities.DependencyScopes {
			for dep := range pkg.Manifest.Scope(scope) {
				if _, ok := graph.Packages[dep]; ok {
					prev = append(prev, dep)
				}
			}
		}
		graph.Prev[pkg.Name] = prev
	}
	return graph
}
