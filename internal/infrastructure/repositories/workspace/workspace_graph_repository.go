package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

const (
	manifestFile     = "package.json"
	manifestFileMode = 0o644
	anyDepth         = "**"
)

// WorkspaceGraphRepository discovers npm/yarn workspaces and orders them so that
// a package never precedes the workspace packages it depends on.
type WorkspaceGraphRepository struct{}

var _ repositories.GraphRepository = (*WorkspaceGraphRepository)(nil)

// NewWorkspaceGraphRepository creates a new WorkspaceGraphRepository.
func NewWorkspaceGraphRepository() *WorkspaceGraphRepository {
	return &WorkspaceGraphRepository{}
}

// Load reads the root manifest of cwd and every workspace member it declares. A
// root without workspaces is a single-package repository.
func (it *WorkspaceGraphRepository) Load(_ context.Context, cwd string) (*entities.Graph, error) {
	root, err := filepath.Abs(cwd)
	if err != nil {
		return nil, fmt.Errorf("invalid working directory %q: %w", cwd, err)
	}

	rootPkg, err := readPackage(root, root)
	if err != nil {
		return nil, err
	}
	patterns, err := workspacePatterns(rootPkg.Manifest)
	if err != nil {
		return nil, err
	}

	packages := map[string]*entities.Package{}
	if len(patterns) == 0 {
		packages[rootPkg.Name] = rootPkg
	} else {
		dirs, globErr := ExpandPatterns(root, patterns)
		if globErr != nil {
			return nil, globErr
		}
		for _, dir := range dirs {
			pkg, readErr := readPackage(root, dir)
			if readErr != nil {
				return nil, readErr
			}
			if pkg.Name == "" {
				logger.Debugf("[%s] %s has no package name, skipped", entities.GlobalScope, pkg.RelPath)
				continue
			}
			if existing, ok := packages[pkg.Name]; ok {
				return nil, fmt.Errorf("package %q is declared twice: %s and %s", pkg.Name, existing.RelPath, pkg.RelPath)
			}
			packages[pkg.Name] = pkg
		}
	}

	prev := Predecessors(packages)
	queue, err := TopoSort(packages, prev)
	if err != nil {
		return nil, err
	}

	return &entities.Graph{
		Root:     root,
		Packages: packages,
		Queue:    queue,
		Prev:     prev,
	}, nil
}

// WriteManifest writes the package manifest back to its package.json.
func (it *WorkspaceGraphRepository) WriteManifest(pkg *entities.Package) error {
	data, err := pkg.Manifest.Marshal()
	if err != nil {
		return err
	}
	if err = os.WriteFile(pkg.ManifestPath, data, manifestFileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", pkg.ManifestPath, err)
	}
	return nil
}

func readPackage(root, dir string) (*entities.Package, error) {
	manifestPath := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", manifestPath, err)
	}
	manifest, err := entities.ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifestPath, err)
	}

	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return nil, err
	}
	return &entities.Package{
		Name:         manifest.Name,
		AbsPath:      dir,
		RelPath:      filepath.ToSlash(rel),
		ManifestPath: manifestPath,
		Manifest:     manifest,
		Version:      manifest.Version,
	}, nil
}

// workspacePatterns reads "workspaces" as either a list or {"packages": [...]}.
func workspacePatterns(manifest *entities.Manifest) ([]string, error) {
	raw, ok := manifest.Raw("workspaces")
	if !ok {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var object struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, fmt.Errorf("invalid workspaces field: %w", err)
	}
	return object.Packages, nil
}

// ExpandPatterns resolves workspace globs to the sorted list of directories that
// hold a package.json. Patterns starting with "!" exclude matches; "**" matches
// any depth below its prefix.
func ExpandPatterns(root string, patterns []string) ([]string, error) {
	included := map[string]bool{}
	var excludes []string

	for _, pattern := range patterns {
		if negated, ok := strings.CutPrefix(pattern, "!"); ok {
			excludes = append(excludes, negated)
			continue
		}
		dirs, err := expandPattern(root, pattern)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			included[dir] = true
		}
	}
	for _, pattern := range excludes {
		dirs, err := expandPattern(root, pattern)
		if err != nil {
			return nil, err
		}
		for _, dir := range dirs {
			delete(included, dir)
		}
	}

	result := make([]string, 0, len(included))
	for dir := range included {
		result = append(result, dir)
	}
	sort.Strings(result)
	return result, nil
}

func expandPattern(root, pattern string) ([]string, error) {
	pattern = strings.TrimSuffix(filepath.ToSlash(pattern), "/")

	if prefix, _, ok := strings.Cut(pattern, anyDepth); ok {
		return walkPackages(filepath.Join(root, filepath.FromSlash(prefix)))
	}

	matches, err := filepath.Glob(filepath.Join(root, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, fmt.Errorf("invalid workspace pattern %q: %w", pattern, err)
	}
	var dirs []string
	for _, match := range matches {
		if hasManifest(match) {
			dirs = append(dirs, match)
		}
	}
	return dirs, nil
}

func walkPackages(base string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != base && (entry.Name() == "node_modules" || strings.HasPrefix(entry.Name(), ".")) {
			return filepath.SkipDir
		}
		if path != base && hasManifest(path) {
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", base, err)
	}
	return dirs, nil
}

func hasManifest(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, manifestFile))
	return err == nil && !info.IsDir()
}

// Predecessors maps every package to the sorted workspace packages it declares
// in any dependency scope.
func Predecessors(packages map[string]*entities.Package) map[string][]string {
	prev := make(map[string][]string, len(packages))
	for name, pkg := range packages {
		seen := map[string]bool{}
		deps := []string{}
		for _, scope := range entities.DependencyScopes {
			for dep := range pkg.Manifest.Scope(scope) {
				if _, ok := packages[dep]; !ok || dep == name || seen[dep] {
					continue
				}
				seen[dep] = true
				deps = append(deps, dep)
			}
		}
		sort.Strings(deps)
		prev[name] = deps
	}
	return prev
}

// TopoSort orders packages with Kahn's algorithm, breaking ties by name.
func TopoSort(packages map[string]*entities.Package, prev map[string][]string) ([]string, error) {
	pending := make(map[string]int, len(packages))
	next := make(map[string][]string, len(packages))
	for name := range packages {
		pending[name] = len(prev[name])
		for _, dep := range prev[name] {
			next[dep] = append(next[dep], name)
		}
	}

	var ready []string
	for name, count := range pending {
		if count == 0 {
			ready = append(ready, name)
		}
	}
	sort.Strings(ready)

	queue := make([]string, 0, len(packages))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		queue = append(queue, name)

		for _, dependent := range next[name] {
			pending[dependent]--
			if pending[dependent] == 0 {
				ready = append(ready, dependent)
			}
		}
		sort.Strings(ready)
	}

	if len(queue) != len(packages) {
		var cyclic []string
		for name, count := range pending {
			if count > 0 {
				cyclic = append(cyclic, name)
			}
		}
		sort.Strings(cyclic)
		return nil, fmt.Errorf("%w: %s", entities.ErrCyclicGraph, strings.Join(cyclic, ", "))
	}
	return queue, nil
}
