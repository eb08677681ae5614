package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// DependencyScope names one of the manifest's dependency maps.
type DependencyScope string

const (
	ScopeDependencies         DependencyScope = "dependencies"
	ScopeDevDependencies      DependencyScope = "devDependencies"
	ScopePeerDependencies     DependencyScope = "peerDependencies"
	ScopeOptionalDependencies DependencyScope = "optionalDependencies"
)

// DependencyScopes lists the scopes in the order they are processed.
//
//nolint:gochecknoglobals // fixed order
var DependencyScopes = []DependencyScope{
	ScopeDependencies,
	ScopeDevDependencies,
	ScopePeerDependencies,
	ScopeOptionalDependencies,
}

// Manifest is the subset of package.json the release flow reads and rewrites.
// Unknown keys are kept verbatim so that a write-back does not lose them.
type Manifest struct {
	Name                 string
	Version              string
	Private              bool
	Dependencies         map[string]string
	DevDependencies      map[string]string
	PeerDependencies     map[string]string
	OptionalDependencies map[string]string

	raw   map[string]json.RawMessage
	order []string
}

// ErrCyclicGraph is returned when workspace packages depend on each other in a loop.
var ErrCyclicGraph = errors.New("cyclic dependency graph")

// ParseManifest decodes a package.json document.
func ParseManifest(data []byte) (*Manifest, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	order, err := objectKeys(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	var known struct {
		Name                 string            `json:"name"`
		Version              string            `json:"version"`
		Private              bool              `json:"private"`
		Dependencies         map[string]string `json:"dependencies"`
		DevDependencies      map[string]string `json:"devDependencies"`
		PeerDependencies     map[string]string `json:"peerDependencies"`
		OptionalDependencies map[string]string `json:"optionalDependencies"`
	}
	if err = json.Unmarshal(data, &known); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	return &Manifest{
		Name:                 known.Name,
		Version:              known.Version,
		Private:              known.Private,
		Dependencies:         known.Dependencies,
		DevDependencies:      known.DevDependencies,
		PeerDependencies:     known.PeerDependencies,
		OptionalDependencies: known.OptionalDependencies,
		raw:                  raw,
		order:                order,
	}, nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("not a JSON object")
	}

	var keys []string
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		keys = append(keys, key)

		var skip json.RawMessage
		if err = dec.Decode(&skip); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// Raw returns an untouched top-level field of the original document.
func (m *Manifest) Raw(key string) (json.RawMessage, bool) {
	value, ok := m.raw[key]
	return value, ok
}

// Scope returns the dependency map of the given scope (nil when absent).
func (m *Manifest) Scope(scope DependencyScope) map[string]string {
	if m == nil {
		return nil
	}
	switch scope {
	case ScopeDependencies:
		return m.Dependencies
	case ScopeDevDependencies:
		return m.DevDependencies
	case ScopePeerDependencies:
		return m.PeerDependencies
	case ScopeOptionalDependencies:
		return m.OptionalDependencies
	}
	return nil
}

// Marshal encodes the manifest back to JSON with two-space indentation. Keys
// keep their original order; new keys are appended.
func (m *Manifest) Marshal() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.raw)+len(DependencyScopes))
	for key, value := range m.raw {
		out[key] = value
	}
	order := append([]string(nil), m.order...)

	set := func(key string, value any) error {
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to encode %q: %w", key, err)
		}
		if _, ok := out[key]; !ok {
			order = append(order, key)
		}
		out[key] = encoded
		return nil
	}

	if m.Name != "" {
		if err := set("name", m.Name); err != nil {
			return nil, err
		}
	}
	if m.Version != "" {
		if err := set("version", m.Version); err != nil {
			return nil, err
		}
	}
	for _, scope := range DependencyScopes {
		deps := m.Scope(scope)
		if deps == nil {
			continue
		}
		if err := set(string(scope), deps); err != nil {
			return nil, err
		}
	}

	var compact bytes.Buffer
	compact.WriteByte('{')
	for i, key := range order {
		if i > 0 {
			compact.WriteByte(',')
		}
		encodedKey, err := json.Marshal(key)
		if err != nil {
			return nil, fmt.Errorf("failed to encode manifest: %w", err)
		}
		compact.Write(encodedKey)
		compact.WriteByte(':')
		compact.Write(out[key])
	}
	compact.WriteByte('}')

	var indented bytes.Buffer
	if err := json.Indent(&indented, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("failed to indent manifest: %w", err)
	}
	indented.WriteByte('\n')
	return indented.Bytes(), nil
}

// ReleaseMeta is the snapshot stored alongside every release.
type ReleaseMeta struct {
	MetaVersion          string            `json:"META_VERSION"`
	Name                 string            `json:"name"`
	Hash                 string            `json:"hash"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	DevDependencies      map[string]string `json:"devDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
}

// MetaVersion is the current artifact schema version.
const MetaVersion = "1"

// Scope returns the recorded dependency map of the given scope.
func (m *ReleaseMeta) Scope(scope DependencyScope) map[string]string {
	if m == nil {
		return nil
	}
	switch scope {
	case ScopeDependencies:
		return m.Dependencies
	case ScopeDevDependencies:
		return m.DevDependencies
	case ScopePeerDependencies:
		return m.PeerDependencies
	case ScopeOptionalDependencies:
		return m.OptionalDependencies
	}
	return nil
}

// NewReleaseMeta snapshots the package manifest at the given commit hash.
func NewReleaseMeta(pkg *Package, hash string) ReleaseMeta {
	return ReleaseMeta{
		MetaVersion:          MetaVersion,
		Name:                 pkg.Name,
		Hash:                 hash,
		Version:              pkg.Version,
		Dependencies:         pkg.Manifest.Dependencies,
		DevDependencies:      pkg.Manifest.DevDependencies,
		PeerDependencies:     pkg.Manifest.PeerDependencies,
		OptionalDependencies: pkg.Manifest.OptionalDependencies,
	}
}

// Latest holds what is known about the previous release of a package.
type Latest struct {
	Tag  *Tag
	Meta *ReleaseMeta
}

// GitContext is the repository state captured while analyzing a package.
type GitContext struct {
	Sha  string
	Root string
}

// Package is one workspace member of the monorepo.
type Package struct {
	Name         string
	AbsPath      string
	RelPath      string
	ManifestPath string
	Manifest     *Manifest

	// computed during analysis
	Version     string
	ReleaseType ReleaseType
	Changes     []Change
	Latest      Latest
	Settings    *Settings
	Git         GitContext
	Tag         string
}

// PrevVersion is the version the package is released from.
func (p *Package) PrevVersion() string {
	if p.Latest.Tag != nil {
		return p.Latest.Tag.Version
	}
	if p.Manifest != nil {
		return p.Manifest.Version
	}
	return ""
}

// Graph is the dependency graph of the workspace packages.
type Graph struct {
	Root     string
	Packages map[string]*Package
	// Queue is a topological order: a package never precedes its dependencies.
	Queue []string
	// Prev maps a package to the workspace packages it depends on.
	Prev map[string][]string
}
