//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// StubGraphRepository returns a fixed graph and records written manifests.
type StubGraphRepository struct {
	mu sync.Mutex

	Graph   *entities.Graph
	LoadErr error

	WriteErr  error
	Written   []string
	Manifests map[string][]byte
}

var _ repositories.GraphRepository = (*StubGraphRepository)(nil)

func (s *StubGraphRepository) Load(_ context.Context, _ string) (*entities.Graph, error) {
	return s.Graph, s.LoadErr
}

func (s *StubGraphRepository) WriteManifest(pkg *entities.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Written = append(s.Written, pkg.Name)
	if s.WriteErr != nil {
		return s.WriteErr
	}
	data, err := pkg.Manifest.Marshal()
	if err != nil {
		return err
	}
	if s.Manifests == nil {
		s.Manifests = map[string][]byte{}
	}
	s.Manifests[pkg.Name] = data
	return nil
}

// WrittenNames returns a copy of the packages whose manifest was written.
func (s *StubGraphRepository) WrittenNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.Written...)
}
