//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"sync"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// SpyStatePersister keeps every persisted snapshot in memory.
type SpyStatePersister struct {
	mu        sync.Mutex
	Snapshots [][]byte
	Err       error
}

var _ entities.StatePersister = (*SpyStatePersister)(nil)

func (s *SpyStatePersister) Persist(snapshot []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Snapshots = append(s.Snapshots, append([]byte(nil), snapshot...))
	return s.Err
}

// Last returns the latest snapshot, or nil.
func (s *SpyStatePersister) Last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Snapshots) == 0 {
		return nil
	}
	return s.Snapshots[len(s.Snapshots)-1]
}

// Count returns the number of snapshots.
func (s *SpyStatePersister) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Snapshots)
}

// StubStateRepository hands out a single SpyStatePersister.
type StubStateRepository struct {
	Persister *SpyStatePersister
	OpenErr   error
	Opened    []string
}

var _ repositories.StateRepository = (*StubStateRepository)(nil)

func (s *StubStateRepository) Open(path string) (entities.StatePersister, error) {
	s.Opened = append(s.Opened, path)
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	if s.Persister == nil {
		s.Persister = &SpyStatePersister{}
	}
	return s.Persister, nil
}
