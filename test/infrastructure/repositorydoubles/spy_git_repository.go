//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"sync"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// SpyGitRepository implements repositories.GitRepository as a configurable spy.
type SpyGitRepository struct {
	mu sync.Mutex

	// --- Tags ---
	TagNames []string
	TagsErr  error

	// --- Commits ---
	CommitsByDir map[string][]entities.Commit
	CommitsErr   error

	// --- Sha / Root / RemoteURL ---
	HeadSha   string
	RootDir   string
	Remote    string
	RemoteErr error

	// --- PushTag ---
	PushTagErr error
	PushedTags []string

	// --- ReadBranchFile ---
	BranchFiles   map[string][]byte // "branch:path" -> content
	ReadBranchErr error
	ReadPaths     []string
}

var _ repositories.GitRepository = (*SpyGitRepository)(nil)

func (s *SpyGitRepository) Tags(_ context.Context, _, _ string) ([]string, error) {
	return s.TagNames, s.TagsErr
}

func (s *SpyGitRepository) Commits(_ context.Context, dir, _ string) ([]entities.Commit, error) {
	return s.CommitsByDir[dir], s.CommitsErr
}

func (s *SpyGitRepository) Sha(_ context.Context, _ string) (string, error) {
	return s.HeadSha, nil
}

func (s *SpyGitRepository) Root(_ context.Context, dir string) (string, error) {
	if s.RootDir != "" {
		return s.RootDir, nil
	}
	return dir, nil
}

func (s *SpyGitRepository) RemoteURL(_ context.Context, _ string) (string, error) {
	return s.Remote, s.RemoteErr
}

func (s *SpyGitRepository) PushTag(
	_ context.Context, _ string, tag string, _ entities.Committer, _ string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.PushedTags = append(s.PushedTags, tag)
	return s.PushTagErr
}

func (s *SpyGitRepository) ReadBranchFile(_ context.Context, _, branch, path string) ([]byte, error) {
	s.mu.Lock()
	s.ReadPaths = append(s.ReadPaths, branch+":"+path)
	s.mu.Unlock()

	if s.ReadBranchErr != nil {
		return nil, s.ReadBranchErr
	}
	if content, ok := s.BranchFiles[branch+":"+path]; ok {
		return content, nil
	}
	return nil, fmt.Errorf("%s on branch %q: %w", path, branch, repositories.ErrNotFound)
}

// Pushed returns a copy of the pushed tags.
func (s *SpyGitRepository) Pushed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.PushedTags...)
}
