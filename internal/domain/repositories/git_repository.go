package repositories

import (
	"context"
	"errors"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
)

// GitRepository gives read access to the repository holding a package, plus
// pushing release tags.
type GitRepository interface {
	entities.TagSource

	// Commits returns the commits touching dir since sinceRef (all of them when empty),
	// newest first.
	Commits(ctx context.Context, dir, sinceRef string) ([]entities.Commit, error)

	// Sha returns the HEAD commit hash.
	Sha(ctx context.Context, dir string) (string, error)

	// Root returns the top-level directory of the working tree.
	Root(ctx context.Context, dir string) (string, error)

	// RemoteURL returns the fetch URL of the "origin" remote.
	RemoteURL(ctx context.Context, dir string) (string, error)

	// PushTag creates an annotated tag at HEAD and pushes it to "origin".
	PushTag(ctx context.Context, dir, tag string, committer entities.Committer, token string) error

	// ReadBranchFile reads a file from the tip of a local or remote-tracking branch.
	ReadBranchFile(ctx context.Context, dir, branch, path string) ([]byte, error)
}

// ErrNotFound is returned when a branch, file or remote does not exist.
var ErrNotFound = errors.New("not found")
