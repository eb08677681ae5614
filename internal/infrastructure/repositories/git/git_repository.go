package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

const remoteName = "origin"

// GitRepository implements repositories.GitRepository on top of go-git. Every call
// opens the repository containing dir, so it is safe for concurrent use.
type GitRepository struct{}

var _ repositories.GitRepository = (*GitRepository)(nil)

// NewGitRepository creates a new GitRepository.
func NewGitRepository() *GitRepository {
	return &GitRepository{}
}

func open(dir string) (*gogit.Repository, error) {
	//nolint:exhaustruct // only dot-git detection is needed
	repo, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open repository at %s: %w", dir, err)
	}
	return repo, nil
}

// Tags lists the tag names, optionally only the ones pointing at ref.
func (it *GitRepository) Tags(_ context.Context, dir, ref string) ([]string, error) {
	repo, err := open(dir)
	if err != nil {
		return nil, err
	}

	var target plumbing.Hash
	if ref != "" {
		hash, resolveErr := resolveCommit(repo, ref)
		if resolveErr != nil {
			return nil, resolveErr
		}
		target = hash
	}

	iter, err := repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}

	var names []string
	err = iter.ForEach(func(tagRef *plumbing.Reference) error {
		if ref != "" {
			hash, peelErr := peel(repo, tagRef.Hash())
			if peelErr != nil || hash != target {
				return nil //nolint:nilerr // tags that do not point at a commit are ignored
			}
		}
		names = append(names, tagRef.Name().Short())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return names, nil
}

// Commits returns the commits reachable from HEAD but not from sinceRef that
// changed dir, newest first.
func (it *GitRepository) Commits(_ context.Context, dir, sinceRef string) ([]entities.Commit, error) {
	repo, err := open(dir)
	if err != nil {
		return nil, err
	}
	rel, err := relativePath(repo, dir)
	if err != nil {
		return nil, err
	}

	released := map[plumbing.Hash]bool{}
	if sinceRef != "" {
		since, resolveErr := resolveCommit(repo, sinceRef)
		if resolveErr != nil {
			return nil, resolveErr
		}
		if released, err = ancestors(repo, since); err != nil {
			return nil, err
		}
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to read HEAD: %w", err)
	}
	//nolint:exhaustruct // defaults for the remaining log options
	iter, err := repo.Log(&gogit.LogOptions{From: head.Hash(), Order: gogit.LogOrderCommitterTime})
	if err != nil {
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var commits []entities.Commit
	err = iter.ForEach(func(commit *object.Commit) error {
		if released[commit.Hash] {
			return nil
		}
		if !touches(commit, rel) {
			return nil
		}
		subject, body, _ := strings.Cut(strings.TrimSpace(commit.Message), "\n")
		commits = append(commits, entities.Commit{
			Hash:    commit.Hash.String(),
			Subject: strings.TrimSpace(subject),
			Body:    strings.TrimSpace(body),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk log: %w", err)
	}
	return commits, nil
}

// Sha returns the HEAD commit hash.
func (it *GitRepository) Sha(_ context.Context, dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// Root returns the top-level directory of the working tree.
func (it *GitRepository) Root(_ context.Context, dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}
	return worktree.Filesystem.Root(), nil
}

// RemoteURL returns the first URL of the "origin" remote.
func (it *GitRepository) RemoteURL(_ context.Context, dir string) (string, error) {
	repo, err := open(dir)
	if err != nil {
		return "", err
	}
	remote, err := repo.Remote(remoteName)
	if err != nil {
		if errors.Is(err, gogit.ErrRemoteNotFound) {
			return "", fmt.Errorf("remote %q: %w", remoteName, repositories.ErrNotFound)
		}
		return "", fmt.Errorf("failed to read remote %q: %w", remoteName, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf("remote %q has no URL: %w", remoteName, repositories.ErrNotFound)
	}
	return urls[0], nil
}

// PushTag creates an annotated tag at HEAD and pushes it to "origin".
func (it *GitRepository) PushTag(
	ctx context.Context,
	dir, tag string,
	committer entities.Committer,
	token string,
) error {
	repo, err := open(dir)
	if err != nil {
		return err
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("failed to read HEAD: %w", err)
	}

	//nolint:exhaustruct // no signing
	_, err = repo.CreateTag(tag, head.Hash(), &gogit.CreateTagOptions{
		Tagger:  &object.Signature{Name: committer.Name, Email: committer.Email, When: time.Now()},
		Message: tag,
	})
	if err != nil && !errors.Is(err, gogit.ErrTagExists) {
		return fmt.Errorf("failed to create tag %s: %w", tag, err)
	}

	remoteURL, err := it.RemoteURL(ctx, dir)
	if err != nil {
		return err
	}
	refSpec := config.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag))
	//nolint:exhaustruct // defaults for the remaining push options
	opts := &gogit.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refSpec},
	}
	if token != "" {
		opts.Auth = &http.BasicAuth{Username: TokenUser(remoteURL), Password: token}
	}

	logger.Debugf("[%s] pushing tag %s to %s", entities.GlobalScope, tag, RedactURL(remoteURL))
	if err = repo.PushContext(ctx, opts); err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push tag %s: %w", tag, err)
	}
	return nil
}

// ReadBranchFile reads path from the tip of branch, preferring the remote-tracking
// branch after a best-effort fetch.
func (it *GitRepository) ReadBranchFile(ctx context.Context, dir, branch, path string) ([]byte, error) {
	repo, err := open(dir)
	if err != nil {
		return nil, err
	}

	refSpec := config.RefSpec(fmt.Sprintf("+refs/heads/%s:refs/remotes/%s/%s", branch, remoteName, branch))
	//nolint:exhaustruct // defaults for the remaining fetch options
	fetchErr := repo.FetchContext(ctx, &gogit.FetchOptions{
		RemoteName: remoteName,
		RefSpecs:   []config.RefSpec{refSpec},
		Depth:      1,
	})
	if fetchErr != nil && !errors.Is(fetchErr, gogit.NoErrAlreadyUpToDate) {
		logger.Debugf("[%s] fetch of branch %s skipped: %v", entities.GlobalScope, branch, fetchErr)
	}

	var commit *object.Commit
	for _, name := range []plumbing.ReferenceName{
		plumbing.NewRemoteReferenceName(remoteName, branch),
		plumbing.NewBranchReferenceName(branch),
	} {
		ref, refErr := repo.Reference(name, true)
		if refErr != nil {
			continue
		}
		if commit, err = repo.CommitObject(ref.Hash()); err == nil {
			break
		}
	}
	if commit == nil {
		return nil, fmt.Errorf("branch %q: %w", branch, repositories.ErrNotFound)
	}

	file, err := commit.File(path)
	if err != nil {
		if errors.Is(err, object.ErrFileNotFound) {
			return nil, fmt.Errorf("%s on branch %q: %w", path, branch, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s on branch %q: %w", path, branch, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s on branch %q: %w", path, branch, err)
	}
	return []byte(contents), nil
}

// ancestors returns the set of commits reachable from hash, hash included.
func ancestors(repo *gogit.Repository, hash plumbing.Hash) (map[plumbing.Hash]bool, error) {
	//nolint:exhaustruct // defaults for the remaining log options
	iter, err := repo.Log(&gogit.LogOptions{From: hash})
	if err != nil {
		return nil, fmt.Errorf("failed to read log of %s: %w", hash, err)
	}
	defer iter.Close()

	seen := map[plumbing.Hash]bool{}
	err = iter.ForEach(func(commit *object.Commit) error {
		seen[commit.Hash] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk log of %s: %w", hash, err)
	}
	return seen, nil
}

// resolveCommit turns a tag name or any revision into a commit hash.
func resolveCommit(repo *gogit.Repository, ref string) (plumbing.Hash, error) {
	if tagRef, err := repo.Tag(ref); err == nil {
		return peel(repo, tagRef.Hash())
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve %s: %w", ref, err)
	}
	return *hash, nil
}

// peel follows annotated tag objects down to the commit they point at.
func peel(repo *gogit.Repository, hash plumbing.Hash) (plumbing.Hash, error) {
	tag, err := repo.TagObject(hash)
	if errors.Is(err, plumbing.ErrObjectNotFound) {
		return hash, nil
	}
	if err != nil {
		return plumbing.ZeroHash, err
	}
	commit, err := tag.Commit()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return commit.Hash, nil
}

// relativePath returns dir relative to the worktree root, using "/" separators.
func relativePath(repo *gogit.Repository, dir string) (string, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if resolved, evalErr := filepath.EvalSymlinks(absDir); evalErr == nil {
		absDir = resolved
	}
	root := worktree.Filesystem.Root()
	if resolved, evalErr := filepath.EvalSymlinks(root); evalErr == nil {
		root = resolved
	}
	rel, err := filepath.Rel(root, absDir)
	if err != nil {
		return "", fmt.Errorf("%s is outside the repository: %w", dir, err)
	}
	return filepath.ToSlash(rel), nil
}

// touches reports whether the commit changed anything under rel.
func touches(commit *object.Commit, rel string) bool {
	current := subtreeHash(commit, rel)
	if commit.NumParents() == 0 {
		return !current.IsZero()
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return true
	}
	return current != subtreeHash(parent, rel)
}

func subtreeHash(commit *object.Commit, rel string) plumbing.Hash {
	tree, err := commit.Tree()
	if err != nil {
		return plumbing.ZeroHash
	}
	if rel == "." || rel == "" {
		return tree.Hash
	}
	entry, err := tree.FindEntry(rel)
	if err != nil {
		return plumbing.ZeroHash
	}
	return entry.Hash
}
