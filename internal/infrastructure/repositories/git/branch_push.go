package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/entities"
	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

const (
	scriptFileMode = 0o700
	dataFileMode   = 0o600
	dataDirMode    = 0o750
	pushAttempts   = 3
)

// BranchCommit describes files to commit on top of a branch of a remote.
type BranchCommit struct {
	RemoteURL string
	Branch    string
	Files     map[string][]byte // path inside the branch -> content
	Message   string
	Committer entities.Committer
	Token     string
}

// BranchPusher commits files on top of remote branches. Pushes to the same
// branch are serialized.
type BranchPusher struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewBranchPusher creates a new BranchPusher.
func NewBranchPusher() *BranchPusher {
	return &BranchPusher{locks: make(map[string]*sync.Mutex)}
}

func (it *BranchPusher) lock(key string) *sync.Mutex {
	it.mu.Lock()
	defer it.mu.Unlock()
	lock, ok := it.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		it.locks[key] = lock
	}
	return lock
}

// Push commits the files on top of the remote branch, creating an orphan branch
// when it does not exist yet, and pushes the result. A push rejected by a
// concurrent writer is rebased and retried.
func (it *BranchPusher) Push(
	ctx context.Context,
	runner repositories.CommandRepository,
	commit BranchCommit,
	env map[string]string,
) error {
	lock := it.lock(commit.RemoteURL + "#" + commit.Branch)
	lock.Lock()
	defer lock.Unlock()

	tmpDir, err := os.MkdirTemp("", "monorelease-branch-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	filesDir := filepath.Join(tmpDir, "files")
	for path, content := range commit.Files {
		clean := filepath.Clean(filepath.FromSlash(path))
		if filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
			return fmt.Errorf("invalid branch file path %q", path)
		}
		target := filepath.Join(filesDir, clean)
		if mkErr := os.MkdirAll(filepath.Dir(target), dataDirMode); mkErr != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(target), mkErr)
		}
		if writeErr := os.WriteFile(target, content, dataFileMode); writeErr != nil {
			return fmt.Errorf("failed to write %s: %w", target, writeErr)
		}
	}

	scriptPath := filepath.Join(tmpDir, "push.sh")
	script := buildBranchPushScript(commit.RemoteURL)
	if writeErr := os.WriteFile(scriptPath, []byte(script), scriptFileMode); writeErr != nil {
		return fmt.Errorf("failed to write script: %w", writeErr)
	}

	output, err := runner.Run(ctx, tmpDir, "bash "+scriptPath, buildBranchEnv(commit, env, filesDir, tmpDir))
	if err != nil {
		return fmt.Errorf("failed to push branch %s: %w", commit.Branch, err)
	}
	if !strings.Contains(output, "CHANGES_PUSHED=true") {
		logger.Debugf("[%s] nothing to push on branch %s", entities.GlobalScope, commit.Branch)
	}
	return nil
}

func buildBranchPushScript(remoteURL string) string {
	var sb strings.Builder

	sb.WriteString("#!/bin/bash\n")
	sb.WriteString("set -euo pipefail\n\n")

	writeGitAuth(&sb, remoteURL)
	sb.WriteString("trap 'rm -f \"$TEMP_GITCONFIG\"' EXIT\n\n")

	sb.WriteString("if git clone --quiet --single-branch --branch \"$BRANCH\" --depth=1 \"$REMOTE_URL\" \"$WORK_DIR\" 2>/dev/null; then\n")
	sb.WriteString("    cd \"$WORK_DIR\"\n")
	sb.WriteString("else\n")
	sb.WriteString("    echo \"Branch $BRANCH not found, creating it...\"\n")
	sb.WriteString("    git init --quiet \"$WORK_DIR\"\n")
	sb.WriteString("    cd \"$WORK_DIR\"\n")
	sb.WriteString("    git remote add origin \"$REMOTE_URL\"\n")
	sb.WriteString("    git checkout --quiet --orphan \"$BRANCH\"\n")
	sb.WriteString("fi\n\n")

	sb.WriteString("cp -R \"$FILES_DIR\"/. .\n")
	sb.WriteString("git add -A\n")
	sb.WriteString("if [ -z \"$(git status --porcelain)\" ]; then\n")
	sb.WriteString("    echo \"No changes detected.\"\n")
	sb.WriteString("    echo \"CHANGES_PUSHED=false\"\n")
	sb.WriteString("    exit 0\n")
	sb.WriteString("fi\n")
	sb.WriteString("git commit --quiet -m \"$COMMIT_MSG\"\n\n")

	fmt.Fprintf(&sb, "for attempt in $(seq 1 %d); do\n", pushAttempts)
	sb.WriteString("    if git push --quiet origin \"HEAD:refs/heads/$BRANCH\" 2>&1; then\n")
	sb.WriteString("        echo \"CHANGES_PUSHED=true\"\n")
	sb.WriteString("        exit 0\n")
	sb.WriteString("    fi\n")
	sb.WriteString("    echo \"Push rejected, rebasing (attempt $attempt)...\"\n")
	sb.WriteString("    git pull --quiet --rebase origin \"$BRANCH\" 2>&1 || true\n")
	sb.WriteString("done\n")
	sb.WriteString("exit 1\n")

	return sb.String()
}

func buildBranchEnv(commit BranchCommit, env map[string]string, filesDir, tmpDir string) map[string]string {
	result := make(map[string]string, len(env)+10) //nolint:mnd // fixed script variables
	for key, value := range env {
		result[key] = value
	}
	result["REMOTE_URL"] = commit.RemoteURL
	if commit.Token != "" {
		result["REMOTE_URL"] = HTTPSRemote(commit.RemoteURL)
	}
	result["BRANCH"] = commit.Branch
	result["FILES_DIR"] = filesDir
	result["WORK_DIR"] = filepath.Join(tmpDir, "work")
	result["COMMIT_MSG"] = commit.Message
	result["GIT_AUTHOR_NAME"] = commit.Committer.Name
	result["GIT_AUTHOR_EMAIL"] = commit.Committer.Email
	result["GIT_COMMITTER_NAME"] = commit.Committer.Name
	result["GIT_COMMITTER_EMAIL"] = commit.Committer.Email
	result["GIT_TOKEN"] = commit.Token
	return result
}
