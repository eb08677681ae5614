package command

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// ShellCommandRepository runs commands with "bash -c".
type ShellCommandRepository struct{}

var _ repositories.CommandRepository = (*ShellCommandRepository)(nil)

// NewShellCommandRepository creates a new ShellCommandRepository.
func NewShellCommandRepository() *ShellCommandRepository {
	return &ShellCommandRepository{}
}

// Run executes cmd in dir. The combined output is returned and, on failure,
// included in the error.
func (it *ShellCommandRepository) Run(
	ctx context.Context,
	dir, cmd string,
	env map[string]string,
) (string, error) {
	command := exec.CommandContext(ctx, "bash", "-c", cmd)
	command.Dir = dir
	command.Env = buildEnv(env)

	logger.Debugf("$ %s (in %s)", cmd, dir)
	output, err := command.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("command %q failed: %w\nOutput:\n%s", cmd, err, output)
	}
	return string(output), nil
}

// buildEnv appends env to the process environment; later entries win.
func buildEnv(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for key := range env {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := os.Environ()
	for _, key := range keys {
		result = append(result, key+"="+env[key])
	}
	return result
}
