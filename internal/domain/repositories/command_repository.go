package repositories

import "context"

// CommandRepository runs shell commands.
type CommandRepository interface {
	// Run executes cmd in dir with env added to the process environment and returns
	// the combined output. A non-zero exit is an error.
	Run(ctx context.Context, dir, cmd string, env map[string]string) (string, error)
}
