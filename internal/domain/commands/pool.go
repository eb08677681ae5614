package commands

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/rios0rios0/monorelease/internal/domain/repositories"
	"github.com/rios0rios0/monorelease/internal/metrics"
)

// CommandPool bounds the number of shell commands running at once across the
// whole run, independently of how many packages are processed concurrently.
type CommandPool struct {
	runner   repositories.CommandRepository
	sem      *semaphore.Weighted
	size     int
	inFlight atomic.Int64
	recorder metrics.Recorder
}

var _ repositories.CommandRepository = (*CommandPool)(nil)

// NewCommandPool wraps runner with a pool of size slots. A size below one means
// one slot per logical CPU.
func NewCommandPool(runner repositories.CommandRepository, size int, recorder metrics.Recorder) *CommandPool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &CommandPool{
		runner:   runner,
		sem:      semaphore.NewWeighted(int64(size)),
		size:     size,
		recorder: recorder,
	}
}

// Size returns the number of slots.
func (it *CommandPool) Size() int {
	return it.size
}

// Run waits for a free slot, then runs the command.
func (it *CommandPool) Run(ctx context.Context, dir, cmd string, env map[string]string) (string, error) {
	if err := it.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire command slot: %w", err)
	}
	defer it.sem.Release(1)

	it.recorder.SetCommandsInFlight(int(it.inFlight.Add(1)))
	defer func() {
		it.recorder.SetCommandsInFlight(int(it.inFlight.Add(-1)))
	}()

	output, err := it.runner.Run(ctx, dir, cmd, env)
	it.recorder.IncCommand(err == nil)
	return output, err
}
