//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rios0rios0/monorelease/internal/domain/repositories"
)

// CommandCall is one recorded command invocation.
type CommandCall struct {
	Dir string
	Cmd string
	Env map[string]string
}

// SpyCommandRepository records every command and fails the ones containing a
// configured substring.
type SpyCommandRepository struct {
	mu    sync.Mutex
	Calls []CommandCall

	Output   string
	FailOn   map[string]error // substring of the command -> error
	Delay    time.Duration
	BlockOn  string        // commands containing this substring wait for Release
	Release  chan struct{} // closed by the test to unblock BlockOn commands
	inFlight atomic.Int32
	MaxSeen  atomic.Int32
}

var _ repositories.CommandRepository = (*SpyCommandRepository)(nil)

func (s *SpyCommandRepository) Run(ctx context.Context, dir, cmd string, env map[string]string) (string, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, CommandCall{Dir: dir, Cmd: cmd, Env: env})
	s.mu.Unlock()

	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.MaxSeen.Load()
		if current <= seen || s.MaxSeen.CompareAndSwap(seen, current) {
			break
		}
	}

	if s.BlockOn != "" && strings.Contains(cmd, s.BlockOn) && s.Release != nil {
		select {
		case <-s.Release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	for substring, err := range s.FailOn {
		if strings.Contains(cmd, substring) {
			return "boom", err
		}
	}
	return s.Output, nil
}

// Commands returns a copy of the recorded command lines.
func (s *SpyCommandRepository) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]string, 0, len(s.Calls))
	for _, call := range s.Calls {
		result = append(result, call.Cmd)
	}
	return result
}
