package commands

import (
	"context"
	"sync"
)

// memo runs a function at most once per key and hands the result to every caller,
// including the ones that arrive while it is still running.
type memo struct {
	mu    sync.Mutex
	calls map[string]*memoCall
}

type memoCall struct {
	done chan struct{}
	err  error
}

func newMemo() *memo {
	return &memo{calls: make(map[string]*memoCall)}
}

// Do returns the result of fn for key, running it only for the first caller.
func (m *memo) Do(ctx context.Context, key string, fn func() error) error {
	m.mu.Lock()
	if call, ok := m.calls[key]; ok {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	call := &memoCall{done: make(chan struct{})}
	m.calls[key] = call
	m.mu.Unlock()

	call.err = fn()
	close(call.done)
	return call.err
}
