//go:build unit

package commands_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/monorelease/internal/domain/commands"
)

func TestTraverse(t *testing.T) {
	t.Parallel()

	t.Run("should visit a node only after its predecessors", func(t *testing.T) {
		t.Parallel()

		// given
		queue := []string{"a", "b", "c", "d"}
		prev := map[string][]string{"b": {"a"}, "c": {"a"}, "d": {"b", "c"}}
		var mu sync.Mutex
		finished := map[string]bool{}
		var violations []string

		// when
		err := commands.Traverse(context.Background(), queue, prev, func(_ context.Context, name string) error {
			mu.Lock()
			for _, dep := range prev[name] {
				if !finished[dep] {
					violations = append(violations, name+" before "+dep)
				}
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			finished[name] = true
			mu.Unlock()
			return nil
		})

		// then
		require.NoError(t, err)
		assert.Empty(t, violations)
		assert.Len(t, finished, 4)
	})

	t.Run("should run independent nodes concurrently", func(t *testing.T) {
		t.Parallel()

		// given
		queue := []string{"a", "b"}
		started := make(chan string, 2)
		release := make(chan struct{})

		// when
		done := make(chan error, 1)
		go func() {
			done <- commands.Traverse(context.Background(), queue, map[string][]string{}, func(_ context.Context, name string) error {
				started <- name
				<-release
				return nil
			})
		}()

		// then
		first := <-started
		second := <-started
		assert.ElementsMatch(t, []string{"a", "b"}, []string{first, second})
		close(release)
		require.NoError(t, <-done)
	})

	t.Run("should stop dependents after a failure and return the first error", func(t *testing.T) {
		t.Parallel()

		// given
		queue := []string{"a", "b", "c"}
		prev := map[string][]string{"b": {"a"}, "c": {"b"}}
		expected := errors.New("build failed")
		var visited atomic.Int32

		// when
		err := commands.Traverse(context.Background(), queue, prev, func(_ context.Context, name string) error {
			visited.Add(1)
			if name == "a" {
				return expected
			}
			return nil
		})

		// then
		require.ErrorIs(t, err, expected)
		assert.Equal(t, int32(1), visited.Load())
	})

	t.Run("should cancel the context of running siblings", func(t *testing.T) {
		t.Parallel()

		// given
		queue := []string{"slow", "failing"}
		expected := errors.New("boom")

		// when
		err := commands.Traverse(context.Background(), queue, map[string][]string{}, func(ctx context.Context, name string) error {
			if name == "failing" {
				return expected
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return errors.New("not cancelled")
			}
		})

		// then
		require.ErrorIs(t, err, expected)
	})

	t.Run("should ignore predecessors outside the queue", func(t *testing.T) {
		t.Parallel()

		// given
		var visited atomic.Int32

		// when
		err := commands.Traverse(context.Background(), []string{"a"}, map[string][]string{"a": {"external"}},
			func(_ context.Context, _ string) error {
				visited.Add(1)
				return nil
			})

		// then
		require.NoError(t, err)
		assert.Equal(t, int32(1), visited.Load())
	})
}
