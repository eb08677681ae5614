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

func TestMemoDo(t *testing.T) {
	t.Parallel()

	t.Run("should run the function once for concurrent callers", func(t *testing.T) {
		t.Parallel()

		// given
		memo := commands.NewMemo()
		var calls atomic.Int32
		var wg sync.WaitGroup

		// when
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = memo.Do(context.Background(), "a", func() error {
					calls.Add(1)
					time.Sleep(10 * time.Millisecond)
					return nil
				})
			}()
		}
		wg.Wait()

		// then
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("should cache a failure", func(t *testing.T) {
		t.Parallel()

		// given
		memo := commands.NewMemo()
		expected := errors.New("boom")
		var calls atomic.Int32
		fn := func() error {
			calls.Add(1)
			return expected
		}

		// when
		first := memo.Do(context.Background(), "a", fn)
		second := memo.Do(context.Background(), "a", fn)

		// then
		require.ErrorIs(t, first, expected)
		require.ErrorIs(t, second, expected)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("should keep keys independent", func(t *testing.T) {
		t.Parallel()

		// given
		memo := commands.NewMemo()
		var calls atomic.Int32
		fn := func() error {
			calls.Add(1)
			return nil
		}

		// when
		require.NoError(t, memo.Do(context.Background(), "a", fn))
		require.NoError(t, memo.Do(context.Background(), "b", fn))

		// then
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("should stop waiting when the caller context is cancelled", func(t *testing.T) {
		t.Parallel()

		// given
		memo := commands.NewMemo()
		release := make(chan struct{})
		started := make(chan struct{})
		go func() {
			_ = memo.Do(context.Background(), "a", func() error {
				close(started)
				<-release
				return nil
			})
		}()
		<-started
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		// when
		err := memo.Do(ctx, "a", func() error { return nil })

		// then
		require.ErrorIs(t, err, context.Canceled)
		close(release)
	})
}
