package commands

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// traverse calls visit once per queued name. A node starts only after all of its
// predecessors in prev have returned; independent nodes run concurrently. The
// first error cancels the context seen by every other node and is returned.
func traverse(
	ctx context.Context,
	queue []string,
	prev map[string][]string,
	visit func(ctx context.Context, name string) error,
) error {
	done := make(map[string]chan struct{}, len(queue))
	for _, name := range queue {
		done[name] = make(chan struct{})
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, name := range queue {
		group.Go(func() error {
			for _, dep := range prev[name] {
				depDone, ok := done[dep]
				if !ok {
					continue
				}
				select {
				case <-depDone:
				case <-groupCtx.Done():
					return groupCtx.Err()
				}
			}
			if err := groupCtx.Err(); err != nil {
				return err
			}

			if err := visit(groupCtx, name); err != nil {
				return err
			}
			close(done[name])
			return nil
		})
	}
	return group.Wait()
}
