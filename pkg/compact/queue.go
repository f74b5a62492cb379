package compact

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Queue is the per-invocation execution queue. Independent tasks
// (block workers, per-column scatters) are issued onto it without
// intermediate synchronization; Wait is the only ordering point.
type Queue struct {
	grp *errgroup.Group
	ctx context.Context
}

func NewQueue(ctx context.Context, workers int) *Queue {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	return &Queue{grp: grp, ctx: gctx}
}

func (q *Queue) Submit(fn func() error) {
	q.grp.Go(func() error {
		if err := q.ctx.Err(); err != nil {
			return err
		}
		return fn()
	})
}

// Wait blocks until every issued task has completed. A task failure
// surfaces here and fails the whole invocation.
func (q *Queue) Wait() error {
	return q.grp.Wait()
}
