package parallel

import (
	"context"
	"sync"
)

// Task is a unit of work executed by the pool.
type Task[T any] func(ctx context.Context) (T, error)

// Result holds one task's outcome in collect-all mode.
type Result[T any] struct {
	Value T
	Err   error
}

// Run executes tasks with at most limit running concurrently, fail-fast:
// the first error cancels scheduling of queued tasks and is returned.
// Tasks already in flight run to completion but their results are
// discarded. Results are ordered by task position, not completion.
func Run[T any](ctx context.Context, tasks []Task[T], limit int) ([]T, error) {
	results := make([]T, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		once     sync.Once
		firstErr error
	)

	run(ctx, len(tasks), limit, func(ctx context.Context, i int) {
		v, err := tasks[i](ctx)
		if err != nil {
			once.Do(func() {
				firstErr = err
				cancel()
			})
			return
		}
		results[i] = v
	})

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// RunAll executes tasks with at most limit running concurrently,
// collect-all: a failed task's error is captured in its slot instead of
// aborting the batch. One Result per input task, in input order.
func RunAll[T any](ctx context.Context, tasks []Task[T], limit int) []Result[T] {
	results := make([]Result[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}

	run(ctx, len(tasks), limit, func(ctx context.Context, i int) {
		v, err := tasks[i](ctx)
		results[i] = Result[T]{Value: v, Err: err}
	})

	return results
}

// run drains n task indices through a fixed-size worker set. Workers stop
// pulling once ctx is canceled; each index is handled exactly once.
func run(ctx context.Context, n, limit int, handle func(ctx context.Context, i int)) {
	if limit <= 0 || limit > n {
		limit = n
	}

	queue := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < limit; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if ctx.Err() != nil {
					continue
				}
				handle(ctx, i)
			}
		}()
	}

	for i := 0; i < n; i++ {
		queue <- i
	}
	close(queue)
	wg.Wait()
}
