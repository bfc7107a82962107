// Package worker runs independent per-item computations on a bounded set of
// goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/logger"
	"github.com/vituk123/fpl-ai-thinktank4-sub000/pkg/metrics"
)

// Task is one unit of work.
type Task func(ctx context.Context) error

// Pool bounds how many tasks run at once. A Pool holds no per-run state and
// may be shared by concurrent callers.
type Pool struct {
	size   int
	name   string
	logger logger.Logger
}

// NewPool creates a pool running at most size tasks concurrently. A size
// below one selects runtime.NumCPU().
func NewPool(size int, opts ...Option) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}
	p := &Pool{size: size, name: "worker-pool"}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Get().Named(p.name)
	}
	return p
}

// Size is the concurrency bound.
func (p *Pool) Size() int { return p.size }

type job struct {
	index int
	task  Task
}

// Run executes every task and waits for them. The first error cancels the
// context passed to tasks that have not started yet and is returned.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	queue := make(chan job, len(tasks))
	for i, t := range tasks {
		queue <- job{index: i, task: t}
	}
	close(queue)

	workers := p.size
	if workers > len(tasks) {
		workers = len(tasks)
	}

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range queue {
				if ctx.Err() != nil {
					continue
				}
				if err := p.process(ctx, j); err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}()
	}
	wg.Wait()
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (p *Pool) process(ctx context.Context, j job) (err error) {
	start := time.Now()
	metrics.UpdateWorkerActive(1)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %d panicked: %v", j.index, r)
		}
		metrics.UpdateWorkerActive(-1)
		metrics.RecordWorkerTask(time.Since(start), err)
		if err != nil {
			p.logger.Debug(ctx, "task failed", logger.Int("task", j.index), logger.Error(err))
		}
	}()
	return j.task(ctx)
}

// Map applies fn to every element of in on pool and returns the results in
// input order.
func Map[T, R any](ctx context.Context, pool *Pool, in []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	tasks := make([]Task, len(in))
	for i := range in {
		tasks[i] = func(ctx context.Context) error {
			r, err := fn(ctx, in[i])
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		}
	}
	if err := pool.Run(ctx, tasks); err != nil {
		return nil, err
	}
	return out, nil
}
