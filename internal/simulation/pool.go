package simulation

import (
	"context"
	"sync"
)

// job is the unit of work dispatched to a worker.
type job[T any] struct {
	index   int
	payload T
}

// workerPool is a fixed-size goroutine pool with a bounded input queue.
// Results are written into a slice by job index, so callers get them in
// submission order regardless of completion order.
type workerPool[T, R any] struct {
	queue   chan job[T]
	process func(ctx context.Context, t T) (R, error)
	wg      sync.WaitGroup

	results []R
	errs    []error
}

// newWorkerPool creates and starts a pool of n goroutines for size jobs.
func newWorkerPool[T, R any](ctx context.Context, n, size int, fn func(context.Context, T) (R, error)) *workerPool[T, R] {
	if n < 1 {
		n = 1
	}
	p := &workerPool[T, R]{
		queue:   make(chan job[T], size),
		process: fn,
		results: make([]R, size),
		errs:    make([]error, size),
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.run(ctx)
		}()
	}
	return p
}

func (p *workerPool[T, R]) run(ctx context.Context) {
	for {
		select {
		case j, ok := <-p.queue:
			if !ok {
				return
			}
			if err := ctx.Err(); err != nil {
				p.errs[j.index] = err
				continue
			}
			p.results[j.index], p.errs[j.index] = p.process(ctx, j.payload)
		case <-ctx.Done():
			// fail whatever is still queued so every slot has an outcome
			for j := range p.queue {
				p.errs[j.index] = ctx.Err()
			}
			return
		}
	}
}

// Submit enqueues job i without blocking (returns false if full).
func (p *workerPool[T, R]) Submit(i int, t T) bool {
	select {
	case p.queue <- job[T]{index: i, payload: t}:
		return true
	default:
		return false
	}
}

// Drain closes the queue, waits for all workers and returns the results.
func (p *workerPool[T, R]) Drain() ([]R, []error) {
	close(p.queue)
	p.wg.Wait()
	return p.results, p.errs
}
