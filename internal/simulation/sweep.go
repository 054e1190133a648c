package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/gyaneshwarpardhi/dssim/internal/algorithm"
	"github.com/gyaneshwarpardhi/dssim/internal/graph"
)

// Sweep runs every setup on g, at most workers at a time. Each run gets its
// own driver, engine and bookkeeping; g is only read. Results come back in
// setup order; a failed setup leaves a nil result and contributes to the
// joined error.
func Sweep(ctx context.Context, reg *algorithm.Registry, g *graph.Graph, setups []Setup, workers int, opts ...Option) ([]*Result, error) {
	pool := newWorkerPool(ctx, workers, len(setups), func(ctx context.Context, s Setup) (*Result, error) {
		d := New(reg, opts...)
		if err := d.Load(g, s); err != nil {
			return nil, err
		}
		return d.Run(ctx)
	})
	for i, s := range setups {
		pool.Submit(i, s) // capacity equals len(setups)
	}
	results, errs := pool.Drain()

	var joined []error
	for i, err := range errs {
		if err != nil {
			joined = append(joined, fmt.Errorf("setup %d (%s): %w", i, setups[i].Algorithm, err))
		}
	}
	return results, errors.Join(joined...)
}
