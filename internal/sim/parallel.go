package sim

import (
	"context"
	"fmt"
	"sync"
)

// Factory builds the i-th independent simulator of an ensemble.
type Factory func(i int) (*Simulator, error)

// Ensemble runs independent simulators concurrently. Each simulator stays
// on its own goroutine, so the single-threaded tick rule still holds.
type Ensemble struct {
	factory Factory
	numRuns int
}

func NewEnsemble(factory Factory, numRuns int) (*Ensemble, error) {
	if factory == nil {
		return nil, fmt.Errorf("%w: nil factory", ErrInvalidArgument)
	}
	if numRuns < 1 {
		return nil, fmt.Errorf("%w: need at least one run, got %d", ErrInvalidArgument, numRuns)
	}
	return &Ensemble{factory: factory, numRuns: numRuns}, nil
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := e.factory(idx)
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx], errs[idx] = s.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("run %d: %w", i, err)
		}
	}

	return results, nil
}
