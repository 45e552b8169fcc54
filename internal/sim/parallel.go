package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/san-kum/partsim/internal/particles"
)

// ModelFactory builds an independent model from a seed.
type ModelFactory func(seed int64) (*particles.Model, error)

// Ensemble runs independently seeded models concurrently. Every run owns its
// model, its metrics and its random source.
type Ensemble struct {
	factory   ModelFactory
	metrics   func() []Metric
	numRuns   int
	seedStart int64
	logger    *log.Logger
}

func NewEnsemble(factory ModelFactory, numRuns int, seedStart int64, logger *log.Logger) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart, logger: logger}
}

// WithMetrics sets a constructor called once per run.
func (e *Ensemble) WithMetrics(fn func() []Metric) *Ensemble {
	e.metrics = fn
	return e
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			seed := e.seedStart + int64(idx)
			model, err := e.factory(seed)
			if err != nil {
				errs[idx] = fmt.Errorf("run %d: %w", idx, err)
				return
			}

			r := New(model, e.logger)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					r.AddMetric(m)
				}
			}

			results[idx], errs[idx] = r.Run(ctx, cfg)
			if results[idx] != nil {
				results[idx].Seed = seed
			}
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
