package compute

import (
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/particles"
)

const MinParallel = 64

// CPUBackend is a particles.ForceModel that evaluates its inner model on
// several goroutines.
type CPUBackend struct {
	inner   particles.RangeForceModel
	workers int
}

// NewCPUBackend uses runtime.NumCPU workers when workers <= 0.
func NewCPUBackend(inner particles.RangeForceModel, workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{inner: inner, workers: workers}
}

func (c *CPUBackend) Name() string { return c.inner.Name() }
func (c *CPUBackend) Workers() int  { return c.workers }

func (c *CPUBackend) Forces(cfg *particles.Config, variants []int, pos, vel, out []r2.Vec) {
	n := len(pos)
	if n < MinParallel || c.workers == 1 {
		c.inner.ForcesRange(cfg, variants, pos, vel, out, 0, n)
		return
	}

	var wg sync.WaitGroup
	chunkSize := (n + c.workers - 1) / c.workers

	for w := 0; w < c.workers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			break
		}

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			c.inner.ForcesRange(cfg, variants, pos, vel, out, lo, hi)
		}(start, end)
	}

	wg.Wait()
}
