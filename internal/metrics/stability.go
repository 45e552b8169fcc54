package metrics

import (
	"github.com/san-kum/partsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// Stability is the fraction of frames in which no particle moved faster than
// the threshold.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f sim.Frame) {
	s.samples++
	for i := 0; i < f.Model.Len(); i++ {
		if r2.Norm(f.Model.Velocity(i)) > s.threshold {
			s.violations++
			break
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
