package metrics

import (
	"fmt"

	"github.com/san-kum/partsim/internal/sim"
)

// Population reports how many particles of one variant were seen in the last
// observed frame.
type Population struct {
	name    string
	variant int
	count   int
}

func NewPopulation(variant int) *Population {
	return &Population{name: fmt.Sprintf("population_%d", variant), variant: variant}
}

func (p *Population) Name() string { return p.name }

func (p *Population) Observe(f sim.Frame) {
	p.count = 0
	for i := 0; i < f.Model.Len(); i++ {
		if f.Model.Variant(i) == p.variant {
			p.count++
		}
	}
}

func (p *Population) Value() float64 { return float64(p.count) }
func (p *Population) Reset()         { p.count = 0 }

// Defaults returns the metrics recorded for every stored run.
func Defaults(variants int, speedLimit float64) []sim.Metric {
	ms := []sim.Metric{
		NewKineticEnergy(),
		NewMeanSpeed(),
		NewMeanForce(),
		NewStability(speedLimit),
	}
	for v := 0; v < variants; v++ {
		ms = append(ms, NewPopulation(v))
	}
	return ms
}
