package metrics

import (
	"github.com/san-kum/partsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// KineticEnergy averages the batch's kinetic energy over observed frames.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (e *KineticEnergy) Name() string { return e.name }

func (e *KineticEnergy) Observe(f sim.Frame) {
	e.total += f.Model.KineticEnergy()
	e.samples++
}

func (e *KineticEnergy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *KineticEnergy) Reset() {
	e.total = 0
	e.samples = 0
}

// MeanSpeed averages particle speed over every particle and frame.
type MeanSpeed struct {
	name    string
	total   float64
	samples int
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{name: "mean_speed"}
}

func (s *MeanSpeed) Name() string { return s.name }

func (s *MeanSpeed) Observe(f sim.Frame) {
	for i := 0; i < f.Model.Len(); i++ {
		s.total += r2.Norm(f.Model.Velocity(i))
		s.samples++
	}
}

func (s *MeanSpeed) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.total / float64(s.samples)
}

func (s *MeanSpeed) Reset() {
	s.total = 0
	s.samples = 0
}
