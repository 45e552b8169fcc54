package metrics

import (
	"github.com/san-kum/partsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// MeanForce averages the magnitude of the force applied to each particle.
type MeanForce struct {
	name    string
	sum     float64
	samples int
}

func NewMeanForce() *MeanForce {
	return &MeanForce{
		name: "mean_force",
	}
}

func (c *MeanForce) Name() string {
	return c.name
}

func (c *MeanForce) Observe(f sim.Frame) {
	for i := 0; i < f.Model.Len(); i++ {
		c.sum += r2.Norm(f.Model.Force(i))
		c.samples++
	}
}

func (c *MeanForce) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *MeanForce) Reset() {
	c.sum = 0
	c.samples = 0
}
