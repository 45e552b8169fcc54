package particles

import "gonum.org/v1/gonum/spatial/r2"

const (
	DefaultCutoff    = 100.0
	DefaultViscosity = 0.3
)

// ForceModel computes the total force on every particle from a single
// snapshot of the batch. Implementations overwrite out[i] for every i and
// must not read out before writing it.
type ForceModel interface {
	Name() string
	Forces(cfg *Config, variants []int, pos, vel, out []r2.Vec)
}

// RangeForceModel computes forces for the targets in [lo, hi) only, still
// summing over every source. Disjoint ranges may run concurrently.
type RangeForceModel interface {
	ForceModel
	ForcesRange(cfg *Config, variants []int, pos, vel, out []r2.Vec, lo, hi int)
}

// CutoffDamped sums distance-proportional forces from every particle closer
// than Cutoff, then damps each component toward zero by the particle's speed
// times Viscosity without changing its sign.
type CutoffDamped struct {
	Cutoff    float64
	Viscosity float64
}

func NewCutoffDamped() *CutoffDamped {
	return &CutoffDamped{Cutoff: DefaultCutoff, Viscosity: DefaultViscosity}
}

func (c *CutoffDamped) Name() string { return "cutoff" }

func (c *CutoffDamped) Forces(cfg *Config, variants []int, pos, vel, out []r2.Vec) {
	c.ForcesRange(cfg, variants, pos, vel, out, 0, len(pos))
}

func (c *CutoffDamped) ForcesRange(cfg *Config, variants []int, pos, vel, out []r2.Vec, lo, hi int) {
	for target := lo; target < hi; target++ {
		var total r2.Vec
		for source := range pos {
			if source == target {
				continue
			}
			// |delta| * unit(delta) == delta: magnitude grows with distance.
			delta := r2.Sub(pos[source], pos[target])
			if r2.Norm(delta) > c.Cutoff {
				continue
			}
			total = r2.Add(total, r2.Scale(cfg.Relation(variants[source], variants[target]), delta))
		}

		damping := r2.Norm(vel[target]) * c.Viscosity
		out[target] = r2.Vec{X: dampen(total.X, damping), Y: dampen(total.Y, damping)}
	}
}

// dampen moves f toward zero by d, stopping at zero.
func dampen(f, d float64) float64 {
	switch {
	case f > 0:
		f -= d
		if f < 0 {
			f = 0
		}
	case f < 0:
		f += d
		if f > 0 {
			f = 0
		}
	}
	return f
}

// InverseDistance sums forces of magnitude relation/distance from every other
// particle. Coincident particles contribute nothing.
type InverseDistance struct{}

func NewInverseDistance() *InverseDistance { return &InverseDistance{} }

func (InverseDistance) Name() string { return "inverse" }

func (f InverseDistance) Forces(cfg *Config, variants []int, pos, vel, out []r2.Vec) {
	f.ForcesRange(cfg, variants, pos, vel, out, 0, len(pos))
}

func (InverseDistance) ForcesRange(cfg *Config, variants []int, pos, vel, out []r2.Vec, lo, hi int) {
	for target := lo; target < hi; target++ {
		var total r2.Vec
		for source := range pos {
			if source == target {
				continue
			}
			delta := r2.Sub(pos[source], pos[target])
			d2 := r2.Norm2(delta)
			if d2 == 0 {
				continue
			}
			// (rel / d) * (delta / d)
			total = r2.Add(total, r2.Scale(cfg.Relation(variants[source], variants[target])/d2, delta))
		}
		out[target] = total
	}
}
