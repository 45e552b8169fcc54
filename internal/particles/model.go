package particles

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Particle is a read-only view of one particle in the batch.
type Particle struct {
	Variant  int    `json:"variant"`
	Position r2.Vec `json:"position"`
	Velocity r2.Vec `json:"velocity"`
}

// Model owns a fixed batch of particles and steps it with Update. It is not
// safe for concurrent use; readers must not overlap an Update call.
type Model struct {
	cfg        *Config
	force      ForceModel
	integrator Integrator
	rng        *rand.Rand

	variants []int
	pos      []r2.Vec
	vel      []r2.Vec
	acc      []r2.Vec
	steps    int

	// Update integrates into these and swaps them in on success.
	nextPos, nextVel, nextAcc []r2.Vec
}

type Option func(*Model)

// WithSeed seeds the generator used to place particles.
func WithSeed(seed int64) Option {
	return func(m *Model) { m.rng = rand.New(rand.NewSource(seed)) }
}

func WithRand(rng *rand.Rand) Option {
	return func(m *Model) { m.rng = rng }
}

func WithForce(f ForceModel) Option {
	return func(m *Model) { m.force = f }
}

func WithIntegrator(i Integrator) Option {
	return func(m *Model) { m.integrator = i }
}

func newModel(cfg *Config, opts []Option) (*Model, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrConfiguration)
	}
	if cfg.count < 1 {
		return nil, &ConfigurationError{Field: "particle_count", Constraint: "must be at least 1", Value: cfg.count}
	}

	n := cfg.count
	m := &Model{
		cfg:        cfg,
		force:      NewCutoffDamped(),
		integrator: NewSemiImplicitEuler(),
		variants:   make([]int, n),
		pos:        make([]r2.Vec, n),
		vel:        make([]r2.Vec, n),
		acc:        make([]r2.Vec, n),
		nextPos:    make([]r2.Vec, n),
		nextVel:    make([]r2.Vec, n),
		nextAcc:    make([]r2.Vec, n),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return m, nil
}

// New creates a model with uniformly random variants and positions and zero
// velocity. The default force model is CutoffDamped and the default
// integrator is SemiImplicitEuler.
func New(cfg *Config, opts ...Option) (*Model, error) {
	m, err := newModel(cfg, opts)
	if err != nil {
		return nil, err
	}

	k := cfg.VariantCount()
	for i := range m.variants {
		m.variants[i] = m.rng.Intn(k)
		m.pos[i] = r2.Vec{
			X: m.rng.Float64() * cfg.width,
			Y: m.rng.Float64() * cfg.height,
		}
	}
	return m, nil
}

// NewFromParticles creates a model from an explicit batch, e.g. one restored
// from a saved run. Positions are wrapped onto the canvas.
func NewFromParticles(cfg *Config, ps []Particle, opts ...Option) (*Model, error) {
	m, err := newModel(cfg, opts)
	if err != nil {
		return nil, err
	}
	if len(ps) != cfg.count {
		return nil, fmt.Errorf("%w: got %d particles, config expects %d", ErrInvalidArgument, len(ps), cfg.count)
	}

	k := cfg.VariantCount()
	for i, p := range ps {
		if p.Variant < 0 || p.Variant >= k {
			return nil, fmt.Errorf("%w: particle %d has variant %d, want [0, %d)", ErrInvalidArgument, i, p.Variant, k)
		}
		if !finite(p.Position) || !finite(p.Velocity) {
			return nil, fmt.Errorf("%w: particle %d has non-finite state", ErrInvalidArgument, i)
		}
		m.variants[i] = p.Variant
		m.pos[i] = r2.Vec{X: wrap(p.Position.X, cfg.width), Y: wrap(p.Position.Y, cfg.height)}
		m.vel[i] = p.Velocity
	}
	return m, nil
}

// Update computes all pairwise forces from the current positions, integrates
// every particle by dt and wraps positions onto the torus. If the step would
// leave any force, position or velocity non-finite, Update returns an error
// wrapping ErrInvalidArgument and the batch is unchanged.
func (m *Model) Update(dt float64) error {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt must be a non-negative finite number, got %v", ErrInvalidArgument, dt)
	}

	m.force.Forces(m.cfg, m.variants, m.pos, m.vel, m.nextAcc)
	copy(m.nextPos, m.pos)
	copy(m.nextVel, m.vel)
	m.integrator.Step(m.nextPos, m.nextVel, m.nextAcc, dt)

	for i := range m.nextPos {
		m.nextPos[i].X = wrap(m.nextPos[i].X, m.cfg.width)
		m.nextPos[i].Y = wrap(m.nextPos[i].Y, m.cfg.height)
		if !finite(m.nextAcc[i]) || !finite(m.nextPos[i]) || !finite(m.nextVel[i]) {
			return fmt.Errorf("%w: step %d with dt %v overflows particle %d", ErrInvalidArgument, m.steps+1, dt, i)
		}
	}

	m.pos, m.nextPos = m.nextPos, m.pos
	m.vel, m.nextVel = m.nextVel, m.vel
	m.acc, m.nextAcc = m.nextAcc, m.acc
	m.steps++
	return nil
}

func (m *Model) Config() *Config         { return m.cfg }
func (m *Model) Len() int                { return len(m.pos) }
func (m *Model) Steps() int              { return m.steps }
func (m *Model) ForceModel() ForceModel  { return m.force }
func (m *Model) Integrator() Integrator  { return m.integrator }
func (m *Model) Variant(i int) int       { return m.variants[i] }
func (m *Model) Position(i int) r2.Vec   { return m.pos[i] }
func (m *Model) Velocity(i int) r2.Vec   { return m.vel[i] }
func (m *Model) Force(i int) r2.Vec      { return m.acc[i] }
func (m *Model) Particle(i int) Particle { return Particle{m.variants[i], m.pos[i], m.vel[i]} }
func (m *Model) Positions() []r2.Vec     { return append([]r2.Vec(nil), m.pos...) }
func (m *Model) Velocities() []r2.Vec    { return append([]r2.Vec(nil), m.vel...) }
func (m *Model) Variants() []int         { return append([]int(nil), m.variants...) }

// Particles returns a copy of the batch.
func (m *Model) Particles() []Particle {
	ps := make([]Particle, len(m.pos))
	for i := range ps {
		ps[i] = m.Particle(i)
	}
	return ps
}

// wrap reduces x into [0, size).
func wrap(x, size float64) float64 {
	r := math.Mod(x, size)
	if r < 0 {
		r += size
	}
	// r+size rounds up to size for tiny negative r.
	if r >= size {
		r = 0
	}
	return r
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

// KineticEnergy returns ½Σ|v|² over the batch, taking every particle as unit
// mass.
func (m *Model) KineticEnergy() float64 {
	e := 0.0
	for _, v := range m.vel {
		e += 0.5 * r2.Norm2(v)
	}
	return e
}
