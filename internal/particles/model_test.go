package particles_test

import (
	"errors"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/particles"
)

func inCanvas(m *particles.Model) {
	w, h := m.Config().Canvas()
	for i, p := range m.Positions() {
		Expect(p.X).To(And(BeNumerically(">=", 0), BeNumerically("<", w)), "particle %d x", i)
		Expect(p.Y).To(And(BeNumerically(">=", 0), BeNumerically("<", h)), "particle %d y", i)
	}
}

func pairConfig() *particles.Config {
	cfg, err := particles.NewConfig([]float64{500, 500}, [][]float64{{0.1, -0.1}, {0.0, 0.1}}, 2)
	Expect(err).NotTo(HaveOccurred())
	return cfg
}

var _ = Describe("Model", func() {
	Describe("construction", func() {
		It("places every particle on the canvas with a valid variant", func() {
			for k := 1; k <= particles.MaxVariants; k++ {
				for _, n := range []int{1, 7, 120} {
					cfg, err := particles.NewConfig([]float64{300, 150}, particles.DefaultRelations(k), n)
					Expect(err).NotTo(HaveOccurred())

					m, err := particles.New(cfg, particles.WithSeed(int64(k*1000+n)))
					Expect(err).NotTo(HaveOccurred())
					Expect(m.Len()).To(Equal(n))
					for _, v := range m.Variants() {
						Expect(v).To(And(BeNumerically(">=", 0), BeNumerically("<", k)))
					}
					inCanvas(m)
					for _, v := range m.Velocities() {
						Expect(v).To(Equal(r2.Vec{}))
					}
				}
			}
		})

		It("rejects a nil config", func() {
			_, err := particles.New(nil)
			Expect(errors.Is(err, particles.ErrConfiguration)).To(BeTrue())
		})

		It("rejects a zero-value config", func() {
			_, err := particles.New(&particles.Config{})
			Expect(errors.Is(err, particles.ErrConfiguration)).To(BeTrue())
		})

		It("uses the cutoff force and euler integrator by default", func() {
			m, err := particles.New(particles.DefaultConfig(), particles.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())
			Expect(m.ForceModel().Name()).To(Equal("cutoff"))
			Expect(m.Integrator().Name()).To(Equal("euler"))
		})

		It("builds from an explicit batch", func() {
			m, err := particles.NewFromParticles(pairConfig(), []particles.Particle{
				{Variant: 1, Position: r2.Vec{X: -10, Y: 510}},
				{Variant: 0, Position: r2.Vec{X: 20, Y: 30}, Velocity: r2.Vec{X: 1}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Variants()).To(Equal([]int{1, 0}))
			Expect(m.Position(0)).To(Equal(r2.Vec{X: 490, Y: 10}))
			Expect(m.Velocity(1)).To(Equal(r2.Vec{X: 1}))
		})

		DescribeTable("rejects a bad explicit batch",
			func(ps []particles.Particle) {
				_, err := particles.NewFromParticles(pairConfig(), ps)
				Expect(errors.Is(err, particles.ErrInvalidArgument)).To(BeTrue())
			},
			Entry("too few", []particles.Particle{{}}),
			Entry("variant out of range", []particles.Particle{{}, {Variant: 2}}),
			Entry("negative variant", []particles.Particle{{Variant: -1}, {}}),
			Entry("NaN position", []particles.Particle{{}, {Position: r2.Vec{X: math.NaN()}}}),
		)
	})

	Describe("Update", func() {
		It("rejects a negative or non-finite dt and leaves state alone", func() {
			m, err := particles.New(particles.DefaultConfig(), particles.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())
			before := m.Particles()

			for _, dt := range []float64{-0.001, math.NaN(), math.Inf(1)} {
				Expect(errors.Is(m.Update(dt), particles.ErrInvalidArgument)).To(BeTrue())
			}
			Expect(m.Particles()).To(Equal(before))
			Expect(m.Steps()).To(Equal(0))
		})

		It("rejects a step that overflows and leaves state alone", func() {
			cfg, err := particles.NewConfig([]float64{500, 500}, [][]float64{{1e308}}, 2)
			Expect(err).NotTo(HaveOccurred())
			m, err := particles.NewFromParticles(cfg, []particles.Particle{
				{Variant: 0, Position: r2.Vec{X: 100, Y: 10}},
				{Variant: 0, Position: r2.Vec{X: 110, Y: 10}},
			})
			Expect(err).NotTo(HaveOccurred())
			before := m.Particles()

			Expect(errors.Is(m.Update(1), particles.ErrInvalidArgument)).To(BeTrue())
			Expect(m.Particles()).To(Equal(before))
			Expect(m.Steps()).To(Equal(0))
			Expect(m.Force(0)).To(Equal(r2.Vec{}))
			inCanvas(m)
		})

		It("does not move anything on a zero step", func() {
			for _, integ := range []particles.Integrator{particles.NewSemiImplicitEuler(), particles.NewTransitionMatrix()} {
				m, err := particles.New(particles.DefaultConfig(), particles.WithSeed(5), particles.WithIntegrator(integ))
				Expect(err).NotTo(HaveOccurred())
				for i := 0; i < 5; i++ {
					Expect(m.Update(0.05)).To(Succeed())
				}
				pos, vel := m.Positions(), m.Velocities()

				Expect(m.Update(0)).To(Succeed())
				Expect(m.Positions()).To(Equal(pos))
				Expect(m.Velocities()).To(Equal(vel))
			}
		})

		It("keeps every particle on the torus", func() {
			rng := rand.New(rand.NewSource(11))
			forces := []particles.ForceModel{particles.NewCutoffDamped(), particles.NewInverseDistance()}
			integs := []particles.Integrator{particles.NewSemiImplicitEuler(), particles.NewTransitionMatrix()}
			for _, f := range forces {
				for _, integ := range integs {
					cfg, err := particles.NewConfig([]float64{200, 120}, particles.DefaultRelations(4), 60)
					Expect(err).NotTo(HaveOccurred())
					m, err := particles.New(cfg, particles.WithSeed(rng.Int63()), particles.WithForce(f), particles.WithIntegrator(integ))
					Expect(err).NotTo(HaveOccurred())

					for step := 0; step < 40; step++ {
						Expect(m.Update(rng.Float64() * 0.5)).To(Succeed())
						inCanvas(m)
					}
				}
			}
		})

		It("is deterministic under a fixed seed", func() {
			a, err := particles.New(particles.DefaultConfig(), particles.WithSeed(99))
			Expect(err).NotTo(HaveOccurred())
			b, err := particles.New(particles.DefaultConfig(), particles.WithSeed(99))
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Particles()).To(Equal(b.Particles()))

			for _, dt := range []float64{0.01, 0.2, 0, 0.05, 0.1} {
				Expect(a.Update(dt)).To(Succeed())
				Expect(b.Update(dt)).To(Succeed())
			}
			Expect(a.Particles()).To(Equal(b.Particles()))
			Expect(a.Steps()).To(Equal(5))
		})

		It("does not depend on particle order", func() {
			cfg, err := particles.NewConfig([]float64{500, 500}, particles.DefaultRelations(3), 3)
			Expect(err).NotTo(HaveOccurred())
			batch := []particles.Particle{
				{Variant: 0, Position: r2.Vec{X: 100, Y: 100}},
				{Variant: 1, Position: r2.Vec{X: 130, Y: 90}},
				{Variant: 2, Position: r2.Vec{X: 115, Y: 140}},
			}
			reversed := []particles.Particle{batch[2], batch[1], batch[0]}

			fwd, err := particles.NewFromParticles(cfg, batch)
			Expect(err).NotTo(HaveOccurred())
			rev, err := particles.NewFromParticles(cfg, reversed)
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 3; i++ {
				Expect(fwd.Update(0.1)).To(Succeed())
				Expect(rev.Update(0.1)).To(Succeed())
			}
			for i := 0; i < 3; i++ {
				Expect(fwd.Particle(i)).To(Equal(rev.Particle(2 - i)))
			}
		})

		DescribeTable("pushes a repelled pair apart",
			func(integ particles.Integrator) {
				m, err := particles.NewFromParticles(pairConfig(), []particles.Particle{
					{Variant: 0, Position: r2.Vec{X: 100, Y: 100}},
					{Variant: 1, Position: r2.Vec{X: 110, Y: 100}},
				},
					particles.WithForce(&particles.CutoffDamped{Cutoff: 10, Viscosity: 0}),
					particles.WithIntegrator(integ),
				)
				Expect(err).NotTo(HaveOccurred())
				Expect(m.Update(1.0)).To(Succeed())

				// Particle 1 feels -0.1 * (100 - 110) = +1 along x; particle 0 feels 0.
				Expect(m.Force(0).X).To(BeNumerically("~", 0, 1e-12))
				Expect(m.Force(1).X).To(BeNumerically("~", 1, 1e-12))
				Expect(m.Position(0).X).To(BeNumerically("~", 100, 1e-12))
				Expect(m.Position(1).X).To(BeNumerically("~", 111, 1e-12))
				Expect(m.Velocity(1).X).To(BeNumerically("~", 1, 1e-12))
				Expect(m.Position(0).Y).To(BeNumerically("~", 100, 1e-12))
				Expect(m.Position(1).Y).To(BeNumerically("~", 100, 1e-12))
			},
			Entry("euler", particles.NewSemiImplicitEuler()),
			Entry("transition matrix", particles.NewTransitionMatrix()),
		)

		DescribeTable("wraps instead of clamping",
			func(integ particles.Integrator) {
				cfg, err := particles.NewConfig([]float64{500, 500}, [][]float64{{0.1}}, 1)
				Expect(err).NotTo(HaveOccurred())
				m, err := particles.NewFromParticles(cfg, []particles.Particle{
					{Position: r2.Vec{}, Velocity: r2.Vec{X: -5}},
				}, particles.WithIntegrator(integ))
				Expect(err).NotTo(HaveOccurred())

				Expect(m.Update(1)).To(Succeed())
				Expect(m.Position(0).X).To(BeNumerically("~", 495, 1e-12))
				Expect(m.Position(0).Y).To(Equal(0.0))
			},
			Entry("euler", particles.NewSemiImplicitEuler()),
			Entry("transition matrix", particles.NewTransitionMatrix()),
		)

		It("integrates the second-order term with the transition matrix", func() {
			cfg, err := particles.NewConfig([]float64{500, 500}, [][]float64{{0.1, -0.1}, {0.0, 0.1}}, 2)
			Expect(err).NotTo(HaveOccurred())
			m, err := particles.NewFromParticles(cfg, []particles.Particle{
				{Variant: 0, Position: r2.Vec{X: 100, Y: 100}},
				{Variant: 1, Position: r2.Vec{X: 110, Y: 100}, Velocity: r2.Vec{Y: 2}},
			},
				particles.WithForce(&particles.CutoffDamped{Cutoff: 50}),
				particles.WithIntegrator(particles.NewTransitionMatrix()),
			)
			Expect(err).NotTo(HaveOccurred())
			Expect(m.Update(0.5)).To(Succeed())

			// x' = x + v dt + f dt², v' = v + f dt with f = (1, 0).
			Expect(m.Position(1).X).To(BeNumerically("~", 110.25, 1e-12))
			Expect(m.Position(1).Y).To(BeNumerically("~", 101, 1e-12))
			Expect(m.Velocity(1).X).To(BeNumerically("~", 0.5, 1e-12))
			Expect(m.Velocity(1).Y).To(BeNumerically("~", 2, 1e-12))
		})
	})
})

var _ = Describe("KineticEnergy", func() {
	It("sums half the squared speed of every particle", func() {
		m, err := particles.NewFromParticles(pairConfig(), []particles.Particle{
			{Velocity: r2.Vec{X: 3, Y: 4}},
			{Variant: 1, Velocity: r2.Vec{X: -1}},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(m.KineticEnergy()).To(BeNumerically("~", 13, 1e-12))
	})
})
