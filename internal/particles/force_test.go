package particles_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/particles"
)

var _ = Describe("ForceModel", func() {
	var cfg *particles.Config

	BeforeEach(func() {
		var err error
		cfg, err = particles.NewConfig([]float64{500, 500}, [][]float64{{0.1, -0.1}, {0.0, 0.1}}, 2)
		Expect(err).NotTo(HaveOccurred())
	})

	forces := func(f particles.ForceModel, variants []int, pos, vel []r2.Vec) []r2.Vec {
		out := make([]r2.Vec, len(pos))
		for i := range out {
			out[i] = r2.Vec{X: 1e9, Y: -1e9}
		}
		f.Forces(cfg, variants, pos, vel, out)
		return out
	}

	Describe("CutoffDamped", func() {
		It("ignores pairs beyond the cutoff", func() {
			out := forces(&particles.CutoffDamped{Cutoff: 100},
				[]int{0, 0},
				[]r2.Vec{{X: 0, Y: 0}, {X: 150, Y: 0}},
				make([]r2.Vec, 2))
			Expect(out).To(Equal([]r2.Vec{{}, {}}))
		})

		It("scales with distance and the source-target coefficient", func() {
			out := forces(&particles.CutoffDamped{Cutoff: 100},
				[]int{0, 0},
				[]r2.Vec{{X: 0, Y: 0}, {X: 30, Y: 40}},
				make([]r2.Vec, 2))
			Expect(out[1].X).To(BeNumerically("~", -3, 1e-12))
			Expect(out[1].Y).To(BeNumerically("~", -4, 1e-12))
			Expect(out[0].X).To(BeNumerically("~", 3, 1e-12))
			Expect(out[0].Y).To(BeNumerically("~", 4, 1e-12))
		})

		It("damps each component toward zero by speed times viscosity", func() {
			out := forces(&particles.CutoffDamped{Cutoff: 100, Viscosity: 0.1},
				[]int{0, 0},
				[]r2.Vec{{X: 0, Y: 0}, {X: -10, Y: 20}},
				[]r2.Vec{{}, {X: 9, Y: 12}})
			// Undamped (1, -2), damping 15 * 0.1 = 1.5.
			Expect(out[1].X).To(Equal(0.0))
			Expect(out[1].Y).To(BeNumerically("~", -0.5, 1e-12))
		})

		It("never flips the sign of a component", func() {
			out := forces(&particles.CutoffDamped{Cutoff: 100, Viscosity: 10},
				[]int{0, 0},
				[]r2.Vec{{X: 0, Y: 0}, {X: 10, Y: -10}},
				[]r2.Vec{{X: 3, Y: 4}, {X: 3, Y: 4}})
			Expect(out).To(Equal([]r2.Vec{{}, {}}))
		})
	})

	Describe("InverseDistance", func() {
		It("falls off with distance", func() {
			out := forces(particles.NewInverseDistance(),
				[]int{0, 1},
				[]r2.Vec{{X: 100, Y: 100}, {X: 110, Y: 100}},
				make([]r2.Vec, 2))
			// -0.1 / 10 toward the source at -x.
			Expect(out[1].X).To(BeNumerically("~", 0.01, 1e-12))
			Expect(out[1].Y).To(BeNumerically("~", 0, 1e-12))
			Expect(out[0]).To(Equal(r2.Vec{}))
		})

		It("sums every pair rather than keeping the last one", func() {
			cfg3, err := particles.NewConfig([]float64{500, 500}, [][]float64{{1}}, 3)
			Expect(err).NotTo(HaveOccurred())
			out := make([]r2.Vec, 3)
			particles.NewInverseDistance().Forces(cfg3,
				[]int{0, 0, 0},
				[]r2.Vec{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 0, Y: 20}},
				make([]r2.Vec, 3), out)
			Expect(out[0].X).To(BeNumerically("~", 0.1, 1e-12))
			Expect(out[0].Y).To(BeNumerically("~", 0.05, 1e-12))
		})

		It("ignores coincident particles", func() {
			out := forces(particles.NewInverseDistance(),
				[]int{0, 1},
				[]r2.Vec{{X: 5, Y: 5}, {X: 5, Y: 5}},
				make([]r2.Vec, 2))
			Expect(out).To(Equal([]r2.Vec{{}, {}}))
		})
	})
})
