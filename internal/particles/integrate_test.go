package particles_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/partsim/internal/particles"
)

var _ = Describe("Integrator", func() {
	DescribeTable("advances velocity then position by one step",
		func(integ particles.Integrator) {
			pos := []r2.Vec{{X: 1, Y: 2}, {X: 10, Y: 10}}
			vel := []r2.Vec{{X: 3, Y: -1}, {}}
			force := []r2.Vec{{X: 2, Y: 4}, {}}

			integ.Step(pos, vel, force, 0.5)

			Expect(vel).To(Equal([]r2.Vec{{X: 4, Y: 1}, {}}))
			Expect(pos).To(Equal([]r2.Vec{{X: 3, Y: 2.5}, {X: 10, Y: 10}}))
		},
		Entry("euler", particles.NewSemiImplicitEuler()),
		Entry("transition", particles.NewTransitionMatrix()),
	)

	It("resizes the transition buffers when the batch size changes", func() {
		tm := particles.NewTransitionMatrix()
		one := []r2.Vec{{X: 1}}
		tm.Step(one, []r2.Vec{{X: 1}}, []r2.Vec{{}}, 1)
		Expect(one[0]).To(Equal(r2.Vec{X: 2}))

		pos := []r2.Vec{{X: 1}, {Y: 1}}
		vel := []r2.Vec{{X: 1}, {Y: 2}}
		tm.Step(pos, vel, []r2.Vec{{}, {}}, 1)
		Expect(pos).To(Equal([]r2.Vec{{X: 2}, {Y: 3}}))
	})
})
