package compute_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/particles"
)

func run(count, frames int, dt float64, force particles.ForceModel) *particles.Model {
	cfg, err := particles.NewConfig([]float64{500, 500}, particles.DefaultRelations(3), count)
	Expect(err).NotTo(HaveOccurred())
	m, err := particles.New(cfg, particles.WithSeed(11), particles.WithForce(force))
	Expect(err).NotTo(HaveOccurred())
	for i := 0; i < frames; i++ {
		Expect(m.Update(dt)).To(Succeed())
	}
	return m
}

var _ = Describe("CPUBackend", func() {
	DescribeTable("matches serial evaluation bit for bit",
		func(inner func() particles.RangeForceModel, count int) {
			serial := run(count, 20, 0.016, inner())
			parallel := run(count, 20, 0.016, compute.NewCPUBackend(inner(), 7))

			Expect(parallel.Particles()).To(Equal(serial.Particles()))
			for i := 0; i < serial.Len(); i++ {
				Expect(parallel.Force(i)).To(Equal(serial.Force(i)), "particle %d force", i)
			}
		},
		Entry("cutoff", func() particles.RangeForceModel { return particles.NewCutoffDamped() }, 200),
		Entry("inverse", func() particles.RangeForceModel { return particles.NewInverseDistance() }, 200),
		Entry("batch below the parallel threshold", func() particles.RangeForceModel { return particles.NewCutoffDamped() }, 3),
	)

	It("uses one worker per CPU by default and keeps the inner name", func() {
		b := compute.NewCPUBackend(particles.NewCutoffDamped(), 0)
		Expect(b.Workers()).To(BeNumerically(">=", 1))
		Expect(b.Name()).To(Equal("cutoff"))
	})

	It("leaves the batch alone when a step overflows", func() {
		cfg, err := particles.NewConfig([]float64{500, 500}, [][]float64{{1e308}}, compute.MinParallel)
		Expect(err).NotTo(HaveOccurred())
		m, err := particles.New(cfg, particles.WithSeed(2),
			particles.WithForce(compute.NewCPUBackend(particles.NewCutoffDamped(), 4)))
		Expect(err).NotTo(HaveOccurred())
		before := m.Particles()

		Expect(m.Update(1)).To(MatchError(particles.ErrInvalidArgument))
		Expect(m.Particles()).To(Equal(before))
	})
})
