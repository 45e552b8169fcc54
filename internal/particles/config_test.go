package particles_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/partsim/internal/particles"
)

var _ = Describe("Config", func() {
	square := func(k int) [][]float64 { return particles.DefaultRelations(k) }

	It("keeps every field it was given", func() {
		rel := [][]float64{{0.1, -0.1}, {0.0, 0.1}}
		cfg, err := particles.NewConfig([]float64{640, 480}, rel, 25)
		Expect(err).NotTo(HaveOccurred())

		w, h := cfg.Canvas()
		Expect(w).To(Equal(640.0))
		Expect(h).To(Equal(480.0))
		Expect(cfg.ParticleCount()).To(Equal(25))
		Expect(cfg.VariantCount()).To(Equal(2))
		Expect(cfg.Relations()).To(Equal(rel))
		Expect(cfg.Relation(0, 1)).To(Equal(-0.1))
	})

	It("copies the relation matrix on the way in and out", func() {
		rel := [][]float64{{0.1, -0.1}, {0.0, 0.1}}
		cfg, err := particles.NewConfig([]float64{500, 500}, rel, 2)
		Expect(err).NotTo(HaveOccurred())

		rel[0][1] = 99
		Expect(cfg.Relation(0, 1)).To(Equal(-0.1))

		out := cfg.Relations()
		out[1][0] = 42
		Expect(cfg.Relation(1, 0)).To(Equal(0.0))
	})

	It("accepts the minimum canvas and every variant count up to the maximum", func() {
		for k := 1; k <= particles.MaxVariants; k++ {
			cfg, err := particles.NewConfig([]float64{100, 100}, square(k), 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.VariantCount()).To(Equal(k))
		}
	})

	It("has a usable default", func() {
		cfg := particles.DefaultConfig()
		Expect(cfg.Width()).To(Equal(500.0))
		Expect(cfg.Height()).To(Equal(500.0))
		Expect(cfg.ParticleCount()).To(Equal(100))
		Expect(cfg.VariantCount()).To(Equal(3))
		Expect(cfg.Relation(1, 1)).To(BeNumerically(">", 0))
		Expect(cfg.Relation(0, 2)).To(BeNumerically("<", 0))
	})

	DescribeTable("rejects invalid input",
		func(canvas []float64, rel [][]float64, count int, field string) {
			cfg, err := particles.NewConfig(canvas, rel, count)
			Expect(cfg).To(BeNil())
			Expect(errors.Is(err, particles.ErrConfiguration)).To(BeTrue())

			var cerr *particles.ConfigurationError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Field).To(Equal(field))
			Expect(cerr.Error()).To(ContainSubstring(field))
		},
		Entry("one dimension", []float64{500}, square(3), 10, "canvas_size"),
		Entry("three dimensions", []float64{500, 500, 500}, square(3), 10, "canvas_size"),
		Entry("narrow canvas", []float64{99, 500}, square(3), 10, "canvas_size"),
		Entry("short canvas", []float64{500, 99.9}, square(3), 10, "canvas_size"),
		Entry("NaN canvas", []float64{math.NaN(), 500}, square(3), 10, "canvas_size"),
		Entry("empty matrix", []float64{500, 500}, [][]float64{}, 10, "variant_relations"),
		Entry("non-square matrix", []float64{500, 500}, [][]float64{{1, 2}, {3}}, 10, "variant_relations"),
		Entry("wide matrix", []float64{500, 500}, [][]float64{{1, 2, 3}, {4, 5, 6}}, 10, "variant_relations"),
		Entry("too many variants", []float64{500, 500}, square(7), 10, "variant_relations"),
		Entry("infinite relation", []float64{500, 500}, [][]float64{{math.Inf(1)}}, 10, "variant_relations"),
		Entry("zero particles", []float64{500, 500}, square(3), 0, "particle_count"),
		Entry("negative particles", []float64{500, 500}, square(3), -4, "particle_count"),
	)

	It("reports the first violated rule", func() {
		_, err := particles.NewConfig([]float64{10, 10}, square(9), 0)
		var cerr *particles.ConfigurationError
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(cerr.Field).To(Equal("canvas_size"))
	})
})
