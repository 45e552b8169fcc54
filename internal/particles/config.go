package particles

import "math"

const (
	MinCanvasSize        = 100.0
	MaxVariants          = 6
	DefaultCanvasSize    = 500.0
	DefaultParticleCount = 100
	DefaultSelfRelation  = 0.1
	DefaultCrossRelation = -0.1
	DefaultVariantCount  = 3
)

// Config holds validated simulation parameters. It is never mutated after
// NewConfig returns and may be read from any goroutine.
type Config struct {
	width, height float64
	relations     [][]float64
	count         int
}

// NewConfig validates the canvas size, relation matrix and particle count,
// stopping at the first violated rule. The relation matrix is copied.
func NewConfig(canvas []float64, relations [][]float64, count int) (*Config, error) {
	if len(canvas) != 2 {
		return nil, &ConfigurationError{Field: "canvas_size", Constraint: "must have exactly 2 dimensions", Value: canvas}
	}
	for _, d := range canvas {
		if math.IsNaN(d) || math.IsInf(d, 0) || d < MinCanvasSize {
			return nil, &ConfigurationError{
				Field:      "canvas_size",
				Constraint: "dimensions must be finite and at least 100",
				Value:      canvas,
			}
		}
	}

	k := len(relations)
	if k == 0 {
		return nil, &ConfigurationError{Field: "variant_relations", Constraint: "must not be empty", Value: relations}
	}
	for _, row := range relations {
		if len(row) != k {
			return nil, &ConfigurationError{
				Field:      "variant_relations",
				Constraint: "must be a square matrix",
				Value:      shape(relations),
			}
		}
	}
	if k > MaxVariants {
		return nil, &ConfigurationError{Field: "variant_relations", Constraint: "must have at most 6 variants", Value: k}
	}
	for i, row := range relations {
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &ConfigurationError{
					Field:      "variant_relations",
					Constraint: "entries must be finite",
					Value:      [3]float64{float64(i), float64(j), v},
				}
			}
		}
	}

	if count < 1 {
		return nil, &ConfigurationError{Field: "particle_count", Constraint: "must be at least 1", Value: count}
	}

	return &Config{
		width:     canvas[0],
		height:    canvas[1],
		relations: cloneMatrix(relations),
		count:     count,
	}, nil
}

// DefaultConfig returns a 500x500 canvas with 100 particles of three
// variants that attract their own kind and repel the others.
func DefaultConfig() *Config {
	cfg, err := NewConfig([]float64{DefaultCanvasSize, DefaultCanvasSize}, DefaultRelations(DefaultVariantCount), DefaultParticleCount)
	if err != nil {
		panic(err)
	}
	return cfg
}

// DefaultRelations builds a k x k matrix with DefaultSelfRelation on the
// diagonal and DefaultCrossRelation elsewhere.
func DefaultRelations(k int) [][]float64 {
	m := make([][]float64, k)
	for i := range m {
		m[i] = make([]float64, k)
		for j := range m[i] {
			if i == j {
				m[i][j] = DefaultSelfRelation
			} else {
				m[i][j] = DefaultCrossRelation
			}
		}
	}
	return m
}

func (c *Config) Canvas() (width, height float64) { return c.width, c.height }
func (c *Config) Width() float64                  { return c.width }
func (c *Config) Height() float64                 { return c.height }
func (c *Config) ParticleCount() int              { return c.count }
func (c *Config) VariantCount() int               { return len(c.relations) }

// Relation returns the coefficient a variant-source particle exerts on a
// variant-target particle.
func (c *Config) Relation(source, target int) float64 {
	return c.relations[source][target]
}

// Relations returns a copy of the relation matrix.
func (c *Config) Relations() [][]float64 {
	return cloneMatrix(c.relations)
}

func cloneMatrix(m [][]float64) [][]float64 {
	c := make([][]float64, len(m))
	for i, row := range m {
		c[i] = make([]float64, len(row))
		copy(c[i], row)
	}
	return c
}

func shape(m [][]float64) []int {
	s := make([]int, len(m))
	for i, row := range m {
		s[i] = len(row)
	}
	return s
}
