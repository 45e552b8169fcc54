package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/particles"
	"github.com/san-kum/partsim/internal/sim"
)

// Builder creates a model for one point of the grid.
type Builder func(params map[string]float64) (*particles.Model, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search runs every combination of the grid and returns the parameters that
// minimise the named metric. Metrics are built fresh for every trial. Failed
// trials are recorded and skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	build Builder,
	cfg sim.Config,
	newMetrics func() []sim.Metric,
	metricName string,
) (map[string]float64, float64, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("%w: %d parameters but %d ranges", particles.ErrInvalidArgument, len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var trials []Trial

	err := g.searchRecursive(ctx, 0, make(map[string]float64), func(params map[string]float64) error {
		val, err := evaluate(ctx, build, cfg, newMetrics, metricName, params)
		trials = append(trials, Trial{Params: params, Value: val, Err: err})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return nil
		}
		if val < best {
			best = val
			bestParams = params
		}
		return nil
	})
	if err != nil {
		return bestParams, best, trials, err
	}
	if bestParams == nil {
		return nil, best, trials, fmt.Errorf("no trial succeeded")
	}
	return bestParams, best, trials, nil
}

func evaluate(ctx context.Context, build Builder, cfg sim.Config, newMetrics func() []sim.Metric, metricName string, params map[string]float64) (float64, error) {
	model, err := build(params)
	if err != nil {
		return 0, err
	}

	r := sim.New(model, nil)
	if newMetrics != nil {
		for _, m := range newMetrics() {
			r.AddMetric(m)
		}
	}

	result, err := r.Run(ctx, cfg)
	if err != nil {
		return 0, err
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("metric %q not recorded", metricName)
	}
	return val, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, visit func(map[string]float64) error) error {
	if depth == len(g.paramNames) {
		return visit(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, visit); err != nil {
			return err
		}
	}
	return nil
}
