package sim

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/san-kum/partsim/internal/particles"
)

// Runner steps a model frame by frame and records what its metrics observe.
type Runner struct {
	model     *particles.Model
	metrics   []Metric
	observers []Observer
	logger    *log.Logger
}

// New returns a Runner for model. A nil logger discards output.
func New(model *particles.Model, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Runner{
		model:     model,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
		logger:    logger,
	}
}

func (r *Runner) AddMetric(m Metric)      { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o Observer)  { r.observers = append(r.observers, o) }
func (r *Runner) Model() *particles.Model { return r.model }

func (r *Runner) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Times:     make([]float64, 0, cfg.Frames+1),
		Energy:    make([]float64, 0, cfg.Frames+1),
		Snapshots: make([]Snapshot, 0),
		Metrics:   make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	r.logger.Debug("run started",
		"particles", r.model.Len(),
		"force", r.model.ForceModel().Name(),
		"integrator", r.model.Integrator().Name(),
		"dt", cfg.Dt, "frames", cfg.Frames,
	)

	t := 0.0
	r.record(result, 0, t, cfg)

	for i := 1; i <= cfg.Frames; i++ {
		select {
		case <-ctx.Done():
			r.logger.Warn("run canceled", "frame", i, "err", ctx.Err())
			r.finish(result)
			return result, ctx.Err()
		default:
		}

		if err := r.model.Update(cfg.Dt); err != nil {
			return result, &FrameError{Frame: i, Time: t, Err: err}
		}
		t += cfg.Dt
		result.Frames++

		frame := Frame{Index: i, Time: t, Dt: cfg.Dt, Model: r.model}
		for _, m := range r.metrics {
			m.Observe(frame)
		}
		for _, obs := range r.observers {
			obs.OnFrame(frame)
		}

		r.record(result, i, t, cfg)
	}

	r.finish(result)
	r.logger.Debug("run finished", "frames", result.Frames, "energy", result.Energy[len(result.Energy)-1])
	return result, nil
}

func (r *Runner) record(result *Result, frame int, t float64, cfg Config) {
	result.Times = append(result.Times, t)
	result.Energy = append(result.Energy, r.model.KineticEnergy())

	last := frame == cfg.Frames
	if (cfg.SampleEvery > 0 && frame%cfg.SampleEvery == 0) || last {
		result.Snapshots = append(result.Snapshots, Snapshot{
			Frame:     frame,
			Time:      t,
			Particles: r.model.Particles(),
		})
	}
}

func (r *Runner) finish(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateConfig(cfg Config) error {
	if cfg.Dt < 0 {
		return fmt.Errorf("%w: dt must be non-negative, got %f", particles.ErrInvalidArgument, cfg.Dt)
	}
	if cfg.Frames < 1 {
		return fmt.Errorf("%w: frames must be at least 1, got %d", particles.ErrInvalidArgument, cfg.Frames)
	}
	if cfg.SampleEvery < 0 {
		return fmt.Errorf("%w: sample interval must be non-negative, got %d", particles.ErrInvalidArgument, cfg.SampleEvery)
	}
	return nil
}
