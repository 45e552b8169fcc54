package automation

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/particles"
	"github.com/san-kum/partsim/internal/sim"
)

// Scenario is a scripted sequence of phases run on one particle batch. Each
// phase starts from the particles the previous phase left behind.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Preset      string  `yaml:"preset"`
	Seed        int64   `yaml:"seed"`
	Phases      []Phase `yaml:"phases"`
}

// Phase changes parameters and runs a number of frames.
type Phase struct {
	Force      string             `yaml:"force"`
	Integrator string             `yaml:"integrator"`
	Dt         float64            `yaml:"dt"`
	Frames     int                `yaml:"frames"`
	Params     map[string]float64 `yaml:"params"`
	SaveAs     string             `yaml:"save_as"`
}

// PhaseResult is handed to the caller after every phase.
type PhaseResult struct {
	Index  int
	Phase  Phase
	File   *config.File
	Result *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Phases) == 0 {
		return nil, fmt.Errorf("scenario %s has no phases", path)
	}

	return &scenario, nil
}

// RunScenario executes all phases in order. Parameters set by a phase carry
// over to the following ones. onPhase may be nil.
func RunScenario(ctx context.Context, scenario *Scenario, logger *log.Logger, onPhase func(PhaseResult) error) ([]*sim.Result, error) {
	file := config.DefaultFile()
	if scenario.Preset != "" {
		file = config.GetPreset(scenario.Preset)
		if file == nil {
			return nil, fmt.Errorf("unknown preset: %s", scenario.Preset)
		}
	}
	if scenario.Seed != 0 {
		file.Seed = scenario.Seed
	}

	results := make([]*sim.Result, 0, len(scenario.Phases))
	var model *particles.Model

	for i, phase := range scenario.Phases {
		if logger != nil {
			logger.Info("scenario phase", "step", fmt.Sprintf("%d/%d", i+1, len(scenario.Phases)), "frames", phase.Frames)
		}

		file = file.Clone()
		if err := apply(file, phase); err != nil {
			return results, fmt.Errorf("phase %d: %w", i+1, err)
		}

		cfg, opts, err := file.Build()
		if err != nil {
			return results, fmt.Errorf("phase %d: %w", i+1, err)
		}
		opts = append(opts, particles.WithSeed(file.Seed))

		if model == nil {
			model, err = particles.New(cfg, opts...)
		} else {
			model, err = particles.NewFromParticles(cfg, model.Particles(), opts...)
		}
		if err != nil {
			return results, fmt.Errorf("phase %d: %w", i+1, err)
		}

		result, err := sim.New(model, logger).Run(ctx, file.RunConfig())
		if err != nil && (result == nil || ctx.Err() == nil) {
			return results, fmt.Errorf("phase %d run: %w", i+1, err)
		}
		result.Seed = file.Seed
		results = append(results, result)

		// A canceled phase still reaches onPhase with its partial result.
		if onPhase != nil {
			if cbErr := onPhase(PhaseResult{Index: i, Phase: phase, File: file, Result: result}); cbErr != nil {
				return results, errors.Join(err, cbErr)
			}
		}
		if err != nil {
			return results, fmt.Errorf("phase %d run: %w", i+1, err)
		}
	}

	return results, nil
}

func apply(f *config.File, p Phase) error {
	if p.Force != "" {
		f.Force = p.Force
	}
	if p.Integrator != "" {
		f.Integrator = p.Integrator
	}
	if p.Dt != 0 {
		f.Dt = p.Dt
	}
	if p.Frames != 0 {
		f.Frames = p.Frames
	}
	for k, v := range p.Params {
		if err := f.Set(k, v); err != nil {
			return err
		}
	}
	return nil
}
