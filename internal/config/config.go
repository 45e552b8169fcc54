package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/particles"
	"github.com/san-kum/partsim/internal/sim"
)

const (
	ForceCutoff       = "cutoff"
	ForceInverse      = "inverse"
	IntegratorEuler   = "euler"
	IntegratorMatrix  = "transition"
	DefaultSpeedLimit = 200.0
)

// File is the on-disk description of a run.
type File struct {
	Canvas      []float64   `yaml:"canvas"`
	Relations   [][]float64 `yaml:"relations"`
	Particles   int         `yaml:"particles"`
	Seed        int64       `yaml:"seed"`
	Force       string      `yaml:"force"`
	Integrator  string      `yaml:"integrator"`
	Cutoff      float64     `yaml:"cutoff"`
	Viscosity   float64     `yaml:"viscosity"`
	Dt          float64     `yaml:"dt"`
	Frames      int         `yaml:"frames"`
	SampleEvery int         `yaml:"sample_every"`
	TimeScale   float64     `yaml:"time_scale"`
	SpeedLimit  float64     `yaml:"speed_limit"`
	Workers     int         `yaml:"workers"`
}

func DefaultFile() *File {
	return &File{
		Canvas:      []float64{particles.DefaultCanvasSize, particles.DefaultCanvasSize},
		Relations:   particles.DefaultRelations(particles.DefaultVariantCount),
		Particles:   particles.DefaultParticleCount,
		Force:       ForceCutoff,
		Integrator:  IntegratorEuler,
		Cutoff:      particles.DefaultCutoff,
		Viscosity:   particles.DefaultViscosity,
		Dt:          sim.DefaultDt,
		Frames:      sim.DefaultFrames,
		SampleEvery: sim.DefaultSampleEvery,
		TimeScale:   sim.DefaultTimeScale,
		SpeedLimit:  DefaultSpeedLimit,
	}
}

// Load reads a YAML file on top of DefaultFile.
func Load(path string) (*File, error) {
	return LoadOver(path, DefaultFile())
}

// LoadOver reads a YAML file on top of a copy of base. Keys missing from the
// file keep base's values.
func LoadOver(path string, base *File) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f := base.Clone()
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy, so presets can be modified by callers.
func (f *File) Clone() *File {
	c := *f
	c.Canvas = append([]float64(nil), f.Canvas...)
	c.Relations = make([][]float64, len(f.Relations))
	for i, row := range f.Relations {
		c.Relations[i] = append([]float64(nil), row...)
	}
	return &c
}

// Build validates the file and returns the particle configuration and the
// model options it describes. The seed option is left to the caller. Every
// call returns fresh force and integrator instances.
func (f *File) Build() (*particles.Config, []particles.Option, error) {
	cfg, err := particles.NewConfig(f.Canvas, f.Relations, f.Particles)
	if err != nil {
		return nil, nil, err
	}

	var force particles.RangeForceModel
	switch f.Force {
	case ForceCutoff, "":
		// An infinite cutoff means no cutoff; viscosity must stay finite.
		if math.IsNaN(f.Cutoff) || f.Cutoff < 0 {
			return nil, nil, &particles.ConfigurationError{Field: "cutoff", Constraint: "must be a non-negative number", Value: f.Cutoff}
		}
		if math.IsNaN(f.Viscosity) || math.IsInf(f.Viscosity, 0) || f.Viscosity < 0 {
			return nil, nil, &particles.ConfigurationError{Field: "viscosity", Constraint: "must be finite and non-negative", Value: f.Viscosity}
		}
		force = &particles.CutoffDamped{Cutoff: f.Cutoff, Viscosity: f.Viscosity}
	case ForceInverse:
		force = particles.NewInverseDistance()
	default:
		return nil, nil, fmt.Errorf("unknown force model: %s", f.Force)
	}

	// Workers: 0 is serial, negative means one per CPU.
	var opts []particles.Option
	if f.Workers != 0 {
		opts = append(opts, particles.WithForce(compute.NewCPUBackend(force, max(f.Workers, 0))))
	} else {
		opts = append(opts, particles.WithForce(force))
	}

	switch f.Integrator {
	case IntegratorEuler, "":
		opts = append(opts, particles.WithIntegrator(particles.NewSemiImplicitEuler()))
	case IntegratorMatrix:
		opts = append(opts, particles.WithIntegrator(particles.NewTransitionMatrix()))
	default:
		return nil, nil, fmt.Errorf("unknown integrator: %s", f.Integrator)
	}

	return cfg, opts, nil
}

// RunConfig returns the frame runner settings.
func (f *File) RunConfig() sim.Config {
	return sim.Config{
		Dt:          f.Dt,
		Frames:      f.Frames,
		SampleEvery: f.SampleEvery,
	}
}

// Set assigns a numeric parameter by name. Relation entries are addressed as
// rel_<source>_<target>.
func (f *File) Set(name string, v float64) error {
	switch name {
	case "cutoff":
		f.Cutoff = v
	case "viscosity":
		f.Viscosity = v
	case "dt":
		f.Dt = v
	case "speed_limit":
		f.SpeedLimit = v
	case "time_scale":
		f.TimeScale = v
	case "particles":
		f.Particles = int(v)
	case "workers":
		f.Workers = int(v)
	default:
		var s, t int
		if n, err := fmt.Sscanf(name, "rel_%d_%d", &s, &t); err != nil || n != 2 {
			return fmt.Errorf("unknown parameter: %s", name)
		}
		if s < 0 || s >= len(f.Relations) || t < 0 || t >= len(f.Relations[s]) {
			return fmt.Errorf("relation %s out of range for %d variants", name, len(f.Relations))
		}
		f.Relations[s][t] = v
	}
	return nil
}
