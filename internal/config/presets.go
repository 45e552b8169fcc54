package config

import (
	"sort"

	"github.com/san-kum/partsim/internal/particles"
)

var Presets = map[string]*File{
	"default": DefaultFile(),
	// Each variant chases the next one round the cycle.
	"chase": {
		Canvas: []float64{600, 600},
		Relations: [][]float64{
			{0.1, -0.1, 0.0},
			{0.0, 0.1, -0.1},
			{-0.1, 0.0, 0.1},
		},
		Particles: 100, Force: ForceCutoff, Integrator: IntegratorEuler,
		Cutoff: 100, Viscosity: 0.3, Dt: 0.016, Frames: 900, SampleEvery: 90,
		TimeScale: 0.001, SpeedLimit: DefaultSpeedLimit,
	},
	"clusters": {
		Canvas:    []float64{500, 500},
		Relations: particles.DefaultRelations(5),
		Particles: 150, Force: ForceCutoff, Integrator: IntegratorEuler,
		Cutoff: 60, Viscosity: 0.5, Dt: 0.016, Frames: 600, SampleEvery: 60,
		TimeScale: 0.001, SpeedLimit: DefaultSpeedLimit,
	},
	"pair": {
		Canvas:    []float64{500, 500},
		Relations: [][]float64{{0.1, -0.1}, {0.0, 0.1}},
		Particles: 2, Force: ForceCutoff, Integrator: IntegratorEuler,
		Cutoff: 100, Viscosity: 0, Dt: 1, Frames: 10, SampleEvery: 1,
		TimeScale: 0.001, SpeedLimit: DefaultSpeedLimit,
	},
	"inverse": {
		Canvas: []float64{500, 500},
		Relations: [][]float64{
			{5, -5, 2},
			{-5, 5, -2},
			{2, -2, 5},
		},
		Particles: 120, Force: ForceInverse, Integrator: IntegratorMatrix,
		Dt: 0.01, Frames: 600, SampleEvery: 60,
		TimeScale: 0.001, SpeedLimit: DefaultSpeedLimit,
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *File {
	f, ok := Presets[name]
	if !ok {
		return nil
	}
	return f.Clone()
}

// ListPresets returns preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
