package sim

import (
	"fmt"

	"github.com/san-kum/partsim/internal/particles"
)

const (
	DefaultDt          = 0.016
	DefaultFrames      = 600
	DefaultSampleEvery = 60
)

// Frame is passed to metrics and observers after each Update returns. Model
// must only be read.
type Frame struct {
	Index int
	Time  float64
	Dt    float64
	Model *particles.Model
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

type ObserverFunc func(f Frame)

func (fn ObserverFunc) OnFrame(f Frame) { fn(f) }

type Config struct {
	Dt          float64
	Frames      int
	SampleEvery int
}

func DefaultConfig() Config {
	return Config{
		Dt:          DefaultDt,
		Frames:      DefaultFrames,
		SampleEvery: DefaultSampleEvery,
	}
}

// Snapshot is a copy of the batch taken between frames.
type Snapshot struct {
	Frame     int                  `json:"frame"`
	Time      float64              `json:"time"`
	Particles []particles.Particle `json:"particles"`
}

type Result struct {
	Times     []float64
	Energy    []float64
	Snapshots []Snapshot
	Metrics   map[string]float64
	Frames    int
	Seed      int64
}

// Final returns the last snapshot, or nil when none was taken.
func (r *Result) Final() *Snapshot {
	if len(r.Snapshots) == 0 {
		return nil
	}
	return &r.Snapshots[len(r.Snapshots)-1]
}

// FrameError wraps an error returned while stepping a frame.
type FrameError struct {
	Frame int
	Time  float64
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %d (t=%.4f): %v", e.Frame, e.Time, e.Err)
}

func (e *FrameError) Unwrap() error { return e.Err }
