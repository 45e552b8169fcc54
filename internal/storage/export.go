package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/partsim/internal/sim"
)

type ExportData struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Frames     int                `json:"frames"`
	Force      string             `json:"force"`
	Integrator string             `json:"integrator"`
	Times      []float64          `json:"times"`
	Energy     []float64          `json:"kinetic_energy"`
	Metrics    map[string]float64 `json:"metrics"`
	Final      *sim.Snapshot      `json:"final,omitempty"`
}

// ExportJSON writes a run's metadata, energy series and final particles to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	times, energy, err := s.LoadSeries(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		ID:         meta.ID,
		Name:       meta.Name,
		Seed:       meta.Seed,
		Dt:         meta.Dt,
		Frames:     meta.Frames,
		Force:      meta.Force,
		Integrator: meta.Integrator,
		Times:      times,
		Energy:     energy,
		Metrics:    meta.Metrics,
	}
	if snap, err := s.LoadParticles(runID); err == nil {
		data.Final = snap
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
