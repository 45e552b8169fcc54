package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/particles"
	"github.com/san-kum/partsim/internal/sim"
)

const (
	metadataFile  = "metadata.json"
	seriesFile    = "series.csv"
	particlesFile = "particles.json"
)

type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Timestamp  time.Time          `json:"timestamp"`
	Seed       int64              `json:"seed"`
	Dt         float64            `json:"dt"`
	Frames     int                `json:"frames"`
	Particles  int                `json:"particles"`
	Variants   int                `json:"variants"`
	Force      string             `json:"force"`
	Integrator string             `json:"integrator"`
	Config     *config.File       `json:"config"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Save writes a run directory and returns its id. name is usually the preset
// the run started from.
func (s *Store) Save(name string, seed int64, file *config.File, result *sim.Result) (string, error) {
	now := s.now()
	runID := fmt.Sprintf("%s_%d", name, now.Unix())
	runDir := filepath.Join(s.baseDir, runID)
	for i := 1; exists(runDir); i++ {
		runID = fmt.Sprintf("%s_%d_%d", name, now.Unix(), i)
		runDir = filepath.Join(s.baseDir, runID)
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:         runID,
		Name:       name,
		Timestamp:  now,
		Seed:       seed,
		Dt:         file.Dt,
		Frames:     result.Frames,
		Particles:  file.Particles,
		Variants:   len(file.Relations),
		Force:      file.Force,
		Integrator: file.Integrator,
		Config:     file,
		Metrics:    result.Metrics,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if final := result.Final(); final != nil {
		if err := writeJSON(filepath.Join(runDir, particlesFile), final); err != nil {
			return "", err
		}
	}

	csvFile, err := os.Create(filepath.Join(runDir, seriesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := writeSeries(csvFile, result); err != nil {
		return "", err
	}
	return runID, nil
}

func writeSeries(out io.Writer, result *sim.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"time", "kinetic_energy"}); err != nil {
		return err
	}
	for i := range result.Times {
		row := []string{
			strconv.FormatFloat(result.Times[i], 'f', 6, 64),
			strconv.FormatFloat(result.Energy[i], 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadSeries returns the recorded times and kinetic energies.
func (s *Store) LoadSeries(runID string) ([]float64, []float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, seriesFile))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []float64{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	energy := make([]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 2 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		e, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
		energy = append(energy, e)
	}

	return times, energy, nil
}

// LoadParticles returns the final snapshot of a run.
func (s *Store) LoadParticles(runID string) (*sim.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, particlesFile))
	if err != nil {
		return nil, err
	}

	var snap sim.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Restore rebuilds the final state of a run as a new model.
func (s *Store) Restore(runID string) (*particles.Model, *RunMetadata, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	if meta.Config == nil {
		return nil, nil, fmt.Errorf("run %s has no stored configuration", runID)
	}
	snap, err := s.LoadParticles(runID)
	if err != nil {
		return nil, nil, err
	}

	cfg, opts, err := meta.Config.Build()
	if err != nil {
		return nil, nil, err
	}
	m, err := particles.NewFromParticles(cfg, snap.Particles, append(opts, particles.WithSeed(meta.Seed))...)
	if err != nil {
		return nil, nil, err
	}
	return m, meta, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
