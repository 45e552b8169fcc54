package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/partsim/internal/analysis"
	"github.com/san-kum/partsim/internal/automation"
	"github.com/san-kum/partsim/internal/compute"
	"github.com/san-kum/partsim/internal/config"
	"github.com/san-kum/partsim/internal/export"
	"github.com/san-kum/partsim/internal/metrics"
	"github.com/san-kum/partsim/internal/optim"
	"github.com/san-kum/partsim/internal/particles"
	"github.com/san-kum/partsim/internal/sim"
	"github.com/san-kum/partsim/internal/storage"
	"github.com/san-kum/partsim/internal/tui"
	"github.com/san-kum/partsim/internal/viz"
)

var (
	dataDir     string
	verbose     bool
	configFile  string
	preset      string
	seed        int64
	count       int
	force       string
	integrator  string
	cutoff      float64
	viscosity   float64
	dt          float64
	frames      int
	sampleEvery int
	timeScale   float64
	frameRate   int
	theme       string
	benchRuns   int
	workers     int
	grid        []string
	metricName  string
	outPath     string

	logger *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "partsim",
		Short:         "pairwise particle simulation lab",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive()
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: true, Prefix: "partsim"})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".partsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a batch simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	modelFlags(runCmd)
	runCmd.Flags().Float64Var(&dt, "dt", sim.DefaultDt, "timestep")
	runCmd.Flags().IntVar(&frames, "frames", sim.DefaultFrames, "number of frames")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", sim.DefaultSampleEvery, "frames between particle snapshots")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run the model with a live terminal view",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	modelFlags(liveCmd)
	liveCmd.Flags().Float64Var(&timeScale, "time-scale", sim.DefaultTimeScale, "model time per wall-clock millisecond")
	liveCmd.Flags().IntVar(&frameRate, "fps", viz.DefaultFPS, "frame rate")
	liveCmd.Flags().StringVar(&theme, "theme", viz.ThemeVivid.Name, fmt.Sprintf("colour theme %v", viz.ThemeNames()))

	resumeCmd := &cobra.Command{
		Use:   "resume [run_id]",
		Short: "continue a saved run from its final particles",
		Args:  cobra.ExactArgs(1),
		RunE:  resumeRun,
	}
	resumeCmd.Flags().IntVar(&frames, "frames", sim.DefaultFrames, "number of frames")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot kinetic energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of kinetic energy",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark independently seeded runs in parallel",
		Args:  cobra.NoArgs,
		RunE:  benchModel,
	}
	modelFlags(benchCmd)
	benchCmd.Flags().Float64Var(&dt, "dt", sim.DefaultDt, "timestep")
	benchCmd.Flags().IntVar(&frames, "frames", sim.DefaultFrames, "number of frames")
	benchCmd.Flags().IntVar(&benchRuns, "runs", 4, "number of runs")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "grid search parameters minimising a metric",
		Args:  cobra.NoArgs,
		RunE:  sweepParams,
	}
	modelFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&dt, "dt", sim.DefaultDt, "timestep")
	sweepCmd.Flags().IntVar(&frames, "frames", sim.DefaultFrames, "number of frames")
	sweepCmd.Flags().StringArrayVar(&grid, "grid", nil, "parameter values, e.g. viscosity=0.1,0.3,0.5 (repeatable)")
	sweepCmd.Flags().StringVar(&metricName, "metric", "kinetic_energy", "metric to minimise")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render the final particles and energy series of a run as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", ".", "output directory")
	exportSVGCmd.Flags().StringVar(&theme, "theme", viz.ThemeVivid.Name, "colour theme")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of phases from a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARTICLES\tVARIANTS\tFORCE\tINTEG")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", name, p.Particles, len(p.Relations), p.Force, p.Integrator)
			}
			return w.Flush()
		},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "write a config file from a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := resolveFile(cmd)
			if err != nil {
				return err
			}
			return config.Save(args[0], f)
		},
	}
	initCmd.Flags().StringVar(&preset, "preset", "", "preset to start from")

	rootCmd.AddCommand(runCmd, liveCmd, resumeCmd, listCmd, plotCmd, analyzeCmd, exportJSONCmd, exportSVGCmd, benchCmd, sweepCmd, scenarioCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		if logger == nil {
			logger = log.New(os.Stderr)
		}
		logger.Error(err)
		os.Exit(1)
	}
}

func modelFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 picks one from the clock)")
	cmd.Flags().IntVar(&count, "particles", particles.DefaultParticleCount, "particle count")
	cmd.Flags().StringVar(&force, "force", config.ForceCutoff, "force model (cutoff, inverse)")
	cmd.Flags().StringVar(&integrator, "integrator", config.IntegratorEuler, "integrator (euler, transition)")
	cmd.Flags().Float64Var(&cutoff, "cutoff", particles.DefaultCutoff, "interaction cutoff distance")
	cmd.Flags().Float64Var(&viscosity, "viscosity", particles.DefaultViscosity, "damping per unit speed")
	cmd.Flags().IntVar(&workers, "workers", 0, "force workers (0 serial, -1 one per CPU)")
}

// resolveFile applies the preset, then the config file, then any flag the
// user set explicitly.
func resolveFile(cmd *cobra.Command) (*config.File, error) {
	f := config.DefaultFile()
	if preset != "" {
		f = config.GetPreset(preset)
		if f == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, f)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		f = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		f.Seed = seed
	}
	if flags.Changed("particles") {
		f.Particles = count
	}
	if flags.Changed("force") {
		f.Force = force
	}
	if flags.Changed("integrator") {
		f.Integrator = integrator
	}
	if flags.Changed("cutoff") {
		f.Cutoff = cutoff
	}
	if flags.Changed("viscosity") {
		f.Viscosity = viscosity
	}
	if flags.Changed("workers") {
		f.Workers = workers
	}
	if flags.Changed("dt") {
		f.Dt = dt
	}
	if flags.Changed("frames") {
		f.Frames = frames
	}
	if flags.Changed("sample-every") {
		f.SampleEvery = sampleEvery
	}
	if flags.Changed("time-scale") {
		f.TimeScale = timeScale
	}

	if f.Seed == 0 {
		f.Seed = time.Now().UnixNano()
	}
	return f, nil
}

// factoryFor validates f once and returns a factory that builds every model
// with its own force and integrator instances, so models can step
// concurrently.
func factoryFor(f *config.File) (sim.ModelFactory, error) {
	if _, _, err := f.Build(); err != nil {
		return nil, err
	}
	return func(s int64) (*particles.Model, error) {
		cfg, opts, err := f.Build()
		if err != nil {
			return nil, err
		}
		return particles.New(cfg, append(opts, particles.WithSeed(s))...)
	}, nil
}

func runName() string {
	if preset != "" {
		return preset
	}
	if configFile != "" {
		return "config"
	}
	return "default"
}

func runSimulation(cmd *cobra.Command, args []string) error {
	f, err := resolveFile(cmd)
	if err != nil {
		return err
	}
	factory, err := factoryFor(f)
	if err != nil {
		return err
	}
	model, err := factory(f.Seed)
	if err != nil {
		return err
	}
	return execute(runName(), f, model)
}

// execute runs model with the file's frame settings and saves the result.
func execute(name string, f *config.File, model *particles.Model) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	runner := sim.New(model, logger)
	for _, m := range metrics.Defaults(model.Config().VariantCount(), f.SpeedLimit) {
		runner.AddMetric(m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.Info("running simulation", "name", name, "particles", model.Len(), "frames", f.Frames, "seed", f.Seed)
	start := time.Now()

	result, err := runner.Run(ctx, f.RunConfig())
	if err != nil && result == nil {
		return err
	}
	if err != nil {
		logger.Warn("run stopped early, saving partial result", "frames", result.Frames, "err", err)
	}
	result.Seed = f.Seed

	runID, saveErr := st.Save(name, f.Seed, f, result)
	if saveErr != nil {
		return saveErr
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("frames: %d\n", result.Frames)
	fmt.Println("\nmetrics:")
	keys := make([]string, 0, len(result.Metrics))
	for k := range result.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %s: %.6f\n", k, result.Metrics[k])
	}
	return err
}

func resumeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	model, meta, err := st.Restore(args[0])
	if err != nil {
		return err
	}
	f := meta.Config.Clone()
	f.Seed = meta.Seed
	if cmd.Flags().Changed("frames") {
		f.Frames = frames
	}
	return execute(meta.Name+"-resumed", f, model)
}

func runLive(cmd *cobra.Command, args []string) error {
	f, err := resolveFile(cmd)
	if err != nil {
		return err
	}
	factory, err := factoryFor(f)
	if err != nil {
		return err
	}
	model, err := factory(f.Seed)
	if err != nil {
		return err
	}

	clock := sim.NewClock(f.TimeScale, sim.DefaultMaxDt)
	m := viz.NewLive(model, viz.Factory(factory), f.Seed, clock, frameRate).WithTheme(theme)

	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if live, ok := final.(viz.Live); ok && live.Err() != nil {
		return live.Err()
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tFRAMES\tDT\tPARTICLES\tFORCE\tINTEG")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\t%d\t%s\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Frames,
			run.Dt,
			run.Particles,
			run.Force,
			run.Integrator,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	_, energy, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(energy) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("particles: %d\n", meta.Particles)
	fmt.Printf("samples: %d\n\n", len(energy))

	graph := asciigraph.Plot(energy,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption("kinetic energy"),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	_, energy, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(energy) < 2 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("frequency analysis: %s\n\n", meta.ID)

	ps := analysis.PowerSpectrum(energy)
	graph := asciigraph.Plot(ps,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum (kinetic energy)"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, _ := analysis.DominantFrequency(energy, meta.Dt)
	fmt.Printf("dominant frequency: %.3f per unit time\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f\n", 1.0/freq)
	}
	return nil
}

func benchModel(cmd *cobra.Command, args []string) error {
	f, err := resolveFile(cmd)
	if err != nil {
		return err
	}
	factory, err := factoryFor(f)
	if err != nil {
		return err
	}
	sample, err := factory(f.Seed)
	if err != nil {
		return err
	}
	perRun := forceWorkers(sample)

	ens := sim.NewEnsemble(factory, benchRuns, f.Seed, logger).
		WithMetrics(func() []sim.Metric {
			return metrics.Defaults(len(f.Relations), f.SpeedLimit)
		})

	start := time.Now()
	results, err := ens.Run(context.Background(), f.RunConfig())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tFRAMES\tENERGY\tMEAN_SPEED\tSTABILITY")
	total := 0
	for _, r := range results {
		total += r.Frames
		fmt.Fprintf(w, "%d\t%d\t%.4f\t%.4f\t%.2f\n",
			r.Seed, r.Frames, r.Energy[len(r.Energy)-1], r.Metrics["mean_speed"], r.Metrics["stability"])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	pairs := float64(f.Particles) * float64(f.Particles-1)
	fmt.Printf("\n%d runs, %d frames in %v\n", len(results), total, elapsed)
	fmt.Printf("force workers per run: %d\n", perRun)
	fmt.Printf("frames/sec: %.0f\n", float64(total)/elapsed.Seconds())
	fmt.Printf("pair interactions/sec: %.0f\n", float64(total)*pairs/elapsed.Seconds())
	return nil
}

// forceWorkers reports how many goroutines evaluate forces for m.
func forceWorkers(m *particles.Model) int {
	if b, ok := m.ForceModel().(*compute.CPUBackend); ok {
		return b.Workers()
	}
	return 1
}

// parseGrid turns "name=v1,v2,..." entries into parallel name and value lists.
func parseGrid(entries []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(entries))
	ranges := make([][]float64, 0, len(entries))
	for _, e := range entries {
		name, list, ok := strings.Cut(e, "=")
		if !ok || name == "" || list == "" {
			return nil, nil, fmt.Errorf("invalid grid entry %q, want name=v1,v2", e)
		}
		var vals []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("grid %s: %w", name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}
	return names, ranges, nil
}

func sweepParams(cmd *cobra.Command, args []string) error {
	base, err := resolveFile(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("at least one --grid entry is required")
	}

	build := func(params map[string]float64) (*particles.Model, error) {
		f := base.Clone()
		for name, v := range params {
			if err := f.Set(name, v); err != nil {
				return nil, err
			}
		}
		factory, err := factoryFor(f)
		if err != nil {
			return nil, err
		}
		return factory(f.Seed)
	}

	newMetrics := func() []sim.Metric {
		return metrics.Defaults(len(base.Relations), base.SpeedLimit)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, val, trials, err := optim.NewGridSearch(names, ranges).Search(ctx, build, base.RunConfig(), newMetrics, metricName)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, tr := range trials {
		cols := make([]string, len(names))
		for i, n := range names {
			cols[i] = strconv.FormatFloat(tr.Params[n], 'g', -1, 64)
		}
		res := fmt.Sprintf("%.6f", tr.Value)
		if tr.Err != nil {
			res = "error: " + tr.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(cols, "\t"), res)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.6f at %v\n", metricName, val, best)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	snap, err := st.LoadParticles(runID)
	if err != nil {
		return err
	}
	times, energy, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}

	width, height := particles.DefaultCanvasSize, particles.DefaultCanvasSize
	if meta.Config != nil && len(meta.Config.Canvas) == 2 {
		width, height = meta.Config.Canvas[0], meta.Config.Canvas[1]
	}
	colors := viz.GetTheme(theme).Palette(meta.Variants)
	palette := make([]string, len(colors))
	for i, c := range colors {
		palette[i] = string(c)
	}

	if err := os.MkdirAll(outPath, 0755); err != nil {
		return err
	}
	particlesPath := filepath.Join(outPath, runID+"_particles.svg")
	if err := os.WriteFile(particlesPath, []byte(export.SnapshotToSVG(snap, width, height, 1, palette)), 0644); err != nil {
		return err
	}
	energyPath := filepath.Join(outPath, runID+"_energy.svg")
	if err := os.WriteFile(energyPath, []byte(export.SeriesToSVG(times, energy, 800, 300, string(viz.GetTheme(theme).Accent))), 0644); err != nil {
		return err
	}

	logger.Info("exported", "particles", particlesPath, "energy", energyPath)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, err = automation.RunScenario(ctx, scenario, logger, func(p automation.PhaseResult) error {
		energy := p.Result.Energy[len(p.Result.Energy)-1]
		fmt.Printf("phase %d: %d frames, kinetic energy %.4f\n", p.Index+1, p.Result.Frames, energy)
		if p.Result.Frames < p.File.Frames {
			logger.Warn("phase stopped early", "phase", p.Index+1, "frames", p.Result.Frames)
		}
		if p.Phase.SaveAs == "" {
			return nil
		}
		runID, err := st.Save(p.Phase.SaveAs, p.File.Seed, p.File, p.Result)
		if err != nil {
			return err
		}
		fmt.Printf("  saved as %s\n", runID)
		return nil
	})
	return err
}
