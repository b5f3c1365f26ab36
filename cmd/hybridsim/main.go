package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/hybridsim/internal/backend"
	"github.com/san-kum/hybridsim/internal/config"
	"github.com/san-kum/hybridsim/internal/scenario"
	"github.com/san-kum/hybridsim/internal/sim"
	"github.com/san-kum/hybridsim/internal/storage"
	"github.com/san-kum/hybridsim/internal/stream"
	"github.com/san-kum/hybridsim/internal/tui"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dataDir       string
	verbose       bool
	backendName   string
	forceFallback bool
	configFile    string
	dt            float64
	duration      float64
	fixedStep     float64
	record        bool
	noSave        bool
	frameRate     int
	addr          string
	loop          bool
	numRuns       int
	objectID      string
	axis          int
	every         int
	outFile       string
	phase         bool

	logger *log.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hybridsim",
		Short: "hybrid orbital and rigid-body simulation",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = log.NewWithOptions(os.Stderr, log.Options{
				ReportTimestamp: true,
				TimeFormat:      time.Kitchen,
				Prefix:          "hybridsim",
			})
			if verbose {
				logger.SetLevel(log.DebugLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.RunInteractive(nil)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".hybridsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "", "physics backend (default from config or "+backend.EnvBackend+")")
	rootCmd.PersistentFlags().BoolVar(&forceFallback, "force-fallback", false, "treat the requested backend as failed")

	scenarioFlags := func(cmd *cobra.Command) {
		cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
		cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "frame timestep")
		cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
		cmd.Flags().Float64Var(&fixedStep, "fixed-step", config.DefaultFixedStep, "physics sub-step, 0 for variable steps")
	}

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and save it",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	scenarioFlags(runCmd)
	runCmd.Flags().BoolVar(&record, "record", false, "record snapshots")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the run")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scenario with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	scenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")

	serveCmd := &cobra.Command{
		Use:   "serve [preset]",
		Short: "run a scenario in real time and stream frames over websocket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serveScenario,
	}
	scenarioFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().BoolVar(&loop, "loop", false, "restart the scenario when it ends")

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "run independent copies of a scenario concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScenario,
	}
	scenarioFlags(benchCmd)
	benchCmd.Flags().IntVar(&numRuns, "runs", 4, "number of concurrent runs")

	backendsCmd := &cobra.Command{
		Use:   "backends",
		Short: "list physics backends",
		RunE:  listBackends,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot an object's position",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&objectID, "object", "", "object id (default: every object)")
	plotCmd.Flags().IntVar(&axis, "axis", 1, "position axis 0, 1 or 2")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "dominant oscillation frequency per object",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&axis, "axis", 0, "position axis 0, 1 or 2")

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "replay recorded snapshots",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}
	replayCmd.Flags().IntVar(&every, "every", 10, "print every n-th snapshot")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export trajectories or a phase portrait as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().BoolVar(&phase, "phase", false, "draw the phase portrait of --object")
	exportSVGCmd.Flags().StringVar(&objectID, "object", "", "object id for --phase")
	exportSVGCmd.Flags().IntVar(&axis, "axis", 0, "axis for --phase")

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, benchCmd, backendsCmd, presetsCmd,
		listCmd, plotCmd, analyzeCmd, replayCmd, exportJSONCmd, exportSVGCmd)
	rootCmd.AddCommand(batchCommands(scenarioFlags)...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig starts from --config, else the named preset, else the
// defaults, then applies only the flags the user set. The backend comes
// from --backend, then HYBRIDSIM_BACKEND, then the config.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case len(args) > 0:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", args[0], strings.Join(config.ListPresets(), ", "))
		}
	default:
		cfg = config.DefaultConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("fixed-step") {
		cfg.FixedStep = fixedStep
	}
	if flags.Changed("record") {
		cfg.Record = record
	}
	if flags.Changed("backend") {
		cfg.Backend = backendName
	} else {
		cfg.Backend = backend.NameFromEnv(cfg.Backend)
	}
	if forceFallback {
		cfg.ForceFallback = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func build(cmd *cobra.Command, args []string) (*scenario.Scenario, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, err
	}
	sc, err := scenario.Build(cfg, scenario.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if sel := sc.Selection(); sel.FellBack {
		fmt.Printf("backend: %s\n", sel)
	}
	return sc, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := build(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s on %s...\n", sc.Config().Name, sc.Selection().Selected)
	start := time.Now()
	result, err := sc.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		st := storage.New(dataDir)
		st.SetLogger(logger)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := sc.Save(st, result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	fmt.Printf("ticks: %d\n", result.Ticks)
	fmt.Printf("transitions: %d\n", result.Transitions)
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	sc, err := build(cmd, args)
	if err != nil {
		return err
	}

	renderer := tui.NewLiveRenderer(os.Stdout, sc.Config().Name, frameRate)
	sc.Simulator().AddFrameListener(renderer.Observe)
	renderer.Start()
	defer renderer.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return realtime(ctx, sc)
}

// realtime ticks sc at wall-clock pace until its duration is reached.
func realtime(ctx context.Context, sc *scenario.Scenario) error {
	cfg := sc.Config()
	s := sc.Simulator()
	ticker := time.NewTicker(time.Duration(cfg.Dt * float64(time.Second)))
	defer ticker.Stop()

	for s.Time() < cfg.Duration {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Tick(cfg.Dt); err != nil {
				return err
			}
		}
	}
	return nil
}

func serveScenario(cmd *cobra.Command, args []string) error {
	hub := stream.NewHub(logger)
	defer hub.Close()

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	defer srv.Close()
	logger.Info("streaming frames", "addr", addr, "path", "/ws")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for {
		sc, err := build(cmd, args)
		if err != nil {
			return err
		}
		sc.Simulator().AddFrameListener(hub.Publish)
		if err := realtime(ctx, sc); err != nil {
			return err
		}

		select {
		case err := <-errc:
			return err
		default:
		}
		if !loop || ctx.Err() != nil {
			return nil
		}
		logger.Debug("restarting scenario", "subscribers", hub.Len())
	}
}

func benchScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ens, err := sim.NewEnsemble(func(int) (*sim.Simulator, error) {
		sc, err := scenario.Build(cfg)
		if err != nil {
			return nil, err
		}
		return sc.Simulator(), nil
	}, numRuns)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s: %d runs of %.1fs at dt=%.4f\n\n", cfg.Name, numRuns, cfg.Duration, cfg.Dt)
	start := time.Now()
	results, err := ens.Run(context.Background(), sim.Config{Dt: cfg.Dt, Duration: cfg.Duration})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tTICKS\tTRANSITIONS\tKE")
	var ticks uint64
	for i, r := range results {
		ticks += r.Ticks
		fmt.Fprintf(w, "%d\t%d\t%d\t%.4f\n", i, r.Ticks, r.Transitions, r.Metrics["kinetic_energy"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\ntotal %v, %.0f ticks/s\n", elapsed, float64(ticks)/elapsed.Seconds())
	return nil
}

func listBackends(cmd *cobra.Command, args []string) error {
	r := backend.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAVAILABLE\tCAPABILITIES")
	for _, name := range r.Names() {
		b, _ := r.Get(name)
		fmt.Fprintf(w, "%s\t%v\t%s\n", name, b.Available(), b.Capabilities())
	}
	return w.Flush()
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		for _, name := range config.ListPresets() {
			cfg := config.GetPreset(name)
			fmt.Printf("  %-16s %d bodies, %d joints, backend %s\n", name, len(cfg.Bodies), len(cfg.Joints), cfg.Backend)
		}
		return nil
	}

	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s", args[0])
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}
