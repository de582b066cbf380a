package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/avolkov/drudemd/internal/config"
	"github.com/avolkov/drudemd/internal/driver"
	"github.com/avolkov/drudemd/internal/engine"
	"github.com/avolkov/drudemd/internal/mdlog"
	"github.com/avolkov/drudemd/internal/report"
	"github.com/avolkov/drudemd/internal/store"
	"github.com/avolkov/drudemd/internal/thermo"
	"github.com/avolkov/drudemd/internal/topology"
	"github.com/avolkov/drudemd/internal/tui"
)

var (
	dataDir     string
	configFile  string
	preset      string
	temperature float64
	blocks      int
	stepsBlock  int
	seed        int64
	classifier  string
	logFile     string
	// readlog/plot flags
	cut    float64
	column string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "drudemd",
		Short: "Drude-polarizable MD driver and log analysis",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".drudemd", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation",
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run simulation with live temperature monitor",
		RunE:  runLive,
	}
	addRunFlags(liveCmd)

	readlogCmd := &cobra.Command{
		Use:   "readlog",
		Short: "reshape a run log into a plot table and print windowed averages",
		RunE:  readLog,
	}
	readlogCmd.Flags().StringVar(&logFile, "logfile", config.DefaultLogFile, "simulation log file")
	readlogCmd.Flags().Float64Var(&cut, "cut", 0.0, "fraction of initial frames excluded from averages, in [0,1)")

	plotCmd := &cobra.Command{
		Use:   "plot",
		Short: "graph one log column against the step counter",
		RunE:  plotColumn,
	}
	plotCmd.Flags().StringVar(&logFile, "logfile", config.DefaultLogFile, "simulation log file")
	plotCmd.Flags().StringVar(&column, "column", "Temperature-(K)", "column to graph")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range config.ListPresets() {
				fmt.Println(p)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, readlogCmd, plotCmd, listCmd, exportCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().Float64Var(&temperature, "temperature", config.DefaultTemperature, "thermostat temperature (K)")
	cmd.Flags().IntVar(&blocks, "blocks", config.DefaultBlocks, "number of report blocks")
	cmd.Flags().IntVar(&stepsBlock, "steps", config.DefaultStepsPerBlock, "steps per block")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")
	cmd.Flags().StringVar(&classifier, "classifier", string(topology.AdjacencyBased), "drude detection strategy (adjacency|mass-threshold)")
	cmd.Flags().StringVar(&logFile, "log", config.DefaultLogFile, "log file to write")
}

func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	// CLI flags override preset and config file.
	if cmd.Flags().Changed("temperature") {
		cfg.Temperature = temperature
	}
	if cmd.Flags().Changed("blocks") {
		cfg.Blocks = blocks
	}
	if cmd.Flags().Changed("steps") {
		cfg.StepsPerBlock = stepsBlock
	}
	if cmd.Flags().Changed("classifier") {
		cfg.Classifier = classifier
	}
	if cmd.Flags().Changed("log") {
		cfg.LogFile = logFile
	}
	if cmd.Flags().Changed("seed") || cfg.Seed == 0 {
		cfg.Seed = seed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type assembled struct {
	cfg   *config.Config
	eng   *engine.Langevin
	class *topology.Classification
	drv   *driver.Driver
}

func assemble(cmd *cobra.Command) (*assembled, error) {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return nil, err
	}

	eng, err := engine.NewLangevin(cfg.EngineConfig(), cfg.EngineSites(), cfg.Molecules)
	if err != nil {
		return nil, err
	}

	class, err := topology.Classify(eng.Particles(), cfg.ClassifyOptions())
	if err != nil {
		return nil, err
	}

	dec, err := thermo.NewDecomposer(class, eng.NumConstraints(), cfg.CountConstraints)
	if err != nil {
		return nil, err
	}

	drv, err := driver.New(eng, dec, cfg.Blocks, cfg.StepsPerBlock, cfg.Timestep)
	if err != nil {
		return nil, err
	}
	return &assembled{cfg: cfg, eng: eng, class: class, drv: drv}, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	a, err := assemble(cmd)
	if err != nil {
		return err
	}
	cfg := a.cfg

	st := store.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	f, err := os.Create(cfg.LogFile)
	if err != nil {
		return err
	}
	defer f.Close()

	rep := report.NewLogReporter(f)
	if err := writePreamble(rep, a); err != nil {
		return err
	}
	a.drv.AddReporter(rep)

	fmt.Printf("running %d blocks of %d steps (%d particles) ...\n",
		cfg.Blocks, cfg.StepsPerBlock, a.class.NumParticles())
	start := time.Now()

	last, err := a.drv.Run(context.Background())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := store.RunMetadata{
		Preset:        presetName(),
		Timestamp:     time.Now(),
		Seed:          cfg.Seed,
		Temperature:   cfg.Temperature,
		Blocks:        cfg.Blocks,
		StepsPerBlock: cfg.StepsPerBlock,
		Steps:         a.eng.StepCount(),
		Particles:     a.class.NumParticles(),
		Temperatures: map[string]float64{
			"all":   last.All,
			"atoms": last.Atoms,
		},
	}
	if last.HasDrude {
		meta.Temperatures["drude"] = last.Drude
	}
	runID, err := st.Save(meta, a.eng.State())
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("log: %s\n", cfg.LogFile)
	fmt.Printf("Tall %.2f K  Tatoms %.2f K", last.All, last.Atoms)
	if last.HasDrude {
		fmt.Printf("  Tdrude %.2f K", last.Drude)
	}
	fmt.Println()
	return nil
}

func presetName() string {
	if preset != "" {
		return preset
	}
	return "custom"
}

func writePreamble(rep *report.LogReporter, a *assembled) error {
	lines := [][]any{
		{time.Now().Format(time.RFC1123)},
		{len(a.class.CoreIndices), "atoms", len(a.class.AuxIndices), "DP", a.eng.NumConstraints(), "constraints"},
		{"box", a.cfg.Box[0], a.cfg.Box[1], a.cfg.Box[2], "nm"},
		{"running..."},
	}
	for _, l := range lines {
		if err := rep.Comment(l...); err != nil {
			return err
		}
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	a, err := assemble(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rep := tui.NewChannelReporter(ctx)
	a.drv.AddReporter(rep)

	go func() {
		_, err := a.drv.Run(ctx)
		rep.Finish(err)
	}()

	p := tea.NewProgram(tui.NewModel(rep))
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func readLog(cmd *cobra.Command, args []string) error {
	table, err := mdlog.ParseFile(logFile)
	if err != nil {
		return err
	}

	plotPath, err := table.WritePlotFile(logFile)
	if err != nil {
		return err
	}
	fmt.Printf("# wrote %s (%d rows, %d columns)\n", plotPath, len(table.Rows), len(table.Columns))

	rep, err := table.WindowAverage(cut)
	if err != nil {
		return err
	}
	fmt.Print(rep.Format())
	return nil
}

func plotColumn(cmd *cobra.Command, args []string) error {
	table, err := mdlog.ParseFile(logFile)
	if err != nil {
		return err
	}

	idx := -1
	for i, c := range table.Columns {
		if c == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("no column %q (have %v)", column, table.Columns)
	}
	if len(table.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	data := make([]float64, len(table.Rows))
	for i, row := range table.Rows {
		v, err := strconv.ParseFloat(row[idx], 64)
		if err != nil {
			return fmt.Errorf("column %s row %d: %w", column, i, err)
		}
		data[i] = v
	}

	graph := asciigraph.Plot(data,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("%s vs %s", column, mdlog.StepColumn)),
	)
	fmt.Println(graph)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tT(K)\tPARTICLES\tSTEPS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Temperature,
			run.Particles,
			run.Steps,
		)
	}
	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := store.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
