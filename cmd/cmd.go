// Package cmd provides CLI command implementations for morphnet.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Benny93/morphnet/internal/analysis"
	"github.com/Benny93/morphnet/internal/config"
	"github.com/Benny93/morphnet/internal/formatives"
	"github.com/Benny93/morphnet/internal/graph"
	"github.com/Benny93/morphnet/internal/logging"
	"github.com/Benny93/morphnet/internal/storage"
	"github.com/Benny93/morphnet/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Globals are flags shared by every command.
type Globals struct {
	Config  string `short:"c" type:"path" help:"Config file (default ./morphnet.yaml when present)"`
	DataDir string `short:"d" type:"path" help:"Data directory (overrides config and MORPHNET_DATA_DIR)"`
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Quiet   bool   `short:"q" help:"Only log errors"`
	LogJSON bool   `name:"log-json" help:"Log as JSON"`
}

// env is the resolved runtime environment of a command.
type env struct {
	cfg    *config.Config
	paths  config.Paths
	logger *zap.Logger
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (g *Globals) setup() (*env, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}

	if g.DataDir != "" {
		cfg.DataDir = g.DataDir
	}
	switch {
	case g.Verbose:
		cfg.Log.Level = "debug"
	case g.Quiet:
		cfg.Log.Level = "error"
	}
	if g.LogJSON {
		cfg.Log.JSON = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, paths: cfg.Paths(), logger: logger}, nil
}

// Selection picks the languages, data types and sweep a command works on.
type Selection struct {
	Languages   []string `arg:"" optional:"" help:"Languages to process (default: every language in the raw data dir)"`
	DataTypes   string   `name:"data-types" short:"t" help:"original, typefreq_shuffled, allshuffled or all (default from config)"`
	Resolutions string   `short:"r" help:"Resolution sweep as min:max:step (default from config)"`
	Seed        *int64   `short:"s" help:"Random seed for simulation and clustering (default from config)"`
	Workers     *int     `short:"w" help:"Concurrent resolutions (0 uses every CPU)"`
}

// apply overlays the selection flags onto the configuration.
func (s *Selection) apply(cfg *config.Config) error {
	if s.DataTypes != "" {
		cfg.DataTypes = s.DataTypes
	}
	if s.Seed != nil {
		cfg.Seed = *s.Seed
	}
	if s.Workers != nil {
		cfg.Workers = *s.Workers
	}
	if s.Resolutions != "" {
		res, err := parseResolutions(s.Resolutions)
		if err != nil {
			return err
		}
		cfg.Resolution = res
	}
	return cfg.Validate()
}

// parseResolutions parses "min:max:step".
func parseResolutions(value string) (config.ResolutionConfig, error) {
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return config.ResolutionConfig{}, fmt.Errorf("resolutions %q: want min:max:step", value)
	}
	var vals [3]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return config.ResolutionConfig{}, fmt.Errorf("resolutions %q: %w", value, err)
		}
		vals[i] = v
	}
	return config.ResolutionConfig{Min: vals[0], Max: vals[1], Step: vals[2]}, nil
}

// languages resolves the selected languages against the raw data dir.
func (s *Selection) languages(paths config.Paths) ([]string, error) {
	if len(s.Languages) == 0 {
		langs, err := formatives.DiscoverLanguages(paths.RawDir())
		if err != nil {
			return nil, err
		}
		if len(langs) == 0 {
			return nil, fmt.Errorf("no *%s files in %s", formatives.FileSuffix, paths.RawDir())
		}
		return langs, nil
	}
	for _, lang := range s.Languages {
		if err := formatives.ValidateLanguage(paths.RawDir(), lang); err != nil {
			return nil, err
		}
	}
	return s.Languages, nil
}

// runSteps runs the pipeline for the selection and writes run metadata.
func runSteps(ctx context.Context, g *Globals, sel *Selection, steps []analysis.Step) (*analysis.PipelineResult, *env, error) {
	e, err := g.setup()
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = e.logger.Sync() }()

	if err := sel.apply(e.cfg); err != nil {
		return nil, nil, err
	}
	languages, err := sel.languages(e.paths)
	if err != nil {
		return nil, nil, err
	}
	result, err := runPipeline(ctx, e, languages, steps)
	return result, e, err
}

// runPipeline builds a pipeline from the environment and runs it, opening the
// graph store when the steps need one.
func runPipeline(ctx context.Context, e *env, languages []string, steps []analysis.Step) (*analysis.PipelineResult, error) {
	var store storage.GraphStore
	if needsStore(steps) {
		bs, err := openGraphStore(e.paths)
		if err != nil {
			return nil, err
		}
		defer func() { _ = bs.Close() }()
		store = bs
	}
	return runPipelineWith(ctx, e, store, languages, steps)
}

// openGraphStore opens the graph store for writing.
func openGraphStore(paths config.Paths) (*storage.BadgerStore, error) {
	if err := os.MkdirAll(paths.GraphsDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating graphs directory: %w", err)
	}
	store := storage.NewBadgerStore()
	if err := store.Initialize(paths.GraphsDir(), false); err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}
	return store, nil
}

// runPipelineWith runs the pipeline against an already open store.
func runPipelineWith(ctx context.Context, e *env, store storage.GraphStore, languages []string, steps []analysis.Step) (*analysis.PipelineResult, error) {
	dataTypes, err := formatives.ParseDataTypes(e.cfg.DataTypes)
	if err != nil {
		return nil, err
	}
	sweep, err := analysis.Sweep(e.cfg.Resolution.Min, e.cfg.Resolution.Max, e.cfg.Resolution.Step)
	if err != nil {
		return nil, err
	}

	detector := analysis.NewDetector(e.cfg.Seed, e.logger)
	detector.Clusterer = analysis.Louvain{
		Threshold: e.cfg.Louvain.Threshold,
		MaxLevels: e.cfg.Louvain.MaxLevels,
	}
	detector.Workers = e.cfg.Workers

	p := &analysis.Pipeline{
		Paths:    e.paths,
		Store:    store,
		Detector: detector,
		Sweep:    sweep,
		Seed:     e.cfg.Seed,
		Logger:   e.logger,
	}

	result, err := p.Run(ctx, languages, dataTypes, steps)
	if err != nil {
		return result, fmt.Errorf("running pipeline: %w", err)
	}

	meta := result.Meta(dataTypes, steps, sweep, e.cfg.Seed)
	meta.Version = Version
	if err := storage.SaveRunMeta(e.paths.MetaFile(), meta); err != nil {
		return result, fmt.Errorf("writing meta.json: %w", err)
	}
	return result, nil
}

func needsStore(steps []analysis.Step) bool {
	for _, s := range steps {
		if s == analysis.StepGraphs || s == analysis.StepCommunity {
			return true
		}
	}
	return false
}

// printSummary prints the outcome of a pipeline run.
func printSummary(result *analysis.PipelineResult) {
	if len(result.Failures) == 0 {
		color.Green("\n✓ Processed %d language(s)", len(result.Languages))
	} else {
		color.Yellow("\n⚠ Processed %d language(s) with %d failure(s)", len(result.Languages), len(result.Failures))
	}

	for _, ds := range result.Datasets {
		fmt.Printf("  %-32s", ds.Dataset())
		if ds.Nodes > 0 {
			fmt.Printf(" nodes %-6d edges %-6d", ds.Nodes, ds.Edges)
		}
		if len(ds.Communities) > 0 {
			fmt.Printf(" resolutions %d", len(ds.Communities))
		}
		if len(ds.Hierarchy) > 0 {
			fmt.Printf(" pairs %d", len(ds.Hierarchy))
		}
		fmt.Println()
	}

	for _, f := range result.Failures {
		color.Red("  ✗ %s", f.String())
	}
	fmt.Printf("  Run:       %s\n", result.RunID)
	fmt.Printf("  Duration:  %.2fs\n", result.DurationSecs)
}

// failed turns recorded failures into a command error.
func failed(result *analysis.PipelineResult) error {
	if len(result.Failures) == 0 {
		return nil
	}
	return fmt.Errorf("%d step(s) failed", len(result.Failures))
}

// LoadCmd loads raw formatives tables and reports their shape.
type LoadCmd struct {
	Languages []string `arg:"" optional:"" help:"Languages to load (default: every language in the raw data dir)"`
}

// Run executes the load command.
func (c *LoadCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	sel := Selection{Languages: c.Languages}
	languages, err := sel.languages(e.paths)
	if err != nil {
		return err
	}

	var errs []error
	for _, lang := range languages {
		t, err := formatives.Load(e.paths.RawFile(lang))
		if err != nil {
			color.Red("✗ %s: %v", lang, err)
			errs = append(errs, err)
			continue
		}

		summary := t.Summarize()
		color.Green("✓ %s", lang)
		fmt.Printf("  Lexemes:  %d\n", summary.Lexemes)
		fmt.Printf("  Columns:  %d\n", len(summary.Columns))
		for _, col := range summary.Columns {
			if n := summary.Missing[col]; n > 0 {
				fmt.Printf("    %-16s %d missing\n", col, n)
			}
		}
	}
	return errors.Join(errs...)
}

// SimulateCmd writes the null-model tables.
type SimulateCmd struct {
	Selection `embed:""`
}

// Run executes the simulate command.
func (c *SimulateCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	result, _, err := runSteps(ctx, g, &c.Selection, []analysis.Step{analysis.StepLoad, analysis.StepSimulate})
	if err != nil {
		return err
	}
	printSummary(result)
	return failed(result)
}

// BuildCmd builds and stores the bipartite graphs.
type BuildCmd struct {
	Selection `embed:""`
}

// Run executes the build command.
func (c *BuildCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	result, e, err := runSteps(ctx, g, &c.Selection, []analysis.Step{analysis.StepGraphs})
	if err != nil {
		return err
	}
	printSummary(result)

	if len(result.Datasets) > 0 {
		if err := printProjections(ctx, e.paths, result.Datasets); err != nil {
			return err
		}
	}
	return failed(result)
}

// printProjections reports the lexeme projection size of each built graph.
func printProjections(ctx context.Context, paths config.Paths, datasets []analysis.DatasetResult) error {
	store := storage.NewBadgerStore()
	if err := store.Initialize(paths.GraphsDir(), true); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	fmt.Println("\nLexeme projections:")
	for _, ds := range datasets {
		g, err := store.LoadGraph(ctx, ds.Dataset())
		if err != nil {
			return err
		}
		proj := graph.ProjectLexemes(g)
		fmt.Printf("  %-32s lexemes %-6d links %d\n", ds.Dataset(), len(proj.Lexemes), len(proj.Edges))
	}
	return nil
}

// DetectCmd runs community detection over the resolution sweep.
type DetectCmd struct {
	Selection `embed:""`
}

// Run executes the detect command.
func (c *DetectCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	result, _, err := runSteps(ctx, g, &c.Selection, []analysis.Step{analysis.StepCommunity})
	if err != nil {
		return err
	}
	printSummary(result)
	return failed(result)
}

// HierarchyCmd analyzes nesting between adjacent resolutions.
type HierarchyCmd struct {
	Selection `embed:""`
}

// Run executes the hierarchy command.
func (c *HierarchyCmd) Run(g *Globals) error {
	ctx, stop := signalContext()
	defer stop()

	result, _, err := runSteps(ctx, g, &c.Selection, []analysis.Step{analysis.StepHierarchy})
	if err != nil {
		return err
	}
	printSummary(result)

	for _, ds := range result.Datasets {
		fmt.Printf("\n## %s\n", ds.Dataset())
		for _, row := range ds.Hierarchy {
			fmt.Printf("  %-12s %-36s %4d %4d\n", row.Pair, row.Average, row.NCommsUpper, row.NCommsLower)
		}
	}
	return failed(result)
}

// RunCmd runs the full pipeline or a subset of its steps.
type RunCmd struct {
	Selection `embed:""`

	Steps []string `help:"Steps to run: load, simulate, graphs, community, hierarchy (default: all)"`
}

// Run executes the run command.
func (c *RunCmd) Run(g *Globals) error {
	steps, err := analysis.ParseSteps(c.Steps)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	result, _, err := runSteps(ctx, g, &c.Selection, steps)
	if err != nil {
		return err
	}
	printSummary(result)
	return failed(result)
}

// WatchCmd re-runs the pipeline when raw formatives files change.
type WatchCmd struct {
	Selection `embed:""`
}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	if err := c.apply(e.cfg); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	fmt.Println("## Watch Mode")
	fmt.Printf("Watching %s for changes (Ctrl+C to stop)\n\n", e.paths.RawDir())

	handle := func(ctx context.Context, languages []string) error {
		result, err := rerun(ctx, e, nil, c.Languages, languages)
		if err != nil || result == nil {
			return err
		}
		printSummary(result)
		return nil
	}

	err = analysis.WatchFormatives(ctx, e.paths.RawDir(), analysis.DefaultDebounce, handle, e.logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("watch error: %w", err)
	}

	fmt.Println("Watch mode stopped.")
	return nil
}

// rerun runs every step for the changed languages, limited to selected when
// it is not empty. A nil store opens one for the run. It returns a nil result
// when no selected language changed.
func rerun(ctx context.Context, e *env, store storage.GraphStore, selected, changed []string) (*analysis.PipelineResult, error) {
	languages := changed
	if len(selected) > 0 {
		languages = intersect(changed, selected)
		if len(languages) == 0 {
			return nil, nil
		}
	}
	if store == nil {
		return runPipeline(ctx, e, languages, analysis.AllSteps)
	}
	return runPipelineWith(ctx, e, store, languages, analysis.AllSteps)
}

func intersect(a, b []string) []string {
	keep := make(map[string]bool, len(b))
	for _, s := range b {
		keep[s] = true
	}
	var out []string
	for _, s := range a {
		if keep[s] {
			out = append(out, s)
		}
	}
	return out
}

// MCPCmd starts the MCP server.
type MCPCmd struct{}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	ctx, stop := signalContext()
	defer stop()

	var graphs mcp.GraphReader
	if _, err := os.Stat(e.paths.GraphsDir()); err == nil {
		store := storage.NewBadgerStore()
		if err := store.Initialize(e.paths.GraphsDir(), true); err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		defer func() { _ = store.Close() }()
		graphs = store
	}

	mcp.Version = Version
	server := mcp.NewServer(graphs, e.paths, e.logger)

	// stdout carries JSON-RPC only; logs go to stderr.
	err = server.Run(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ServeCmd starts the MCP server with optional watch mode.
type ServeCmd struct {
	Selection `embed:""`

	Watch bool `help:"Re-run the pipeline when formatives change"`
}

// Run executes the serve command.
func (c *ServeCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	if err := c.apply(e.cfg); err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	return c.serve(ctx, e, os.Stdin, os.Stdout)
}

// serve runs the MCP server on stdin and stdout and, with Watch set, the
// formatives watcher alongside it. Both stop when either returns.
func (c *ServeCmd) serve(ctx context.Context, e *env, stdin io.Reader, stdout io.Writer) error {
	store, err := openGraphStore(e.paths)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	mcp.Version = Version
	server := mcp.NewServer(store, e.paths, e.logger)

	group, gctx := errgroup.WithContext(ctx)
	gctx, cancel := context.WithCancel(gctx)
	defer cancel()

	if c.Watch {
		e.logger.Info("starting MCP server with watch mode", zap.String("dir", e.paths.RawDir()))
		group.Go(func() error {
			handle := func(ctx context.Context, languages []string) error {
				result, err := rerun(ctx, e, store, c.Languages, languages)
				if err != nil || result == nil {
					return err
				}
				e.logger.Info("pipeline re-run",
					zap.Strings("languages", result.Languages),
					zap.Int("datasets", len(result.Datasets)),
					zap.Int("failures", len(result.Failures)))
				return nil
			}
			err := analysis.WatchFormatives(gctx, e.paths.RawDir(), analysis.DefaultDebounce, handle, e.logger)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		e.logger.Info("starting MCP server")
	}

	group.Go(func() error {
		// The watcher stops once the client goes away.
		defer cancel()
		return server.Run(gctx, stdin, stdout)
	})

	err = group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SetupCmd writes MCP client configuration that launches morphnet.
type SetupCmd struct {
	Claude   bool   `help:"Configure for Claude Code"`
	Cursor   bool   `help:"Configure for Cursor"`
	Qwen     bool   `help:"Configure for Qwen CLI"`
	Global   bool   `help:"Write to the home directory instead of the current one"`
	Watch    bool   `default:"true" negatable:"" help:"Launch the server with watch mode"`
	FilePath string `name:"file-path" type:"path" help:"Directory to write the config file to"`
}

// Run executes the setup command.
func (c *SetupCmd) Run(g *Globals) error {
	cfg := mcpClientConfig(g.DataDir, c.Watch)

	var clients []string
	if c.Claude {
		clients = append(clients, "claude")
	}
	if c.Cursor {
		clients = append(clients, "cursor")
	}
	if c.Qwen {
		clients = append(clients, "qwen")
	}
	if len(clients) == 0 {
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	base := "."
	if c.Global {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locating home directory: %w", err)
		}
		base = home
	}

	for _, client := range clients {
		path := filepath.Join(base, "."+client, "mcp.json")
		if c.FilePath != "" {
			path = filepath.Join(c.FilePath, client+".mcp.json")
		}
		if err := writeClientConfig(path, cfg); err != nil {
			return err
		}
		color.Green("✓ Wrote %s MCP config to %s", client, path)
	}
	return nil
}

// mcpClientConfig returns the mcpServers entry that starts "morphnet serve".
func mcpClientConfig(dataDir string, watch bool) map[string]any {
	args := []string{"serve"}
	if watch {
		args = append(args, "--watch")
	}
	if dataDir != "" {
		if abs, err := filepath.Abs(dataDir); err == nil {
			dataDir = abs
		}
		args = append(args, "--data-dir", dataDir)
	}
	return map[string]any{
		"mcpServers": map[string]any{
			"morphnet": map[string]any{
				"command": "morphnet",
				"args":    args,
			},
		},
	}
}

func writeClientConfig(path string, cfg map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// StatusCmd shows the data directory and the last pipeline run.
type StatusCmd struct{}

// Run executes the status command.
func (c *StatusCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	fmt.Printf("Status for %s\n", e.paths.Root)

	languages, err := formatives.DiscoverLanguages(e.paths.RawDir())
	if err != nil {
		color.Yellow("  No raw formatives at %s", e.paths.RawDir())
	} else {
		fmt.Printf("  Languages:      %s\n", strings.Join(languages, ", "))
	}

	if _, err := os.Stat(e.paths.GraphsDir()); err == nil {
		store := storage.NewBadgerStore()
		if err := store.Initialize(e.paths.GraphsDir(), true); err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		defer func() { _ = store.Close() }()

		infos, err := store.ListGraphs(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("  Graphs:         %d\n", len(infos))
		for _, info := range infos {
			fmt.Printf("    %-30s %d lexemes, %d exponents, %d edges\n", info.Dataset, info.Lexemes, info.Exponents, info.Edges)
		}
	}

	meta, err := storage.LoadRunMeta(e.paths.MetaFile())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Println("  No pipeline run recorded. Run 'morphnet run' first.")
			return nil
		}
		return err
	}

	fmt.Printf("  Version:        %s\n", meta.Version)
	fmt.Printf("  Last run:       %s (%s)\n", meta.FinishedAt.Format("2006-01-02 15:04:05"), meta.RunID)
	fmt.Printf("  Steps:          %s\n", strings.Join(meta.Steps, ", "))
	fmt.Printf("  Datasets:       %d\n", len(meta.Datasets))
	fmt.Printf("  Seed:           %d\n", meta.Seed)
	if len(meta.Failures) > 0 {
		color.Red("  Failures:       %d", len(meta.Failures))
		for _, f := range meta.Failures {
			fmt.Printf("    %s\n", f)
		}
	}
	return nil
}

// CleanCmd deletes generated data, keeping the raw formatives.
type CleanCmd struct {
	Force bool `short:"f" help:"Skip confirmation"`
}

// Run executes the clean command.
func (c *CleanCmd) Run(g *Globals) error {
	e, err := g.setup()
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	var targets []string
	for _, dir := range []string{e.paths.SimulatedDir(), e.paths.GraphsDir(), e.paths.CommunitiesDir(), e.paths.HierarchyDir(), e.paths.MetaFile()} {
		if _, err := os.Stat(dir); err == nil {
			targets = append(targets, dir)
		}
	}
	if len(targets) == 0 {
		fmt.Printf("Nothing to clean in %s\n", e.paths.Root)
		return nil
	}

	if !c.Force {
		fmt.Printf("Delete generated data in %s? [y/N] ", e.paths.Root)
		var response string
		_, _ = fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted")
			return nil
		}
	}

	for _, target := range targets {
		if err := os.RemoveAll(target); err != nil {
			return fmt.Errorf("deleting %s: %w", target, err)
		}
		color.Green("Deleted %s", target)
	}
	return nil
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// CLI is the root Kong command structure.
type CLI struct {
	Globals

	Version kong.VersionFlag `help:"Show version information"`

	// Commands
	Load      LoadCmd      `cmd:"" help:"Load raw formatives and report their shape"`
	Simulate  SimulateCmd  `cmd:"" help:"Write type-frequency and full shuffle null models"`
	Build     BuildCmd     `cmd:"" help:"Build lexeme-exponent graphs"`
	Detect    DetectCmd    `cmd:"" help:"Detect communities across the resolution sweep"`
	Hierarchy HierarchyCmd `cmd:"" help:"Measure community nesting between adjacent resolutions"`
	Run       RunCmd       `cmd:"" help:"Run the full pipeline"`
	Watch     WatchCmd     `cmd:"" help:"Re-run the pipeline when formatives change"`
	MCP       MCPCmd       `cmd:"" help:"Start MCP server (stdio transport)"`
	Serve     ServeCmd     `cmd:"" help:"Start MCP server with optional watch mode"`
	Setup     SetupCmd     `cmd:"" help:"Write MCP client configuration"`
	Status    StatusCmd    `cmd:"" help:"Show data directory and last run"`
	Clean     CleanCmd     `cmd:"" help:"Delete generated data"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

// Execute parses command-line arguments and executes the selected command.
func (c *CLI) Execute(args []string) error {
	parser, err := kong.New(c,
		kong.Name("morphnet"),
		kong.Description("Community structure of inflectional morphology"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)
	if err != nil {
		return err
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}
	return kongCtx.Run(&c.Globals)
}
