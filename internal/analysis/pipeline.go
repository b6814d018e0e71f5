package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Benny93/morphnet/internal/config"
	"github.com/Benny93/morphnet/internal/formatives"
	"github.com/Benny93/morphnet/internal/graph"
	"github.com/Benny93/morphnet/internal/storage"
)

// Step is one stage of the pipeline.
type Step string

const (
	StepLoad      Step = "load"
	StepSimulate  Step = "simulate"
	StepGraphs    Step = "graphs"
	StepCommunity Step = "community"
	StepHierarchy Step = "hierarchy"
)

// AllSteps lists the steps in execution order.
var AllSteps = []Step{StepLoad, StepSimulate, StepGraphs, StepCommunity, StepHierarchy}

// ParseSteps resolves step names; an empty list selects every step. The
// result is in execution order.
func ParseSteps(names []string) ([]Step, error) {
	if len(names) == 0 {
		return append([]Step{}, AllSteps...), nil
	}

	want := make(map[Step]bool, len(names))
	for _, n := range names {
		s := Step(strings.ToLower(strings.TrimSpace(n)))
		if !s.valid() {
			return nil, fmt.Errorf("unknown step %q (want load, simulate, graphs, community or hierarchy)", n)
		}
		want[s] = true
	}

	steps := make([]Step, 0, len(want))
	for _, s := range AllSteps {
		if want[s] {
			steps = append(steps, s)
		}
	}
	return steps, nil
}

func (s Step) valid() bool {
	for _, known := range AllSteps {
		if s == known {
			return true
		}
	}
	return false
}

// ProgressCallback is called with a phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// Pipeline runs load, simulate, graphs, community and hierarchy for a set of
// languages and data types. A failure is recorded and the pipeline moves on
// to the next language or data type.
type Pipeline struct {
	Paths    config.Paths
	Store    storage.GraphStore
	Loader   Loader
	Detector *Detector
	Sweep    []float64
	Seed     int64
	Logger   *zap.Logger
	Progress ProgressCallback

	// RunID tags stored graphs and log lines. Empty generates a UUID.
	RunID string
}

// Failure records a step that failed for one language and data type.
type Failure struct {
	Language string
	DataType formatives.DataType
	Step     Step
	Err      error
}

func (f Failure) String() string {
	if f.DataType == "" {
		return fmt.Sprintf("%s %s: %v", f.Language, f.Step, f.Err)
	}
	return fmt.Sprintf("%s/%s %s: %v", f.Language, f.DataType, f.Step, f.Err)
}

// DatasetResult summarizes one processed language and data type.
type DatasetResult struct {
	Language string
	DataType formatives.DataType
	Nodes    int
	Edges    int

	// Communities counts communities per resolution.
	Communities map[float64]int

	// Hierarchy holds the report rows, one per adjacent resolution pair.
	Hierarchy []storage.HierarchyRow
}

// Dataset returns the storage key of the result.
func (d DatasetResult) Dataset() string {
	return storage.DatasetKey(d.Language, string(d.DataType))
}

// PipelineResult summarizes a pipeline run.
type PipelineResult struct {
	RunID        string
	Languages    []string
	Datasets     []DatasetResult
	Failures     []Failure
	StartedAt    time.Time
	DurationSecs float64
}

// Meta converts the result into persisted run metadata.
func (r *PipelineResult) Meta(dataTypes []formatives.DataType, steps []Step, sweep []float64, seed int64) storage.RunMeta {
	meta := storage.RunMeta{
		RunID:       r.RunID,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.StartedAt.Add(time.Duration(r.DurationSecs * float64(time.Second))),
		Languages:   r.Languages,
		Resolutions: sweep,
		Seed:        seed,
	}
	for _, dt := range dataTypes {
		meta.DataTypes = append(meta.DataTypes, string(dt))
	}
	for _, s := range steps {
		meta.Steps = append(meta.Steps, string(s))
	}
	for _, d := range r.Datasets {
		meta.Datasets = append(meta.Datasets, d.Dataset())
	}
	for _, f := range r.Failures {
		meta.Failures = append(meta.Failures, f.String())
	}
	return meta
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

func (p *Pipeline) progress(phase string, v float64) {
	if p.Progress != nil {
		p.Progress(phase, v)
	}
}

func (p *Pipeline) loader() Loader {
	if p.Loader == nil {
		return formatives.CSVLoader{}
	}
	return p.Loader
}

func (p *Pipeline) detector() *Detector {
	if p.Detector == nil {
		return NewDetector(p.Seed, p.logger())
	}
	return p.Detector
}

// Run executes steps for every language and data type. It only returns an
// error when ctx is cancelled or the pipeline is misconfigured; per-dataset
// failures are listed in the result.
func (p *Pipeline) Run(ctx context.Context, languages []string, dataTypes []formatives.DataType, steps []Step) (*PipelineResult, error) {
	if p.RunID == "" {
		p.RunID = uuid.NewString()
	}
	if err := ValidateSweep(p.Sweep); err != nil {
		return nil, err
	}

	selected := make(map[Step]bool, len(steps))
	for _, s := range steps {
		selected[s] = true
	}
	if selected[StepGraphs] && p.Store == nil {
		return nil, fmt.Errorf("graphs step needs a graph store")
	}
	if selected[StepCommunity] && !selected[StepGraphs] && p.Store == nil {
		return nil, fmt.Errorf("community step needs a graph store to load graphs from")
	}

	logger := p.logger().With(zap.String("run_id", p.RunID))
	result := &PipelineResult{
		RunID:     p.RunID,
		Languages: languages,
		StartedAt: time.Now().UTC(),
	}

	logger.Info("pipeline started",
		zap.Strings("languages", languages),
		zap.Int("resolutions", len(p.Sweep)),
		zap.Int64("seed", p.Seed))

	for i, lang := range languages {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		p.progress("Processing "+lang, float64(i)/float64(len(languages)))

		langLogger := logger.With(zap.String("language", lang))
		if failure := p.prepareLanguage(lang, dataTypes, selected, langLogger); failure != nil {
			langLogger.Error("language skipped", zap.String("step", string(failure.Step)), zap.Error(failure.Err))
			result.Failures = append(result.Failures, *failure)
			continue
		}

		if !selected[StepGraphs] && !selected[StepCommunity] && !selected[StepHierarchy] {
			continue
		}
		for _, dt := range dataTypes {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			dsLogger := langLogger.With(zap.String("data_type", string(dt)))
			ds, failure := p.runDataset(ctx, lang, dt, selected, dsLogger)
			if failure != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				dsLogger.Error("dataset failed", zap.String("step", string(failure.Step)), zap.Error(failure.Err))
				result.Failures = append(result.Failures, *failure)
				continue
			}
			result.Datasets = append(result.Datasets, ds)
		}
	}

	p.progress("Done", 1.0)
	result.DurationSecs = time.Since(result.StartedAt).Seconds()
	logger.Info("pipeline finished",
		zap.Int("datasets", len(result.Datasets)),
		zap.Int("failures", len(result.Failures)),
		zap.Float64("duration_secs", result.DurationSecs))
	return result, nil
}

// prepareLanguage runs the per-language steps: load and simulate.
func (p *Pipeline) prepareLanguage(lang string, dataTypes []formatives.DataType, selected map[Step]bool, logger *zap.Logger) *Failure {
	if !selected[StepLoad] && !selected[StepSimulate] {
		return nil
	}

	start := time.Now()
	table, err := p.loader().Load(p.Paths.RawFile(lang))
	if err != nil {
		return &Failure{Language: lang, Step: StepLoad, Err: err}
	}

	summary := table.Summarize()
	logger.Info("formatives loaded",
		zap.Int("lexemes", summary.Lexemes),
		zap.Int("columns", len(summary.Columns)),
		zap.Any("missing", summary.Missing),
		zap.Duration("duration", time.Since(start)))

	if !selected[StepSimulate] {
		return nil
	}

	typeFreq, all := formatives.Simulate(table, p.Seed)
	simulated := map[formatives.DataType]*formatives.Table{
		formatives.TypeFreqShuffled: typeFreq,
		formatives.AllShuffled:      all,
	}
	for _, dt := range dataTypes {
		t, ok := simulated[dt]
		if !ok {
			continue
		}
		path := p.Paths.SimulatedFile(lang, dt)
		if err := formatives.Save(path, t); err != nil {
			return &Failure{Language: lang, DataType: dt, Step: StepSimulate, Err: err}
		}
		logger.Info("null model written", zap.String("data_type", string(dt)), zap.String("path", path))
	}
	return nil
}

// runDataset runs graphs, community and hierarchy for one data type.
func (p *Pipeline) runDataset(ctx context.Context, lang string, dt formatives.DataType, selected map[Step]bool, logger *zap.Logger) (DatasetResult, *Failure) {
	ds := DatasetResult{Language: lang, DataType: dt}
	dataset := ds.Dataset()
	fail := func(step Step, err error) (DatasetResult, *Failure) {
		return ds, &Failure{Language: lang, DataType: dt, Step: step, Err: err}
	}

	var g *graph.BipartiteGraph
	if selected[StepGraphs] {
		start := time.Now()
		var err error
		g, err = BuildFromFile(p.Paths.InputFile(lang, dt), p.loader())
		if err != nil {
			return fail(StepGraphs, err)
		}
		if _, err := p.Store.SaveGraph(ctx, dataset, g, p.RunID); err != nil {
			return fail(StepGraphs, err)
		}
		ds.Nodes, ds.Edges = g.NodeCount(), g.EdgeCount()
		logger.Info("graph built",
			zap.Int("nodes", ds.Nodes),
			zap.Int("edges", ds.Edges),
			zap.Duration("duration", time.Since(start)))
	}

	var communities graph.CommunityMap
	if selected[StepCommunity] {
		start := time.Now()
		if g == nil {
			var err error
			g, err = p.Store.LoadGraph(ctx, dataset)
			if err != nil {
				return fail(StepCommunity, err)
			}
			ds.Nodes, ds.Edges = g.NodeCount(), g.EdgeCount()
		}

		var err error
		communities, err = p.detector().Detect(ctx, g, p.Sweep)
		if err != nil {
			return fail(StepCommunity, err)
		}
		if err := storage.SavePartitions(p.Paths.CommunitiesFile(lang, dt), communities); err != nil {
			return fail(StepCommunity, err)
		}

		ds.Communities = make(map[float64]int, len(communities))
		for r, c := range communities {
			ds.Communities[r] = len(c)
		}
		logger.Info("communities detected",
			zap.Int("resolutions", len(communities)),
			zap.Duration("duration", time.Since(start)))
	}

	if selected[StepHierarchy] {
		start := time.Now()
		if communities == nil {
			var err error
			communities, err = storage.LoadPartitions(p.Paths.CommunitiesFile(lang, dt))
			if err != nil {
				return fail(StepHierarchy, err)
			}
		}

		coeffs, err := Analyze(communities, p.Sweep)
		if err != nil {
			return fail(StepHierarchy, err)
		}
		ds.Hierarchy = Report(coeffs, communities)
		if err := storage.SaveHierarchyReport(p.Paths.HierarchyFile(lang, dt), ds.Hierarchy); err != nil {
			return fail(StepHierarchy, err)
		}
		logger.Info("hierarchy analyzed",
			zap.Int("pairs", len(ds.Hierarchy)),
			zap.Duration("duration", time.Since(start)))
	}

	return ds, nil
}
