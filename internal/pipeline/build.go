// Package pipeline runs the end-to-end stages behind the CLI commands.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/StarCycle/GraphExtract/internal/assemble"
	"github.com/StarCycle/GraphExtract/internal/config"
	"github.com/StarCycle/GraphExtract/internal/feature"
	"github.com/StarCycle/GraphExtract/internal/registry"
	"github.com/StarCycle/GraphExtract/internal/render"
	"github.com/StarCycle/GraphExtract/internal/source"
	"github.com/StarCycle/GraphExtract/internal/storage"
)

// Build loads a method export, stitches the program graph and writes the
// configured outputs. No output is written unless assembly succeeds.
type Build struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
}

// BuildReport is what a finished build produced.
type BuildReport struct {
	Result  *assemble.Result
	Summary source.Summary
	RunID   string
	Written []string
}

func NewBuild(cfg *config.Config, logger *slog.Logger) *Build {
	if logger == nil {
		logger = slog.Default()
	}
	return &Build{Config: cfg, Logger: logger, Out: os.Stdout}
}

func (b *Build) Run(ctx context.Context) (*BuildReport, error) {
	start := time.Now()

	reg, sum, err := b.loadStage(ctx)
	if err != nil {
		return nil, err
	}

	assigner, err := b.featureStage(ctx)
	if err != nil {
		return nil, err
	}

	res, err := b.assembleStage(ctx, reg, assigner)
	if err != nil {
		return nil, err
	}

	report := &BuildReport{Result: res, Summary: sum}
	if err := b.outputStage(res, report); err != nil {
		return nil, err
	}
	if err := b.persistStage(ctx, res, report); err != nil {
		return nil, err
	}

	fmt.Fprintf(b.Out, "🎉 Build complete in %v.\n", time.Since(start).Round(time.Millisecond))
	return report, nil
}

func (b *Build) loadStage(ctx context.Context) (*registry.Registry, source.Summary, error) {
	path := b.Config.Input.Methods
	fmt.Fprintf(b.Out, "📥 Loading methods from %s...\n", path)

	loader := source.NewLoader(b.Logger, b.Config.Input.Workers)
	reg, sum, err := loader.LoadFile(ctx, path)
	if err != nil {
		return nil, source.Summary{}, fmt.Errorf("failed to load methods: %w", err)
	}
	fmt.Fprintf(b.Out, "  -> %d methods registered, %d declarations skipped\n", sum.Registered, sum.Declarations)
	return reg, sum, nil
}

func (b *Build) featureStage(ctx context.Context) (feature.Assigner, error) {
	strategy := strings.ToLower(b.Config.Features.Strategy)
	if strategy != feature.StrategyEmbedding {
		return feature.New(strategy, nil)
	}

	table, err := loadTable(ctx, b.Config)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(b.Out, "🧠 Using embedding features (%d words, width %d)\n", table.Len(), table.Dim())
	return feature.New(strategy, table)
}

func (b *Build) assembleStage(ctx context.Context, reg *registry.Registry, assigner feature.Assigner) (*assemble.Result, error) {
	fmt.Fprintln(b.Out, "🔗 Stitching program graph...")
	a := assemble.NewAssembler(b.Logger, reg, assigner, assemble.Options{
		CounterBound: b.Config.Input.CounterBound,
		Parallel:     b.Config.Input.Parallel,
		Workers:      b.Config.Input.Workers,
	})
	res, err := a.Assemble(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble program graph: %w", err)
	}
	fmt.Fprintf(b.Out, "✅ %d nodes, %d edges, counter index of %d\n", res.Graph.NodeCount(), res.Graph.EdgeCount(), res.Bound)
	fmt.Fprintf(b.Out, "  -> %d calls resolved, %d unresolved\n", res.Stats.ResolvedCalls, res.Stats.UnresolvedCalls)
	return res, nil
}

func (b *Build) outputStage(res *assemble.Result, report *BuildReport) error {
	out := b.Config.Output
	if out.JSON != "" {
		if err := ensureDir(out.JSON); err != nil {
			return err
		}
		if err := assemble.WritePayload(out.JSON, res.Payload); err != nil {
			return fmt.Errorf("failed to write payload: %w", err)
		}
		report.Written = append(report.Written, out.JSON)
	}

	if out.DOT != "" {
		data, err := render.DOT(res.Graph, "program")
		if err != nil {
			return err
		}
		if err := writeFile(out.DOT, data); err != nil {
			return err
		}
		report.Written = append(report.Written, out.DOT)
	}

	if out.Mermaid != "" {
		if err := writeFile(out.Mermaid, []byte(render.Mermaid(res.Graph))); err != nil {
			return err
		}
		report.Written = append(report.Written, out.Mermaid)
	}

	for _, path := range report.Written {
		fmt.Fprintf(b.Out, "💾 Wrote %s\n", path)
	}
	return nil
}

func (b *Build) persistStage(ctx context.Context, res *assemble.Result, report *BuildReport) error {
	if b.Config.Output.DB == "" {
		return nil
	}
	store, err := storage.NewSQLiteStore(b.Config.Output.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	runID, err := store.SaveRun(ctx, res)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	report.RunID = runID
	fmt.Fprintf(b.Out, "💾 Saved run %s to %s\n", runID, b.Config.Output.DB)
	return nil
}

// loadTable reads the vector table from the configured SQLite store, or
// from the word2vec text file.
func loadTable(ctx context.Context, cfg *config.Config) (*feature.Table, error) {
	if cfg.Features.DB != "" {
		store, err := storage.NewSQLiteStore(cfg.Features.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector store: %w", err)
		}
		defer store.Close()
		return store.LoadVectors(ctx)
	}

	f, err := os.Open(cfg.Features.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector table: %w", err)
	}
	defer f.Close()
	return feature.ReadTable(f)
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

func writeFile(path string, data []byte) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
