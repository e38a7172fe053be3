// Package assemble runs the stitcher over every registered method and turns
// the resulting program graph into the exported payload.
package assemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/StarCycle/GraphExtract/internal/feature"
	"github.com/StarCycle/GraphExtract/internal/graph"
	"github.com/StarCycle/GraphExtract/internal/registry"
	"github.com/StarCycle/GraphExtract/internal/stitch"
)

// ErrIncompleteCounterIndex is returned when a counter id exceeds the
// configured counter bound.
var ErrIncompleteCounterIndex = errors.New("counter id exceeds counter index bound")

// Options controls an assembly run.
type Options struct {
	// CounterBound sizes the counter index. Zero sizes it to the largest
	// counter id observed; otherwise larger ids fail the run.
	CounterBound int

	// Parallel stitches methods concurrently. Labels then depend on
	// scheduling, so it is off unless reproducible output is not needed.
	Parallel bool
	Workers  int
}

// Result is the outcome of a run.
type Result struct {
	Graph   *graph.Graph
	Payload *Payload
	Labels  map[string]int
	Stats   stitch.Stats
	Methods int
	Bound   int
}

// Assembler orchestrates stitching over a registry.
type Assembler struct {
	logger   *slog.Logger
	registry *registry.Registry
	assigner feature.Assigner
	opts     Options
}

// NewAssembler creates an assembler.
func NewAssembler(logger *slog.Logger, reg *registry.Registry, assigner feature.Assigner, opts Options) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		logger:   logger.With(slog.String("component", "assembler")),
		registry: reg,
		assigner: assigner,
		opts:     opts,
	}
}

// Assemble seeds and stitches every method, then labels the graph and builds
// the payload. Nothing is returned unless the whole graph was built.
func (a *Assembler) Assemble(ctx context.Context) (*Result, error) {
	start := time.Now()
	pg := graph.NewGraph()
	st := stitch.New(a.registry, a.assigner)

	var (
		stats stitch.Stats
		err   error
	)
	if a.opts.Parallel {
		stats, err = a.stitchParallel(ctx, st, pg)
	} else {
		stats, err = a.stitchSequential(ctx, st, pg)
	}
	if err != nil {
		return nil, err
	}
	if err := a.checkPairs(pg); err != nil {
		return nil, err
	}
	pg.Freeze()

	payload, labels, err := BuildPayload(pg, a.opts.CounterBound)
	if err != nil {
		return nil, err
	}

	kinds := pg.KindCounts()
	a.logger.Info("program graph assembled",
		slog.Int("methods", a.registry.Len()),
		slog.Int("nodes", pg.NodeCount()),
		slog.Int("method_nodes", kinds[graph.KindMethod]),
		slog.Int("counted_nodes", kinds[graph.KindCodeCount]),
		slog.Int("edges", pg.EdgeCount()),
		slog.Int("resolved_calls", stats.ResolvedCalls),
		slog.Int("counted_statements", stats.CountedStatements),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &Result{
		Graph:   pg,
		Payload: payload,
		Labels:  labels,
		Stats:   stats,
		Methods: a.registry.Len(),
		Bound:   len(payload.CounterToLabel) - 1,
	}, nil
}

func (a *Assembler) stitchSequential(ctx context.Context, st *stitch.Stitcher, pg *graph.Graph) (stitch.Stats, error) {
	var total stitch.Stats
	for i, m := range a.registry.Methods() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		stats, err := a.stitchMethod(st, pg, m)
		if err != nil {
			return total, err
		}
		total.Add(stats)
		if (i+1)%1000 == 0 {
			a.logger.Debug("stitching", slog.Int("done", i+1), slog.Int("total", a.registry.Len()))
		}
	}
	return total, nil
}

func (a *Assembler) stitchParallel(ctx context.Context, st *stitch.Stitcher, pg *graph.Graph) (stitch.Stats, error) {
	g, ctx := errgroup.WithContext(ctx)
	if a.opts.Workers > 0 {
		g.SetLimit(a.opts.Workers)
	}

	var (
		mu    sync.Mutex
		total stitch.Stats
	)
	for _, m := range a.registry.Methods() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats, err := a.stitchMethod(st, pg, m)
			if err != nil {
				return err
			}
			mu.Lock()
			total.Add(stats)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stitch.Stats{}, err
	}
	return total, nil
}

// stitchMethod seeds the method's own entry and exit, unless a previous pass
// already materialized them as a callee, and stitches its flow graph.
func (a *Assembler) stitchMethod(st *stitch.Stitcher, pg *graph.Graph, m *registry.Method) (stitch.Stats, error) {
	if !pg.HasNode(m.ID) || !pg.HasNode(m.ReturnID) {
		if err := pg.AddMethodPair(stitch.EntryNode(a.assigner, m), stitch.ReturnNode(a.assigner, m)); err != nil {
			return stitch.Stats{}, fmt.Errorf("seed method %s: %w", m.ID, err)
		}
	}
	stats, err := st.Stitch(pg, m.ID)
	if err != nil {
		return stats, fmt.Errorf("stitch method %s (%s): %w", m.ID, m.Name, err)
	}
	return stats, nil
}

// checkPairs verifies every Method node in the graph has its MethodReturn.
func (a *Assembler) checkPairs(pg *graph.Graph) error {
	returnOf := make(map[string]string, a.registry.Len())
	for _, m := range a.registry.Methods() {
		returnOf[m.ID] = m.ReturnID
	}
	if unpaired := pg.UnpairedMethods(returnOf); len(unpaired) > 0 {
		return fmt.Errorf("%w: methods without a return node: %v", graph.ErrInvalidPair, unpaired)
	}
	return nil
}
