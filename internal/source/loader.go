// Package source loads the per-method flow graphs exported by the code
// analysis tool and builds the method registry from them.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/StarCycle/GraphExtract/internal/flow"
	"github.com/StarCycle/GraphExtract/internal/registry"
)

// MinFlowNodes is the smallest local graph that is stitched. Smaller graphs
// are bare declarations (entry and return only).
const MinFlowNodes = 3

// Record is one method of the export. The export uses positional tuple keys.
type Record struct {
	ID         Identity        `json:"_1"`
	ReturnID   Identity        `json:"_2"`
	Name       string          `json:"_3"`
	FileName   string          `json:"_4"`
	LineNumber json.RawMessage `json:"_5"`
	Graphs     []string        `json:"_6"`
}

// Identity accepts both numeric and string ids.
type Identity string

func (id *Identity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = Identity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identity must be a string or number: %s", data)
	}
	*id = Identity(n.String())
	return nil
}

// Summary reports what a load kept and dropped.
type Summary struct {
	Total        int `json:"total"`
	Declarations int `json:"declarations"`
	Registered   int `json:"registered"`
}

// Loader parses an export into a registry.
type Loader struct {
	logger  *slog.Logger
	workers int
}

// NewLoader creates a loader. workers bounds concurrent DOT parsing; zero
// uses the number of CPUs.
func NewLoader(logger *slog.Logger, workers int) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Loader{
		logger:  logger.With(slog.String("component", "loader")),
		workers: workers,
	}
}

// LoadFile loads the export at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*registry.Registry, Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("failed to open methods file: %w", err)
	}
	defer f.Close()
	return l.Load(ctx, f)
}

// Load decodes the export, parses every method graph and registers the
// methods that have a body. Registration follows input order.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*registry.Registry, Summary, error) {
	var records []Record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, Summary{}, fmt.Errorf("failed to decode methods: %w", err)
	}

	graphs, err := l.parseAll(ctx, records)
	if err != nil {
		return nil, Summary{}, err
	}

	reg := registry.New()
	sum := Summary{Total: len(records)}
	for i, rec := range records {
		if graphs[i].Len() < MinFlowNodes {
			sum.Declarations++
			continue
		}
		if err := reg.Register(registry.Method{
			ID:         string(rec.ID),
			Name:       rec.Name,
			ReturnID:   string(rec.ReturnID),
			FileName:   rec.FileName,
			LineNumber: lineNumber(rec.LineNumber),
			Graph:      graphs[i],
		}); err != nil {
			return nil, Summary{}, err
		}
		sum.Registered++
	}

	l.logger.Info("methods loaded",
		slog.Int("total", sum.Total),
		slog.Int("declarations", sum.Declarations),
		slog.Int("registered", sum.Registered),
	)
	return reg, sum, nil
}

func (l *Loader) parseAll(ctx context.Context, records []Record) ([]*flow.Graph, error) {
	graphs := make([]*flow.Graph, len(records))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for i, rec := range records {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(rec.Graphs) == 0 {
				return fmt.Errorf("method %s (%s): no flow graph", rec.ID, rec.Name)
			}
			fg, err := flow.ParseDOT([]byte(rec.Graphs[0]))
			if err != nil {
				return fmt.Errorf("method %s (%s): %w", rec.ID, rec.Name, err)
			}
			graphs[i] = fg
			if (i+1)%500 == 0 {
				l.logger.Debug("parsed method graphs", slog.Int("index", i+1), slog.Int("total", len(records)))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return graphs, nil
}

func lineNumber(raw json.RawMessage) int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
