// Package storage persists assembled runs and vocabulary vector tables.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/StarCycle/GraphExtract/internal/assemble"
	"github.com/StarCycle/GraphExtract/internal/feature"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// Store combines run and vector storage capabilities.
type Store interface {
	RunStore
	VectorStore
	Close() error
}

// RunInfo summarizes one stored run.
type RunInfo struct {
	ID           string
	CreatedAt    time.Time
	Methods      int
	Nodes        int
	Edges        int
	CounterBound int
}

// RunStore persists finished program graphs.
type RunStore interface {
	// SaveRun stores the labeled graph and payload of a finished run and
	// returns the new run id.
	SaveRun(ctx context.Context, res *assemble.Result) (string, error)

	// LoadPayload rebuilds the exported payload of a stored run.
	LoadPayload(ctx context.Context, runID string) (*assemble.Payload, error)

	// ListRuns returns every stored run, newest first.
	ListRuns(ctx context.Context) ([]RunInfo, error)
}

// VectorStore persists the word vector table used for embedding features.
type VectorStore interface {
	// SaveVectors replaces the stored table with t.
	SaveVectors(ctx context.Context, t *feature.Table) error

	// LoadVectors returns the stored table.
	LoadVectors(ctx context.Context) (*feature.Table, error)
}
