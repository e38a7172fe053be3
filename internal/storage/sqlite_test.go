package storage

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/StarCycle/GraphExtract/internal/assemble"
	"github.com/StarCycle/GraphExtract/internal/feature"
	"github.com/StarCycle/GraphExtract/internal/flow"
	"github.com/StarCycle/GraphExtract/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testResult(t *testing.T, bound int) *assemble.Result {
	t.Helper()
	reg := registry.New()

	caller := flow.NewGraph()
	caller.AddNode("1", "(helper,helper())")
	caller.AddNode("n1", "(CodeCount,CodeCount(3))")
	caller.AddNode("101", "(METHOD_RETURN,)")
	caller.AddEdge("1", "n1")
	caller.AddEdge("n1", "101")
	require.NoError(t, reg.Register(registry.Method{ID: "1", Name: "A", ReturnID: "101", FileName: "src/a.c", Graph: caller}))

	helper := flow.NewGraph()
	helper.AddNode("2", "(METHOD,helper)")
	helper.AddNode("102", "(METHOD_RETURN,)")
	helper.AddEdge("2", "102")
	require.NoError(t, reg.Register(registry.Method{ID: "2", Name: "helper", ReturnID: "102", FileName: "src/helper.c", Graph: helper}))

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	res, err := assemble.NewAssembler(logger, reg, feature.NewCharBag(), assemble.Options{CounterBound: bound}).Assemble(context.Background())
	require.NoError(t, err)
	return res
}

func TestSQLiteStore_SaveRun_RoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	res := testResult(t, 5)

	runID, err := store.SaveRun(ctx, res)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	loaded, err := store.LoadPayload(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, res.Payload.Features, loaded.Features)
	assert.Equal(t, res.Payload.Edges, loaded.Edges)
	assert.Equal(t, res.Payload.CounterToLabel, loaded.CounterToLabel)
	assert.Len(t, loaded.CounterToLabel, 6)
}

func TestSQLiteStore_ListRuns(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first, err := store.SaveRun(ctx, testResult(t, 5))
	require.NoError(t, err)
	second, err := store.SaveRun(ctx, testResult(t, 0))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	runs, err := store.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Newest first.
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, 3, runs[0].CounterBound)
	assert.Equal(t, first, runs[1].ID)
	assert.Equal(t, 5, runs[1].CounterBound)
	assert.Equal(t, 2, runs[1].Methods)
	assert.Equal(t, 5, runs[1].Nodes)
	assert.Equal(t, 4, runs[1].Edges)
}

func TestSQLiteStore_LoadPayload_UnknownRun(t *testing.T) {
	store := openStore(t)
	_, err := store.LoadPayload(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestSQLiteStore_SaveRun_Incomplete(t *testing.T) {
	store := openStore(t)
	_, err := store.SaveRun(context.Background(), &assemble.Result{})
	assert.Error(t, err)
}

func TestSQLiteStore_Vectors(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	table := feature.NewTable(3)
	require.NoError(t, table.Set("", []float32{0, 0, 0}))
	require.NoError(t, table.Set("parse", []float32{0.5, -1, 2}))
	require.NoError(t, table.Set("main", []float32{1, 2, 3}))
	require.NoError(t, store.SaveVectors(ctx, table))

	loaded, err := store.LoadVectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Dim())
	assert.Equal(t, table.Words(), loaded.Words())
	v, ok := loaded.Lookup("parse")
	require.True(t, ok)
	assert.Equal(t, []float32{0.5, -1, 2}, v)

	// Saving again replaces the table.
	smaller := feature.NewTable(2)
	require.NoError(t, smaller.Set("x", []float32{1, 1}))
	require.NoError(t, store.SaveVectors(ctx, smaller))

	loaded, err = store.LoadVectors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, loaded.Words())
}

func TestSQLiteStore_LoadVectors_Empty(t *testing.T) {
	store := openStore(t)
	_, err := store.LoadVectors(context.Background())
	assert.Error(t, err)
}
