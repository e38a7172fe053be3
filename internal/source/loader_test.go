package source

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/StarCycle/GraphExtract/internal/assemble"
	"github.com/StarCycle/GraphExtract/internal/feature"
	"github.com/StarCycle/GraphExtract/internal/flow"
	"github.com/StarCycle/GraphExtract/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoader_LoadFile(t *testing.T) {
	l := NewLoader(quietLogger(), 2)
	reg, sum, err := l.LoadFile(context.Background(), filepath.Join("testdata", "methods.json"))
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 3, Declarations: 1, Registered: 2}, sum)

	t.Run("Numeric identities become strings", func(t *testing.T) {
		m, err := reg.Lookup("1000100")
		require.NoError(t, err)
		assert.Equal(t, "main", m.Name)
		assert.Equal(t, "1000199", m.ReturnID)
		assert.Equal(t, "/src/app/main.c", m.FileName)
		assert.Equal(t, 3, m.LineNumber)
		assert.Equal(t, 6, m.Graph.Len())
	})

	t.Run("Declarations are not registered", func(t *testing.T) {
		_, err := reg.Lookup("3000100")
		assert.ErrorIs(t, err, registry.ErrUnknownMethod)
		assert.Empty(t, reg.LookupByName("decl"))
	})

	t.Run("Registration follows input order", func(t *testing.T) {
		methods := reg.Methods()
		require.Len(t, methods, 2)
		assert.Equal(t, "main", methods[0].Name)
		assert.Equal(t, "helper", methods[1].Name)
	})
}

func TestLoader_DeclarationsNeverReachTheGraph(t *testing.T) {
	reg, _, err := NewLoader(quietLogger(), 0).LoadFile(context.Background(), filepath.Join("testdata", "methods.json"))
	require.NoError(t, err)

	res, err := assemble.NewAssembler(quietLogger(), reg, feature.NewCharBag(), assemble.Options{CounterBound: 2}).Assemble(context.Background())
	require.NoError(t, err)

	pg := res.Graph
	assert.False(t, pg.HasNode("3000100"))
	assert.False(t, pg.HasNode("3000199"))
	assert.Equal(t, 6, pg.NodeCount())
	assert.Equal(t, 5, pg.EdgeCount())
	assert.True(t, pg.HasEdge("1000100", "2000100"))
	assert.True(t, pg.HasEdge("2000199", "1000102"))
	assert.True(t, pg.HasEdge("1000102", "1000199"))

	assert.Equal(t, res.Labels["1000102"], res.Payload.CounterToLabel[1])
	assert.Equal(t, res.Labels["2000101"], res.Payload.CounterToLabel[2])
}

func TestLoader_Errors(t *testing.T) {
	ctx := context.Background()
	l := NewLoader(quietLogger(), 1)

	t.Run("Invalid JSON", func(t *testing.T) {
		_, _, err := l.Load(ctx, strings.NewReader(`{"_1": 1}`))
		assert.Error(t, err)
	})

	t.Run("Missing graph", func(t *testing.T) {
		_, _, err := l.Load(ctx, strings.NewReader(`[{"_1": 1, "_2": 2, "_3": "m", "_4": "m.c", "_6": []}]`))
		assert.ErrorContains(t, err, "no flow graph")
	})

	t.Run("Invalid DOT", func(t *testing.T) {
		_, _, err := l.Load(ctx, strings.NewReader(`[{"_1": 1, "_2": 2, "_3": "m", "_4": "m.c", "_6": ["digraph {"]}]`))
		assert.ErrorIs(t, err, flow.ErrInvalidDOT)
	})

	t.Run("Duplicate identity", func(t *testing.T) {
		body := `digraph { "1" [label="(METHOD,m)"] "5" [label="(x,x())"] "2" [label="(METHOD_RETURN,)"] "1" -> "5" "5" -> "2" }`
		input := `[{"_1": 1, "_2": 2, "_3": "m", "_4": "m.c", "_6": [` + quote(body) + `]},` +
			`{"_1": "1", "_2": 2, "_3": "n", "_4": "n.c", "_6": [` + quote(body) + `]}]`
		_, _, err := l.Load(ctx, strings.NewReader(input))
		assert.ErrorIs(t, err, registry.ErrDuplicateIdentity)
	})

	t.Run("Missing file", func(t *testing.T) {
		_, _, err := l.LoadFile(ctx, filepath.Join(t.TempDir(), "missing.json"))
		assert.Error(t, err)
	})
}

func TestIdentity_UnmarshalJSON(t *testing.T) {
	var id Identity
	require.NoError(t, id.UnmarshalJSON([]byte(`123456789012`)))
	assert.Equal(t, Identity("123456789012"), id)

	require.NoError(t, id.UnmarshalJSON([]byte(`"abc"`)))
	assert.Equal(t, Identity("abc"), id)

	assert.Error(t, id.UnmarshalJSON([]byte(`{}`)))
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
