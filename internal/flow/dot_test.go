package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDOT = `digraph "main" {
  node [shape=box];
  "1" [label = "(METHOD,main)" ]
  "2" [label = "(helper,helper())" ]
  "3" [label = "(CodeCount,CodeCount(7))" ]
  "101" [label = "(METHOD_RETURN,int)" ]
  "1" -> "2"
  "2" -> "3"
  "3" -> "2"
  "3" -> "101"
  "3" -> "3"
  "1" -> "2"
}
`

func TestParseDOT(t *testing.T) {
	g, err := ParseDOT([]byte(sampleDOT))
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3", "101"}, g.NodeIDs())
	assert.Equal(t, 5, g.EdgeCount(), "duplicate edge collapsed, self loop kept")
	assert.Equal(t, []string{"2", "101", "3"}, g.Successors("3"))

	n, ok := g.Node("3")
	require.True(t, ok)
	d, err := ParseDescriptor(n.Label)
	require.NoError(t, err)
	assert.True(t, d.IsCounted())

	n, ok = g.Node("101")
	require.True(t, ok)
	d, err = ParseDescriptor(n.Label)
	require.NoError(t, err)
	assert.True(t, d.IsReturn())
}

func TestParseDOT_Invalid(t *testing.T) {
	_, err := ParseDOT([]byte(`digraph { "1" -> `))
	assert.ErrorIs(t, err, ErrInvalidDOT)
}

func TestGraph_AddEdgeCreatesNodes(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a", "b")
	g.AddNode("a", "(METHOD,a)")
	g.AddEdge("a", "b")

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, g.EdgeCount())
	n, _ := g.Node("a")
	assert.Equal(t, "(METHOD,a)", n.Label)
}
