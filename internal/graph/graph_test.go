package graph

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pair(id, ret string) (*Node, *Node) {
	return &Node{ID: id, Kind: KindMethod, Name: id}, &Node{ID: ret, Kind: KindMethodReturn, Name: id}
}

func TestGraph_AddMethodPair(t *testing.T) {
	g := NewGraph()
	entry, exit := pair("1", "101")
	require.NoError(t, g.AddMethodPair(entry, exit))

	t.Run("Existing nodes are kept", func(t *testing.T) {
		again, againExit := pair("1", "101")
		again.Name = "renamed"
		require.NoError(t, g.AddMethodPair(again, againExit))
		n, ok := g.Node("1")
		require.True(t, ok)
		assert.Equal(t, "1", n.Name)
		assert.Equal(t, 2, g.NodeCount())
	})

	t.Run("Kinds are checked", func(t *testing.T) {
		err := g.AddMethodPair(&Node{ID: "2", Kind: KindCodeCount}, &Node{ID: "102", Kind: KindMethodReturn})
		assert.ErrorIs(t, err, ErrInvalidPair)
		assert.False(t, g.HasNode("102"))
	})

	assert.Empty(t, g.UnpairedMethods(map[string]string{"1": "101"}))
}

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph()
	a, aRet := pair("a", "a.ret")
	b, bRet := pair("b", "b.ret")
	require.NoError(t, g.AddMethodPair(a, aRet))
	require.NoError(t, g.AddMethodPair(b, bRet))

	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b.ret", "a.ret"))
	require.NoError(t, g.AddEdge("a", "a"))

	assert.Equal(t, 3, g.EdgeCount())
	assert.True(t, g.HasEdge("a", "b"))
	assert.False(t, g.HasEdge("b", "a"))
	assert.Equal(t, []string{"b", "a"}, g.Successors("a"))
	assert.Equal(t, []Edge{{"a", "b"}, {"a", "a"}, {"b.ret", "a.ret"}}, g.Edges())

	err := g.AddEdge("a", "missing")
	assert.ErrorIs(t, err, ErrNodeNotFound)
}

func TestGraph_Freeze(t *testing.T) {
	g := NewGraph()
	a, aRet := pair("a", "a.ret")
	require.NoError(t, g.AddMethodPair(a, aRet))
	g.Freeze()

	assert.True(t, g.Frozen())
	assert.ErrorIs(t, g.AddEdge("a", "a.ret"), ErrGraphFrozen)
	_, err := g.AddNode(&Node{ID: "c", Kind: KindCodeCount})
	assert.ErrorIs(t, err, ErrGraphFrozen)
}

func TestGraph_ConcurrentWrites(t *testing.T) {
	g := NewGraph()
	root, rootRet := pair("root", "root.ret")
	require.NoError(t, g.AddMethodPair(root, rootRet))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.AddNode(&Node{ID: "shared", Kind: KindCodeCount, CounterID: 1})
			_ = g.AddEdge("root", "shared")
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 1, g.EdgeCount())
}

func TestGraph_KindCounts(t *testing.T) {
	g := NewGraph()
	a, aRet := pair("a", "a.ret")
	require.NoError(t, g.AddMethodPair(a, aRet))
	_, err := g.AddNode(&Node{ID: "c1", Kind: KindCodeCount, CounterID: 1})
	require.NoError(t, err)

	counts := g.KindCounts()
	assert.Equal(t, 1, counts[KindMethod])
	assert.Equal(t, 1, counts[KindMethodReturn])
	assert.Equal(t, 1, counts[KindCodeCount])

	assert.Equal(t, []string{"a"}, g.UnpairedMethods(map[string]string{}))
}

func TestNodeKind(t *testing.T) {
	assert.Equal(t, float32(0), KindMethod.Discriminator())
	assert.Equal(t, float32(0.5), KindMethodReturn.Discriminator())
	assert.Equal(t, float32(1), KindCodeCount.Discriminator())

	for _, k := range []NodeKind{KindMethod, KindMethodReturn, KindCodeCount} {
		parsed, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	_, err := ParseKind("Statement")
	assert.Error(t, err)
}
