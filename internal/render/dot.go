// Package render draws a finished program graph as DOT or Mermaid text.
package render

import (
	"fmt"
	"strconv"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/iterator"

	"github.com/StarCycle/GraphExtract/internal/graph"
)

// DOT renders pg as a DOT digraph. Nodes keep their identities as DOT IDs
// and appear in label order.
func DOT(pg *graph.Graph, name string) ([]byte, error) {
	v := newView(pg)
	out, err := dot.Marshal(v, name, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to render dot: %w", err)
	}
	return out, nil
}

// view adapts a program graph to gonum's graph.Directed. Gonum node ids
// are the dense labels.
type view struct {
	nodes []*viewNode
	byID  map[string]*viewNode
	from  map[int64][]int64
	to    map[int64][]int64
}

func newView(pg *graph.Graph) *view {
	v := &view{
		byID: make(map[string]*viewNode),
		from: make(map[int64][]int64),
		to:   make(map[int64][]int64),
	}
	for i, n := range pg.Nodes() {
		vn := &viewNode{id: int64(i), node: n}
		v.nodes = append(v.nodes, vn)
		v.byID[n.ID] = vn
	}
	for _, e := range pg.Edges() {
		f, t := v.byID[e.From].id, v.byID[e.To].id
		v.from[f] = append(v.from[f], t)
		v.to[t] = append(v.to[t], f)
	}
	return v
}

func (v *view) Node(id int64) gonum.Node {
	if id < 0 || id >= int64(len(v.nodes)) {
		return nil
	}
	return v.nodes[id]
}

func (v *view) Nodes() gonum.Nodes {
	nodes := make([]gonum.Node, len(v.nodes))
	for i, n := range v.nodes {
		nodes[i] = n
	}
	return iterator.NewOrderedNodes(nodes)
}

func (v *view) From(id int64) gonum.Nodes { return v.collect(v.from[id]) }

func (v *view) To(id int64) gonum.Nodes { return v.collect(v.to[id]) }

func (v *view) collect(ids []int64) gonum.Nodes {
	nodes := make([]gonum.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, v.nodes[id])
	}
	return iterator.NewOrderedNodes(nodes)
}

func (v *view) HasEdgeBetween(xid, yid int64) bool {
	return v.HasEdgeFromTo(xid, yid) || v.HasEdgeFromTo(yid, xid)
}

func (v *view) HasEdgeFromTo(uid, vid int64) bool {
	for _, id := range v.from[uid] {
		if id == vid {
			return true
		}
	}
	return false
}

func (v *view) Edge(uid, vid int64) gonum.Edge {
	if !v.HasEdgeFromTo(uid, vid) {
		return nil
	}
	return viewEdge{f: v.nodes[uid], t: v.nodes[vid]}
}

// DOTAttributers sets the graph-wide defaults.
func (v *view) DOTAttributers() (g, n, e encoding.Attributer) {
	return attrs{{Key: "rankdir", Value: "TB"}},
		attrs{{Key: "fontname", Value: "Helvetica"}},
		attrs{}
}

type attrs []encoding.Attribute

func (a attrs) Attributes() []encoding.Attribute { return a }

type viewNode struct {
	id   int64
	node *graph.Node
}

func (n *viewNode) ID() int64 { return n.id }

func (n *viewNode) DOTID() string { return n.node.ID }

func (n *viewNode) Attributes() []encoding.Attribute {
	return []encoding.Attribute{
		{Key: "label", Value: nodeText(n.node)},
		{Key: "shape", Value: shapes[n.node.Kind]},
	}
}

var shapes = map[graph.NodeKind]string{
	graph.KindMethod:       "box",
	graph.KindMethodReturn: "invhouse",
	graph.KindCodeCount:    "ellipse",
}

type viewEdge struct {
	f, t *viewNode
}

func (e viewEdge) From() gonum.Node         { return e.f }
func (e viewEdge) To() gonum.Node           { return e.t }
func (e viewEdge) ReversedEdge() gonum.Edge { return viewEdge{f: e.t, t: e.f} }

// nodeText is the human label of a node.
func nodeText(n *graph.Node) string {
	switch n.Kind {
	case graph.KindMethodReturn:
		return "return " + n.Name
	case graph.KindCodeCount:
		return "CodeCount(" + strconv.Itoa(n.CounterID) + ") in " + n.Name
	default:
		return n.Name
	}
}
