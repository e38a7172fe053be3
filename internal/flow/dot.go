package flow

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/iterator"
)

// ParseDOT decodes the DOT text of one method's control-flow graph. Node
// identities are the DOT node IDs and descriptors come from the label attribute.
func ParseDOT(data []byte) (*Graph, error) {
	b := newDOTBuilder()
	if err := dot.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDOT, err)
	}

	g := NewGraph()
	for _, n := range b.order {
		g.AddNode(n.dotID, n.label)
	}
	for _, e := range b.edgeOrder {
		g.AddEdge(e.F.(*dotNode).dotID, e.T.(*dotNode).dotID)
	}
	return g, nil
}

// dotBuilder is the gonum encoding.Builder the decoder writes into. It keeps
// insertion order and tolerates self loops, which gonum's simple graphs reject.
type dotBuilder struct {
	nodes     map[int64]*dotNode
	order     []*dotNode
	from      map[int64][]int64
	to        map[int64][]int64
	edges     map[[2]int64]*dotEdge
	edgeOrder []*dotEdge
}

func newDOTBuilder() *dotBuilder {
	return &dotBuilder{
		nodes: make(map[int64]*dotNode),
		from:  make(map[int64][]int64),
		to:    make(map[int64][]int64),
		edges: make(map[[2]int64]*dotEdge),
	}
}

func (b *dotBuilder) Node(id int64) graph.Node {
	n, ok := b.nodes[id]
	if !ok {
		return nil
	}
	return n
}

func (b *dotBuilder) Nodes() graph.Nodes {
	nodes := make([]graph.Node, len(b.order))
	for i, n := range b.order {
		nodes[i] = n
	}
	return iterator.NewOrderedNodes(nodes)
}

func (b *dotBuilder) From(id int64) graph.Nodes {
	return b.collect(b.from[id])
}

func (b *dotBuilder) To(id int64) graph.Nodes {
	return b.collect(b.to[id])
}

func (b *dotBuilder) collect(ids []int64) graph.Nodes {
	nodes := make([]graph.Node, 0, len(ids))
	for _, id := range ids {
		nodes = append(nodes, b.nodes[id])
	}
	return iterator.NewOrderedNodes(nodes)
}

func (b *dotBuilder) HasEdgeBetween(xid, yid int64) bool {
	return b.HasEdgeFromTo(xid, yid) || b.HasEdgeFromTo(yid, xid)
}

func (b *dotBuilder) HasEdgeFromTo(uid, vid int64) bool {
	_, ok := b.edges[[2]int64{uid, vid}]
	return ok
}

func (b *dotBuilder) Edge(uid, vid int64) graph.Edge {
	e, ok := b.edges[[2]int64{uid, vid}]
	if !ok {
		return nil
	}
	return e
}

func (b *dotBuilder) NewNode() graph.Node {
	return &dotNode{id: int64(len(b.order))}
}

func (b *dotBuilder) AddNode(n graph.Node) {
	dn, ok := n.(*dotNode)
	if !ok {
		panic(fmt.Sprintf("flow: unexpected node type %T", n))
	}
	if _, exists := b.nodes[dn.id]; exists {
		panic(fmt.Sprintf("flow: node %d added twice", dn.id))
	}
	b.nodes[dn.id] = dn
	b.order = append(b.order, dn)
}

func (b *dotBuilder) NewEdge(from, to graph.Node) graph.Edge {
	return &dotEdge{F: from, T: to}
}

func (b *dotBuilder) SetEdge(e graph.Edge) {
	uid, vid := e.From().ID(), e.To().ID()
	key := [2]int64{uid, vid}
	if _, ok := b.edges[key]; ok {
		return
	}
	de, ok := e.(*dotEdge)
	if !ok {
		de = &dotEdge{F: e.From(), T: e.To()}
	}
	b.edges[key] = de
	b.edgeOrder = append(b.edgeOrder, de)
	b.from[uid] = append(b.from[uid], vid)
	b.to[vid] = append(b.to[vid], uid)
}

// DOTAttributeSetters discards graph-wide attribute statements
// (graph [...], node [...], edge [...]).
func (b *dotBuilder) DOTAttributeSetters() (g, n, e encoding.AttributeSetter) {
	return discardAttrs{}, discardAttrs{}, discardAttrs{}
}

type dotNode struct {
	id    int64
	dotID string
	label string
}

func (n *dotNode) ID() int64 { return n.id }

func (n *dotNode) SetDOTID(id string) { n.dotID = unquote(id) }

func (n *dotNode) SetAttribute(attr encoding.Attribute) error {
	if attr.Key == "label" {
		n.label = attr.Value
	}
	return nil
}

type dotEdge struct {
	F, T graph.Node
}

func (e *dotEdge) From() graph.Node         { return e.F }
func (e *dotEdge) To() graph.Node           { return e.T }
func (e *dotEdge) ReversedEdge() graph.Edge { return &dotEdge{F: e.T, T: e.F} }

func (e *dotEdge) SetAttribute(encoding.Attribute) error { return nil }

type discardAttrs struct{}

func (discardAttrs) SetAttribute(encoding.Attribute) error { return nil }

func unquote(id string) string {
	if len(id) >= 2 && id[0] == '"' && id[len(id)-1] == '"' {
		if s, err := strconv.Unquote(id); err == nil {
			return s
		}
	}
	return id
}
