// Package graph implements the whole-program flow graph: an arena of nodes
// keyed by identity plus an adjacency of ordered successor sets.
//
// The graph is safe for concurrent use while it is being built. Node
// insertion order is the order later used to assign dense labels, so callers
// that want reproducible output must add nodes from a single goroutine.
package graph

import (
	"fmt"
	"sync"
)

// Graph is the shared program graph written by every stitching pass.
type Graph struct {
	mu sync.RWMutex

	nodes map[string]*Node
	order []string

	succ  map[string][]string
	edges map[Edge]struct{}

	frozen bool
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		succ:  make(map[string][]string),
		edges: make(map[Edge]struct{}),
	}
}

// AddNode adds n unless a node with the same identity is present.
// It reports whether the node was added.
func (g *Graph) AddNode(n *Node) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return false, ErrGraphFrozen
	}
	return g.addNodeLocked(n), nil
}

// AddMethodPair adds a method's entry and exit nodes together, so a Method
// node never exists without its MethodReturn. Nodes already present are kept.
func (g *Graph) AddMethodPair(entry, exit *Node) error {
	if entry.Kind != KindMethod || exit.Kind != KindMethodReturn {
		return fmt.Errorf("%w: %s/%s", ErrInvalidPair, entry.Kind, exit.Kind)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return ErrGraphFrozen
	}
	g.addNodeLocked(entry)
	g.addNodeLocked(exit)
	return nil
}

func (g *Graph) addNodeLocked(n *Node) bool {
	if _, ok := g.nodes[n.ID]; ok {
		return false
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return true
}

// AddEdge adds the directed edge from -> to. Repeated inserts are no-ops.
func (g *Graph) AddEdge(from, to string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return ErrGraphFrozen
	}
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	e := Edge{From: from, To: to}
	if _, ok := g.edges[e]; ok {
		return nil
	}
	g.edges[e] = struct{}{}
	g.succ[from] = append(g.succ[from], to)
	return nil
}

// HasNode reports whether id is present.
func (g *Graph) HasNode(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// Node returns the node with the given identity.
func (g *Graph) Node(id string) (*Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[id]
	return n, ok
}

// HasEdge reports whether the directed edge from -> to is present.
func (g *Graph) HasEdge(from, to string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[Edge{From: from, To: to}]
	return ok
}

// Successors returns the successors of id in insertion order.
func (g *Graph) Successors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.succ[id]))
	copy(out, g.succ[id])
	return out
}

// Nodes returns every node in insertion order.
func (g *Graph) Nodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns every edge, grouped by source in node insertion order and
// by target in edge insertion order.
func (g *Graph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.edges))
	for _, from := range g.order {
		for _, to := range g.succ[from] {
			out = append(out, Edge{From: from, To: to})
		}
	}
	return out
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.order)
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Freeze makes the graph read-only.
func (g *Graph) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.frozen = true
}

// Frozen reports whether Freeze has been called.
func (g *Graph) Frozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen
}
