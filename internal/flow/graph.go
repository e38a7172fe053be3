package flow

// Node is a statement or call node of a method's local flow graph.
type Node struct {
	ID    string
	Label string
}

// Graph is the control-flow graph of a single method. Successors keep the
// order in which edges were added so traversals are reproducible.
type Graph struct {
	nodes map[string]*Node
	order []string
	succ  map[string][]string
	edges map[[2]string]struct{}
}

// NewGraph creates an empty flow graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		succ:  make(map[string][]string),
		edges: make(map[[2]string]struct{}),
	}
}

// AddNode adds a node, or sets the label of an existing one when label is non-empty.
func (g *Graph) AddNode(id, label string) {
	if n, ok := g.nodes[id]; ok {
		if label != "" {
			n.Label = label
		}
		return
	}
	g.nodes[id] = &Node{ID: id, Label: label}
	g.order = append(g.order, id)
}

// AddEdge adds a directed edge, creating unlabeled endpoints as needed.
// Adding the same edge twice is a no-op.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from, "")
	g.AddNode(to, "")
	key := [2]string{from, to}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.succ[from] = append(g.succ[from], to)
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Successors returns the local successors of id in insertion order.
func (g *Graph) Successors(id string) []string {
	return g.succ[id]
}

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// EdgeCount returns the number of distinct edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}
