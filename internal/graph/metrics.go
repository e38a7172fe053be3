package graph

// KindCounts returns the number of nodes of each kind.
func (g *Graph) KindCounts() map[NodeKind]int {
	counts := make(map[NodeKind]int)
	if g == nil {
		return counts
	}
	for _, n := range g.Nodes() {
		counts[n.Kind]++
	}
	return counts
}

// UnpairedMethods lists Method nodes whose MethodReturn is missing.
// returnOf maps a method identity to its return identity.
func (g *Graph) UnpairedMethods(returnOf map[string]string) []string {
	var out []string
	for _, n := range g.Nodes() {
		if n.Kind != KindMethod {
			continue
		}
		ret, ok := returnOf[n.ID]
		if !ok {
			out = append(out, n.ID)
			continue
		}
		if r, ok := g.Node(ret); !ok || r.Kind != KindMethodReturn {
			out = append(out, n.ID)
		}
	}
	return out
}
