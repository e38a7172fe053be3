package stitch

// Frontier is the set of program graph nodes that receive an edge from the
// next processed local node. It is a single node, or several callee returns
// after a call site resolved to overloaded methods.
type Frontier struct {
	ids      []string
	multiple bool
}

// Single is a frontier of one node.
func Single(id string) Frontier {
	return Frontier{ids: []string{id}}
}

// Multiple is a fan-in frontier; order is preserved.
func Multiple(ids []string) Frontier {
	out := make([]string, len(ids))
	copy(out, ids)
	return Frontier{ids: out, multiple: true}
}

// IsMultiple reports whether the frontier came from a resolved call.
func (f Frontier) IsMultiple() bool { return f.multiple }

// IDs returns the frontier members.
func (f Frontier) IDs() []string { return f.ids }
