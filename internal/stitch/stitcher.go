// Package stitch splices resolved callees into a method's flow, writing the
// result into the shared program graph.
//
// The traversal walks virtual edges: a pair (last, node) meaning "the program
// graph node last receives an edge once the local node is processed". Local
// control-flow edges give the skeleton; each call site that resolves through
// the name index redirects the flow through the callee's entry and return
// nodes, so one local edge can fan out to several program edges.
package stitch

import (
	"fmt"

	"github.com/StarCycle/GraphExtract/internal/feature"
	"github.com/StarCycle/GraphExtract/internal/flow"
	"github.com/StarCycle/GraphExtract/internal/graph"
	"github.com/StarCycle/GraphExtract/internal/registry"
)

// Stats summarizes one or more stitching passes.
type Stats struct {
	VirtualEdges      int `json:"virtual_edges"`
	ResolvedCalls     int `json:"resolved_calls"`
	UnresolvedCalls   int `json:"unresolved_calls"`
	CountedStatements int `json:"counted_statements"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.VirtualEdges += other.VirtualEdges
	s.ResolvedCalls += other.ResolvedCalls
	s.UnresolvedCalls += other.UnresolvedCalls
	s.CountedStatements += other.CountedStatements
}

// Stitcher holds the read-only collaborators of a pass. It keeps no state
// between calls to Stitch.
type Stitcher struct {
	registry *registry.Registry
	assigner feature.Assigner
}

// New creates a stitcher.
func New(reg *registry.Registry, assigner feature.Assigner) *Stitcher {
	return &Stitcher{registry: reg, assigner: assigner}
}

type virtualEdge struct {
	last string
	node string
}

// Stitch traverses the local flow graph of method start and writes its
// counted statements, resolved calls and edges into pg. The start method's
// own entry and return nodes must already be in pg.
func (s *Stitcher) Stitch(pg *graph.Graph, start string) (Stats, error) {
	var stats Stats

	origin, err := s.registry.Lookup(start)
	if err != nil {
		return stats, err
	}
	local := origin.Graph

	visited := make(map[virtualEdge]struct{})
	stack := []virtualEdge{{last: start, node: start}}

	for len(stack) > 0 {
		ve := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[ve]; seen {
			continue
		}
		visited[ve] = struct{}{}
		stats.VirtualEdges++

		node, ok := local.Node(ve.node)
		if !ok {
			return stats, fmt.Errorf("%w: node %s is not in the flow graph of method %s", registry.ErrUnknownMethod, ve.node, start)
		}
		desc, err := flow.ParseDescriptor(node.Label)
		if err != nil {
			return stats, fmt.Errorf("method %s, node %s: %w", start, ve.node, err)
		}

		next, err := s.visit(pg, origin, ve, desc, &stats)
		if err != nil {
			return stats, err
		}

		for _, succ := range local.Successors(ve.node) {
			for _, last := range next.IDs() {
				e := virtualEdge{last: last, node: succ}
				if _, seen := visited[e]; !seen {
					stack = append(stack, e)
				}
			}
		}
	}
	return stats, nil
}

// visit processes one virtual edge and returns the frontier for the local
// successors of ve.node.
func (s *Stitcher) visit(pg *graph.Graph, origin *registry.Method, ve virtualEdge, desc flow.Descriptor, stats *Stats) (Frontier, error) {
	switch {
	case desc.IsCounted():
		counter, err := desc.CounterID()
		if err != nil {
			return Frontier{}, fmt.Errorf("method %s, node %s: %w", origin.ID, ve.node, err)
		}
		// Counted statements belong to the method being stitched.
		if !pg.HasNode(ve.node) {
			added, err := pg.AddNode(&graph.Node{
				ID:        ve.node,
				Kind:      graph.KindCodeCount,
				Name:      origin.Name,
				FileName:  origin.FileName,
				CounterID: counter,
				Feature:   s.assigner.FeatureFor(graph.KindCodeCount, origin.Name, origin.FileName),
			})
			if err != nil {
				return Frontier{}, err
			}
			if added {
				stats.CountedStatements++
			}
		}
		if err := s.link(pg, ve.last, ve.node); err != nil {
			return Frontier{}, err
		}
		return Single(ve.node), nil

	case desc.IsReturn():
		if err := s.link(pg, ve.last, ve.node); err != nil {
			return Frontier{}, err
		}
		return Single(ve.node), nil
	}

	callees := s.registry.LookupByName(desc.CalleeName())
	if len(callees) == 0 {
		stats.UnresolvedCalls++
		return Single(ve.last), nil
	}

	returns := make([]string, 0, len(callees))
	for _, id := range callees {
		callee, err := s.registry.Lookup(id)
		if err != nil {
			return Frontier{}, err
		}
		if err := s.materialize(pg, callee); err != nil {
			return Frontier{}, err
		}
		if err := s.link(pg, ve.last, callee.ID); err != nil {
			return Frontier{}, err
		}
		returns = append(returns, callee.ReturnID)
	}
	stats.ResolvedCalls++
	return Multiple(returns), nil
}

// materialize adds the Method/MethodReturn pair of m unless present.
func (s *Stitcher) materialize(pg *graph.Graph, m *registry.Method) error {
	if pg.HasNode(m.ID) && pg.HasNode(m.ReturnID) {
		return nil
	}
	return pg.AddMethodPair(EntryNode(s.assigner, m), ReturnNode(s.assigner, m))
}

func (s *Stitcher) link(pg *graph.Graph, from, to string) error {
	if err := pg.AddEdge(from, to); err != nil {
		return fmt.Errorf("%w: edge %s -> %s: %w", registry.ErrUnknownMethod, from, to, err)
	}
	return nil
}

// EntryNode builds the Method node of m.
func EntryNode(a feature.Assigner, m *registry.Method) *graph.Node {
	return &graph.Node{
		ID:       m.ID,
		Kind:     graph.KindMethod,
		Name:     m.Name,
		FileName: m.FileName,
		Feature:  a.FeatureFor(graph.KindMethod, m.Name, m.FileName),
	}
}

// ReturnNode builds the MethodReturn node of m.
func ReturnNode(a feature.Assigner, m *registry.Method) *graph.Node {
	return &graph.Node{
		ID:       m.ReturnID,
		Kind:     graph.KindMethodReturn,
		Name:     m.Name,
		FileName: m.FileName,
		Feature:  a.FeatureFor(graph.KindMethodReturn, m.Name, m.FileName),
	}
}
