package assemble

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/StarCycle/GraphExtract/internal/graph"
)

// Payload is the exported form of a program graph. Features are indexed by
// node label; CounterToLabel[i] is the label of the node with counter id i,
// or 0 when that counter was never observed.
type Payload struct {
	Features       [][]float32 `json:"features"`
	Edges          [][2]int    `json:"edges"`
	CounterToLabel []int       `json:"counterToLabel"`
}

// BuildPayload assigns dense labels in node insertion order and builds the
// feature list, edge list and counter index. The index has bound+1 slots;
// a bound of zero sizes it to the largest counter id in the graph.
func BuildPayload(pg *graph.Graph, bound int) (*Payload, map[string]int, error) {
	if bound < 0 {
		return nil, nil, fmt.Errorf("counter bound must not be negative, got %d", bound)
	}

	nodes := pg.Nodes()
	labels := make(map[string]int, len(nodes))
	p := &Payload{
		Features: make([][]float32, 0, len(nodes)),
		Edges:    make([][2]int, 0, pg.EdgeCount()),
	}

	maxCounter := 0
	for _, n := range nodes {
		labels[n.ID] = len(p.Features)
		p.Features = append(p.Features, n.Feature)
		if n.Kind == graph.KindCodeCount && n.CounterID > maxCounter {
			maxCounter = n.CounterID
		}
	}

	size := bound
	if size == 0 {
		size = maxCounter
	} else if maxCounter > bound {
		return nil, nil, fmt.Errorf("%w: counter id %d, bound %d", ErrIncompleteCounterIndex, maxCounter, bound)
	}
	p.CounterToLabel = make([]int, size+1)
	for _, n := range nodes {
		if n.Kind == graph.KindCodeCount {
			p.CounterToLabel[n.CounterID] = labels[n.ID]
		}
	}

	for _, e := range pg.Edges() {
		p.Edges = append(p.Edges, [2]int{labels[e.From], labels[e.To]})
	}
	return p, labels, nil
}

// EncodePayload writes p as JSON.
func EncodePayload(w io.Writer, p *Payload) error {
	if err := json.NewEncoder(w).Encode(p); err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	return nil
}

// WritePayload persists p to a JSON file.
func WritePayload(path string, p *Payload) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create payload file: %w", err)
	}
	if err := EncodePayload(f, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadPayload loads a payload from a JSON file.
func ReadPayload(path string) (*Payload, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open payload file: %w", err)
	}
	defer f.Close()

	var p Payload
	if err := json.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}
	return &p, nil
}
