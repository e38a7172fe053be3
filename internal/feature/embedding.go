package feature

import (
	"strings"

	"github.com/StarCycle/GraphExtract/internal/graph"
)

// Embedding concatenates the discriminator with table vectors for the name
// and the file-name segment. Unseen words use the table's fallback vector.
type Embedding struct {
	table *Table
}

func NewEmbedding(table *Table) *Embedding {
	return &Embedding{table: table}
}

func (e *Embedding) Dimension() int {
	return 1 + 2*e.table.Dim()
}

func (e *Embedding) FeatureFor(kind graph.NodeKind, name, fileName string) []float32 {
	out := make([]float32, 0, e.Dimension())
	out = append(out, kind.Discriminator())
	out = append(out, e.table.Vector(name)...)
	out = append(out, e.table.Vector(FileSegment(fileName))...)
	return out
}

// Words returns the words an Embedding looks up for a node, used when
// building a table for a known set of methods.
func Words(name, fileName string) []string {
	return []string{strings.TrimSpace(name), FileSegment(fileName)}
}
