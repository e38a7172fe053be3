// Package feature computes the fixed-width node feature vectors.
package feature

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/StarCycle/GraphExtract/internal/graph"
)

// Assigner produces a feature vector for a node. Every vector returned by
// one Assigner has length Dimension().
type Assigner interface {
	FeatureFor(kind graph.NodeKind, name, fileName string) []float32
	Dimension() int
}

// Strategy names accepted by New.
const (
	StrategyCharBag   = "charbag"
	StrategyEmbedding = "embedding"
)

// New selects an assigner by strategy name. The embedding strategy needs a table.
func New(strategy string, table *Table) (Assigner, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyCharBag:
		return NewCharBag(), nil
	case StrategyEmbedding:
		if table == nil {
			return nil, fmt.Errorf("embedding strategy requires a vector table")
		}
		return NewEmbedding(table), nil
	default:
		return nil, fmt.Errorf("unsupported feature strategy: %s", strategy)
	}
}

var segmentSep = regexp.MustCompile(`[/.]`)

// FileSegment returns the second-to-last "/" or "." delimited segment of a
// lower-cased file name, e.g. "src/util/parse.c" -> "parse". It is empty
// when the name has fewer than two segments.
func FileSegment(fileName string) string {
	parts := segmentSep.Split(strings.ToLower(fileName), -1)
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}
