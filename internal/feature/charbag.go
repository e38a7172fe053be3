package feature

import (
	"strings"

	"github.com/StarCycle/GraphExtract/internal/graph"
)

const alphabet = 26

// CharBag encodes a node as its discriminator followed by the set of letters
// a-z in the name and in the file-name segment. It is lossy by nature.
type CharBag struct{}

func NewCharBag() *CharBag {
	return &CharBag{}
}

func (c *CharBag) Dimension() int {
	return 1 + 2*alphabet
}

func (c *CharBag) FeatureFor(kind graph.NodeKind, name, fileName string) []float32 {
	out := make([]float32, c.Dimension())
	out[0] = kind.Discriminator()
	markLetters(out[1:1+alphabet], strings.ToLower(name))
	markLetters(out[1+alphabet:], FileSegment(fileName))
	return out
}

func markLetters(slots []float32, s string) {
	for i := 0; i < len(s); i++ {
		if ch := s[i]; ch >= 'a' && ch <= 'z' {
			slots[ch-'a'] = 1
		}
	}
}
