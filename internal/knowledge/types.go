// Package knowledge turns vocabulary words into vectors with an embedding
// provider and collects them into the table used for embedding features.
package knowledge

import (
	"context"
)

// Embedder converts text to vectors. Every vector returned for one call has
// the same width.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
