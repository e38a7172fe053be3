package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/StarCycle/GraphExtract/internal/feature"
)

// BuildTable embeds every distinct word and returns the resulting table. The
// empty word is never sent to the provider; it maps to the zero vector so
// unknown names fall back to zeros.
func BuildTable(ctx context.Context, logger *slog.Logger, emb Embedder, words []string) (*feature.Table, error) {
	if emb == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}
	if logger == nil {
		logger = slog.Default()
	}

	vocab := distinctWords(words)
	if len(vocab) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}

	logger.Info("embedding vocabulary", slog.Int("words", len(vocab)))
	vectors, err := emb.Embed(ctx, vocab)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(vectors) != len(vocab) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(vectors), len(vocab))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("embedder returned an empty vector for %q", vocab[0])
	}
	table := feature.NewTable(dim)
	if err := table.Set("", make([]float32, dim)); err != nil {
		return nil, err
	}
	for i, word := range vocab {
		if err := table.Set(word, vectors[i]); err != nil {
			return nil, err
		}
	}
	logger.Info("vocabulary table built", slog.Int("words", table.Len()), slog.Int("dimension", dim))
	return table, nil
}

func distinctWords(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
