package knowledge

import (
	"context"
	"fmt"
	"strings"
)

// Provider names accepted by NewEmbedder.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type EmbedderOptions struct {
	Provider  string
	APIKey    string
	Model     string
	Dimension int
	BaseURL   string
}

// NewEmbedder builds the embedder for opts.Provider. Gemini is the default.
func NewEmbedder(ctx context.Context, opts EmbedderOptions) (Embedder, error) {
	provider := strings.ToLower(strings.TrimSpace(opts.Provider))
	if provider == "" {
		provider = ProviderGemini
	}
	if opts.Dimension < 0 {
		return nil, fmt.Errorf("embedding dimension must not be negative, got %d", opts.Dimension)
	}

	switch provider {
	case ProviderGemini:
		return NewGeminiEmbedder(ctx, opts.APIKey, opts.Model, opts.Dimension)
	case ProviderOpenAI:
		return NewOpenAIEmbedder(opts.APIKey, opts.Model, opts.Dimension, opts.BaseURL), nil
	case ProviderOllama:
		return NewOllamaEmbedder(opts.Model, opts.Dimension, opts.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported embedder provider: %s", opts.Provider)
	}
}
