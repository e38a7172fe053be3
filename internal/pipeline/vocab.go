package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/StarCycle/GraphExtract/internal/config"
	"github.com/StarCycle/GraphExtract/internal/crawler"
	"github.com/StarCycle/GraphExtract/internal/feature"
	"github.com/StarCycle/GraphExtract/internal/knowledge"
	"github.com/StarCycle/GraphExtract/internal/source"
	"github.com/StarCycle/GraphExtract/internal/storage"
)

// Vocab builds the vector table for embedding features from a C/C++ source
// tree and, when the export exists, the method names and files it lists.
type Vocab struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer

	// Embedder overrides the provider named in the config.
	Embedder knowledge.Embedder
}

func NewVocab(cfg *config.Config, logger *slog.Logger) *Vocab {
	if logger == nil {
		logger = slog.Default()
	}
	return &Vocab{Config: cfg, Logger: logger, Out: os.Stdout}
}

func (v *Vocab) Run(ctx context.Context, root string) (*feature.Table, error) {
	if v.Config.Features.Table == "" && v.Config.Features.DB == "" {
		return nil, fmt.Errorf("no destination for the vector table: set features.table or features.db")
	}
	if root == "" {
		root = v.Config.Corpus.Root
	}

	words, err := v.collectStage(ctx, root)
	if err != nil {
		return nil, err
	}

	emb, err := v.embedder(ctx)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(v.Out, "🧠 Embedding %d words with %s...\n", len(words), v.Config.AI.Provider)
	table, err := knowledge.BuildTable(ctx, v.Logger, emb, words)
	if err != nil {
		return nil, err
	}

	if err := v.storeStage(ctx, table); err != nil {
		return nil, err
	}
	fmt.Fprintf(v.Out, "🎉 Vocabulary table ready: %d words, width %d\n", table.Len(), table.Dim())
	return table, nil
}

func (v *Vocab) collectStage(ctx context.Context, root string) ([]string, error) {
	fmt.Fprintf(v.Out, "📂 Scanning directory: %s\n", root)
	cr := crawler.NewCrawler(v.Logger, v.Config.Corpus.Extensions)
	words, err := cr.Vocabulary(ctx, root)
	if err != nil {
		return nil, err
	}

	methods := v.Config.Input.Methods
	if methods == "" {
		return words, nil
	}
	reg, _, err := source.NewLoader(v.Logger, v.Config.Input.Workers).LoadFile(ctx, methods)
	if errors.Is(err, fs.ErrNotExist) {
		return words, nil
	}
	if err != nil {
		return nil, err
	}
	for _, m := range reg.Methods() {
		words = append(words, feature.Words(m.Name, m.FileName)...)
	}
	fmt.Fprintf(v.Out, "  -> added names of %d methods from %s\n", reg.Len(), methods)
	return words, nil
}

func (v *Vocab) embedder(ctx context.Context) (knowledge.Embedder, error) {
	if v.Embedder != nil {
		return v.Embedder, nil
	}
	ai := v.Config.AI
	emb, err := knowledge.NewEmbedder(ctx, knowledge.EmbedderOptions{
		Provider:  ai.Provider,
		APIKey:    ai.APIKey,
		Model:     ai.Model,
		Dimension: ai.Dimension,
		BaseURL:   ai.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return emb, nil
}

func (v *Vocab) storeStage(ctx context.Context, table *feature.Table) error {
	if path := v.Config.Features.Table; path != "" {
		if err := ensureDir(path); err != nil {
			return err
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create vector table: %w", err)
		}
		if err := feature.WriteTable(f, table); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(v.Out, "💾 Wrote %s\n", path)
	}

	if path := v.Config.Features.DB; path != "" {
		store, err := storage.NewSQLiteStore(path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()
		if err := store.SaveVectors(ctx, table); err != nil {
			return fmt.Errorf("failed to save vectors: %w", err)
		}
		fmt.Fprintf(v.Out, "💾 Saved vectors to %s\n", path)
	}
	return nil
}
