package crawler

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/StarCycle/GraphExtract/internal/extractor"
	"github.com/StarCycle/GraphExtract/internal/feature"
)

// DefaultExtensions are the C/C++ source suffixes scanned when none are configured.
var DefaultExtensions = []string{".c", ".h", ".cc", ".cpp", ".cxx", ".hpp", ".hh"}

// Crawler scans a directory for C/C++ source files.
type Crawler struct {
	logger     *slog.Logger
	extensions map[string]bool
	ignored    []string
	extractors map[string]*extractor.Extractor
}

// NewCrawler creates a new crawler instance.
func NewCrawler(logger *slog.Logger, extensions []string) *Crawler {
	if logger == nil {
		logger = slog.Default()
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts[ext] = true
	}
	return &Crawler{
		logger:     logger.With(slog.String("component", "crawler")),
		extensions: exts,
		ignored:    []string{".git", "build", "third_party", "node_modules"},
		extractors: make(map[string]*extractor.Extractor),
	}
}

// ScanProject walks the root directory and processes all relevant files.
// It uses a callback to stream each file's tokens, preventing large memory buildup.
func (c *Crawler) ScanProject(ctx context.Context, root string, onFile func(path string, tokens []*extractor.Token)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			for _, ign := range c.ignored {
				if d.Name() == ign && path != root {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !c.extensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		lang, ok := extractor.LanguageForFile(path)
		if !ok {
			return nil
		}
		ext, err := c.extractorFor(lang)
		if err != nil {
			return err
		}

		tokens, err := ext.ExtractFromFile(ctx, path)
		if err != nil {
			// One unreadable file does not fail the scan.
			c.logger.Warn("skipping file", slog.String("path", path), slog.Any("error", err))
			return nil
		}

		onFile(path, tokens)
		return nil
	})
}

func (c *Crawler) extractorFor(lang string) (*extractor.Extractor, error) {
	if ext, ok := c.extractors[lang]; ok {
		return ext, nil
	}
	ext, err := extractor.NewExtractor(lang)
	if err != nil {
		return nil, err
	}
	c.extractors[lang] = ext
	return ext, nil
}

// Vocabulary returns the distinct words of a source tree in sorted order:
// every identifier plus the file-name segment each file contributes to node
// features.
func (c *Crawler) Vocabulary(ctx context.Context, root string) ([]string, error) {
	seen := make(map[string]struct{})
	files := 0
	err := c.ScanProject(ctx, root, func(path string, tokens []*extractor.Token) {
		files++
		if seg := feature.FileSegment(path); seg != "" {
			seen[seg] = struct{}{}
		}
		for _, tok := range tokens {
			seen[tok.Text] = struct{}{}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	words := make([]string, 0, len(seen))
	for w := range seen {
		words = append(words, w)
	}
	sort.Strings(words)
	c.logger.Info("vocabulary collected", slog.Int("files", files), slog.Int("words", len(words)))
	return words, nil
}
