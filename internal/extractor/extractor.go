package extractor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor orchestrates the extraction process using language-specific extractors.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
	query         *sitter.Query
}

// NewExtractor creates a new extractor for a given language ("c" or "cpp").
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "c":
		langExt = &CExtractor{}
	case "cpp", "c++":
		lang = "cpp"
		langExt = &CppExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	query, err := sitter.NewQuery([]byte(langExt.GetQuery()), langExt.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	return &Extractor{langExtractor: langExt, langName: lang, query: query}, nil
}

// Language returns the language the extractor parses.
func (e *Extractor) Language() string {
	return e.langName
}

// LanguageForFile maps a file extension to an extractor language. Headers
// with a ".h" suffix are treated as C.
func LanguageForFile(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".c", ".h":
		return "c", true
	case ".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx":
		return "cpp", true
	default:
		return "", false
	}
}

// ExtractFromFile parses a single source file and extracts its identifier tokens.
func (e *Extractor) ExtractFromFile(ctx context.Context, path string) ([]*Token, error) {
	sourceCode, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return e.ExtractFromSource(ctx, sourceCode, path)
}

// ExtractFromSource extracts identifier tokens in query match order.
func (e *Extractor) ExtractFromSource(ctx context.Context, sourceCode []byte, path string) ([]*Token, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.langExtractor.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(e.query, tree.RootNode())

	var tokens []*Token
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := e.query.CaptureNameForId(c.Index)
			if tok := e.langExtractor.ExtractToken(captureName, c.Node, sourceCode, path); tok != nil {
				tokens = append(tokens, tok)
			}
		}
	}

	return tokens, nil
}
