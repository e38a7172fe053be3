package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// CppExtractor implements LanguageExtractor for C++.
type CppExtractor struct{}

func (e *CppExtractor) GetLanguage() *sitter.Language {
	return cpp.GetLanguage()
}

func (e *CppExtractor) GetQuery() string {
	return `
		(identifier) @ident
		(field_identifier) @field
		(type_identifier) @type
		(namespace_identifier) @namespace
	`
}

func (e *CppExtractor) ExtractToken(captureName string, node *sitter.Node, sourceCode []byte, filepath string) *Token {
	tok := newToken(captureName, node, sourceCode, filepath)
	if tok != nil {
		tok.Language = "cpp"
	}
	return tok
}
