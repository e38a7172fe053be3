package extractor

import sitter "github.com/smacker/go-tree-sitter"

// Token kinds.
const (
	KindIdentifier = "identifier"
	KindFunction   = "function"
	KindCall       = "call"
	KindField      = "field"
	KindType       = "type"
	KindNamespace  = "namespace"
)

// Token is one identifier occurrence in a source file.
type Token struct {
	Text     string `json:"text"`
	Kind     string `json:"kind"`
	Language string `json:"language"`
	Filepath string `json:"filepath"`
	Line     int    `json:"line"`
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractToken(captureName string, node *sitter.Node, sourceCode []byte, filepath string) *Token
}
