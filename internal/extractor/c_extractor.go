package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// CExtractor implements LanguageExtractor for C.
type CExtractor struct{}

func (e *CExtractor) GetLanguage() *sitter.Language {
	return c.GetLanguage()
}

func (e *CExtractor) GetQuery() string {
	return `
		(identifier) @ident
		(field_identifier) @field
		(type_identifier) @type
	`
}

func (e *CExtractor) ExtractToken(captureName string, node *sitter.Node, sourceCode []byte, filepath string) *Token {
	tok := newToken(captureName, node, sourceCode, filepath)
	if tok != nil {
		tok.Language = "c"
	}
	return tok
}

// newToken maps a capture to a token, refining the kind from the parent
// node: declarator names are functions, callee names are calls.
func newToken(captureName string, node *sitter.Node, sourceCode []byte, filepath string) *Token {
	text := node.Content(sourceCode)
	if text == "" {
		return nil
	}

	var kind string
	switch captureName {
	case "ident":
		kind = KindIdentifier
	case "field":
		kind = KindField
	case "type":
		kind = KindType
	case "namespace":
		kind = KindNamespace
	default:
		return nil
	}

	if kind == KindIdentifier || kind == KindField {
		if parent := node.Parent(); parent != nil {
			switch parent.Type() {
			case "function_declarator":
				kind = KindFunction
			case "call_expression":
				kind = KindCall
			case "field_expression":
				// obj.method(...) and obj->method(...)
				if gp := parent.Parent(); gp != nil && gp.Type() == "call_expression" && kind == KindField {
					kind = KindCall
				}
			}
		}
	}

	return &Token{
		Text:     text,
		Kind:     kind,
		Filepath: filepath,
		Line:     int(node.StartPoint().Row) + 1,
	}
}
