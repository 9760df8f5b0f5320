package extractor

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Extractor orchestrates parsing and import extraction using a language-specific extractor.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "javascript", "js":
		langExt = &JSExtractor{}
		lang = "javascript"
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang}, nil
}

// Language reports the grammar this extractor parses.
func (e *Extractor) Language() string {
	return e.langName
}

// Parse builds a syntax tree for source. A tree containing error or missing
// nodes is rejected with a *ParseError pointing at the first one.
func (e *Extractor) Parse(path string, source []byte) (*SyntaxTree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(e.langExtractor.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", path, err)
	}

	st := &SyntaxTree{Path: path, Source: source, tree: tree}
	root := st.Root()
	if root.HasError() {
		defer st.Close()
		perr := &ParseError{Path: path, Line: 1, Column: 1, Msg: "syntax error"}
		if bad := firstErrorNode(root); bad != nil {
			perr.Line = int(bad.StartPoint().Row) + 1
			perr.Column = int(bad.StartPoint().Column) + 1
			if bad.IsMissing() {
				perr.Msg = fmt.Sprintf("missing %s", bad.Type())
			} else {
				perr.Msg = fmt.Sprintf("unexpected %q", snippet(bad.Content(source)))
			}
		}
		return nil, perr
	}
	return st, nil
}

// Imports runs the language query over the tree and returns the static
// imports in source order.
func (e *Extractor) Imports(tree *SyntaxTree) ([]Import, error) {
	root := tree.Root()
	if root == nil {
		return nil, fmt.Errorf("syntax tree for %s is closed", tree.Path)
	}

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}
	defer query.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, root)

	var imports []Import
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := query.CaptureNameForId(c.Index)
			if imp := e.langExtractor.ExtractImport(captureName, c.Node, tree.Source); imp != nil {
				imports = append(imports, *imp)
			}
		}
	}
	return imports, nil
}

func firstErrorNode(node *sitter.Node) *sitter.Node {
	cursor := sitter.NewTreeCursor(node)
	defer cursor.Close()

	var found *sitter.Node
	var visit func(*sitter.TreeCursor)
	visit = func(c *sitter.TreeCursor) {
		if found != nil {
			return
		}
		n := c.CurrentNode()
		if n.Type() == "ERROR" || n.IsMissing() {
			found = n
			return
		}
		if !n.HasError() {
			return
		}
		if c.GoToFirstChild() {
			visit(c)
			for c.GoToNextSibling() {
				visit(c)
			}
			c.GoToParent()
		}
	}
	visit(cursor)
	return found
}

func snippet(s string) string {
	const max = 40
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
