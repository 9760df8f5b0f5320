package extractor

import sitter "github.com/smacker/go-tree-sitter"

// ImportKind distinguishes the statement form a static import was written in.
type ImportKind string

const (
	ImportDeclaration ImportKind = "import"
	ReExport          ImportKind = "export"
)

// Import is one static import found at the top level of a module.
type Import struct {
	Specifier string     `json:"specifier"`
	Kind      ImportKind `json:"kind"`
	Line      int        `json:"line"`
}

// SyntaxTree is a parsed module. It owns the underlying tree-sitter tree,
// so callers must Close it once they are done.
type SyntaxTree struct {
	Path   string
	Source []byte
	tree   *sitter.Tree
}

// Root returns the program node.
func (t *SyntaxTree) Root() *sitter.Node {
	if t == nil || t.tree == nil {
		return nil
	}
	return t.tree.RootNode()
}

// Close releases the tree-sitter tree.
func (t *SyntaxTree) Close() {
	if t != nil && t.tree != nil {
		t.tree.Close()
		t.tree = nil
	}
}

// LanguageExtractor defines the interface that each language grammar must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractImport(captureName string, node *sitter.Node, sourceCode []byte) *Import
}

// Parser turns source text into a syntax tree and lists its static imports.
type Parser interface {
	Parse(path string, source []byte) (*SyntaxTree, error)
	Imports(tree *SyntaxTree) ([]Import, error)
}

// Transformer downlevels a parsed module into CommonJS code.
type Transformer interface {
	Transform(tree *SyntaxTree) (string, error)
}
