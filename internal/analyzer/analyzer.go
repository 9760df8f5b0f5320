// Package analyzer turns one module location into a ModuleRecord: its
// transformed code plus the mapping from each static import specifier to
// the identity it resolves to.
package analyzer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"minipack/internal/extractor"
	"minipack/internal/resolver"

	"github.com/rs/zerolog/log"
)

// ModuleRecord is the analysis result for one module. It is not modified
// after Analyze returns.
type ModuleRecord struct {
	ID           string             `json:"id"`
	Dependencies map[string]string  `json:"deps"`
	Imports      []extractor.Import `json:"imports,omitempty"`
	Code         string             `json:"code"`
}

// FileNotFoundError reports a module location that could not be read.
type FileNotFoundError struct {
	ID   string
	Path string
	Err  error
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("module %s not readable at %s: %v", e.ID, e.Path, e.Err)
}

func (e *FileNotFoundError) Unwrap() error {
	return e.Err
}

// Analyzer reads, parses, resolves and transforms single modules.
type Analyzer struct {
	resolver    *resolver.Resolver
	parser      extractor.Parser
	transformer extractor.Transformer
}

// NewAnalyzer creates an analyzer from its collaborators.
func NewAnalyzer(r *resolver.Resolver, p extractor.Parser, t extractor.Transformer) *Analyzer {
	return &Analyzer{resolver: r, parser: p, transformer: t}
}

// Resolver exposes the resolver used for identities.
func (a *Analyzer) Resolver() *resolver.Resolver {
	return a.resolver
}

// Analyze reads the module at id (an identity, or any location the resolver
// accepts as an entry) and returns its record. Nothing is cached here.
func (a *Analyzer) Analyze(id string) (*ModuleRecord, error) {
	path := a.resolver.Path(id)
	source, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return nil, &FileNotFoundError{ID: id, Path: path, Err: err}
		}
		return nil, fmt.Errorf("failed to read module %s: %w", id, err)
	}

	tree, err := a.parser.Parse(id, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	imports, err := a.parser.Imports(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to collect imports of %s: %w", id, err)
	}

	deps := make(map[string]string, len(imports))
	for _, imp := range imports {
		if _, seen := deps[imp.Specifier]; seen {
			continue
		}
		target, err := a.resolver.Resolve(id, imp.Specifier)
		if err != nil {
			return nil, err
		}
		deps[imp.Specifier] = target
	}

	code, err := a.transformer.Transform(tree)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("module", id).
		Int("imports", len(imports)).
		Int("bytes", len(code)).
		Msg("analyzed module")

	return &ModuleRecord{
		ID:           id,
		Dependencies: deps,
		Imports:      imports,
		Code:         code,
	}, nil
}
