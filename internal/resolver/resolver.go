package resolver

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
)

// DefaultExtensions are probed, in order, when a specifier omits its extension.
var DefaultExtensions = []string{".js", ".mjs", ".cjs", ".jsx"}

// Resolver turns import specifiers into module identities: canonical
// "./"-prefixed slash paths relative to the project root. Two specifiers
// naming the same file always produce byte-identical identities.
type Resolver struct {
	root       string
	extensions []string
	strategies []Strategy
}

// New creates a resolver bound to root. A nil extensions slice selects
// DefaultExtensions.
func New(root string, extensions []string, strategies ...Strategy) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("project root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project root %s is not a directory", abs)
	}
	if extensions == nil {
		extensions = DefaultExtensions
	}
	if len(strategies) == 0 {
		strategies = DefaultChain()
	}
	return &Resolver{root: abs, extensions: extensions, strategies: strategies}, nil
}

// Root returns the absolute project root.
func (r *Resolver) Root() string {
	return r.root
}

// Path maps an identity back to its location on disk.
func (r *Resolver) Path(id string) string {
	return filepath.Join(r.root, filepath.FromSlash(trimIdentity(id)))
}

// Entry canonicalizes the entry location, given relative to the working
// directory or absolute. When no file matches, the canonical form of the
// location itself is returned so the read reports the missing file.
func (r *Resolver) Entry(location string) (string, error) {
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("failed to resolve entry %s: %w", location, err)
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return "", fmt.Errorf("failed to relate entry %s to %s: %w", abs, r.root, err)
	}
	candidate := path.Clean(filepath.ToSlash(rel))
	if escapesRoot(candidate) {
		return "", &UnresolvedError{Importer: "<entry>", Specifier: location, Reason: ReasonOutsideRoot}
	}
	if found, ok := r.probe(candidate); ok {
		return Identity(found), nil
	}
	return Identity(candidate), nil
}

// Resolve maps specifier, as written inside importer, to an identity. It
// fails eagerly when no file exists for it.
func (r *Resolver) Resolve(importer, specifier string) (string, error) {
	if specifier == "" {
		return "", &UnresolvedError{Importer: importer, Specifier: specifier, Reason: ReasonEmpty}
	}
	for _, s := range r.strategies {
		candidate, ok := s.Candidate(importer, specifier)
		if !ok {
			continue
		}
		if escapesRoot(candidate) {
			return "", &UnresolvedError{Importer: importer, Specifier: specifier, Reason: ReasonOutsideRoot}
		}
		found, ok := r.probe(candidate)
		if !ok {
			return "", &UnresolvedError{Importer: importer, Specifier: specifier, Reason: ReasonNotFound}
		}
		id := Identity(found)
		log.Debug().
			Str("importer", importer).
			Str("specifier", specifier).
			Str("strategy", s.Name()).
			Str("identity", id).
			Msg("resolved import")
		return id, nil
	}
	return "", &UnresolvedError{Importer: importer, Specifier: specifier, Reason: ReasonBareSpecifier}
}

// probe tries the candidate as written, then with each extension, then as a
// directory containing an index file.
func (r *Resolver) probe(candidate string) (string, bool) {
	tries := make([]string, 0, 1+2*len(r.extensions))
	if candidate != "." {
		tries = append(tries, candidate)
		for _, ext := range r.extensions {
			tries = append(tries, candidate+ext)
		}
	}
	for _, ext := range r.extensions {
		tries = append(tries, path.Join(candidate, "index"+ext))
	}

	for _, t := range tries {
		info, err := os.Stat(filepath.Join(r.root, filepath.FromSlash(t)))
		if err == nil && info.Mode().IsRegular() {
			return t, true
		}
	}
	return "", false
}

// Identity renders a cleaned root-relative slash path in canonical form.
func Identity(rel string) string {
	rel = path.Clean(strings.TrimPrefix(filepath.ToSlash(rel), "./"))
	if rel == "." {
		return "./"
	}
	return "./" + rel
}

func trimIdentity(id string) string {
	return strings.TrimPrefix(id, "./")
}

func escapesRoot(p string) bool {
	return p == ".." || strings.HasPrefix(p, "../")
}
