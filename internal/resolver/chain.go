package resolver

import (
	"path"
	"strings"
)

// Strategy maps a specifier written in importer to a slash-separated path
// relative to the project root. ok is false when the strategy does not
// handle that specifier form.
type Strategy interface {
	Name() string
	Candidate(importer, specifier string) (candidate string, ok bool)
}

// RelativeStrategy handles "./x" and "../x" against the importer's directory.
type RelativeStrategy struct{}

func (RelativeStrategy) Name() string {
	return "relative"
}

func (RelativeStrategy) Candidate(importer, specifier string) (string, bool) {
	if specifier != "." && specifier != ".." &&
		!strings.HasPrefix(specifier, "./") && !strings.HasPrefix(specifier, "../") {
		return "", false
	}
	dir := path.Dir(trimIdentity(importer))
	return path.Join(dir, specifier), true
}

// RootStrategy handles "/x", anchored at the project root.
type RootStrategy struct{}

func (RootStrategy) Name() string {
	return "root"
}

func (RootStrategy) Candidate(_, specifier string) (string, bool) {
	if !strings.HasPrefix(specifier, "/") {
		return "", false
	}
	return path.Clean(strings.TrimLeft(specifier, "/")), true
}

// DefaultChain is the strategy order used by New.
func DefaultChain() []Strategy {
	return []Strategy{RelativeStrategy{}, RootStrategy{}}
}
