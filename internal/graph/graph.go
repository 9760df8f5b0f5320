package graph

import (
	"sort"
)

// Graph maps module identities to their code and resolved dependencies.
// It is built by a single owner and treated as read-only afterwards.
type Graph struct {
	Entry   string             `json:"entry"`
	Modules map[string]*Module `json:"modules"`

	// Reverse index: identity -> identities importing it.
	dependents map[string][]string
}

// NewGraph creates an empty graph rooted at entry.
func NewGraph(entry string) *Graph {
	return &Graph{
		Entry:      entry,
		Modules:    make(map[string]*Module),
		dependents: make(map[string][]string),
	}
}

// AddModule adds m under its identity and indexes its dependencies.
func (g *Graph) AddModule(m *Module) {
	if m == nil {
		return
	}
	if m.Deps == nil {
		m.Deps = map[string]string{}
	}
	g.Modules[m.ID] = m
	for _, to := range uniqueTargets(m) {
		g.dependents[to] = append(g.dependents[to], m.ID)
	}
}

// Has reports whether id is a graph key.
func (g *Graph) Has(id string) bool {
	_, ok := g.Modules[id]
	return ok
}

// Len returns the number of modules.
func (g *Graph) Len() int {
	return len(g.Modules)
}

// IDs returns the graph keys in sorted order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.Modules))
	for id := range g.Modules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Edges lists every resolved import, sorted by source then specifier.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, id := range g.IDs() {
		m := g.Modules[id]
		specs := make([]string, 0, len(m.Deps))
		for spec := range m.Deps {
			specs = append(specs, spec)
		}
		sort.Strings(specs)
		for _, spec := range specs {
			edges = append(edges, Edge{From: id, Specifier: spec, To: m.Deps[spec]})
		}
	}
	return edges
}

// RebuildIndices recomputes the reverse index after Modules was populated
// directly (e.g. after decoding).
func (g *Graph) RebuildIndices() {
	g.dependents = make(map[string][]string)
	for _, id := range g.IDs() {
		m := g.Modules[id]
		m.ID = id
		if m.Deps == nil {
			m.Deps = map[string]string{}
		}
		for _, to := range uniqueTargets(m) {
			g.dependents[to] = append(g.dependents[to], id)
		}
	}
}

// GetDependencies returns the modules that id imports.
func (g *Graph) GetDependencies(id string) []*Module {
	m, ok := g.Modules[id]
	if !ok {
		return nil
	}
	var deps []*Module
	for _, to := range uniqueTargets(m) {
		if dep, ok := g.Modules[to]; ok {
			deps = append(deps, dep)
		}
	}
	return deps
}

// GetDependents returns the modules that import id.
func (g *Graph) GetDependents(id string) []*Module {
	from := append([]string(nil), g.dependents[id]...)
	sort.Strings(from)
	var deps []*Module
	for _, f := range from {
		if m, ok := g.Modules[f]; ok {
			deps = append(deps, m)
		}
	}
	return deps
}

// Validate checks the closure property: every dependency value is a key.
func (g *Graph) Validate() error {
	var missing []MissingRef
	for _, e := range g.Edges() {
		if !g.Has(e.To) {
			missing = append(missing, MissingRef{From: e.From, Specifier: e.Specifier, To: e.To})
		}
	}
	if g.Entry != "" && !g.Has(g.Entry) {
		missing = append(missing, MissingRef{From: "<entry>", To: g.Entry})
	}
	if len(missing) > 0 {
		return &ClosureError{Missing: missing}
	}
	return nil
}

func uniqueTargets(m *Module) []string {
	seen := make(map[string]bool, len(m.Deps))
	targets := make([]string, 0, len(m.Deps))
	for _, to := range m.Deps {
		if !seen[to] {
			seen[to] = true
			targets = append(targets, to)
		}
	}
	sort.Strings(targets)
	return targets
}
