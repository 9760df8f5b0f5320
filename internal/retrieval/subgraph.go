package retrieval

import (
	"sort"

	"minipack/internal/graph"
)

// Direction selects which edges a traversal follows.
type Direction int

const (
	// Imports follows edges from importer to imported module.
	Imports Direction = iota
	// Importers follows edges backwards.
	Importers
	// Both follows edges either way.
	Both
)

// Config controls how focused subgraphs are extracted.
type Config struct {
	MaxHops   int
	Direction Direction
}

func DefaultConfig() Config {
	return Config{
		MaxHops:   2,
		Direction: Both,
	}
}

// Subgraph is the neighborhood of a set of seed modules.
type Subgraph struct {
	MaxHops int
	SeedIDs []string
	// Depth is the hop distance of each reached module from its nearest seed.
	Depth map[string]int
	Edges []graph.Edge
}

// NodeIDs returns the reached modules in sorted order.
func (s *Subgraph) NodeIDs() []string {
	return sortedKeys(s.Depth)
}

// Extract walks at most cfg.MaxHops edges out from seeds. Seeds that are
// not graph keys are ignored.
func Extract(g *graph.Graph, seeds []string, cfg Config) *Subgraph {
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}
	sg := &Subgraph{MaxHops: cfg.MaxHops, Depth: map[string]int{}}
	if g == nil {
		return sg
	}

	queue := make([]queueItem, 0, len(seeds))
	for _, id := range seeds {
		if !g.Has(id) {
			continue
		}
		if _, ok := sg.Depth[id]; ok {
			continue
		}
		sg.Depth[id] = 0
		queue = append(queue, queueItem{id: id})
	}
	sg.SeedIDs = sortedKeys(sg.Depth)

	adj := adjacency(g, cfg.Direction)
	edgeSeen := make(map[graph.Edge]bool)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= cfg.MaxHops {
			continue
		}

		for _, next := range adj[cur.id] {
			if !edgeSeen[next.edge] {
				edgeSeen[next.edge] = true
				sg.Edges = append(sg.Edges, next.edge)
			}
			if _, seen := sg.Depth[next.to]; seen {
				continue
			}
			sg.Depth[next.to] = cur.depth + 1
			queue = append(queue, queueItem{id: next.to, depth: cur.depth + 1})
		}
	}

	sort.Slice(sg.Edges, func(i, j int) bool {
		a, b := sg.Edges[i], sg.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		return a.Specifier < b.Specifier
	})
	return sg
}

// Graph materializes the subgraph as a standalone graph rooted at entry.
// Edges leaving the subgraph are dropped, so the result may not be
// runnable on its own.
func (s *Subgraph) Graph(g *graph.Graph, entry string) *graph.Graph {
	out := graph.NewGraph(entry)
	for _, id := range s.NodeIDs() {
		src := g.Modules[id]
		deps := make(map[string]string, len(src.Deps))
		for spec, to := range src.Deps {
			if _, ok := s.Depth[to]; ok {
				deps[spec] = to
			}
		}
		out.AddModule(&graph.Module{ID: id, Deps: deps, Code: src.Code})
	}
	return out
}

type queueItem struct {
	id    string
	depth int
}

type edgeHop struct {
	to   string
	edge graph.Edge
}

func adjacency(g *graph.Graph, dir Direction) map[string][]edgeHop {
	adj := make(map[string][]edgeHop)
	for _, e := range g.Edges() {
		if dir != Importers {
			adj[e.From] = append(adj[e.From], edgeHop{to: e.To, edge: e})
		}
		if dir != Imports {
			adj[e.To] = append(adj[e.To], edgeHop{to: e.From, edge: e})
		}
	}
	return adj
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
