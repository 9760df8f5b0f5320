package index

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"minipack/internal/analyzer"
	"minipack/internal/graph"

	"github.com/rs/zerolog/log"
)

// ModuleAnalyzer produces the record of one module.
type ModuleAnalyzer interface {
	Analyze(id string) (*analyzer.ModuleRecord, error)
}

// EntryResolver canonicalizes the entry location into an identity.
type EntryResolver interface {
	Entry(location string) (string, error)
}

// Indexer builds the dependency graph reachable from an entry module.
type Indexer struct {
	analyzer ModuleAnalyzer
	entries  EntryResolver
}

// NewIndexer creates a new indexer.
func NewIndexer(a ModuleAnalyzer, r EntryResolver) *Indexer {
	return &Indexer{
		analyzer: a,
		entries:  r,
	}
}

// BuildGraph analyzes the entry module and every module transitively
// imported from it. Each identity is analyzed exactly once: it is marked
// visited when first enqueued, so diamonds and cycles never re-descend.
// Any analysis failure aborts the build and no graph is returned.
func (i *Indexer) BuildGraph(entryLocation string) (*graph.Graph, error) {
	start := time.Now()

	entry, err := i.entries.Entry(entryLocation)
	if err != nil {
		return nil, err
	}

	g := graph.NewGraph(entry)
	visited := map[string]bool{entry: true}
	queue := []string{entry}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		rec, err := i.analyzer.Analyze(id)
		if err != nil {
			return nil, fmt.Errorf("build failed at %s: %w", id, err)
		}
		g.AddModule(graph.FromRecord(rec))

		// Sorted so the queue order, and therefore any failure reported, is
		// the same on every run.
		for _, next := range sortedTargets(rec.Dependencies) {
			if visited[next] {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("entry", entry).
		Int("modules", g.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("dependency graph built")

	return g, nil
}

// SaveGraph persists the graph to a JSON file.
func (i *Indexer) SaveGraph(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(g); err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return nil
}

// LoadGraph loads a graph from a JSON file.
func (i *Indexer) LoadGraph(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	g := graph.NewGraph("")
	decoder := json.NewDecoder(f)
	if err := decoder.Decode(g); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	// Important: Rebuild internal indices that aren't serialized
	g.RebuildIndices()

	return g, nil
}

func sortedTargets(deps map[string]string) []string {
	targets := make([]string, 0, len(deps))
	for _, to := range deps {
		targets = append(targets, to)
	}
	sort.Strings(targets)
	return targets
}
