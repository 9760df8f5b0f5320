package analysis

import (
	"sort"

	"minipack/internal/crawler"
	"minipack/internal/graph"
)

// FindUnused lists module files under root that the graph does not reach
// from its entry. Such files would not appear in the bundle.
func FindUnused(g *graph.Graph, root string, c *crawler.Crawler) ([]string, error) {
	var unused []string
	err := c.ScanProject(root, func(id string) {
		if !g.Has(id) {
			unused = append(unused, id)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(unused)
	return unused, nil
}
