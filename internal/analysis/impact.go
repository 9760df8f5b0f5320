package analysis

import (
	"sort"

	"minipack/internal/git"
	"minipack/internal/graph"
	"minipack/internal/resolver"
)

// ImpactReport summarizes the modules affected by changes.
type ImpactReport struct {
	// DirectlyAffected are changed files that are modules of the graph.
	DirectlyAffected []*graph.Module
	// IndirectlyAffected import a changed module, possibly through others.
	IndirectlyAffected []*graph.Module
	// Outside lists changed paths that are not part of the bundle.
	Outside []string
	// EntryAffected reports whether the bundle output would change.
	EntryAffected bool
}

// Analyzer performs impact analysis on the dependency graph.
type Analyzer struct {
	g *graph.Graph
}

// NewAnalyzer creates a new analyzer.
func NewAnalyzer(g *graph.Graph) *Analyzer {
	return &Analyzer{g: g}
}

// AnalyzeImpact maps changed files, given relative to the project root, to
// graph modules and walks importers transitively.
func (a *Analyzer) AnalyzeImpact(changes []git.ChangedFile) (*ImpactReport, error) {
	report := &ImpactReport{
		DirectlyAffected:   []*graph.Module{},
		IndirectlyAffected: []*graph.Module{},
	}

	seen := make(map[string]bool)
	var queue []string

	// 1. Find Direct Impacts
	for _, change := range changes {
		id := resolver.Identity(change.Path)
		m, ok := a.g.Modules[id]
		if !ok {
			report.Outside = append(report.Outside, change.Path)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		report.DirectlyAffected = append(report.DirectlyAffected, m)
		queue = append(queue, id)
	}

	// 2. Find Indirect Impacts (transitive importers)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, dep := range a.g.GetDependents(id) {
			if seen[dep.ID] {
				continue
			}
			seen[dep.ID] = true
			report.IndirectlyAffected = append(report.IndirectlyAffected, dep)
			queue = append(queue, dep.ID)
		}
	}

	report.EntryAffected = seen[a.g.Entry]
	sortModules(report.DirectlyAffected)
	sortModules(report.IndirectlyAffected)
	sort.Strings(report.Outside)
	return report, nil
}

func sortModules(mods []*graph.Module) {
	sort.Slice(mods, func(i, j int) bool { return mods[i].ID < mods[j].ID })
}
