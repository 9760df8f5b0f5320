package graph

// Stats summarizes a built graph.
type Stats struct {
	Modules   int
	Edges     int
	CodeBytes int
	MaxFanIn  int
	MostUsed  string
}

func (g *Graph) Stats() Stats {
	var s Stats
	if g == nil {
		return s
	}
	s.Modules = len(g.Modules)
	for _, id := range g.IDs() {
		m := g.Modules[id]
		s.Edges += len(m.Deps)
		s.CodeBytes += len(m.Code)
		if n := len(g.dependents[id]); n > s.MaxFanIn {
			s.MaxFanIn = n
			s.MostUsed = id
		}
	}
	return s
}
