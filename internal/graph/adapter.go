package graph

import "minipack/internal/analyzer"

// FromRecord converts analyzer output into a graph Module.
func FromRecord(rec *analyzer.ModuleRecord) *Module {
	if rec == nil {
		return nil
	}
	deps := make(map[string]string, len(rec.Dependencies))
	for spec, id := range rec.Dependencies {
		deps[spec] = id
	}
	return &Module{
		ID:   rec.ID,
		Deps: deps,
		Code: rec.Code,
	}
}
