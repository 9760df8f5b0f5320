package graph

import (
	"errors"
	"testing"

	"minipack/internal/analyzer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamond() *Graph {
	g := NewGraph("./a.js")
	g.AddModule(&Module{ID: "./a.js", Deps: map[string]string{"./b": "./b.js", "./c.js": "./c.js"}, Code: "a"})
	g.AddModule(&Module{ID: "./b.js", Deps: map[string]string{"./d": "./d.js"}, Code: "b"})
	g.AddModule(&Module{ID: "./c.js", Deps: map[string]string{"./d.js": "./d.js", "/d.js": "./d.js"}, Code: "c"})
	g.AddModule(&Module{ID: "./d.js", Code: "d"})
	return g
}

func TestGraph_Queries(t *testing.T) {
	g := diamond()

	t.Run("Sorted keys", func(t *testing.T) {
		assert.Equal(t, []string{"./a.js", "./b.js", "./c.js", "./d.js"}, g.IDs())
	})

	t.Run("Dependencies collapse duplicate targets", func(t *testing.T) {
		deps := g.GetDependencies("./c.js")
		require.Len(t, deps, 1)
		assert.Equal(t, "./d.js", deps[0].ID)
	})

	t.Run("Dependents lookup", func(t *testing.T) {
		dependents := g.GetDependents("./d.js")
		require.Len(t, dependents, 2)
		assert.Equal(t, "./b.js", dependents[0].ID)
		assert.Equal(t, "./c.js", dependents[1].ID)
	})

	t.Run("Edges", func(t *testing.T) {
		edges := g.Edges()
		assert.Len(t, edges, 5)
		assert.Equal(t, Edge{From: "./a.js", Specifier: "./b", To: "./b.js"}, edges[0])
	})

	t.Run("Stats", func(t *testing.T) {
		s := g.Stats()
		assert.Equal(t, 4, s.Modules)
		assert.Equal(t, 5, s.Edges)
		assert.Equal(t, 2, s.MaxFanIn)
		assert.Equal(t, "./d.js", s.MostUsed)
	})
}

func TestGraph_Validate(t *testing.T) {
	t.Run("Closed graph", func(t *testing.T) {
		assert.NoError(t, diamond().Validate())
	})

	t.Run("Dangling dependency", func(t *testing.T) {
		g := NewGraph("./a.js")
		g.AddModule(&Module{ID: "./a.js", Deps: map[string]string{"./x": "./x.js"}})

		err := g.Validate()
		var cerr *ClosureError
		require.True(t, errors.As(err, &cerr))
		require.Len(t, cerr.Missing, 1)
		assert.Equal(t, "./x.js", cerr.Missing[0].To)
	})

	t.Run("Missing entry", func(t *testing.T) {
		g := NewGraph("./main.js")
		g.AddModule(&Module{ID: "./other.js"})
		assert.Error(t, g.Validate())
	})
}

func TestGraph_RebuildIndices(t *testing.T) {
	g := &Graph{
		Entry: "./a.js",
		Modules: map[string]*Module{
			"./a.js": {Deps: map[string]string{"./b": "./b.js"}},
			"./b.js": {},
		},
	}
	g.RebuildIndices()

	assert.Equal(t, "./a.js", g.Modules["./a.js"].ID)
	assert.NotNil(t, g.Modules["./b.js"].Deps)
	dependents := g.GetDependents("./b.js")
	require.Len(t, dependents, 1)
	assert.Equal(t, "./a.js", dependents[0].ID)
}

func TestFromRecord(t *testing.T) {
	rec := &analyzer.ModuleRecord{
		ID:           "./a.js",
		Dependencies: map[string]string{"./b": "./b.js"},
		Code:         "var b = require(\"./b\");",
	}
	m := FromRecord(rec)
	require.NotNil(t, m)
	assert.Equal(t, rec.ID, m.ID)
	assert.Equal(t, rec.Dependencies, m.Deps)
	assert.Equal(t, rec.Code, m.Code)

	m.Deps["./c"] = "./c.js"
	assert.NotContains(t, rec.Dependencies, "./c", "record must not be aliased")
	assert.Nil(t, FromRecord(nil))
}
