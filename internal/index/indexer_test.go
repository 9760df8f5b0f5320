package index

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"minipack/internal/analyzer"
	"minipack/internal/extractor"
	"minipack/internal/graph"
	"minipack/internal/resolver"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingAnalyzer records how often each identity is analyzed.
type countingAnalyzer struct {
	inner *analyzer.Analyzer
	calls map[string]int
}

func (c *countingAnalyzer) Analyze(id string) (*analyzer.ModuleRecord, error) {
	c.calls[id]++
	return c.inner.Analyze(id)
}

func setup(t *testing.T, files map[string]string) (*Indexer, *countingAnalyzer, string) {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}

	r, err := resolver.New(root, nil)
	require.NoError(t, err)
	ext, err := extractor.NewExtractor("javascript")
	require.NoError(t, err)
	tr, err := extractor.NewESBuildTransformer("es2015")
	require.NoError(t, err)

	counter := &countingAnalyzer{
		inner: analyzer.NewAnalyzer(r, ext, tr),
		calls: map[string]int{},
	}
	return NewIndexer(counter, r), counter, root
}

func assertClosed(t *testing.T, g *graph.Graph) {
	t.Helper()
	for _, id := range g.IDs() {
		for spec, to := range g.Modules[id].Deps {
			assert.True(t, g.Has(to), "%s imports %q -> %s which is not a key", id, spec, to)
		}
	}
}

func TestIndexer_BuildGraph_Example(t *testing.T) {
	idx, _, root := setup(t, map[string]string{
		"src/index.js": "import { add } from './math.js';\nexport const answer = add(2, 3);\n",
		"src/math.js":  "export function add(a, b) { return a + b; }\n",
	})

	g, err := idx.BuildGraph(filepath.Join(root, "src", "index.js"))
	require.NoError(t, err)

	assert.Equal(t, "./src/index.js", g.Entry)
	assert.Equal(t, []string{"./src/index.js", "./src/math.js"}, g.IDs())
	assert.Equal(t, map[string]string{"./math.js": "./src/math.js"}, g.Modules["./src/index.js"].Deps)
	assert.Empty(t, g.Modules["./src/math.js"].Deps)
	assertClosed(t, g)
}

func TestIndexer_BuildGraph_Diamond(t *testing.T) {
	idx, counter, root := setup(t, map[string]string{
		"a.js": "import './b.js';\nimport './c.js';\n",
		"b.js": "import { d } from './d.js';\nexport const b = d;\n",
		"c.js": "import { d } from './lib/../d';\nexport const c = d;\n",
		"d.js": "export const d = 1;\n",
	})

	g, err := idx.BuildGraph(filepath.Join(root, "a.js"))
	require.NoError(t, err)

	assert.Equal(t, []string{"./a.js", "./b.js", "./c.js", "./d.js"}, g.IDs())
	assert.Equal(t, 1, counter.calls["./d.js"], "shared dependency must be analyzed once")
	for id, n := range counter.calls {
		assert.Equal(t, 1, n, "module %s analyzed %d times", id, n)
	}
	assertClosed(t, g)
}

func TestIndexer_BuildGraph_Cycle(t *testing.T) {
	t.Run("Two-module cycle", func(t *testing.T) {
		idx, counter, root := setup(t, map[string]string{
			"a.js": "import { b } from './b.js';\nexport const a = 'a';\n",
			"b.js": "import { a } from './a.js';\nexport const b = 'b';\n",
		})

		g, err := idx.BuildGraph(filepath.Join(root, "a.js"))
		require.NoError(t, err)
		assert.Equal(t, 2, g.Len())
		assert.Equal(t, 1, counter.calls["./a.js"])
		assert.Equal(t, 1, counter.calls["./b.js"])
		assertClosed(t, g)
	})

	t.Run("Self import", func(t *testing.T) {
		idx, _, root := setup(t, map[string]string{
			"self.js": "import './self.js';\n",
		})
		g, err := idx.BuildGraph(filepath.Join(root, "self.js"))
		require.NoError(t, err)
		assert.Equal(t, []string{"./self.js"}, g.IDs())
	})
}

func TestIndexer_BuildGraph_Deterministic(t *testing.T) {
	files := map[string]string{
		"main.js":     "import './z.js';\nimport './m/index.js';\nimport './a.js';\n",
		"z.js":        "import './a.js';\nexport default 26;\n",
		"a.js":        "export * from './m';\n",
		"m/index.js":  "export { helper } from './helper.js';\n",
		"m/helper.js": "export const helper = () => 'h';\n",
	}
	idx, _, root := setup(t, files)

	first, err := idx.BuildGraph(filepath.Join(root, "main.js"))
	require.NoError(t, err)
	second, err := idx.BuildGraph(filepath.Join(root, "main.js"))
	require.NoError(t, err)

	opts := cmpopts.IgnoreUnexported(graph.Graph{})
	if diff := cmp.Diff(first, second, opts); diff != "" {
		t.Errorf("graphs differ between builds (-first +second):\n%s", diff)
	}
}

func TestIndexer_BuildGraph_Failures(t *testing.T) {
	t.Run("Missing entry", func(t *testing.T) {
		idx, _, root := setup(t, map[string]string{"a.js": ""})
		g, err := idx.BuildGraph(filepath.Join(root, "nope.js"))
		assert.Nil(t, g)
		var ferr *analyzer.FileNotFoundError
		assert.True(t, errors.As(err, &ferr))
	})

	t.Run("Syntax error deep in the tree", func(t *testing.T) {
		idx, _, root := setup(t, map[string]string{
			"a.js": "import './b.js';\n",
			"b.js": "import './c.js';\n",
			"c.js": "export default function ( {\n",
		})
		g, err := idx.BuildGraph(filepath.Join(root, "a.js"))
		assert.Nil(t, g, "no partial graph")
		var perr *extractor.ParseError
		assert.True(t, errors.As(err, &perr))
	})

	t.Run("Unresolved import", func(t *testing.T) {
		idx, _, root := setup(t, map[string]string{
			"a.js": "import 'left-pad';\n",
		})
		_, err := idx.BuildGraph(filepath.Join(root, "a.js"))
		var uerr *resolver.UnresolvedError
		assert.True(t, errors.As(err, &uerr))
	})
}

func TestIndexer_SaveLoadGraph(t *testing.T) {
	idx, _, root := setup(t, map[string]string{
		"a.js": "import { b } from './b.js';\nexport const a = b + 1;\n",
		"b.js": "export const b = 1;\n",
	})
	g, err := idx.BuildGraph(filepath.Join(root, "a.js"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, idx.SaveGraph(g, path))

	loaded, err := idx.LoadGraph(path)
	require.NoError(t, err)
	assert.Equal(t, g.Entry, loaded.Entry)
	assert.Equal(t, g.IDs(), loaded.IDs())
	assert.Equal(t, g.Modules["./a.js"].Code, loaded.Modules["./a.js"].Code)
	require.Len(t, loaded.GetDependents("./b.js"), 1)
}
