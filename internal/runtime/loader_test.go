package runtime

import (
	"bytes"
	"errors"
	"testing"

	"minipack/internal/graph"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildGraph(entry string, modules map[string]*graph.Module) *graph.Graph {
	g := graph.NewGraph(entry)
	for id, m := range modules {
		m.ID = id
		g.AddModule(m)
	}
	return g
}

func TestLoader_SingleEvaluation(t *testing.T) {
	g := buildGraph("./a.js", map[string]*graph.Module{
		"./a.js": {
			Deps: map[string]string{"./b": "./b.js", "./c": "./c.js"},
			Code: `var b = require("./b"); var c = require("./c");
exports.sum = b.value + c.value;
exports.sameRef = require("./b") === require("./b");`,
		},
		"./b.js": {Deps: map[string]string{"./d": "./d.js"}, Code: `exports.value = require("./d").base + 1;`},
		"./c.js": {Deps: map[string]string{"./d.js": "./d.js"}, Code: `exports.value = require("./d.js").base + 2;`},
		"./d.js": {Code: `tick(); exports.base = 10;`},
	})

	hits := 0
	l, err := NewLoader(g, WithGlobal("tick", func() { hits++ }))
	require.NoError(t, err)

	exports, err := l.Run()
	require.NoError(t, err)

	obj := exports.ToObject(l.VM())
	assert.Equal(t, int64(23), obj.Get("sum").ToInteger())
	assert.True(t, obj.Get("sameRef").ToBoolean())
	assert.Equal(t, 1, hits, "shared module body must run once")

	again, err := l.Require("./d.js")
	require.NoError(t, err)
	assert.Equal(t, int64(10), again.ToObject(l.VM()).Get("base").ToInteger())
	assert.Equal(t, 1, hits)
	assert.Equal(t, Loaded, l.State("./d.js"))
}

func TestLoader_CycleSeesPartialExports(t *testing.T) {
	g := buildGraph("./a.js", map[string]*graph.Module{
		"./a.js": {
			Deps: map[string]string{"./b.js": "./b.js"},
			Code: `exports.early = 1;
var b = require("./b.js");
exports.seenByB = b.sawA;
exports.stateDuringB = b.state;
exports.late = 2;`,
		},
		"./b.js": {
			Deps: map[string]string{"./a.js": "./a.js"},
			Code: `var a = require("./a.js");
exports.sawA = JSON.stringify(a);
exports.state = probe("./a.js");`,
		},
	})

	var l *Loader
	l, err := NewLoader(g, WithGlobal("probe", func(id string) string { return l.State(id).String() }))
	require.NoError(t, err)

	exports, err := l.Run()
	require.NoError(t, err)

	obj := exports.ToObject(l.VM())
	assert.Equal(t, `{"early":1}`, obj.Get("seenByB").String())
	assert.Equal(t, "pending", obj.Get("stateDuringB").String())
	assert.Equal(t, int64(2), obj.Get("late").ToInteger())
	assert.Equal(t, Loaded, l.State("./a.js"))
	assert.Equal(t, Loaded, l.State("./b.js"))
}

func TestLoader_ModuleExportsReassignment(t *testing.T) {
	g := buildGraph("./main.js", map[string]*graph.Module{
		"./main.js": {
			Deps: map[string]string{"./fn": "./fn.js"},
			Code: `var greet = require("./fn"); console.log(greet("go")); module.exports = greet("js");`,
		},
		"./fn.js": {Code: `module.exports = function (who) { return "hello " + who; };`},
	})

	var out bytes.Buffer
	l, err := NewLoader(g, WithStdout(&out))
	require.NoError(t, err)

	exports, err := l.Run()
	require.NoError(t, err)
	assert.Equal(t, "hello js", exports.String())
	assert.Equal(t, "hello go\n", out.String())
}

func TestLoader_ReferenceErrors(t *testing.T) {
	g := buildGraph("./a.js", map[string]*graph.Module{
		"./a.js": {Code: `require("./not-in-deps");`},
	})
	l, err := NewLoader(g)
	require.NoError(t, err)

	t.Run("Unknown specifier", func(t *testing.T) {
		_, err := l.Run()
		var refErr *ReferenceError
		require.True(t, errors.As(err, &refErr), "got %v", err)
		assert.Equal(t, "./not-in-deps", refErr.Specifier)
		assert.Equal(t, "./a.js", refErr.From)
	})

	t.Run("Unknown identity", func(t *testing.T) {
		_, err := l.Require("./ghost.js")
		var refErr *ReferenceError
		require.True(t, errors.As(err, &refErr))
		assert.Equal(t, "./ghost.js", refErr.Identity)
	})
}

func TestLoader_ScriptError(t *testing.T) {
	g := buildGraph("./a.js", map[string]*graph.Module{
		"./a.js": {Code: `throw new TypeError("boom");`},
	})
	l, err := NewLoader(g)
	require.NoError(t, err)

	_, err = l.Run()
	var serr *ScriptError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, "TypeError", serr.Name)
	assert.Equal(t, "boom", serr.Message)
}

func TestLoader_ThrowingModuleIsUnregistered(t *testing.T) {
	g := buildGraph("./a.js", map[string]*graph.Module{
		"./a.js": {
			Deps: map[string]string{"./flaky.js": "./flaky.js"},
			Code: `var first;
try { require("./flaky.js"); } catch (e) { first = e.message; }
exports.first = first;
exports.ok = require("./flaky.js").ok === true;`,
		},
		"./flaky.js": {Code: `exports.partial = true;
if (attempt() === 1) { throw new Error("boom"); }
exports.ok = true;`},
	})

	attempts := 0
	l, err := NewLoader(g, WithGlobal("attempt", func() int { attempts++; return attempts }))
	require.NoError(t, err)

	exports, err := l.Run()
	require.NoError(t, err)
	obj := exports.ToObject(l.VM())
	assert.Equal(t, "boom", obj.Get("first").String())
	assert.True(t, obj.Get("ok").ToBoolean(), "second require must re-run the module")
	assert.Equal(t, 2, attempts)
	assert.Equal(t, Loaded, l.State("./flaky.js"))
}

func TestLoader_FailedEntryCanBeRetried(t *testing.T) {
	g := buildGraph("./a.js", map[string]*graph.Module{
		"./a.js": {Code: `exports.partial = true;
if (attempt() === 1) { throw new Error("boom"); }
exports.done = true;`},
	})

	attempts := 0
	l, err := NewLoader(g, WithGlobal("attempt", func() int { attempts++; return attempts }))
	require.NoError(t, err)

	_, err = l.Run()
	require.Error(t, err)
	assert.Equal(t, Absent, l.State("./a.js"))

	exports, err := l.Run()
	require.NoError(t, err)
	assert.True(t, exports.ToObject(l.VM()).Get("done").ToBoolean())
}

func TestNewLoader_RejectsOpenGraph(t *testing.T) {
	g := buildGraph("./a.js", map[string]*graph.Module{
		"./a.js": {Deps: map[string]string{"./b": "./b.js"}},
	})
	_, err := NewLoader(g)
	var cerr *graph.ClosureError
	assert.True(t, errors.As(err, &cerr))
}

func TestExecute(t *testing.T) {
	t.Run("Returns bundle value", func(t *testing.T) {
		res, err := Execute("inline.js", `(function () { return { answer: 42 }; })()`)
		require.NoError(t, err)
		assert.Equal(t, int64(42), res.Get("answer").ToInteger())
		js, err := res.JSON()
		require.NoError(t, err)
		assert.Equal(t, `{"answer":42}`, js)
	})

	t.Run("Runtime reference error", func(t *testing.T) {
		_, err := Execute("inline.js", `var e = new Error("Cannot find module './x'"); e.name = "RuntimeReferenceError"; throw e;`)
		var refErr *ReferenceError
		require.True(t, errors.As(err, &refErr))
		assert.Contains(t, refErr.Message, "./x")
	})

	t.Run("Syntax error", func(t *testing.T) {
		_, err := Execute("inline.js", `(function ( {`)
		assert.Error(t, err)
	})
}
