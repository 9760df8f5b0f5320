package runtime

import (
	"fmt"

	"minipack/internal/graph"

	"github.com/dop251/goja"
)

// State is the lifecycle position of a module in the registry.
type State int

const (
	Absent State = iota
	Pending
	Loaded
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loaded:
		return "loaded"
	default:
		return "absent"
	}
}

type moduleEntry struct {
	module *goja.Object
	state  State
}

// Loader evaluates a dependency graph without going through emitted text.
// Every module is compiled into a factory function up front; require is a
// table lookup plus a call, backed by an explicit registry.
type Loader struct {
	vm        *goja.Runtime
	graph     *graph.Graph
	factories map[string]goja.Callable
	registry  map[string]*moduleEntry
}

// NewLoader compiles every module of g.
func NewLoader(g *graph.Graph, opts ...Option) (*Loader, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	vm, err := newVM(opts)
	if err != nil {
		return nil, err
	}

	l := &Loader{
		vm:        vm,
		graph:     g,
		factories: make(map[string]goja.Callable, g.Len()),
		registry:  make(map[string]*moduleEntry, g.Len()),
	}
	for _, id := range g.IDs() {
		src := "(function (require, module, exports) {\n" + g.Modules[id].Code + "\n})"
		prog, err := goja.Compile(id, src, false)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s: %w", id, err)
		}
		v, err := vm.RunProgram(prog)
		if err != nil {
			return nil, fmt.Errorf("failed to instantiate %s: %w", id, convertError(vm, err))
		}
		fn, ok := goja.AssertFunction(v)
		if !ok {
			return nil, fmt.Errorf("module %s did not compile to a function", id)
		}
		l.factories[id] = fn
	}
	return l, nil
}

// VM returns the engine modules run in.
func (l *Loader) VM() *goja.Runtime {
	return l.vm
}

// Run requires the graph's entry module.
func (l *Loader) Run() (goja.Value, error) {
	return l.Require(l.graph.Entry)
}

// Require returns the exports of id, evaluating it on first use.
func (l *Loader) Require(id string) (goja.Value, error) {
	v, err := l.require(id)
	if err != nil {
		return nil, convertError(l.vm, err)
	}
	return v, nil
}

// State reports where id is in its lifecycle.
func (l *Loader) State(id string) State {
	if e, ok := l.registry[id]; ok {
		return e.state
	}
	return Absent
}

func (l *Loader) require(id string) (goja.Value, error) {
	if e, ok := l.registry[id]; ok {
		return e.module.Get("exports"), nil
	}
	fn, ok := l.factories[id]
	if !ok {
		return nil, &ReferenceError{Identity: id}
	}

	exports := l.vm.NewObject()
	module := l.vm.NewObject()
	_ = module.Set("id", id)
	_ = module.Set("exports", exports)
	_ = module.Set("loaded", false)
	entry := &moduleEntry{module: module, state: Pending}
	l.registry[id] = entry

	deps := l.graph.Modules[id].Deps
	localRequire := func(call goja.FunctionCall) goja.Value {
		spec := call.Argument(0).String()
		target, ok := deps[spec]
		if !ok {
			panic(l.vm.NewGoError(&ReferenceError{From: id, Specifier: spec}))
		}
		v, err := l.require(target)
		if err != nil {
			if exc, ok := err.(*goja.Exception); ok {
				panic(exc)
			}
			panic(l.vm.NewGoError(err))
		}
		return v
	}

	if _, err := fn(exports, l.vm.ToValue(localRequire), module, exports); err != nil {
		delete(l.registry, id)
		return nil, err
	}
	entry.state = Loaded
	_ = module.Set("loaded", true)
	return module.Get("exports"), nil
}
