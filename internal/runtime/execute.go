package runtime

import (
	"github.com/dop251/goja"
)

// Result holds the entry exports produced by executing a bundle.
type Result struct {
	Exports goja.Value
	vm      *goja.Runtime
}

// VM returns the engine the bundle ran in.
func (r *Result) VM() *goja.Runtime {
	return r.vm
}

// Get reads one named export.
func (r *Result) Get(name string) goja.Value {
	if r.Exports == nil || goja.IsUndefined(r.Exports) || goja.IsNull(r.Exports) {
		return goja.Undefined()
	}
	return r.Exports.ToObject(r.vm).Get(name)
}

// JSON renders the entry exports as JSON.
func (r *Result) JSON() (string, error) {
	return Stringify(r.vm, r.Exports)
}

// Execute runs emitted bundle text in a fresh engine. The bundle's value,
// the entry module's exports, is returned.
func Execute(name, bundle string, opts ...Option) (*Result, error) {
	vm, err := newVM(opts)
	if err != nil {
		return nil, err
	}
	prog, err := goja.Compile(name, bundle, false)
	if err != nil {
		return nil, convertError(vm, err)
	}
	v, err := vm.RunProgram(prog)
	if err != nil {
		return nil, convertError(vm, err)
	}
	return &Result{Exports: v, vm: vm}, nil
}
