// Package runtime executes bundles in an embedded JavaScript engine.
package runtime

import (
	"fmt"
	"io"
	"strings"

	"github.com/dop251/goja"
)

type options struct {
	stdout  io.Writer
	globals map[string]interface{}
}

// Option configures a VM.
type Option func(*options)

// WithStdout routes console output to w.
func WithStdout(w io.Writer) Option {
	return func(o *options) {
		o.stdout = w
	}
}

// WithGlobal defines a global binding visible to module code.
func WithGlobal(name string, value interface{}) Option {
	return func(o *options) {
		o.globals[name] = value
	}
}

func newVM(opts []Option) (*goja.Runtime, error) {
	o := &options{stdout: io.Discard, globals: map[string]interface{}{}}
	for _, opt := range opts {
		opt(o)
	}

	vm := goja.New()
	if err := installConsole(vm, o.stdout); err != nil {
		return nil, err
	}
	for name, value := range o.globals {
		if err := vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("failed to define global %s: %w", name, err)
		}
	}
	return vm, nil
}

func installConsole(vm *goja.Runtime, w io.Writer) error {
	write := func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, arg.String())
		}
		fmt.Fprintln(w, strings.Join(parts, " "))
		return goja.Undefined()
	}

	console := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(name, write); err != nil {
			return err
		}
	}
	return vm.Set("console", console)
}

// Stringify renders v with the engine's JSON.stringify.
func Stringify(vm *goja.Runtime, v goja.Value) (string, error) {
	stringify, ok := goja.AssertFunction(vm.Get("JSON").ToObject(vm).Get("stringify"))
	if !ok {
		return "", fmt.Errorf("JSON.stringify is not callable")
	}
	out, err := stringify(goja.Undefined(), v)
	if err != nil {
		return "", convertError(vm, err)
	}
	if goja.IsUndefined(out) {
		return "undefined", nil
	}
	return out.String(), nil
}
