package runtime

import (
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// ReferenceError is raised when require is asked for an identity or
// specifier the embedded graph does not contain.
type ReferenceError struct {
	From      string
	Specifier string
	Identity  string
	Message   string
}

func (e *ReferenceError) Error() string {
	switch {
	case e.Message != "":
		return "RuntimeReferenceError: " + e.Message
	case e.Specifier != "":
		return fmt.Sprintf("RuntimeReferenceError: cannot resolve %q from %s", e.Specifier, e.From)
	default:
		return fmt.Sprintf("RuntimeReferenceError: cannot find module %s", e.Identity)
	}
}

// ScriptError is an uncaught exception thrown by module code.
type ScriptError struct {
	Name    string
	Message string
	Stack   string
}

func (e *ScriptError) Error() string {
	if e.Name == "" {
		return e.Message
	}
	return e.Name + ": " + e.Message
}

// convertError maps goja failures onto the package's error types.
func convertError(vm *goja.Runtime, err error) error {
	if err == nil {
		return nil
	}

	var refErr *ReferenceError
	if errors.As(err, &refErr) {
		return refErr
	}

	var exc *goja.Exception
	if !errors.As(err, &exc) {
		return err
	}

	val := exc.Value()
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return &ScriptError{Message: exc.Error()}
	}
	obj := val.ToObject(vm)
	name := stringProp(obj, "name")
	message := stringProp(obj, "message")
	if name == "RuntimeReferenceError" {
		return &ReferenceError{Message: message}
	}
	if message == "" {
		message = val.String()
	}
	return &ScriptError{Name: name, Message: message, Stack: exc.String()}
}

func stringProp(obj *goja.Object, key string) string {
	v := obj.Get(key)
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}
