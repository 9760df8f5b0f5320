// Package emitter serializes a dependency graph into a self-contained
// script: an immediately invoked function that implements require/exports
// purely from the embedded graph.
package emitter

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"minipack/internal/graph"
)

type Format string

const (
	// FormatClosure wraps each module's code in a factory function at emit
	// time, so the loader dispatches with a table lookup and a call.
	FormatClosure Format = "closure"
	// FormatJSON embeds the graph as JSON and builds each factory from its
	// code string with the Function constructor on first require.
	FormatJSON Format = "json"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// Options controls the emitted text.
type Options struct {
	Format Format
	// GlobalName, when set, assigns the entry's exports to a var of that name.
	GlobalName string
}

// Emitter renders runtime text for built graphs.
type Emitter struct {
	opts Options
}

// NewEmitter validates opts and returns an emitter.
func NewEmitter(opts Options) (*Emitter, error) {
	if opts.Format == "" {
		opts.Format = FormatClosure
	}
	switch opts.Format {
	case FormatClosure, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported output format: %q", opts.Format)
	}
	if opts.GlobalName != "" && !identRe.MatchString(opts.GlobalName) {
		return nil, fmt.Errorf("invalid global name: %q", opts.GlobalName)
	}
	return &Emitter{opts: opts}, nil
}

// Emit produces the runtime text for g, starting execution at entry. The
// graph must satisfy the closure property; modules are written in sorted
// identity order so equal graphs yield byte-identical output.
func (e *Emitter) Emit(entry string, g *graph.Graph) (string, error) {
	if g == nil {
		return "", fmt.Errorf("cannot emit a nil graph")
	}
	if !g.Has(entry) {
		return "", fmt.Errorf("entry %s is not in the dependency graph", entry)
	}
	if err := g.Validate(); err != nil {
		return "", err
	}

	entryLit, err := quote(entry)
	if err != nil {
		return "", err
	}

	var table string
	switch e.opts.Format {
	case FormatJSON:
		table, err = jsonTable(g)
	default:
		table, err = closureTable(g)
	}
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if e.opts.GlobalName != "" {
		b.WriteString("var ")
		b.WriteString(e.opts.GlobalName)
		b.WriteString(" = ")
	}
	b.WriteString("(function (modules, entry) {\n")
	b.WriteString(loaderPrologue)
	if e.opts.Format == FormatJSON {
		b.WriteString(jsonFactory)
	} else {
		b.WriteString(closureFactory)
	}
	b.WriteString(loaderEpilogue)
	b.WriteString("})(")
	b.WriteString(table)
	b.WriteString(", ")
	b.WriteString(entryLit)
	b.WriteString(");\n")
	return b.String(), nil
}

// closureTable renders {"id": {deps: {...}, factory: function (...) {...}}}.
func closureTable(g *graph.Graph) (string, error) {
	var b strings.Builder
	b.WriteString("{\n")
	for i, id := range g.IDs() {
		m := g.Modules[id]
		key, err := quote(id)
		if err != nil {
			return "", err
		}
		deps, err := json.Marshal(m.Deps)
		if err != nil {
			return "", fmt.Errorf("failed to encode deps of %s: %w", id, err)
		}
		if i > 0 {
			b.WriteString(",\n")
		}
		fmt.Fprintf(&b, "%s: {\ndeps: %s,\nfactory: function (require, module, exports) {\n", key, deps)
		b.WriteString(m.Code)
		// A trailing line comment in the code must not swallow the brace.
		b.WriteString("\n}\n}")
	}
	b.WriteString("\n}")
	return b.String(), nil
}

// jsonTable renders the graph as structured text: {"id": {"deps": {...}, "code": "..."}}.
func jsonTable(g *graph.Graph) (string, error) {
	raw, err := json.Marshal(g.Modules)
	if err != nil {
		return "", fmt.Errorf("failed to encode dependency graph: %w", err)
	}
	return string(raw), nil
}

func quote(s string) (string, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to quote %q: %w", s, err)
	}
	return string(raw), nil
}
