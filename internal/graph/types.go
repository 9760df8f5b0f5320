package graph

import (
	"fmt"
	"strings"
)

// Module is one entry of the dependency graph: the transformed code of a
// module and the identities its import specifiers resolve to.
type Module struct {
	ID   string            `json:"-"`
	Deps map[string]string `json:"deps"`
	Code string            `json:"code"`
}

// Edge is a resolved import from one module to another.
type Edge struct {
	From      string `json:"from"`
	Specifier string `json:"specifier"`
	To        string `json:"to"`
}

// MissingRef is a dependency value with no matching graph key.
type MissingRef struct {
	From      string
	Specifier string
	To        string
}

// ClosureError reports dependency values that are not graph keys. A graph
// in this state would fail at run time with an undefined module.
type ClosureError struct {
	Missing []MissingRef
}

func (e *ClosureError) Error() string {
	parts := make([]string, 0, len(e.Missing))
	for _, m := range e.Missing {
		parts = append(parts, fmt.Sprintf("%s imports %q -> %s", m.From, m.Specifier, m.To))
	}
	return fmt.Sprintf("dependency graph is not closed: %s", strings.Join(parts, ", "))
}
