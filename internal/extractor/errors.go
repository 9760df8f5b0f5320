package extractor

import (
	"fmt"
	"strings"
)

// ParseError reports source text that is not valid for the grammar.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error in %s:%d:%d: %s", e.Path, e.Line, e.Column, e.Msg)
}

// TransformError reports valid syntax the transformer could not downlevel.
type TransformError struct {
	Path     string
	Messages []string
}

func (e *TransformError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("transform failed for %s", e.Path)
	}
	return fmt.Sprintf("transform failed for %s: %s", e.Path, strings.Join(e.Messages, "; "))
}
