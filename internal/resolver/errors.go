package resolver

import "fmt"

type UnresolvedReason string

const (
	ReasonBareSpecifier UnresolvedReason = "bare_specifier"
	ReasonOutsideRoot   UnresolvedReason = "outside_root"
	ReasonNotFound      UnresolvedReason = "not_found"
	ReasonEmpty         UnresolvedReason = "empty_specifier"
)

// UnresolvedError reports an import specifier that cannot be mapped to a
// module file under the project root.
type UnresolvedError struct {
	Importer  string
	Specifier string
	Reason    UnresolvedReason
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("cannot resolve %q from %s: %s", e.Specifier, e.Importer, e.Reason)
}
