package transform

import (
	"fmt"
	"strings"
)

// Tag prefixes every user-visible diagnostic so build logs stay
// greppable.
const Tag = "[use-client]"

// SideEffectImportError reports a bare side-effect import in a module
// containing handlers. Always fatal: a globally ordered effect can
// neither be hoisted into nor erased from an extracted client module.
type SideEffectImportError struct {
	ID        string
	Statement string
}

func (e *SideEffectImportError) Error() string {
	return fmt.Sprintf("%s %s: modules with side-effect imports cannot contain client handlers (%s)", Tag, e.ID, e.Statement)
}

// UnsafeCallableError reports a call, construction or tagged-template use
// of a declaration name that extraction rebinds to a URL string. Always
// fatal: the use would become a runtime error on the server.
type UnsafeCallableError struct {
	ID   string
	Name string
	Use  string // "called", "constructed", "used as a tagged template"
}

func (e *UnsafeCallableError) Error() string {
	return fmt.Sprintf("%s %s: handler %q is %s elsewhere in the module; after extraction it is a URL string, not a function", Tag, e.ID, e.Name, e.Use)
}

// UnsupportedSyntaxError reports a handler form the transform refuses to
// extract, such as a generator function.
type UnsupportedSyntaxError struct {
	ID     string
	Reason string
}

func (e *UnsupportedSyntaxError) Error() string {
	return fmt.Sprintf("%s %s: %s", Tag, e.ID, e.Reason)
}

// UnresolvedReferenceError lists handler references with no import, top
// level declaration, or known global. Whether it surfaces as an error, a
// warning, or not at all is the policy engine's call.
type UnresolvedReferenceError struct {
	ID    string
	Names []string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("%s %s: handler references unresolved names: %s", Tag, e.ID, strings.Join(e.Names, ", "))
}
