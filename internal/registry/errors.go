package registry

import (
	"fmt"
	"strings"

	"github.com/jward/pysubclasses/internal/pyfacts"
)

// AmbiguousClassError reports a bare-name root lookup matching classes in
// more than one module. Candidates are sorted by (module, name) so the
// message is stable.
type AmbiguousClassError struct {
	Name       string
	Candidates []pyfacts.ClassID
}

func (e *AmbiguousClassError) Error() string {
	mods := make([]string, len(e.Candidates))
	for i, id := range e.Candidates {
		mods[i] = id.Module
	}
	return fmt.Sprintf("Class '%s' found in multiple modules: %s", e.Name, strings.Join(mods, ", "))
}

// ClassNotFoundError reports a root lookup that matched nothing. Module is
// empty for bare-name lookups.
type ClassNotFoundError struct {
	Name   string
	Module string
}

func (e *ClassNotFoundError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("Class '%s' not found", e.Name)
	}
	return fmt.Sprintf("Class '%s' not found in module '%s'", e.Name, e.Module)
}

// InternalError reports an invariant violation inside the analysis itself,
// as opposed to a problem with the user's query or source tree.
type InternalError struct {
	Message string
}

func (e *InternalError) Error() string {
	return "internal error: " + e.Message
}
