package pysubclasses

import "github.com/jward/pysubclasses/internal/registry"

// AmbiguousClassError reports a bare-name query matching classes in more
// than one module. The caller disambiguates by passing a module qualifier.
type AmbiguousClassError = registry.AmbiguousClassError

// ClassNotFoundError reports a query that matched no class.
type ClassNotFoundError = registry.ClassNotFoundError

// InternalError reports an invariant violation inside the analysis.
type InternalError = registry.InternalError
