package pysubclasses

import (
	"github.com/jward/pysubclasses/internal/graph"
	"github.com/jward/pysubclasses/internal/pyfacts"
)

// ClassID identifies a class by defining module and dot-qualified name.
type ClassID = pyfacts.ClassID

// ParseError is a per-file extraction failure. Collected during Analyze,
// never fatal.
type ParseError = pyfacts.ParseError

// Mode selects the extent of a subclass query.
type Mode = graph.Mode

const (
	// ModeAll returns every transitive subclass.
	ModeAll = graph.All
	// ModeDirect returns immediate subclasses only.
	ModeDirect = graph.Direct
)

// ClassRef is one class in a query result.
type ClassRef struct {
	ClassName  string `json:"class_name"`
	ModulePath string `json:"module_path"`
	FilePath   string `json:"file_path"`
}

// CacheStats counts cache outcomes for the last Analyze run.
type CacheStats struct {
	Hits   int
	Misses int
}
