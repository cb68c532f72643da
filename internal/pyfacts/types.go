package pyfacts

import "fmt"

// ClassID uniquely identifies a class by its defining module and its
// dot-qualified name within that module (nested classes are "Outer.Inner").
// Two classes with the same bare name in different modules have different
// ClassIDs and are distinct entities.
type ClassID struct {
	Module string `json:"module"`
	Name   string `json:"name"`
}

// Qualified returns the fully qualified name, e.g. "pkg.mod.Outer.Inner".
func (id ClassID) Qualified() string {
	return id.Module + "." + id.Name
}

func (id ClassID) String() string {
	return id.Qualified()
}

// Less orders ClassIDs by (module, name) for deterministic output.
func (id ClassID) Less(other ClassID) bool {
	if id.Module != other.Module {
		return id.Module < other.Module
	}
	return id.Name < other.Name
}

// BaseKind tags the syntactic form of a base-class expression.
type BaseKind string

const (
	// BaseSimple is a bare name: class Dog(Animal).
	BaseSimple BaseKind = "simple"
	// BaseAttribute is an attribute access: class Dog(animals.Animal).
	// Alias holds the dotted head ("animals"), Name the final attribute.
	BaseAttribute BaseKind = "attribute"
	// BaseMetaclass is a metaclass= keyword argument. Tracked for
	// diagnostics, never an inheritance edge.
	BaseMetaclass BaseKind = "metaclass"
	// BaseUnsupported is anything else (call expressions, starred args).
	// Retained for verbose reporting only.
	BaseUnsupported BaseKind = "unsupported"
)

// BaseRef is one unresolved base-class expression from a class statement.
// Subscripted generics keep the unsubscripted head (Generic[T] -> Generic);
// string-literal forward references keep the literal text as a Simple ref.
type BaseRef struct {
	Kind  BaseKind `json:"kind"`
	Name  string   `json:"name"`
	Alias string   `json:"alias,omitempty"`
}

func (b BaseRef) String() string {
	if b.Kind == BaseAttribute {
		return b.Alias + "." + b.Name
	}
	return b.Name
}

// ClassDef is one syntactic class statement. Immutable after the registry
// merge.
type ClassDef struct {
	ID       ClassID   `json:"id"`
	FilePath string    `json:"file_path"`
	Bases    []BaseRef `json:"bases,omitempty"`
}

// ImportBinding maps a locally visible name to its target. Symbol is empty
// for a module alias (import foo.bar [as fb]) and holds the original name
// for a symbol import (from foo import Bar [as B]). Relative imports are
// already resolved to absolute module paths.
type ImportBinding struct {
	LocalName string `json:"local_name"`
	Module    string `json:"module"`
	Symbol    string `json:"symbol,omitempty"`
}

// IsModuleAlias reports whether the binding names a whole module.
func (b ImportBinding) IsModuleAlias() bool {
	return b.Symbol == ""
}

// FileFacts is the structured extraction output for one file: the cache
// payload and the registry merge input.
type FileFacts struct {
	FilePath  string          `json:"file_path"`
	Module    string          `json:"module"`
	IsPackage bool            `json:"is_package"`
	Classes   []ClassDef      `json:"classes,omitempty"`
	Imports   []ImportBinding `json:"imports,omitempty"`
}

// ParseError is a per-file extraction failure. Collected and surfaced as a
// diagnostic; never aborts the run.
type ParseError struct {
	FilePath string
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %s", e.FilePath, e.Message)
}
