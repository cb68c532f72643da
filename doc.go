// Package pysubclasses statically finds the subclasses of a Python class
// across a source tree, without importing or executing any Python.
//
// An Engine walks a directory of .py files, extracts class definitions and
// import bindings from each file via tree-sitter, resolves base-class
// expressions through the tree's import graph (aliases, relative imports,
// re-exports), and builds an inheritance graph. Queries then answer which
// classes inherit from a given root, directly or transitively.
//
// Extraction results are cached per file in SQLite, keyed by a content
// fingerprint, so re-running over a mostly unchanged tree only re-parses
// what changed. The cache never affects results, only speed.
//
//	eng, err := pysubclasses.New("./src")
//	if err != nil { ... }
//	defer eng.Close()
//	if err := eng.Analyze(ctx); err != nil { ... }
//	subs, err := eng.FindSubclasses("Animal", "", pysubclasses.ModeAll)
package pysubclasses
