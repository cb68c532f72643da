// Package registry holds the merged view of all extracted file facts and
// answers symbol-resolution questions over it: where a bare or qualified
// class name is defined, and which class a base-class expression refers to.
package registry

import (
	"fmt"
	"sort"

	"github.com/jward/pysubclasses/internal/pyfacts"
)

// Registry is the merged, immutable fact index. Built once from all file
// facts before any resolution starts; safe for concurrent reads afterwards.
type Registry struct {
	byID    map[pyfacts.ClassID]*pyfacts.ClassDef
	byName  map[string][]pyfacts.ClassID
	imports map[string]map[string]pyfacts.ImportBinding
	modules map[string]struct{}
}

// Build merges per-file facts into a registry. Callers must pass facts in a
// deterministic order (the engine sorts by file path) so that index slices
// come out identical run to run. Two definitions with the same ClassID
// violate the module-path model and surface as an InternalError.
func Build(allFacts []*pyfacts.FileFacts) (*Registry, error) {
	r := &Registry{
		byID:    make(map[pyfacts.ClassID]*pyfacts.ClassDef),
		byName:  make(map[string][]pyfacts.ClassID),
		imports: make(map[string]map[string]pyfacts.ImportBinding),
		modules: make(map[string]struct{}),
	}

	for _, facts := range allFacts {
		r.modules[facts.Module] = struct{}{}

		for i := range facts.Classes {
			def := &facts.Classes[i]
			if prev, dup := r.byID[def.ID]; dup {
				return nil, &InternalError{Message: fmt.Sprintf(
					"class %s defined in both %s and %s", def.ID, prev.FilePath, def.FilePath)}
			}
			r.byID[def.ID] = def
			r.byName[def.ID.Name] = append(r.byName[def.ID.Name], def.ID)
		}

		if len(facts.Imports) > 0 {
			bindings := r.imports[facts.Module]
			if bindings == nil {
				bindings = make(map[string]pyfacts.ImportBinding)
				r.imports[facts.Module] = bindings
			}
			// Later imports shadow earlier ones, matching runtime rebinding.
			for _, b := range facts.Imports {
				bindings[b.LocalName] = b
			}
		}
	}
	return r, nil
}

// ClassCount returns the number of distinct classes in the tree.
func (r *Registry) ClassCount() int {
	return len(r.byID)
}

// Class returns the definition for an exact ClassID.
func (r *Registry) Class(id pyfacts.ClassID) (*pyfacts.ClassDef, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// Classes returns all ClassIDs sorted by (module, name).
func (r *Registry) Classes() []pyfacts.ClassID {
	ids := make([]pyfacts.ClassID, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// ModuleExists reports whether a module path was discovered in the tree.
func (r *Registry) ModuleExists(module string) bool {
	_, ok := r.modules[module]
	return ok
}

// binding returns module's import binding for a local name.
func (r *Registry) binding(module, localName string) (pyfacts.ImportBinding, bool) {
	b, ok := r.imports[module][localName]
	return b, ok
}

// LookupRoot finds the query's starting class. With a module qualifier the
// lookup is exact, except that a module which merely re-exports the name
// (from impl import Name) still counts: the chase follows symbol imports to
// the defining module. A bare name must be unique across the whole tree;
// two or more matches is an AmbiguousClassError listing every candidate.
func (r *Registry) LookupRoot(name, module string) (pyfacts.ClassID, error) {
	if module != "" {
		id := pyfacts.ClassID{Module: module, Name: name}
		if _, ok := r.byID[id]; ok {
			return id, nil
		}
		if origin, ok := r.chaseReexport(module, name, 0); ok {
			return origin, nil
		}
		return pyfacts.ClassID{}, &ClassNotFoundError{Name: name, Module: module}
	}

	candidates := r.byName[name]
	switch len(candidates) {
	case 0:
		return pyfacts.ClassID{}, &ClassNotFoundError{Name: name}
	case 1:
		return candidates[0], nil
	}
	sorted := make([]pyfacts.ClassID, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return pyfacts.ClassID{}, &AmbiguousClassError{Name: name, Candidates: sorted}
}
