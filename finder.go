package pysubclasses

import (
	"fmt"

	"github.com/jward/pysubclasses/internal/pyfacts"
)

// FindSubclasses returns the subclasses of the named class, sorted by
// (module, name). module may be empty when the bare name is unique across
// the tree; otherwise the lookup fails with an AmbiguousClassError listing
// every candidate. A class with no subclasses yields an empty slice.
func (e *Engine) FindSubclasses(name, module string, mode Mode) ([]ClassRef, error) {
	root, err := e.lookupRoot(name, module)
	if err != nil {
		return nil, err
	}
	return e.refs(e.graph.Subclasses(root, mode)), nil
}

// FindParents returns the direct superclasses of the named class that were
// resolved within the tree, sorted by (module, name).
func (e *Engine) FindParents(name, module string) ([]ClassRef, error) {
	root, err := e.lookupRoot(name, module)
	if err != nil {
		return nil, err
	}
	return e.refs(e.graph.Parents(root)), nil
}

// ResolveClass resolves a class name (optionally module-qualified) to the
// class it denotes, following re-exports to the defining module.
func (e *Engine) ResolveClass(name, module string) (ClassRef, error) {
	root, err := e.lookupRoot(name, module)
	if err != nil {
		return ClassRef{}, err
	}
	return e.ref(root), nil
}

// ClassCount returns the number of classes discovered by the last Analyze.
func (e *Engine) ClassCount() int {
	if e.registry == nil {
		return 0
	}
	return e.registry.ClassCount()
}

func (e *Engine) lookupRoot(name, module string) (pyfacts.ClassID, error) {
	if e.registry == nil {
		return pyfacts.ClassID{}, fmt.Errorf("engine not analyzed yet")
	}
	return e.registry.LookupRoot(name, module)
}

func (e *Engine) refs(ids []pyfacts.ClassID) []ClassRef {
	out := make([]ClassRef, len(ids))
	for i, id := range ids {
		out[i] = e.ref(id)
	}
	return out
}

func (e *Engine) ref(id pyfacts.ClassID) ClassRef {
	ref := ClassRef{ClassName: id.Name, ModulePath: id.Module}
	if def, ok := e.registry.Class(id); ok {
		ref.FilePath = def.FilePath
	}
	return ref
}
