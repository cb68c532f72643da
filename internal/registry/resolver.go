package registry

import (
	"strings"

	"github.com/jward/pysubclasses/internal/pyfacts"
)

// maxReexportHops bounds the re-export chase so that import cycles
// (a re-exports from b, b re-exports from a) terminate.
const maxReexportHops = 8

// Resolution classifies the outcome of resolving one base expression.
type Resolution int

const (
	// Resolved means the base names a class discovered in the tree.
	Resolved Resolution = iota
	// External means the base lives in a module outside the tree
	// (stdlib, third-party). Not an edge, not a diagnostic.
	External
	// Unresolved means the base could not be followed even though its
	// module is in the tree, or it has no usable form at all.
	Unresolved
)

// ResolvedBase is the result of ResolveBase. ID is meaningful only when
// Kind is Resolved.
type ResolvedBase struct {
	Kind Resolution
	ID   pyfacts.ClassID
}

// ResolveBase resolves one base-class expression in the context of the
// module where the class statement appears. Bare-name ambiguity is never
// raised here: a simple name resolves through the module's own imports and
// definitions only, so classes sharing a name in unrelated modules cannot
// collide.
func (r *Registry) ResolveBase(base pyfacts.BaseRef, module string) ResolvedBase {
	switch base.Kind {
	case pyfacts.BaseSimple:
		// String forward references may carry a dotted path.
		if dot := strings.LastIndex(base.Name, "."); dot >= 0 {
			return r.resolveAttribute(base.Name[:dot], base.Name[dot+1:], module)
		}
		return r.resolveSimple(base.Name, module)
	case pyfacts.BaseAttribute:
		return r.resolveAttribute(base.Alias, base.Name, module)
	default:
		// Metaclass and unsupported expressions never become edges.
		return ResolvedBase{Kind: Unresolved}
	}
}

func (r *Registry) resolveSimple(name, module string) ResolvedBase {
	if binding, ok := r.binding(module, name); ok {
		if binding.IsModuleAlias() {
			// A module used directly as a base is not a class.
			return ResolvedBase{Kind: Unresolved}
		}
		return r.followSymbol(binding)
	}
	id := pyfacts.ClassID{Module: module, Name: name}
	if _, ok := r.byID[id]; ok {
		return ResolvedBase{Kind: Resolved, ID: id}
	}
	// Unimported bare name: a builtin (object, Exception) or a typo.
	return ResolvedBase{Kind: Unresolved}
}

// resolveAttribute handles alias.Name bases. The alias is mapped to a module
// path through the current module's imports; an alias with no binding is
// taken as a literal absolute module path.
func (r *Registry) resolveAttribute(alias, name, module string) ResolvedBase {
	target := r.aliasTarget(alias, module)

	id := pyfacts.ClassID{Module: target, Name: name}
	if _, ok := r.byID[id]; ok {
		return ResolvedBase{Kind: Resolved, ID: id}
	}
	if origin, ok := r.chaseReexport(target, name, 0); ok {
		return ResolvedBase{Kind: Resolved, ID: origin}
	}
	if r.ModuleExists(target) {
		return ResolvedBase{Kind: Unresolved}
	}
	return ResolvedBase{Kind: External}
}

// aliasTarget maps a dotted alias head to the absolute module path it names.
// Exact binding first, then the longest bound prefix with the remainder
// appended (import a.b; class X(a.b.c.Y) walks a.b -> a.b + ".c").
func (r *Registry) aliasTarget(alias, module string) string {
	if binding, ok := r.binding(module, alias); ok {
		return bindingModule(binding)
	}

	prefix := alias
	for {
		dot := strings.LastIndex(prefix, ".")
		if dot < 0 {
			break
		}
		prefix = prefix[:dot]
		if binding, ok := r.binding(module, prefix); ok {
			return bindingModule(binding) + alias[len(prefix):]
		}
	}
	// No binding at all: plain `import a.b` binds the full path verbatim,
	// and absolute dotted references behave the same way.
	return alias
}

// bindingModule returns the module path a binding makes visible. A symbol
// import used as a dotted head means the symbol is itself a submodule
// (from pkg import sub; class X(sub.Y)).
func bindingModule(b pyfacts.ImportBinding) string {
	if b.IsModuleAlias() {
		return b.Module
	}
	return b.Module + "." + b.Symbol
}

// followSymbol resolves a symbol import to the class it ultimately names.
// When the chase dead-ends, the distinction between External and Unresolved
// rests on whether the imported-from module was discovered in the tree.
func (r *Registry) followSymbol(binding pyfacts.ImportBinding) ResolvedBase {
	if origin, ok := r.chaseReexport(binding.Module, binding.Symbol, 0); ok {
		return ResolvedBase{Kind: Resolved, ID: origin}
	}
	if r.ModuleExists(binding.Module) {
		return ResolvedBase{Kind: Unresolved}
	}
	return ResolvedBase{Kind: External}
}

// chaseReexport follows `from impl import Name` chains until it reaches a
// module that actually defines Name, up to maxReexportHops.
func (r *Registry) chaseReexport(module, name string, hops int) (pyfacts.ClassID, bool) {
	if hops > maxReexportHops {
		return pyfacts.ClassID{}, false
	}
	id := pyfacts.ClassID{Module: module, Name: name}
	if _, ok := r.byID[id]; ok {
		return id, true
	}
	binding, ok := r.binding(module, name)
	if !ok || binding.IsModuleAlias() {
		return pyfacts.ClassID{}, false
	}
	return r.chaseReexport(binding.Module, binding.Symbol, hops+1)
}
