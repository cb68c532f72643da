package pyfacts

import (
	"path/filepath"
	"strings"
)

// ModulePath converts a file path (relative to the analysis root) to a
// dotted Python module path. Package __init__.py files map to the package's
// own path ("pkg/__init__.py" -> "pkg"); other files map to
// "<package>.<filename>" ("pkg/mod.py" -> "pkg.mod").
//
// isPackage reports whether the file is a package __init__.py. ok is false
// when the path yields no module (a root-level __init__.py, or a non-.py
// file).
func ModulePath(relPath string) (module string, isPackage bool, ok bool) {
	rel := filepath.ToSlash(relPath)
	if !strings.HasSuffix(rel, ".py") {
		return "", false, false
	}
	rel = strings.TrimSuffix(rel, ".py")

	parts := strings.Split(rel, "/")
	if last := parts[len(parts)-1]; last == "__init__" {
		isPackage = true
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return "", isPackage, false
	}
	return strings.Join(parts, "."), isPackage, true
}

// resolveRelativeBase converts a relative import's leading-dot count to the
// absolute base module path it refers to, per PEP 328: one dot means the
// current package, each additional dot ascends one level. For a package
// (__init__.py) the current package is the module itself; for a regular
// module it is the module's parent.
//
// ok is false when the import ascends above the analysis root; such imports
// produce no binding and the name later resolves as Unresolved.
func resolveRelativeBase(currentModule string, level int, isPackage bool) (string, bool) {
	if level <= 0 {
		return "", false
	}
	parts := strings.Split(currentModule, ".")

	ascend := level
	if isPackage {
		ascend = level - 1
	}
	keep := len(parts) - ascend
	if keep < 0 {
		return "", false
	}
	return strings.Join(parts[:keep], "."), true
}

// joinModule joins dotted module path segments, skipping empties.
func joinModule(segments ...string) string {
	var nonEmpty []string
	for _, s := range segments {
		if s != "" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	return strings.Join(nonEmpty, ".")
}
