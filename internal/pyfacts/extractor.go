// Package pyfacts extracts structured class and import facts from Python
// source files. It is purely syntactic: base-class expressions are recorded
// as unresolved BaseRefs and imports as per-module name bindings, for the
// registry and resolver to cross-reference later.
package pyfacts

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// Extract parses one Python file and returns its facts. module is the
// file's dotted module path and isPackage reports whether the file is a
// package __init__.py (both derived via ModulePath).
//
// tree-sitter is error-tolerant: a file with syntax errors still yields
// partial facts, and the error is reported alongside them so the caller can
// collect it as a per-file diagnostic.
func Extract(ctx context.Context, content []byte, filePath, module string, isPackage bool) (*FileFacts, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, &ParseError{FilePath: filePath, Message: err.Error()}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, &ParseError{FilePath: filePath, Message: "parser returned no syntax tree"}
	}

	ex := &extractor{
		content:   content,
		filePath:  filePath,
		module:    module,
		isPackage: isPackage,
	}
	ex.walkModule(root)

	facts := &FileFacts{
		FilePath:  filePath,
		Module:    module,
		IsPackage: isPackage,
		Classes:   ex.classes,
		Imports:   ex.imports,
	}
	if root.HasError() {
		return facts, &ParseError{FilePath: filePath, Message: "source contains syntax errors"}
	}
	return facts, nil
}

type extractor struct {
	content   []byte
	filePath  string
	module    string
	isPackage bool

	classes []ClassDef
	imports []ImportBinding
}

func (ex *extractor) text(n *sitter.Node) string {
	return string(ex.content[n.StartByte():n.EndByte()])
}

// walkModule processes module-level statements: class definitions (possibly
// decorated), import statements, and the first branch of conditional blocks.
// Function bodies are never entered, so classes defined inside functions are
// ignored; they have no stable static identity.
func (ex *extractor) walkModule(root *sitter.Node) {
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		switch child.Type() {
		case "class_definition":
			ex.processClass(child, "")
		case "decorated_definition":
			if def := namedChildOfType(child, "class_definition"); def != nil {
				ex.processClass(def, "")
			}
		case "import_statement":
			ex.processImport(child)
		case "import_from_statement":
			ex.processImportFrom(child)
		case "if_statement", "try_statement":
			// Conditional imports: only the first branch is scanned.
			// Later branches (elif/else/except) are ignored, not merged.
			if block := namedChildOfType(child, "block"); block != nil {
				ex.walkImportsOnly(block)
			}
		}
	}
}

// walkImportsOnly extracts import statements from a conditional block
// without descending further.
func (ex *extractor) walkImportsOnly(block *sitter.Node) {
	for i := 0; i < int(block.ChildCount()); i++ {
		child := block.Child(i)
		switch child.Type() {
		case "import_statement":
			ex.processImport(child)
		case "import_from_statement":
			ex.processImportFrom(child)
		}
	}
}

// processClass records one class statement and recurses into its body for
// nested classes, which receive dot-qualified names ("Outer.Inner").
func (ex *extractor) processClass(node *sitter.Node, parent string) {
	var name string
	var bases []BaseRef
	var body *sitter.Node

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = ex.text(child)
			}
		case "argument_list":
			bases = ex.extractBases(child)
		case "block":
			body = child
		}
	}
	if name == "" {
		return
	}
	if parent != "" {
		name = parent + "." + name
	}

	def := ClassDef{
		ID:       ClassID{Module: ex.module, Name: name},
		FilePath: ex.filePath,
		Bases:    bases,
	}
	// Redefinition within a file: the last statement wins, as at runtime.
	replaced := false
	for i := range ex.classes {
		if ex.classes[i].ID == def.ID {
			ex.classes[i] = def
			replaced = true
			break
		}
	}
	if !replaced {
		ex.classes = append(ex.classes, def)
	}

	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		switch child.Type() {
		case "class_definition":
			ex.processClass(child, name)
		case "decorated_definition":
			if def := namedChildOfType(child, "class_definition"); def != nil {
				ex.processClass(def, name)
			}
		}
	}
}

// extractBases converts a class statement's argument list into BaseRefs in
// source order.
func (ex *extractor) extractBases(args *sitter.Node) []BaseRef {
	var bases []BaseRef
	for i := 0; i < int(args.ChildCount()); i++ {
		arg := args.Child(i)
		switch arg.Type() {
		case "(", ")", ",", "comment":
			continue
		case "keyword_argument":
			bases = append(bases, ex.keywordBase(arg))
		default:
			if ref, ok := ex.baseRef(arg); ok {
				bases = append(bases, ref)
			} else {
				bases = append(bases, BaseRef{Kind: BaseUnsupported, Name: ex.text(arg)})
			}
		}
	}
	return bases
}

// baseRef classifies a single positional base expression.
func (ex *extractor) baseRef(node *sitter.Node) (BaseRef, bool) {
	switch node.Type() {
	case "identifier":
		return BaseRef{Kind: BaseSimple, Name: ex.text(node)}, true
	case "attribute":
		full := ex.text(node)
		if dot := strings.LastIndex(full, "."); dot >= 0 {
			return BaseRef{Kind: BaseAttribute, Alias: full[:dot], Name: full[dot+1:]}, true
		}
		return BaseRef{Kind: BaseSimple, Name: full}, true
	case "subscript":
		// Generic[T], Dict[str, int]: keep the unsubscripted head.
		if head := node.Child(0); head != nil {
			return ex.baseRef(head)
		}
		return BaseRef{}, false
	case "string":
		// Forward reference: best-effort literal match on the quoted text.
		literal, ok := unquoteString(ex.text(node))
		if !ok || literal == "" {
			return BaseRef{}, false
		}
		return BaseRef{Kind: BaseSimple, Name: literal}, true
	default:
		return BaseRef{}, false
	}
}

// keywordBase records keyword arguments in the base list. metaclass= is
// tracked as its own kind; anything else (slots=True, ...) is unsupported.
func (ex *extractor) keywordBase(node *sitter.Node) BaseRef {
	var key, value string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if key == "" {
				key = ex.text(child)
			} else {
				value = ex.text(child)
			}
		case "attribute":
			value = ex.text(child)
		}
	}
	if key == "metaclass" && value != "" {
		return BaseRef{Kind: BaseMetaclass, Name: value}
	}
	return BaseRef{Kind: BaseUnsupported, Name: ex.text(node)}
}

// processImport handles `import foo.bar` and `import foo.bar as fb`.
func (ex *extractor) processImport(node *sitter.Node) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "dotted_name":
			path := ex.text(child)
			ex.imports = append(ex.imports, ImportBinding{LocalName: path, Module: path})
		case "aliased_import":
			var path, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					path = ex.text(gc)
				case "identifier":
					alias = ex.text(gc)
				}
			}
			if path != "" && alias != "" {
				ex.imports = append(ex.imports, ImportBinding{LocalName: alias, Module: path})
			}
		}
	}
}

// processImportFrom handles `from x import y`, `from x import y as z`, and
// relative forms `from .x import y`. Wildcard imports produce no bindings:
// star-import names conservatively resolve as Unresolved rather than
// guessing __all__ semantics.
func (ex *extractor) processImportFrom(node *sitter.Node) {
	var fromModule string
	var level int
	sawImport := false

	type namedImport struct{ name, alias string }
	var names []namedImport

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "import":
			sawImport = true
		case "relative_import":
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "import_prefix":
					level = len(ex.text(gc))
				case "dotted_name":
					fromModule = ex.text(gc)
				}
			}
		case "dotted_name":
			if !sawImport {
				fromModule = ex.text(child)
			} else {
				names = append(names, namedImport{name: ex.text(child)})
			}
		case "identifier":
			if sawImport {
				names = append(names, namedImport{name: ex.text(child)})
			}
		case "aliased_import":
			var name, alias string
			for j := 0; j < int(child.ChildCount()); j++ {
				gc := child.Child(j)
				switch gc.Type() {
				case "dotted_name":
					if name == "" {
						name = ex.text(gc)
					}
				case "identifier":
					if name == "" {
						name = ex.text(gc)
					} else {
						alias = ex.text(gc)
					}
				}
			}
			if name != "" {
				names = append(names, namedImport{name: name, alias: alias})
			}
		case "wildcard_import":
			return
		}
	}

	base := fromModule
	if level > 0 {
		rel, ok := resolveRelativeBase(ex.module, level, ex.isPackage)
		if !ok {
			// Ascends above the analysis root: no bindings.
			return
		}
		base = joinModule(rel, fromModule)
	}

	for _, n := range names {
		local := n.alias
		if local == "" {
			local = n.name
		}
		ex.imports = append(ex.imports, ImportBinding{
			LocalName: local,
			Module:    base,
			Symbol:    n.name,
		})
	}
}

// unquoteString strips a Python string literal down to its content: any
// prefix letters (r, b, u, f in either case), then a matched quote pair,
// triple or single. Anything that does not end with the opening quote
// sequence is rejected rather than partially stripped.
func unquoteString(s string) (string, bool) {
	start := strings.IndexAny(s, `"'`)
	if start < 0 {
		return "", false
	}
	s = s[start:]

	quote := s[:1]
	if len(s) >= 6 && (strings.HasPrefix(s, `"""`) || strings.HasPrefix(s, "'''")) {
		quote = s[:3]
	}
	body, ok := strings.CutPrefix(s, quote)
	if !ok {
		return "", false
	}
	body, ok = strings.CutSuffix(body, quote)
	if !ok {
		return "", false
	}
	return body, true
}

// namedChildOfType returns the first direct child with the given node type.
func namedChildOfType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		if child := node.Child(i); child.Type() == nodeType {
			return child
		}
	}
	return nil
}
