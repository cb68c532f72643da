package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jward/pysubclasses"
)

// formatText prints subclasses as aligned columns.
func formatText(w io.Writer, root pysubclasses.ClassRef, subs []pysubclasses.ClassRef) error {
	if len(subs) == 0 {
		fmt.Fprintf(w, "No subclasses of '%s.%s' found.\n", root.ModulePath, root.ClassName)
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CLASS\tMODULE\tFILE")
	for _, s := range subs {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.ClassName, s.ModulePath, s.FilePath)
	}
	return tw.Flush()
}

// jsonResult is the --format json output schema.
type jsonResult struct {
	Class      pysubclasses.ClassRef   `json:"class"`
	Count      int                     `json:"count"`
	Subclasses []pysubclasses.ClassRef `json:"subclasses"`
}

func formatJSON(w io.Writer, root pysubclasses.ClassRef, subs []pysubclasses.ClassRef) error {
	if subs == nil {
		subs = []pysubclasses.ClassRef{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonResult{Class: root, Count: len(subs), Subclasses: subs})
}

// formatDot renders the subclass tree as a Graphviz digraph. Edges run
// child -> parent and only connect classes inside the result set (plus the
// root, which is highlighted).
func formatDot(w io.Writer, eng *pysubclasses.Engine, root pysubclasses.ClassRef, subs []pysubclasses.ClassRef) error {
	qualified := func(r pysubclasses.ClassRef) string {
		return r.ModulePath + "." + r.ClassName
	}

	inSet := map[string]bool{qualified(root): true}
	for _, s := range subs {
		inSet[qualified(s)] = true
	}

	var b strings.Builder
	b.WriteString("digraph subclasses {\n")
	b.WriteString("  rankdir=BT;\n")
	b.WriteString("  node [shape=box, fontname=\"Helvetica\"];\n")
	fmt.Fprintf(&b, "  %s [label=\"%s\", style=filled, fillcolor=lightblue];\n",
		sanitizeForDot(qualified(root)), qualified(root))

	for _, s := range subs {
		fmt.Fprintf(&b, "  %s [label=\"%s\"];\n", sanitizeForDot(qualified(s)), qualified(s))
	}
	for _, s := range subs {
		parents, err := eng.FindParents(s.ClassName, s.ModulePath)
		if err != nil {
			return err
		}
		for _, p := range parents {
			if !inSet[qualified(p)] {
				continue
			}
			fmt.Fprintf(&b, "  %s -> %s;\n",
				sanitizeForDot(qualified(s)), sanitizeForDot(qualified(p)))
		}
	}
	b.WriteString("}\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// sanitizeForDot turns a qualified class name into a valid dot node id.
func sanitizeForDot(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
