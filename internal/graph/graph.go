// Package graph builds the inheritance graph from resolved base classes and
// answers reachability queries over it.
package graph

import (
	"sort"

	"github.com/jward/pysubclasses/internal/pyfacts"
	"github.com/jward/pysubclasses/internal/registry"
)

// Mode selects the extent of a subclass query.
type Mode int

const (
	// All returns every transitive subclass.
	All Mode = iota
	// Direct returns immediate subclasses only.
	Direct
)

// Graph is the immutable inheritance graph: an edge parent -> child for
// every base that resolved to a class in the tree. Safe for concurrent
// reads once built.
type Graph struct {
	children map[pyfacts.ClassID][]pyfacts.ClassID
	parents  map[pyfacts.ClassID][]pyfacts.ClassID
	edges    int
}

// Build resolves every base of every class and materializes the edges.
// Classes are visited in sorted ClassID order and adjacency lists are kept
// sorted, so the same tree always produces the identical graph.
func Build(reg *registry.Registry) *Graph {
	g := &Graph{
		children: make(map[pyfacts.ClassID][]pyfacts.ClassID),
		parents:  make(map[pyfacts.ClassID][]pyfacts.ClassID),
	}

	for _, childID := range reg.Classes() {
		def, _ := reg.Class(childID)
		for _, base := range def.Bases {
			res := reg.ResolveBase(base, childID.Module)
			if res.Kind != registry.Resolved {
				continue
			}
			g.addEdge(res.ID, childID)
		}
	}

	for _, adj := range g.children {
		sortIDs(adj)
	}
	for _, adj := range g.parents {
		sortIDs(adj)
	}
	return g
}

// addEdge inserts parent -> child, ignoring duplicates from repeated bases.
func (g *Graph) addEdge(parent, child pyfacts.ClassID) {
	for _, existing := range g.children[parent] {
		if existing == child {
			return
		}
	}
	g.children[parent] = append(g.children[parent], child)
	g.parents[child] = append(g.parents[child], parent)
	g.edges++
}

// EdgeCount returns the number of inheritance edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

// Subclasses returns root's subclasses in (module, name) order. Direct mode
// returns immediate children; All mode walks breadth-first with a visited
// set, so diamonds appear once and inheritance cycles terminate. A root
// with no subclasses yields an empty result.
func (g *Graph) Subclasses(root pyfacts.ClassID, mode Mode) []pyfacts.ClassID {
	if mode == Direct {
		out := make([]pyfacts.ClassID, len(g.children[root]))
		copy(out, g.children[root])
		return out
	}

	visited := map[pyfacts.ClassID]struct{}{root: {}}
	queue := append([]pyfacts.ClassID(nil), g.children[root]...)
	var out []pyfacts.ClassID

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := visited[id]; seen {
			continue
		}
		visited[id] = struct{}{}
		out = append(out, id)
		queue = append(queue, g.children[id]...)
	}

	sortIDs(out)
	return out
}

// Parents returns root's direct superclasses in (module, name) order.
func (g *Graph) Parents(root pyfacts.ClassID) []pyfacts.ClassID {
	out := make([]pyfacts.ClassID, len(g.parents[root]))
	copy(out, g.parents[root])
	return out
}

func sortIDs(ids []pyfacts.ClassID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
}
