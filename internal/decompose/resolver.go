package decompose

import (
	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/overseer/internal/pysrc"
)

// Resolver answers transitive dependency questions about one SourceUnit.
// The reference graph is built once up front; closures are breadth-first
// traversals with an explicit visited set, so helper-to-helper cycles
// terminate. Closure results are linearized in original source order, not
// discovery order, which keeps repeated runs byte-identical.
type Resolver struct {
	unit        *pysrc.SourceUnit
	adjacency   map[string]map[string]graph.Edge[string]
	helperNames map[string]bool
	constNames  map[string]bool
}

// NewResolver builds the directed reference graph over the unit's
// declarations and constants. Edges point from a name to the private
// helpers and constants it references; references to anything else never
// participate in a closure.
func NewResolver(unit *pysrc.SourceUnit) *Resolver {
	r := &Resolver{
		unit:        unit,
		helperNames: make(map[string]bool),
		constNames:  make(map[string]bool),
	}

	g := graph.New(graph.StringHash, graph.Directed())

	for _, d := range unit.Decls {
		_ = g.AddVertex(d.Name)
		if !d.Public {
			r.helperNames[d.Name] = true
		}
	}
	for _, c := range unit.Constants {
		_ = g.AddVertex(c.Name)
		r.constNames[c.Name] = true
	}

	for _, d := range unit.Decls {
		r.addRefEdges(g, d.Name)
	}
	for _, c := range unit.Constants {
		r.addRefEdges(g, c.Name)
	}

	r.adjacency, _ = g.AdjacencyMap()
	return r
}

func (r *Resolver) addRefEdges(g graph.Graph[string, string], name string) {
	for ref := range r.unit.Refs(name) {
		if ref == name {
			continue
		}
		if r.helperNames[ref] || r.constNames[ref] {
			_ = g.AddEdge(name, ref)
		}
	}
}

// HelperClosure returns the private helpers transitively referenced by the
// named declaration, in source order. Traversal expands only through
// helper references; constants reached along the way do not widen it.
func (r *Resolver) HelperClosure(declName string) []pysrc.Declaration {
	visited := make(map[string]bool)
	queue := []string{declName}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for target := range r.adjacency[current] {
			if r.helperNames[target] && !visited[target] {
				visited[target] = true
				queue = append(queue, target)
			}
		}
	}

	var out []pysrc.Declaration
	for _, d := range r.unit.PrivateDecls() {
		if visited[d.Name] {
			out = append(out, d)
		}
	}
	return out
}

// ConstantClosure returns the constants reachable from the given set of
// needed names, pulling in constants that other constants reference, in
// source order.
func (r *Resolver) ConstantClosure(needed map[string]struct{}) []pysrc.ConstantBinding {
	found := make(map[string]bool)
	var queue []string
	for _, c := range r.unit.Constants {
		if _, ok := needed[c.Name]; ok && !found[c.Name] {
			found[c.Name] = true
			queue = append(queue, c.Name)
		}
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for target := range r.adjacency[current] {
			if r.constNames[target] && !found[target] {
				found[target] = true
				queue = append(queue, target)
			}
		}
	}

	var out []pysrc.ConstantBinding
	for _, c := range r.unit.Constants {
		if found[c.Name] {
			out = append(out, c)
		}
	}
	return out
}

// FilterImports keeps the original import statements that provide at least
// one needed name. No reordering, merging, or splitting — the matched
// statements are retained verbatim in source order.
func (r *Resolver) FilterImports(needed map[string]struct{}) []pysrc.ImportStatement {
	var out []pysrc.ImportStatement
	for _, imp := range r.unit.Imports {
		for _, name := range imp.Provides {
			if _, ok := needed[name]; ok {
				out = append(out, imp)
				break
			}
		}
	}
	return out
}
