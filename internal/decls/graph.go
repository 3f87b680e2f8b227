// Package decls models the declaration graph of an analysed unit: classes,
// interfaces, objects, annotation classes and type aliases, connected by
// supertype and alias-expansion edges.
//
// A Graph is produced once by Builder.Freeze and is read-only afterwards, so
// any number of goroutines may traverse it without synchronisation. Edges may
// form cycles when the input program is malformed; every traversal in this
// module carries its own visited set.
package decls

import (
	"smartcast/internal/source"
	"smartcast/internal/types"
)

// Graph is the frozen declaration graph of one unit.
type Graph struct {
	nodes  []Node
	names  *source.Interner
	byName map[source.StringID]DeclID
}

// Node returns the node for id. The returned node must not be modified.
func (g *Graph) Node(id DeclID) (*Node, bool) {
	if g == nil || !id.IsValid() || int(id) >= len(g.nodes) {
		return nil, false
	}
	return &g.nodes[id], true
}

// MustNode returns the node or a DanglingError.
func (g *Graph) MustNode(id DeclID) (*Node, error) {
	n, ok := g.Node(id)
	if !ok {
		return nil, &DanglingError{ID: id}
	}
	return n, nil
}

// Len reports the number of declarations.
func (g *Graph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes) - 1
}

// Nodes exposes the declarations in id order without the sentinel.
func (g *Graph) Nodes() []Node {
	if g == nil || len(g.nodes) <= 1 {
		return nil
	}
	return g.nodes[1:]
}

// Lookup finds a declaration by name.
func (g *Graph) Lookup(name string) (DeclID, bool) {
	if g == nil {
		return NoDeclID, false
	}
	nameID, ok := g.names.Find(name)
	if !ok {
		return NoDeclID, false
	}
	id, ok := g.byName[nameID]
	return id, ok
}

// DeclName implements types.Namer.
func (g *Graph) DeclName(id DeclID) string {
	n, ok := g.Node(id)
	if !ok {
		return ""
	}
	s, _ := g.names.Lookup(n.Name)
	return s
}

// Label renders t using the graph's names.
func (g *Graph) Label(t types.Type) string {
	return types.Label(g, t)
}

// IsFinal reports whether no declaration can subtype id: final classes and
// objects. Interfaces, abstract, sealed and open classes can be extended.
func (g *Graph) IsFinal(id DeclID) bool {
	n, ok := g.Node(id)
	if !ok {
		return false
	}
	switch n.Kind {
	case KindObject:
		return true
	case KindClass:
		return n.Modifiers.Has(ModFinal)
	default:
		return false
	}
}

// TopName is the root class every declaration implicitly extends.
const TopName = "Any"

// IsTop reports whether id is the root class: a class named Any without
// supertypes of its own.
func (g *Graph) IsTop(id DeclID) bool {
	n, ok := g.Node(id)
	if !ok || n.Kind != KindClass || len(n.Supertypes) != 0 {
		return false
	}
	return g.DeclName(id) == TopName
}
