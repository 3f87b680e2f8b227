package decls

import (
	"fmt"

	"fortio.org/safecast"

	"smartcast/internal/source"
	"smartcast/internal/types"
)

// Builder accumulates declaration nodes in a slice arena. It is used by the
// resolution pipeline only; analysis code sees the frozen Graph.
type Builder struct {
	nodes  []Node
	names  *source.Interner
	byName map[source.StringID]DeclID
	frozen bool
}

// NewBuilder creates a builder with an optional capacity hint. names may be
// shared with other unit structures; a fresh interner is created when nil.
func NewBuilder(names *source.Interner, capacity uint32) *Builder {
	if capacity == 0 {
		capacity = 32
	}
	if names == nil {
		names = source.NewInterner()
	}
	return &Builder{
		nodes:  make([]Node, 1, capacity+1), // index 0 reserved for NoDeclID
		names:  names,
		byName: make(map[source.StringID]DeclID, capacity),
	}
}

// Declare allocates a node. Names must be unique within a unit.
func (b *Builder) Declare(name string, kind Kind, mods Modifiers) (DeclID, error) {
	b.mustBeOpen()
	if kind == KindInvalid {
		return NoDeclID, fmt.Errorf("declaration %q has no kind", name)
	}
	nameID := b.names.Intern(name)
	if prev, ok := b.byName[nameID]; ok {
		return prev, fmt.Errorf("duplicate declaration %q", name)
	}
	value, err := safecast.Conv[uint32](len(b.nodes))
	if err != nil {
		panic(fmt.Errorf("declaration arena overflow: %w", err))
	}
	id := DeclID(value)
	b.nodes = append(b.nodes, Node{ID: id, Name: nameID, Kind: kind, Modifiers: mods})
	b.byName[nameID] = id
	return id, nil
}

// Lookup finds a declared node by name.
func (b *Builder) Lookup(name string) (DeclID, bool) {
	nameID, ok := b.names.Find(name)
	if !ok {
		return NoDeclID, false
	}
	id, ok := b.byName[nameID]
	return id, ok
}

// Kind returns the kind of a declared node.
func (b *Builder) Kind(id DeclID) Kind {
	if n := b.node(id); n != nil {
		return n.Kind
	}
	return KindInvalid
}

// SetSpans records source locations used for diagnostic positioning.
func (b *Builder) SetSpans(id DeclID, span, nameSpan, keywordSpan source.Span) {
	if n := b.node(id); n != nil {
		n.Span, n.NameSpan, n.KeywordSpan = span, nameSpan, keywordSpan
	}
}

// AddSupertype appends a supertype edge to a class-like node.
func (b *Builder) AddSupertype(id DeclID, super types.Type) error {
	n := b.node(id)
	if n == nil {
		return &DanglingError{ID: id}
	}
	if !n.Kind.IsClassLike() {
		return fmt.Errorf("%s %q cannot have supertypes", n.Kind, b.names.MustLookup(n.Name))
	}
	if super.Kind != types.KindNominal {
		return fmt.Errorf("supertype of %q must be a nominal reference", b.names.MustLookup(n.Name))
	}
	n.Supertypes = append(n.Supertypes, super)
	return nil
}

// SetExpansion sets the expansion edge of an alias node.
func (b *Builder) SetExpansion(id DeclID, expansion types.Type) error {
	n := b.node(id)
	if n == nil {
		return &DanglingError{ID: id}
	}
	if n.Kind != KindAlias {
		return fmt.Errorf("%s %q cannot have an expansion", n.Kind, b.names.MustLookup(n.Name))
	}
	n.Expansion = expansion
	return nil
}

// AddAnnotation attaches an annotation class to a node.
func (b *Builder) AddAnnotation(id DeclID, ann AnnotationID) error {
	n := b.node(id)
	if n == nil {
		return &DanglingError{ID: id}
	}
	if b.node(ann) == nil {
		return &DanglingError{ID: ann}
	}
	if !n.HasAnnotation(ann) {
		n.Annotations = append(n.Annotations, ann)
	}
	return nil
}

// Freeze publishes the accumulated nodes as an immutable Graph. The builder
// must not be used afterwards.
func (b *Builder) Freeze() *Graph {
	b.mustBeOpen()
	b.frozen = true
	g := &Graph{nodes: b.nodes, names: b.names, byName: b.byName}
	b.nodes, b.byName = nil, nil
	return g
}

func (b *Builder) node(id DeclID) *Node {
	if !id.IsValid() || int(id) >= len(b.nodes) {
		return nil
	}
	return &b.nodes[id]
}

func (b *Builder) mustBeOpen() {
	if b.frozen {
		panic("decls: builder used after Freeze")
	}
}
