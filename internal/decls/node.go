package decls

import (
	"slices"

	"smartcast/internal/source"
	"smartcast/internal/types"
)

// DeclID identifies a node in the graph.
type DeclID = types.DeclID

// NoDeclID marks the absence of a declaration.
const NoDeclID = types.NoDeclID

// AnnotationID is the DeclID of an annotation class attached to a node.
type AnnotationID = types.DeclID

// Kind classifies declaration nodes.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindClass
	KindInterface
	KindObject
	KindAnnotation
	KindAlias
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindObject:
		return "object"
	case KindAnnotation:
		return "annotation"
	case KindAlias:
		return "alias"
	default:
		return "invalid"
	}
}

// ParseKind maps the textual kind used by unit descriptions.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "class":
		return KindClass, true
	case "interface":
		return KindInterface, true
	case "object":
		return KindObject, true
	case "annotation":
		return KindAnnotation, true
	case "alias", "typealias":
		return KindAlias, true
	default:
		return KindInvalid, false
	}
}

// IsClassLike reports whether nodes of this kind have supertype edges.
func (k Kind) IsClassLike() bool {
	return k == KindClass || k == KindInterface || k == KindObject || k == KindAnnotation
}

// Modifiers encode declaration modifiers for quick checks.
type Modifiers uint16

const (
	ModFinal Modifiers = 1 << iota
	ModAbstract
	ModSealed
	ModOpen
	ModInner
	ModLocal
	ModCompanion
	ModAnonymous
)

var modifierNames = [...]struct {
	mod  Modifiers
	name string
}{
	{ModFinal, "final"},
	{ModAbstract, "abstract"},
	{ModSealed, "sealed"},
	{ModOpen, "open"},
	{ModInner, "inner"},
	{ModLocal, "local"},
	{ModCompanion, "companion"},
	{ModAnonymous, "anonymous"},
}

// ParseModifier maps a modifier keyword to its flag.
func ParseModifier(s string) (Modifiers, bool) {
	for _, m := range modifierNames {
		if m.name == s {
			return m.mod, true
		}
	}
	return 0, false
}

// Has reports whether every flag in m is set.
func (f Modifiers) Has(m Modifiers) bool { return f&m == m }

// Strings returns textual labels of the set flags.
func (f Modifiers) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 2)
	for _, m := range modifierNames {
		if f&m.mod != 0 {
			labels = append(labels, m.name)
		}
	}
	return labels
}

// Node is a single declaration. Nodes are owned by a Graph and must not be
// modified once the graph is frozen.
type Node struct {
	ID          DeclID
	Name        source.StringID
	Kind        Kind
	Modifiers   Modifiers
	Supertypes  []types.Type // class-like only; nominal references
	Expansion   types.Type   // alias only
	Annotations []AnnotationID
	Span        source.Span
	NameSpan    source.Span
	KeywordSpan source.Span
}

// IsAlias reports whether the node is a type alias.
func (n *Node) IsAlias() bool { return n != nil && n.Kind == KindAlias }

// HasAnnotation reports whether id is directly attached to the node.
func (n *Node) HasAnnotation(id AnnotationID) bool {
	return n != nil && slices.Contains(n.Annotations, id)
}
