// Package types holds the immutable type model shared by the narrowing engine
// and the checkers: nominal references, alias references, intersections and
// the error type. Types are plain values; slices inside a Type are never
// mutated after construction and may be shared between copies.
package types

import "fmt"

// DeclID identifies a declaration (class, interface, object, annotation or
// alias) inside a declaration graph.
type DeclID uint32

// NoDeclID marks the absence of a declaration.
const NoDeclID DeclID = 0

// IsValid reports whether the id refers to an allocated declaration.
func (id DeclID) IsValid() bool { return id != NoDeclID }

// Kind enumerates the variants of Type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNominal
	KindAlias
	KindIntersection
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNominal:
		return "nominal"
	case KindAlias:
		return "alias"
	case KindIntersection:
		return "intersection"
	case KindError:
		return "error"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor of a resolved type.
type Type struct {
	Kind     Kind
	Decl     DeclID // nominal and alias references
	Nullable bool   // outer '?' marker
	Args     []Type // nominal type arguments
	Parts    []Type // intersection components, flattened and canonically ordered
}

// MakeNominal describes a reference to a class-like declaration.
func MakeNominal(decl DeclID, nullable bool, args ...Type) Type {
	t := Type{Kind: KindNominal, Decl: decl, Nullable: nullable}
	if len(args) > 0 {
		t.Args = append([]Type(nil), args...)
	}
	return t
}

// MakeAlias describes a reference to a type alias.
func MakeAlias(decl DeclID, nullable bool) Type {
	return Type{Kind: KindAlias, Decl: decl, Nullable: nullable}
}

// MakeIntersection builds a flattened intersection of parts in canonical
// order. It panics when fewer than two distinct parts remain; callers that
// may see a single part should use typeops.Intersect instead.
func MakeIntersection(parts ...Type) Type {
	flat := Flatten(parts)
	SortCanonical(flat)
	flat = dedupSorted(flat)
	if len(flat) < 2 {
		panic("types: intersection needs at least two distinct parts")
	}
	nullable := true
	for _, p := range flat {
		nullable = nullable && p.Nullable
	}
	return Type{Kind: KindIntersection, Parts: flat, Nullable: nullable}
}

// Error returns the error/unknown type.
func Error() Type {
	return Type{Kind: KindError}
}

// IsValid reports whether t carries a kind.
func (t Type) IsValid() bool { return t.Kind != KindInvalid }

// IsError reports whether t is the error type.
func (t Type) IsError() bool { return t.Kind == KindError }

// IsNullable reports whether null is a possible value of t.
func (t Type) IsNullable() bool { return t.Nullable }

// WithNullable returns a copy of t with the outer marker replaced. For an
// intersection the marker is applied to every part so that the
// intersection invariant (nullable iff every part is nullable) holds.
func (t Type) WithNullable(nullable bool) Type {
	if t.Kind != KindIntersection {
		t.Nullable = nullable
		return t
	}
	parts := make([]Type, len(t.Parts))
	for i, p := range t.Parts {
		parts[i] = p.WithNullable(nullable)
	}
	t.Parts = parts
	t.Nullable = nullable
	return t
}

// Flatten expands nested intersections into their parts.
func Flatten(ts []Type) []Type {
	out := make([]Type, 0, len(ts))
	for _, t := range ts {
		if t.Kind == KindIntersection {
			out = append(out, Flatten(t.Parts)...)
			continue
		}
		out = append(out, t)
	}
	return out
}

func dedupSorted(ts []Type) []Type {
	if len(ts) < 2 {
		return ts
	}
	out := ts[:1]
	for _, t := range ts[1:] {
		if !Equal(out[len(out)-1], t) {
			out = append(out, t)
		}
	}
	return out
}
