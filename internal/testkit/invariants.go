// Package testkit holds invariant checks shared by package tests.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"smartcast/internal/binding"
	"smartcast/internal/decls"
	"smartcast/internal/source"
	"smartcast/internal/types"
)

// CheckSnapshot verifies the structural invariants of a published snapshot:
// 1) every type in the graph and the store references an allocated node
// 2) supertype edges point at class-like nodes, annotations at annotation
// classes, and only aliases carry an expansion
// 3) facts carry valid types
func CheckSnapshot(snap *binding.Snapshot) error {
	if snap == nil {
		return fmt.Errorf("nil snapshot")
	}
	g := snap.Graph()
	for i := range g.Nodes() {
		n := &g.Nodes()[i]
		for _, super := range n.Supertypes {
			if err := checkType(g, super); err != nil {
				return fmt.Errorf("%s: supertype: %w", g.DeclName(n.ID), err)
			}
			target, _ := g.Node(super.Decl)
			if !target.Kind.IsClassLike() {
				return fmt.Errorf("%s: supertype %s is a %s", g.DeclName(n.ID), g.DeclName(super.Decl), target.Kind)
			}
		}
		for _, ann := range n.Annotations {
			a, ok := g.Node(ann)
			if !ok || a.Kind != decls.KindAnnotation {
				return fmt.Errorf("%s: annotation %d is not an annotation class", g.DeclName(n.ID), ann)
			}
		}
		if n.IsAlias() {
			if err := checkType(g, n.Expansion); err != nil {
				return fmt.Errorf("%s: expansion: %w", g.DeclName(n.ID), err)
			}
		} else if n.Expansion.IsValid() {
			return fmt.Errorf("%s: %s carries an expansion", g.DeclName(n.ID), n.Kind)
		}
	}
	st := snap.Store()
	for _, expr := range st.Exprs() {
		for _, f := range snap.Facts(expr) {
			if err := checkType(g, f.Type); err != nil {
				return fmt.Errorf("fact on expr %d: %w", expr, err)
			}
		}
		for _, slot := range snap.Receivers(expr) {
			for _, f := range slot.Facts {
				if err := checkType(g, f.Type); err != nil {
					return fmt.Errorf("fact on %s receiver of expr %d: %w", slot.Kind, expr, err)
				}
			}
		}
	}
	return nil
}

func checkType(g *decls.Graph, t types.Type) error {
	switch t.Kind {
	case types.KindNominal, types.KindAlias:
		if _, ok := g.Node(t.Decl); !ok {
			return &decls.DanglingError{ID: t.Decl}
		}
		for _, arg := range t.Args {
			if err := checkType(g, arg); err != nil {
				return err
			}
		}
	case types.KindIntersection:
		if len(t.Parts) < 2 {
			return fmt.Errorf("intersection with %d parts", len(t.Parts))
		}
		for _, p := range t.Parts {
			if err := checkType(g, p); err != nil {
				return err
			}
		}
	case types.KindError:
	default:
		return fmt.Errorf("invalid type kind %s", t.Kind)
	}
	return nil
}

// CheckSpans verifies that every declaration span lies inside file and that
// name and keyword spans are contained in the declaration span.
func CheckSpans(g *decls.Graph, file *source.File) error {
	if file == nil {
		return fmt.Errorf("nil file")
	}
	lenContent, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	for _, n := range g.Nodes() {
		if n.Span.Empty() {
			continue
		}
		if n.Span.File != file.ID || n.Span.End > lenContent {
			return fmt.Errorf("%s: span %v outside file %s", g.DeclName(n.ID), n.Span, file.Path)
		}
		for _, inner := range []source.Span{n.NameSpan, n.KeywordSpan} {
			if !inner.Empty() && !n.Span.Contains(inner) {
				return fmt.Errorf("%s: span %v not inside declaration %v", g.DeclName(n.ID), inner, n.Span)
			}
		}
	}
	return nil
}
