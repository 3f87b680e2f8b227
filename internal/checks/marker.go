package checks

import (
	"context"
	"fmt"
	"slices"

	"smartcast/internal/decls"
	"smartcast/internal/diag"
	"smartcast/internal/hierarchy"
	"smartcast/internal/source"
)

// MarkerOptions configures the marker class checker. Names are resolved to
// declarations by the loader; unknown names are simply absent.
type MarkerOptions struct {
	Markers              []decls.AnnotationID
	RequiredSupertypes   []decls.DeclID
	DeprecatedSupertypes []decls.DeclID
}

// CheckMarkerClass validates one declaration against the marker rules:
// a marked declaration must be an instantiable, top-level class that
// implements one of the required supertypes, and no class, object or
// interface may extend a deprecated supertype directly.
func CheckMarkerClass(ctx context.Context, g *decls.Graph, id decls.DeclID, r diag.Reporter, opts MarkerOptions) error {
	n, err := g.MustNode(id)
	if err != nil {
		return err
	}
	if err := checkMarked(ctx, g, n, r, opts); err != nil {
		return err
	}
	checkDeprecatedSupertypes(g, n, r, opts)
	return nil
}

func checkMarked(ctx context.Context, g *decls.Graph, n *decls.Node, r diag.Reporter, opts MarkerOptions) error {
	if len(opts.Markers) == 0 {
		return nil
	}
	marked, err := hierarchy.HasMarker(ctx, g, n.ID, opts.Markers)
	if err != nil || !marked {
		return err
	}

	if n.Kind == decls.KindAlias || n.Kind == decls.KindAnnotation ||
		n.Kind == decls.KindInterface && !n.Modifiers.Has(decls.ModSealed) {
		diag.ReportError(r, diag.SemaMarkerShouldBeClass, n.Span).Emit()
		return nil
	}

	if n.Kind == decls.KindClass && n.Modifiers.Has(decls.ModAbstract) {
		diag.ReportError(r, diag.SemaMarkerShouldBeInstantiable, n.Span).Emit()
	}
	if n.Modifiers.Has(decls.ModInner) {
		diag.ReportError(r, diag.SemaMarkerCantBeInner, n.Span).Emit()
	}
	if n.Modifiers.Has(decls.ModLocal) {
		diag.ReportError(r, diag.SemaMarkerCantBeLocal, n.Span).Emit()
	}

	if len(opts.RequiredSupertypes) == 0 {
		return nil
	}
	supers, err := hierarchy.Supertypes(ctx, g, n.ID)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(supers, func(id decls.DeclID) bool { return slices.Contains(opts.RequiredSupertypes, id) }) {
		b := diag.ReportError(r, diag.SemaMarkerMissingSupertype, n.Span)
		for _, req := range opts.RequiredSupertypes {
			b.WithNote(n.NameSpan, fmt.Sprintf("%s is not a supertype of %s", g.DeclName(req), g.DeclName(n.ID)))
		}
		b.Emit()
	}
	return nil
}

func checkDeprecatedSupertypes(g *decls.Graph, n *decls.Node, r diag.Reporter, opts MarkerOptions) {
	if len(opts.DeprecatedSupertypes) == 0 || n.Modifiers.Has(decls.ModCompanion) {
		return
	}
	switch n.Kind {
	case decls.KindClass, decls.KindObject, decls.KindInterface:
	default:
		return
	}
	for _, super := range n.Supertypes {
		if !slices.Contains(opts.DeprecatedSupertypes, super.Decl) {
			continue
		}
		primary, pos := n.NameSpan, diag.PosNameIdentifier
		if n.Modifiers.Has(decls.ModAnonymous) {
			primary, pos = n.KeywordSpan, diag.PosObjectKeyword
		}
		primary = orDecl(primary, n)
		diag.ReportWarning(r, diag.SemaDeprecatedSupertype, primary).
			At(pos).
			WithNote(n.Span, fmt.Sprintf("%s is deprecated", g.DeclName(super.Decl))).
			Emit()
	}
}

// orDecl falls back to the whole declaration when the narrower span was not
// recorded.
func orDecl(sp source.Span, n *decls.Node) source.Span {
	if sp.Empty() {
		return n.Span
	}
	return sp
}
