package checks

import (
	"context"
	"fmt"

	"smartcast/internal/decls"
	"smartcast/internal/diag"
	"smartcast/internal/source"
	"smartcast/internal/typeops"
	"smartcast/internal/types"
)

// CheckRedundantNullability reports a nullable reference whose '?' adds
// nothing: an alias whose expansion chain is already nullable, or a
// syntactic "A??". At most one diagnostic is emitted per reference.
func CheckRedundantNullability(ctx context.Context, g *decls.Graph, ref *TypeRef, r diag.Reporter) error {
	if ref == nil || !ref.IsMarkedNullable() {
		return nil
	}
	if err := typeops.CheckCancel(ctx); err != nil {
		return err
	}
	if ref.User != nil {
		if ref.User.Inner != nil && ref.User.Inner.Nullable {
			reportRedundant(r, ref).Emit()
		}
		return nil
	}
	if ref.Resolved.Kind != types.KindAlias {
		return nil
	}

	visited := make(map[decls.DeclID]struct{}, 4)
	cur := ref.Resolved
	for cur.Kind == types.KindAlias {
		if _, seen := visited[cur.Decl]; seen {
			// alias cycle
			return nil
		}
		visited[cur.Decl] = struct{}{}
		n, err := g.MustNode(cur.Decl)
		if err != nil {
			return err
		}
		if !n.IsAlias() {
			return nil
		}
		if n.Expansion.IsNullable() {
			reportRedundant(r, ref).
				WithNote(n.NameSpan, fmt.Sprintf("%s expands to %s", g.DeclName(n.ID), g.Label(n.Expansion))).
				Emit()
			return nil
		}
		cur = n.Expansion
	}
	return nil
}

func reportRedundant(r diag.Reporter, ref *TypeRef) *diag.ReportBuilder {
	b := diag.ReportWarning(r, diag.SemaRedundantNullable, ref.Span).At(diag.PosDefault)
	if q := questionSpan(ref); !q.Empty() {
		b.WithFix("remove redundant '?'", diag.FixEdit{Span: q, NewText: "", OldText: "?"})
	}
	return b
}

func questionSpan(ref *TypeRef) source.Span {
	if ref.User != nil && !ref.User.QuestionSpan.Empty() {
		return ref.User.QuestionSpan
	}
	return ref.QuestionSpan
}
