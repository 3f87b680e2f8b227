package typeops

import (
	"context"
	"slices"

	"smartcast/internal/decls"
	"smartcast/internal/types"
)

// IsSubtype reports whether every value of sub is a value of super.
//
// Aliases are expanded first. A nullable sub is never a subtype of a
// non-null super. Nominal references to the same declaration require equal
// type arguments. For a proper supertype with type arguments the edge
// recorded in the graph must carry exactly those arguments; type parameters
// are not substituted, so anything else is conservatively reported as
// unrelated. Any (see decls.Graph.IsTop) is a supertype of every
// declaration even when no edge leads to it.
func IsSubtype(ctx context.Context, g *decls.Graph, sub, super types.Type) (bool, error) {
	sub, err := Expand(ctx, g, sub)
	if err != nil {
		return false, err
	}
	super, err = Expand(ctx, g, super)
	if err != nil {
		return false, err
	}
	return isSubtype(ctx, g, sub, super)
}

func isSubtype(ctx context.Context, g *decls.Graph, sub, super types.Type) (bool, error) {
	if err := checkCancel(ctx); err != nil {
		return false, err
	}
	if sub.IsError() || super.IsError() || !sub.IsValid() || !super.IsValid() {
		return false, nil
	}
	if sub.Nullable && !super.Nullable {
		return false, nil
	}
	if super.Kind == types.KindIntersection {
		for _, part := range super.Parts {
			ok, err := isSubtype(ctx, g, sub, part.WithNullable(part.Nullable || super.Nullable))
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	}
	if sub.Kind == types.KindIntersection {
		for _, part := range sub.Parts {
			ok, err := isSubtype(ctx, g, part.WithNullable(sub.Nullable), super)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	}
	if sub.Decl == super.Decl {
		return argsEqual(sub.Args, super.Args), nil
	}
	if len(super.Args) == 0 && g.IsTop(super.Decl) {
		// every declaration extends Any, listed or not
		if _, err := g.MustNode(sub.Decl); err != nil {
			return false, err
		}
		return true, nil
	}
	visited := make(map[decls.DeclID]struct{}, 8)
	return reaches(ctx, g, sub.Decl, super, visited)
}

// reaches runs a depth-first search over supertype edges from decl looking
// for super. Each declaration is expanded at most once per query.
func reaches(ctx context.Context, g *decls.Graph, decl decls.DeclID, super types.Type, visited map[decls.DeclID]struct{}) (bool, error) {
	if err := checkCancel(ctx); err != nil {
		return false, err
	}
	if _, seen := visited[decl]; seen {
		return false, nil
	}
	visited[decl] = struct{}{}
	n, err := g.MustNode(decl)
	if err != nil {
		return false, err
	}
	for _, edge := range n.Supertypes {
		if edge.Decl == super.Decl {
			if len(super.Args) == 0 || argsEqual(edge.Args, super.Args) {
				return true, nil
			}
			continue
		}
		ok, err := reaches(ctx, g, edge.Decl, super, visited)
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func argsEqual(a, b []types.Type) bool {
	return slices.EqualFunc(a, b, types.Equal)
}
