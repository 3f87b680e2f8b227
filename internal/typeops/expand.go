package typeops

import (
	"context"

	"smartcast/internal/decls"
	"smartcast/internal/types"
)

// Expand replaces alias references in t by their expansions, recursively
// through type arguments and intersection parts. The outer '?' of an alias
// reference is kept and combined with the expansion's own marker. An alias
// chain that revisits a declaration expands to the error type, still
// carrying the markers seen on the way.
func Expand(ctx context.Context, g *decls.Graph, t types.Type) (types.Type, error) {
	if err := checkCancel(ctx); err != nil {
		return types.Type{}, err
	}
	switch t.Kind {
	case types.KindAlias:
		target, err := expandAlias(ctx, g, t)
		if err != nil || target.IsError() {
			return target, err
		}
		return Expand(ctx, g, target)
	case types.KindNominal:
		if len(t.Args) == 0 {
			return t, nil
		}
		args := make([]types.Type, len(t.Args))
		for i, arg := range t.Args {
			ex, err := Expand(ctx, g, arg)
			if err != nil {
				return types.Type{}, err
			}
			args[i] = ex
		}
		return types.MakeNominal(t.Decl, t.Nullable, args...), nil
	case types.KindIntersection:
		parts := make([]types.Type, len(t.Parts))
		for i, p := range t.Parts {
			ex, err := Expand(ctx, g, p)
			if err != nil {
				return types.Type{}, err
			}
			parts[i] = ex
		}
		return Intersect(ctx, g, parts)
	default:
		return t, nil
	}
}

// expandAlias follows alias edges until a non-alias type is reached.
func expandAlias(ctx context.Context, g *decls.Graph, t types.Type) (types.Type, error) {
	visited := make(map[decls.DeclID]struct{}, 4)
	nullable := t.Nullable
	for t.Kind == types.KindAlias {
		if err := checkCancel(ctx); err != nil {
			return types.Type{}, err
		}
		if _, seen := visited[t.Decl]; seen {
			return types.Error().WithNullable(nullable), nil
		}
		visited[t.Decl] = struct{}{}
		n, err := g.MustNode(t.Decl)
		if err != nil {
			return types.Type{}, err
		}
		if !n.IsAlias() || !n.Expansion.IsValid() {
			return types.Error().WithNullable(nullable), nil
		}
		t = n.Expansion
		nullable = nullable || t.Nullable
	}
	return t.WithNullable(nullable || t.Nullable), nil
}
