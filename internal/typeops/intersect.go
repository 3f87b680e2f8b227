// Package typeops implements the type relations used by smart-cast
// resolution: alias expansion, subtyping over the declaration graph and the
// order-independent intersection of narrowing facts.
package typeops

import (
	"context"
	"fmt"

	"smartcast/internal/decls"
	"smartcast/internal/types"
)

// Intersect combines ts into the most specific type that is an instance of
// all of them.
//
// A single input is returned unchanged. Otherwise aliases are expanded,
// nested intersections flattened, equal inputs collapsed and every input
// that is a supertype of another input dropped. The survivors form a
// canonical intersection, so the result does not depend on input order. The
// result is nullable only when every input that contributes a non-error
// type is nullable. Error inputs are ignored unless nothing else is left.
//
// ErrNoCommonType is returned when two survivors cannot share an instance:
// one of them is final, or both are classes (single inheritance).
func Intersect(ctx context.Context, g *decls.Graph, ts []types.Type) (types.Type, error) {
	switch len(ts) {
	case 0:
		return types.Type{}, ErrEmptyInput
	case 1:
		return ts[0], nil
	}

	nullable := true
	candidates := make([]types.Type, 0, len(ts))
	for _, t := range ts {
		if err := checkCancel(ctx); err != nil {
			return types.Type{}, err
		}
		ex, err := Expand(ctx, g, t)
		if err != nil {
			return types.Type{}, err
		}
		contributed := false
		for _, part := range types.Flatten([]types.Type{ex}) {
			if part.IsError() || !part.IsValid() {
				continue
			}
			candidates = append(candidates, part.WithNullable(false))
			contributed = true
		}
		// an input without candidates says nothing about null
		if contributed {
			nullable = nullable && ex.Nullable
		}
	}
	if len(candidates) == 0 {
		return types.Error(), nil
	}

	types.SortCanonical(candidates)
	candidates = dedup(candidates)

	kept, err := dropSupertypes(ctx, g, candidates)
	if err != nil {
		return types.Type{}, err
	}
	if err := checkDisjoint(g, kept); err != nil {
		return types.Type{}, err
	}
	if len(kept) == 1 {
		return kept[0].WithNullable(nullable), nil
	}
	return types.MakeIntersection(kept...).WithNullable(nullable), nil
}

// dropSupertypes keeps only the most specific candidates. Candidates are
// sorted, so for mutually related inputs (a cyclic hierarchy) the first in
// canonical order wins.
func dropSupertypes(ctx context.Context, g *decls.Graph, cs []types.Type) ([]types.Type, error) {
	kept := make([]types.Type, 0, len(cs))
	for i, c := range cs {
		subsumed := false
		for j, other := range cs {
			if i == j {
				continue
			}
			below, err := isSubtype(ctx, g, other, c)
			if err != nil {
				return nil, err
			}
			if !below {
				continue
			}
			above, err := isSubtype(ctx, g, c, other)
			if err != nil {
				return nil, err
			}
			if !above || j < i {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, c)
		}
	}
	return kept, nil
}

// checkDisjoint rejects pairs of unrelated nominal types that cannot have a
// common instance. The pairs reaching this point are already known to be
// incomparable.
func checkDisjoint(g *decls.Graph, ts []types.Type) error {
	for i := range ts {
		for j := i + 1; j < len(ts); j++ {
			a, b := ts[i], ts[j]
			if a.Kind != types.KindNominal || b.Kind != types.KindNominal {
				continue
			}
			if a.Decl == b.Decl {
				// same declaration, different arguments: variance is unknown here
				continue
			}
			if g.IsFinal(a.Decl) || g.IsFinal(b.Decl) || (isClass(g, a.Decl) && isClass(g, b.Decl)) {
				return fmt.Errorf("%w: %s and %s", ErrNoCommonType, g.Label(a), g.Label(b))
			}
		}
	}
	return nil
}

func isClass(g *decls.Graph, id decls.DeclID) bool {
	n, ok := g.Node(id)
	return ok && (n.Kind == decls.KindClass || n.Kind == decls.KindObject)
}

func dedup(ts []types.Type) []types.Type {
	if len(ts) < 2 {
		return ts
	}
	out := ts[:1]
	for _, t := range ts[1:] {
		if !types.Equal(out[len(out)-1], t) {
			out = append(out, t)
		}
	}
	return out
}
