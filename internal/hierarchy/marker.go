// Package hierarchy answers questions about the supertype closure of a
// declaration: whether a marker annotation is present anywhere in it, and
// which declarations it contains.
package hierarchy

import (
	"context"

	"smartcast/internal/decls"
	"smartcast/internal/typeops"
)

// HasMarker reports whether decl, or any declaration reachable from it over
// supertype edges, carries one of the marker annotations. Each declaration
// is visited at most once per call, so cyclic hierarchies terminate.
func HasMarker(ctx context.Context, g *decls.Graph, decl decls.DeclID, markers []decls.AnnotationID) (bool, error) {
	if _, err := g.MustNode(decl); err != nil {
		return false, err
	}
	if len(markers) == 0 {
		return false, nil
	}
	visited := make(map[decls.DeclID]struct{}, 8)
	return hasMarker(ctx, g, decl, markers, visited)
}

func hasMarker(ctx context.Context, g *decls.Graph, decl decls.DeclID, markers []decls.AnnotationID, visited map[decls.DeclID]struct{}) (bool, error) {
	if err := typeops.CheckCancel(ctx); err != nil {
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
	for _, m := range markers {
		if n.HasAnnotation(m) {
			return true, nil
		}
	}
	for _, super := range n.Supertypes {
		found, err := hasMarker(ctx, g, super.Decl, markers, visited)
		if err != nil || found {
			return found, err
		}
	}
	return false, nil
}

// Supertypes lists every declaration reachable from decl over supertype
// edges, excluding decl itself unless a cycle leads back to it. The order is
// depth-first preorder; each declaration appears once.
func Supertypes(ctx context.Context, g *decls.Graph, decl decls.DeclID) ([]decls.DeclID, error) {
	root, err := g.MustNode(decl)
	if err != nil {
		return nil, err
	}
	visited := map[decls.DeclID]struct{}{}
	var out []decls.DeclID
	var walk func(n *decls.Node) error
	walk = func(n *decls.Node) error {
		for _, super := range n.Supertypes {
			if err := typeops.CheckCancel(ctx); err != nil {
				return err
			}
			if _, seen := visited[super.Decl]; seen {
				continue
			}
			visited[super.Decl] = struct{}{}
			next, err := g.MustNode(super.Decl)
			if err != nil {
				return err
			}
			out = append(out, super.Decl)
			if err := walk(next); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	return out, nil
}
