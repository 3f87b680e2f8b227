// Package checks holds the declaration and type-reference checkers. The set
// of checker kinds is closed; every checker is listed in Registry and RunAll
// dispatches on its kind.
package checks

import (
	"context"
	"fmt"
	"slices"

	"smartcast/internal/decls"
	"smartcast/internal/diag"
	"smartcast/internal/trace"
	"smartcast/internal/typeops"
)

// CheckerKind selects the nodes a checker visits.
type CheckerKind uint8

const (
	KindTypeRefChecker CheckerKind = iota + 1
	KindClassChecker
)

func (k CheckerKind) String() string {
	switch k {
	case KindTypeRefChecker:
		return "typeref"
	case KindClassChecker:
		return "class"
	default:
		return fmt.Sprintf("CheckerKind(%d)", k)
	}
}

// Input is what the checkers see of one unit.
type Input struct {
	Graph    *decls.Graph
	TypeRefs []TypeRef
}

// Options configures RunAll.
type Options struct {
	Markers MarkerOptions
	// Only restricts the run to the named checkers; empty means all.
	Only []string
}

// Checker is a registry entry. Exactly one of TypeRef and Class is set,
// matching Kind.
type Checker struct {
	Kind    CheckerKind
	Name    string
	TypeRef func(ctx context.Context, g *decls.Graph, ref *TypeRef, r diag.Reporter) error
	Class   func(ctx context.Context, g *decls.Graph, id decls.DeclID, r diag.Reporter, opts MarkerOptions) error
}

// Registry lists every checker in run order.
var Registry = []Checker{
	{Kind: KindTypeRefChecker, Name: "redundant-nullable", TypeRef: CheckRedundantNullability},
	{Kind: KindClassChecker, Name: "marker-class", Class: CheckMarkerClass},
}

// Names returns the registered checker names.
func Names() []string {
	out := make([]string, 0, len(Registry))
	for _, c := range Registry {
		out = append(out, c.Name)
	}
	return out
}

// RunAll runs the registered checkers over in. It stops at the first
// cancellation or internal error; diagnostics already reported stay with r.
func RunAll(ctx context.Context, in Input, r diag.Reporter, opts Options) error {
	for i := range Registry {
		c := &Registry[i]
		if !selected(c.Name, opts.Only) {
			continue
		}
		span := trace.BeginCtx(ctx, trace.ScopePass, "check:"+c.Name)
		err := runOne(ctx, c, in, r, opts)
		if err != nil {
			span.End(err.Error())
			return fmt.Errorf("%s checker: %w", c.Name, err)
		}
		span.End("")
	}
	return nil
}

func runOne(ctx context.Context, c *Checker, in Input, r diag.Reporter, opts Options) error {
	switch c.Kind {
	case KindTypeRefChecker:
		for i := range in.TypeRefs {
			if err := c.TypeRef(ctx, in.Graph, &in.TypeRefs[i], r); err != nil {
				return err
			}
		}
	case KindClassChecker:
		for _, n := range in.Graph.Nodes() {
			if err := typeops.CheckCancel(ctx); err != nil {
				return err
			}
			if err := c.Class(ctx, in.Graph, n.ID, r, opts.Markers); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unknown checker kind %s", c.Kind)
	}
	return nil
}

func selected(name string, only []string) bool {
	return len(only) == 0 || slices.Contains(only, name)
}
