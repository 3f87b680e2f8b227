// Package smartcast answers smart-cast queries over a published snapshot:
// what type an expression, or each implicit receiver active at it, is known
// to have at that point of the program.
//
// Queries are pure reads. Every query names the epoch it was issued against;
// the epoch is checked when the snapshot is acquired and again after the
// facts were merged, so a query racing an invalidation fails with
// binding.ErrStaleSnapshot instead of returning data from two generations.
// Only stable facts are surfaced.
package smartcast

import (
	"context"
	"errors"
	"strconv"

	"smartcast/internal/binding"
	"smartcast/internal/decls"
	"smartcast/internal/facts"
	"smartcast/internal/trace"
	"smartcast/internal/typeops"
	"smartcast/internal/types"
)

// Info is the smart-cast result of one expression.
type Info struct {
	Type   types.Type
	Stable bool
}

// ReceiverCast is the narrowed type of one implicit receiver.
type ReceiverCast struct {
	Type  types.Type
	Kind  facts.ReceiverKind
	Depth uint16
}

// Engine runs queries against a binding.Provider. It holds no mutable state
// and may be shared between goroutines.
type Engine struct {
	provider binding.Provider
}

// New returns an engine reading from p.
func New(p binding.Provider) *Engine {
	return &Engine{provider: p}
}

// QueryExpression returns the smart cast of expr. The boolean is false when
// no stable fact narrows expr; the error is then nil.
func (e *Engine) QueryExpression(ctx context.Context, expr facts.ExprID, epoch binding.Epoch) (Info, bool, error) {
	snap, err := e.acquire(ctx, epoch)
	if err != nil {
		return Info{}, false, err
	}
	ctx = trace.WithEpoch(ctx, uint64(snap.Epoch))
	span := trace.BeginCtx(ctx, trace.ScopeQuery, "query:expr")
	span.WithExtra("expr", strconv.FormatUint(uint64(expr), 10))

	info, ok, err := e.expression(ctx, snap, expr)
	if err == nil {
		err = binding.Validate(e.provider, epoch)
	}
	if err != nil {
		span.End("error")
		return Info{}, false, err
	}
	if !ok {
		span.End("absent")
		return Info{}, false, nil
	}
	span.End(snap.Graph().Label(info.Type))
	return info, true, nil
}

// QueryImplicitReceivers returns one entry per implicit receiver of expr
// that carries at least one stable fact, innermost first.
func (e *Engine) QueryImplicitReceivers(ctx context.Context, expr facts.ExprID, epoch binding.Epoch) ([]ReceiverCast, error) {
	snap, err := e.acquire(ctx, epoch)
	if err != nil {
		return nil, err
	}
	ctx = trace.WithEpoch(ctx, uint64(snap.Epoch))
	span := trace.BeginCtx(ctx, trace.ScopeQuery, "query:receivers")
	span.WithExtra("expr", strconv.FormatUint(uint64(expr), 10))

	slots := snap.Receivers(expr)
	out := make([]ReceiverCast, 0, len(slots))
	for _, slot := range slots {
		t, ok, err := e.merge(ctx, snap.Graph(), stableTypes(slot.Facts))
		if err != nil {
			span.End("error")
			return nil, e.wrapInvariant(ctx, snap, err, &InvariantError{Expr: expr, Receiver: slot.Kind, Depth: slot.Depth})
		}
		if ok {
			out = append(out, ReceiverCast{Type: t, Kind: slot.Kind, Depth: slot.Depth})
		}
	}
	if err := binding.Validate(e.provider, epoch); err != nil {
		span.End("stale")
		return nil, err
	}
	span.WithExtra("casts", strconv.Itoa(len(out))).End("")
	return out, nil
}

// QueryAll resolves every expression of the snapshot that has a stable
// smart cast. Expressions with inconsistent facts are left out of the map
// and reported together as a joined error of *InvariantError values; any
// other error aborts the batch.
func (e *Engine) QueryAll(ctx context.Context, epoch binding.Epoch) (map[facts.ExprID]Info, error) {
	snap, err := e.acquire(ctx, epoch)
	if err != nil {
		return nil, err
	}
	ctx = trace.WithEpoch(ctx, uint64(snap.Epoch))
	exprs := snap.Store().Exprs()
	out := make(map[facts.ExprID]Info, len(exprs))
	var invariants []error
	for _, expr := range exprs {
		info, ok, err := e.expression(ctx, snap, expr)
		var inv *InvariantError
		switch {
		case errors.As(err, &inv):
			invariants = append(invariants, err)
			continue
		case err != nil:
			return nil, err
		}
		if ok {
			out[expr] = info
		}
	}
	if err := binding.Validate(e.provider, epoch); err != nil {
		return nil, err
	}
	return out, errors.Join(invariants...)
}

func (e *Engine) acquire(ctx context.Context, epoch binding.Epoch) (*binding.Snapshot, error) {
	if err := typeops.CheckCancel(ctx); err != nil {
		return nil, err
	}
	return e.provider.Acquire(epoch)
}

func (e *Engine) expression(ctx context.Context, snap *binding.Snapshot, expr facts.ExprID) (Info, bool, error) {
	t, ok, err := e.merge(ctx, snap.Graph(), stableTypes(snap.Facts(expr)))
	if err != nil {
		return Info{}, false, e.wrapInvariant(ctx, snap, err, &InvariantError{Expr: expr})
	}
	if !ok {
		return Info{}, false, nil
	}
	return Info{Type: t, Stable: true}, true, nil
}

// merge intersects the stable fact types of one subject.
func (e *Engine) merge(ctx context.Context, g *decls.Graph, ts []types.Type) (types.Type, bool, error) {
	switch len(ts) {
	case 0:
		return types.Type{}, false, nil
	case 1:
		return ts[0], true, nil
	}
	t, err := typeops.Intersect(ctx, g, ts)
	if err != nil {
		return types.Type{}, false, err
	}
	return t, true, nil
}

// wrapInvariant turns ErrNoCommonType into inv and records it in the trace.
// Other errors pass through untouched.
func (e *Engine) wrapInvariant(ctx context.Context, snap *binding.Snapshot, err error, inv *InvariantError) error {
	if !errors.Is(err, typeops.ErrNoCommonType) {
		return err
	}
	inv.Err = err
	trace.PointCtx(ctx, trace.ScopeError, "no-common-type", inv.Error(),
		"expr", strconv.FormatUint(uint64(inv.Expr), 10),
		"receiver", inv.Receiver.String(),
		"snapshot", snap.ID.String(),
	)
	return inv
}

func stableTypes(fs []facts.Fact) []types.Type {
	if len(fs) == 0 {
		return nil
	}
	out := make([]types.Type, 0, len(fs))
	for _, f := range fs {
		if f.IsStable() {
			out = append(out, f.Type)
		}
	}
	return out
}
