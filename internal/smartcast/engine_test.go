package smartcast

import (
	"context"
	"errors"
	"sync"
	"testing"

	"smartcast/internal/binding"
	"smartcast/internal/decls"
	"smartcast/internal/facts"
	"smartcast/internal/trace"
	"smartcast/internal/typeops"
	"smartcast/internal/types"
)

type world struct {
	g   *decls.Graph
	ids map[string]decls.DeclID
}

func (w world) t(name string) types.Type { return types.MakeNominal(w.ids[name], false) }

func newWorld(t *testing.T) world {
	t.Helper()
	b := decls.NewBuilder(nil, 0)
	ids := map[string]decls.DeclID{}
	for _, d := range []struct {
		name string
		kind decls.Kind
		mods decls.Modifiers
	}{
		{"Any", decls.KindClass, decls.ModOpen},
		{"Number", decls.KindClass, decls.ModAbstract},
		{"Int", decls.KindClass, decls.ModFinal},
		{"String", decls.KindClass, decls.ModFinal},
		{"Comparable", decls.KindInterface, 0},
		{"Outer", decls.KindClass, decls.ModOpen},
		{"Inner", decls.KindClass, decls.ModFinal},
	} {
		id, err := b.Declare(d.name, d.kind, d.mods)
		if err != nil {
			t.Fatalf("declare %s: %v", d.name, err)
		}
		ids[d.name] = id
	}
	edges := [][2]string{
		{"Number", "Any"}, {"Int", "Number"}, {"Int", "Comparable"},
		{"String", "Any"}, {"String", "Comparable"}, {"Inner", "Outer"},
	}
	for _, e := range edges {
		if err := b.AddSupertype(ids[e[0]], types.MakeNominal(ids[e[1]], false)); err != nil {
			t.Fatalf("edge %v: %v", e, err)
		}
	}
	return world{g: b.Freeze(), ids: ids}
}

func stable(expr facts.ExprID, t types.Type) facts.Fact {
	return facts.Fact{Subject: facts.Subject{Expr: expr}, Type: t, Stability: facts.Stable}
}

func unstable(expr facts.ExprID, t types.Type) facts.Fact {
	return facts.Fact{Subject: facts.Subject{Expr: expr}, Type: t, Stability: facts.Unstable}
}

func receiver(expr facts.ExprID, kind facts.ReceiverKind, depth uint16, t types.Type, s facts.Stability) facts.Fact {
	return facts.Fact{Subject: facts.Subject{Expr: expr, Receiver: kind, Depth: depth}, Type: t, Stability: s}
}

func publish(t *testing.T, w world, fs ...facts.Fact) (*binding.Session, binding.Epoch) {
	t.Helper()
	sb := facts.NewStoreBuilder()
	for _, f := range fs {
		if err := sb.Add(f); err != nil {
			t.Fatalf("add fact: %v", err)
		}
	}
	s := binding.NewSession()
	snap := s.Publish(w.g, sb.Build())
	return s, snap.Epoch
}

func TestQueryExpression(t *testing.T) {
	w := newWorld(t)
	s, epoch := publish(t, w,
		stable(1, w.t("Int")),
		stable(2, w.t("Int")), stable(2, w.t("Number")),
		stable(3, w.t("Number")), stable(3, w.t("Comparable")),
		unstable(4, w.t("Int")),
		stable(5, w.t("Int")), unstable(5, w.t("String")),
	)
	e := New(s)

	tests := []struct {
		expr   facts.ExprID
		want   types.Type
		absent bool
	}{
		{expr: 1, want: w.t("Int")},
		{expr: 2, want: w.t("Int")},
		{expr: 3, want: types.MakeIntersection(w.t("Number"), w.t("Comparable"))},
		{expr: 4, absent: true},
		{expr: 5, want: w.t("Int")},
		{expr: 99, absent: true},
	}
	for _, tt := range tests {
		info, ok, err := e.QueryExpression(context.Background(), tt.expr, epoch)
		if err != nil {
			t.Fatalf("expr %d: unexpected error %v", tt.expr, err)
		}
		if tt.absent {
			if ok {
				t.Fatalf("expr %d: expected no smart cast, got %s", tt.expr, w.g.Label(info.Type))
			}
			continue
		}
		if !ok || !info.Stable {
			t.Fatalf("expr %d: expected stable smart cast, got %+v ok=%v", tt.expr, info, ok)
		}
		if !types.Equal(info.Type, tt.want) {
			t.Fatalf("expr %d: got %s, want %s", tt.expr, w.g.Label(info.Type), w.g.Label(tt.want))
		}
	}
}

func TestQueryExpressionOrderIndependent(t *testing.T) {
	w := newWorld(t)
	a, ea := publish(t, w, stable(1, w.t("Comparable")), stable(1, w.t("Number")))
	b, eb := publish(t, w, stable(1, w.t("Number")), stable(1, w.t("Comparable")))
	ia, _, err := New(a).QueryExpression(context.Background(), 1, ea)
	if err != nil {
		t.Fatalf("query a: %v", err)
	}
	ib, _, err := New(b).QueryExpression(context.Background(), 1, eb)
	if err != nil {
		t.Fatalf("query b: %v", err)
	}
	if !types.Equal(ia.Type, ib.Type) {
		t.Fatalf("results differ: %s vs %s", w.g.Label(ia.Type), w.g.Label(ib.Type))
	}
}

func TestQueryExpressionInconsistentFacts(t *testing.T) {
	w := newWorld(t)
	s, epoch := publish(t, w, stable(7, w.t("Int")), stable(7, w.t("String")), stable(8, w.t("Int")))
	ring := trace.NewRingTracer(16, trace.LevelError)
	ctx := trace.WithUnit(trace.WithTracer(context.Background(), ring), "inconsistent.toml")
	e := New(s)

	_, ok, err := e.QueryExpression(ctx, 7, epoch)
	var inv *InvariantError
	if !errors.As(err, &inv) || inv.Expr != 7 {
		t.Fatalf("expected InvariantError for expr 7, got %v", err)
	}
	if !errors.Is(err, typeops.ErrNoCommonType) || ok {
		t.Fatalf("error must wrap ErrNoCommonType, got %v ok=%v", err, ok)
	}
	events := ring.Snapshot()
	if len(events) != 1 || events[0].Name != "no-common-type" || events[0].Extra["expr"] != "7" {
		t.Fatalf("expected one trace point, got %+v", events)
	}
	if events[0].Unit != "inconsistent.toml" || events[0].Epoch != uint64(epoch) {
		t.Fatalf("trace point tagged %q@%d, want inconsistent.toml@%d", events[0].Unit, events[0].Epoch, epoch)
	}

	// other queries on the same snapshot are unaffected
	if _, ok, err := e.QueryExpression(ctx, 8, epoch); err != nil || !ok {
		t.Fatalf("expr 8: ok=%v err=%v", ok, err)
	}

	all, err := e.QueryAll(ctx, epoch)
	if !errors.As(err, &inv) {
		t.Fatalf("QueryAll must report the invariant violation, got %v", err)
	}
	if _, bad := all[7]; bad || len(all) != 1 {
		t.Fatalf("unexpected batch result %v", all)
	}
}

func TestQueryImplicitReceivers(t *testing.T) {
	w := newWorld(t)
	s, epoch := publish(t, w,
		receiver(3, facts.ReceiverExtension, 1, w.t("Comparable"), facts.Stable),
		receiver(3, facts.ReceiverDispatch, 0, w.t("Outer"), facts.Stable),
		receiver(3, facts.ReceiverDispatch, 0, w.t("Inner"), facts.Stable),
		receiver(3, facts.ReceiverDispatch, 2, w.t("Int"), facts.Unstable),
	)
	got, err := New(s).QueryImplicitReceivers(context.Background(), 3, epoch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []ReceiverCast{
		{Type: w.t("Inner"), Kind: facts.ReceiverDispatch, Depth: 0},
		{Type: w.t("Comparable"), Kind: facts.ReceiverExtension, Depth: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d receivers, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Kind != want[i].Kind || got[i].Depth != want[i].Depth || !types.Equal(got[i].Type, want[i].Type) {
			t.Fatalf("receiver %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	none, err := New(s).QueryImplicitReceivers(context.Background(), 4, epoch)
	if err != nil || len(none) != 0 {
		t.Fatalf("expr without receivers: %v, %v", none, err)
	}
}

func TestStaleEpoch(t *testing.T) {
	w := newWorld(t)
	s, epoch := publish(t, w, stable(1, w.t("Int")))
	e := New(s)
	s.Invalidate()

	if _, _, err := e.QueryExpression(context.Background(), 1, epoch); !errors.Is(err, binding.ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}
	if _, err := e.QueryImplicitReceivers(context.Background(), 1, epoch); !errors.Is(err, binding.ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}
	if _, err := e.QueryAll(context.Background(), epoch); !errors.Is(err, binding.ErrStaleSnapshot) {
		t.Fatalf("expected ErrStaleSnapshot, got %v", err)
	}
}

// racingProvider invalidates the session right after handing out a snapshot.
type racingProvider struct {
	*binding.Session
}

func (p racingProvider) Acquire(epoch binding.Epoch) (*binding.Snapshot, error) {
	snap, err := p.Session.Acquire(epoch)
	p.Session.Invalidate()
	return snap, err
}

func TestInvalidationDuringQuery(t *testing.T) {
	w := newWorld(t)
	s, epoch := publish(t, w, stable(1, w.t("Int")))
	e := New(racingProvider{Session: s})
	info, ok, err := e.QueryExpression(context.Background(), 1, epoch)
	if !errors.Is(err, binding.ErrStaleSnapshot) || ok {
		t.Fatalf("expected stale result, got %+v ok=%v err=%v", info, ok, err)
	}
}

func TestCancelledQuery(t *testing.T) {
	w := newWorld(t)
	s, epoch := publish(t, w, stable(1, w.t("Int")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := New(s).QueryExpression(ctx, 1, epoch)
	if !errors.Is(err, typeops.ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestConcurrentQueries(t *testing.T) {
	w := newWorld(t)
	var fs []facts.Fact
	for i := facts.ExprID(1); i <= 64; i++ {
		fs = append(fs, stable(i, w.t("Number")), stable(i, w.t("Comparable")))
		fs = append(fs, receiver(i, facts.ReceiverDispatch, 0, w.t("Inner"), facts.Stable))
	}
	s, epoch := publish(t, w, fs...)
	e := New(s)
	want := types.MakeIntersection(w.t("Number"), w.t("Comparable"))

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := facts.ExprID(1); i <= 64; i++ {
				info, ok, err := e.QueryExpression(context.Background(), i, epoch)
				if err != nil || !ok || !types.Equal(info.Type, want) {
					errs <- errors.New("unexpected expression result")
					return
				}
				casts, err := e.QueryImplicitReceivers(context.Background(), i, epoch)
				if err != nil || len(casts) != 1 {
					errs <- errors.New("unexpected receiver result")
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}
