package source

import "testing"

func TestSpanCoverAndContains(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Fatalf("Cover = %v", got)
	}
	if other := (Span{File: 2, Start: 0, End: 100}); a.Cover(other) != a {
		t.Fatalf("spans from different files must not merge")
	}
	if !a.Cover(b).Contains(a) || a.Contains(b) {
		t.Fatalf("Contains mismatch")
	}
}

func TestSpanTail(t *testing.T) {
	sp := Span{File: 0, Start: 10, End: 12}
	if got := sp.Tail(1); got != (Span{File: 0, Start: 11, End: 12}) {
		t.Fatalf("Tail(1) = %v", got)
	}
	if got := sp.Tail(5); got != sp {
		t.Fatalf("Tail longer than span must return span, got %v", got)
	}
	if (Span{Start: 5, End: 3}).Len() != 0 {
		t.Fatalf("inverted span must have zero length")
	}
}

func TestInternerRoundTrip(t *testing.T) {
	in := NewInterner()
	if s, ok := in.Lookup(NoStringID); !ok || s != "" {
		t.Fatalf("NoStringID must map to empty string")
	}
	a := in.Intern("Number")
	if in.Intern("Number") != a {
		t.Fatalf("Intern must be idempotent")
	}
	if _, ok := in.Find("Int"); ok {
		t.Fatalf("Find must not intern")
	}
	if in.MustLookup(a) != "Number" || in.Len() != 2 {
		t.Fatalf("unexpected interner state: %v", in.Snapshot())
	}
}
