package types

import "testing"

type mapNamer map[DeclID]string

func (m mapNamer) DeclName(id DeclID) string { return m[id] }

func TestMakeIntersectionFlattensAndSorts(t *testing.T) {
	a := MakeNominal(1, false)
	b := MakeNominal(2, false)
	c := MakeNominal(3, false)

	left := MakeIntersection(c, MakeIntersection(b, a))
	right := MakeIntersection(a, b, c, a)
	if !Equal(left, right) {
		t.Fatalf("intersection must be order independent: %v vs %v", left, right)
	}
	for _, p := range left.Parts {
		if p.Kind == KindIntersection {
			t.Fatalf("nested intersection survived flattening")
		}
	}
	if len(left.Parts) != 3 || left.Parts[0].Decl != 1 || left.Parts[2].Decl != 3 {
		t.Fatalf("unexpected parts: %+v", left.Parts)
	}
}

func TestMakeIntersectionPanicsOnSinglePart(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	a := MakeNominal(1, false)
	MakeIntersection(a, a)
}

func TestIntersectionNullability(t *testing.T) {
	a := MakeNominal(1, true)
	b := MakeNominal(2, true)
	if !MakeIntersection(a, b).IsNullable() {
		t.Fatalf("all-nullable intersection must be nullable")
	}
	if MakeIntersection(a, b.WithNullable(false)).IsNullable() {
		t.Fatalf("a non-null part makes the intersection non-null")
	}
	nn := MakeIntersection(a, b).WithNullable(false)
	for _, p := range nn.Parts {
		if p.Nullable {
			t.Fatalf("WithNullable(false) must reach every part")
		}
	}
}

func TestCompareDistinguishesArgsAndNullability(t *testing.T) {
	intT := MakeNominal(5, false)
	strT := MakeNominal(6, false)
	listInt := MakeNominal(4, false, intT)
	listStr := MakeNominal(4, false, strT)
	if Equal(listInt, listStr) {
		t.Fatalf("type arguments must participate in equality")
	}
	if Compare(intT, intT.WithNullable(true)) >= 0 {
		t.Fatalf("non-null must order before nullable")
	}
}

func TestLabel(t *testing.T) {
	names := mapNamer{1: "List", 2: "Int", 3: "Comparable", 4: "Name"}
	tests := []struct {
		typ  Type
		want string
	}{
		{MakeNominal(1, true, MakeNominal(2, false)), "List<Int>?"},
		{MakeAlias(4, false), "Name"},
		{MakeIntersection(MakeNominal(3, false), MakeNominal(2, false)), "Int & Comparable"},
		{MakeIntersection(MakeNominal(3, true), MakeNominal(2, true)), "(Int & Comparable)?"},
		{Error(), "<error>"},
		{MakeNominal(9, false), "#9"},
	}
	for _, tt := range tests {
		if got := Label(names, tt.typ); got != tt.want {
			t.Errorf("Label = %q, want %q", got, tt.want)
		}
	}
}
