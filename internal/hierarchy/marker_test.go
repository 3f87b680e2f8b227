package hierarchy

import (
	"context"
	"errors"
	"slices"
	"testing"

	"smartcast/internal/decls"
	"smartcast/internal/typeops"
	"smartcast/internal/types"
)

type hier struct {
	g   *decls.Graph
	ids map[string]decls.DeclID
}

// newHier declares every name as an interface except annotations (prefixed
// with '@'), then adds edges child -> parents.
func newHier(t *testing.T, names []string, edges map[string][]string, marks map[string][]string) hier {
	t.Helper()
	b := decls.NewBuilder(nil, 0)
	ids := map[string]decls.DeclID{}
	for _, name := range names {
		kind := decls.KindInterface
		if name[0] == '@' {
			kind = decls.KindAnnotation
			name = name[1:]
		}
		id, err := b.Declare(name, kind, 0)
		if err != nil {
			t.Fatalf("declare %s: %v", name, err)
		}
		ids[name] = id
	}
	for child, parents := range edges {
		for _, p := range parents {
			if err := b.AddSupertype(ids[child], types.MakeNominal(ids[p], false)); err != nil {
				t.Fatalf("edge %s -> %s: %v", child, p, err)
			}
		}
	}
	for decl, anns := range marks {
		for _, a := range anns {
			if err := b.AddAnnotation(ids[decl], ids[a]); err != nil {
				t.Fatalf("annotate %s: %v", decl, err)
			}
		}
	}
	return hier{g: b.Freeze(), ids: ids}
}

func TestHasMarker(t *testing.T) {
	h := newHier(t,
		[]string{"@Parcelize", "@Other", "Root", "Left", "Right", "Leaf", "Plain", "Self"},
		map[string][]string{
			"Left":  {"Root"},
			"Right": {"Root"},
			"Leaf":  {"Left", "Right"},
			"Self":  {"Self"},
		},
		map[string][]string{"Root": {"Parcelize"}, "Plain": {"Other"}},
	)
	markers := []decls.AnnotationID{h.ids["Parcelize"]}

	tests := []struct {
		decl string
		want bool
	}{
		{"Root", true},
		{"Leaf", true},
		{"Right", true},
		{"Plain", false},
		{"Self", false},
	}
	for _, tt := range tests {
		got, err := HasMarker(context.Background(), h.g, h.ids[tt.decl], markers)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.decl, err)
		}
		if got != tt.want {
			t.Errorf("HasMarker(%s) = %v, want %v", tt.decl, got, tt.want)
		}
	}
	if got, _ := HasMarker(context.Background(), h.g, h.ids["Root"], nil); got {
		t.Fatalf("empty marker set must not match")
	}
}

func TestHasMarkerCycleTerminates(t *testing.T) {
	h := newHier(t,
		[]string{"@M", "A", "B", "C"},
		map[string][]string{"A": {"B"}, "B": {"C"}, "C": {"A"}},
		map[string][]string{"C": {"M"}},
	)
	got, err := HasMarker(context.Background(), h.g, h.ids["A"], []decls.AnnotationID{h.ids["M"]})
	if err != nil || !got {
		t.Fatalf("expected marker through cycle, got %v %v", got, err)
	}
	got, err = HasMarker(context.Background(), h.g, h.ids["A"], []decls.AnnotationID{h.ids["A"]})
	if err != nil || got {
		t.Fatalf("expected no marker, got %v %v", got, err)
	}
}

func TestHasMarkerErrors(t *testing.T) {
	h := newHier(t, []string{"@M", "A"}, nil, nil)
	var dangling *decls.DanglingError
	if _, err := HasMarker(context.Background(), h.g, decls.DeclID(77), nil); !errors.As(err, &dangling) {
		t.Fatalf("expected DanglingError, got %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := HasMarker(ctx, h.g, h.ids["A"], []decls.AnnotationID{h.ids["M"]}); !errors.Is(err, typeops.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestSupertypes(t *testing.T) {
	h := newHier(t,
		[]string{"Root", "Left", "Right", "Leaf", "A", "B"},
		map[string][]string{
			"Left":  {"Root"},
			"Right": {"Root"},
			"Leaf":  {"Left", "Right"},
			"A":     {"B"},
			"B":     {"A"},
		},
		nil,
	)
	got, err := Supertypes(context.Background(), h.g, h.ids["Leaf"])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []decls.DeclID{h.ids["Left"], h.ids["Root"], h.ids["Right"]}
	if !slices.Equal(got, want) {
		t.Fatalf("Supertypes(Leaf) = %v, want %v", got, want)
	}
	cyc, err := Supertypes(context.Background(), h.g, h.ids["A"])
	if err != nil || !slices.Equal(cyc, []decls.DeclID{h.ids["B"], h.ids["A"]}) {
		t.Fatalf("Supertypes(A) = %v, %v", cyc, err)
	}
}
