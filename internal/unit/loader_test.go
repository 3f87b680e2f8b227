package unit

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"smartcast/internal/checks"
	"smartcast/internal/decls"
	"smartcast/internal/diag"
	"smartcast/internal/smartcast"
	"smartcast/internal/source"
	"smartcast/internal/testkit"
	"smartcast/internal/types"
)

func loadTestdata(t *testing.T, name string) *Unit {
	t.Helper()
	u, err := Load(context.Background(), filepath.Join("testdata", name), source.NewFileSet())
	if err != nil {
		t.Fatalf("load %s: %v", name, err)
	}
	return u
}

func TestLoadFormatsAgree(t *testing.T) {
	fromTOML := loadTestdata(t, "sample.toml")
	fromYAML := loadTestdata(t, "sample.yaml")

	if fromTOML.Graph.Len() != 7 || fromYAML.Graph.Len() != 7 {
		t.Fatalf("expected 7 declarations, got %d and %d", fromTOML.Graph.Len(), fromYAML.Graph.Len())
	}
	if fromTOML.Store.Len() != fromYAML.Store.Len() || len(fromTOML.TypeRefs) != len(fromYAML.TypeRefs) {
		t.Fatalf("formats disagree")
	}
	if fromTOML.Epoch() != 1 {
		t.Fatalf("first publish must be epoch 1, got %d", fromTOML.Epoch())
	}
	for _, u := range []*Unit{fromTOML, fromYAML} {
		if err := testkit.CheckSnapshot(u.Snapshot); err != nil {
			t.Fatalf("%s: snapshot invariant: %v", u.Path, err)
		}
		if err := testkit.CheckSpans(u.Graph, u.Files.Get(u.File)); err != nil {
			t.Fatalf("%s: span invariant: %v", u.Path, err)
		}
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	u := loadTestdata(t, "sample.toml")
	data, err := EncodeMsgpack(u.Desc)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	packed, err := Decode(data, FormatMsgpack)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if packed.Unit.Name != "sample" || len(packed.Decls) != len(u.Desc.Decls) || len(packed.Facts) != len(u.Desc.Facts) {
		t.Fatalf("round trip lost data: %+v", packed.Unit)
	}
	if packed.Facts[3].Stable == nil || *packed.Facts[3].Stable {
		t.Fatalf("stable flag lost")
	}
}

func TestLoadedUnitQueries(t *testing.T) {
	u := loadTestdata(t, "sample.toml")
	e := smartcast.New(u.Session)
	ctx := context.Background()
	id := func(name string) types.DeclID {
		d, ok := u.Graph.Lookup(name)
		if !ok {
			t.Fatalf("missing decl %s", name)
		}
		return d
	}

	info, ok, err := e.QueryExpression(ctx, 1, u.Epoch())
	if err != nil || !ok || info.Type.Decl != id("Leaf") {
		t.Fatalf("expr 1: %+v %v %v", info, ok, err)
	}
	info, ok, err = e.QueryExpression(ctx, 2, u.Epoch())
	if err != nil || !ok || info.Type.Kind != types.KindIntersection {
		t.Fatalf("expr 2: %+v %v %v", info, ok, err)
	}
	if got := u.Graph.Label(info.Type); got != "Base & Parcelable" {
		t.Fatalf("expr 2 label = %q", got)
	}
	if _, ok, _ := e.QueryExpression(ctx, 3, u.Epoch()); ok {
		t.Fatalf("unstable fact surfaced")
	}
	casts, err := e.QueryImplicitReceivers(ctx, 4, u.Epoch())
	if err != nil || len(casts) != 1 || casts[0].Type.Decl != id("Leaf") {
		t.Fatalf("receivers: %+v %v", casts, err)
	}

	leaf, _ := u.Graph.Node(id("Leaf"))
	if !leaf.Modifiers.Has(decls.ModFinal) {
		t.Fatalf("class without open/abstract/sealed must be final")
	}
}

func TestLoadedUnitChecks(t *testing.T) {
	u := loadTestdata(t, "sample.toml")
	bag := diag.NewBag(0)
	opts := checks.Options{Markers: u.MarkerOptions(MarkerNames{
		Annotations:        []string{"Parcelize"},
		RequiredSupertypes: []string{"Parcelable", "NotDeclared"},
	})}
	if err := checks.RunAll(context.Background(), u.CheckInput(), diag.BagReporter{Bag: bag}, opts); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	bag.Sort()

	expected := "error SEM3011 testdata/sample.kt:6:1 Marked class must not be abstract\n" +
		"warning SEM3001 testdata/sample.kt:7:8 Redundant nullable type marker\n" +
		"warning SEM3001 testdata/sample.kt:8:8 Redundant nullable type marker"
	u.Files.SetBaseDir(".")
	if got := diag.FormatGoldenDiagnostics(bag.Items(), u.Files, false); got != expected {
		t.Fatalf("unexpected diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}

	for _, d := range bag.Items() {
		if d.Code != diag.SemaRedundantNullable {
			continue
		}
		edit := d.Fixes[0].Edits[0]
		if text := string(u.Files.Get(edit.Span.File).Content[edit.Span.Start:edit.Span.End]); text != "?" {
			t.Fatalf("fix must cover a '?', got %q", text)
		}
	}
}

func TestCyclicUnit(t *testing.T) {
	u := loadTestdata(t, "cyclic.yaml")
	bag := diag.NewBag(0)
	if err := checks.RunAll(context.Background(), u.CheckInput(), diag.BagReporter{Bag: bag}, checks.Options{}); err != nil {
		t.Fatalf("RunAll: %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("cycles must not produce diagnostics, got %+v", bag.Items())
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join("testdata", "broken.toml"), source.NewFileSet())
	var loadErr *Error
	if !errors.As(err, &loadErr) || loadErr.Code != diag.ProjUnknownDecl {
		t.Fatalf("expected unknown declaration error, got %v", err)
	}

	_, err = Load(context.Background(), filepath.Join("testdata", "missing.toml"), source.NewFileSet())
	if !errors.As(err, &loadErr) || loadErr.Code != diag.IOLoadFileError {
		t.Fatalf("expected I/O error, got %v", err)
	}

	if _, err := Decode([]byte("[unit]\nname = \"x\"\n[[decl]]\nnmae = \"A\"\n"), FormatTOML); err == nil {
		t.Fatalf("unknown keys must be rejected")
	}
	if _, err := Decode([]byte("unit:\n  source: a.kt\n"), FormatYAML); err == nil {
		t.Fatalf("missing unit name must be rejected")
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		text  string
		want  string
		quest int
		err   bool
	}{
		{text: "Int", want: "Int"},
		{text: "Int?", want: "Int?", quest: 1},
		{text: "Map<String, List<Int?>>?", want: "Map<String, List<Int?>>?", quest: 1},
		{text: " A ?? ", want: "A??", quest: 2},
		{text: "kotlin.Any", want: "kotlin.Any"},
		{text: "<Int>", err: true},
		{text: "List<Int", err: true},
		{text: "Int Int", err: true},
		{text: "1Int", err: true},
	}
	for _, tt := range tests {
		e, err := parseType(tt.text)
		if tt.err {
			var syntax *SyntaxError
			if !errors.As(err, &syntax) {
				t.Errorf("parseType(%q): expected syntax error, got %v", tt.text, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseType(%q): %v", tt.text, err)
			continue
		}
		if e.String() != tt.want || len(e.Quest) != tt.quest {
			t.Errorf("parseType(%q) = %q with %d '?', want %q with %d", tt.text, e.String(), len(e.Quest), tt.want, tt.quest)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]Format{
		"a.toml":    FormatTOML,
		"a.YAML":    FormatYAML,
		"a.yml":     FormatYAML,
		"a.msgpack": FormatMsgpack,
		"a.kt":      FormatUnknown,
	}
	for path, want := range tests {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %s, want %s", path, got, want)
		}
	}
}
