package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"smartcast/internal/diag"
	"smartcast/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("mem/sample.kt", []byte("class A\nval a: String??\n"))
	bag := diag.NewBag(0)
	diag.ReportWarning(diag.BagReporter{Bag: bag}, diag.SemaRedundantNullable, source.Span{File: id, Start: 15, End: 23}).
		WithNote(source.Span{File: id, Start: 15, End: 22}, "String? is already nullable").
		WithFix("remove redundant '?'", diag.FixEdit{Span: source.Span{File: id, Start: 22, End: 23}, OldText: "?"}).
		Emit()
	return bag, fs
}

func TestPrettyPlain(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Pretty(&buf, bag, fs, PrettyOpts{ShowNotes: true, ShowFixes: true}); err != nil {
		t.Fatalf("pretty: %v", err)
	}
	got := buf.String()
	want := []string{
		"warning[SEM3001]: Redundant nullable type marker",
		" --> mem/sample.kt:2:8",
		"2 | val a: String??",
		"  |        ^~~~~~~~",
		"= note: String? is already nullable (mem/sample.kt:2:8)",
		"= fix: remove redundant '?'",
		"2:15 delete 1 byte(s)",
	}
	for _, w := range want {
		if !strings.Contains(got, w) {
			t.Fatalf("missing %q in output:\n%s", w, got)
		}
	}
	if strings.Contains(got, "\x1b[") {
		t.Fatalf("color disabled but escape codes found:\n%s", got)
	}
}

func TestUnderline(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		start, end uint32
		want       string
	}{
		{"simple", "val a: Int", 8, 11, "       ^~~"},
		{"empty span", "abc", 2, 2, " ^"},
		{"tab kept", "\tx: Int?", 2, 3, "\t^"},
		{"wide runes", "世界 x", 8, 9, "     ^"},
		{"past end", "ab", 2, 100, " ^"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := underline(tt.line, tt.start, tt.end); got != tt.want {
				t.Fatalf("underline(%q, %d, %d) = %q, want %q", tt.line, tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestShort(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := Short(&buf, bag, fs, PathModeAuto); err != nil {
		t.Fatalf("short: %v", err)
	}
	want := "mem/sample.kt:2:8: warning SEM3001: Redundant nullable type marker\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
}

func TestJSON(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	opts := JSONOpts{IncludePositions: true, IncludeNotes: true, IncludeFixes: true}
	if err := JSON(&buf, bag, fs, opts); err != nil {
		t.Fatalf("json: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("expected one diagnostic, got %+v", out)
	}
	d := out.Diagnostics[0]
	if d.Severity != "WARNING" || d.Code != "SEM3001" || d.Positioning != "default" {
		t.Fatalf("unexpected header: %+v", d)
	}
	if d.Location.StartLine != 2 || d.Location.StartCol != 8 {
		t.Fatalf("unexpected location: %+v", d.Location)
	}
	if len(d.Notes) != 1 || len(d.Fixes) != 1 || d.Fixes[0].Edits[0].OldText != "?" {
		t.Fatalf("notes/fixes not rendered: %+v", d)
	}
}

func TestJSONMax(t *testing.T) {
	bag, fs := sampleBag(t)
	diag.ReportError(diag.BagReporter{Bag: bag}, diag.SemaMarkerCantBeInner, source.Span{Start: 0, End: 5}).Emit()
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || out.Dropped != 1 {
		t.Fatalf("expected 1 shown and 1 dropped, got count=%d dropped=%d", out.Count, out.Dropped)
	}
	if out.Diagnostics[0].Notes != nil {
		t.Fatalf("notes must be omitted unless requested")
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"", "pretty", "short", "json"} {
		if _, err := ParseFormat(s); err != nil {
			t.Fatalf("ParseFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseFormat("sarif"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
