package fix

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"smartcast/internal/diag"
	"smartcast/internal/source"
)

func loadFile(t *testing.T, content string) (*source.FileSet, source.FileID, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "a.kt")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := source.NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return fs, id, path
}

func removal(file source.FileID, start, end uint32, old string) diag.Diagnostic {
	sp := source.Span{File: file, Start: start, End: end}
	return diag.Diagnostic{
		Severity: diag.SevWarning,
		Code:     diag.SemaRedundantNullable,
		Primary:  sp,
		Fixes: []diag.Fix{{
			Title: "remove redundant '?'",
			Edits: []diag.FixEdit{{Span: sp, OldText: old}},
		}},
	}
}

func TestApplyRemovesText(t *testing.T) {
	fs, id, path := loadFile(t, "val a: A??\nval b: B??\n")
	diags := []diag.Diagnostic{
		removal(id, 20, 21, "?"),
		removal(id, 9, 10, "?"),
	}
	res, err := Apply(fs, diags, Options{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 2 || len(res.Skipped) != 0 || len(res.FileChanges) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "val a: A?\nval b: B?\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestApplySkipsConflictsAndStaleText(t *testing.T) {
	fs, id, path := loadFile(t, "val a: A??\n")
	diags := []diag.Diagnostic{
		removal(id, 8, 10, "??"),
		removal(id, 9, 10, "?"),
		removal(id, 0, 3, "var"),
	}
	res, err := Apply(fs, diags, Options{})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(res.Applied) != 1 || len(res.Skipped) != 2 {
		t.Fatalf("expected one applied and two skipped, got %+v", res)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "val a: A\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestApplyDryRunAndSkip(t *testing.T) {
	fs, id, path := loadFile(t, "val a: A??\r\n")
	diags := []diag.Diagnostic{removal(id, 9, 10, "?")}

	res, err := Apply(fs, diags, Options{DryRun: true})
	if err != nil || len(res.FileChanges) != 1 {
		t.Fatalf("dry run: %+v, %v", res, err)
	}
	if got, _ := os.ReadFile(path); string(got) != "val a: A??\r\n" {
		t.Fatalf("dry run must not write, got %q", got)
	}

	_, err = Apply(fs, diags, Options{Skip: func(string) bool { return true }})
	if !errors.Is(err, ErrNoFixes) {
		t.Fatalf("expected ErrNoFixes when every file is skipped, got %v", err)
	}

	if _, err := Apply(fs, diags, Options{}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got, _ := os.ReadFile(path); string(got) != "val a: A?\r\n" {
		t.Fatalf("line endings must survive, got %q", got)
	}
}

func TestApplyIgnoresVirtualFiles(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("mem.kt", []byte("A??"))
	res, err := Apply(fs, []diag.Diagnostic{removal(id, 2, 3, "?")}, Options{})
	if !errors.Is(err, ErrNoFixes) || len(res.Skipped) != 1 {
		t.Fatalf("expected virtual file to be skipped, got %+v, %v", res, err)
	}
}

func TestOverlaps(t *testing.T) {
	sp := func(s, e uint32) source.Span { return source.Span{Start: s, End: e} }
	tests := []struct {
		a, b source.Span
		want bool
	}{
		{sp(0, 2), sp(2, 4), false},
		{sp(0, 3), sp(2, 4), true},
		{sp(2, 2), sp(2, 2), false},
		{sp(2, 2), sp(1, 3), true},
		{sp(1, 3), sp(3, 3), false},
	}
	for _, tt := range tests {
		if got := overlaps(tt.a, tt.b); got != tt.want {
			t.Fatalf("overlaps(%v, %v) = %v", tt.a, tt.b, got)
		}
	}
}
