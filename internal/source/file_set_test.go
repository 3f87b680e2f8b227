package source

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("unit.kt", []byte("hello world"), 0)
	id2 := fs.Add("unit.kt", []byte("hello universe"), 0)
	if id1 == id2 {
		t.Fatalf("expected distinct ids for repeated Add, got %d", id1)
	}
	latest, ok := fs.GetLatest("unit.kt")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	if got := string(fs.Get(id1).Content); got != "hello world" {
		t.Fatalf("old version lost: %q", got)
	}
	if fs.Get(FileID(42)) != nil {
		t.Fatalf("expected nil for unknown id")
	}
}

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem.kt", []byte("val a: B?\nval c: D??\n"))

	tests := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{Line: 1, Col: 1}},
		{7, LineCol{Line: 1, Col: 8}},
		{9, LineCol{Line: 1, Col: 10}},
		{10, LineCol{Line: 2, Col: 1}},
		{17, LineCol{Line: 2, Col: 8}},
	}
	for _, tt := range tests {
		start, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
		if start != tt.want {
			t.Errorf("offset %d: got %+v, want %+v", tt.off, start, tt.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("mem.kt", []byte("first\nsecond\nthird"))
	f := fs.Get(id)
	for n, want := range map[uint32]string{1: "first", 2: "second", 3: "third", 4: "", 0: ""} {
		if got := f.GetLine(n); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crlf.kt")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fs := NewFileSetWithBase(dir)
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content not normalized: %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags not recorded: %b", f.Flags)
	}
	if got := f.DisplayPath(dir); got != "crlf.kt" {
		t.Fatalf("DisplayPath = %q", got)
	}
}
