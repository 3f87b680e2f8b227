package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"smartcast/internal/project"
	"smartcast/internal/source"
	"smartcast/internal/unit"
)

const sampleUnit = "../../internal/unit/testdata/sample.toml"

func TestReadUIMode(t *testing.T) {
	tests := []struct {
		in   string
		want uiMode
		err  bool
	}{
		{"", uiModeAuto, false},
		{"AUTO", uiModeAuto, false},
		{" on ", uiModeOn, false},
		{"off", uiModeOff, false},
		{"sometimes", "", true},
	}
	for _, tt := range tests {
		got, err := readUIMode(tt.in)
		if (err != nil) != tt.err || got != tt.want {
			t.Fatalf("readUIMode(%q) = %q, %v", tt.in, got, err)
		}
	}
	if !shouldUseTUI(uiModeOn, 1) || shouldUseTUI(uiModeOff, 8) {
		t.Fatalf("explicit ui modes must be honoured")
	}
	if shouldUseTUI(uiModeAuto, 1) {
		t.Fatalf("a single unit needs no progress view")
	}
}

func TestResolveUnits(t *testing.T) {
	dir := t.TempDir()
	if _, err := project.WriteTemplate(dir, "demo"); err != nil {
		t.Fatalf("WriteTemplate: %v", err)
	}
	unitsDir := filepath.Join(dir, "units")
	for _, name := range []string{"a.toml", "b.yaml"} {
		if err := os.WriteFile(filepath.Join(unitsDir, name), nil, 0o600); err != nil {
			t.Fatal(err)
		}
	}
	m, ok, err := project.Load(dir)
	if err != nil || !ok {
		t.Fatalf("project.Load: %v (found=%v)", err, ok)
	}
	cfg := runConfig{manifest: m}

	units, err := resolveUnits("", cfg)
	if err != nil || len(units) != 2 {
		t.Fatalf("expected both units from the manifest, got %v, %v", units, err)
	}
	units, err = resolveUnits(sampleUnit, runConfig{})
	if err != nil || len(units) != 1 {
		t.Fatalf("single unit: %v, %v", units, err)
	}
	if _, err := resolveUnits("", runConfig{}); err == nil {
		t.Fatalf("expected error without unit and manifest")
	}
	if _, err := resolveUnits(filepath.Join(dir, project.ManifestName), cfg); err != nil {
		t.Fatalf("a .toml path is accepted as a unit: %v", err)
	}
	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := resolveUnits(notes, cfg); err == nil {
		t.Fatalf("expected error for a non-unit file")
	}
}

func TestConfigStart(t *testing.T) {
	wd := filepath.Join(string(filepath.Separator), "work")
	abs := filepath.Join(wd, "other", "u.toml")
	tests := []struct {
		target string
		want   string
	}{
		{"", wd},
		{filepath.Join("units", "a.toml"), filepath.Join(wd, "units", "a.toml")},
		{abs, abs},
	}
	for _, tt := range tests {
		if got := configStart(tt.target, wd); got != tt.want {
			t.Errorf("configStart(%q) = %q, want %q", tt.target, got, tt.want)
		}
	}
}

func TestQueryAllSample(t *testing.T) {
	u, err := unit.Load(context.Background(), sampleUnit, source.NewFileSet())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entries, err := queryAll(context.Background(), u, true)
	if err != nil {
		t.Fatalf("queryAll: %v", err)
	}
	out := queryOutput{Unit: u.Name, Epoch: uint64(u.Epoch()), Entries: entries}
	var buf bytes.Buffer
	if err := renderQueryPretty(&buf, out); err != nil {
		t.Fatalf("render: %v", err)
	}
	got := buf.String()
	for _, want := range []string{
		"unit sample (epoch 1)",
		"expr 1: Leaf",
		"expr 4: -",
		"  dispatch receiver #0: Leaf",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("missing %q in:\n%s", want, got)
		}
	}
	if strings.Contains(got, "expr 3:") {
		t.Fatalf("unstable facts must not be shown:\n%s", got)
	}
}

func TestQueryOneAbsent(t *testing.T) {
	u, err := unit.Load(context.Background(), sampleUnit, source.NewFileSet())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	entry, err := queryOne(context.Background(), u, 99, true)
	if err != nil {
		t.Fatalf("queryOne: %v", err)
	}
	if entry.Type != "" || entry.Error != "" || len(entry.Receivers) != 0 {
		t.Fatalf("expression without facts must be empty, got %+v", entry)
	}
}
