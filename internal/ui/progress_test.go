package ui

import (
	"strings"
	"testing"
	"time"

	"smartcast/internal/driver"
)

func TestApplyEventTracksUnits(t *testing.T) {
	ch := make(chan driver.Event)
	m := NewProgressModel("check", []string{"a.toml", "b.toml"}, ch).(*progressModel)

	steps := []driver.Event{
		{Unit: "a.toml", Stage: driver.StageLoad, Status: driver.StatusWorking},
		{Unit: "a.toml", Stage: driver.StageLoad, Status: driver.StatusDone, Elapsed: time.Millisecond},
		{Unit: "b.toml", Stage: driver.StageLoad, Status: driver.StatusError},
		{Unit: "a.toml", Stage: driver.StageCheck, Status: driver.StatusWorking},
		{Unit: "unknown.toml", Stage: driver.StageCheck, Status: driver.StatusWorking},
	}
	for _, ev := range steps {
		m.applyEvent(ev)
	}

	if got := m.items[0].status; got != "checking" {
		t.Fatalf("a.toml: expected checking, got %q", got)
	}
	if got := m.items[1].status; got != "error" || !m.items[1].finished {
		t.Fatalf("b.toml: expected finished error, got %q", got)
	}
	if got := m.percent(); got != 0.75 {
		t.Fatalf("expected 0.75 progress, got %v", got)
	}

	m.applyEvent(driver.Event{Unit: "a.toml", Stage: driver.StageQuery, Status: driver.StatusDone})
	if m.finishedCount() != 2 || m.percent() != 1.0 {
		t.Fatalf("expected all units finished, got %d (%v)", m.finishedCount(), m.percent())
	}

	view := m.View()
	if !strings.Contains(view, "check (2/2)") || !strings.Contains(view, "a.toml") {
		t.Fatalf("unexpected view:\n%s", view)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"units/a.toml", 0, "units/a.toml"},
		{"units/a.toml", 40, "units/a.toml"},
		{"units/very/long/path.toml", 10, "units/v..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
