package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestTimerConcurrentPhases(t *testing.T) {
	timer := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			idx := timer.Begin("unit")
			timer.End(idx, "ok")
		}()
	}
	wg.Wait()

	report := timer.Report()
	if len(report.Phases) != 8 {
		t.Fatalf("expected 8 phases, got %d", len(report.Phases))
	}
	if !strings.Contains(timer.Summary(), "wall") {
		t.Fatalf("summary misses the wall line")
	}
}

func TestNilTimer(t *testing.T) {
	var timer *Timer
	timer.End(timer.Begin("x"), "")
	if len(timer.Report().Phases) != 0 {
		t.Fatalf("nil timer must be inert")
	}
}
