package driver

import (
	"encoding/json"

	"smartcast/internal/diag"
	"smartcast/internal/observ"
	"smartcast/internal/source"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	Path    string               `json:"path,omitempty"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// appendTimingDiagnostic records report as an ObsTimings info diagnostic
// whose note carries the JSON payload. The bag limit does not apply.
func appendTimingDiagnostic(bag *diag.Bag, file source.FileID, path string, report observ.Report) {
	if bag == nil {
		return
	}
	data, err := json.Marshal(timingPayload{
		Kind:    "unit",
		Path:    path,
		TotalMS: report.WallMS,
		Phases:  report.Phases,
	})
	if err != nil {
		return
	}
	sp := source.Span{File: file}
	entry := diag.NewReportBuilder(nil, diag.SevInfo, diag.ObsTimings, sp).
		WithNote(sp, string(data)).
		Diagnostic()

	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(0)
	overflow.Add(entry)
	bag.Merge(overflow)
}
