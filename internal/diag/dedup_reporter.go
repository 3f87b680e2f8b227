package diag

import "smartcast/internal/source"

type dedupKey struct {
	code Code
	sev  Severity
	span source.Span
	pos  Positioning
}

// DedupReporter forwards each (code, severity, span, positioning) once.
// Marker checks reach one declaration through every subtype that lists it,
// so the same deprecated-supertype or reference diagnostic may be produced
// several times per unit.
type DedupReporter struct {
	next       Reporter
	seen       map[dedupKey]struct{}
	suppressed map[Code]int
}

func NewDedupReporter(next Reporter) *DedupReporter {
	return &DedupReporter{
		next:       next,
		seen:       make(map[dedupKey]struct{}),
		suppressed: make(map[Code]int),
	}
}

func (r *DedupReporter) Report(code Code, sev Severity, primary source.Span, pos Positioning, notes []Note, fixes []Fix) {
	if r == nil {
		return
	}
	key := dedupKey{code: code, sev: sev, span: primary, pos: pos}
	if _, dup := r.seen[key]; dup {
		r.suppressed[code]++
		return
	}
	r.seen[key] = struct{}{}
	if r.next != nil {
		r.next.Report(code, sev, primary, pos, notes, fixes)
	}
}

// Suppressed returns how many repeats were dropped, in total and per code.
func (r *DedupReporter) Suppressed() (total int, byCode map[Code]int) {
	if r == nil {
		return 0, nil
	}
	byCode = make(map[Code]int, len(r.suppressed))
	for code, n := range r.suppressed {
		byCode[code] = n
		total += n
	}
	return total, byCode
}
