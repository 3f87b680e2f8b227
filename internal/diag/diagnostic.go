package diag

import "smartcast/internal/source"

// Positioning tells renderers which part of a declaration the primary span
// covers.
type Positioning uint8

const (
	PosDefault Positioning = iota
	PosNameIdentifier
	PosObjectKeyword
)

func (p Positioning) String() string {
	switch p {
	case PosNameIdentifier:
		return "name"
	case PosObjectKeyword:
		return "object-keyword"
	default:
		return "default"
	}
}

type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit replaces Span with NewText. OldText, when set, guards the edit.
type FixEdit struct {
	Span    source.Span
	NewText string
	OldText string
}

type Fix struct {
	Title string
	Edits []FixEdit
}

type Diagnostic struct {
	Severity    Severity
	Code        Code
	Primary     source.Span
	Positioning Positioning
	Notes       []Note
	Fixes       []Fix
}

// Message is the rendered headline: the code title.
func (d *Diagnostic) Message() string {
	return d.Code.Title()
}
