// Package diag defines the diagnostic model shared by the checkers, the unit
// loader and the CLI.
//
// Producers never format text. A diagnostic is a Code, a Severity, a primary
// source.Span, a Positioning hint telling renderers which part of a
// declaration the span denotes, optional notes and optional fixes. Renderers
// in internal/diagfmt turn Code.Title() and the notes into human output.
//
// Producers emit through a Reporter. BagReporter collects into a Bag, which
// supports the capacity limit used by --max-diagnostics, deterministic
// sorting and deduplication. DedupReporter filters duplicates on the fly.
package diag
