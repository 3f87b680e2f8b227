// Package fix applies the text edits attached to diagnostics to the files
// they point into.
package fix

import (
	"bytes"
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"smartcast/internal/diag"
	"smartcast/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	Title       string
	Code        diag.Code
	PrimaryPath string
	EditCount   int
}

// SkippedFix captures a skipped fix with a reason.
type SkippedFix struct {
	Title  string
	Code   diag.Code
	Reason string
}

// FileChange summarises modifications performed on a file.
type FileChange struct {
	File      source.FileID
	Path      string
	EditCount int
}

// Result aggregates applied fixes, skipped ones, and file changes.
type Result struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

// Options configures Apply.
type Options struct {
	// DryRun computes the result without writing files.
	DryRun bool
	// Skip reports files that must not be touched, e.g. because an earlier
	// Apply already rewrote them and the loaded content is stale.
	Skip func(path string) bool
}

type candidate struct {
	diag  *diag.Diagnostic
	fix   *diag.Fix
	order int
}

// Apply applies every fix of diagnostics whose edits do not overlap an
// earlier fix and whose OldText guards still match. A fix is applied as a
// whole or not at all. Files are rewritten once, after all fixes were
// staged.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts Options) (*Result, error) {
	result := &Result{}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	var cands []candidate
	for i := range diagnostics {
		d := &diagnostics[i]
		for j := range d.Fixes {
			cands = append(cands, candidate{diag: d, fix: &d.Fixes[j], order: len(cands)})
		}
	}
	if len(cands) == 0 {
		return result, ErrNoFixes
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(a.diag.Primary.File, b.diag.Primary.File),
			cmp.Compare(a.diag.Primary.Start, b.diag.Primary.Start),
			cmp.Compare(a.order, b.order),
		)
	})

	accepted := make(map[source.FileID][]diag.FixEdit)
	for _, c := range cands {
		if reason := check(fs, c.fix, accepted, opts.Skip); reason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{Title: c.fix.Title, Code: c.diag.Code, Reason: reason})
			continue
		}
		for _, e := range c.fix.Edits {
			accepted[e.Span.File] = append(accepted[e.Span.File], e)
		}
		result.Applied = append(result.Applied, AppliedFix{
			Title:       c.fix.Title,
			Code:        c.diag.Code,
			PrimaryPath: displayPath(fs, c.diag.Primary.File),
			EditCount:   len(c.fix.Edits),
		})
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	files := make([]source.FileID, 0, len(accepted))
	for id := range accepted {
		files = append(files, id)
	}
	slices.Sort(files)
	for _, id := range files {
		file := fs.Get(id)
		buf := restore(file, rewrite(file.Content, accepted[id]))
		if !opts.DryRun {
			mode := os.FileMode(0o644)
			if info, err := os.Stat(file.Path); err == nil {
				mode = info.Mode()
			}
			if err := os.WriteFile(file.Path, buf, mode); err != nil {
				return result, fmt.Errorf("write %s: %w", file.Path, err)
			}
		}
		result.FileChanges = append(result.FileChanges, FileChange{
			File:      id,
			Path:      displayPath(fs, id),
			EditCount: len(accepted[id]),
		})
	}
	return result, nil
}

// check returns why f cannot be applied on top of accepted, or "".
func check(fs *source.FileSet, f *diag.Fix, accepted map[source.FileID][]diag.FixEdit, skip func(string) bool) string {
	if len(f.Edits) == 0 {
		return "fix has no edits"
	}
	for i, e := range f.Edits {
		file := fs.Get(e.Span.File)
		switch {
		case file == nil:
			return "target file is unknown"
		case file.Virtual():
			return "target file is virtual"
		case skip != nil && skip(file.Path):
			return "target file was already rewritten"
		case e.Span.End < e.Span.Start || int(e.Span.End) > len(file.Content):
			return "edit span out of range"
		case e.OldText != "" && string(file.Content[e.Span.Start:e.Span.End]) != e.OldText:
			return "existing text does not match expected content"
		}
		for _, prev := range accepted[e.Span.File] {
			if overlaps(prev.Span, e.Span) {
				return fmt.Sprintf("conflicts with a previously applied edit in %s", displayPath(fs, e.Span.File))
			}
		}
		for _, other := range f.Edits[:i] {
			if other.Span.File == e.Span.File && overlaps(other.Span, e.Span) {
				return "fix has overlapping edits"
			}
		}
	}
	return ""
}

// overlaps treats spans as half-open; two insertions never overlap, an
// insertion overlaps a span that strictly contains its position.
func overlaps(a, b source.Span) bool {
	switch {
	case a.Empty() && b.Empty():
		return false
	case a.Empty():
		return b.Start <= a.Start && a.Start < b.End
	case b.Empty():
		return a.Start <= b.Start && b.Start < a.End
	}
	return a.Start < b.End && b.Start < a.End
}

// rewrite applies non-overlapping edits back to front.
func rewrite(content []byte, edits []diag.FixEdit) []byte {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b diag.FixEdit) int {
		return cmp.Or(cmp.Compare(b.Span.Start, a.Span.Start), cmp.Compare(b.Span.End, a.Span.End))
	})
	out := slices.Clone(content)
	for _, e := range sorted {
		out = slices.Concat(out[:e.Span.Start], []byte(e.NewText), out[e.Span.End:])
	}
	return out
}

// restore re-applies the normalizations FileSet.Load undid.
func restore(file *source.File, content []byte) []byte {
	if file.Flags&source.FileNormalizedCRLF != 0 {
		content = bytes.ReplaceAll(content, []byte("\n"), []byte("\r\n"))
	}
	if file.Flags&source.FileHadBOM != 0 {
		content = append([]byte{0xEF, 0xBB, 0xBF}, content...)
	}
	return content
}

func displayPath(fs *source.FileSet, id source.FileID) string {
	f := fs.Get(id)
	if f == nil {
		return ""
	}
	return f.DisplayPath(fs.BaseDir())
}
