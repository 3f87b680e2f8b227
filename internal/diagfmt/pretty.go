package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"smartcast/internal/diag"
	"smartcast/internal/source"
)

type palette struct {
	err, warn, info, note, fix, gutter, caret, bold *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		fix:    color.New(color.FgGreen),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgRed, color.Bold),
		bold:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.fix, p.gutter, p.caret, p.bold} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty renders every diagnostic of the bag with its source line and an
// underline below the primary span.
//
//	warning[SEM3001]: Redundant nullable type marker
//	  --> sample.kt:7:8
//	   |
//	 7 | val a: String??
//	   |        ^~~~~~~~
//	   = note: String? is already nullable
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	if bag == nil {
		return nil
	}
	p := newPalette(opts.Color)
	items := bag.Items()
	for i := range items {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := prettyOne(w, &items[i], fs, opts, p); err != nil {
			return err
		}
	}
	if dropped := bag.Dropped(); dropped > 0 {
		if _, err := fmt.Fprintf(w, "\n%s %d more diagnostic(s) not shown\n", p.note.Sprint("..."), dropped); err != nil {
			return err
		}
	}
	return nil
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, p palette) error {
	var b strings.Builder
	sevColor := p.severity(d.Severity)
	fmt.Fprintf(&b, "%s: %s\n",
		sevColor.Sprintf("%s[%s]", d.Severity.Label(), d.Code.ID()),
		p.bold.Sprint(d.Message()))

	start, end := fs.Resolve(d.Primary)
	path := displayPath(fs, d.Primary.File, opts.PathMode)
	gutterWidth := len(strconv.FormatUint(uint64(start.Line), 10))
	pad := strings.Repeat(" ", gutterWidth)

	fmt.Fprintf(&b, "%s%s %s:%d:%d\n", pad, p.gutter.Sprint("-->"), path, start.Line, start.Col)

	if f := fs.Get(d.Primary.File); f != nil && len(f.Content) > 0 {
		line := f.GetLine(start.Line)
		endCol := end.Col
		if end.Line != start.Line {
			endCol = ^uint32(0) // до конца строки
		}
		fmt.Fprintf(&b, "%s %s\n", pad, p.gutter.Sprint("|"))
		fmt.Fprintf(&b, "%s %s %s\n", p.gutter.Sprint(strconv.FormatUint(uint64(start.Line), 10)), p.gutter.Sprint("|"), line)
		fmt.Fprintf(&b, "%s %s %s\n", pad, p.gutter.Sprint("|"), p.caret.Sprint(underline(line, start.Col, endCol)))
	}

	if opts.ShowNotes {
		for _, n := range d.Notes {
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(&b, "%s %s %s (%s:%d:%d)\n", pad, p.note.Sprint("= note:"), n.Msg,
				displayPath(fs, n.Span.File, opts.PathMode), ns.Line, ns.Col)
		}
	}
	if opts.ShowFixes {
		for _, fx := range d.Fixes {
			fmt.Fprintf(&b, "%s %s %s\n", pad, p.fix.Sprint("= fix:"), fx.Title)
			for _, e := range fx.Edits {
				es, _ := fs.Resolve(e.Span)
				fmt.Fprintf(&b, "%s     %d:%d %s\n", pad, es.Line, es.Col, describeEdit(e))
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// underline builds "^~~~" under the byte columns [startCol, endCol) of line.
// Tabs are kept so the marker lines up with the source in any terminal.
func underline(line string, startCol, endCol uint32) string {
	from := clampCol(line, startCol)
	to := max(clampCol(line, endCol), from)

	var b strings.Builder
	for _, r := range line[:from] {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	width := runewidth.StringWidth(line[from:to])
	b.WriteByte('^')
	if width > 1 {
		b.WriteString(strings.Repeat("~", width-1))
	}
	return b.String()
}

func clampCol(line string, col uint32) int {
	if col == 0 {
		return 0
	}
	return min(int(col-1), len(line))
}

func describeEdit(e diag.FixEdit) string {
	switch {
	case e.NewText == "" && e.Span.Len() > 0:
		return fmt.Sprintf("delete %d byte(s)", e.Span.Len())
	case e.Span.Empty():
		return fmt.Sprintf("insert %q", e.NewText)
	default:
		return fmt.Sprintf("replace with %q", e.NewText)
	}
}
