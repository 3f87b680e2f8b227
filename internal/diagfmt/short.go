package diagfmt

import (
	"fmt"
	"io"

	"smartcast/internal/diag"
	"smartcast/internal/source"
)

// Short writes one line per diagnostic: path:line:col: severity CODE: message.
func Short(w io.Writer, bag *diag.Bag, fs *source.FileSet, mode PathMode) error {
	if bag == nil {
		return nil
	}
	items := bag.Items()
	for i := range items {
		d := &items[i]
		start, _ := fs.Resolve(d.Primary)
		if _, err := fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			displayPath(fs, d.Primary.File, mode), start.Line, start.Col,
			d.Severity.Label(), d.Code.ID(), d.Message()); err != nil {
			return err
		}
	}
	return nil
}
