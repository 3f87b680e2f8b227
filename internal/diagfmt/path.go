package diagfmt

import (
	"path/filepath"

	"smartcast/internal/source"
)

func displayPath(fs *source.FileSet, id source.FileID, mode PathMode) string {
	f := fs.Get(id)
	if f == nil {
		return "<unknown>"
	}
	if f.Virtual() {
		return f.Path
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	case PathModeRelative:
		base := fs.BaseDir()
		if base == "" {
			base = "."
		}
		if rel, err := source.RelativePath(f.Path, base); err == nil {
			return rel
		}
		return f.Path
	default:
		return f.DisplayPath(fs.BaseDir())
	}
}
