package source

type (
	// FileID indexes a file inside its FileSet. Ids start at 0.
	FileID uint32
	// FileFlags records how a file entered the FileSet.
	FileFlags uint8
)

const (
	// FileVirtual marks content that has no backing file on disk, such as
	// synthesized load-error anchors and test units.
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
)

// File is one source file as loaded into a FileSet. Content is normalized
// (no BOM, LF line endings); the flags tell what was stripped.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32 // byte offset of every line start
	Hash    [32]byte
	Flags   FileFlags
}

// Virtual reports whether f was added from memory.
func (f *File) Virtual() bool { return f.Flags&FileVirtual != 0 }

// LineCol is a 1-based line and byte column.
type LineCol struct {
	Line uint32
	Col  uint32
}
