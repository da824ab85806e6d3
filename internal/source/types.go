package source

type (
	// FileID uniquely identifies a source file within a FileSet.
	FileID uint32 // просто ID источника
	// FileFlags encodes metadata about a source file.
	FileFlags uint8 // метаданные
)

const (
	// FileVirtual indicates the file was added from memory (test, stdin, etc.).
	FileVirtual FileFlags = 1 << iota // добавлен не с диска (тест, stdin)
	FileHadBOM
	FileNormalizedCRLF
	// FileTranscoded marks content decoded from a non-UTF-8 input encoding.
	FileTranscoded
)

// File captures metadata and content for a single documentation source file.
// Content is always UTF-8 with LF line endings.
type File struct {
	ID       FileID
	Path     string
	Docname  string // path relative to the FileSet base, without suffix
	Content  []byte
	LineIdx  []uint32
	Hash     [32]byte
	Flags    FileFlags
	Encoding string
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based
}

// Line is one physical source line together with its origin. Block parsers
// pass slices of Line around so that nested content keeps its positions.
type Line struct {
	Text string
	File FileID
	No   uint32 // 1-based
}

// SourceLines splits file content into Line values. Tabs are expanded to tabWidth
// columns and trailing whitespace is dropped.
func (f *File) SourceLines(tabWidth int) []Line {
	raw := f.Lines()
	out := make([]Line, len(raw))
	for i, text := range raw {
		out[i] = Line{Text: ExpandTabs(text, tabWidth), File: f.ID, No: uint32(i + 1)}
	}
	return out
}
