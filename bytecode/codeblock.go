package bytecode

import (
	"sort"

	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// LineEntry maps a bytecode offset to the source line that emitted it,
// per spec.md §3 "per-line start-offset table" and §4.3 "line table:
// sorted pairs (bytecode_offset, source_line)".
type LineEntry struct {
	Offset uint32
	Line   int
}

// Codeblock is the compiled unit for one source file: spec.md §3
// "Codeblock" fields exactly.
type Codeblock struct {
	FileHash uint32
	FileName string // convenience for diagnostics; not required by spec.md, reconstructed from the name table on load

	Bytecode  []uint32
	Constants []types.Value

	Functions []*symtab.Function

	LineTable         []LineEntry
	HasBreakableLines bool

	Checksum uint32 // source checksum for reload detection

	// NameTable holds every name hash this codeblock references together
	// with its original string, so the interned-string table can be
	// repopulated on load without recompiling from source (spec.md §6:
	// "name-hash table (hash, string)").
	NameTable map[uint32]string
}

// New returns an empty Codeblock for the given file.
func New(fileHash uint32, fileName string) *Codeblock {
	return &Codeblock{
		FileHash:  fileHash,
		FileName:  fileName,
		NameTable: make(map[uint32]string),
	}
}

// LineForOffset returns the source line active at the given bytecode
// offset: the line of the greatest LineTable entry whose Offset <= off.
func (cb *Codeblock) LineForOffset(off uint32) int {
	entries := cb.LineTable
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Offset > off })
	if i == 0 {
		return 0
	}
	return entries[i-1].Line
}

// NearestBreakableLine resolves a requested line to the smallest line
// number >= requested that has at least one emitted instruction anywhere
// in this codeblock. Function boundaries are not considered: the result
// may lie in a later function or in top-level code. Returns 0, false if
// no such line exists in this codeblock.
func (cb *Codeblock) NearestBreakableLine(requested int) (int, bool) {
	best := 0
	found := false
	for _, e := range cb.LineTable {
		if e.Line >= requested && (!found || e.Line < best) {
			best, found = e.Line, true
		}
	}
	return best, found
}

// OffsetForLine returns the first bytecode offset recorded for exactly
// this line.
func (cb *Codeblock) OffsetForLine(line int) (uint32, bool) {
	for _, e := range cb.LineTable {
		if e.Line == line {
			return e.Offset, true
		}
	}
	return 0, false
}

// AddName records a name hash/string pair in the codeblock's name table,
// idempotent.
func (cb *Codeblock) AddName(hash uint32, s string) {
	if _, ok := cb.NameTable[hash]; !ok {
		cb.NameTable[hash] = s
	}
}
