package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// Magic identifies a persisted codeblock file; Version allows the loader
// to reject incompatible formats, per spec.md §6: "Loader must reject
// version mismatches and fall back to recompilation from source."
const (
	Magic        uint32 = 0x54534243 // "TSBC"
	FormatVersion uint32 = 1
)

// ErrVersionMismatch is returned by Unmarshal when the persisted format
// version does not match FormatVersion.
var ErrVersionMismatch = fmt.Errorf("tinscript bytecode: version mismatch")

// Marshal encodes cb in the spec.md §6 "Bytecode format" layout: magic,
// version, file hash, file name and source checksum, then the name-hash
// table, constant pool, function table, bytecode words, line table and
// the HasBreakableLines flag. All integers are
// little-endian 32-bit; strings are UTF-8 with a leading 32-bit length.
func Marshal(cb *Codeblock) ([]byte, error) {
	var buf bytes.Buffer
	w := &writer{w: &buf}

	w.u32(Magic)
	w.u32(FormatVersion)
	w.u32(cb.FileHash)
	w.str(cb.FileName)
	w.u32(cb.Checksum)

	w.u32(uint32(len(cb.NameTable)))
	for hash, s := range cb.NameTable {
		w.u32(hash)
		w.str(s)
	}

	w.u32(uint32(len(cb.Constants)))
	for _, v := range cb.Constants {
		writeValue(w, v)
	}

	w.u32(uint32(len(cb.Functions)))
	for _, fn := range cb.Functions {
		writeFunction(w, fn)
	}

	w.u32(uint32(len(cb.Bytecode)))
	for _, word := range cb.Bytecode {
		w.u32(word)
	}

	w.u32(uint32(len(cb.LineTable)))
	for _, le := range cb.LineTable {
		w.u32(le.Offset)
		w.u32(uint32(le.Line))
	}

	w.bool(cb.HasBreakableLines)

	if w.err != nil {
		return nil, w.err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a codeblock previously produced by Marshal. It rejects
// a format-version mismatch outright (the caller should fall back to
// recompiling from source, per spec.md §6) rather than attempting any
// partial/best-effort decode.
func Unmarshal(data []byte) (*Codeblock, error) {
	r := &reader{r: bytes.NewReader(data)}

	if magic := r.u32(); magic != Magic {
		return nil, fmt.Errorf("tinscript bytecode: bad magic %#x", magic)
	}
	if version := r.u32(); version != FormatVersion {
		return nil, ErrVersionMismatch
	}

	cb := &Codeblock{NameTable: make(map[uint32]string)}
	cb.FileHash = r.u32()
	cb.FileName = r.str()
	cb.Checksum = r.u32()

	for n := r.u32(); n > 0; n-- {
		hash := r.u32()
		s := r.str()
		cb.NameTable[hash] = s
	}

	for n := r.u32(); n > 0; n-- {
		cb.Constants = append(cb.Constants, readValue(r))
	}

	for n := r.u32(); n > 0; n-- {
		cb.Functions = append(cb.Functions, readFunction(r))
	}

	for n := r.u32(); n > 0; n-- {
		cb.Bytecode = append(cb.Bytecode, r.u32())
	}

	for n := r.u32(); n > 0; n-- {
		off := r.u32()
		line := int(r.u32())
		cb.LineTable = append(cb.LineTable, LineEntry{Offset: off, Line: line})
	}

	cb.HasBreakableLines = r.boolean()

	if r.err != nil && r.err != io.EOF {
		return nil, r.err
	}
	return cb, nil
}

func writeValue(w *writer, v types.Value) {
	w.u32(uint32(v.Kind()))
	switch v.Kind() {
	case types.Bool:
		w.bool(v.AsBool())
	case types.Int32:
		w.u32(uint32(v.AsInt32()))
	case types.Float:
		w.u32(math.Float32bits(v.AsFloat()))
	case types.String:
		w.u32(v.AsStringHash())
	case types.Object:
		w.u32(v.AsObjectID())
	case types.Hashtable:
		w.u32(v.AsHashtableHandle())
	case types.Vector3f:
		x, y, z := v.AsVector3f()
		w.u32(math.Float32bits(x))
		w.u32(math.Float32bits(y))
		w.u32(math.Float32bits(z))
	}
}

func readValue(r *reader) types.Value {
	kind := types.Kind(r.u32())
	switch kind {
	case types.Bool:
		return types.NewBool(r.boolean())
	case types.Int32:
		return types.NewInt32(int32(r.u32()))
	case types.Float:
		return types.NewFloat(math.Float32frombits(r.u32()))
	case types.String:
		return types.NewStringHash(r.u32())
	case types.Object:
		return types.NewObject(r.u32())
	case types.Hashtable:
		return types.NewHashtable(r.u32())
	case types.Vector3f:
		x := math.Float32frombits(r.u32())
		y := math.Float32frombits(r.u32())
		z := math.Float32frombits(r.u32())
		return types.NewVector3f(x, y, z)
	default:
		return types.Nil
	}
}

func writeFunction(w *writer, fn *symtab.Function) {
	w.u32(fn.NameHash)
	w.u32(fn.NamespaceID)
	w.u32(uint32(fn.Dispatch))
	w.u32(fn.CodeblockHandle)
	w.u32(fn.EntryOffset)
	w.u32(uint32(fn.NumLocals))
	w.u32(fn.Location.FileHash)
	w.u32(uint32(fn.Location.Line))

	w.u32(uint32(len(fn.Parameters)))
	for _, p := range fn.Parameters {
		w.u32(p.NameHash)
		w.u32(uint32(p.Kind))
		w.u32(uint32(p.ArraySize))
		w.u32(uint32(p.Offset))
		w.u32(uint32(p.Flags))
		w.u32(uint32(p.ParamIndex))
	}
	w.u32(uint32(len(fn.Defaults)))
	for _, d := range fn.Defaults {
		writeValue(w, d)
	}
}

func readFunction(r *reader) *symtab.Function {
	fn := &symtab.Function{}
	fn.NameHash = r.u32()
	fn.NamespaceID = r.u32()
	fn.Dispatch = symtab.DispatchKind(r.u32())
	fn.CodeblockHandle = r.u32()
	fn.EntryOffset = r.u32()
	fn.NumLocals = int(r.u32())
	fn.Location.FileHash = r.u32()
	fn.Location.Line = int(r.u32())

	for n := r.u32(); n > 0; n-- {
		var p symtab.Variable
		p.NameHash = r.u32()
		p.Kind = types.Kind(r.u32())
		p.ArraySize = int(r.u32())
		p.Offset = int(r.u32())
		p.Flags = symtab.VarFlag(r.u32())
		p.ParamIndex = int(r.u32())
		fn.Parameters = append(fn.Parameters, p)
	}
	for n := r.u32(); n > 0; n-- {
		fn.Defaults = append(fn.Defaults, readValue(r))
	}
	return fn
}

// writer/reader are tiny little-endian binary helpers local to this
// package; encoding/binary already does the heavy lifting, these just
// accumulate the first error so call sites above can stay error-check-free.
type writer struct {
	w   io.Writer
	err error
}

func (w *writer) u32(v uint32) {
	if w.err != nil {
		return
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	_, w.err = w.w.Write(b[:])
}

func (w *writer) bool(b bool) {
	if b {
		w.u32(1)
	} else {
		w.u32(0)
	}
}

func (w *writer) str(s string) {
	w.u32(uint32(len(s)))
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, s)
}

type reader struct {
	r   *bytes.Reader
	err error
}

func (r *reader) u32() uint32 {
	if r.err != nil {
		return 0
	}
	var b [4]byte
	if _, err := io.ReadFull(r.r, b[:]); err != nil {
		r.err = err
		return 0
	}
	return binary.LittleEndian.Uint32(b[:])
}

func (r *reader) boolean() bool { return r.u32() != 0 }

func (r *reader) str() string {
	n := r.u32()
	if r.err != nil || n == 0 {
		return ""
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r.r, b); err != nil {
		r.err = err
		return ""
	}
	return string(b)
}
