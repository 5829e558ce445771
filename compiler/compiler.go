// Package compiler implements spec.md §4.3's bytecode emission: walking a
// parsed file and producing a bytecode.Codeblock, populating the global
// function/namespace tables as declarations are encountered.
package compiler

import (
	"bytes"
	"fmt"

	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/lexer"
	"github.com/tinscript/tinscript/parser"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// CompileError reports a failed compile, per spec.md §7 "CompileError".
type CompileError struct {
	Loc     lexer.Location
	Message string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%v: compile error: %s", e.Loc, e.Message)
}

// Compiler holds the state shared across one file's compilation: the
// codeblock under construction, the namespace registry declarations land
// in, and the operator dispatch table. Dispatch is kept on the Compiler
// but not consulted during emission: expressions are not type-checked at
// compile time, and operand kinds are resolved by the VM at run time.
type Compiler struct {
	Registry *symtab.Registry
	Dispatch *types.Dispatch
}

// New returns a Compiler that declares functions/namespaces into reg and
// holds dispatch; no compile-time type check is made against it.
func New(reg *symtab.Registry, dispatch *types.Dispatch) *Compiler {
	return &Compiler{Registry: reg, Dispatch: dispatch}
}

// AsCompileFunc adapts c into a bytecode.CompileFunc, so a bytecode.Store
// can be built without the bytecode package importing compiler (spec.md §2
// "leaves first" dependency order).
func (c *Compiler) AsCompileFunc() bytecode.CompileFunc {
	return func(fileHash uint32, fileName string, source []byte) (*bytecode.Codeblock, error) {
		return c.Compile(fileHash, fileName, source)
	}
}

// Compile lexes, parses, and emits bytecode for one source file.
func (c *Compiler) Compile(fileHash uint32, fileName string, source []byte) (*bytecode.Codeblock, error) {
	lx := lexer.New(bytes.NewReader(source), fileName)
	p := parser.New(lx, fileName)
	file, err := p.ParseFile()
	if err != nil {
		return nil, err
	}

	fc := &fileCompiler{
		c:  c,
		cb: bytecode.New(fileHash, fileName),
	}
	fc.globalWords = c.Registry.Global().Members.SlotCount()
	if err := fc.compileFile(file); err != nil {
		return nil, err
	}
	return fc.cb, nil
}

// fileCompiler is per-file emission state: the codeblock, current function
// frame layout, and loop/switch control-flow patch lists. A fresh
// fileCompiler is used for every Compile call; persistent symbol state
// lives in Compiler.Registry.
type fileCompiler struct {
	c  *Compiler
	cb *bytecode.Codeblock

	globalWords int // running global-variable slot offset, shared across all files compiled against the same Registry

	frame  *frame // current function's locals, nil at top level
	anonID int    // synthetic name counter for switch-tag temporaries

	lastLine int

	breakStack    [][]int
	continueStack [][]int
}

// frame is the compile-time shape of one function activation: a flat
// name->Variable map (no offset reclamation across nested blocks, so
// shadowing is not supported -- every local name in a function must be
// unique, matching spec.md §4.4's single-table-per-scope model applied at
// function granularity).
type frame struct {
	vars   map[uint32]*symtab.Variable
	words  int
	parent *frame // enclosing function's frame, for nested... (none in TinScript; always nil)
}

func newFrame() *frame { return &frame{vars: make(map[uint32]*symtab.Variable)} }

func (f *frame) declare(v symtab.Variable) *symtab.Variable {
	cp := v
	f.vars[v.NameHash] = &cp
	return &cp
}

func (f *frame) lookup(hash uint32) (*symtab.Variable, bool) {
	v, ok := f.vars[hash]
	return v, ok
}

// slotCount is the number of types.Value storage slots a variable of the
// given array size occupies. Every variable -- scalar or vector3f alike --
// is exactly one types.Value per element: Value already unifies a
// vector3f's three components into one addressable unit, so unlike
// spec.md's C++ "words" accounting this Go port does not need a separate
// per-component slot (Kind.Words() is retained for descriptive/debugger
// memory-size reporting only, see symtab.Table.Size).
func slotCount(arraySize int) int {
	if arraySize < 1 {
		return 1
	}
	return arraySize
}

func (fc *fileCompiler) errf(loc lexer.Location, format string, args ...interface{}) error {
	return &CompileError{Loc: loc, Message: fmt.Sprintf(format, args...)}
}

// emit appends an instruction (opcode + operands) and returns the bytecode
// offset (in words) the opcode itself was written at.
func (fc *fileCompiler) emit(op bytecode.Op, operands ...uint32) int {
	pos := len(fc.cb.Bytecode)
	fc.cb.Bytecode = append(fc.cb.Bytecode, uint32(op))
	fc.cb.Bytecode = append(fc.cb.Bytecode, operands...)
	return pos
}

// emitJump appends a jump-family opcode with a placeholder operand and
// returns the index of that operand word, for later patching via patch.
func (fc *fileCompiler) emitJump(op bytecode.Op) int {
	fc.emit(op, 0)
	return len(fc.cb.Bytecode) - 1
}

// patch resolves a previously emitted placeholder jump operand to target
// "here" (the current end of the bytecode stream), as a delta relative to
// the instruction's end.
func (fc *fileCompiler) patch(operandPos int) {
	fc.patchTo(operandPos, len(fc.cb.Bytecode))
}

func (fc *fileCompiler) patchTo(operandPos, target int) {
	delta := int32(target - (operandPos + 1))
	fc.cb.Bytecode[operandPos] = uint32(delta)
}

func (fc *fileCompiler) markLine(line int) {
	if line == fc.lastLine {
		return
	}
	fc.lastLine = line
	fc.cb.LineTable = append(fc.cb.LineTable, bytecode.LineEntry{Offset: uint32(len(fc.cb.Bytecode)), Line: line})
	fc.cb.HasBreakableLines = true
}

// addConst appends v to the constant pool (deduped by value equality where
// cheap) and returns its index.
func (fc *fileCompiler) addConst(v types.Value) uint32 {
	for i, ex := range fc.cb.Constants {
		if ex == v {
			return uint32(i)
		}
	}
	fc.cb.Constants = append(fc.cb.Constants, v)
	return uint32(len(fc.cb.Constants) - 1)
}

// nameHash computes and records a name's hash in the codeblock's name
// table, so the runtime string/name table can be repopulated without
// recompiling (spec.md §6 "name-hash table (hash, string)").
func (fc *fileCompiler) nameHash(s string) uint32 {
	h := types.HashName(s)
	fc.cb.AddName(h, s)
	return h
}

func (fc *fileCompiler) pushLoop() {
	fc.breakStack = append(fc.breakStack, nil)
	fc.continueStack = append(fc.continueStack, nil)
}

func (fc *fileCompiler) popLoop() (breaks, continues []int) {
	n := len(fc.breakStack)
	breaks, continues = fc.breakStack[n-1], fc.continueStack[n-1]
	fc.breakStack, fc.continueStack = fc.breakStack[:n-1], fc.continueStack[:n-1]
	return
}

func (fc *fileCompiler) pushBreakOnly() { fc.breakStack = append(fc.breakStack, nil) }

func (fc *fileCompiler) popBreakOnly() []int {
	n := len(fc.breakStack)
	breaks := fc.breakStack[n-1]
	fc.breakStack = fc.breakStack[:n-1]
	return breaks
}

func (fc *fileCompiler) recordBreak(pos int) {
	n := len(fc.breakStack)
	fc.breakStack[n-1] = append(fc.breakStack[n-1], pos)
}

func (fc *fileCompiler) recordContinue(pos int) {
	n := len(fc.continueStack)
	fc.continueStack[n-1] = append(fc.continueStack[n-1], pos)
}

// ---- top level ----

func (fc *fileCompiler) compileFile(file *parser.File) error {
	for _, stmt := range file.Stmts {
		if err := fc.compileTopLevel(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (fc *fileCompiler) compileTopLevel(stmt parser.Stmt) error {
	switch s := stmt.(type) {
	case *parser.FuncDecl:
		_, err := fc.compileFuncDecl(s, fc.c.Registry.Global())
		return err
	case *parser.ClassDecl:
		return fc.compileClassDecl(s)
	case *parser.VarDecl:
		return fc.compileGlobalVarDecl(s)
	default:
		fc.markLine(stmt.Pos().Line)
		return fc.compileStmt(stmt)
	}
}

func (fc *fileCompiler) compileGlobalVarDecl(vd *parser.VarDecl) error {
	fc.markLine(vd.Pos().Line)
	hash := fc.nameHash(vd.Name)
	v := symtab.Variable{NameHash: hash, Kind: vd.Type, ArraySize: vd.ArraySize, Offset: fc.globalWords, Flags: symtab.FlagGlobal}
	if !fc.c.Registry.Global().Members.Declare(v) {
		return fc.errf(vd.Pos(), "redeclared global variable %q", vd.Name)
	}
	fc.globalWords += slotCount(vd.ArraySize)

	switch {
	case vd.Init != nil:
		if err := fc.compileExpr(vd.Init); err != nil {
			return err
		}
		fc.emit(bytecode.OpAssignVar, uint32(bytecode.ScopeGlobal), uint32(v.Offset))
		fc.emit(bytecode.OpPop)
	case vd.IsHash:
		fc.emit(bytecode.OpNewHashtable)
		fc.emit(bytecode.OpAssignVar, uint32(bytecode.ScopeGlobal), uint32(v.Offset))
		fc.emit(bytecode.OpPop)
	}
	return nil
}

func (fc *fileCompiler) compileClassDecl(cd *parser.ClassDecl) error {
	nameHash := fc.nameHash(cd.Name)
	var parentHash uint32
	if cd.Base != "" {
		parentHash = fc.nameHash(cd.Base)
	}
	ns := symtab.NewNamespace(nameHash, parentHash)
	if !fc.c.Registry.Declare(ns) {
		return fc.errf(cd.Pos(), "redeclared class %q", cd.Name)
	}

	wordOff := 0
	for _, m := range cd.Members {
		mh := fc.nameHash(m.Name)
		v := symtab.Variable{NameHash: mh, Kind: m.Type, ArraySize: m.ArraySize, Offset: wordOff, Flags: symtab.FlagMember}
		if !ns.Members.Declare(v) {
			return fc.errf(m.Pos(), "redeclared member %q on class %q", m.Name, cd.Name)
		}
		wordOff += slotCount(m.ArraySize)
	}

	for _, method := range cd.Methods {
		if _, err := fc.compileFuncDecl(method, ns); err != nil {
			return err
		}
	}
	return nil
}

func (fc *fileCompiler) compileFuncDecl(fd *parser.FuncDecl, ns *symtab.Namespace) (*symtab.Function, error) {
	nameHash := fc.nameHash(fd.Name)

	// Function bodies are emitted inline in the same flat bytecode stream
	// as top-level statements (and sibling methods), so linear execution
	// of that stream must never fall through into a body -- only an
	// explicit call (via EntryOffset) may enter it. A jump-over placed
	// here, patched once the body is compiled, makes the declaration site
	// a no-op for whatever flow reaches it linearly (top-level init code,
	// or the statement that follows a sibling method).
	skipJump := fc.emitJump(bytecode.OpJump)

	fn := &symtab.Function{
		NameHash:        nameHash,
		NamespaceID:     ns.NameHash,
		Dispatch:        symtab.DispatchScript,
		CodeblockHandle: fc.cb.FileHash,
		EntryOffset:     uint32(len(fc.cb.Bytecode)),
		Location:        symtab.SourceLocation{FileHash: fc.cb.FileHash, Line: fd.Pos().Line},
	}
	// Parameters[0] is the "__return" pseudo-parameter, per spec.md §3.
	fn.Parameters = append(fn.Parameters, symtab.Variable{Kind: fd.ReturnType})
	fn.Defaults = append(fn.Defaults, types.Nil)

	fc.frame = newFrame()
	for i, param := range fd.Params {
		ph := fc.nameHash(param.Name)
		v := fc.frame.declare(symtab.Variable{
			NameHash: ph, Kind: param.Type, ArraySize: 1,
			Offset: i, Flags: symtab.FlagParameter | symtab.FlagLocal, ParamIndex: i,
		})
		fn.Parameters = append(fn.Parameters, *v)
		if param.Default != nil {
			dv, ok := fc.constFold(param.Default)
			if !ok {
				return nil, fc.errf(param.Default.Pos(), "default value for %q must be a constant expression", param.Name)
			}
			fn.Defaults = append(fn.Defaults, dv)
		} else {
			fn.Defaults = append(fn.Defaults, types.Nil)
		}
	}
	fc.frame.words = len(fd.Params)

	if !ns.Functions.Declare(fn) {
		fc.frame = nil
		return nil, fc.errf(fd.Pos(), "redeclared function %q", fd.Name)
	}

	fc.lastLine = 0
	if err := fc.compileBlock(fd.Body); err != nil {
		fc.frame = nil
		return nil, err
	}
	// Every script function falls through to an implicit `return;` if
	// control reaches the closing brace without an explicit return.
	fc.emit(bytecode.OpPushNull)
	fc.emit(bytecode.OpReturn)

	fn.NumLocals = fc.frame.words
	fc.patch(skipJump)

	fc.cb.Functions = append(fc.cb.Functions, fn)
	fc.frame = nil
	return fn, nil
}

// constFold evaluates a parameter-default expression at compile time;
// TinScript only allows literal defaults (spec.md §4.2), so this handles
// exactly the literal node kinds and rejects everything else.
func (fc *fileCompiler) constFold(e parser.Expr) (types.Value, bool) {
	switch n := e.(type) {
	case *parser.IntLit:
		return types.NewInt32(n.Value), true
	case *parser.FloatLit:
		return types.NewFloat(n.Value), true
	case *parser.BoolLit:
		return types.NewBool(n.Value), true
	case *parser.StringLit:
		h := fc.nameHash(n.Value)
		return types.NewStringHash(h), true
	case *parser.NullLit:
		return types.NullObject, true
	case *parser.HashLit:
		fc.cb.AddName(n.Hash, n.Name)
		return types.NewInt32(int32(n.Hash)), true
	}
	return types.Value{}, false
}
