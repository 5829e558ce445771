package compiler

import (
	"fmt"

	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/parser"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// parserVar builds a local-scope symtab.Variable from a parsed VarDecl.
func parserVar(hash uint32, vd *parser.VarDecl, offset int) symtab.Variable {
	return symtab.Variable{NameHash: hash, Kind: vd.Type, ArraySize: vd.ArraySize, Offset: offset, Flags: symtab.FlagLocal}
}

// parserSwitchTagVar builds the hidden local holding a switch's evaluated
// tag value, compared against each case label without re-evaluating the
// tag expression.
func parserSwitchTagVar(hash uint32, offset int) symtab.Variable {
	return symtab.Variable{NameHash: hash, Kind: types.Int32, ArraySize: 1, Offset: offset, Flags: symtab.FlagLocal}
}

func switchTagName(id int) string { return fmt.Sprintf("__switch_tag$%d", id) }

func (fc *fileCompiler) compileBlock(b *parser.Block) error {
	for _, s := range b.Stmts {
		if err := fc.compileStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (fc *fileCompiler) compileStmt(stmt parser.Stmt) error {
	fc.markLine(stmt.Pos().Line)
	switch s := stmt.(type) {
	case *parser.ExprStmt:
		if err := fc.compileExpr(s.X); err != nil {
			return err
		}
		fc.emit(bytecode.OpPop)
		return nil
	case *parser.VarDecl:
		return fc.compileLocalVarDecl(s)
	case *parser.Block:
		return fc.compileBlock(s)
	case *parser.If:
		return fc.compileIf(s)
	case *parser.While:
		return fc.compileWhile(s)
	case *parser.For:
		return fc.compileFor(s)
	case *parser.Switch:
		return fc.compileSwitch(s)
	case *parser.Break:
		if len(fc.breakStack) == 0 {
			return fc.errf(s.Pos(), "break outside loop or switch")
		}
		pos := fc.emitJump(bytecode.OpJump)
		fc.recordBreak(pos)
		return nil
	case *parser.Continue:
		if len(fc.continueStack) == 0 {
			return fc.errf(s.Pos(), "continue outside loop")
		}
		pos := fc.emitJump(bytecode.OpJump)
		fc.recordContinue(pos)
		return nil
	case *parser.Return:
		if s.Value != nil {
			if err := fc.compileExpr(s.Value); err != nil {
				return err
			}
		} else {
			fc.emit(bytecode.OpPushNull)
		}
		fc.emit(bytecode.OpReturn)
		return nil
	case *parser.FuncDecl:
		// Nested function definitions are not part of spec.md's grammar;
		// a FuncDecl can only appear via parseTopLevel/parseClass, never
		// parseStmt, so this case is unreachable in practice.
		_, err := fc.compileFuncDecl(s, fc.c.Registry.Global())
		return err
	default:
		return fc.errf(stmt.Pos(), "unsupported statement")
	}
}

func (fc *fileCompiler) compileLocalVarDecl(vd *parser.VarDecl) error {
	hash := fc.nameHash(vd.Name)
	if _, exists := fc.frame.lookup(hash); exists {
		return fc.errf(vd.Pos(), "redeclared local variable %q", vd.Name)
	}
	off := fc.frame.words
	fc.frame.words += slotCount(vd.ArraySize)
	v := fc.frame.declare(parserVar(hash, vd, off))

	switch {
	case vd.Init != nil:
		if err := fc.compileExpr(vd.Init); err != nil {
			return err
		}
		fc.emit(bytecode.OpAssignVar, uint32(bytecode.ScopeLocal), uint32(v.Offset))
		fc.emit(bytecode.OpPop)
	case vd.IsHash:
		fc.emit(bytecode.OpNewHashtable)
		fc.emit(bytecode.OpAssignVar, uint32(bytecode.ScopeLocal), uint32(v.Offset))
		fc.emit(bytecode.OpPop)
	}
	return nil
}

func (fc *fileCompiler) compileIf(s *parser.If) error {
	if err := fc.compileExpr(s.Cond); err != nil {
		return err
	}
	elseJump := fc.emitJump(bytecode.OpJumpIfFalse)
	if err := fc.compileBlock(s.Then); err != nil {
		return err
	}
	if s.Else == nil {
		fc.patch(elseJump)
		return nil
	}
	endJump := fc.emitJump(bytecode.OpJump)
	fc.patch(elseJump)
	if err := fc.compileStmt(s.Else); err != nil {
		return err
	}
	fc.patch(endJump)
	return nil
}

func (fc *fileCompiler) compileWhile(s *parser.While) error {
	fc.pushLoop()
	loopStart := len(fc.cb.Bytecode)
	if err := fc.compileExpr(s.Cond); err != nil {
		return err
	}
	endJump := fc.emitJump(bytecode.OpJumpIfFalse)
	if err := fc.compileBlock(s.Body); err != nil {
		return err
	}
	breaks, continues := fc.popLoop()
	for _, pos := range continues {
		fc.patchTo(pos, loopStart)
	}
	fc.emit(bytecode.OpJump, 0)
	fc.patchTo(len(fc.cb.Bytecode)-1, loopStart)
	fc.patch(endJump)
	for _, pos := range breaks {
		fc.patch(pos)
	}
	return nil
}

func (fc *fileCompiler) compileFor(s *parser.For) error {
	if s.Init != nil {
		if err := fc.compileStmt(s.Init); err != nil {
			return err
		}
	}
	fc.pushLoop()
	loopStart := len(fc.cb.Bytecode)
	var endJump int
	hasCond := s.Cond != nil
	if hasCond {
		if err := fc.compileExpr(s.Cond); err != nil {
			return err
		}
		endJump = fc.emitJump(bytecode.OpJumpIfFalse)
	}
	if err := fc.compileBlock(s.Body); err != nil {
		return err
	}
	postStart := len(fc.cb.Bytecode)
	if s.Post != nil {
		if err := fc.compileStmt(s.Post); err != nil {
			return err
		}
	}
	breaks, continues := fc.popLoop()
	for _, pos := range continues {
		fc.patchTo(pos, postStart)
	}
	fc.emit(bytecode.OpJump, 0)
	fc.patchTo(len(fc.cb.Bytecode)-1, loopStart)
	if hasCond {
		fc.patch(endJump)
	}
	for _, pos := range breaks {
		fc.patch(pos)
	}
	return nil
}

func (fc *fileCompiler) compileSwitch(s *parser.Switch) error {
	if err := fc.compileExpr(s.Tag); err != nil {
		return err
	}
	fc.anonID++
	tagHash := fc.nameHash(switchTagName(fc.anonID))
	off := fc.frame.words
	fc.frame.words++
	tagVar := fc.frame.declare(parserSwitchTagVar(tagHash, off))
	fc.emit(bytecode.OpAssignVar, uint32(bytecode.ScopeLocal), uint32(tagVar.Offset))
	fc.emit(bytecode.OpPop)

	fc.pushBreakOnly()

	type caseJump struct {
		caseIdx int
		pos     int
	}
	var matchJumps []caseJump
	var defaultIdx = -1

	for ci, cs := range s.Cases {
		if len(cs.Values) == 0 {
			defaultIdx = ci
			continue
		}
		for _, v := range cs.Values {
			fc.emit(bytecode.OpPushVar, uint32(bytecode.ScopeLocal), uint32(tagVar.Offset))
			if err := fc.compileExpr(v); err != nil {
				return err
			}
			fc.emit(bytecode.OpBinary, uint32(types.OpEq))
			// There is no "jump if true" opcode; negate the comparison so
			// OpJumpIfFalse fires exactly when the original comparison was
			// true, giving jump-if-true semantics with the existing opcode.
			fc.emit(bytecode.OpUnary, uint32(types.OpNot))
			pos := fc.emitJump(bytecode.OpJumpIfFalse)
			matchJumps = append(matchJumps, caseJump{ci, pos})
		}
	}
	// No match: jump to default body (if any) else past the whole switch.
	noMatchJump := fc.emitJump(bytecode.OpJump)

	bodyStarts := make([]int, len(s.Cases))
	for ci, cs := range s.Cases {
		bodyStarts[ci] = len(fc.cb.Bytecode)
		for _, stmt := range cs.Body {
			if err := fc.compileStmt(stmt); err != nil {
				return err
			}
		}
	}
	end := len(fc.cb.Bytecode)

	for _, mj := range matchJumps {
		fc.patchTo(mj.pos, bodyStarts[mj.caseIdx])
	}
	if defaultIdx >= 0 {
		fc.patchTo(noMatchJump, bodyStarts[defaultIdx])
	} else {
		fc.patchTo(noMatchJump, end)
	}
	for _, pos := range fc.popBreakOnly() {
		fc.patchTo(pos, end)
	}
	return nil
}
