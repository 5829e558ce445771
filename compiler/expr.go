package compiler

import (
	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/parser"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

func (fc *fileCompiler) compileExpr(e parser.Expr) error {
	switch n := e.(type) {
	case *parser.IntLit:
		fc.emit(bytecode.OpPushConst, fc.addConst(types.NewInt32(n.Value)))
		return nil
	case *parser.FloatLit:
		fc.emit(bytecode.OpPushConst, fc.addConst(types.NewFloat(n.Value)))
		return nil
	case *parser.BoolLit:
		fc.emit(bytecode.OpPushConst, fc.addConst(types.NewBool(n.Value)))
		return nil
	case *parser.StringLit:
		h := fc.nameHash(n.Value)
		fc.emit(bytecode.OpPushConst, fc.addConst(types.NewStringHash(h)))
		return nil
	case *parser.HashLit:
		fc.cb.AddName(n.Hash, n.Name)
		fc.emit(bytecode.OpPushConst, fc.addConst(types.NewInt32(int32(n.Hash))))
		return nil
	case *parser.NullLit:
		fc.emit(bytecode.OpPushNull)
		return nil
	case *parser.Ident:
		return fc.compileIdent(n)
	case *parser.Unary:
		if err := fc.compileExpr(n.X); err != nil {
			return err
		}
		fc.emit(bytecode.OpUnary, uint32(n.Op))
		return nil
	case *parser.Binary:
		if err := fc.compileExpr(n.Lhs); err != nil {
			return err
		}
		if err := fc.compileExpr(n.Rhs); err != nil {
			return err
		}
		fc.emit(bytecode.OpBinary, uint32(n.Op))
		return nil
	case *parser.Assign:
		return fc.compileAssign(n)
	case *parser.Member:
		if err := fc.compileExpr(n.Receiver); err != nil {
			return err
		}
		fc.emit(bytecode.OpPushMember, fc.nameHash(n.Name))
		return nil
	case *parser.Index:
		if err := fc.compileExpr(n.Receiver); err != nil {
			return err
		}
		if err := fc.compileExpr(n.Key); err != nil {
			return err
		}
		fc.emit(bytecode.OpPushElement)
		return nil
	case *parser.Call:
		return fc.compileCall(n)
	case *parser.Create:
		return fc.compileCreate(n)
	case *parser.Schedule:
		return fc.compileSchedule(n)
	default:
		return fc.errf(e.Pos(), "unsupported expression")
	}
}

// compileIdent resolves a bare name reference to its storage location,
// per spec.md §4.4's lookup order: locals/parameters, then globals, then
// (rare) a global function name used as a bare value. Namespace names and
// class members are not resolved here.
func (fc *fileCompiler) compileIdent(n *parser.Ident) error {
	hash := fc.nameHash(n.Name)
	if fc.frame != nil {
		if v, ok := fc.frame.lookup(hash); ok {
			fc.emit(bytecode.OpPushVar, uint32(bytecode.ScopeLocal), uint32(v.Offset))
			return nil
		}
	}
	if v, ok := fc.c.Registry.Global().Members.Lookup(hash); ok {
		fc.emit(bytecode.OpPushVar, uint32(bytecode.ScopeGlobal), uint32(v.Offset))
		return nil
	}
	if _, ok := fc.c.Registry.Global().Functions.Lookup(hash); ok {
		// A function referenced by name but not called: push its hash as
		// an opaque handle (e.g. passed to schedule() as a callback name).
		fc.emit(bytecode.OpPushConst, fc.addConst(types.NewInt32(int32(hash))))
		return nil
	}
	return fc.errf(n.Pos(), "undefined identifier %q", n.Name)
}

func (fc *fileCompiler) compileAssign(n *parser.Assign) error {
	switch target := n.Target.(type) {
	case *parser.Ident:
		return fc.compileAssignIdent(n, target)
	case *parser.Member:
		if err := fc.compileExpr(target.Receiver); err != nil {
			return err
		}
		if n.IsCompound {
			fc.emit(bytecode.OpDup)
			fc.emit(bytecode.OpPushMember, fc.nameHash(target.Name))
			if err := fc.compileExpr(n.Value); err != nil {
				return err
			}
			fc.emit(bytecode.OpBinary, uint32(n.CompoundOp))
		} else if err := fc.compileExpr(n.Value); err != nil {
			return err
		}
		fc.emit(bytecode.OpAssignMember, fc.nameHash(target.Name))
		return nil
	case *parser.Index:
		if n.IsCompound {
			// Compound assignment to an indexed element (ht["k"] += v) would
			// need the receiver and key live under the computed value at
			// assignment time; there is no stack-rotate opcode to arrange
			// that, so it is rejected here rather than silently miscompiled.
			return fc.errf(n.Pos(), "compound assignment to an indexed element is not supported")
		}
		if err := fc.compileExpr(target.Receiver); err != nil {
			return err
		}
		if err := fc.compileExpr(target.Key); err != nil {
			return err
		}
		if err := fc.compileExpr(n.Value); err != nil {
			return err
		}
		fc.emit(bytecode.OpAssignElement)
		return nil
	default:
		return fc.errf(n.Pos(), "invalid assignment target")
	}
}

// compileAssignIdent handles `name = value` and `name += value`, leaving
// the assigned value on the stack as the expression's result (assignment
// is itself an expression in TinScript, per spec.md §4.2).
func (fc *fileCompiler) compileAssignIdent(n *parser.Assign, target *parser.Ident) error {
	hash := fc.nameHash(target.Name)
	var v *symtab.Variable
	scope := bytecode.ScopeGlobal
	if fc.frame != nil {
		if lv, ok := fc.frame.lookup(hash); ok {
			v, scope = lv, bytecode.ScopeLocal
		}
	}
	if v == nil {
		if gv, ok := fc.c.Registry.Global().Members.Lookup(hash); ok {
			v = gv
		}
	}
	if v == nil {
		return fc.errf(n.Pos(), "assignment to undeclared variable %q", target.Name)
	}

	if n.IsCompound {
		fc.emit(bytecode.OpPushVar, uint32(scope), uint32(v.Offset))
		if err := fc.compileExpr(n.Value); err != nil {
			return err
		}
		fc.emit(bytecode.OpBinary, uint32(n.CompoundOp))
	} else if err := fc.compileExpr(n.Value); err != nil {
		return err
	}
	fc.emit(bytecode.OpAssignVar, uint32(scope), uint32(v.Offset))
	return nil
}

func (fc *fileCompiler) compileCall(n *parser.Call) error {
	for _, a := range n.Args {
		if err := fc.compileExpr(a); err != nil {
			return err
		}
	}
	nameHash := fc.nameHash(n.Name)
	switch {
	case n.Receiver != nil:
		if err := fc.compileExpr(n.Receiver); err != nil {
			return err
		}
		fc.emit(bytecode.OpCallMethod, nameHash, uint32(len(n.Args)))
	case n.Namespace != "":
		nsHash := fc.nameHash(n.Namespace)
		fc.emit(bytecode.OpCallNamed, nsHash, nameHash, uint32(len(n.Args)))
	default:
		fc.emit(bytecode.OpCallFunction, nameHash, uint32(len(n.Args)))
	}
	return nil
}

func (fc *fileCompiler) compileCreate(n *parser.Create) error {
	classHash := fc.nameHash(n.ClassName)
	hasName := uint32(0)
	if n.InstanceName != nil {
		if err := fc.compileExpr(n.InstanceName); err != nil {
			return err
		}
		hasName = 1
	}
	fc.emit(bytecode.OpObjectCreate, classHash, hasName)
	return nil
}

func (fc *fileCompiler) compileSchedule(n *parser.Schedule) error {
	if err := fc.compileExpr(n.Object); err != nil {
		return err
	}
	if err := fc.compileExpr(n.DelayMs); err != nil {
		return err
	}
	if err := fc.compileExpr(n.FuncName); err != nil {
		return err
	}
	for _, a := range n.Args {
		if err := fc.compileExpr(a); err != nil {
			return err
		}
	}
	repeat := uint32(0)
	if n.Repeat {
		repeat = 1
	}
	fc.emit(bytecode.OpSchedule, uint32(len(n.Args)), repeat)
	return nil
}
