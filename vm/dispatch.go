package vm

import (
	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/types"
)

// runLoop is the instruction dispatch loop shared by ExecuteCodeBlock,
// ExecuteFunction, and ExecScheduledFunction (spec.md §4.6 "all three
// funnel into the same instruction dispatch loop"). It runs until the
// frame stack this call pushed has fully unwound.
func (v *VM) runLoop() error {
	baseDepth := len(v.frames) - 1
	for len(v.frames) > baseDepth {
		if err := v.step(); err != nil {
			v.frames = v.frames[:baseDepth]
			return v.wrapError(err)
		}
	}
	return nil
}

// step executes exactly one instruction in the current frame.
func (v *VM) step() error {
	f := v.currentFrame()
	if f.pc >= len(f.cb.Bytecode) {
		// Top-level code has no trailing OpReturn: running off the end of
		// the codeblock finishes its frame.
		v.popFrame()
		return nil
	}
	if v.instructionBudget > 0 {
		v.instructionCount++
		if v.instructionCount > v.instructionBudget {
			return &InstructionBudgetExceeded{Budget: v.instructionBudget}
		}
	}
	f.line = f.cb.LineForOffset(uint32(f.pc))

	if v.Debug != nil && v.Debug.ShouldYield(f.cb.FileHash, f.line, len(v.frames)) {
		for {
			if v.Debug.PollAndApply(v) {
				break
			}
		}
	}

	op := bytecode.Op(f.cb.Bytecode[f.pc])
	operands := f.cb.Bytecode[f.pc+1 : f.pc+1+op.OperandWords()]
	next := f.pc + 1 + op.OperandWords()

	switch op {
	case bytecode.OpPushConst:
		if err := v.pushOperand(f.cb.Constants[operands[0]]); err != nil {
			return err
		}
	case bytecode.OpPushVar:
		val, err := v.readVar(f, bytecode.ScopeTag(operands[0]), int(operands[1]))
		if err != nil {
			return err
		}
		if err := v.pushOperand(val); err != nil {
			return err
		}
	case bytecode.OpPushMember:
		recv := v.popOperand()
		val, err := v.readMember(recv, operands[0])
		if err != nil {
			return err
		}
		if err := v.pushOperand(val); err != nil {
			return err
		}
	case bytecode.OpPushElement:
		key := v.popOperand()
		recv := v.popOperand()
		val, err := v.readElement(recv, key)
		if err != nil {
			return err
		}
		if err := v.pushOperand(val); err != nil {
			return err
		}
	case bytecode.OpPushObject:
		if err := v.pushOperand(f.cb.Constants[operands[0]]); err != nil {
			return err
		}
	case bytecode.OpPushNull:
		if err := v.pushOperand(types.NewNull()); err != nil {
			return err
		}
	case bytecode.OpPop:
		v.popOperand()
	case bytecode.OpDup:
		if err := v.pushOperand(v.peekOperand()); err != nil {
			return err
		}
	case bytecode.OpAssignVar:
		val := v.peekOperand()
		if err := v.writeVar(f, bytecode.ScopeTag(operands[0]), int(operands[1]), val); err != nil {
			return err
		}
	case bytecode.OpAssignMember:
		val := v.popOperand()
		recv := v.popOperand()
		if err := v.writeMember(recv, operands[0], val); err != nil {
			return err
		}
		if err := v.pushOperand(val); err != nil {
			return err
		}
	case bytecode.OpAssignElement:
		val := v.popOperand()
		key := v.popOperand()
		recv := v.popOperand()
		if err := v.writeElement(recv, key, val); err != nil {
			return err
		}
		if err := v.pushOperand(val); err != nil {
			return err
		}
	case bytecode.OpCompoundOp:
		// Reserved for a future fused compound-assign opcode; the
		// compiler currently lowers compound assignment into
		// push+binary+assign instead of emitting this directly.
		return &NameError{Name: "OpCompoundOp"}
	case bytecode.OpBinary:
		rhs := v.popOperand()
		lhs := v.popOperand()
		result, err := v.binaryOp(types.Op(operands[0]), lhs, rhs)
		if err != nil {
			return err
		}
		if err := v.pushOperand(result); err != nil {
			return err
		}
	case bytecode.OpUnary:
		x := v.popOperand()
		result, err := v.Dispatch.UnaryOp(types.Op(operands[0]), x)
		if err != nil {
			return err
		}
		if err := v.pushOperand(result); err != nil {
			return err
		}
	case bytecode.OpJump:
		f.pc = next + int(int32(operands[0]))
		return nil
	case bytecode.OpJumpIfFalse:
		cond := v.popOperand()
		if !cond.AsBool() {
			f.pc = next + int(int32(operands[0]))
			return nil
		}
	case bytecode.OpCallFunction:
		nameHash, argc := operands[0], operands[1]
		args := v.popArgs(int(argc))
		if err := v.resolveAndCall(nil, 0, nameHash, args, nil); err != nil {
			return err
		}
		f.pc = next
		return nil
	case bytecode.OpCallMethod:
		nameHash, argc := operands[0], operands[1]
		args := v.popArgs(int(argc))
		recvVal := v.popOperand()
		recv, ok := v.Objects.ByID(recvVal.AsObjectID())
		if !ok {
			return &ObjectError{ObjectID: recvVal.AsObjectID(), Reason: "method call on null or invalid object"}
		}
		chain := v.Objects.ChainNamespaces(recv)
		if err := v.resolveAndCall(chain, 0, nameHash, args, recv); err != nil {
			return err
		}
		f.pc = next
		return nil
	case bytecode.OpCallNamed:
		nsHash, nameHash, argc := operands[0], operands[1], operands[2]
		args := v.popArgs(int(argc))
		if err := v.resolveAndCall(nil, nsHash, nameHash, args, nil); err != nil {
			return err
		}
		f.pc = next
		return nil
	case bytecode.OpReturn:
		retval := types.Nil
		if len(v.operand) > 0 {
			retval = v.popOperand()
		}
		v.popFrame()
		return v.pushOperand(retval)
	case bytecode.OpObjectCreate:
		classHash, hasName := operands[0], operands[1]
		name := ""
		if hasName != 0 {
			nameVal := v.popOperand()
			name = v.nameOf(nameVal.AsStringHash())
		}
		inst, err := v.createObject(classHash, name, 0)
		if err != nil {
			return err
		}
		if err := v.pushOperand(types.NewObject(inst.ID)); err != nil {
			return err
		}
	case bytecode.OpObjectDestroy:
		objVal := v.popOperand()
		inst, ok := v.Objects.ByID(objVal.AsObjectID())
		if !ok {
			return &ObjectError{ObjectID: objVal.AsObjectID(), Reason: "destroy of invalid object"}
		}
		if err := v.destroyObject(inst); err != nil {
			return err
		}
	case bytecode.OpNewHashtable:
		handle := v.Hashtables.New()
		if err := v.pushOperand(types.NewHashtable(handle)); err != nil {
			return err
		}
	case bytecode.OpSchedule:
		argc, repeat := operands[0], operands[1]
		args := v.popArgs(int(argc))
		fnNameVal := v.popOperand()
		delayVal := v.popOperand()
		objVal := v.popOperand()
		var recvID uint32
		if !objVal.IsNull() {
			recvID = objVal.AsObjectID()
		}
		if v.Scheduler != nil {
			reqID := v.Scheduler.Schedule(delayVal.AsInt32(), recvID, fnNameVal.AsStringHash(), args, repeat != 0)
			if err := v.pushOperand(types.NewInt32(int32(reqID))); err != nil {
				return err
			}
		} else if err := v.pushOperand(types.NewInt32(-1)); err != nil {
			return err
		}
	case bytecode.OpDebugYield:
		// Handled by the ShouldYield/PollAndApply check above; this
		// opcode itself has no further effect once the yield (if any)
		// resolves.
	default:
		return &NameError{Name: op.String()}
	}
	f.pc = next
	return nil
}

func (v *VM) popArgs(n int) []types.Value {
	args := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = v.popOperand()
	}
	return args
}

