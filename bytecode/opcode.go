// Package bytecode defines the compiled-unit artifact (Codeblock), its
// instruction set, and the codeblock store/loader described in spec.md
// §4.3 ("Codeblock") and §6 ("Bytecode format").
package bytecode

// Op is a single bytecode instruction opcode. Each is followed by a fixed
// operand count of 32-bit words, per spec.md §4.3: "a sequence of opcodes
// each followed by a fixed set of 32-bit operands (indices into
// constants, variable offsets, jump deltas, type tags, parameter counts)".
type Op uint8

const (
	// Push family.
	OpPushConst Op = iota // operand: const pool index
	OpPushVar             // operands: scope tag, offset
	OpPushMember          // operand: member name hash (receiver already on stack)
	OpPushElement         // hashtable element (receiver and key already on stack)
	OpPushObject          // operand: object id constant (rare; objects are usually runtime values)
	OpPushNull

	// Pop/drop.
	OpPop
	OpDup

	// Assignment family.
	OpAssignVar     // operands: scope tag, offset (value already on stack)
	OpAssignMember  // operand: member name hash (receiver, value on stack)
	OpAssignElement // element target + value already on stack
	OpCompoundOp    // operand: Op (types.Op) to apply before assignment

	// Arithmetic/comparison/bitwise/logical/unary, parameterized by
	// operator id (a types.Op) as the operand.
	OpBinary
	OpUnary

	// Branching.
	OpJump       // operand: signed bytecode delta
	OpJumpIfFalse // operand: signed bytecode delta (condition already on stack)

	// Calls.
	OpCallFunction // operands: function name hash, arg count
	OpCallMethod   // operands: name hash, arg count (receiver pushed as last arg)
	OpCallNamed    // operands: namespace hash, name hash, arg count (late-bound by name)
	OpReturn

	// Objects.
	OpObjectCreate  // operands: class name hash, has-instance-name flag (name on stack if set)
	OpObjectDestroy // object id already on stack

	// Hashtables.
	OpNewHashtable // allocates a fresh empty hashtable, pushes its handle

	// Scheduling.
	OpSchedule // operands: arg count, repeat flag (obj, delay, fn name, args... on stack)

	// Debugger.
	OpDebugYield // operand: source line (not emitted by the compiler; executes as a no-op)

	opCount
)

var opNames = [opCount]string{
	OpPushConst: "push.const", OpPushVar: "push.var", OpPushMember: "push.member",
	OpPushElement: "push.elem", OpPushObject: "push.obj", OpPushNull: "push.null",
	OpPop: "pop", OpDup: "dup",
	OpAssignVar: "assign.var", OpAssignMember: "assign.member",
	OpAssignElement: "assign.elem", OpCompoundOp: "compound",
	OpBinary: "binary", OpUnary: "unary",
	OpJump: "jump", OpJumpIfFalse: "jump.iffalse",
	OpCallFunction: "call.fn", OpCallMethod: "call.method", OpCallNamed: "call.named",
	OpReturn: "return",
	OpObjectCreate: "obj.create", OpObjectDestroy: "obj.destroy",
	OpNewHashtable: "new.hashtable",
	OpSchedule:     "schedule",
	OpDebugYield:   "debug.yield",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return "op?"
}

// OperandWords gives the fixed operand word count for each opcode, per
// spec.md §4.3.
func (op Op) OperandWords() int {
	switch op {
	case OpPushConst, OpPushObject, OpPushMember, OpAssignMember, OpCompoundOp,
		OpBinary, OpUnary, OpJump, OpJumpIfFalse, OpCallNamed, OpDebugYield:
		return opOperandWords[op]
	}
	return opOperandWords[op]
}

var opOperandWords = [opCount]int{
	OpPushConst: 1, OpPushVar: 2, OpPushMember: 1, OpPushElement: 0,
	OpPushObject: 1, OpPushNull: 0,
	OpPop: 0, OpDup: 0,
	OpAssignVar: 2, OpAssignMember: 1, OpAssignElement: 0, OpCompoundOp: 1,
	OpBinary: 1, OpUnary: 1,
	OpJump: 1, OpJumpIfFalse: 1,
	OpCallFunction: 2, OpCallMethod: 2, OpCallNamed: 3,
	OpReturn: 0,
	OpObjectCreate: 2, OpObjectDestroy: 0,
	OpNewHashtable: 0,
	OpSchedule:     2,
	OpDebugYield:   1,
}

// ScopeTag selects which variable scope an OpPushVar/OpAssignVar operand
// offset is relative to.
type ScopeTag uint32

const (
	ScopeGlobal ScopeTag = iota
	ScopeFile
	ScopeLocal // includes parameters; frame-relative
)
