package vm

import (
	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// frame is one call-frame activation: spec.md §4.6 "the VM constructs a
// new frame, moves the arguments into the parameter slots... zero-
// initializes locals, sets PC to the function's bytecode entry". Locals
// (parameters plus declared local variables) live in their own slice,
// addressed by symtab.Variable.Offset -- separate from the shared operand
// stack, which only ever holds intermediate expression values.
type frame struct {
	cb *bytecode.Codeblock
	fn *symtab.Function // nil when executing top-level codeblock statements

	pc     int
	locals []types.Value

	receiver *objects.Instance // non-nil for method calls; binds `this`
	explicit uint32            // explicit namespace hash for NS::fn() calls; 0 otherwise

	line int // current source line, kept for error/callstack reporting
}
