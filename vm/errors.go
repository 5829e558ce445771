// Package vm implements spec.md §4.6's stack-based virtual machine: one
// operand stack and one call-frame stack per context, a computed opcode
// dispatch table, the call/return protocol, and the runtime error kinds
// the rest of the runtime reports through.
package vm

import (
	"fmt"
	"strings"

	"github.com/tinscript/tinscript/types"
)

// FrameInfo is one entry of a captured call stack, per spec.md §7 "the
// full frame stack is captured (file, line, function, receiver object id)
// before unwinding".
type FrameInfo struct {
	FileHash      uint32
	Line          int
	Function      string
	ReceiverID    uint32
	NamespaceHash uint32
}

// RuntimeError wraps any VM-level failure with the captured frame stack at
// the point of failure, per spec.md §7's unwind-and-report propagation
// rule. It is the one error type every VM entry point's failure path
// returns; Cause distinguishes the underlying kind (TypeError, NameError,
// and so on).
type RuntimeError struct {
	Cause  error
	Frames []FrameInfo
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "runtime error: %v", e.Cause)
	for _, f := range e.Frames {
		fmt.Fprintf(&b, "\n  at %s (file #%08x line %d, this=#%d)", f.Function, f.FileHash, f.Line, f.ReceiverID)
	}
	return b.String()
}

func (e *RuntimeError) Unwrap() error { return e.Cause }

// NameError reports an unresolved function or variable at a call site,
// per spec.md §7 "NameError".
type NameError struct {
	Name string
}

func (e *NameError) Error() string { return fmt.Sprintf("NameError: undefined %q", e.Name) }

// ArityError reports too many arguments, or too few with no defaults to
// fill the gap, per spec.md §7 "ArityError".
type ArityError struct {
	Function string
	Want     int
	Got      int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("ArityError: %s expects %d argument(s), got %d", e.Function, e.Want, e.Got)
}

// ObjectError reports a method or member access on a null or invalid
// object id, per spec.md §7 "ObjectError".
type ObjectError struct {
	ObjectID uint32
	Reason   string
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("ObjectError: object #%d: %s", e.ObjectID, e.Reason)
}

// StackOverflow reports the frame stack or operand stack bound exceeded,
// per spec.md §7 "StackOverflow".
type StackOverflow struct {
	Which string // "frame" or "operand"
	Limit int
}

func (e *StackOverflow) Error() string {
	return fmt.Sprintf("StackOverflow: %s stack exceeded limit of %d", e.Which, e.Limit)
}

// InstructionBudgetExceeded reports the optional per-UpdateContext
// instruction cap tripping, per spec.md §7 and §5 "a configurable max
// instructions per UpdateContext counter may abort runaway scripts".
type InstructionBudgetExceeded struct {
	Budget int64
}

func (e *InstructionBudgetExceeded) Error() string {
	return fmt.Sprintf("InstructionBudgetExceeded: budget of %d instructions exhausted", e.Budget)
}

// AssertFailure reports a script-level assert(cond, msg) failing, per
// spec.md §7 "AssertFailure". The configured assert hook decides its
// disposition (AssertUnwind/AssertSkip/AssertBreak).
type AssertFailure struct {
	Message string
}

func (e *AssertFailure) Error() string { return fmt.Sprintf("AssertFailure: %s", e.Message) }

// AssertDisposition is the host assert hook's verdict, per spec.md §7:
// "may be caught by the host assert hook to return skip (continue), break
// (drop into debugger), or unwind".
type AssertDisposition uint8

const (
	AssertUnwind AssertDisposition = iota
	AssertSkip
	AssertBreak
)

// TypeMismatchError reports an argument that cannot be converted into a
// parameter's declared kind, or an index receiver that is not a hashtable.
type TypeMismatchError struct {
	Param string
	Want  types.Kind
	Got   types.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("TypeError: parameter %q wants %v, got %v", e.Param, e.Want, e.Got)
}
