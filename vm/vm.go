package vm

import (
	"fmt"

	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// Scheduler is the narrow interface the VM needs from the scheduler
// package to compile OpSchedule, per spec.md §2's "leaves first" order
// (Scheduler sits above the VM): the scheduler package implements this,
// the VM only depends on the interface, so vm never imports scheduler.
type Scheduler interface {
	Schedule(delayMs int32, receiverID uint32, fnNameHash uint32, args []types.Value, repeat bool) uint32
}

// DebugHook is the narrow interface the VM needs from the debugger
// package, per the same leaves-first rule (Debugger sits above
// everything). ShouldYield is polled before every instruction the
// dispatch loop executes.
type DebugHook interface {
	// ShouldYield reports whether the dispatcher must enter the blocking
	// debugger-command wait loop before executing the instruction at
	// (fileHash, line), and PollAndApply drains queued debugger commands,
	// returning true once a resumption command (continue/step/...) has
	// been received.
	ShouldYield(fileHash uint32, line int, frameDepth int) bool
	PollAndApply(v *VM) (resume bool)
}

// PrintFunc is the host print callback, per spec.md §6 "CreateContext
// (print_fn, assert_fn)".
type PrintFunc func(severity, message string)

// AssertFunc is the host assert callback; spec.md §7 "may be caught by
// the host assert hook to return skip/break/unwind".
type AssertFunc func(message string) AssertDisposition

// VM is one context's execution engine: spec.md §4.6 "Model" -- one
// operand stack and one call-frame stack, driven by ExecuteCodeBlock /
// ExecuteFunction / ExecScheduledFunction, all funneling into one
// instruction dispatch loop.
type VM struct {
	Registry   *symtab.Registry
	Dispatch   *types.Dispatch
	Interned   *types.InternTable
	Objects    *objects.Repository
	Hashtables *objects.HashtableArena
	Store      *bytecode.Store

	Scheduler Scheduler
	Debug     DebugHook

	Print  PrintFunc
	Assert AssertFunc

	operand []types.Value
	frames  []*frame

	globals []types.Value

	maxOperandStack int
	maxFrameDepth   int

	instructionBudget int64 // 0 = unlimited
	instructionCount  int64
}

// Option configures a VM at construction.
type Option func(*VM)

// WithMaxOperandStack bounds the operand stack depth (spec.md §4.6 "typical
// cap 1024").
func WithMaxOperandStack(n int) Option { return func(v *VM) { v.maxOperandStack = n } }

// WithMaxFrameDepth bounds the call-frame stack depth (spec.md §4.6
// "cap 256").
func WithMaxFrameDepth(n int) Option { return func(v *VM) { v.maxFrameDepth = n } }

// WithInstructionBudget sets the optional per-UpdateContext instruction
// cap described in spec.md §5/§7; 0 (the default) means unlimited.
func WithInstructionBudget(n int64) Option { return func(v *VM) { v.instructionBudget = n } }

// New returns a VM sharing reg/dispatch/interned/objRepo/hashtables/store
// with the rest of the context.
func New(reg *symtab.Registry, dispatch *types.Dispatch, interned *types.InternTable, objRepo *objects.Repository, ht *objects.HashtableArena, store *bytecode.Store, opts ...Option) *VM {
	v := &VM{
		Registry:        reg,
		Dispatch:        dispatch,
		Interned:        interned,
		Objects:         objRepo,
		Hashtables:      ht,
		Store:           store,
		maxOperandStack: 1024,
		maxFrameDepth:   256,
		Print:           func(string, string) {},
		Assert:          func(string) AssertDisposition { return AssertUnwind },
	}
	for _, o := range opts {
		o(v)
	}
	v.operand = make([]types.Value, 0, v.maxOperandStack)
	v.globals = make([]types.Value, reg.Global().Members.SlotCount())
	return v
}

// ResetBudget clears the per-UpdateContext instruction counter; the host
// calls this once at the top of each UpdateContext.
func (v *VM) ResetBudget() { v.instructionCount = 0 }

// growGlobals extends the globals slice if the registry has declared more
// global variables since New (e.g. a later ExecScriptFile added globals).
func (v *VM) growGlobals() {
	need := v.Registry.Global().Members.SlotCount()
	if need > len(v.globals) {
		grown := make([]types.Value, need)
		copy(grown, v.globals)
		v.globals = grown
	}
}

func (v *VM) pushOperand(val types.Value) error {
	if len(v.operand) >= v.maxOperandStack {
		return &StackOverflow{Which: "operand", Limit: v.maxOperandStack}
	}
	v.operand = append(v.operand, val)
	return nil
}

func (v *VM) popOperand() types.Value {
	n := len(v.operand)
	val := v.operand[n-1]
	v.operand = v.operand[:n-1]
	return val
}

func (v *VM) peekOperand() types.Value { return v.operand[len(v.operand)-1] }

func (v *VM) pushFrame(f *frame) error {
	if len(v.frames) >= v.maxFrameDepth {
		return &StackOverflow{Which: "frame", Limit: v.maxFrameDepth}
	}
	v.frames = append(v.frames, f)
	return nil
}

func (v *VM) popFrame() *frame {
	n := len(v.frames)
	f := v.frames[n-1]
	v.frames = v.frames[:n-1]
	return f
}

func (v *VM) currentFrame() *frame { return v.frames[len(v.frames)-1] }

// ExecuteCodeBlock runs cb's top-level statements (module init code), per
// spec.md §4.6.
func (v *VM) ExecuteCodeBlock(cb *bytecode.Codeblock) error {
	v.internNames(cb)
	v.growGlobals()
	f := &frame{cb: cb}
	if err := v.pushFrame(f); err != nil {
		return v.wrapError(err)
	}
	return v.runLoop()
}

// ExecuteFunction invokes fn by entry, per spec.md §4.6
// "ExecuteFunction(fn_entry, args, receiver_or_null, out_return)". receiver
// may be nil for a free function call.
func (v *VM) ExecuteFunction(fn *symtab.Function, args []types.Value, receiver *objects.Instance) (types.Value, error) {
	v.growGlobals()
	if fn.Dispatch == symtab.DispatchHost {
		recvID := uint32(0)
		if receiver != nil {
			recvID = receiver.ID
		}
		val, err := fn.Thunk(recvID, args)
		if err != nil {
			return types.Nil, v.wrapError(err)
		}
		return val, nil
	}
	if err := v.enterScriptCall(fn, args, receiver, 0); err != nil {
		return types.Nil, v.wrapError(err)
	}
	if err := v.runLoop(); err != nil {
		return types.Nil, err
	}
	if len(v.operand) == 0 {
		return types.Nil, nil
	}
	return v.popOperand(), nil
}

// ExecScheduledFunction invokes a function by name hash against an
// optional receiver, the entry point used by the scheduler when a
// deferred call fires (spec.md §4.6/§4.7).
func (v *VM) ExecScheduledFunction(receiver *objects.Instance, fnNameHash uint32, args []types.Value) (types.Value, error) {
	var chain []*symtab.Namespace
	if receiver != nil {
		chain = v.Objects.ChainNamespaces(receiver)
	}
	fn, ok := v.Registry.FunctionLookup(chain, 0, fnNameHash)
	if !ok {
		return types.Nil, v.wrapError(&NameError{Name: v.nameOf(fnNameHash)})
	}
	return v.ExecuteFunction(fn, args, receiver)
}

// internNames repopulates v.Interned from cb's name table, so string
// constants and identifier hashes this codeblock references resolve back
// to their original text (error messages, debugger rendering) even when
// cb was loaded from persisted bytecode rather than freshly compiled,
// per spec.md §6 "name-hash table (hash, string)... so the interned-string
// table can be repopulated on load without recompiling".
func (v *VM) internNames(cb *bytecode.Codeblock) {
	for hash, s := range cb.NameTable {
		if !v.Interned.Contains(hash) {
			v.Interned.InternPermanent(s)
		}
	}
}

func (v *VM) nameOf(hash uint32) string {
	if s, ok := v.Interned.Lookup(hash); ok {
		return s
	}
	return fmt.Sprintf("#%08x", hash)
}

// wrapError captures the current frame stack into a RuntimeError, unless
// err is already one (re-wrapping would duplicate the captured stack).
func (v *VM) wrapError(err error) error {
	if err == nil {
		return nil
	}
	if re, ok := err.(*RuntimeError); ok {
		return re
	}
	frames := make([]FrameInfo, 0, len(v.frames))
	for i := len(v.frames) - 1; i >= 0; i-- {
		f := v.frames[i]
		name := "<toplevel>"
		if f.fn != nil {
			name = v.nameOf(f.fn.NameHash)
		}
		recv := uint32(0)
		if f.receiver != nil {
			recv = f.receiver.ID
		}
		frames = append(frames, FrameInfo{FileHash: f.cb.FileHash, Line: f.line, Function: name, ReceiverID: recv})
	}
	return &RuntimeError{Cause: err, Frames: frames}
}
