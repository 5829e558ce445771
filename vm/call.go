package vm

import (
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// coerceArg converts val to want via the dispatch table's conversion
// entries, per spec.md §4.6 "coercing where the declared parameter type
// differs from the provided value's type". A parameter declared Void
// accepts any kind unconverted: no script-declared parameter is ever Void
// (only the synthetic __return slot uses it), so this only ever applies to
// a host-registered parameter deliberately typed that way, e.g. Print's.
func (v *VM) coerceArg(paramName string, val types.Value, want types.Kind) (types.Value, error) {
	if want == types.Void || val.Kind() == want {
		return val, nil
	}
	if cv, ok := v.Dispatch.Convert(val, want); ok {
		return cv, nil
	}
	return types.Value{}, &TypeMismatchError{Param: paramName, Want: want, Got: val.Kind()}
}

// bindArgs fills a fresh locals slice for fn from the caller-supplied
// args, applying defaults for missing trailing arguments and erroring per
// spec.md §7 ArityError rules.
func (v *VM) bindArgs(fn *symtab.Function, args []types.Value) ([]types.Value, error) {
	want := fn.ParamCount()
	if len(args) > want {
		return nil, &ArityError{Function: v.nameOf(fn.NameHash), Want: want, Got: len(args)}
	}
	locals := make([]types.Value, fn.NumLocals)
	for i := 0; i < want; i++ {
		p := fn.Param(i)
		var raw types.Value
		switch {
		case i < len(args):
			raw = args[i]
		case fn.HasDefault(i):
			raw = fn.Defaults[i+1]
		default:
			return nil, &ArityError{Function: v.nameOf(fn.NameHash), Want: want, Got: len(args)}
		}
		coerced, err := v.coerceArg(v.nameOf(p.NameHash), raw, p.Kind)
		if err != nil {
			return nil, err
		}
		locals[p.Offset] = coerced
	}
	return locals, nil
}

// enterScriptCall constructs and pushes a new frame for fn, per spec.md
// §4.6's call protocol. explicitNS records the namespace used for an
// `NS::fn()` call site on the frame. Nothing reads it back: a function
// body's own unqualified calls still resolve against the global
// namespace/receiver chain, not the caller's explicit namespace, and the
// debugger's callstack rendering uses the function's own namespace.
func (v *VM) enterScriptCall(fn *symtab.Function, args []types.Value, receiver *objects.Instance, explicitNS uint32) error {
	locals, err := v.bindArgs(fn, args)
	if err != nil {
		return err
	}
	cb, ok := v.Store.Get(fn.CodeblockHandle)
	if !ok {
		return &NameError{Name: v.nameOf(fn.NameHash)}
	}
	f := &frame{
		cb:       cb,
		fn:       fn,
		pc:       int(fn.EntryOffset),
		locals:   locals,
		receiver: receiver,
		explicit: explicitNS,
		line:     fn.Location.Line,
	}
	return v.pushFrame(f)
}

// resolveAndCall looks up a callable by the given addressing (receiver
// chain / explicit namespace / global) and enters it, handling both
// script and host dispatch kinds uniformly.
func (v *VM) resolveAndCall(chain []*symtab.Namespace, explicitNS, nameHash uint32, args []types.Value, receiver *objects.Instance) error {
	fn, ok := v.Registry.FunctionLookup(chain, explicitNS, nameHash)
	if !ok {
		return &NameError{Name: v.nameOf(nameHash)}
	}
	if fn.Dispatch == symtab.DispatchHost {
		recvID := uint32(0)
		if receiver != nil {
			recvID = receiver.ID
		}
		locals, err := v.bindArgs(fn, args)
		_ = locals // host thunks take raw args, not frame locals; bindArgs above only validates arity/coercion
		if err != nil {
			return err
		}
		coercedArgs := make([]types.Value, fn.ParamCount())
		for i := range coercedArgs {
			coercedArgs[i] = locals[fn.Param(i).Offset]
		}
		result, err := fn.Thunk(recvID, coercedArgs)
		if err != nil {
			return err
		}
		return v.pushOperand(result)
	}
	return v.enterScriptCall(fn, args, receiver, explicitNS)
}
