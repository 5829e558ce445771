package bridge

import (
	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

// RegisterBuiltins installs the two script-visible builtins every spec.md
// §6 end-to-end scenario calls directly, Print(value) and assert(cond,
// msg), wiring them to the print_fn/assert_fn callbacks CreateContext
// configured on the VM. Neither has a dedicated opcode; both are ordinary
// host-dispatch functions in the global namespace, the same path any other
// registered function takes.
func (b *Bridge) RegisterBuiltins() error {
	printParam := ParamSpec{Name: "value", Kind: types.Void}
	if _, err := b.RegisterFunction1(nil, "Print", types.Void, printParam, func(recv uint32, v types.Value) (types.Value, error) {
		b.VM.Print("info", b.render(v))
		return types.Nil, nil
	}); err != nil {
		return err
	}

	condParam := ParamSpec{Name: "cond", Kind: types.Bool}
	msgParam := ParamSpec{Name: "message", Kind: types.String}
	_, err := b.RegisterFunction2(nil, "assert", types.Void, condParam, msgParam, func(recv uint32, cond, msg types.Value) (types.Value, error) {
		if cond.AsBool() {
			return types.Nil, nil
		}
		text := b.render(msg)
		switch b.VM.Assert(text) {
		case vm.AssertSkip, vm.AssertBreak:
			return types.Nil, nil
		default:
			return types.Nil, &vm.AssertFailure{Message: text}
		}
	})
	return err
}

// render formats v for the print/assert callbacks. Value.GoString handles
// every kind except String, whose text only the interned table -- not the
// leaf types package -- can resolve.
func (b *Bridge) render(v types.Value) string {
	if v.Kind() == types.String {
		if s, ok := b.Interned.Lookup(v.AsStringHash()); ok {
			return s
		}
	}
	return v.GoString()
}
