package tinscript

import (
	"github.com/tinscript/tinscript/bridge"
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// RegisterFunction installs a free function or method into ctx's registry,
// per spec.md §4.8 and §6's registration surface. ns nil registers a free
// function in the global namespace.
func (ctx *Context) RegisterFunction(ns *symtab.Namespace, name string, ret types.Kind, params []bridge.ParamSpec, thunk symtab.CallThunk) (*symtab.Function, error) {
	return ctx.Bridge.RegisterFunction(ns, name, ret, params, thunk)
}

// RegisterMethod installs a method on ns, per spec.md §4.8.
func (ctx *Context) RegisterMethod(ns *symtab.Namespace, name string, ret types.Kind, params []bridge.ParamSpec, thunk symtab.CallThunk) (*symtab.Function, error) {
	return ctx.Bridge.RegisterMethod(ns, name, ret, params, thunk)
}

// RegisterClass declares a host-defined class namespace so scripts can
// create() instances of it, per spec.md §4.4/§4.5.
func (ctx *Context) RegisterClass(name, parent string) (*symtab.Namespace, error) {
	return ctx.Bridge.RegisterClass(name, parent)
}

// RegisterObject allocates a host-owned instance of a previously registered
// class, per spec.md §4.5.
func (ctx *Context) RegisterObject(className string, hostAddress uint64, instanceName string) (*objects.Instance, error) {
	return ctx.Bridge.RegisterObject(className, hostAddress, instanceName)
}

// RegisterFunction0 through RegisterFunction3 are convenience constructors
// over RegisterFunction for the common fixed low arities, per the
// "[REGISTRATION ARITY] decision" recorded in DESIGN.md.
func (ctx *Context) RegisterFunction0(ns *symtab.Namespace, name string, ret types.Kind, fn func(receiver uint32) (types.Value, error)) (*symtab.Function, error) {
	return ctx.Bridge.RegisterFunction0(ns, name, ret, fn)
}

func (ctx *Context) RegisterFunction1(ns *symtab.Namespace, name string, ret types.Kind, p0 bridge.ParamSpec, fn func(receiver uint32, a0 types.Value) (types.Value, error)) (*symtab.Function, error) {
	return ctx.Bridge.RegisterFunction1(ns, name, ret, p0, fn)
}

func (ctx *Context) RegisterFunction2(ns *symtab.Namespace, name string, ret types.Kind, p0, p1 bridge.ParamSpec, fn func(receiver uint32, a0, a1 types.Value) (types.Value, error)) (*symtab.Function, error) {
	return ctx.Bridge.RegisterFunction2(ns, name, ret, p0, p1, fn)
}

func (ctx *Context) RegisterFunction3(ns *symtab.Namespace, name string, ret types.Kind, p0, p1, p2 bridge.ParamSpec, fn func(receiver uint32, a0, a1, a2 types.Value) (types.Value, error)) (*symtab.Function, error) {
	return ctx.Bridge.RegisterFunction3(ns, name, ret, p0, p1, p2, fn)
}

// ExecFunction invokes a global script function by name from host code,
// per spec.md §4.8's host-calls-script path.
func (ctx *Context) ExecFunction(name string, args ...types.Value) (types.Value, error) {
	return ctx.Bridge.ExecFunction(name, args...)
}

// ObjExecMethod invokes a method on a live object instance from host code,
// per spec.md §4.8.
func (ctx *Context) ObjExecMethod(inst *objects.Instance, name string, args ...types.Value) (types.Value, error) {
	return ctx.Bridge.ObjExecMethod(inst, name, args...)
}

// OnEvent subscribes a free script function to fire whenever the host
// dispatches event, per the "[EVENT DISPATCH]" supplement.
func (ctx *Context) OnEvent(event, fnName string) { ctx.Events.On(event, fnName) }

// OnEventMethod subscribes an object method to fire whenever the host
// dispatches event.
func (ctx *Context) OnEventMethod(event string, recv *objects.Instance, methodName string) {
	ctx.Events.OnMethod(event, recv, methodName)
}

// DispatchEvent signals event to every subscribed handler, per the
// "[EVENT DISPATCH]" supplement.
func (ctx *Context) DispatchEvent(event string, args ...types.Value) error {
	return ctx.Events.Dispatch(event, args...)
}
