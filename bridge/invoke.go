package bridge

import (
	"fmt"

	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// ExecFunction invokes a global script function by name with host-
// supplied arguments, converting the result back for the host, per
// spec.md §4.8 "a complementary path allows host code to invoke a script
// function by name or hash... returning a single script-to-host-converted
// result".
func (b *Bridge) ExecFunction(name string, args ...types.Value) (types.Value, error) {
	nameHash := b.nameHash(name)
	fn, ok := b.Registry.Global().Functions.Lookup(nameHash)
	if !ok {
		return types.Nil, fmt.Errorf("bridge: no such function %q", name)
	}
	return b.VM.ExecuteFunction(fn, args, nil)
}

// ObjExecMethod invokes a method by name against a live object instance,
// resolved up its namespace chain the same way a script `obj.method()`
// call site is.
func (b *Bridge) ObjExecMethod(inst *objects.Instance, name string, args ...types.Value) (types.Value, error) {
	nameHash := b.nameHash(name)
	chain := b.Objects.ChainNamespaces(inst)
	fn, _, ok := symtab.ResolveFunction(chain, nameHash)
	if !ok {
		return types.Nil, fmt.Errorf("bridge: object #%d has no method %q", inst.ID, name)
	}
	return b.VM.ExecuteFunction(fn, args, inst)
}

// handler is one subscription: either a free function (recv nil) or a
// method on a specific object instance.
type handler struct {
	recv   *objects.Instance
	method string
}

// EventDispatcher lets host code register script handlers against
// host-defined event kinds and invoke all of them when the host signals
// that event, per the "[EVENT DISPATCH]" supplement -- grounded on
// MongooseMoo/barn's SetVerbCaller routing, generalized from a single
// callback to a per-event subscriber list.
type EventDispatcher struct {
	bridge   *Bridge
	handlers map[string][]handler
}

// NewEventDispatcher returns a dispatcher routing through b's
// ExecFunction/ObjExecMethod path.
func NewEventDispatcher(b *Bridge) *EventDispatcher {
	return &EventDispatcher{bridge: b, handlers: make(map[string][]handler)}
}

// On subscribes a free function named fnName to fire whenever event is
// dispatched.
func (d *EventDispatcher) On(event, fnName string) {
	d.handlers[event] = append(d.handlers[event], handler{method: fnName})
}

// OnMethod subscribes a method on a specific object instance to fire
// whenever event is dispatched.
func (d *EventDispatcher) OnMethod(event string, recv *objects.Instance, methodName string) {
	d.handlers[event] = append(d.handlers[event], handler{recv: recv, method: methodName})
}

// Dispatch invokes every handler subscribed to event, in subscription
// order, with args. It collects and returns the first error encountered
// but still runs every remaining handler, so one broken handler does not
// silently suppress the rest.
func (d *EventDispatcher) Dispatch(event string, args ...types.Value) error {
	var firstErr error
	for _, h := range d.handlers[event] {
		var err error
		if h.recv != nil {
			_, err = d.bridge.ObjExecMethod(h.recv, h.method, args...)
		} else {
			_, err = d.bridge.ExecFunction(h.method, args...)
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
