// Package bridge implements the registration bridge described in spec.md
// §4.8: installing host-language callables into the namespace registry's
// function tables, and the complementary host-calls-script path used by
// the event-dispatch pattern. Grounded on
// MongooseMoo/barn/server/scheduler.go's SetVerbCaller routing (a host
// callback installed once, later invoked by name/receiver from script
// code) generalized to TinScript's typed parameter/default model.
package bridge

import (
	"fmt"

	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

// ParamSpec describes one registered parameter: name (for error messages
// and debugger watch display), declared kind, and optional default.
type ParamSpec struct {
	Name    string
	Kind    types.Kind
	Default types.Value // zero Value (Void kind) = no default
}

// Bridge installs host callables into reg's function tables and offers
// the host-calls-script invocation path, per spec.md §4.8.
type Bridge struct {
	Registry *symtab.Registry
	Interned *types.InternTable
	Objects  *objects.Repository
	VM       *vm.VM
}

// New returns a Bridge wired to the rest of one context's components.
func New(reg *symtab.Registry, interned *types.InternTable, objRepo *objects.Repository, v *vm.VM) *Bridge {
	return &Bridge{Registry: reg, Interned: interned, Objects: objRepo, VM: v}
}

func (b *Bridge) nameHash(s string) uint32 { return b.Interned.InternPermanent(s) }

// RegisterFunction installs a free function or method (ns nil means the
// global namespace) named name, with the given return kind, ordered
// parameter descriptors, and thunk, per spec.md §4.8's registration
// record: "typed parameter list... dispatch thunk... default argument
// values accompany the registration".
func (b *Bridge) RegisterFunction(ns *symtab.Namespace, name string, ret types.Kind, params []ParamSpec, thunk symtab.CallThunk) (*symtab.Function, error) {
	if ns == nil {
		ns = b.Registry.Global()
	}
	nameHash := b.nameHash(name)

	parameters := make([]symtab.Variable, len(params)+1)
	parameters[0] = symtab.Variable{Kind: ret}
	defaults := make([]types.Value, len(params)+1)
	for i, p := range params {
		parameters[i+1] = symtab.Variable{NameHash: b.nameHash(p.Name), Kind: p.Kind, ArraySize: 1, Offset: i}
		defaults[i+1] = p.Default
	}

	fn := &symtab.Function{
		NameHash:    nameHash,
		NamespaceID: ns.NameHash,
		Dispatch:    symtab.DispatchHost,
		Parameters:  parameters,
		Defaults:    defaults,
		Thunk:       thunk,
		// A host-dispatch function has no compiled frame, only the
		// parameter slots vm.bindArgs fills before handing them to Thunk.
		NumLocals: len(params),
	}
	if !ns.Functions.Declare(fn) {
		return nil, fmt.Errorf("bridge: %q already registered in namespace #%08x", name, ns.NameHash)
	}
	return fn, nil
}

// RegisterMethod is RegisterFunction restricted to a concrete namespace;
// its thunk receives the receiver object id (0 would mean "no receiver",
// but methods are always called with one by construction of OpCallMethod).
func (b *Bridge) RegisterMethod(ns *symtab.Namespace, name string, ret types.Kind, params []ParamSpec, thunk symtab.CallThunk) (*symtab.Function, error) {
	return b.RegisterFunction(ns, name, ret, params, thunk)
}

// RegisterClass declares an empty namespace for a host-defined type with
// no script body of its own (spec.md §4.4/§4.5's RegisterOnly namespace),
// so script code can `create ClassName("name")` instances of it and the bridge
// can attach methods with RegisterMethod afterward.
func (b *Bridge) RegisterClass(name, parent string) (*symtab.Namespace, error) {
	nameHash := b.nameHash(name)
	var parentHash uint32
	if parent != "" {
		parentHash = b.nameHash(parent)
	}
	ns := symtab.NewNamespace(nameHash, parentHash)
	ns.RegisterOnly = true
	if !b.Registry.Declare(ns) {
		return nil, fmt.Errorf("bridge: class %q already registered", name)
	}
	return ns, nil
}

// RegisterObject allocates a host-owned instance of a previously
// registered class, associated with hostAddress (an opaque host-side
// pointer/handle the bridge's thunks can use to recover their native
// object), per spec.md §4.5's object entry "host address".
func (b *Bridge) RegisterObject(className string, hostAddress uint64, instanceName string) (*objects.Instance, error) {
	classHash := b.nameHash(className)
	return b.Objects.Allocate(classHash, hostAddress, instanceName)
}

// RegisterFunction0..RegisterFunction3 are thin convenience constructors over
// RegisterFunction for the common low arities, matching the shape of the
// registration's documented per-arity dispatch: each packs/unpacks a
// native Go function operating directly on types.Value against the
// uniform (receiver, []types.Value) thunk signature every arity ultimately
// funnels through. Arities above the ones spelled out here follow the
// identical mechanical pattern (index into args by position) and are
// reached via RegisterFunction directly with a ParamSpec slice, per the
// "[REGISTRATION ARITY] decision" recorded in DESIGN.md.

// RegisterFunction0 registers a zero-argument host function.
func (b *Bridge) RegisterFunction0(ns *symtab.Namespace, name string, ret types.Kind, fn func(receiver uint32) (types.Value, error)) (*symtab.Function, error) {
	return b.RegisterFunction(ns, name, ret, nil, func(recv uint32, args []types.Value) (types.Value, error) {
		return fn(recv)
	})
}

// RegisterFunction1 registers a one-argument host function.
func (b *Bridge) RegisterFunction1(ns *symtab.Namespace, name string, ret types.Kind, p0 ParamSpec, fn func(receiver uint32, a0 types.Value) (types.Value, error)) (*symtab.Function, error) {
	return b.RegisterFunction(ns, name, ret, []ParamSpec{p0}, func(recv uint32, args []types.Value) (types.Value, error) {
		return fn(recv, args[0])
	})
}

// RegisterFunction2 registers a two-argument host function.
func (b *Bridge) RegisterFunction2(ns *symtab.Namespace, name string, ret types.Kind, p0, p1 ParamSpec, fn func(receiver uint32, a0, a1 types.Value) (types.Value, error)) (*symtab.Function, error) {
	return b.RegisterFunction(ns, name, ret, []ParamSpec{p0, p1}, func(recv uint32, args []types.Value) (types.Value, error) {
		return fn(recv, args[0], args[1])
	})
}

// RegisterFunction3 registers a three-argument host function.
func (b *Bridge) RegisterFunction3(ns *symtab.Namespace, name string, ret types.Kind, p0, p1, p2 ParamSpec, fn func(receiver uint32, a0, a1, a2 types.Value) (types.Value, error)) (*symtab.Function, error) {
	return b.RegisterFunction(ns, name, ret, []ParamSpec{p0, p1, p2}, func(recv uint32, args []types.Value) (types.Value, error) {
		return fn(recv, args[0], args[1], args[2])
	})
}
