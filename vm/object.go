package vm

import (
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/types"
)

// constructorName/destructorName are the lifecycle hook method names
// looked up on each namespace in an object's chain, per spec.md §4.5 "run
// constructor functions up the chain (root first)" / "run destructors in
// reverse namespace-chain order". spec.md names the hooks only as
// "constructor functions"/"destructors" without giving them fixed script
// names; this implementation follows the hook-method convention used
// throughout the MOO-style reference material (plain zero-argument verbs
// invoked by name), decided here as OnCreate/OnDestroy and recorded in
// DESIGN.md. A namespace without a matching method simply has no hook run.
const (
	constructorName = "OnCreate"
	destructorName  = "OnDestroy"
)

// createObject allocates an instance of classHash and runs constructors
// root-first up its namespace chain, per spec.md §4.5.
func (v *VM) createObject(classHash uint32, instanceName string, hostAddress uint64) (*objects.Instance, error) {
	inst, err := v.Objects.Allocate(classHash, hostAddress, instanceName)
	if err != nil {
		return nil, err
	}
	ctorHash := types.HashName(constructorName)
	chain := v.Objects.ChainNamespaces(inst)
	// Root first: chain is leaf-first, so walk it in reverse.
	for i := len(chain) - 1; i >= 0; i-- {
		ns := chain[i]
		fn, ok := ns.Functions.Lookup(ctorHash)
		if !ok {
			continue
		}
		if _, err := v.ExecuteFunction(fn, nil, inst); err != nil {
			return nil, err
		}
	}
	return inst, nil
}

// destroyObject runs destructors leaf-first (chain's natural order), then
// releases the instance's storage and indices, per spec.md §4.5.
func (v *VM) destroyObject(inst *objects.Instance) error {
	dtorHash := types.HashName(destructorName)
	chain := v.Objects.ChainNamespaces(inst)
	for _, ns := range chain {
		fn, ok := ns.Functions.Lookup(dtorHash)
		if !ok {
			continue
		}
		if _, err := v.ExecuteFunction(fn, nil, inst); err != nil {
			return err
		}
	}
	v.Objects.Destroy(inst)
	return nil
}
