package objects

import (
	"fmt"
	"sync"

	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// ErrObjectNotFound reports a lookup miss or a use of an invalidated id,
// per spec.md §4.5: "any object-typed value held elsewhere that still
// references this id must evaluate as null on next dereference".
type ErrObjectNotFound struct{ ID uint32 }

func (e *ErrObjectNotFound) Error() string { return fmt.Sprintf("object #%d not found", e.ID) }

// Repository is the object store described in spec.md §4.5: id-keyed
// primary storage plus host-address and instance-name secondary indices.
type Repository struct {
	mu sync.RWMutex

	reg *symtab.Registry

	byID   map[uint32]*Instance
	byAddr map[uint64]*Instance
	byName map[string]*Instance

	nextID uint32
}

// NewRepository returns an empty repository resolving namespace chains
// against reg.
func NewRepository(reg *symtab.Registry) *Repository {
	return &Repository{
		reg:    reg,
		byID:   make(map[uint32]*Instance),
		byAddr: make(map[uint64]*Instance),
		byName: make(map[string]*Instance),
		nextID: 1, // id 0 is reserved for "null"
	}
}

// Allocate creates a new instance of classHash: computes the namespace
// chain, sizes and zero-initializes member storage, and registers the
// id/address/name indices. It does not run constructors -- spec.md §4.5
// assigns that to "run constructor functions up the chain (root first)",
// which requires invoking script/host code and so is orchestrated by the
// vm package, which depends on (and sits above) this one.
func (r *Repository) Allocate(classHash uint32, hostAddress uint64, name string) (*Instance, error) {
	chain := r.reg.Chain(classHash)
	if len(chain) == 0 {
		return nil, fmt.Errorf("objects: unknown class %#x", classHash)
	}

	leafFirstHashes := make([]uint32, len(chain))
	bases := make([]int, len(chain))
	total := 0
	// Members are laid out root-first (reverse of the leaf-first chain)
	// so a derived class's fields follow its ancestors', matching typical
	// single-inheritance layout and spec.md §4.5's construction order.
	for i := len(chain) - 1; i >= 0; i-- {
		ns := chain[i]
		bases[i] = total
		total += ns.Members.SlotCount()
		leafFirstHashes[i] = ns.NameHash
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	inst := &Instance{
		ID:          id,
		ClassHash:   classHash,
		HostAddress: hostAddress,
		Name:        name,
		Chain:       leafFirstHashes,
		Members:     make([]types.Value, total),
		bases:       bases,
		valid:       true,
	}
	r.byID[id] = inst
	if hostAddress != 0 {
		r.byAddr[hostAddress] = inst
	}
	if name != "" {
		r.byName[name] = inst
	}
	return inst, nil
}

// ChainNamespaces resolves inst's namespace chain to live *symtab.Namespace
// pointers, leaf-first, for callers (the vm's constructor/method-dispatch
// path) that need the function/member tables themselves.
func (r *Repository) ChainNamespaces(inst *Instance) []*symtab.Namespace {
	out := make([]*symtab.Namespace, 0, len(inst.Chain))
	for _, h := range inst.Chain {
		if ns, ok := r.reg.Lookup(h); ok {
			out = append(out, ns)
		}
	}
	return out
}

// ByID looks up an instance by id. Returns false for id 0 (null) or any
// invalidated id, per spec.md §4.5's deref-as-null requirement -- callers
// translate a false result into the null object value rather than an
// error.
func (r *Repository) ByID(id uint32) (*Instance, bool) {
	if id == 0 {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byID[id]
	if !ok || !inst.valid {
		return nil, false
	}
	return inst, true
}

// ByHostAddress looks up the object id registered for a host-owned
// address, so a host method entry can recover `this`.
func (r *Repository) ByHostAddress(addr uint64) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byAddr[addr]
	if !ok || !inst.valid {
		return nil, false
	}
	return inst, true
}

// ByName looks up a named instance.
func (r *Repository) ByName(name string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.byName[name]
	if !ok || !inst.valid {
		return nil, false
	}
	return inst, true
}

// Destroy invalidates inst's id and releases its storage and index
// entries. Destructor invocation (reverse namespace-chain order) happens
// in the vm before this is called; Destroy only performs the repository
// bookkeeping half of spec.md §4.5's "Destruction".
func (r *Repository) Destroy(inst *Instance) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inst.valid = false
	delete(r.byID, inst.ID)
	if inst.HostAddress != 0 {
		delete(r.byAddr, inst.HostAddress)
	}
	if inst.Name != "" {
		delete(r.byName, inst.Name)
	}
	inst.Members = nil
}

// GetMember reads a named member from inst, walking its namespace chain
// leaf-first to find the declaring namespace (spec.md §4.4 member lookup).
func (r *Repository) GetMember(inst *Instance, nameHash uint32) (types.Value, bool) {
	chain := r.ChainNamespaces(inst)
	v, ns, ok := symtab.ResolveMember(chain, nameHash)
	if !ok {
		return types.Nil, false
	}
	idx := chainIndex(inst, ns.NameHash)
	return inst.Members[inst.memberSlot(idx, v.Offset)], true
}

// SetMember writes a named member on inst.
func (r *Repository) SetMember(inst *Instance, nameHash uint32, val types.Value) bool {
	chain := r.ChainNamespaces(inst)
	v, ns, ok := symtab.ResolveMember(chain, nameHash)
	if !ok {
		return false
	}
	idx := chainIndex(inst, ns.NameHash)
	inst.Members[inst.memberSlot(idx, v.Offset)] = val
	return true
}

func chainIndex(inst *Instance, nsHash uint32) int {
	for i, h := range inst.Chain {
		if h == nsHash {
			return i
		}
	}
	return 0
}

// Each calls fn for every live instance, for the debugger's "enumerate
// objects" style queries.
func (r *Repository) Each(fn func(*Instance)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, inst := range r.byID {
		fn(inst)
	}
}
