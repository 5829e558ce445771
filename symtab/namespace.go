package symtab

// Namespace is spec.md §3's "Namespace entry": a named scope with its own
// function table and per-instance member layout, single-inherited from a
// parent namespace (0 = root / no parent).
type Namespace struct {
	NameHash     uint32
	ParentHash   uint32 // 0 = root
	Functions    *FuncTable
	Members      *Table
	RegisterOnly bool // static registration-only flag: host type with no script body
}

// NewNamespace returns an empty namespace with the given name and parent.
func NewNamespace(nameHash, parentHash uint32) *Namespace {
	return &Namespace{
		NameHash:   nameHash,
		ParentHash: parentHash,
		Functions:  NewFuncTable(),
		Members:    NewTable(),
	}
}

// Registry owns every declared Namespace, keyed by name hash, and answers
// chain-walking queries (spec.md §4.4's method/member lookup: "walk the
// object's namespace chain from the leaf up").
type Registry struct {
	namespaces map[uint32]*Namespace
}

// NewRegistry returns an empty namespace registry. Hash 0 is reserved for
// the implicit global/root namespace and is pre-declared.
func NewRegistry() *Registry {
	r := &Registry{namespaces: make(map[uint32]*Namespace)}
	r.namespaces[0] = NewNamespace(0, 0)
	return r
}

// Declare registers ns, returning false if its name hash is already taken.
func (r *Registry) Declare(ns *Namespace) bool {
	if _, exists := r.namespaces[ns.NameHash]; exists {
		return false
	}
	r.namespaces[ns.NameHash] = ns
	return true
}

// Lookup finds a namespace by name hash.
func (r *Registry) Lookup(nameHash uint32) (*Namespace, bool) {
	ns, ok := r.namespaces[nameHash]
	return ns, ok
}

// Global returns the root/global namespace (hash 0).
func (r *Registry) Global() *Namespace { return r.namespaces[0] }

// Chain returns the namespace chain from leaf to root for leafHash,
// following ParentHash links, per spec.md §3 "Object entry: ordered
// namespace chain (for method resolution and construction/destruction
// ordering)". Construction order is the reverse of this slice (root
// first); destruction order is this slice as-is (leaf first).
func (r *Registry) Chain(leafHash uint32) []*Namespace {
	var chain []*Namespace
	seen := make(map[uint32]bool)
	h := leafHash
	for h != 0 || (len(chain) == 0 && h == 0 && leafHash == 0) {
		ns, ok := r.namespaces[h]
		if !ok || seen[h] {
			break
		}
		seen[h] = true
		chain = append(chain, ns)
		if ns.ParentHash == h {
			break // guard against a self-referential parent link
		}
		h = ns.ParentHash
	}
	return chain
}

// ResolveFunction implements spec.md §4.4's call-site lookup: "if a
// receiver object is given, walk the object's namespace chain from the
// leaf up, stopping at the first function table containing the hash;
// otherwise, consult the explicit namespace if given, else the global
// namespace." chain must be leaf-first, as returned by Chain.
func ResolveFunction(chain []*Namespace, nameHash uint32) (*Function, *Namespace, bool) {
	for _, ns := range chain {
		if fn, ok := ns.Functions.Lookup(nameHash); ok {
			return fn, ns, true
		}
	}
	return nil, nil, false
}

// ResolveMember walks chain the same way, for member-variable lookup.
func ResolveMember(chain []*Namespace, nameHash uint32) (*Variable, *Namespace, bool) {
	for _, ns := range chain {
		if v, ok := ns.Members.Lookup(nameHash); ok {
			return v, ns, true
		}
	}
	return nil, nil, false
}

// FunctionLookup resolves a call site per spec.md §4.4: if chain is
// non-empty (a receiver object was given), search it leaf-up first; else
// consult explicitNS if non-zero, else the global namespace.
func (r *Registry) FunctionLookup(chain []*Namespace, explicitNS uint32, nameHash uint32) (*Function, bool) {
	if len(chain) > 0 {
		if fn, _, ok := ResolveFunction(chain, nameHash); ok {
			return fn, true
		}
		return nil, false
	}
	if explicitNS != 0 {
		if ns, ok := r.Lookup(explicitNS); ok {
			if fn, ok := ns.Functions.Lookup(nameHash); ok {
				return fn, true
			}
		}
		return nil, false
	}
	fn, ok := r.Global().Functions.Lookup(nameHash)
	return fn, ok
}
