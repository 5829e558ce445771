// Package symtab implements spec.md §4.4's variable and function tables:
// name-hash keyed mappings for globals, file-scope variables, per-function
// locals/parameters, and per-namespace members, plus the namespace entries
// that own per-class function and member tables.
package symtab

import "github.com/tinscript/tinscript/types"

// VarFlag records the storage category of a Variable, per spec.md §3
// "Variable entry" fields ("is_parameter, is_local, is_member, is_array,
// is_hashtable").
type VarFlag uint8

const (
	FlagParameter VarFlag = 1 << iota
	FlagLocal
	FlagMember
	FlagArray
	FlagHashtable
	FlagGlobal
)

// Variable is a single name->storage-slot description. Variables do not
// own their storage (spec.md §3: "the owning frame/object does"); Offset
// is an index into whichever slice the owning scope allocates.
type Variable struct {
	NameHash   uint32
	Kind       types.Kind
	ArraySize  int // 1 = scalar
	Offset     int
	Flags      VarFlag
	ParamIndex int // valid when Flags&FlagParameter != 0
}

// IsParameter reports whether this entry describes a parameter.
func (v Variable) IsParameter() bool { return v.Flags&FlagParameter != 0 }

// IsArray reports whether this entry describes a fixed-size array.
func (v Variable) IsArray() bool { return v.Flags&FlagArray != 0 || v.ArraySize > 1 }

// Table is a hash->Variable mapping with O(1) average lookup, used for
// globals, file-scope variables, and per-namespace member layouts (spec.md
// §4.4: "A table is a hash->entry mapping with O(1) average lookup").
type Table struct {
	entries map[uint32]*Variable
	order   []uint32 // insertion order, for deterministic iteration (debugger watch-scope listing)
}

// NewTable returns an empty variable table.
func NewTable() *Table {
	return &Table{entries: make(map[uint32]*Variable)}
}

// Declare adds v to the table. Returns false if the name hash is already
// declared in this scope (spec.md §4.4: "Adding a variable entry requires
// a unique name within its scope").
func (t *Table) Declare(v Variable) bool {
	if _, exists := t.entries[v.NameHash]; exists {
		return false
	}
	cp := v
	t.entries[v.NameHash] = &cp
	t.order = append(t.order, v.NameHash)
	return true
}

// Lookup finds a variable by name hash.
func (t *Table) Lookup(nameHash uint32) (*Variable, bool) {
	v, ok := t.entries[nameHash]
	return v, ok
}

// Len returns the number of declared variables.
func (t *Table) Len() int { return len(t.order) }

// Each calls fn for every variable in declaration order.
func (t *Table) Each(fn func(*Variable)) {
	for _, h := range t.order {
		fn(t.entries[h])
	}
}

// Size returns the total storage words needed for this table's variables,
// per spec.md §3's "fixed in-memory size in 32-bit words" accounting.
func (t *Table) Size() int {
	n := 0
	for _, h := range t.order {
		v := t.entries[h]
		words := v.Kind.Words()
		if v.ArraySize > 1 {
			words *= v.ArraySize
		}
		n += words
	}
	return n
}

// SlotCount returns the number of types.Value storage slots this table's
// variables occupy: this Go port stores one types.Value per element
// (Value already unifies a vector3f's three components into one
// addressable unit) rather than spec.md's raw 32-bit-word layout, so
// slot addressing uses max(1, ArraySize) per variable instead of
// Kind.Words(). Compiler-assigned Variable.Offset values are slot
// indices in this scheme, not word offsets.
func (t *Table) SlotCount() int {
	n := 0
	for _, h := range t.order {
		v := t.entries[h]
		if v.ArraySize > 1 {
			n += v.ArraySize
		} else {
			n++
		}
	}
	return n
}
