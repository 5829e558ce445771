package vm

import (
	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/types"
)

// readVar/writeVar dispatch an OpPushVar/OpAssignVar operand pair to the
// right backing storage, per spec.md §4.4's variable scopes. ScopeFile
// variables are never emitted by the compiler (which only ever declares
// into the registry's global namespace), so they fall back to the globals
// array defensively rather than erroring.
func (v *VM) readVar(f *frame, scope bytecode.ScopeTag, offset int) (types.Value, error) {
	switch scope {
	case bytecode.ScopeLocal:
		if offset < 0 || offset >= len(f.locals) {
			return types.Nil, &NameError{Name: "<local>"}
		}
		return f.locals[offset], nil
	default: // ScopeGlobal, ScopeFile
		v.growGlobals()
		if offset < 0 || offset >= len(v.globals) {
			return types.Nil, &NameError{Name: "<global>"}
		}
		return v.globals[offset], nil
	}
}

func (v *VM) writeVar(f *frame, scope bytecode.ScopeTag, offset int, val types.Value) error {
	switch scope {
	case bytecode.ScopeLocal:
		if offset < 0 || offset >= len(f.locals) {
			return &NameError{Name: "<local>"}
		}
		f.locals[offset] = val
	default: // ScopeGlobal, ScopeFile
		v.growGlobals()
		if offset < 0 || offset >= len(v.globals) {
			return &NameError{Name: "<global>"}
		}
		v.globals[offset] = val
	}
	return nil
}

// readMember/writeMember service OpPushMember/OpAssignMember: the receiver
// must already be a live object, per spec.md §4.5's member-slot layout.
func (v *VM) readMember(recv types.Value, nameHash uint32) (types.Value, error) {
	if recv.Kind() != types.Object || recv.IsNull() {
		return types.Nil, &ObjectError{ObjectID: recv.AsObjectID(), Reason: "member access on null or non-object value"}
	}
	inst, ok := v.Objects.ByID(recv.AsObjectID())
	if !ok {
		return types.Nil, &ObjectError{ObjectID: recv.AsObjectID(), Reason: "member access on invalid object"}
	}
	val, ok := v.Objects.GetMember(inst, nameHash)
	if !ok {
		return types.Nil, &NameError{Name: v.nameOf(nameHash)}
	}
	return val, nil
}

func (v *VM) writeMember(recv types.Value, nameHash uint32, val types.Value) error {
	if recv.Kind() != types.Object || recv.IsNull() {
		return &ObjectError{ObjectID: recv.AsObjectID(), Reason: "member assignment on null or non-object value"}
	}
	inst, ok := v.Objects.ByID(recv.AsObjectID())
	if !ok {
		return &ObjectError{ObjectID: recv.AsObjectID(), Reason: "member assignment on invalid object"}
	}
	if !v.Objects.SetMember(inst, nameHash, val) {
		return &NameError{Name: v.nameOf(nameHash)}
	}
	return nil
}

// elementKey converts an index/key Value into the arena's uint32 lookup
// key: strings key by their interned hash, numeric/bool keys by their raw
// int32 bits (so `t[0]` and `t["0"]` address distinct slots, matching the
// hashtable's "hash of key string" model only for actual string keys).
func elementKey(key types.Value) uint32 {
	switch key.Kind() {
	case types.String:
		return key.AsStringHash()
	case types.Bool, types.Int32:
		return uint32(key.AsInt32())
	default:
		return uint32(key.AsInt32())
	}
}

// readElement/writeElement service OpPushElement/OpAssignElement. Runtime
// `[]` indexing is supported only against hashtable-kind receivers: a
// fixed-size declared array's elements are addressed entirely through their
// compile-time slot layout (each element is its own variable/member slot),
// since types.Kind has no runtime "array" tag to carry a length at a value
// site. This scope decision is recorded in DESIGN.md.
func (v *VM) readElement(recv, key types.Value) (types.Value, error) {
	if recv.Kind() != types.Hashtable {
		return types.Nil, &TypeMismatchError{Param: "<index receiver>", Want: types.Hashtable, Got: recv.Kind()}
	}
	val, ok := v.Hashtables.Get(recv.AsHashtableHandle(), elementKey(key))
	if !ok {
		return types.NewNull(), nil
	}
	return val, nil
}

func (v *VM) writeElement(recv, key, val types.Value) error {
	if recv.Kind() != types.Hashtable {
		return &TypeMismatchError{Param: "<index receiver>", Want: types.Hashtable, Got: recv.Kind()}
	}
	v.Hashtables.Set(recv.AsHashtableHandle(), elementKey(key), val)
	return nil
}

// binaryOp wraps the dispatch table's BinaryOp, special-casing string
// concatenation: the types package's own dispatch table cannot perform it
// (concatenation needs the intern table, which is the vm/bridge layer's
// dependency, not a leaf package's), so its OpConcat(String,String) entry is
// only a placeholder and real concatenation happens here.
func (v *VM) binaryOp(op types.Op, lhs, rhs types.Value) (types.Value, error) {
	if op == types.OpConcat && lhs.Kind() == types.String && rhs.Kind() == types.String {
		return v.concatStrings(lhs, rhs)
	}
	return v.Dispatch.BinaryOp(op, lhs, rhs)
}

func (v *VM) concatStrings(lhs, rhs types.Value) (types.Value, error) {
	a, ok := v.Interned.Lookup(lhs.AsStringHash())
	if !ok {
		return types.Nil, &NameError{Name: "<string>"}
	}
	b, ok := v.Interned.Lookup(rhs.AsStringHash())
	if !ok {
		return types.Nil, &NameError{Name: "<string>"}
	}
	hash := v.Interned.Intern(a + b)
	return types.NewStringHash(hash), nil
}
