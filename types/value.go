package types

import "fmt"

// Value is TinScript's tagged union. Every script variable, stack slot, and
// member slot holds one of these. The layout mirrors spec.md §3's
// "fixed in-memory size in 32-bit words": scalar kinds use i/f, Vector3f
// uses vec, String/Object/Hashtable use i as a hash or id handle.
type Value struct {
	kind Kind
	i    int32
	f    float32
	vec  [3]float32
}

// Nil is the void value, the zero Value.
var Nil Value

// NullObject is the null object value (object id 0).
var NullObject = Value{kind: Object, i: 0}

// NewNull constructs the generic `null` literal value (spec.md §3
// primitive kind "null"), distinct from NullObject: `null` is untyped and
// compares equal to a null reference of any kind (object, string,
// hashtable), whereas NullObject already carries the Object kind tag.
func NewNull() Value { return Value{kind: Null} }

// Kind returns the value's primitive type.
func (v Value) Kind() Kind { return v.kind }

// IsVoid reports whether this is the void value.
func (v Value) IsVoid() bool { return v.kind == Void }

// IsNull reports whether this is a null object reference.
func (v Value) IsNull() bool { return v.kind == Object && v.i == 0 }

// Bool constructs a bool Value.
func NewBool(b bool) Value {
	var i int32
	if b {
		i = 1
	}
	return Value{kind: Bool, i: i}
}

// Int32 constructs an int32 Value.
func NewInt32(n int32) Value { return Value{kind: Int32, i: n} }

// Float constructs a float Value.
func NewFloat(f float32) Value { return Value{kind: Float, f: f} }

// StringHash constructs a string Value from an already-interned hash.
func NewStringHash(hash uint32) Value { return Value{kind: String, i: int32(hash)} }

// NewObject constructs an object Value from an object id (0 = null).
func NewObject(id uint32) Value { return Value{kind: Object, i: int32(id)} }

// NewVector3f constructs a vector3f Value.
func NewVector3f(x, y, z float32) Value { return Value{kind: Vector3f, vec: [3]float32{x, y, z}} }

// NewHashtable constructs a hashtable Value from an arena handle.
func NewHashtable(handle uint32) Value { return Value{kind: Hashtable, i: int32(handle)} }

// AsBool returns the raw bool bits. Caller must check Kind().
func (v Value) AsBool() bool { return v.i != 0 }

// AsInt32 returns the raw int32 bits. Caller must check Kind().
func (v Value) AsInt32() int32 { return v.i }

// AsFloat returns the raw float bits. Caller must check Kind().
func (v Value) AsFloat() float32 { return v.f }

// AsStringHash returns the raw string hash. Caller must check Kind().
func (v Value) AsStringHash() uint32 { return uint32(v.i) }

// AsObjectID returns the raw object id (0 = null). Caller must check Kind().
func (v Value) AsObjectID() uint32 { return uint32(v.i) }

// AsHashtableHandle returns the raw hashtable arena handle.
func (v Value) AsHashtableHandle() uint32 { return uint32(v.i) }

// AsVector3f returns the raw vector3f components.
func (v Value) AsVector3f() (x, y, z float32) { return v.vec[0], v.vec[1], v.vec[2] }

// GoString renders the value for debugger/print diagnostics. It never
// resolves the string/object hash to readable text -- that requires the
// owning InternTable / object repository, which this package does not
// depend on (leaf of the dependency order in spec.md §2).
func (v Value) GoString() string {
	switch v.kind {
	case Void:
		return "<void>"
	case Bool:
		return fmt.Sprintf("%v", v.AsBool())
	case Int32:
		return fmt.Sprintf("%d", v.i)
	case Float:
		return fmt.Sprintf("%g", v.f)
	case String:
		return fmt.Sprintf("string#%08x", uint32(v.i))
	case Object:
		if v.i == 0 {
			return "null"
		}
		return fmt.Sprintf("object#%d", uint32(v.i))
	case Vector3f:
		return fmt.Sprintf("(%g, %g, %g)", v.vec[0], v.vec[1], v.vec[2])
	case Hashtable:
		return fmt.Sprintf("hashtable#%d", uint32(v.i))
	case Null:
		return "null"
	default:
		return fmt.Sprintf("<invalid kind %v>", v.kind)
	}
}

func (v Value) String() string { return v.GoString() }
