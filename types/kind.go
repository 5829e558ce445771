// Package types implements TinScript's primitive type system: the value
// representation, the inter-type conversion table, the operator dispatch
// table, and the interned string table.
package types

import "fmt"

// Kind enumerates the primitive types a Value may hold.
type Kind uint8

// The primitive kinds, matching spec.md §3 "Primitive types" exactly.
const (
	Void Kind = iota
	Bool
	Int32
	Float
	String
	Object
	Vector3f
	Hashtable
	Null
	kindCount
)

var kindNames = [kindCount]string{
	Void:      "void",
	Bool:      "bool",
	Int32:     "int",
	Float:     "float",
	String:    "string",
	Object:    "object",
	Vector3f:  "vector3f",
	Hashtable: "hashtable",
	Null:      "null",
}

// String returns the registered name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Words returns the fixed in-memory size of the kind in 32-bit words, as
// spec.md §3 requires ("fixed in-memory size in 32-bit words (typically 1,
// 3 for vectors, variable for strings)"). Strings report 1: a string Value
// is always just the 32-bit hash of its interned contents.
func (k Kind) Words() int {
	if k == Vector3f {
		return 3
	}
	return 1
}

// IsNumeric reports whether the kind participates in arithmetic promotion.
func (k Kind) IsNumeric() bool {
	return k == Int32 || k == Float || k == Bool
}

// Valid reports whether k is one of the registered kinds.
func (k Kind) Valid() bool {
	return k < kindCount
}
