package types

import "math"

// registerConversions installs the primitive conversion table: spec.md §3
// "a conversion table entry for each other type (function pointer or
// 'not convertible')". Absent entries (e.g. object->int) are left nil,
// meaning "not convertible".
func registerConversions(d *Dispatch) {
	d.RegisterConvert(Int32, Float, func(v Value) (Value, bool) { return NewFloat(float32(v.i)), true })
	d.RegisterConvert(Float, Int32, func(v Value) (Value, bool) { return NewInt32(int32(v.f)), true })
	d.RegisterConvert(Bool, Int32, func(v Value) (Value, bool) { return NewInt32(v.i), true })
	d.RegisterConvert(Int32, Bool, func(v Value) (Value, bool) { return NewBool(v.i != 0), true })
	d.RegisterConvert(Bool, Float, func(v Value) (Value, bool) { return NewFloat(float32(v.i)), true })
	d.RegisterConvert(Float, Bool, func(v Value) (Value, bool) { return NewBool(v.f != 0), true })
}

// wrapInt32 applies spec.md §4.6 "two's-complement 32-bit with wraparound
// on overflow" semantics: Go's int32 arithmetic already wraps this way, so
// this is a documentation-only identity wrapper kept for call-site clarity
// at each arithmetic entry below.
func wrapInt32(n int32) int32 { return n }

func registerArithmetic(d *Dispatch) {
	d.RegisterBinary(OpAdd, Int32, Int32, Int32, func(l, r Value) (Value, error) {
		return NewInt32(wrapInt32(l.i + r.i)), nil
	})
	d.RegisterBinary(OpSub, Int32, Int32, Int32, func(l, r Value) (Value, error) {
		return NewInt32(wrapInt32(l.i - r.i)), nil
	})
	d.RegisterBinary(OpMul, Int32, Int32, Int32, func(l, r Value) (Value, error) {
		return NewInt32(wrapInt32(l.i * r.i)), nil
	})
	d.RegisterBinary(OpDiv, Int32, Int32, Int32, func(l, r Value) (Value, error) {
		if r.i == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NewInt32(l.i / r.i), nil
	})
	d.RegisterBinary(OpMod, Int32, Int32, Int32, func(l, r Value) (Value, error) {
		if r.i == 0 {
			return Value{}, ErrDivisionByZero
		}
		return NewInt32(l.i % r.i), nil
	})

	d.RegisterBinary(OpAdd, Float, Float, Float, func(l, r Value) (Value, error) { return NewFloat(l.f + r.f), nil })
	d.RegisterBinary(OpSub, Float, Float, Float, func(l, r Value) (Value, error) { return NewFloat(l.f - r.f), nil })
	d.RegisterBinary(OpMul, Float, Float, Float, func(l, r Value) (Value, error) { return NewFloat(l.f * r.f), nil })
	d.RegisterBinary(OpDiv, Float, Float, Float, func(l, r Value) (Value, error) {
		// IEEE-754: division by zero yields ±Inf/NaN, never an error.
		return NewFloat(l.f / r.f), nil
	})
	d.RegisterBinary(OpMod, Float, Float, Float, func(l, r Value) (Value, error) {
		return NewFloat(float32(math.Mod(float64(l.f), float64(r.f)))), nil
	})

	d.RegisterBinary(OpAdd, Vector3f, Vector3f, Vector3f, func(l, r Value) (Value, error) {
		return NewVector3f(l.vec[0]+r.vec[0], l.vec[1]+r.vec[1], l.vec[2]+r.vec[2]), nil
	})
	d.RegisterBinary(OpSub, Vector3f, Vector3f, Vector3f, func(l, r Value) (Value, error) {
		return NewVector3f(l.vec[0]-r.vec[0], l.vec[1]-r.vec[1], l.vec[2]-r.vec[2]), nil
	})
	d.RegisterBinary(OpMul, Vector3f, Float, Vector3f, func(l, r Value) (Value, error) {
		return NewVector3f(l.vec[0]*r.f, l.vec[1]*r.f, l.vec[2]*r.f), nil
	})
}

func registerBitwise(d *Dispatch) {
	d.RegisterBinary(OpBitAnd, Int32, Int32, Int32, func(l, r Value) (Value, error) { return NewInt32(l.i & r.i), nil })
	d.RegisterBinary(OpBitOr, Int32, Int32, Int32, func(l, r Value) (Value, error) { return NewInt32(l.i | r.i), nil })
	d.RegisterBinary(OpBitXor, Int32, Int32, Int32, func(l, r Value) (Value, error) { return NewInt32(l.i ^ r.i), nil })
	d.RegisterBinary(OpShl, Int32, Int32, Int32, func(l, r Value) (Value, error) {
		return NewInt32(l.i << (uint32(r.i) & 31)), nil
	})
	d.RegisterBinary(OpShr, Int32, Int32, Int32, func(l, r Value) (Value, error) {
		return NewInt32(l.i >> (uint32(r.i) & 31)), nil
	})
}

func registerComparison(d *Dispatch) {
	numCmp := func(op Op, cmp func(l, r int32) bool, cmpf func(l, r float32) bool) {
		d.RegisterBinary(op, Int32, Int32, Bool, func(l, r Value) (Value, error) { return NewBool(cmp(l.i, r.i)), nil })
		d.RegisterBinary(op, Float, Float, Bool, func(l, r Value) (Value, error) { return NewBool(cmpf(l.f, r.f)), nil })
		d.RegisterBinary(op, Bool, Bool, Bool, func(l, r Value) (Value, error) { return NewBool(cmp(l.i, r.i)), nil })
	}
	numCmp(OpLt, func(l, r int32) bool { return l < r }, func(l, r float32) bool { return l < r })
	numCmp(OpLe, func(l, r int32) bool { return l <= r }, func(l, r float32) bool { return l <= r })
	numCmp(OpGt, func(l, r int32) bool { return l > r }, func(l, r float32) bool { return l > r })
	numCmp(OpGe, func(l, r int32) bool { return l >= r }, func(l, r float32) bool { return l >= r })
	numCmp(OpEq, func(l, r int32) bool { return l == r }, func(l, r float32) bool { return l == r })
	numCmp(OpNe, func(l, r int32) bool { return l != r }, func(l, r float32) bool { return l != r })

	// String equality compares by hash after interning both sides
	// (spec.md §4.6): since string Values already are interned hashes,
	// this is a plain int32 comparison of the hash field.
	d.RegisterBinary(OpEq, String, String, Bool, func(l, r Value) (Value, error) { return NewBool(l.i == r.i), nil })
	d.RegisterBinary(OpNe, String, String, Bool, func(l, r Value) (Value, error) { return NewBool(l.i != r.i), nil })

	// Object equality compares by id (spec.md §4.6).
	d.RegisterBinary(OpEq, Object, Object, Bool, func(l, r Value) (Value, error) { return NewBool(l.i == r.i), nil })
	d.RegisterBinary(OpNe, Object, Object, Bool, func(l, r Value) (Value, error) { return NewBool(l.i != r.i), nil })
}

func registerLogical(d *Dispatch) {
	d.RegisterBinary(OpLogAnd, Bool, Bool, Bool, func(l, r Value) (Value, error) {
		return NewBool(l.i != 0 && r.i != 0), nil
	})
	d.RegisterBinary(OpLogOr, Bool, Bool, Bool, func(l, r Value) (Value, error) {
		return NewBool(l.i != 0 || r.i != 0), nil
	})
}

// registerConcat installs string concatenation. The VM is responsible for
// interning the concatenated result into the owning context's InternTable
// (this package has no InternTable dependency, per the leaf ordering in
// spec.md §2); the dispatch entry here only signals that (String, String)
// concatenates to a String, with the actual byte-joining happening in
// vm.concatStrings which calls back in with the already-joined hash.
func registerConcat(d *Dispatch) {
	d.RegisterBinary(OpConcat, String, String, String, func(l, r Value) (Value, error) {
		// Placeholder identity: callers needing true concatenation must
		// route through vm.concatStrings, which has InternTable access.
		// This entry exists so ResultKind()/dispatch presence checks
		// find a (String, String) concatenation.
		return l, nil
	})
}

func registerUnary(d *Dispatch) {
	d.RegisterUnary(OpNeg, Int32, func(v Value) (Value, error) { return NewInt32(-v.i), nil })
	d.RegisterUnary(OpNeg, Float, func(v Value) (Value, error) { return NewFloat(-v.f), nil })
	d.RegisterUnary(OpNot, Bool, func(v Value) (Value, error) { return NewBool(v.i == 0), nil })
	d.RegisterUnary(OpBNot, Int32, func(v Value) (Value, error) { return NewInt32(^v.i), nil })
}
