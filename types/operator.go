package types

import "fmt"

// Op identifies a binary or unary operator. Spec.md §3 groups these as
// "arithmetic, comparison, bitwise, logical, and string concatenation...
// entries in this table" plus unary negation/not.
type Op uint8

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpLogAnd
	OpLogOr
	OpConcat
	OpNeg  // unary -
	OpNot  // unary !
	OpBNot // unary ~
	opCount
)

var opNames = [opCount]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpBitAnd: "&", OpBitOr: "|", OpBitXor: "^", OpShl: "<<", OpShr: ">>",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpLogAnd: "&&", OpLogOr: "||", OpConcat: "..",
	OpNeg: "unary-", OpNot: "unary!", OpBNot: "unary~",
}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// BinaryFn computes a binary operator over two already-coerced operands,
// returning the result or an error (e.g. integer division by zero).
type BinaryFn func(lhs, rhs Value) (Value, error)

// UnaryFn computes a unary operator over a single already-coerced operand.
type UnaryFn func(v Value) (Value, error)

type binaryKey struct {
	op  Op
	lhs Kind
	rhs Kind
}

type binaryEntry struct {
	result Kind
	fn     BinaryFn
}

// ConvertFn converts a Value of one kind into another, or reports that the
// conversion is not possible.
type ConvertFn func(v Value) (Value, bool)

// Dispatch is the operator dispatch table plus the per-kind conversion
// table described in spec.md §3: "(op, lhs_type, rhs_type) -> (result_type,
// compute_fn)" for operators, and "a conversion table entry for each other
// type" for implicit coercions. Both tables are populated once at
// NewDispatch and are read-only thereafter, so a *Dispatch is safe to share
// across every Context built with the same type set (there is exactly one
// primitive type set in TinScript, so in practice one Dispatch is shared
// by the whole process).
type Dispatch struct {
	binary  map[binaryKey]binaryEntry
	unary   map[Op]map[Kind]UnaryFn
	convert [kindCount][kindCount]ConvertFn
}

// NewDispatch builds the standard TinScript operator/conversion tables.
func NewDispatch() *Dispatch {
	d := &Dispatch{
		binary: make(map[binaryKey]binaryEntry),
		unary:  make(map[Op]map[Kind]UnaryFn),
	}
	registerConversions(d)
	registerArithmetic(d)
	registerBitwise(d)
	registerComparison(d)
	registerLogical(d)
	registerConcat(d)
	registerUnary(d)
	return d
}

// RegisterBinary installs a (op, lhs, rhs) -> (result, fn) dispatch entry.
// Exposed so host registration code or script-extension tooling can extend
// the table, though the core set below covers every operator spec.md names.
func (d *Dispatch) RegisterBinary(op Op, lhs, rhs Kind, result Kind, fn BinaryFn) {
	d.binary[binaryKey{op, lhs, rhs}] = binaryEntry{result, fn}
}

// RegisterUnary installs a (op, kind) -> fn dispatch entry.
func (d *Dispatch) RegisterUnary(op Op, kind Kind, fn UnaryFn) {
	m := d.unary[op]
	if m == nil {
		m = make(map[Kind]UnaryFn)
		d.unary[op] = m
	}
	m[kind] = fn
}

// RegisterConvert installs a from->to conversion function.
func (d *Dispatch) RegisterConvert(from, to Kind, fn ConvertFn) {
	d.convert[from][to] = fn
}

// Convert attempts to convert v to the given kind, via the conversion
// table. Returns the converted value and true, or the zero Value and false
// if no conversion entry exists.
func (d *Dispatch) Convert(v Value, to Kind) (Value, bool) {
	if v.kind == to {
		return v, true
	}
	if fn := d.convert[v.kind][to]; fn != nil {
		return fn(v)
	}
	return Value{}, false
}

// ResultKind reports the static result kind of (op, lhs, rhs) without
// computing. The compiler does not call it; expressions are not
// type-checked ahead of emission. ok is false if no dispatch entry (even
// after coercion) exists.
func (d *Dispatch) ResultKind(op Op, lhs, rhs Kind) (result Kind, ok bool) {
	if e, found := d.binary[binaryKey{op, lhs, rhs}]; found {
		return e.result, true
	}
	// Try promotion the same way BinaryOp below does, without computing.
	if cl, cr, promoted := d.promote(op, lhs, rhs); promoted {
		if e, found := d.binary[binaryKey{op, cl, cr}]; found {
			return e.result, true
		}
	}
	return Void, false
}

// BinaryOp looks up (op, lhs_type, rhs_type) in the dispatch table; if
// absent, it attempts int<->float / bool<->int promotion via the
// conversion table before computing (spec.md §4.6 "Arithmetic opcodes...
// either compute directly or insert a coercion... if neither exists, the
// instruction fails").
func (d *Dispatch) BinaryOp(op Op, lhs, rhs Value) (Value, error) {
	if e, ok := d.binary[binaryKey{op, lhs.kind, rhs.kind}]; ok {
		return e.fn(lhs, rhs)
	}
	if cl, cr, promoted := d.promote(op, lhs.kind, rhs.kind); promoted {
		if cl != lhs.kind {
			if cv, ok := d.Convert(lhs, cl); ok {
				lhs = cv
			}
		}
		if cr != rhs.kind {
			if cv, ok := d.Convert(rhs, cr); ok {
				rhs = cv
			}
		}
		if e, ok := d.binary[binaryKey{op, lhs.kind, rhs.kind}]; ok {
			return e.fn(lhs, rhs)
		}
	}
	return Value{}, &TypeError{Op: op, Lhs: lhs.kind, Rhs: rhs.kind}
}

// promote decides a coercion target pair for operator type promotion:
// int<->float promotes to float, bool<->int promotes to int, per spec.md
// §4.6 "Numeric semantics": "Comparisons of mismatched types coerce by
// promoting int->float, bool->int, else fail" -- applied uniformly to all
// binary operators, not just comparisons, since spec.md's operator
// dispatch table is a single mechanism shared by both.
func (d *Dispatch) promote(op Op, lhs, rhs Kind) (cl, cr Kind, ok bool) {
	if lhs == rhs {
		return lhs, rhs, false
	}
	switch {
	case lhs == Float && rhs == Int32:
		return Float, Float, true
	case lhs == Int32 && rhs == Float:
		return Float, Float, true
	case lhs == Bool && rhs == Int32:
		return Int32, Int32, true
	case lhs == Int32 && rhs == Bool:
		return Int32, Int32, true
	case lhs == Bool && rhs == Float:
		return Float, Float, true
	case lhs == Float && rhs == Bool:
		return Float, Float, true
	}
	return lhs, rhs, false
}

// UnaryOp applies a unary operator.
func (d *Dispatch) UnaryOp(op Op, v Value) (Value, error) {
	if m, ok := d.unary[op]; ok {
		if fn, ok := m[v.kind]; ok {
			return fn(v)
		}
	}
	return Value{}, &TypeError{Op: op, Lhs: v.kind}
}

// TypeError reports a failed operator or conversion dispatch, per spec.md
// §7 "TypeError -- runtime operator or conversion failure".
type TypeError struct {
	Op  Op
	Lhs Kind
	Rhs Kind
}

func (e *TypeError) Error() string {
	if e.Rhs.Valid() && e.Rhs != Void {
		return fmt.Sprintf("TypeError: no %v operator for %v %v %v", e.Op, e.Lhs, e.Op, e.Rhs)
	}
	return fmt.Sprintf("TypeError: no %v operator for %v", e.Op, e.Lhs)
}
