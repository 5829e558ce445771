// Package parser implements the recursive-descent parser described in
// spec.md §4.2, producing a typed statement/expression tree.
package parser

import (
	"github.com/tinscript/tinscript/lexer"
	"github.com/tinscript/tinscript/types"
)

// Node is implemented by every AST node, giving its source location for
// error reporting and debugger line mapping.
type Node interface {
	Pos() lexer.Location
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
	// StaticType is filled in during parsing/resolution where knowable
	// (spec.md §4.2: "The parser resolves identifiers to variable/
	// function/namespace categories as soon as their declarations are
	// visible and emits kind-tagged nodes").
	StaticType() types.Kind
}

type base struct{ Loc lexer.Location }

func (b base) Pos() lexer.Location { return b.Loc }

// ---- Expressions ----

// IdentKind tags what category an Ident resolved to, per spec.md §4.2:
// "unresolved identifiers at statement end are errors."
type IdentKind uint8

const (
	IdentUnknown IdentKind = iota
	IdentVariable
	IdentFunction
	IdentNamespace
)

type IntLit struct {
	base
	Value int32
}

func (*IntLit) exprNode()                 {}
func (*IntLit) StaticType() types.Kind     { return types.Int32 }

type FloatLit struct {
	base
	Value float32
}

func (*FloatLit) exprNode()             {}
func (*FloatLit) StaticType() types.Kind { return types.Float }

type BoolLit struct {
	base
	Value bool
}

func (*BoolLit) exprNode()             {}
func (*BoolLit) StaticType() types.Kind { return types.Bool }

type StringLit struct {
	base
	Value string
}

func (*StringLit) exprNode()             {}
func (*StringLit) StaticType() types.Kind { return types.String }

type HashLit struct {
	base
	Name string
	Hash uint32
}

func (*HashLit) exprNode()             {}
func (*HashLit) StaticType() types.Kind { return types.Int32 }

type NullLit struct{ base }

func (*NullLit) exprNode()             {}
func (*NullLit) StaticType() types.Kind { return types.Object }

// Ident is a bare name reference, resolved to a category by the parser.
type Ident struct {
	base
	Name string
	Kind IdentKind
	Type types.Kind // resolved variable type, if Kind == IdentVariable
}

func (*Ident) exprNode()             {}
func (i *Ident) StaticType() types.Kind { return i.Type }

// Unary is a prefix unary expression: -x, !x, ~x.
type Unary struct {
	base
	Op   types.Op
	X    Expr
	Type types.Kind
}

func (*Unary) exprNode()             {}
func (u *Unary) StaticType() types.Kind { return u.Type }

// Binary is an infix binary expression.
type Binary struct {
	base
	Op          types.Op
	Lhs, Rhs    Expr
	Type        types.Kind
}

func (*Binary) exprNode()             {}
func (b *Binary) StaticType() types.Kind { return b.Type }

// Assign is `target = value` or a compound form (+=, -=, ...).
type Assign struct {
	base
	Target   Expr // Ident, Member, Index
	CompoundOp types.Op // valid if IsCompound
	IsCompound bool
	Value    Expr
}

func (*Assign) exprNode()             {}
func (a *Assign) StaticType() types.Kind { return a.Value.StaticType() }

// Member is `obj.member`.
type Member struct {
	base
	Receiver Expr
	Name     string
	Type     types.Kind
}

func (*Member) exprNode()             {}
func (m *Member) StaticType() types.Kind { return m.Type }

// Index is `ht["key"]` (hashtable) or `arr[i]` (array element).
type Index struct {
	base
	Receiver Expr
	Key      Expr
	Type     types.Kind
}

func (*Index) exprNode()             {}
func (x *Index) StaticType() types.Kind { return x.Type }

// Call is a function/method/namespace-scoped call.
type Call struct {
	base
	// Exactly one of these identifies the callee:
	Receiver    Expr   // non-nil for obj.method(...)
	Namespace   string // non-empty for NS::fn(...)
	Name        string
	Args        []Expr
	Type        types.Kind
}

func (*Call) exprNode()             {}
func (c *Call) StaticType() types.Kind { return c.Type }

// Create is `create Name("instance")`.
type Create struct {
	base
	ClassName    string
	InstanceName Expr // string expr, may be nil
	Type         types.Kind
}

func (*Create) exprNode()             {}
func (c *Create) StaticType() types.Kind { return types.Object }

// Schedule is `schedule(obj, delay_ms, 'funcname', args...)`.
type Schedule struct {
	base
	Object   Expr
	DelayMs  Expr
	FuncName Expr // string expr
	Args     []Expr
	Repeat   bool
}

func (*Schedule) exprNode()             {}
func (*Schedule) StaticType() types.Kind { return types.Int32 } // schedule() yields a request id

// ---- Statements ----

type ExprStmt struct {
	base
	X Expr
}

func (*ExprStmt) stmtNode() {}

// VarDecl declares a scalar, array, or hashtable variable with a type
// annotation, per spec.md §4.2.
type VarDecl struct {
	base
	Type      types.Kind
	Name      string
	ArraySize int // 1 = scalar or hashtable, >1 = fixed array
	IsHash    bool
	Init      Expr // may be nil
}

func (*VarDecl) stmtNode() {}

type Block struct {
	base
	Stmts []Stmt
}

func (*Block) stmtNode() {}

type If struct {
	base
	Cond Expr
	Then *Block
	Else Stmt // *Block or *If, or nil
}

func (*If) stmtNode() {}

type While struct {
	base
	Cond Expr
	Body *Block
}

func (*While) stmtNode() {}

type For struct {
	base
	Init Stmt // may be nil
	Cond Expr // may be nil
	Post Stmt // may be nil
	Body *Block
}

func (*For) stmtNode() {}

type Case struct {
	Values []Expr // empty = default
	Body   []Stmt
}

type Switch struct {
	base
	Tag   Expr
	Cases []Case
}

func (*Switch) stmtNode() {}

type Break struct{ base }

func (*Break) stmtNode() {}

type Continue struct{ base }

func (*Continue) stmtNode() {}

type Return struct {
	base
	Value Expr // may be nil
}

func (*Return) stmtNode() {}

// Param is a function parameter: typed, possibly with a default value.
type Param struct {
	Type    types.Kind
	Name    string
	Default Expr // may be nil
}

// FuncDecl is a function (or method, when Namespace != "") definition.
type FuncDecl struct {
	base
	Namespace  string // non-empty for a method defined as NS::fn(...) {...} or inside a class body
	Name       string
	ReturnType types.Kind
	Params     []Param
	Body       *Block
}

func (*FuncDecl) stmtNode() {}

// ClassDecl is `class Name [: Base] { members; methods; }`.
type ClassDecl struct {
	base
	Name    string
	Base    string // empty = no parent
	Members []VarDecl
	Methods []*FuncDecl
}

func (*ClassDecl) stmtNode() {}

// File is the root of a parsed source file: top-level statements plus any
// declared functions/classes encountered at top level.
type File struct {
	Name  string
	Stmts []Stmt
}
