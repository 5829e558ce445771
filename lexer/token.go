// Package lexer tokenizes TinScript source text per spec.md §4.1.
package lexer

import "fmt"

// Kind is the top-level token category.
type Kind uint8

const (
	EOF Kind = iota
	Ident
	Keyword
	IntLit
	FloatLit
	StringLit
	HashLit // hash("name") literal, resolved at lex time
	Operator
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "identifier"
	case Keyword:
		return "keyword"
	case IntLit:
		return "int"
	case FloatLit:
		return "float"
	case StringLit:
		return "string"
	case HashLit:
		return "hash"
	case Operator:
		return "operator"
	default:
		return "?"
	}
}

// OpKind is the operator sub-kind, per spec.md §4.1's operator list.
type OpKind uint8

const (
	OpNone OpKind = iota
	OpPlus
	OpMinus
	OpStar
	OpSlash
	OpPercent
	OpAmp
	OpPipe
	OpCaret
	OpTilde
	OpShl
	OpShr
	OpAssign
	OpPlusEq
	OpMinusEq
	OpStarEq
	OpSlashEq
	OpPercentEq
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAndAnd
	OpOrOr
	OpBang
	OpColonColon
	OpDot
	OpLBracket
	OpRBracket
	OpLBrace
	OpRBrace
	OpLParen
	OpRParen
	OpComma
	OpSemi
	OpQuestion
	OpColon
)

var opText = map[OpKind]string{
	OpPlus: "+", OpMinus: "-", OpStar: "*", OpSlash: "/", OpPercent: "%",
	OpAmp: "&", OpPipe: "|", OpCaret: "^", OpTilde: "~", OpShl: "<<", OpShr: ">>",
	OpAssign: "=", OpPlusEq: "+=", OpMinusEq: "-=", OpStarEq: "*=", OpSlashEq: "/=", OpPercentEq: "%=",
	OpEq: "==", OpNe: "!=", OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=",
	OpAndAnd: "&&", OpOrOr: "||", OpBang: "!",
	OpColonColon: "::", OpDot: ".",
	OpLBracket: "[", OpRBracket: "]", OpLBrace: "{", OpRBrace: "}",
	OpLParen: "(", OpRParen: ")", OpComma: ",", OpSemi: ";",
	OpQuestion: "?", OpColon: ":",
}

func (o OpKind) String() string {
	if s, ok := opText[o]; ok {
		return s
	}
	return "?"
}

// Location is a (file, line, column, offset) source position.
type Location struct {
	File   string
	Line   int
	Column int
	Offset int
}

func (loc Location) String() string {
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
}

// Token is a single lexed unit: kind, location, and payload.
type Token struct {
	Kind Kind
	Op   OpKind
	Loc  Location

	Text  string // identifier/keyword/string contents
	Int   int64
	Float float64
}

func (t Token) String() string {
	switch t.Kind {
	case Operator:
		return t.Op.String()
	case IntLit:
		return fmt.Sprintf("%d", t.Int)
	case FloatLit:
		return fmt.Sprintf("%g", t.Float)
	case StringLit:
		return fmt.Sprintf("%q", t.Text)
	case EOF:
		return "<eof>"
	default:
		return t.Text
	}
}

// Keywords is the reserved-word set.
var Keywords = map[string]bool{
	"if": true, "else": true, "while": true, "for": true,
	"switch": true, "case": true, "default": true,
	"break": true, "continue": true, "return": true,
	"int": true, "float": true, "bool": true, "string": true,
	"object": true, "vector3f": true, "hashtable": true, "void": true,
	"true": true, "false": true, "null": true,
	"class": true, "create": true, "schedule": true,
	"namespace": true, "hash": true,
}
