package parser

import (
	"fmt"

	"github.com/tinscript/tinscript/lexer"
	"github.com/tinscript/tinscript/types"
)

// SyntaxError reports a parse failure with (file, line, token), per
// spec.md §4.2: "Syntax errors are reported with (file, line, token)".
type SyntaxError struct {
	Loc     lexer.Location
	Token   string
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%v: syntax error near %q: %s", e.Loc, e.Token, e.Message)
}

// scope tracks variable name -> type bindings visible at the current
// parse point, so identifiers can be resolved to IdentVariable as soon as
// their declaration is visible (spec.md §4.2).
type scope struct {
	vars   map[string]types.Kind
	parent *scope
}

func newScope(parent *scope) *scope { return &scope{vars: make(map[string]types.Kind), parent: parent} }

func (s *scope) declare(name string, k types.Kind) { s.vars[name] = k }

func (s *scope) lookup(name string) (types.Kind, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if k, ok := sc.vars[name]; ok {
			return k, true
		}
	}
	return types.Void, false
}

// Parser is a recursive-descent parser over a lexer.Lexer.
type Parser struct {
	lx   *lexer.Lexer
	name string

	functions  map[string]bool
	namespaces map[string]bool

	cur   *scope
	loopDepth int

	errs []error
}

// New returns a Parser for source text from lx, attributing nodes to name.
func New(lx *lexer.Lexer, name string) *Parser {
	return &Parser{
		lx:         lx,
		name:       name,
		functions:  make(map[string]bool),
		namespaces: make(map[string]bool),
		cur:        newScope(nil),
	}
}

// ParseFile parses an entire source file's top-level statement sequence.
// On a syntax error, the parser recovers to the next ';' or '}' (spec.md
// §4.2) and continues, accumulating every error encountered; ParseFile
// returns the first of those errors, unwrapped, if any occurred.
func (p *Parser) ParseFile() (*File, error) {
	file := &File{Name: p.name}
	for {
		tok, err := p.lx.Peek()
		if err != nil {
			return file, err
		}
		if tok.Kind == lexer.EOF {
			break
		}
		stmt, err := p.parseTopLevel()
		if err != nil {
			p.errs = append(p.errs, err)
			if !p.recover() {
				break
			}
			continue
		}
		if stmt != nil {
			file.Stmts = append(file.Stmts, stmt)
		}
	}
	if len(p.errs) > 0 {
		return file, p.errs[0]
	}
	return file, nil
}

// recover skips tokens until past the next ';' or '}', per spec.md §4.2
// "recovers to the next ';' or '}' when possible". Returns false if EOF
// was reached first.
func (p *Parser) recover() bool {
	for {
		tok, err := p.lx.Next()
		if err != nil || tok.Kind == lexer.EOF {
			return false
		}
		if tok.Kind == lexer.Operator && (tok.Op == lexer.OpSemi || tok.Op == lexer.OpRBrace) {
			return true
		}
	}
}

func (p *Parser) peek() (lexer.Token, error) { return p.lx.Peek() }
func (p *Parser) next() (lexer.Token, error) { return p.lx.Next() }

func (p *Parser) expectOp(op lexer.OpKind) (lexer.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.Kind != lexer.Operator || tok.Op != op {
		return tok, &SyntaxError{Loc: tok.Loc, Token: tok.String(), Message: fmt.Sprintf("expected %q", op)}
	}
	return tok, nil
}

func (p *Parser) expectKeyword(kw string) (lexer.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.Kind != lexer.Keyword || tok.Text != kw {
		return tok, &SyntaxError{Loc: tok.Loc, Token: tok.String(), Message: fmt.Sprintf("expected %q", kw)}
	}
	return tok, nil
}

func (p *Parser) expectIdent() (lexer.Token, error) {
	tok, err := p.next()
	if err != nil {
		return tok, err
	}
	if tok.Kind != lexer.Ident {
		return tok, &SyntaxError{Loc: tok.Loc, Token: tok.String(), Message: "expected identifier"}
	}
	return tok, nil
}

func isOp(tok lexer.Token, op lexer.OpKind) bool { return tok.Kind == lexer.Operator && tok.Op == op }
func isKeyword(tok lexer.Token, kw string) bool  { return tok.Kind == lexer.Keyword && tok.Text == kw }

// typeKeyword maps a keyword token text to a primitive Kind, or false.
func typeKeyword(text string) (types.Kind, bool) {
	switch text {
	case "void":
		return types.Void, true
	case "bool":
		return types.Bool, true
	case "int":
		return types.Int32, true
	case "float":
		return types.Float, true
	case "string":
		return types.String, true
	case "object":
		return types.Object, true
	case "vector3f":
		return types.Vector3f, true
	case "hashtable":
		return types.Hashtable, true
	}
	return types.Void, false
}

// ---- Top level ----

func (p *Parser) parseTopLevel() (Stmt, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isKeyword(tok, "class") {
		return p.parseClass()
	}
	if k, isType := p.peekFuncDecl(); isType {
		return p.parseVarDeclOrFunc(k)
	}
	return p.parseStmt()
}

// peekFuncDecl reports whether the next token is a type keyword, and which
// kind it names. It does not itself tell a function declaration
// (`<type> <ident> (`) from a variable declaration (`int x = 1;`): both
// begin with the same two tokens, and the caller (parseVarDeclOrFunc at
// top level) consumes the type and name and decides on the third token.
func (p *Parser) peekFuncDecl() (types.Kind, bool) {
	tok, err := p.peek()
	if err != nil || tok.Kind != lexer.Keyword {
		return types.Void, false
	}
	k, ok := typeKeyword(tok.Text)
	return k, ok
}

// ---- Statements ----

func (p *Parser) parseStmt() (Stmt, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}

	switch {
	case isKeyword(tok, "if"):
		return p.parseIf()
	case isKeyword(tok, "while"):
		return p.parseWhile()
	case isKeyword(tok, "for"):
		return p.parseFor()
	case isKeyword(tok, "switch"):
		return p.parseSwitch()
	case isKeyword(tok, "break"):
		p.next()
		if _, err := p.expectOp(lexer.OpSemi); err != nil {
			return nil, err
		}
		return &Break{base{tok.Loc}}, nil
	case isKeyword(tok, "continue"):
		p.next()
		if _, err := p.expectOp(lexer.OpSemi); err != nil {
			return nil, err
		}
		return &Continue{base{tok.Loc}}, nil
	case isKeyword(tok, "return"):
		return p.parseReturn()
	case isOp(tok, lexer.OpLBrace):
		return p.parseBlock()
	default:
		if k, ok := p.peekFuncDecl(); ok {
			return p.parseVarDeclOrFunc(k)
		}
		return p.parseExprStmtOrSchedule()
	}
}

func (p *Parser) parseBlock() (*Block, error) {
	open, err := p.expectOp(lexer.OpLBrace)
	if err != nil {
		return nil, err
	}
	p.cur = newScope(p.cur)
	defer func() { p.cur = p.cur.parent }()

	blk := &Block{base: base{open.Loc}}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if isOp(tok, lexer.OpRBrace) {
			p.next()
			return blk, nil
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		blk.Stmts = append(blk.Stmts, stmt)
	}
}

func (p *Parser) parseIf() (Stmt, error) {
	kw, _ := p.next()
	if _, err := p.expectOp(lexer.OpLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(lexer.OpRParen); err != nil {
		return nil, err
	}
	then, err := p.parseBranch()
	if err != nil {
		return nil, err
	}
	ifStmt := &If{base: base{kw.Loc}, Cond: cond, Then: then}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isKeyword(tok, "else") {
		p.next()
		tok2, err := p.peek()
		if err != nil {
			return nil, err
		}
		if isKeyword(tok2, "if") {
			elseIf, err := p.parseIf()
			if err != nil {
				return nil, err
			}
			ifStmt.Else = elseIf
		} else {
			elseBlk, err := p.parseBranch()
			if err != nil {
				return nil, err
			}
			ifStmt.Else = elseBlk
		}
	}
	return ifStmt, nil
}

// parseBranch parses either a braced block or a single statement wrapped
// in an implicit block, matching C's dangling-statement `if (x) foo();`.
func (p *Parser) parseBranch() (*Block, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isOp(tok, lexer.OpLBrace) {
		return p.parseBlock()
	}
	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return &Block{base: base{tok.Loc}, Stmts: []Stmt{stmt}}, nil
}

func (p *Parser) parseWhile() (Stmt, error) {
	kw, _ := p.next()
	if _, err := p.expectOp(lexer.OpLParen); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(lexer.OpRParen); err != nil {
		return nil, err
	}
	p.loopDepth++
	body, err := p.parseBranch()
	p.loopDepth--
	if err != nil {
		return nil, err
	}
	return &While{base: base{kw.Loc}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (Stmt, error) {
	kw, _ := p.next()
	if _, err := p.expectOp(lexer.OpLParen); err != nil {
		return nil, err
	}
	p.cur = newScope(p.cur)
	defer func() { p.cur = p.cur.parent }()

	var initStmt Stmt
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !isOp(tok, lexer.OpSemi) {
		if k, ok := p.peekFuncDecl(); ok {
			initStmt, err = p.parseVarDecl(k)
		} else {
			initStmt, err = p.parseExprStmt()
		}
		if err != nil {
			return nil, err
		}
	} else {
		p.next()
	}

	var cond Expr
	tok, err = p.peek()
	if err != nil {
		return nil, err
	}
	if !isOp(tok, lexer.OpSemi) {
		cond, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectOp(lexer.OpSemi); err != nil {
		return nil, err
	}

	var post Stmt
	tok, err = p.peek()
	if err != nil {
		return nil, err
	}
	if !isOp(tok, lexer.OpRParen) {
		postExpr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		post = &ExprStmt{base{postExpr.Pos()}, postExpr}
	}
	if _, err := p.expectOp(lexer.OpRParen); err != nil {
		return nil, err
	}

	p.loopDepth++
	body, err := p.parseBranch()
	p.loopDepth--
	if err != nil {
		return nil, err
	}
	return &For{base: base{kw.Loc}, Init: initStmt, Cond: cond, Post: post, Body: body}, nil
}

func (p *Parser) parseSwitch() (Stmt, error) {
	kw, _ := p.next()
	if _, err := p.expectOp(lexer.OpLParen); err != nil {
		return nil, err
	}
	tag, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(lexer.OpRParen); err != nil {
		return nil, err
	}
	if _, err := p.expectOp(lexer.OpLBrace); err != nil {
		return nil, err
	}

	sw := &Switch{base: base{kw.Loc}}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if isOp(tok, lexer.OpRBrace) {
			p.next()
			return sw, nil
		}
		c := Case{}
		if isKeyword(tok, "case") {
			for {
				p.next()
				v, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				c.Values = append(c.Values, v)
				if _, err := p.expectOp(lexer.OpColon); err != nil {
					return nil, err
				}
				next, err := p.peek()
				if err != nil {
					return nil, err
				}
				if !isKeyword(next, "case") {
					break
				}
			}
		} else if isKeyword(tok, "default") {
			p.next()
			if _, err := p.expectOp(lexer.OpColon); err != nil {
				return nil, err
			}
		} else {
			return nil, &SyntaxError{Loc: tok.Loc, Token: tok.String(), Message: "expected 'case' or 'default'"}
		}
		for {
			t, err := p.peek()
			if err != nil {
				return nil, err
			}
			if isKeyword(t, "case") || isKeyword(t, "default") || isOp(t, lexer.OpRBrace) {
				break
			}
			stmt, err := p.parseStmt()
			if err != nil {
				return nil, err
			}
			c.Body = append(c.Body, stmt)
		}
		sw.Cases = append(sw.Cases, c)
	}
}

func (p *Parser) parseReturn() (Stmt, error) {
	kw, _ := p.next()
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isOp(tok, lexer.OpSemi) {
		p.next()
		return &Return{base: base{kw.Loc}}, nil
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(lexer.OpSemi); err != nil {
		return nil, err
	}
	return &Return{base: base{kw.Loc}, Value: val}, nil
}

// parseVarDeclOrFunc disambiguates `<type> name(...)` (function decl) from
// `<type> name [= expr | [n]];` (variable decl) by looking one identifier
// + one more token ahead.
func (p *Parser) parseVarDeclOrFunc(k types.Kind) (Stmt, error) {
	typeTok, _ := p.next()
	nameTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isOp(next, lexer.OpLParen) {
		return p.finishFuncDecl(typeTok, "", nameTok.Text, k)
	}
	return p.finishVarDecl(typeTok, nameTok.Text, k)
}

func (p *Parser) parseVarDecl(k types.Kind) (Stmt, error) {
	typeTok, _ := p.next()
	nameTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return p.finishVarDecl(typeTok, nameTok.Text, k)
}

func (p *Parser) finishVarDecl(typeTok lexer.Token, name string, k types.Kind) (Stmt, error) {
	decl := &VarDecl{base: base{typeTok.Loc}, Type: k, Name: name, ArraySize: 1, IsHash: k == types.Hashtable}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	switch {
	case isOp(tok, lexer.OpLBracket):
		p.next()
		sizeTok, err := p.next()
		if err != nil {
			return nil, err
		}
		if sizeTok.Kind != lexer.IntLit {
			return nil, &SyntaxError{Loc: sizeTok.Loc, Token: sizeTok.String(), Message: "expected array size"}
		}
		decl.ArraySize = int(sizeTok.Int)
		if _, err := p.expectOp(lexer.OpRBracket); err != nil {
			return nil, err
		}
	}
	tok, err = p.peek()
	if err != nil {
		return nil, err
	}
	if isOp(tok, lexer.OpAssign) {
		p.next()
		init, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		decl.Init = init
	}
	if _, err := p.expectOp(lexer.OpSemi); err != nil {
		return nil, err
	}
	p.cur.declare(name, k)
	return decl, nil
}

func (p *Parser) parseFuncDecl(namespace string, k types.Kind) (Stmt, error) {
	typeTok, _ := p.next()
	nameTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	return p.finishFuncDecl(typeTok, namespace, nameTok.Text, k)
}

func (p *Parser) finishFuncDecl(typeTok lexer.Token, namespace, name string, retType types.Kind) (Stmt, error) {
	if _, err := p.expectOp(lexer.OpLParen); err != nil {
		return nil, err
	}
	p.functions[name] = true

	p.cur = newScope(p.cur)
	defer func() { p.cur = p.cur.parent }()

	var params []Param
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !isOp(tok, lexer.OpRParen) {
		for {
			ptypeTok, err := p.next()
			if err != nil {
				return nil, err
			}
			pk, ok := typeKeyword(ptypeTok.Text)
			if ptypeTok.Kind != lexer.Keyword || !ok {
				return nil, &SyntaxError{Loc: ptypeTok.Loc, Token: ptypeTok.String(), Message: "expected parameter type"}
			}
			pnameTok, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			param := Param{Type: pk, Name: pnameTok.Text}
			p.cur.declare(pnameTok.Text, pk)

			dtok, err := p.peek()
			if err != nil {
				return nil, err
			}
			if isOp(dtok, lexer.OpAssign) {
				p.next()
				def, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				param.Default = def
			}
			params = append(params, param)

			ctok, err := p.peek()
			if err != nil {
				return nil, err
			}
			if isOp(ctok, lexer.OpComma) {
				p.next()
				continue
			}
			break
		}
	}
	if _, err := p.expectOp(lexer.OpRParen); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FuncDecl{
		base:       base{typeTok.Loc},
		Namespace:  namespace,
		Name:       name,
		ReturnType: retType,
		Params:     params,
		Body:       body,
	}, nil
}

func (p *Parser) parseClass() (Stmt, error) {
	kw, _ := p.next()
	nameTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	p.namespaces[nameTok.Text] = true

	class := &ClassDecl{base: base{kw.Loc}, Name: nameTok.Text}

	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isOp(tok, lexer.OpColon) {
		p.next()
		baseTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		class.Base = baseTok.Text
	}

	if _, err := p.expectOp(lexer.OpLBrace); err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if isOp(tok, lexer.OpRBrace) {
			p.next()
			return class, nil
		}
		k, ok := p.peekFuncDecl()
		if !ok {
			return nil, &SyntaxError{Loc: tok.Loc, Token: tok.String(), Message: "expected member or method declaration"}
		}
		typeTok, _ := p.next()
		nameTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		next, err := p.peek()
		if err != nil {
			return nil, err
		}
		if isOp(next, lexer.OpLParen) {
			fn, err := p.finishFuncDecl(typeTok, class.Name, nameTok.Text, k)
			if err != nil {
				return nil, err
			}
			class.Methods = append(class.Methods, fn.(*FuncDecl))
			continue
		}
		member, err := p.finishVarDeclNoScope(typeTok, nameTok.Text, k)
		if err != nil {
			return nil, err
		}
		class.Members = append(class.Members, *member)
	}
}

// finishVarDeclNoScope is finishVarDecl without declaring into the current
// lexical scope (class members live in the namespace's member table, not
// in any enclosing function scope).
func (p *Parser) finishVarDeclNoScope(typeTok lexer.Token, name string, k types.Kind) (*VarDecl, error) {
	decl := &VarDecl{base: base{typeTok.Loc}, Type: k, Name: name, ArraySize: 1}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isOp(tok, lexer.OpLBracket) {
		p.next()
		sizeTok, err := p.next()
		if err != nil {
			return nil, err
		}
		if sizeTok.Kind != lexer.IntLit {
			return nil, &SyntaxError{Loc: sizeTok.Loc, Token: sizeTok.String(), Message: "expected array size"}
		}
		decl.ArraySize = int(sizeTok.Int)
		if _, err := p.expectOp(lexer.OpRBracket); err != nil {
			return nil, err
		}
	}
	if _, err := p.expectOp(lexer.OpSemi); err != nil {
		return nil, err
	}
	return decl, nil
}

// ---- schedule() / expr statements ----

func (p *Parser) parseExprStmtOrSchedule() (Stmt, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isKeyword(tok, "schedule") {
		sched, err := p.parseSchedule()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp(lexer.OpSemi); err != nil {
			return nil, err
		}
		return &ExprStmt{base{tok.Loc}, sched}, nil
	}
	return p.parseExprStmt()
}

func (p *Parser) parseExprStmt() (Stmt, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(lexer.OpSemi); err != nil {
		return nil, err
	}
	return &ExprStmt{base{tok.Loc}, x}, nil
}

func (p *Parser) parseSchedule() (Expr, error) {
	kw, _ := p.next()
	if _, err := p.expectOp(lexer.OpLParen); err != nil {
		return nil, err
	}
	obj, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(lexer.OpComma); err != nil {
		return nil, err
	}
	delay, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectOp(lexer.OpComma); err != nil {
		return nil, err
	}
	fname, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	sched := &Schedule{base: base{kw.Loc}, Object: obj, DelayMs: delay, FuncName: fname}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if isOp(tok, lexer.OpComma) {
			p.next()
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			sched.Args = append(sched.Args, arg)
			continue
		}
		break
	}
	if _, err := p.expectOp(lexer.OpRParen); err != nil {
		return nil, err
	}
	return sched, nil
}

// ---- Expressions: precedence-climbing ----

// precedence table, lowest first, following the standard C precedence
// order named in spec.md §4.3.
var binPrec = map[lexer.OpKind]int{
	lexer.OpOrOr:  1,
	lexer.OpAndAnd: 2,
	lexer.OpPipe:  3,
	lexer.OpCaret:  4,
	lexer.OpAmp:   5,
	lexer.OpEq: 6, lexer.OpNe: 6,
	lexer.OpLt: 7, lexer.OpLe: 7, lexer.OpGt: 7, lexer.OpGe: 7,
	lexer.OpShl: 8, lexer.OpShr: 8,
	lexer.OpPlus: 9, lexer.OpMinus: 9,
	lexer.OpStar: 10, lexer.OpSlash: 10, lexer.OpPercent: 10,
}

var binOpToTypesOp = map[lexer.OpKind]types.Op{
	lexer.OpPlus: types.OpAdd, lexer.OpMinus: types.OpSub,
	lexer.OpStar: types.OpMul, lexer.OpSlash: types.OpDiv, lexer.OpPercent: types.OpMod,
	lexer.OpAmp: types.OpBitAnd, lexer.OpPipe: types.OpBitOr, lexer.OpCaret: types.OpBitXor,
	lexer.OpShl: types.OpShl, lexer.OpShr: types.OpShr,
	lexer.OpEq: types.OpEq, lexer.OpNe: types.OpNe,
	lexer.OpLt: types.OpLt, lexer.OpLe: types.OpLe, lexer.OpGt: types.OpGt, lexer.OpGe: types.OpGe,
	lexer.OpAndAnd: types.OpLogAnd, lexer.OpOrOr: types.OpLogOr,
}

var compoundOpToTypesOp = map[lexer.OpKind]types.Op{
	lexer.OpPlusEq: types.OpAdd, lexer.OpMinusEq: types.OpSub,
	lexer.OpStarEq: types.OpMul, lexer.OpSlashEq: types.OpDiv, lexer.OpPercentEq: types.OpMod,
}

// parseExpr parses a full expression, including top-level assignment,
// which in this grammar has the lowest precedence (as in C).
func (p *Parser) parseExpr() (Expr, error) {
	lhs, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind != lexer.Operator {
		return lhs, nil
	}
	if tok.Op == lexer.OpAssign {
		p.next()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Assign{base: base{tok.Loc}, Target: lhs, Value: rhs}, nil
	}
	if cop, ok := compoundOpToTypesOp[tok.Op]; ok {
		p.next()
		rhs, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &Assign{base: base{tok.Loc}, Target: lhs, Value: rhs, IsCompound: true, CompoundOp: cop}, nil
	}
	return lhs, nil
}

func (p *Parser) parseBinary(minPrec int) (Expr, error) {
	lhs, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != lexer.Operator {
			return lhs, nil
		}
		prec, ok := binPrec[tok.Op]
		if !ok || prec < minPrec {
			return lhs, nil
		}
		p.next()
		rhs, err := p.parseBinary(prec + 1) // left-associative: rhs binds tighter
		if err != nil {
			return nil, err
		}
		opKind := binOpToTypesOp[tok.Op]
		lhs = &Binary{base: base{tok.Loc}, Op: opKind, Lhs: lhs, Rhs: rhs, Type: resultTypeHint(opKind, lhs, rhs)}
	}
}

// resultTypeHint is a best-effort static type recorded on the Binary node
// (the compiler does no further type resolution; the VM resolves operand
// kinds through types.Dispatch at run time); comparisons and logical ops are always bool,
// arithmetic inherits the wider numeric operand's type.
func resultTypeHint(op types.Op, lhs, rhs Expr) types.Kind {
	switch op {
	case types.OpEq, types.OpNe, types.OpLt, types.OpLe, types.OpGt, types.OpGe, types.OpLogAnd, types.OpLogOr:
		return types.Bool
	}
	if lhs.StaticType() == types.Float || rhs.StaticType() == types.Float {
		return types.Float
	}
	return types.Int32
}

func (p *Parser) parseUnary() (Expr, error) {
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == lexer.Operator {
		switch tok.Op {
		case lexer.OpMinus:
			p.next()
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &Unary{base: base{tok.Loc}, Op: types.OpNeg, X: x, Type: x.StaticType()}, nil
		case lexer.OpBang:
			p.next()
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &Unary{base: base{tok.Loc}, Op: types.OpNot, X: x, Type: types.Bool}, nil
		case lexer.OpTilde:
			p.next()
			x, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return &Unary{base: base{tok.Loc}, Op: types.OpBNot, X: x, Type: types.Int32}, nil
		}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Expr, error) {
	x, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind != lexer.Operator {
			return x, nil
		}
		switch tok.Op {
		case lexer.OpDot:
			p.next()
			nameTok, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			next, err := p.peek()
			if err != nil {
				return nil, err
			}
			if isOp(next, lexer.OpLParen) {
				args, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				x = &Call{base: base{tok.Loc}, Receiver: x, Name: nameTok.Text, Args: args}
				continue
			}
			x = &Member{base: base{tok.Loc}, Receiver: x, Name: nameTok.Text}
			continue
		case lexer.OpLBracket:
			p.next()
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp(lexer.OpRBracket); err != nil {
				return nil, err
			}
			x = &Index{base: base{tok.Loc}, Receiver: x, Key: key}
			continue
		}
		return x, nil
	}
}

func (p *Parser) parseArgs() ([]Expr, error) {
	if _, err := p.expectOp(lexer.OpLParen); err != nil {
		return nil, err
	}
	var args []Expr
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isOp(tok, lexer.OpRParen) {
		p.next()
		return args, nil
	}
	for {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}
		if isOp(tok, lexer.OpComma) {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expectOp(lexer.OpRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (Expr, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}
	switch tok.Kind {
	case lexer.IntLit:
		return &IntLit{base{tok.Loc}, int32(tok.Int)}, nil
	case lexer.FloatLit:
		return &FloatLit{base{tok.Loc}, float32(tok.Float)}, nil
	case lexer.StringLit:
		return &StringLit{base{tok.Loc}, tok.Text}, nil
	case lexer.HashLit:
		return &HashLit{base{tok.Loc}, tok.Text, types.HashName(tok.Text)}, nil
	case lexer.Keyword:
		switch tok.Text {
		case "true":
			return &BoolLit{base{tok.Loc}, true}, nil
		case "false":
			return &BoolLit{base{tok.Loc}, false}, nil
		case "null":
			return &NullLit{base{tok.Loc}}, nil
		case "create":
			return p.parseCreate(tok)
		}
		return nil, &SyntaxError{Loc: tok.Loc, Token: tok.String(), Message: "unexpected keyword"}
	case lexer.Ident:
		return p.parseIdentOrCall(tok)
	case lexer.Operator:
		if tok.Op == lexer.OpLParen {
			x, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp(lexer.OpRParen); err != nil {
				return nil, err
			}
			return x, nil
		}
	}
	return nil, &SyntaxError{Loc: tok.Loc, Token: tok.String(), Message: "unexpected token"}
}

func (p *Parser) parseCreate(kw lexer.Token) (Expr, error) {
	nameTok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	create := &Create{base: base{kw.Loc}, ClassName: nameTok.Text}
	if _, err := p.expectOp(lexer.OpLParen); err != nil {
		return nil, err
	}
	tok, err := p.peek()
	if err != nil {
		return nil, err
	}
	if !isOp(tok, lexer.OpRParen) {
		inst, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		create.InstanceName = inst
	}
	if _, err := p.expectOp(lexer.OpRParen); err != nil {
		return nil, err
	}
	return create, nil
}

func (p *Parser) parseIdentOrCall(tok lexer.Token) (Expr, error) {
	next, err := p.peek()
	if err != nil {
		return nil, err
	}
	if isOp(next, lexer.OpColonColon) {
		p.next()
		fnTok, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &Call{base: base{tok.Loc}, Namespace: tok.Text, Name: fnTok.Text, Args: args}, nil
	}
	if isOp(next, lexer.OpLParen) {
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &Call{base: base{tok.Loc}, Name: tok.Text, Args: args}, nil
	}

	if k, ok := p.cur.lookup(tok.Text); ok {
		return &Ident{base: base{tok.Loc}, Name: tok.Text, Kind: IdentVariable, Type: k}, nil
	}
	if p.functions[tok.Text] {
		return &Ident{base: base{tok.Loc}, Name: tok.Text, Kind: IdentFunction}, nil
	}
	if p.namespaces[tok.Text] {
		return &Ident{base: base{tok.Loc}, Name: tok.Text, Kind: IdentNamespace}, nil
	}
	// Per spec.md §4.2: "unresolved identifiers at statement end are
	// errors" -- forward references to functions/classes declared later
	// in the same file are common, so this parser defers the hard error
	// to the compiler, which resolves against the fully-populated symbol
	// tables. Here the identifier is tagged Unknown and passed through.
	return &Ident{base: base{tok.Loc}, Name: tok.Text, Kind: IdentUnknown}, nil
}
