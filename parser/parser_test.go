package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/lexer"
	"github.com/tinscript/tinscript/types"
)

func parseSource(t *testing.T, src string) *File {
	t.Helper()
	lx := lexer.New(strings.NewReader(src), "test.tin")
	p := New(lx, "test.tin")
	file, err := p.ParseFile()
	require.NoError(t, err)
	return file
}

func TestParseVarDeclWithInitializer(t *testing.T) {
	file := parseSource(t, "int x = 1 + 2;")
	require.Len(t, file.Stmts, 1)
	decl, ok := file.Stmts[0].(*VarDecl)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	assert.Equal(t, types.Int32, decl.Type)
	assert.Equal(t, 1, decl.ArraySize)
	require.NotNil(t, decl.Init)
	bin, ok := decl.Init.(*Binary)
	require.True(t, ok)
	assert.Equal(t, types.OpAdd, bin.Op)
}

func TestParseArrayVarDecl(t *testing.T) {
	file := parseSource(t, "int values[4];")
	decl := file.Stmts[0].(*VarDecl)
	assert.Equal(t, 4, decl.ArraySize)
	assert.Nil(t, decl.Init)
}

func TestParseFuncDecl(t *testing.T) {
	file := parseSource(t, "int doubled(int n) { return n * 2; }")
	require.Len(t, file.Stmts, 1)
	fn, ok := file.Stmts[0].(*FuncDecl)
	require.True(t, ok)
	assert.Equal(t, "doubled", fn.Name)
	assert.Equal(t, types.Int32, fn.ReturnType)
	require.Len(t, fn.Params, 1)
	assert.Equal(t, "n", fn.Params[0].Name)
	assert.Equal(t, types.Int32, fn.Params[0].Type)
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(*Return)
	require.True(t, ok)
	require.NotNil(t, ret.Value)
}

func TestParseBareCallExprStatement(t *testing.T) {
	file := parseSource(t, "host_ping();")
	stmt, ok := file.Stmts[0].(*ExprStmt)
	require.True(t, ok)
	call, ok := stmt.X.(*Call)
	require.True(t, ok)
	assert.Equal(t, "host_ping", call.Name)
	assert.Empty(t, call.Args)
}

func TestParseCallWithArgsAndNamespace(t *testing.T) {
	file := parseSource(t, "Util::clamp(1, 2, 3);")
	stmt := file.Stmts[0].(*ExprStmt)
	call := stmt.X.(*Call)
	assert.Equal(t, "Util", call.Namespace)
	assert.Equal(t, "clamp", call.Name)
	assert.Len(t, call.Args, 3)
}

func TestParseMemberAndMethodCall(t *testing.T) {
	file := parseSource(t, "player.score = player.getScore(1);")
	stmt := file.Stmts[0].(*ExprStmt)
	assign, ok := stmt.X.(*Assign)
	require.True(t, ok)
	member, ok := assign.Target.(*Member)
	require.True(t, ok)
	assert.Equal(t, "score", member.Name)
	call, ok := assign.Value.(*Call)
	require.True(t, ok)
	assert.Equal(t, "getScore", call.Name)
	require.NotNil(t, call.Receiver)
}

func TestParseCompoundAssign(t *testing.T) {
	file := parseSource(t, "int x = 0; x += 5;")
	stmt := file.Stmts[1].(*ExprStmt)
	assign := stmt.X.(*Assign)
	assert.True(t, assign.IsCompound)
	assert.Equal(t, types.OpAdd, assign.CompoundOp)
}

func TestParseIfElseIfElse(t *testing.T) {
	file := parseSource(t, `
		if (x > 0) { y = 1; }
		else if (x < 0) { y = -1; }
		else { y = 0; }
	`)
	ifStmt, ok := file.Stmts[0].(*If)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Else)
	elseIf, ok := ifStmt.Else.(*If)
	require.True(t, ok)
	require.NotNil(t, elseIf.Else)
	_, ok = elseIf.Else.(*Block)
	assert.True(t, ok)
}

func TestParseWhileLoop(t *testing.T) {
	file := parseSource(t, "while (x < 10) { x = x + 1; }")
	loop, ok := file.Stmts[0].(*While)
	require.True(t, ok)
	require.Len(t, loop.Body.Stmts, 1)
}

func TestParseForLoop(t *testing.T) {
	file := parseSource(t, "for (int i = 0; i < 10; i += 1) { }")
	loop, ok := file.Stmts[0].(*For)
	require.True(t, ok)
	require.NotNil(t, loop.Init)
	require.NotNil(t, loop.Cond)
	require.NotNil(t, loop.Post)
}

func TestParseSwitchWithDefault(t *testing.T) {
	file := parseSource(t, `
		switch (x) {
		case 1:
			y = 1;
			break;
		default:
			y = 0;
			break;
		}
	`)
	sw, ok := file.Stmts[0].(*Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 2)
	assert.Len(t, sw.Cases[0].Values, 1)
	assert.Empty(t, sw.Cases[1].Values)
}

func TestParseClassDecl(t *testing.T) {
	file := parseSource(t, `
		class Enemy {
			int health;
			void takeDamage(int amount) { health -= amount; }
		}
	`)
	cls, ok := file.Stmts[0].(*ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "Enemy", cls.Name)
	require.Len(t, cls.Members, 1)
	assert.Equal(t, "health", cls.Members[0].Name)
	require.Len(t, cls.Methods, 1)
	assert.Equal(t, "takeDamage", cls.Methods[0].Name)
}

func TestParseCreateExpr(t *testing.T) {
	file := parseSource(t, `object e = create Enemy("boss");`)
	decl := file.Stmts[0].(*VarDecl)
	create, ok := decl.Init.(*Create)
	require.True(t, ok)
	assert.Equal(t, "Enemy", create.ClassName)
	require.NotNil(t, create.InstanceName)
}

func TestParseScheduleExpr(t *testing.T) {
	file := parseSource(t, `schedule(e, 1000, "tick", 1, 2);`)
	stmt := file.Stmts[0].(*ExprStmt)
	sched, ok := stmt.X.(*Schedule)
	require.True(t, ok)
	require.NotNil(t, sched.Object)
	require.NotNil(t, sched.DelayMs)
	require.NotNil(t, sched.FuncName)
	assert.Len(t, sched.Args, 2)
}

func TestParseUnresolvedIdentIsTaggedUnknown(t *testing.T) {
	file := parseSource(t, "y = undeclaredThing;")
	stmt := file.Stmts[0].(*ExprStmt)
	assign := stmt.X.(*Assign)
	ident, ok := assign.Value.(*Ident)
	require.True(t, ok)
	assert.Equal(t, IdentUnknown, ident.Kind)
}

func TestParseForwardCallReferenceDoesNotError(t *testing.T) {
	file := parseSource(t, `
		void caller() { callee(); }
		void callee() { }
	`)
	require.Len(t, file.Stmts, 2)
	fn := file.Stmts[0].(*FuncDecl)
	exprStmt := fn.Body.Stmts[0].(*ExprStmt)
	call, ok := exprStmt.X.(*Call)
	require.True(t, ok)
	assert.Equal(t, "callee", call.Name)
}

func TestBinaryOperatorPrecedence(t *testing.T) {
	file := parseSource(t, "int r = 1 + 2 * 3;")
	decl := file.Stmts[0].(*VarDecl)
	top, ok := decl.Init.(*Binary)
	require.True(t, ok)
	assert.Equal(t, types.OpAdd, top.Op)
	_, ok = top.Lhs.(*IntLit)
	require.True(t, ok)
	rhs, ok := top.Rhs.(*Binary)
	require.True(t, ok)
	assert.Equal(t, types.OpMul, rhs.Op)
}

func TestParseSyntaxErrorOnMissingSemicolon(t *testing.T) {
	lx := lexer.New(strings.NewReader("int x = 1"), "bad.tin")
	p := New(lx, "bad.tin")
	_, err := p.ParseFile()
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
}

func TestParseRecoversAfterSyntaxError(t *testing.T) {
	// The malformed "int x = ;" statement's recovery skips to the next ';',
	// which swallows the whole "int y = 2;" statement along with it; parsing
	// resumes cleanly at "int z = 3;".
	lx := lexer.New(strings.NewReader("int x = ; int y = 2; int z = 3;"), "bad.tin")
	p := New(lx, "bad.tin")
	file, err := p.ParseFile()
	require.Error(t, err)
	require.Len(t, file.Stmts, 1)
	decl, ok := file.Stmts[0].(*VarDecl)
	require.True(t, ok)
	assert.Equal(t, "z", decl.Name)
}
