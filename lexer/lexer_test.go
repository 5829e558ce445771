package lexer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allTokens(t *testing.T, src string) []Token {
	t.Helper()
	lx := New(strings.NewReader(src), "test.tin")
	var toks []Token
	for {
		tok, err := lx.Next()
		require.NoError(t, err)
		if tok.Kind == EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

func TestLexIdentifiersAndKeywords(t *testing.T) {
	toks := allTokens(t, "int total while")
	require.Len(t, toks, 3)
	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, "int", toks[0].Text)
	assert.Equal(t, Ident, toks[1].Kind)
	assert.Equal(t, "total", toks[1].Text)
	assert.Equal(t, Keyword, toks[2].Kind)
}

func TestLexNumberLiterals(t *testing.T) {
	toks := allTokens(t, "42 3.5")
	require.Len(t, toks, 2)
	assert.Equal(t, IntLit, toks[0].Kind)
	assert.EqualValues(t, 42, toks[0].Int)
	assert.Equal(t, FloatLit, toks[1].Kind)
	assert.InDelta(t, 3.5, toks[1].Float, 0.0001)
}

func TestLexIntegerOverflowIsSyntaxError(t *testing.T) {
	lx := New(strings.NewReader("99999999999"), "test.tin")
	_, err := lx.Next()
	require.Error(t, err)
	var se *SyntaxError
	require.ErrorAs(t, err, &se)
}

func TestLexStringLiteral(t *testing.T) {
	toks := allTokens(t, `"hello world"`)
	require.Len(t, toks, 1)
	assert.Equal(t, StringLit, toks[0].Kind)
	assert.Equal(t, "hello world", toks[0].Text)
}

func TestLexUnterminatedStringIsSyntaxError(t *testing.T) {
	lx := New(strings.NewReader(`"unterminated`), "test.tin")
	_, err := lx.Next()
	require.Error(t, err)
}

func TestLexHashLiteral(t *testing.T) {
	toks := allTokens(t, `hash("player")`)
	require.Len(t, toks, 1)
	assert.Equal(t, HashLit, toks[0].Kind)
	assert.Equal(t, "player", toks[0].Text)
}

func TestLexOperators(t *testing.T) {
	toks := allTokens(t, "+= == <= :: &&")
	require.Len(t, toks, 5)
	want := []OpKind{OpPlusEq, OpEq, OpLe, OpColonColon, OpAndAnd}
	for i, op := range want {
		assert.Equal(t, Operator, toks[i].Kind)
		assert.Equal(t, op, toks[i].Op)
	}
}

func TestLexSkipsLineAndBlockComments(t *testing.T) {
	toks := allTokens(t, "int a; // trailing\n/* block\ncomment */ int b;")
	var kinds []Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	assert.Equal(t, []Kind{Keyword, Ident, Operator, Keyword, Ident, Operator}, kinds)
}

func TestLexerPeekDoesNotConsume(t *testing.T) {
	lx := New(strings.NewReader("int x"), "test.tin")
	peeked, err := lx.Peek()
	require.NoError(t, err)
	assert.Equal(t, "int", peeked.Text)

	next, err := lx.Next()
	require.NoError(t, err)
	assert.Equal(t, peeked, next)
}

func TestSyntaxErrorIncludesLocation(t *testing.T) {
	lx := New(strings.NewReader("\n\n  \"oops"), "bad.tin")
	_, err := lx.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.tin:3")
}
