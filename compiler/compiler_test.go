package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

func newCompiler() *Compiler {
	return New(symtab.NewRegistry(), types.NewDispatch())
}

func TestCompileGlobalVarDeclAssignsOffsets(t *testing.T) {
	c := newCompiler()
	cb, err := c.Compile(1, "a.tin", []byte("int x = 1; int y = 2;"))
	require.NoError(t, err)
	require.NotNil(t, cb)

	xHash := types.HashName("x")
	yHash := types.HashName("y")
	xv, ok := c.Registry.Global().Members.Lookup(xHash)
	require.True(t, ok)
	yv, ok := c.Registry.Global().Members.Lookup(yHash)
	require.True(t, ok)
	assert.Equal(t, 0, xv.Offset)
	assert.Equal(t, 1, yv.Offset)
}

func TestCompileRedeclaredGlobalVarIsCompileError(t *testing.T) {
	c := newCompiler()
	_, err := c.Compile(1, "a.tin", []byte("int x = 1; int x = 2;"))
	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
}

func TestCompileFuncDeclRegistersFunction(t *testing.T) {
	c := newCompiler()
	cb, err := c.Compile(1, "a.tin", []byte("int doubled(int n) { return n * 2; }"))
	require.NoError(t, err)
	require.Len(t, cb.Functions, 1)

	fnHash := types.HashName("doubled")
	fn, ok := c.Registry.Global().Functions.Lookup(fnHash)
	require.True(t, ok)
	// Parameters[0] is the synthetic __return pseudo-parameter (spec.md §3),
	// so a one-parameter function has two entries.
	assert.Len(t, fn.Parameters, 2)
	assert.Equal(t, types.Int32, fn.Parameters[1].Kind)
}

func TestCompileRedeclaredFunctionIsCompileError(t *testing.T) {
	c := newCompiler()
	_, err := c.Compile(1, "a.tin", []byte("void f() {} void f() {}"))
	require.Error(t, err)
}

func TestCompileClassDeclaresNamespaceAndMembers(t *testing.T) {
	c := newCompiler()
	_, err := c.Compile(1, "a.tin", []byte(`
		class Enemy {
			int health;
			void takeDamage(int amount) { health -= amount; }
		}
	`))
	require.NoError(t, err)

	nsHash := types.HashName("Enemy")
	ns, ok := c.Registry.Lookup(nsHash)
	require.True(t, ok)

	healthHash := types.HashName("health")
	_, ok = ns.Members.Lookup(healthHash)
	require.True(t, ok)

	methodHash := types.HashName("takeDamage")
	_, ok = ns.Functions.Lookup(methodHash)
	require.True(t, ok)
}

func TestCompileClassInheritsParentHash(t *testing.T) {
	c := newCompiler()
	_, err := c.Compile(1, "a.tin", []byte(`
		class Base { int hp; }
		class Derived : Base { int shield; }
	`))
	require.NoError(t, err)

	baseHash := types.HashName("Base")
	derivedHash := types.HashName("Derived")
	ns, ok := c.Registry.Lookup(derivedHash)
	require.True(t, ok)
	assert.Equal(t, baseHash, ns.ParentHash)
}

func TestCompileConstantPoolDeduplicates(t *testing.T) {
	c := newCompiler()
	cb, err := c.Compile(1, "a.tin", []byte(`
		int a = 7;
		int b = 7;
	`))
	require.NoError(t, err)

	count := 0
	for _, v := range cb.Constants {
		if v == types.NewInt32(7) {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCompileNameTableRecordsDeclaredNames(t *testing.T) {
	c := newCompiler()
	cb, err := c.Compile(1, "a.tin", []byte("int counter = 0;"))
	require.NoError(t, err)
	assert.Equal(t, "counter", cb.NameTable[types.HashName("counter")])
}

func TestCompileFunctionDefaultParamMustBeConstant(t *testing.T) {
	c := newCompiler()
	_, err := c.Compile(1, "a.tin", []byte("int nonConstDefault; void f(int n = nonConstDefault) {}"))
	require.Error(t, err)
}

func TestCompileLineTableTracksSourceLines(t *testing.T) {
	c := newCompiler()
	cb, err := c.Compile(1, "a.tin", []byte("int a = 1;\nint b = 2;\n"))
	require.NoError(t, err)
	require.True(t, cb.HasBreakableLines)
	require.GreaterOrEqual(t, len(cb.LineTable), 2)
	assert.Equal(t, 1, cb.LineTable[0].Line)
	assert.Equal(t, 2, cb.LineTable[1].Line)
}

func TestCompileFuncBodyFallsThroughToImplicitReturn(t *testing.T) {
	c := newCompiler()
	cb, err := c.Compile(1, "a.tin", []byte("void noop() { }"))
	require.NoError(t, err)
	require.Len(t, cb.Functions, 1)
	fn := cb.Functions[0]
	require.GreaterOrEqual(t, len(cb.Bytecode), int(fn.EntryOffset)+2)
	assert.Equal(t, uint32(bytecode.OpPushNull), cb.Bytecode[fn.EntryOffset])
	assert.Equal(t, uint32(bytecode.OpReturn), cb.Bytecode[fn.EntryOffset+1])
}
