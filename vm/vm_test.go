package vm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/compiler"
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// testVM wires up a full leaf-to-vm stack the way tinscript.CreateContext
// does, minus the bridge/scheduler/debugger layers this package does not
// depend on.
type testVM struct {
	reg   *symtab.Registry
	store *bytecode.Store
	vm    *VM
}

func newTestVM(opts ...Option) *testVM {
	reg := symtab.NewRegistry()
	dispatch := types.NewDispatch()
	interned := types.NewInternTable()
	objRepo := objects.NewRepository(reg)
	ht := objects.NewHashtableArena()

	c := compiler.New(reg, dispatch)
	store := bytecode.NewStore(c.AsCompileFunc())
	v := New(reg, dispatch, interned, objRepo, ht, store, opts...)
	return &testVM{reg: reg, store: store, vm: v}
}

func (tv *testVM) run(t *testing.T, src string) *bytecode.Codeblock {
	t.Helper()
	cb, err := tv.store.LoadSource("test.tin", []byte(src))
	require.NoError(t, err)
	require.NoError(t, tv.vm.ExecuteCodeBlock(cb))
	return cb
}

func (tv *testVM) call(t *testing.T, name string, args ...types.Value) types.Value {
	t.Helper()
	fn, ok := tv.reg.Global().Functions.Lookup(types.HashName(name))
	require.True(t, ok, "function %q not declared", name)
	result, err := tv.vm.ExecuteFunction(fn, args, nil)
	require.NoError(t, err)
	return result
}

func TestExecuteCodeBlockInitializesGlobals(t *testing.T) {
	tv := newTestVM()
	tv.run(t, `
		int total = 1 + 2 * 3;
		int getTotal() { return total; }
	`)
	assert.Equal(t, types.NewInt32(7), tv.call(t, "getTotal"))
}

func TestExecuteFunctionWithParametersAndDefault(t *testing.T) {
	tv := newTestVM()
	tv.run(t, `
		int add(int a, int b = 10) { return a + b; }
	`)
	assert.Equal(t, types.NewInt32(3), tv.call(t, "add", types.NewInt32(1), types.NewInt32(2)))
	assert.Equal(t, types.NewInt32(11), tv.call(t, "add", types.NewInt32(1)))
}

func TestExecuteFunctionRecursion(t *testing.T) {
	tv := newTestVM()
	tv.run(t, `
		int fact(int n) {
			if (n <= 1) { return 1; }
			return n * fact(n - 1);
		}
	`)
	assert.Equal(t, types.NewInt32(120), tv.call(t, "fact", types.NewInt32(5)))
}

func TestExecuteFunctionWhileLoop(t *testing.T) {
	tv := newTestVM()
	tv.run(t, `
		int sumTo(int n) {
			int total = 0;
			int i = 1;
			while (i <= n) {
				total += i;
				i += 1;
			}
			return total;
		}
	`)
	assert.Equal(t, types.NewInt32(55), tv.call(t, "sumTo", types.NewInt32(10)))
}

func TestExecuteFunctionArityErrorWrapsIntoRuntimeError(t *testing.T) {
	tv := newTestVM()
	tv.run(t, `int needsOne(int a) { return a; }`)
	fn, ok := tv.reg.Global().Functions.Lookup(types.HashName("needsOne"))
	require.True(t, ok)
	_, err := tv.vm.ExecuteFunction(fn, nil, nil)
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	var ae *ArityError
	require.ErrorAs(t, re.Cause, &ae)
}

func TestStackOverflowOnUnboundedRecursion(t *testing.T) {
	tv := newTestVM(WithMaxFrameDepth(8))
	tv.run(t, `
		int loop(int n) { return loop(n + 1); }
	`)
	fn, ok := tv.reg.Global().Functions.Lookup(types.HashName("loop"))
	require.True(t, ok)
	_, err := tv.vm.ExecuteFunction(fn, []types.Value{types.NewInt32(0)}, nil)
	require.Error(t, err)
	var re *RuntimeError
	require.ErrorAs(t, err, &re)
	var so *StackOverflow
	require.ErrorAs(t, re.Cause, &so)
	assert.Equal(t, "frame", so.Which)
}

func TestObjectCreateAndMemberAccess(t *testing.T) {
	tv := newTestVM()
	tv.run(t, `
		class Enemy {
			int health;
			void takeDamage(int amount) { health -= amount; }
		}
		object makeEnemy() {
			object e = create Enemy("boss");
			e.health = 100;
			return e;
		}
	`)
	enemy := tv.call(t, "makeEnemy")
	require.Equal(t, types.Object, enemy.Kind())

	inst, ok := tv.vm.Objects.ByID(enemy.AsObjectID())
	require.True(t, ok)
	health, ok := tv.vm.Objects.GetMember(inst, types.HashName("health"))
	require.True(t, ok)
	assert.Equal(t, types.NewInt32(100), health)
}

func TestSwitchStatementDispatchesCase(t *testing.T) {
	tv := newTestVM()
	tv.run(t, `
		int classify(int n) {
			int result = -1;
			switch (n) {
			case 1:
				result = 10;
				break;
			case 2:
				result = 20;
				break;
			default:
				result = 0;
				break;
			}
			return result;
		}
	`)
	assert.Equal(t, types.NewInt32(10), tv.call(t, "classify", types.NewInt32(1)))
	assert.Equal(t, types.NewInt32(20), tv.call(t, "classify", types.NewInt32(2)))
	assert.Equal(t, types.NewInt32(0), tv.call(t, "classify", types.NewInt32(99)))
}

func TestHashtableIndexAssignmentAndRead(t *testing.T) {
	tv := newTestVM()
	tv.run(t, `
		hashtable scores;
		int recordAndFetch() {
			scores["alice"] = 42;
			return scores["alice"];
		}
	`)
	assert.Equal(t, types.NewInt32(42), tv.call(t, "recordAndFetch"))
}

func TestUnchangedSourceReusesCachedCodeblock(t *testing.T) {
	tv := newTestVM()
	first, err := tv.store.LoadSource("a.tin", []byte("int version() { return 1; }"))
	require.NoError(t, err)
	require.NoError(t, tv.vm.ExecuteCodeBlock(first))
	assert.Equal(t, types.NewInt32(1), tv.call(t, "version"))

	second, err := tv.store.LoadSource("a.tin", []byte("int version() { return 1; }"))
	require.NoError(t, err)
	assert.Same(t, first, second, "unchanged source should reuse the cached codeblock")
}
