package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	reg := symtab.NewRegistry()
	dispatch := types.NewDispatch()
	interned := types.NewInternTable()
	objRepo := objects.NewRepository(reg)
	ht := objects.NewHashtableArena()
	store := bytecode.NewStore(nil)
	v := vm.New(reg, dispatch, interned, objRepo, ht, store)
	return New(reg, interned, objRepo, v)
}

func TestRegisterFunctionAndExecFunction(t *testing.T) {
	b := newTestBridge(t)

	_, err := b.RegisterFunction2(nil, "add", types.Int32,
		ParamSpec{Name: "a", Kind: types.Int32},
		ParamSpec{Name: "b", Kind: types.Int32},
		func(recv uint32, a, bv types.Value) (types.Value, error) {
			return types.NewInt32(a.AsInt32() + bv.AsInt32()), nil
		})
	require.NoError(t, err)

	result, err := b.ExecFunction("add", types.NewInt32(2), types.NewInt32(3))
	require.NoError(t, err)
	assert.Equal(t, int32(5), result.AsInt32())
}

func TestRegisterFunctionDuplicateErrors(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.RegisterFunction0(nil, "ping", types.Void, func(uint32) (types.Value, error) { return types.Nil, nil })
	require.NoError(t, err)
	_, err = b.RegisterFunction0(nil, "ping", types.Void, func(uint32) (types.Value, error) { return types.Nil, nil })
	assert.Error(t, err)
}

func TestRegisterClassAndObjExecMethod(t *testing.T) {
	b := newTestBridge(t)
	ns, err := b.RegisterClass("Widget", "")
	require.NoError(t, err)

	var sawReceiver uint32
	_, err = b.RegisterMethod(ns, "bump", types.Int32, nil, func(recv uint32, args []types.Value) (types.Value, error) {
		sawReceiver = recv
		return types.NewInt32(1), nil
	})
	require.NoError(t, err)

	inst, err := b.RegisterObject("Widget", 0, "w1")
	require.NoError(t, err)

	result, err := b.ObjExecMethod(inst, "bump")
	require.NoError(t, err)
	assert.Equal(t, int32(1), result.AsInt32())
	assert.Equal(t, inst.ID, sawReceiver)
}

func TestEventDispatcherFansOutToAllHandlers(t *testing.T) {
	b := newTestBridge(t)
	var calls []string

	_, err := b.RegisterFunction0(nil, "onFoo1", types.Void, func(uint32) (types.Value, error) {
		calls = append(calls, "onFoo1")
		return types.Nil, nil
	})
	require.NoError(t, err)
	_, err = b.RegisterFunction0(nil, "onFoo2", types.Void, func(uint32) (types.Value, error) {
		calls = append(calls, "onFoo2")
		return types.Nil, nil
	})
	require.NoError(t, err)

	d := NewEventDispatcher(b)
	d.On("foo", "onFoo1")
	d.On("foo", "onFoo2")

	require.NoError(t, d.Dispatch("foo"))
	assert.Equal(t, []string{"onFoo1", "onFoo2"}, calls)
}
