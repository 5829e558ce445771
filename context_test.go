package tinscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

func TestExecCommandRunsTopLevelCode(t *testing.T) {
	var prints []string
	ctx := CreateContext(func(severity, message string) {
		prints = append(prints, severity+": "+message)
	}, nil)
	defer ctx.DestroyContext()

	err := ctx.ExecCommand("int x = 1 + 2;")
	require.NoError(t, err)

	val, ok := ctx.VM.GlobalByNameHash(types.HashName("x"))
	require.True(t, ok)
	assert.Equal(t, int32(3), val.AsInt32())
}

func TestExecCommandTwiceUsesDistinctSyntheticNames(t *testing.T) {
	ctx := CreateContext(nil, nil)
	defer ctx.DestroyContext()

	require.NoError(t, ctx.ExecCommand("int a = 1;"))
	require.NoError(t, ctx.ExecCommand("int b = 2;"))

	_, ok := ctx.VM.GlobalByNameHash(types.HashName("a"))
	assert.True(t, ok)
	_, ok = ctx.VM.GlobalByNameHash(types.HashName("b"))
	assert.True(t, ok)
}

func TestRegisterFunction0IsCallableFromScript(t *testing.T) {
	ctx := CreateContext(nil, nil)
	defer ctx.DestroyContext()

	called := false
	_, err := ctx.RegisterFunction0(nil, "host_ping", types.Void, func(receiver uint32) (types.Value, error) {
		called = true
		return types.Nil, nil
	})
	require.NoError(t, err)

	require.NoError(t, ctx.ExecCommand("host_ping();"))
	assert.True(t, called)
}

func TestExecFunctionInvokesScriptFunction(t *testing.T) {
	ctx := CreateContext(nil, nil)
	defer ctx.DestroyContext()

	require.NoError(t, ctx.ExecCommand("int doubled(int n) { return n * 2; }"))

	result, err := ctx.ExecFunction("doubled", types.NewInt32(21))
	require.NoError(t, err)
	assert.Equal(t, int32(42), result.AsInt32())
}

func TestUpdateContextTicksScheduledCall(t *testing.T) {
	ctx := CreateContext(nil, nil)
	defer ctx.DestroyContext()

	require.NoError(t, ctx.ExecCommand("int ran = 0; int mark() { ran = 1; return 0; }"))
	ctx.VM.Scheduler.Schedule(0, 0, types.HashName("mark"), nil, false)

	require.NoError(t, ctx.UpdateContext(0))

	val, ok := ctx.VM.GlobalByNameHash(types.HashName("ran"))
	require.True(t, ok)
	assert.Equal(t, int32(1), val.AsInt32())
}

func TestWithMaxOperandStackAppliesToVM(t *testing.T) {
	ctx := CreateContext(nil, nil, WithMaxOperandStack(4), WithMaxFrameDepth(8))
	defer ctx.DestroyContext()
	require.NotNil(t, ctx.VM)
	// Five operands are live at once before the innermost addition runs.
	assert.Error(t, ctx.ExecCommand("int a = 1; int deep = a + (a + (a + (a + a)));"))
}

func TestWithDebugListenerInstallsDebugHook(t *testing.T) {
	ctx := CreateContext(nil, nil, WithDebugListener(true))
	defer ctx.DestroyContext()
	require.NotNil(t, ctx.Debugger)
	assert.Same(t, ctx.Debugger, ctx.VM.Debug)
}

func TestOnEventDispatchesToScriptHandler(t *testing.T) {
	ctx := CreateContext(nil, nil)
	defer ctx.DestroyContext()

	require.NoError(t, ctx.ExecCommand("int seen = 0; int onTick() { seen = 1; return 0; }"))
	ctx.OnEvent("tick", "onTick")

	require.NoError(t, ctx.DispatchEvent("tick"))

	val, ok := ctx.VM.GlobalByNameHash(types.HashName("seen"))
	require.True(t, ok)
	assert.Equal(t, int32(1), val.AsInt32())
}

func TestPrintBuiltinFormatsScriptValues(t *testing.T) {
	var prints []string
	ctx := CreateContext(func(severity, message string) { prints = append(prints, message) }, nil)
	defer ctx.DestroyContext()

	require.NoError(t, ctx.ExecCommand(`int a = 3; int b = 4; Print(a*a + b*b);`))
	require.NoError(t, ctx.ExecCommand(`int x = 10; if (x > 5) Print("big"); else Print("small");`))

	assert.Equal(t, []string{"25", "big"}, prints)
}

func TestPrintBuiltinInsideFunctionDefaultArgs(t *testing.T) {
	var prints []string
	ctx := CreateContext(func(severity, message string) { prints = append(prints, message) }, nil)
	defer ctx.DestroyContext()

	require.NoError(t, ctx.ExecCommand(`
		int add(int a, int b = 7) { return a + b; }
		Print(add(3));
		Print(add(3, 4));
	`))

	assert.Equal(t, []string{"10", "7"}, prints)
}

func TestAssertBuiltinUnwindsAsRuntimeError(t *testing.T) {
	ctx := CreateContext(nil, func(string) vm.AssertDisposition { return vm.AssertUnwind })
	defer ctx.DestroyContext()

	err := ctx.ExecCommand(`assert(1 == 2, "one is not two");`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "one is not two")
}

func TestRegisterClassAndObjectRoundTrips(t *testing.T) {
	ctx := CreateContext(nil, nil)
	defer ctx.DestroyContext()

	ns, err := ctx.RegisterClass("Widget", "")
	require.NoError(t, err)
	require.NotNil(t, ns)

	inst, err := ctx.RegisterObject("Widget", 0xdead, "w1")
	require.NoError(t, err)
	assert.Equal(t, "w1", inst.Name)
}
