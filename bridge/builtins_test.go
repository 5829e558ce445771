package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

func TestRegisterBuiltinsPrintFormatsEveryKind(t *testing.T) {
	b := newTestBridge(t)
	require.NoError(t, b.RegisterBuiltins())

	var messages []string
	b.VM.Print = func(severity, message string) { messages = append(messages, message) }

	hash := b.Interned.InternPermanent("boss")

	_, err := b.ExecFunction("Print", types.NewInt32(25))
	require.NoError(t, err)
	_, err = b.ExecFunction("Print", types.NewStringHash(hash))
	require.NoError(t, err)
	_, err = b.ExecFunction("Print", types.NewBool(true))
	require.NoError(t, err)

	assert.Equal(t, []string{"25", "boss", "true"}, messages)
}

func TestRegisterBuiltinsAssertPassesSilently(t *testing.T) {
	b := newTestBridge(t)
	require.NoError(t, b.RegisterBuiltins())

	var assertCalled bool
	b.VM.Assert = func(string) vm.AssertDisposition {
		assertCalled = true
		return vm.AssertUnwind
	}

	_, err := b.ExecFunction("assert", types.NewBool(true), types.NewStringHash(b.Interned.InternPermanent("should not fire")))
	require.NoError(t, err)
	assert.False(t, assertCalled)
}

func TestRegisterBuiltinsAssertUnwindsOnFailure(t *testing.T) {
	b := newTestBridge(t)
	require.NoError(t, b.RegisterBuiltins())
	b.VM.Assert = func(string) vm.AssertDisposition { return vm.AssertUnwind }

	_, err := b.ExecFunction("assert", types.NewBool(false), types.NewStringHash(b.Interned.InternPermanent("boom")))
	require.Error(t, err)
	var af *vm.AssertFailure
	require.ErrorAs(t, err, &af)
	assert.Equal(t, "boom", af.Message)
}

func TestRegisterBuiltinsAssertSkipSwallowsFailure(t *testing.T) {
	b := newTestBridge(t)
	require.NoError(t, b.RegisterBuiltins())
	b.VM.Assert = func(string) vm.AssertDisposition { return vm.AssertSkip }

	_, err := b.ExecFunction("assert", types.NewBool(false), types.NewStringHash(b.Interned.InternPermanent("boom")))
	require.NoError(t, err)
}
