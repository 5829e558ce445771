package bytecode

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

// valueCmp lets go-cmp compare types.Value, whose kind/i/f/vec fields are
// unexported but all individually comparable, making the whole struct
// comparable with ==.
var valueCmp = cmp.Comparer(func(a, b types.Value) bool { return a == b })

func sampleCodeblock() *Codeblock {
	cb := New(0xf00d, "sample.tin")
	cb.Checksum = 0xabcd1234
	cb.NameTable[types.HashName("health")] = "health"
	cb.NameTable[types.HashName("takeDamage")] = "takeDamage"

	cb.Constants = []types.Value{
		types.NewBool(true),
		types.NewInt32(-42),
		types.NewFloat(3.5),
		types.NewStringHash(types.HashName("boss")),
		types.NewObject(7),
		types.NewHashtable(3),
		types.NewVector3f(1, 2, 3),
	}

	fn := &symtab.Function{
		NameHash:        types.HashName("takeDamage"),
		NamespaceID:     types.HashName("Enemy"),
		Dispatch:        symtab.DispatchScript,
		CodeblockHandle: 0xf00d,
		EntryOffset:     12,
		NumLocals:       3,
		Location:        symtab.SourceLocation{FileHash: 0xf00d, Line: 4},
		Parameters: []symtab.Variable{
			{NameHash: types.HashName("__return"), Kind: types.Void},
			{NameHash: types.HashName("amount"), Kind: types.Int32, ArraySize: 1, Offset: 1, Flags: symtab.FlagParameter, ParamIndex: 0},
			{NameHash: types.HashName("knockback"), Kind: types.Float, ArraySize: 1, Offset: 2, Flags: symtab.FlagParameter, ParamIndex: 1},
		},
		Defaults: []types.Value{
			types.Nil,
			types.Nil,
			types.NewFloat(0.5),
		},
	}
	cb.Functions = []*symtab.Function{fn}

	cb.Bytecode = []uint32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13}

	cb.LineTable = []LineEntry{
		{Offset: 0, Line: 1},
		{Offset: 4, Line: 2},
		{Offset: 9, Line: 4},
	}
	cb.HasBreakableLines = true

	return cb
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	cb := sampleCodeblock()

	data, err := Marshal(cb)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)

	diff := cmp.Diff(cb, got, valueCmp, cmpopts.IgnoreFields(symtab.Function{}, "Thunk"))
	assert.Empty(t, diff)
}

func TestUnmarshalRejectsBadMagic(t *testing.T) {
	data, err := Marshal(sampleCodeblock())
	require.NoError(t, err)
	data[0] ^= 0xff

	_, err = Unmarshal(data)
	require.Error(t, err)
}

func TestUnmarshalRejectsVersionMismatch(t *testing.T) {
	data, err := Marshal(sampleCodeblock())
	require.NoError(t, err)

	// Version is the second little-endian uint32, right after the magic.
	data[4] = 0xff

	_, err = Unmarshal(data)
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestMarshalUnmarshalPreservesFunctionFrameSizing(t *testing.T) {
	cb := sampleCodeblock()
	data, err := Marshal(cb)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)

	require.Len(t, got.Functions, 1)
	assert.Equal(t, cb.Functions[0].NumLocals, got.Functions[0].NumLocals)
	require.Len(t, got.Functions[0].Parameters, 3)
	assert.Equal(t, cb.Functions[0].Parameters[1].Offset, got.Functions[0].Parameters[1].Offset)
	assert.Equal(t, cb.Functions[0].Parameters[2].Offset, got.Functions[0].Parameters[2].Offset)
}

func TestMarshalUnmarshalEmptyCodeblock(t *testing.T) {
	cb := New(1, "empty.tin")

	data, err := Marshal(cb)
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)

	diff := cmp.Diff(cb, got, valueCmp, cmpopts.IgnoreFields(symtab.Function{}, "Thunk"))
	assert.Empty(t, diff)
}
