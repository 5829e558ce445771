package objects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

func declareClass(t *testing.T, reg *symtab.Registry, name string, parent uint32, members ...string) uint32 {
	t.Helper()
	hash := types.HashName(name)
	ns := symtab.NewNamespace(hash, parent)
	for i, m := range members {
		require.True(t, ns.Members.Declare(symtab.Variable{NameHash: types.HashName(m), Kind: types.Int32, ArraySize: 1, Offset: i}))
	}
	require.True(t, reg.Declare(ns))
	return hash
}

func TestAllocateAssignsSequentialIDs(t *testing.T) {
	reg := symtab.NewRegistry()
	classHash := declareClass(t, reg, "Widget", 0)
	repo := NewRepository(reg)

	a, err := repo.Allocate(classHash, 0, "")
	require.NoError(t, err)
	b, err := repo.Allocate(classHash, 0, "")
	require.NoError(t, err)

	assert.Equal(t, uint32(1), a.ID)
	assert.Equal(t, uint32(2), b.ID)
}

func TestAllocateUnknownClassErrors(t *testing.T) {
	reg := symtab.NewRegistry()
	repo := NewRepository(reg)
	_, err := repo.Allocate(0xdeadbeef, 0, "")
	require.Error(t, err)
}

func TestByIDReturnsFalseForDestroyedInstance(t *testing.T) {
	reg := symtab.NewRegistry()
	classHash := declareClass(t, reg, "Widget", 0)
	repo := NewRepository(reg)
	inst, err := repo.Allocate(classHash, 0, "")
	require.NoError(t, err)

	_, ok := repo.ByID(inst.ID)
	require.True(t, ok)

	repo.Destroy(inst)
	_, ok = repo.ByID(inst.ID)
	assert.False(t, ok)
}

func TestByIDRejectsZero(t *testing.T) {
	reg := symtab.NewRegistry()
	repo := NewRepository(reg)
	_, ok := repo.ByID(0)
	assert.False(t, ok)
}

func TestByHostAddressAndByNameLookups(t *testing.T) {
	reg := symtab.NewRegistry()
	classHash := declareClass(t, reg, "Widget", 0)
	repo := NewRepository(reg)
	inst, err := repo.Allocate(classHash, 0xcafe, "player1")
	require.NoError(t, err)

	byAddr, ok := repo.ByHostAddress(0xcafe)
	require.True(t, ok)
	assert.Equal(t, inst.ID, byAddr.ID)

	byName, ok := repo.ByName("player1")
	require.True(t, ok)
	assert.Equal(t, inst.ID, byName.ID)
}

func TestGetSetMemberOnSingleClass(t *testing.T) {
	reg := symtab.NewRegistry()
	classHash := declareClass(t, reg, "Widget", 0, "health")
	repo := NewRepository(reg)
	inst, err := repo.Allocate(classHash, 0, "")
	require.NoError(t, err)

	ok := repo.SetMember(inst, types.HashName("health"), types.NewInt32(100))
	require.True(t, ok)

	v, ok := repo.GetMember(inst, types.HashName("health"))
	require.True(t, ok)
	assert.Equal(t, types.NewInt32(100), v)
}

func TestGetMemberUnknownNameFails(t *testing.T) {
	reg := symtab.NewRegistry()
	classHash := declareClass(t, reg, "Widget", 0, "health")
	repo := NewRepository(reg)
	inst, err := repo.Allocate(classHash, 0, "")
	require.NoError(t, err)

	_, ok := repo.GetMember(inst, types.HashName("nonexistent"))
	assert.False(t, ok)
}

func TestInheritedMembersLayoutRootFirst(t *testing.T) {
	reg := symtab.NewRegistry()
	baseHash := declareClass(t, reg, "Base", 0, "hp")
	derivedHash := declareClass(t, reg, "Derived", baseHash, "shield")
	repo := NewRepository(reg)

	inst, err := repo.Allocate(derivedHash, 0, "")
	require.NoError(t, err)
	require.Len(t, inst.Members, 2)

	require.True(t, repo.SetMember(inst, types.HashName("hp"), types.NewInt32(10)))
	require.True(t, repo.SetMember(inst, types.HashName("shield"), types.NewInt32(5)))
	assert.Equal(t, types.NewInt32(10), inst.Members[0])
	assert.Equal(t, types.NewInt32(5), inst.Members[1])

	hp, ok := repo.GetMember(inst, types.HashName("hp"))
	require.True(t, ok)
	assert.Equal(t, types.NewInt32(10), hp)

	shield, ok := repo.GetMember(inst, types.HashName("shield"))
	require.True(t, ok)
	assert.Equal(t, types.NewInt32(5), shield)
}

func TestEachVisitsEveryLiveInstance(t *testing.T) {
	reg := symtab.NewRegistry()
	classHash := declareClass(t, reg, "Widget", 0)
	repo := NewRepository(reg)
	first, err := repo.Allocate(classHash, 0, "")
	require.NoError(t, err)
	second, err := repo.Allocate(classHash, 0, "")
	require.NoError(t, err)

	seen := make(map[uint32]bool)
	repo.Each(func(inst *Instance) { seen[inst.ID] = true })
	assert.True(t, seen[first.ID])
	assert.True(t, seen[second.ID])
	assert.Len(t, seen, 2)
}

func TestHashtableArenaSetGetDelete(t *testing.T) {
	arena := NewHashtableArena()
	handle := arena.New()

	key := types.HashName("score")
	arena.Set(handle, key, types.NewInt32(42))

	v, ok := arena.Get(handle, key)
	require.True(t, ok)
	assert.Equal(t, types.NewInt32(42), v)
	assert.Equal(t, 1, arena.Len(handle))

	arena.Delete(handle, key)
	_, ok = arena.Get(handle, key)
	assert.False(t, ok)
	assert.Equal(t, 0, arena.Len(handle))
}

func TestHashtableArenaUnknownHandleMiss(t *testing.T) {
	arena := NewHashtableArena()
	_, ok := arena.Get(999, types.HashName("x"))
	assert.False(t, ok)
}

func TestHashtableArenaRelease(t *testing.T) {
	arena := NewHashtableArena()
	handle := arena.New()
	arena.Set(handle, types.HashName("k"), types.NewInt32(1))
	arena.Release(handle)
	assert.Equal(t, 0, arena.Len(handle))
}
