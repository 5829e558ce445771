package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
)

type recordingTarget struct {
	calls []uint32
	err   error
}

func (r *recordingTarget) ExecScheduledFunction(recv *objects.Instance, fnNameHash uint32, args []types.Value) (types.Value, error) {
	if r.err != nil {
		return types.Nil, r.err
	}
	r.calls = append(r.calls, fnNameHash)
	return types.Nil, nil
}

func TestScheduleFiresInOrder(t *testing.T) {
	reg := symtab.NewRegistry()
	s := New(objects.NewRepository(reg))
	target := &recordingTarget{}

	s.Schedule(50, 0, 1, nil, false)
	s.Schedule(10, 0, 2, nil, false)
	s.Schedule(10, 0, 3, nil, false) // same fire time as #2, must fire after it (insertion order)

	require.NoError(t, s.Tick(0, target))
	assert.Empty(t, target.calls, "nothing due yet")

	require.NoError(t, s.Tick(10, target))
	assert.Equal(t, []uint32{2, 3}, target.calls)

	require.NoError(t, s.Tick(50, target))
	assert.Equal(t, []uint32{2, 3, 1}, target.calls)
}

func TestCancelSkipsEntry(t *testing.T) {
	reg := symtab.NewRegistry()
	s := New(objects.NewRepository(reg))
	target := &recordingTarget{}

	id := s.Schedule(10, 0, 7, nil, false)
	assert.True(t, s.Cancel(id))
	assert.False(t, s.Cancel(id), "cancelling twice reports not-found")

	require.NoError(t, s.Tick(10, target))
	assert.Empty(t, target.calls)
}

func TestRepeatingEntryReschedules(t *testing.T) {
	reg := symtab.NewRegistry()
	s := New(objects.NewRepository(reg))
	target := &recordingTarget{}

	s.Schedule(10, 0, 9, nil, true)

	require.NoError(t, s.Tick(10, target))
	assert.Equal(t, []uint32{9}, target.calls)
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.Tick(20, target))
	assert.Equal(t, []uint32{9, 9}, target.calls)
}

type failOnceTarget struct {
	calls  []uint32
	failOn uint32
}

func (f *failOnceTarget) ExecScheduledFunction(recv *objects.Instance, fnNameHash uint32, args []types.Value) (types.Value, error) {
	if fnNameHash == f.failOn {
		return types.Nil, errors.New("boom")
	}
	f.calls = append(f.calls, fnNameHash)
	return types.Nil, nil
}

func TestTickIsolatesEntryErrors(t *testing.T) {
	reg := symtab.NewRegistry()
	s := New(objects.NewRepository(reg))
	target := &failOnceTarget{failOn: 2}

	var reported []error
	s.OnError = func(err error) { reported = append(reported, err) }

	s.Schedule(0, 0, 1, nil, false)
	s.Schedule(0, 0, 2, nil, false) // fails, must not block entry 3
	s.Schedule(0, 0, 3, nil, false)

	require.NoError(t, s.Tick(0, target))
	assert.Equal(t, []uint32{1, 3}, target.calls)
	require.Len(t, reported, 1)
	assert.Contains(t, reported[0].Error(), "boom")
}
