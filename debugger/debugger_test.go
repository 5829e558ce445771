package debugger

import (
	"bufio"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/compiler"
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

func TestParseCommandSplitsQuotedArgs(t *testing.T) {
	cmd, err := ParseCommand(`DebuggerAddBreakpoint "main.tin" 12 "true" "" "" "false"`)
	require.NoError(t, err)
	assert.Equal(t, "DebuggerAddBreakpoint", cmd.Name)
	assert.Equal(t, []string{"main.tin", "12", "true", "", "", "false"}, cmd.Args)
}

func TestParseCommandRejectsUnterminatedQuote(t *testing.T) {
	_, err := ParseCommand(`DebuggerStep "oops`)
	assert.Error(t, err)
}

func TestNotificationEncodeRoundTrips(t *testing.T) {
	n := Notification{Name: "NotifyAssert", Args: []string{`contains "quotes"`}}
	line := n.Encode()
	cmd, err := ParseCommand(line)
	require.NoError(t, err)
	assert.Equal(t, "NotifyAssert", cmd.Name)
	assert.Equal(t, []string{`contains "quotes"`}, cmd.Args)
}

func TestBreakpointTableResolvesToNextOccupiedLine(t *testing.T) {
	cb := &bytecode.Codeblock{
		FileHash: 1, FileName: "main.tin",
		LineTable: []bytecode.LineEntry{{Offset: 0, Line: 3}, {Offset: 4, Line: 7}},
	}
	tbl := newBreakpointTable()
	line, ok := tbl.Add(cb, 5, true, "", "", false)
	require.True(t, ok)
	assert.Equal(t, 7, line)

	_, ok = tbl.Lookup(cb.FileHash, 7)
	assert.True(t, ok)

	tbl.Remove(cb, 5)
	_, ok = tbl.Lookup(cb.FileHash, 7)
	assert.False(t, ok)
}

func TestWatchTableToggle(t *testing.T) {
	tbl := newWatchTable()
	tbl.Toggle(1, 0, 42, true, "", "", false)
	assert.Equal(t, 1, tbl.Len())
	tbl.Toggle(1, 0, 42, false, "", "", false)
	assert.Equal(t, 0, tbl.Len())
}

type testContext struct {
	reg      *symtab.Registry
	dispatch *types.Dispatch
	interned *types.InternTable
	objects  *objects.Repository
	store    *bytecode.Store
	vm       *vm.VM
	dbg      *Debugger
}

func newTestContext(t *testing.T) *testContext {
	t.Helper()
	reg := symtab.NewRegistry()
	dispatch := types.NewDispatch()
	interned := types.NewInternTable()
	objRepo := objects.NewRepository(reg)
	ht := objects.NewHashtableArena()
	c := compiler.New(reg, dispatch)
	store := bytecode.NewStore(c.AsCompileFunc())
	v := vm.New(reg, dispatch, interned, objRepo, ht, store)
	dbg := New(reg, dispatch, interned, objRepo, store)
	v.Debug = dbg
	return &testContext{reg: reg, dispatch: dispatch, interned: interned, objects: objRepo, store: store, vm: v, dbg: dbg}
}

// TestDebuggerBreaksAndResumesOnContinue exercises the end-to-end path: a
// breakpoint installed on a loaded file halts the VM's dispatch loop, and
// a DebuggerContinue command lets it finish.
func TestDebuggerBreaksAndResumesOnContinue(t *testing.T) {
	tc := newTestContext(t)

	source := "int x = 1;\nint y = 2;\nint z = x + y;\n"
	cb, err := tc.store.LoadSource("main.tin", []byte(source))
	require.NoError(t, err)

	line, ok := tc.dbg.breakpoints.Add(cb, 2, true, "", "", false)
	require.True(t, ok)
	assert.Equal(t, 2, line)

	tc.dbg.mu.Lock()
	tc.dbg.connected = true
	tc.dbg.mu.Unlock()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer outR.Close()
	defer outW.Close()

	var serveErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		serveErr = tc.dbg.Serve(ctx, inR, outW)
	}()

	var execErr error
	execDone := make(chan struct{})
	go func() {
		execErr = tc.vm.ExecuteCodeBlock(cb)
		close(execDone)
	}()

	sc := bufio.NewScanner(outR)
	require.True(t, sc.Scan(), "expected a breakpoint notification")
	assert.Contains(t, sc.Text(), "NotifyBreakpointHit")
	go func() {
		for sc.Scan() {
		} // drain remaining notifications so the writer never blocks
	}()

	go func() {
		io.WriteString(inW, "DebuggerContinue\n")
	}()

	select {
	case <-execDone:
	case <-time.After(2 * time.Second):
		t.Fatal("VM never resumed after DebuggerContinue")
	}
	require.NoError(t, execErr)

	inW.Close()
	cancel()
	wg.Wait()
	_ = serveErr
}

func TestDebuggerAddBreakpointCommandEnqueuesNotification(t *testing.T) {
	tc := newTestContext(t)
	_, err := tc.store.LoadSource("f.tin", []byte("int a = 1;\n"))
	require.NoError(t, err)

	tc.dbg.handleCommand(Command{Name: "DebuggerAddBreakpoint", Args: []string{"f.tin", "1", "true", "", "", "false"}})

	select {
	case n := <-tc.dbg.outCh:
		assert.Equal(t, "NotifyBreakpointHit", n.Name)
	default:
		t.Fatal("expected a queued notification")
	}
}

func TestSplitArgsHandlesEscapedQuotes(t *testing.T) {
	args, err := splitArgs(`cmd "a\"b" plain`)
	require.NoError(t, err)
	assert.Equal(t, []string{"cmd", `a"b`, "plain"}, args)
}
