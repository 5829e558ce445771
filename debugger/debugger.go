package debugger

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

// stepMode records what continuation a yielded VM is waiting to resume
// into, per spec.md §4.9's Step/StepIn/StepOut/Continue commands.
type stepMode int

const (
	stepNone stepMode = iota
	stepOver
	stepInto
	stepOut
)

// Debugger implements vm.DebugHook: it is installed as a context's
// VM.Debug and drives the remote wire protocol described in spec.md §6.
// Grounded on the teacher's isolate.go panic-isolation idiom (adapted
// into evaluate.go's condition/trace evaluation) and io.go's vmDumper
// (adapted into dump.go's callstack/watch-scope rendering).
type Debugger struct {
	registry *symtab.Registry
	dispatch *types.Dispatch
	interned *types.InternTable
	objects  *objects.Repository
	store    *bytecode.Store

	mu          sync.Mutex
	connected   bool
	breaking    bool
	forceBreak  bool
	evaluating  bool
	mode        stepMode
	stepBaseDep int

	breakpoints *breakpointTable
	watches     *watchTable
	evalSeq     int

	resumeCh chan struct{}
	outCh    chan Notification
	writeSem *semaphore.Weighted
}

// New returns a Debugger wired to one context's shared components. Install
// it as a VM's Debug field, and call Serve once per accepted connection.
func New(reg *symtab.Registry, dispatch *types.Dispatch, interned *types.InternTable, objRepo *objects.Repository, store *bytecode.Store) *Debugger {
	return &Debugger{
		registry:    reg,
		dispatch:    dispatch,
		interned:    interned,
		objects:     objRepo,
		store:       store,
		breakpoints: newBreakpointTable(),
		watches:     newWatchTable(),
		resumeCh:    make(chan struct{}, 1),
		outCh:       make(chan Notification, 256),
		writeSem:    semaphore.NewWeighted(1),
	}
}

// NotifyCodeblockLoaded queues the notification spec.md §6 requires when a
// file is (re)compiled into the store, regardless of connection state. It
// waits in outCh until a Serve writer sends it; enqueue drops it only when
// outCh's 256-entry buffer is already full.
func (d *Debugger) NotifyCodeblockLoaded(cb *bytecode.Codeblock) {
	d.enqueue(Notification{Name: "NotifyCodeblockLoaded", Args: []string{cb.FileName}})
}

func (d *Debugger) enqueue(n Notification) {
	select {
	case d.outCh <- n:
	default:
		// Drop rather than block the VM thread if nothing is reading; a
		// slow or absent debugger client must never stall execution.
	}
}

// ShouldYield is polled once per instruction from the VM's dispatch loop
// (spec.md §4.9's requirement that the check be cheap). It reports
// whether step() must enter the blocking PollAndApply wait.
func (d *Debugger) ShouldYield(fileHash uint32, line int, frameDepth int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected || d.evaluating {
		return false
	}
	if d.forceBreak {
		return true
	}
	switch d.mode {
	case stepInto:
		return true
	case stepOver:
		if frameDepth <= d.stepBaseDep {
			return true
		}
	case stepOut:
		if frameDepth < d.stepBaseDep {
			return true
		}
	}
	if bp, ok := d.breakpoints.Lookup(fileHash, line); ok && bp.Enabled {
		return true
	}
	return false
}

// PollAndApply runs on the VM's own goroutine once ShouldYield has
// reported true. It resolves which breakpoint/step condition fired,
// renders and enqueues the callstack/watch notifications, then blocks
// until a resume-class command arrives on resumeCh, applying it and
// returning true to let the dispatch loop continue.
func (d *Debugger) PollAndApply(v *vm.VM) bool {
	d.mu.Lock()
	f := v.CaptureFrames()
	var line int
	var fileHash uint32
	if len(f) > 0 {
		line, fileHash = f[0].Line, f[0].FileHash
	}
	bp, hasBP := d.breakpoints.Lookup(fileHash, line)
	d.mu.Unlock()

	if hasBP {
		if bp.condFn == nil && bp.Condition != "" {
			bp.condFn, _ = d.compileEval(types.Bool, bp.Condition)
		}
		if !d.evalCondition(v, bp.condFn) {
			return true // condition false: do not actually break, keep running
		}
		if bp.Trace != "" && (!bp.TraceOnCond || bp.condFn != nil) {
			if bp.traceFn == nil {
				bp.traceFn, _ = d.compileEval(types.String, bp.Trace)
			}
			msg := d.evalTrace(v, bp.traceFn)
			d.enqueue(Notification{Name: "NotifyAssert", Args: []string{msg}})
		}
		d.enqueue(Notification{Name: "NotifyBreakpointHit", Args: []string{d.fileName(fileHash), strconv.Itoa(line)}})
	}

	d.mu.Lock()
	d.breaking = true
	d.mode = stepNone // the triggering step/breakpoint has fired; a fresh command re-arms it
	d.mu.Unlock()
	d.enqueue(d.callstackNotification(v))
	for _, n := range d.watchScope(v) {
		d.enqueue(n)
	}

	<-d.resumeCh

	d.mu.Lock()
	d.breaking = false
	d.forceBreak = false
	d.stepBaseDep = len(v.CaptureFrames())
	d.mu.Unlock()
	return true
}

// Serve drains r for one command per line and writes outCh notifications
// to w until r is exhausted or ctx is cancelled, per spec.md §6's
// text-framed wire protocol. The reader and writer run as an errgroup
// pair so either side's failure tears down both.
func (d *Debugger) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer cancel() // r exhausted: stop the writer too
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			cmd, err := ParseCommand(sc.Text())
			if err != nil {
				continue
			}
			d.handleCommand(cmd)
		}
		d.mu.Lock()
		d.connected = false
		d.mu.Unlock()
		select {
		case d.resumeCh <- struct{}{}: // unstick a pending break on disconnect
		default:
		}
		return sc.Err()
	})

	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case n, ok := <-d.outCh:
				if !ok {
					return nil
				}
				if err := d.writeSem.Acquire(ctx, 1); err != nil {
					return err
				}
				_, err := io.WriteString(w, n.Encode()+"\n")
				d.writeSem.Release(1)
				if err != nil {
					return err
				}
			}
		}
	})

	return eg.Wait()
}

func (d *Debugger) handleCommand(cmd Command) {
	switch cmd.Name {
	case "DebuggerSetConnected":
		connected, _ := cmd.ArgBool(0)
		d.mu.Lock()
		d.connected = connected
		d.mu.Unlock()

	case "DebuggerAddBreakpoint":
		file := cmd.ArgString(0)
		line, _ := cmd.ArgInt(1)
		enabled, _ := cmd.ArgBool(2)
		condition := cmd.ArgString(3)
		trace := cmd.ArgString(4)
		traceOnCond, _ := cmd.ArgBool(5)
		cb, ok := d.store.Get(types.HashName(file))
		if !ok {
			return
		}
		d.mu.Lock()
		resolved, ok := d.breakpoints.Add(cb, line, enabled, condition, trace, traceOnCond)
		d.mu.Unlock()
		if ok {
			d.enqueue(Notification{Name: "NotifyBreakpointHit", Args: []string{file, strconv.Itoa(resolved)}})
		}

	case "DebuggerRemoveBreakpoint":
		file := cmd.ArgString(0)
		line, _ := cmd.ArgInt(1)
		cb, ok := d.store.Get(types.HashName(file))
		if !ok {
			return
		}
		d.mu.Lock()
		d.breakpoints.Remove(cb, line)
		d.mu.Unlock()

	case "DebuggerToggleVarWatch":
		reqID, _ := cmd.ArgUint32(0)
		objID, _ := cmd.ArgUint32(1)
		nameHash, _ := cmd.ArgUint32(2)
		enabled, _ := cmd.ArgBool(3)
		condition := cmd.ArgString(4)
		trace := cmd.ArgString(5)
		traceOnCond, _ := cmd.ArgBool(6)
		d.mu.Lock()
		d.watches.Toggle(reqID, objID, nameHash, enabled, condition, trace, traceOnCond)
		d.mu.Unlock()

	case "DebuggerStep":
		d.resume(stepOver)
	case "DebuggerStepIn":
		d.resume(stepInto)
	case "DebuggerStepOut":
		d.resume(stepOut)
	case "DebuggerContinue":
		d.resume(stepNone)
	case "DebuggerBreak":
		d.mu.Lock()
		d.forceBreak = true
		d.mu.Unlock()
	}
}

// resume arms the next step mode and, if the VM is currently yielded,
// signals PollAndApply to return.
func (d *Debugger) resume(mode stepMode) {
	d.mu.Lock()
	d.mode = mode
	breaking := d.breaking
	d.mu.Unlock()
	if breaking {
		select {
		case d.resumeCh <- struct{}{}:
		default:
		}
	}
}
