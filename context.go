package tinscript

import (
	"fmt"

	"github.com/tinscript/tinscript/bridge"
	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/compiler"
	"github.com/tinscript/tinscript/debugger"
	"github.com/tinscript/tinscript/internal/panicerr"
	"github.com/tinscript/tinscript/internal/rtlog"
	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/scheduler"
	"github.com/tinscript/tinscript/symtab"
	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

// Context is one independent script environment: its own symbol registry,
// operator dispatch table, interned-string table, object repository,
// codeblock store, VM, scheduler, and registration bridge, per spec.md §1
// "CreateContext... every other operation takes a context handle".
type Context struct {
	Registry  *symtab.Registry
	Dispatch  *types.Dispatch
	Interned  *types.InternTable
	Objects   *objects.Repository
	Store     *bytecode.Store
	VM        *vm.VM
	Scheduler *scheduler.Scheduler
	Bridge    *bridge.Bridge
	Events    *bridge.EventDispatcher
	Debugger  *debugger.Debugger

	log       *rtlog.Logger
	loader    bytecode.SourceLoader
	printSink *printSink

	vmOpts     []vm.Option
	withDbg    bool
	commandSeq int
}

// CreateContext allocates a fresh Context wired to printFn/assertFn, per
// spec.md §6 "CreateContext(print_fn, assert_fn)". Either callback may be
// nil; nil printFn discards script Print() output, nil assertFn treats
// every assert as AssertUnwind.
func CreateContext(printFn vm.PrintFunc, assertFn vm.AssertFunc, opts ...Option) *Context {
	ctx := &Context{loader: osLoader{}, log: rtlog.New(nil)}
	Options(opts...).apply(ctx)

	reg := symtab.NewRegistry()
	dispatch := types.NewDispatch()
	interned := types.NewInternTable()
	objRepo := objects.NewRepository(reg)
	hashtables := objects.NewHashtableArena()

	c := compiler.New(reg, dispatch)
	store := bytecode.NewStore(c.AsCompileFunc())

	v := vm.New(reg, dispatch, interned, objRepo, hashtables, store, ctx.vmOpts...)
	if printFn != nil {
		ps := newPrintSink(printFn)
		v.Print = ps.vmPrint
		ctx.printSink = ps
	}
	if assertFn != nil {
		v.Assert = assertFn
	}

	sched := scheduler.New(objRepo)
	sched.OnError = func(err error) { ctx.log.Errorf("scheduler: %v", err) }
	v.Scheduler = sched

	b := bridge.New(reg, interned, objRepo, v)
	if err := b.RegisterBuiltins(); err != nil {
		// Print/assert register into a brand new registry before any host
		// or script code runs; a name collision here is a broken build, not
		// a runtime condition callers can recover from.
		panic(err)
	}

	ctx.Registry = reg
	ctx.Dispatch = dispatch
	ctx.Interned = interned
	ctx.Objects = objRepo
	ctx.Store = store
	ctx.VM = v
	ctx.Scheduler = sched
	ctx.Bridge = b
	ctx.Events = bridge.NewEventDispatcher(b)

	if ctx.withDbg {
		dbg := debugger.New(reg, dispatch, interned, objRepo, store)
		v.Debug = dbg
		ctx.Debugger = dbg
	}

	return ctx
}

// flushPrints delivers any buffered Print() output to the host printFn. It
// is a no-op when CreateContext was given a nil printFn.
func (ctx *Context) flushPrints() error {
	if ctx.printSink == nil {
		return nil
	}
	return ctx.printSink.flush()
}

// DestroyContext releases ctx's resources, per spec.md §6's matching
// DestroyContext operation. Safe to call once; calling it twice is a
// programmer error the host must avoid (no idempotence is promised, just
// as the teacher's Core.Close does not guard against double Close).
func (ctx *Context) DestroyContext() error {
	ctx.log.Close()
	return nil
}

// UpdateContext advances scheduled calls due at or before nowMs, per
// spec.md §4.7/§5's per-frame driving operation. A script panic during a
// scheduled call's execution is recovered into a returned error rather
// than propagating out to the host's update loop.
func (ctx *Context) UpdateContext(nowMs int64) error {
	ctx.VM.ResetBudget()
	err := panicerr.Recover("UpdateContext", func() error {
		return ctx.Scheduler.Tick(nowMs, ctx.VM)
	})
	if err != nil {
		return err
	}
	return ctx.flushPrints()
}

// ExecScriptFile loads and runs path's top-level code, per spec.md §6
// "ExecScriptFile(context, filename)". The codeblock is cached in ctx.Store
// and reused on a later call if the source is unchanged (spec.md §4.9's
// reload-on-checksum-change behavior).
func (ctx *Context) ExecScriptFile(path string) error {
	err := panicerr.Recover("ExecScriptFile", func() error {
		cb, err := ctx.Store.LoadFile(ctx.loader, path)
		if err != nil {
			return err
		}
		if ctx.Debugger != nil {
			ctx.Debugger.NotifyCodeblockLoaded(cb)
		}
		ctx.log.Infof("loaded %s (checksum %08x)", cb.FileName, cb.Checksum)
		return ctx.VM.ExecuteCodeBlock(cb)
	})
	if err != nil {
		return err
	}
	return ctx.flushPrints()
}

// ExecCommand compiles and runs one throwaway snippet of source immediately,
// per spec.md §6 "ExecCommand(context, command_string)" -- the REPL/console
// entry point. Each call gets a fresh synthetic file name so repeated
// commands never collide in ctx.Store.
func (ctx *Context) ExecCommand(source string) error {
	err := panicerr.Recover("ExecCommand", func() error {
		ctx.commandSeq++
		name := fmt.Sprintf("<command:%d>", ctx.commandSeq)
		cb, err := ctx.Store.LoadSource(name, []byte(source))
		if err != nil {
			return err
		}
		return ctx.VM.ExecuteCodeBlock(cb)
	})
	if err != nil {
		return err
	}
	return ctx.flushPrints()
}
