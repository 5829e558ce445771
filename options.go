package tinscript

import (
	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/internal/rtlog"
	"github.com/tinscript/tinscript/vm"
)

// Option configures a Context at CreateContext time, mirroring
// gothird.VMOption: an apply(ctx) interface, a variadic flattening
// constructor, and a zero-value noption so Options(nil, ...) is safe.
type Option interface{ apply(ctx *Context) }

// Options flattens a slice of Options (collapsing nested Options values and
// dropping nils) into a single applicable Option, exactly as
// gothird.VMOptions does for VMOption.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(*Context) {}

type options []Option

func (opts options) apply(ctx *Context) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(ctx)
		}
	}
}

type maxOperandStackOption int

// WithMaxOperandStack bounds the VM's operand stack depth (spec.md §4.6,
// "typical cap 1024").
func WithMaxOperandStack(n int) Option { return maxOperandStackOption(n) }

func (n maxOperandStackOption) apply(ctx *Context) {
	ctx.vmOpts = append(ctx.vmOpts, vm.WithMaxOperandStack(int(n)))
}

type maxFrameDepthOption int

// WithMaxFrameDepth bounds the VM's call-frame stack depth (spec.md §4.6,
// "cap 256").
func WithMaxFrameDepth(n int) Option { return maxFrameDepthOption(n) }

func (n maxFrameDepthOption) apply(ctx *Context) {
	ctx.vmOpts = append(ctx.vmOpts, vm.WithMaxFrameDepth(int(n)))
}

type maxInstructionsOption int64

// WithMaxInstructionsPerUpdate bounds how many instructions a single
// UpdateContext/ExecScriptFile/ExecCommand call may dispatch before
// erroring out, per spec.md §5/§7's optional runaway-script protection.
// 0 (the default) means unlimited.
func WithMaxInstructionsPerUpdate(n int64) Option { return maxInstructionsOption(n) }

func (n maxInstructionsOption) apply(ctx *Context) {
	ctx.vmOpts = append(ctx.vmOpts, vm.WithInstructionBudget(int64(n)))
}

type codeblockLoaderOption struct{ loader bytecode.SourceLoader }

// WithCodeblockLoader replaces the default local-filesystem SourceLoader
// ExecScriptFile reads through, for hosts serving scripts from a virtual
// filesystem, embedded assets, or the network.
func WithCodeblockLoader(loader bytecode.SourceLoader) Option {
	return codeblockLoaderOption{loader}
}

func (o codeblockLoaderOption) apply(ctx *Context) { ctx.loader = o.loader }

type logfOption func(mess string, args ...interface{})

// WithLogf installs logfn as the sink for the context's internal runtime
// diagnostics (codeblock reloads, scheduler ticks, debugger connect/
// disconnect) -- never for script Print() output, which always goes
// through the printFn passed to CreateContext.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return logfOption(logfn) }

func (fn logfOption) apply(ctx *Context) {
	ctx.log = rtlog.New(&logioAdapter{logf: fn})
}

// logioAdapter lets a bare logf callback satisfy io.WriteCloser well
// enough for rtlog.New, which only needs a sink for its already-formatted
// lines; the callback receives each line verbatim.
type logioAdapter struct{ logf func(mess string, args ...interface{}) }

func (a *logioAdapter) Write(p []byte) (int, error) {
	a.logf("%s", string(p))
	return len(p), nil
}

func (a *logioAdapter) Close() error { return nil }

type debugListenerOption struct{ enabled bool }

// WithDebugListener enables the remote debugger hook: CreateContext
// constructs a debugger.Debugger and installs it as the VM's DebugHook, so
// the host can later call Context.Debugger.Serve against an accepted
// connection (spec.md §4.9/§6).
func WithDebugListener(enabled bool) Option { return debugListenerOption{enabled} }

func (o debugListenerOption) apply(ctx *Context) { ctx.withDbg = o.enabled }
