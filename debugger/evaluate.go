package debugger

import (
	"fmt"
	"runtime/debug"

	"github.com/tinscript/tinscript/bytecode"
	"github.com/tinscript/tinscript/compiler"
	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

// evalFunc is a condition or trace expression compiled to a throwaway
// codeblock: a one-statement global var declaration whose initializer is
// the requested expression, so the VM's normal execution path produces
// the value with no new interpreter needed. Declared once, reused on
// every subsequent breakpoint/watch hit.
type evalFunc struct {
	cb       *bytecode.Codeblock
	nameHash uint32
}

// compileEval declares `<kind> __dbg_eval_<seq> = (<source>);` against c's
// registry and compiles it, returning the codeblock plus the declared
// global's name hash so the caller can read the result back out of the
// VM's globals after executing it.
func (d *Debugger) compileEval(kind types.Kind, source string) (*evalFunc, error) {
	d.evalSeq++
	varName := fmt.Sprintf("__dbg_eval_%d", d.evalSeq)
	kindName := "bool"
	if kind == types.String {
		kindName = "string"
	}
	snippet := fmt.Sprintf("%s %s = (%s);", kindName, varName, source)
	fileName := fmt.Sprintf("<debugger-eval-%d>", d.evalSeq)
	fileHash := types.HashName(fileName)

	c := compiler.New(d.registry, d.dispatch)
	cb, err := c.Compile(fileHash, fileName, []byte(snippet))
	if err != nil {
		return nil, fmt.Errorf("debugger: compiling expression %q: %w", source, err)
	}
	nameHash := types.HashName(varName)
	return &evalFunc{cb: cb, nameHash: nameHash}, nil
}

// runEval executes ef's codeblock against the live VM and reads back the
// declared global's value, isolated in its own goroutine so a runtime
// panic triggered by the expression (divide by zero, a VM bug) cannot
// take down the debugger's command loop. Grounded on the teacher's
// isolate() helper, adapted from a named-program re-run to a single
// expression evaluated against the already-running VM.
//
// d.evaluating suppresses ShouldYield for the duration: the synthetic
// codeblock runs through the same VM.Debug hook as ordinary script code,
// and without the guard a condition expression evaluated while a step is
// already armed would itself trip ShouldYield and recurse into
// PollAndApply, waiting on a resume command the client was never told to
// send.
func runEval(d *Debugger, v *vm.VM, ef *evalFunc) (result types.Value, err error) {
	type outcome struct {
		val types.Value
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- outcome{types.Nil, &evalPanicError{value: r, stack: debug.Stack()}}
			}
		}()
		d.mu.Lock()
		d.evaluating = true
		d.mu.Unlock()
		defer func() {
			d.mu.Lock()
			d.evaluating = false
			d.mu.Unlock()
		}()
		if execErr := v.ExecuteCodeBlock(ef.cb); execErr != nil {
			ch <- outcome{types.Nil, execErr}
			return
		}
		val, ok := v.GlobalByNameHash(ef.nameHash)
		if !ok {
			ch <- outcome{types.Nil, fmt.Errorf("debugger: evaluated expression produced no value")}
			return
		}
		ch <- outcome{val, nil}
	}()
	o := <-ch
	return o.val, o.err
}

// evalPanicError reports a recovered panic from expression evaluation,
// keeping its stack trace available without crashing the debugger.
type evalPanicError struct {
	value interface{}
	stack []byte
}

func (e *evalPanicError) Error() string {
	return fmt.Sprintf("debugger: expression evaluation panicked: %v", e.value)
}

func (e *evalPanicError) StackTrace() string { return string(e.stack) }

// evalCondition runs a previously compiled boolean condition and reports
// whether it held. A nil ef (no condition configured) always holds.
func (d *Debugger) evalCondition(v *vm.VM, ef *evalFunc) bool {
	if ef == nil {
		return true
	}
	val, err := runEval(d, v, ef)
	if err != nil {
		return false
	}
	return val.AsBool()
}

// evalTrace runs a previously compiled string trace expression and
// returns its rendered text.
func (d *Debugger) evalTrace(v *vm.VM, ef *evalFunc) string {
	if ef == nil {
		return ""
	}
	val, err := runEval(d, v, ef)
	if err != nil {
		return err.Error()
	}
	s, _ := d.interned.Lookup(val.AsStringHash())
	return s
}
