package tinscript

import (
	"fmt"
	"strings"

	"github.com/tinscript/tinscript/internal/flushio"
	"github.com/tinscript/tinscript/vm"
)

// printSink buffers script Print() output through a flushio.WriteFlusher
// instead of delivering each call to the host printFn immediately, the same
// "wrap the sink, flush at well-defined points" discipline gothird.Core
// applied to its own output stream. Context flushes it once at the end of
// ExecScriptFile/ExecCommand/UpdateContext, so a host-supplied io.Writer
// sink (a log file, a socket) sees whole, deterministically-timed writes
// rather than one syscall per script Print() call.
type printSink struct {
	wf      flushio.WriteFlusher
	printFn vm.PrintFunc
}

func newPrintSink(printFn vm.PrintFunc) *printSink {
	ps := &printSink{printFn: printFn}
	ps.wf = flushio.NewWriteFlusher(ps)
	return ps
}

// Write implements io.Writer for ps.wf. A flush can hand back many
// buffered "severity\tmessage" lines (from vmPrint below) in one call, so
// this splits on "\n" rather than assuming one line per Write.
func (ps *printSink) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSuffix(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		severity, message, _ := strings.Cut(line, "\t")
		ps.printFn(severity, message)
	}
	return len(p), nil
}

// vmPrint is installed as vm.VM.Print; it only buffers into ps.wf, it does
// not call ps.printFn directly.
func (ps *printSink) vmPrint(severity, message string) {
	fmt.Fprintf(ps.wf, "%s\t%s\n", severity, message)
}

func (ps *printSink) flush() error { return ps.wf.Flush() }
