package debugger

import "github.com/tinscript/tinscript/bytecode"

// Breakpoint is one installed breakpoint, keyed by (file, resolved line)
// per spec.md §4.9. Condition/Trace are optional expression snippets,
// compiled lazily on first hit and cached in condFn/traceFn.
type Breakpoint struct {
	FileHash     uint32
	RequestedLine int
	Line         int // resolved via Codeblock.NearestBreakableLine
	Enabled      bool
	Condition    string
	Trace        string
	TraceOnCond  bool

	condFn  *evalFunc
	traceFn *evalFunc
}

type bpKey struct {
	fileHash uint32
	line     int
}

// breakpointTable indexes Breakpoints by resolved (file, line) for the
// O(1) per-instruction ShouldYield check.
type breakpointTable struct {
	entries map[bpKey]*Breakpoint
}

func newBreakpointTable() *breakpointTable {
	return &breakpointTable{entries: make(map[bpKey]*Breakpoint)}
}

// Add resolves requestedLine against cb's line table (spec.md §4.9
// "Breakpoint resolution") and installs a breakpoint there, replacing any
// existing breakpoint at the same resolved line. Returns the resolved
// line, or false if the codeblock has no instruction at or after the
// requested line.
func (t *breakpointTable) Add(cb *bytecode.Codeblock, requestedLine int, enabled bool, condition, trace string, traceOnCond bool) (int, bool) {
	line, ok := cb.NearestBreakableLine(requestedLine)
	if !ok {
		return 0, false
	}
	bp := &Breakpoint{
		FileHash: cb.FileHash, RequestedLine: requestedLine, Line: line,
		Enabled: enabled, Condition: condition, Trace: trace, TraceOnCond: traceOnCond,
	}
	t.entries[bpKey{cb.FileHash, line}] = bp
	return line, true
}

// Remove deletes any breakpoint installed at the resolved line nearest
// requestedLine within cb.
func (t *breakpointTable) Remove(cb *bytecode.Codeblock, requestedLine int) {
	line, ok := cb.NearestBreakableLine(requestedLine)
	if !ok {
		return
	}
	delete(t.entries, bpKey{cb.FileHash, line})
}

// Lookup returns the breakpoint installed at the exact (fileHash, line)
// pair, the hot path called from ShouldYield once per instruction.
func (t *breakpointTable) Lookup(fileHash uint32, line int) (*Breakpoint, bool) {
	bp, ok := t.entries[bpKey{fileHash, line}]
	return bp, ok
}

func (t *breakpointTable) Len() int { return len(t.entries) }
