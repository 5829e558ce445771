package vm

import "github.com/tinscript/tinscript/types"

// CaptureFrames returns the live call-frame stack, innermost first, for
// the debugger's "request callstack" command (spec.md §4.9). Unlike
// wrapError's capture this is callable at any time, not just on failure.
func (v *VM) CaptureFrames() []FrameInfo {
	frames := make([]FrameInfo, 0, len(v.frames))
	for i := len(v.frames) - 1; i >= 0; i-- {
		f := v.frames[i]
		name := "<toplevel>"
		nsHash := uint32(0)
		if f.fn != nil {
			name = v.nameOf(f.fn.NameHash)
			nsHash = f.fn.NamespaceID
		}
		recv := uint32(0)
		if f.receiver != nil {
			recv = f.receiver.ID
		}
		frames = append(frames, FrameInfo{FileHash: f.cb.FileHash, Line: f.line, Function: name, ReceiverID: recv, NamespaceHash: nsHash})
	}
	return frames
}

// GlobalByNameHash reads a global variable's current value by its
// declared name hash, for the debugger's expression-evaluation and
// watch-scope rendering. Returns false if no global with that name is
// declared.
func (v *VM) GlobalByNameHash(nameHash uint32) (types.Value, bool) {
	variable, ok := v.Registry.Global().Members.Lookup(nameHash)
	if !ok {
		return types.Nil, false
	}
	v.growGlobals()
	if variable.Offset < 0 || variable.Offset >= len(v.globals) {
		return types.Nil, false
	}
	return v.globals[variable.Offset], true
}

// CurrentLocals returns the innermost frame's local slots, for the
// debugger's "request watch-scope" rendering of function-local variables.
// Returns nil if no frame is active.
func (v *VM) CurrentLocals() []types.Value {
	if len(v.frames) == 0 {
		return nil
	}
	return v.currentFrame().locals
}
