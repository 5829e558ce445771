package debugger

import (
	"strconv"

	"github.com/tinscript/tinscript/types"
	"github.com/tinscript/tinscript/vm"
)

// callstackNotification renders a NotifyCallstack line from the VM's live
// frame stack, per spec.md §6's "NotifyCallstack file[] ns[] fn[] obj[]
// line[]". Grounded on the teacher's vmDumper.dumpStack, which likewise
// walks frames innermost-first rendering one row per frame; adapted here
// from gothird's flat int memory into this VM's typed frame/FrameInfo
// model. Each frame contributes five consecutive tokens (file, namespace,
// function, receiver object id, line) rather than five parallel arrays,
// so the flattened token stream stays a single quoted-argument list.
func (d *Debugger) callstackNotification(v *vm.VM) Notification {
	frames := v.CaptureFrames()
	args := make([]string, 0, len(frames)*5)
	for _, f := range frames {
		fileName := d.fileName(f.FileHash)
		ns := ""
		if f.NamespaceHash != 0 {
			ns = d.nameOf(f.NamespaceHash)
		}
		args = append(args, fileName, ns, f.Function, strconv.Itoa(int(f.ReceiverID)), strconv.Itoa(f.Line))
	}
	return Notification{Name: "NotifyCallstack", Args: args}
}

// watchScope renders the current values of every installed watch, for a
// "request watch-scope" round at a yield point: object id 0 resolves
// against the global variable table, any other object id resolves
// against that instance's member table, per spec.md §4.9's watch key
// shape "(object_id, name_hash)".
func (d *Debugger) watchScope(v *vm.VM) []Notification {
	var notes []Notification
	d.watches.Each(func(w *Watch) {
		if !w.Enabled {
			return
		}
		val, ok := d.resolveWatch(v, w)
		if !ok {
			return
		}
		rendered := d.renderValue(val)
		if rendered == w.lastSeen {
			return
		}
		w.lastSeen = rendered
		notes = append(notes, Notification{
			Name: "NotifyWatchVar",
			Args: []string{strconv.Itoa(int(w.RequestID)), strconv.Itoa(int(w.ObjectID)), strconv.Itoa(int(w.NameHash)), val.Kind().String(), rendered},
		})
	})
	return notes
}

// resolveWatch looks up a watch's current value: object id 0 is the
// global scope, any other value is resolved as a live object's member.
func (d *Debugger) resolveWatch(v *vm.VM, w *Watch) (types.Value, bool) {
	if w.ObjectID == 0 {
		return v.GlobalByNameHash(w.NameHash)
	}
	inst, ok := d.objects.ByID(w.ObjectID)
	if !ok {
		return types.Nil, false
	}
	return d.objects.GetMember(inst, w.NameHash)
}

// renderValue formats a Value for wire transmission, per spec.md §6's
// "value" notification field: strings resolve through the intern table,
// everything else uses its natural text form.
func (d *Debugger) renderValue(val types.Value) string {
	switch val.Kind() {
	case types.String:
		if s, ok := d.interned.Lookup(val.AsStringHash()); ok {
			return s
		}
		return ""
	case types.Bool:
		return strconv.FormatBool(val.AsBool())
	case types.Int32:
		return strconv.Itoa(int(val.AsInt32()))
	case types.Float:
		return strconv.FormatFloat(float64(val.AsFloat()), 'g', -1, 32)
	default:
		return ""
	}
}

func (d *Debugger) fileName(fileHash uint32) string {
	if cb, ok := d.store.Get(fileHash); ok {
		return cb.FileName
	}
	return d.nameOf(fileHash)
}

func (d *Debugger) nameOf(hash uint32) string {
	if s, ok := d.interned.Lookup(hash); ok {
		return s
	}
	return strconv.FormatUint(uint64(hash), 16)
}
