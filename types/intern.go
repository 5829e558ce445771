package types

import (
	"github.com/dolthub/swiss"
)

// HashName computes the stable 32-bit identifier hash used for every name
// in the system: variables, functions, namespaces, files (spec.md §3
// "Identifier hash"). It is an FNV-1a variant, chosen because it is a pure
// function of the bytes with no process-local seed, so the same name
// always hashes the same way across runs, processes, and persisted
// bytecode -- exactly what spec.md requires ("The hash function is stable
// across runs so serialized values... can reference names by hash").
func HashName(s string) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	h := uint32(offset32)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= prime32
	}
	return h
}

type internEntry struct {
	content   string
	refs      int32
	permanent bool
}

// InternTable is the runtime's single interned-string table: every string
// Value is a hash pointing into this table (spec.md §3 "Strings are always
// interned"). Backed by a swiss.Map rather than a builtin map: this table
// is on the hot path of every string literal push, every member/variable
// write of string type, and every debugger watch render, so it is grounded
// on the SwissTable-based symbol tables used by mna/nenuphar (a sibling
// embedded-language runtime in the retrieval pack) for the same reason.
type InternTable struct {
	entries *swiss.Map[uint32, *internEntry]
}

// NewInternTable returns an empty interned-string table.
func NewInternTable() *InternTable {
	return &InternTable{entries: swiss.NewMap[uint32, *internEntry](64)}
}

// Intern adds (or increments the refcount of) s, returning its hash.
func (t *InternTable) Intern(s string) uint32 {
	h := HashName(s)
	if e, ok := t.entries.Get(h); ok {
		e.refs++
		return h
	}
	t.entries.Put(h, &internEntry{content: s, refs: 1})
	return h
}

// InternPermanent interns s (if not already present) and pins it so it is
// never reclaimed by Release, matching spec.md §3's "permanent flag for
// names the runtime pinned" (used for namespace/function/variable names,
// which must survive even if no live Value currently references them).
func (t *InternTable) InternPermanent(s string) uint32 {
	h := HashName(s)
	if e, ok := t.entries.Get(h); ok {
		e.permanent = true
		return h
	}
	t.entries.Put(h, &internEntry{content: s, refs: 1, permanent: true})
	return h
}

// Retain increments the refcount of an already-interned hash. The
// debugger's watch table does not call it: a watch keeps the rendered text
// of the value it last reported, not a string hash.
func (t *InternTable) Retain(hash uint32) {
	if e, ok := t.entries.Get(hash); ok {
		e.refs++
	}
}

// Release decrements the refcount of hash, reclaiming the entry once it
// reaches zero (unless permanent).
func (t *InternTable) Release(hash uint32) {
	e, ok := t.entries.Get(hash)
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 && !e.permanent {
		t.entries.Delete(hash)
	}
}

// Lookup resolves a hash back to its original string, for error messages
// and debugger rendering (spec.md §3: "A reverse mapping (hash->string) is
// maintained... so the debugger and error reporter can recover original
// names").
func (t *InternTable) Lookup(hash uint32) (string, bool) {
	e, ok := t.entries.Get(hash)
	if !ok {
		return "", false
	}
	return e.content, true
}

// Contains reports whether hash currently has a live entry.
func (t *InternTable) Contains(hash uint32) bool {
	_, ok := t.entries.Get(hash)
	return ok
}

// RefCount returns the current reference count of hash, or 0 if absent.
func (t *InternTable) RefCount(hash uint32) int32 {
	if e, ok := t.entries.Get(hash); ok {
		return e.refs
	}
	return 0
}

// Len returns the number of live interned entries.
func (t *InternTable) Len() int { return t.entries.Count() }
