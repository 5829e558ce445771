package objects

import (
	"sync"

	"github.com/tinscript/tinscript/types"
)

// HashtableArena is the per-context store backing the hashtable value
// kind: each live hashtable is a map[uint32]types.Value (key string hash ->
// value) referenced by a handle, object-repository style, since spec.md's
// hashtable primitive is "variable for strings"-sized and cannot live
// inside a fixed-width types.Value the way scalars do.
type HashtableArena struct {
	mu      sync.RWMutex
	tables  map[uint32]map[uint32]types.Value
	nextID  uint32
}

// NewHashtableArena returns an empty arena.
func NewHashtableArena() *HashtableArena {
	return &HashtableArena{tables: make(map[uint32]map[uint32]types.Value), nextID: 1}
}

// New allocates a fresh, empty hashtable and returns its handle.
func (a *HashtableArena) New() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	h := a.nextID
	a.nextID++
	a.tables[h] = make(map[uint32]types.Value)
	return h
}

// Get reads key (a name hash) from the hashtable at handle. Returns
// types.Nil, false for an unknown handle or a missing key -- a missing key
// reads as null per the element-access semantics used for arrays/members
// elsewhere in the runtime.
func (a *HashtableArena) Get(handle, key uint32) (types.Value, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.tables[handle]
	if !ok {
		return types.Nil, false
	}
	v, ok := t[key]
	return v, ok
}

// Set writes key -> val into the hashtable at handle, creating the arena
// slot if handle is unknown (defensive: compiled code creates a declared
// hashtable variable's table via OpNewHashtable before first use, but a
// host-constructed default value may reference a handle lazily).
func (a *HashtableArena) Set(handle, key uint32, val types.Value) {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.tables[handle]
	if !ok {
		t = make(map[uint32]types.Value)
		a.tables[handle] = t
	}
	t[key] = val
}

// Delete removes key from the hashtable at handle, if present.
func (a *HashtableArena) Delete(handle, key uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.tables[handle]; ok {
		delete(t, key)
	}
}

// Len reports the number of entries in the hashtable at handle.
func (a *HashtableArena) Len(handle uint32) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.tables[handle])
}

// Each calls fn for every key/value pair in the hashtable at handle, for
// the debugger's watch-scope rendering of hashtable-typed variables.
func (a *HashtableArena) Each(handle uint32, fn func(key uint32, val types.Value)) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for k, v := range a.tables[handle] {
		fn(k, v)
	}
}

// Release frees the hashtable at handle entirely (called when the owning
// object or variable is destroyed/reassigned and nothing else can hold the
// handle -- hashtables are not reference-counted themselves).
func (a *HashtableArena) Release(handle uint32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tables, handle)
}
