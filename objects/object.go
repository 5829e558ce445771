// Package objects implements spec.md §4.5's Object Repository: an
// integer-id keyed store of host-and-script object instances, each with a
// namespace-chain-derived member layout and three lookup indices (id,
// host address, instance name).
package objects

import "github.com/tinscript/tinscript/types"

// Instance is a single live object: spec.md §3 "Object entry" fields.
type Instance struct {
	ID          uint32
	ClassHash   uint32
	HostAddress uint64 // 0 = no host-owned counterpart
	Name        string // "" = unnamed instance

	// Chain is the namespace chain, leaf first, as returned by
	// symtab.Registry.Chain -- kept here so method/member resolution and
	// destruction ordering don't need to re-walk the registry per call.
	Chain []uint32 // namespace name hashes, leaf-first

	// Members is the concatenated per-namespace member storage, one
	// types.Value slot per declared variable (array variables occupy
	// ArraySize consecutive slots), root namespace first so that a
	// derived class's own members sit after its parent's.
	Members []types.Value

	// bases[i] is the slot offset into Members where Chain[i]'s member
	// block begins (Chain and bases share Chain's leaf-first order).
	bases []int

	valid bool
}

// IsValid reports whether this instance has not been destroyed.
func (o *Instance) IsValid() bool { return o.valid }

// memberSlot resolves a (namespace index in Chain, local offset) pair to
// an absolute index into Members.
func (o *Instance) memberSlot(chainIdx, localOffset int) int {
	return o.bases[chainIdx] + localOffset
}
