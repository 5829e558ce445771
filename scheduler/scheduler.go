// Package scheduler implements the deferred-call queue described in
// spec.md §4.7: a min-heap keyed by fire time, ticked once per
// UpdateContext call. Grounded on MongooseMoo/barn/server/scheduler.go's
// TaskQueue, a container/heap priority queue of pending work ordered by
// start time; this package generalizes that shape to TinScript's
// Schedule/Cancel/Tick protocol instead of barn's task lifecycle.
package scheduler

import (
	"container/heap"
	"fmt"
	"sync"

	"github.com/tinscript/tinscript/objects"
	"github.com/tinscript/tinscript/types"
)

// Target is the narrow callback surface the scheduler drives on Tick;
// *vm.VM satisfies it via its existing ExecScheduledFunction method, so
// this package drives the VM without importing vm (spec.md §2 places
// Scheduler above Virtual Machine in the dependency order) and without vm needing to import
// scheduler back -- vm only sees the Scheduler interface it declares
// itself, which *Scheduler below satisfies.
type Target interface {
	ExecScheduledFunction(receiver *objects.Instance, fnNameHash uint32, args []types.Value) (types.Value, error)
}

type entry struct {
	id         uint32
	fireAt     int64
	seq        uint64
	receiverID uint32
	fnNameHash uint32
	args       []types.Value
	repeat     bool
	period     int64
	cancelled  bool
	index      int
}

// entryHeap orders by (fireAt, seq): equal fire times fire in insertion
// order, per spec.md §5 "scheduler entries with equal fire time fire in
// insertion order".
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].fireAt != h[j].fireAt {
		return h[i].fireAt < h[j].fireAt
	}
	return h[i].seq < h[j].seq
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *entryHeap) Push(x interface{}) {
	e := x.(*entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler is single-threaded: Schedule/Cancel/Tick must all be called
// from the context's one update thread, per spec.md §5 "the scheduler is
// not concurrent". The mutex here only guards against a host accidentally
// calling Schedule from a registered function's thunk while Tick is
// iterating the same context's heap, not against genuine concurrent use.
type Scheduler struct {
	mu      sync.Mutex
	heap    entryHeap
	byID    map[uint32]*entry
	objects *objects.Repository
	nextID  uint32
	nextSeq uint64
	now     int64

	// OnError is called with a due entry's error instead of aborting Tick,
	// per spec.md §7 "errors during scheduler entries do not affect other
	// entries". Nil discards the error.
	OnError func(err error)
}

// New returns an empty scheduler. objRepo resolves a receiver id back to
// a live *objects.Instance at fire time (nil if the object was destroyed
// since scheduling -- the fire is then skipped).
func New(objRepo *objects.Repository) *Scheduler {
	return &Scheduler{
		heap:    entryHeap{},
		byID:    make(map[uint32]*entry),
		objects: objRepo,
		nextID:  1,
	}
}

// Schedule implements vm.Scheduler: inserts a deferred call at now+delayMs,
// per spec.md §4.7. receiverID 0 means no receiver (a free function call).
func (s *Scheduler) Schedule(delayMs int32, receiverID uint32, fnNameHash uint32, args []types.Value, repeat bool) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	e := &entry{
		id:         id,
		fireAt:     s.now + int64(delayMs),
		seq:        s.nextSeq,
		receiverID: receiverID,
		fnNameHash: fnNameHash,
		args:       args,
		repeat:     repeat,
		period:     int64(delayMs),
	}
	s.nextSeq++
	heap.Push(&s.heap, e)
	s.byID[id] = e
	return id
}

// Cancel marks a pending entry removed; it is skipped (not executed) when
// its turn comes up on Tick, per spec.md §4.7 "Cancel(request_id) marks an
// entry removed".
func (s *Scheduler) Cancel(requestID uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[requestID]
	if !ok {
		return false
	}
	e.cancelled = true
	delete(s.byID, requestID)
	return true
}

// Tick pops every entry with fire time <= nowMs, in order, and invokes
// target for each non-cancelled one. A repeating entry is rescheduled at
// nowMs+period rather than discarded. Per spec.md §5, Tick is not driven
// while the debugger has the context paused -- the host simply does not
// call Tick in that state, so time does not advance.
//
// An entry whose call returns an error is reported via OnError and
// skipped; it does not stop the remaining due entries from firing, per
// spec.md §7's entry isolation.
func (s *Scheduler) Tick(nowMs int64, target Target) error {
	s.mu.Lock()
	s.now = nowMs
	var due []*entry
	for s.heap.Len() > 0 && s.heap[0].fireAt <= nowMs {
		e := heap.Pop(&s.heap).(*entry)
		due = append(due, e)
	}
	s.mu.Unlock()

	for _, e := range due {
		if e.cancelled {
			continue
		}
		var recv *objects.Instance
		if e.receiverID != 0 {
			inst, ok := s.objects.ByID(e.receiverID)
			if !ok {
				continue
			}
			recv = inst
		}
		if _, err := target.ExecScheduledFunction(recv, e.fnNameHash, e.args); err != nil {
			if s.OnError != nil {
				s.OnError(fmt.Errorf("scheduled call %#x (entry %d): %w", e.fnNameHash, e.id, err))
			}
		}
		if e.repeat {
			s.mu.Lock()
			s.byID[e.id] = e
			e.fireAt = nowMs + e.period
			e.seq = s.nextSeq
			s.nextSeq++
			e.cancelled = false
			heap.Push(&s.heap, e)
			s.mu.Unlock()
		} else {
			s.mu.Lock()
			delete(s.byID, e.id)
			s.mu.Unlock()
		}
	}
	return nil
}

// Len reports the number of pending (including cancelled but not yet
// popped) entries, for diagnostics/tests.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heap.Len()
}
