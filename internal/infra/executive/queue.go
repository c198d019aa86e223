// Package executive implements the kernel's event-list executive: the
// central virtual-clock dispatch loop that every other component schedules
// work through (Component Design §4.1). Its dispatch discipline — a single
// goroutine draining a composite-ordered heap, with detachable work handed
// off to its own coroutine — follows the same shape as the teacher's
// internal/infra/scheduler package, generalized from a distributed
// work-stealing scheduler to a single-process causal event list.
package executive

import (
	"container/heap"

	"github.com/sagekernel/sagekernel/internal/domain"
)

// pendingEvent is one entry waiting in the executive's heap. Ordering is:
// When ascending, then Priority descending (higher priority first at the
// same instant), then — for an otherwise-tied pair — non-daemon before
// daemon (Component Design §4.1's ordering guarantee), then EventKey
// ascending as the FIFO tiebreaker for events requested at identical
// (When, Priority, Daemon).
type pendingEvent struct {
	domain.Event
	index int // maintained by container/heap for O(log n) removal
}

type eventHeap []*pendingEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.When != b.When {
		return a.When < b.When
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Daemon != b.Daemon {
		return !a.Daemon // non-daemon first
	}
	return a.Key < b.Key
}

func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	pe := x.(*pendingEvent)
	pe.index = len(*h)
	*h = append(*h, pe)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	pe := old[n-1]
	old[n-1] = nil
	pe.index = -1
	*h = old[:n-1]
	return pe
}

// removeByKey removes the pending event with the given key, if present,
// returning it and true. Used by Unrequest to rescind a not-yet-fired event.
func (h *eventHeap) removeByKey(key domain.EventKey) (*pendingEvent, bool) {
	for _, pe := range *h {
		if pe.Key == key {
			removed := heap.Remove(h, pe.index)
			return removed.(*pendingEvent), true
		}
	}
	return nil, false
}
