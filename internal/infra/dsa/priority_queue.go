// Package dsa collects small, dependency-free data structures shared across
// the kernel's infra packages. It mirrors the teacher's internal/infra/dsa
// package; only the pieces a single-process discrete-event kernel actually
// has a use for are kept (see the repository's grounding ledger for why the
// teacher's consistent-hash ring and bloom filter were not carried over).
package dsa

import (
	"container/heap"
	"sync"
	"time"
)

// HeapItem is one entry submitted to a PriorityQueue. Lower Priority pops
// first; Value carries arbitrary caller payload (e.g. a blocked resource
// request or a retry descriptor).
type HeapItem struct {
	Key         string
	Priority    int
	SubmittedAt time.Time
	Value       any
}

// PriorityQueueConfig tunes the starvation-prevention boost: every waiting
// item's effective priority is reduced by min(age/BoostInterval, MaxBoost)
// so that old, low-priority items eventually overtake fresh high-priority
// ones.
type PriorityQueueConfig struct {
	BoostInterval time.Duration
	MaxBoost      int
}

// DefaultPriorityQueueConfig returns a conservative boost schedule: one
// priority level knocked off per 30 seconds waited, capped at 5 levels.
func DefaultPriorityQueueConfig() PriorityQueueConfig {
	return PriorityQueueConfig{
		BoostInterval: 30 * time.Second,
		MaxBoost:      5,
	}
}

// PriorityQueue is a mutex-guarded min-heap over HeapItem's effective
// priority, with submission order as the FIFO tiebreaker.
type PriorityQueue struct {
	mu   sync.Mutex
	cfg  PriorityQueueConfig
	h    itemHeap
	now  func() time.Time
}

// NewPriorityQueue returns an empty queue governed by cfg.
func NewPriorityQueue(cfg PriorityQueueConfig) *PriorityQueue {
	return &PriorityQueue{
		cfg: cfg,
		now: time.Now,
	}
}

// Push inserts item, stamping SubmittedAt with the queue's clock if unset.
func (q *PriorityQueue) Push(item HeapItem) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if item.SubmittedAt.IsZero() {
		item.SubmittedAt = q.now()
	}
	q.h.now = q.now
	q.h.boost = q.cfg
	heap.Push(&q.h, item)
}

// Pop removes and returns the item with the lowest effective priority.
func (q *PriorityQueue) Pop() (HeapItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.h.Len() == 0 {
		return HeapItem{}, false
	}
	q.h.now = q.now
	q.h.boost = q.cfg
	return heap.Pop(&q.h).(HeapItem), true
}

// Peek returns the item that would be popped next without removing it.
func (q *PriorityQueue) Peek() (HeapItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.h.Len() == 0 {
		return HeapItem{}, false
	}
	q.h.now = q.now
	q.h.boost = q.cfg
	best := 0
	for i := 1; i < q.h.Len(); i++ {
		if q.h.less(i, best) {
			best = i
		}
	}
	return q.h.items[best], true
}

// Len reports the number of queued items.
func (q *PriorityQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.h.Len()
}

// itemHeap implements container/heap.Interface. now/boost are refreshed by
// the owning PriorityQueue immediately before each heap operation so the
// boost calculation always uses the current clock and config.
type itemHeap struct {
	items []HeapItem
	now   func() time.Time
	boost PriorityQueueConfig
}

func (h itemHeap) Len() int { return len(h.items) }

func (h itemHeap) less(i, j int) bool {
	pi := effectivePriorityOf(h.items[i], h.now, h.boost)
	pj := effectivePriorityOf(h.items[j], h.now, h.boost)
	if pi != pj {
		return pi < pj
	}
	return h.items[i].SubmittedAt.Before(h.items[j].SubmittedAt)
}

func (h itemHeap) Less(i, j int) bool { return h.less(i, j) }
func (h itemHeap) Swap(i, j int)      { h.items[i], h.items[j] = h.items[j], h.items[i] }

func (h *itemHeap) Push(x any) {
	h.items = append(h.items, x.(HeapItem))
}

func (h *itemHeap) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[:n-1]
	return item
}

func effectivePriorityOf(item HeapItem, now func() time.Time, cfg PriorityQueueConfig) float64 {
	if cfg.BoostInterval <= 0 || now == nil {
		return float64(item.Priority)
	}
	age := now().Sub(item.SubmittedAt)
	boost := float64(age) / float64(cfg.BoostInterval)
	if boost > float64(cfg.MaxBoost) {
		boost = float64(cfg.MaxBoost)
	}
	if boost < 0 {
		boost = 0
	}
	return float64(item.Priority) - boost
}
