package dsa

import (
	"fmt"
	"testing"
	"time"
)

// ─── Priority Queue Tests ───────────────────────────────────────────────────

func TestPriorityQueue_Basic(t *testing.T) {
	pq := NewPriorityQueue(DefaultPriorityQueueConfig())

	pq.Push(HeapItem{Key: "low", Priority: 10, SubmittedAt: time.Now()})
	pq.Push(HeapItem{Key: "high", Priority: 1, SubmittedAt: time.Now()})
	pq.Push(HeapItem{Key: "mid", Priority: 5, SubmittedAt: time.Now()})

	if pq.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", pq.Len())
	}

	item, ok := pq.Pop()
	if !ok || item.Key != "high" {
		t.Fatalf("first Pop = %q (ok=%v), want 'high'", item.Key, ok)
	}

	item, ok = pq.Pop()
	if !ok || item.Key != "mid" {
		t.Fatalf("second Pop = %q, want 'mid'", item.Key)
	}

	item, ok = pq.Pop()
	if !ok || item.Key != "low" {
		t.Fatalf("third Pop = %q, want 'low'", item.Key)
	}

	_, ok = pq.Pop()
	if ok {
		t.Error("Pop on empty queue should return false")
	}
}

func TestPriorityQueue_Peek(t *testing.T) {
	pq := NewPriorityQueue(DefaultPriorityQueueConfig())

	_, ok := pq.Peek()
	if ok {
		t.Error("Peek on empty queue should return false")
	}

	pq.Push(HeapItem{Key: "a", Priority: 5, SubmittedAt: time.Now()})
	item, ok := pq.Peek()
	if !ok || item.Key != "a" {
		t.Fatalf("Peek = %q (ok=%v), want 'a'", item.Key, ok)
	}

	// Peek should not remove it
	if pq.Len() != 1 {
		t.Fatalf("Len after Peek = %d, want 1", pq.Len())
	}
}

func TestPriorityQueue_StarvationPrevention(t *testing.T) {
	// With BoostInterval=5s and MaxBoost=2, a task waiting 10+ seconds
	// gets priority boosted by 2 levels.
	cfg := PriorityQueueConfig{
		BoostInterval: 5 * time.Second,
		MaxBoost:      2,
	}
	pq := NewPriorityQueue(cfg)

	// Override clock
	now := time.Now()
	pq.now = func() time.Time { return now }

	// Old low-priority task submitted 15 seconds ago
	oldItem := HeapItem{Key: "old", Priority: 10, SubmittedAt: now.Add(-15 * time.Second)}
	// New high-priority task submitted just now
	newItem := HeapItem{Key: "new", Priority: 8, SubmittedAt: now}

	pq.Push(oldItem)
	pq.Push(newItem)

	// "old" has effective priority = 10 - min(15/5, 2) = 10 - 2 = 8
	// "new" has effective priority = 8 - min(0/5, 2) = 8 - 0 = 8
	// Same effective priority → FIFO → "old" wins (earlier SubmittedAt)
	item, _ := pq.Pop()
	if item.Key != "old" {
		t.Errorf("expected 'old' (starvation-boosted) to be dequeued first, got %q", item.Key)
	}
}

func TestPriorityQueue_FIFOTieBreaker(t *testing.T) {
	pq := NewPriorityQueue(DefaultPriorityQueueConfig())

	now := time.Now()
	pq.now = func() time.Time { return now }

	// Same priority, different submission times
	pq.Push(HeapItem{Key: "first", Priority: 5, SubmittedAt: now.Add(-2 * time.Second)})
	pq.Push(HeapItem{Key: "second", Priority: 5, SubmittedAt: now.Add(-1 * time.Second)})
	pq.Push(HeapItem{Key: "third", Priority: 5, SubmittedAt: now})

	// Should come out in submission order (FIFO)
	expected := []string{"first", "second", "third"}
	for _, want := range expected {
		item, ok := pq.Pop()
		if !ok || item.Key != want {
			t.Errorf("Pop = %q, want %q", item.Key, want)
		}
	}
}

func TestPriorityQueue_ConcurrentSafety(t *testing.T) {
	pq := NewPriorityQueue(DefaultPriorityQueueConfig())
	done := make(chan struct{})

	// Push from 10 goroutines
	for g := 0; g < 10; g++ {
		go func(id int) {
			for i := 0; i < 100; i++ {
				pq.Push(HeapItem{
					Key:         fmt.Sprintf("g%d-i%d", id, i),
					Priority:    i,
					SubmittedAt: time.Now(),
				})
			}
			done <- struct{}{}
		}(g)
	}

	for g := 0; g < 10; g++ {
		<-done
	}

	if pq.Len() != 1000 {
		t.Errorf("Len = %d after concurrent pushes, want 1000", pq.Len())
	}

	// Pop everything
	count := 0
	for {
		_, ok := pq.Pop()
		if !ok {
			break
		}
		count++
	}
	if count != 1000 {
		t.Errorf("popped %d items, want 1000", count)
	}
}
