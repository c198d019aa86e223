// Package resourcemgr implements the scored multi-request resource
// acquisition layer (Component Design §4.7): reserve-then-commit atomic
// acquisition across one or more resource lines, blocking (detachable-only)
// and non-blocking semantics, and priority-ordered arbitration of the
// waiting queue on release. Arbitration reuses the teacher's
// internal/infra/dsa starvation-boosted priority queue for the waiters,
// and its weighted-candidate-scoring shape is grounded on the teacher's
// internal/infra/region Router and internal/infra/scheduler RankNodes.
package resourcemgr

import (
	"fmt"
	"math"
	"sync"

	"github.com/sagekernel/sagekernel/internal/domain"
	"github.com/sagekernel/sagekernel/internal/infra/dsa"
	"github.com/sagekernel/sagekernel/internal/infra/executive"
	"github.com/sagekernel/sagekernel/internal/infra/metrics"
)

// Reject is the score a ResourceLine's scoring function returns to mark a
// candidate resource as unacceptable.
const Reject = -math.MaxFloat64

// ScoreFn scores how well a resource satisfies one line of a request.
// Returning Reject marks the candidate unacceptable.
type ScoreFn func(res domain.Resource) float64

// Manager owns a pool of resources and the waiting queue of requests that
// could not be immediately satisfied.
type Manager struct {
	mu sync.Mutex

	exec *executive.Executive

	resources map[domain.ResourceID]*domain.Resource
	nextRes   domain.ResourceID

	nextReq     domain.RequestID
	scorers     map[domain.RequestID][]ScoreFn
	waiters     *dsa.PriorityQueue
	granted     map[domain.RequestID]*domain.Allocation
	waiterEvent map[domain.RequestID]domain.EventKey
}

// New returns an empty manager driven by exec (used to suspend/resume
// blocking acquire callers).
func New(exec *executive.Executive) *Manager {
	return &Manager{
		exec:        exec,
		resources:   make(map[domain.ResourceID]*domain.Resource),
		scorers:     make(map[domain.RequestID][]ScoreFn),
		waiters:     dsa.NewPriorityQueue(dsa.DefaultPriorityQueueConfig()),
		granted:     make(map[domain.RequestID]*domain.Allocation),
		waiterEvent: make(map[domain.RequestID]domain.EventKey),
	}
}

// AddResource registers a new pool.
func (m *Manager) AddResource(name string, capacity float64, policy domain.DischargePolicy) domain.ResourceID {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextRes++
	id := m.nextRes
	res := &domain.Resource{ID: id, Name: name, Capacity: capacity, Available: capacity, Policy: policy}
	m.resources[id] = res
	m.recordUtilizationLocked(res)
	return id
}

// Resource returns a copy of a resource's current record.
func (m *Manager) Resource(id domain.ResourceID) (domain.Resource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resources[id]
	if !ok {
		return domain.Resource{}, false
	}
	return *r, true
}

// tryReserveAll attempts, under the manager's lock, to reserve every line
// of req atomically: either every line succeeds or none is held.
func (m *Manager) tryReserveAll(req domain.ResourceRequest, scorers []ScoreFn) (map[domain.ResourceID]float64, bool) {
	held := make(map[domain.ResourceID]float64, len(req.Lines))
	for i, line := range req.Lines {
		res, ok := m.resources[line.Resource]
		if !ok {
			m.rollback(held)
			return nil, false
		}
		if i < len(scorers) && scorers[i] != nil && scorers[i](*res) == Reject {
			m.rollback(held)
			return nil, false
		}
		if res.Available < line.Amount {
			m.rollback(held)
			return nil, false
		}
		res.Available -= line.Amount
		held[line.Resource] = line.Amount
		m.recordUtilizationLocked(res)
	}
	return held, true
}

func (m *Manager) rollback(held map[domain.ResourceID]float64) {
	for id, amt := range held {
		res := m.resources[id]
		res.Available += amt
		m.recordUtilizationLocked(res)
	}
}

// recordUtilizationLocked reports res's held fraction to
// metrics.ResourceUtilization. Callers must already hold m.mu.
func (m *Manager) recordUtilizationLocked(res *domain.Resource) {
	if res.Capacity == 0 {
		metrics.ResourceUtilization.WithLabelValues(res.Name).Set(0)
		return
	}
	metrics.ResourceUtilization.WithLabelValues(res.Name).Set((res.Capacity - res.Available) / res.Capacity)
}

func (m *Manager) recordAcquireFailureLocked(req domain.ResourceRequest) {
	for _, line := range req.Lines {
		if res, ok := m.resources[line.Resource]; ok {
			metrics.ResourceAcquireFailures.WithLabelValues(res.Name).Inc()
		}
	}
}

// Acquire attempts to satisfy req. Non-blocking requests return
// immediately. Blocking requests are only legal when ctrl is the
// controller of the currently-running detachable event; the caller
// suspends until a later Release makes the request satisfiable (or forever
// if it never is).
func (m *Manager) Acquire(req domain.ResourceRequest, scorers []ScoreFn, ctrl domain.EventController) (bool, error) {
	m.mu.Lock()
	if held, ok := m.tryReserveAll(req, scorers); ok {
		m.granted[req.ID] = &domain.Allocation{Request: req, Held: held}
		m.mu.Unlock()
		return true, nil
	}
	if !req.Blocking {
		m.recordAcquireFailureLocked(req)
		m.mu.Unlock()
		return false, nil
	}
	if ctrl == nil {
		m.mu.Unlock()
		return false, domain.ErrBlockingFromSynchronous
	}
	m.scorers[req.ID] = scorers
	m.waiterEvent[req.ID] = ctrl.Key()
	m.waiters.Push(dsa.HeapItem{
		Key:      fmt.Sprint(req.ID),
		Priority: -req.Priority,
		Value:    req,
	})
	metrics.ResourceWaiters.Set(float64(m.waiters.Len()))
	m.mu.Unlock()

	ctrl.SuspendUntilResumed()

	m.mu.Lock()
	_, granted := m.granted[req.ID]
	m.mu.Unlock()
	return granted, nil
}

// Reserve reserves req's lines without granting them to the caller as a
// final allocation — used by a MultiRequestProcessor composing several
// requests that must all succeed before any is committed. The returned
// allocation must be committed via Commit or released via Release.
func (m *Manager) Reserve(req domain.ResourceRequest, scorers []ScoreFn) (domain.Allocation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	held, ok := m.tryReserveAll(req, scorers)
	if !ok {
		return domain.Allocation{}, false
	}
	return domain.Allocation{Request: req, Held: held}, true
}

// Commit finalizes a previously-Reserved allocation.
func (m *Manager) Commit(alloc domain.Allocation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.granted[alloc.Request.ID] = &alloc
}

// Release returns a committed allocation's held amounts to their pools
// (consumed, not returned, for DischargeConsume resources), then walks the
// waiting queue in priority order — highest effective priority first,
// FIFO within a tie via the starvation-boosted queue — scoring each
// waiter's request against current availability and granting the first
// one that can be atomically satisfied.
func (m *Manager) Release(gctx *domain.GraphContext, reqID domain.RequestID) {
	m.mu.Lock()
	alloc, ok := m.granted[reqID]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.granted, reqID)
	for id, amt := range alloc.Held {
		res := m.resources[id]
		if res.Policy == domain.DischargeReturnToPool {
			res.Available += amt
		}
		m.recordUtilizationLocked(res)
	}
	m.mu.Unlock()

	m.arbitrate(gctx)
}

// arbitrate walks the full waiting queue in priority order (highest
// effective priority first, FIFO within a tie), granting every waiter
// whose request can be reserved in full at the moment it is considered,
// and leaving the rest queued. One waiter being unsatisfiable does not
// block a different, lower-priority waiter from fitting a resource the
// first one didn't need.
func (m *Manager) arbitrate(gctx *domain.GraphContext) {
	m.mu.Lock()
	pending := make([]dsa.HeapItem, 0, m.waiters.Len())
	for {
		item, ok := m.waiters.Pop()
		if !ok {
			break
		}
		pending = append(pending, item)
	}

	var toResume []domain.EventKey
	for _, item := range pending {
		req := item.Value.(domain.ResourceRequest)
		scorers := m.scorers[req.ID]
		held, granted := m.tryReserveAll(req, scorers)
		if !granted {
			m.waiters.Push(item)
			continue
		}
		m.granted[req.ID] = &domain.Allocation{Request: req, Held: held}
		toResume = append(toResume, m.waiterEvent[req.ID])
		delete(m.waiterEvent, req.ID)
		delete(m.scorers, req.ID)
	}
	metrics.ResourceWaiters.Set(float64(m.waiters.Len()))
	m.mu.Unlock()

	for _, key := range toResume {
		m.exec.ResumeParked(key, gctx)
	}
}
