package executive

import (
	"container/heap"
	"context"
	"reflect"
	"time"

	"github.com/sagekernel/sagekernel/internal/domain"
	"github.com/sagekernel/sagekernel/internal/infra/metrics"
)

// Executive is the kernel's event-list processor: a single dispatch
// goroutine draining a composite-ordered heap of requested events,
// advancing a virtual clock as it goes. All heap mutation happens on the
// dispatch goroutine, including mutation triggered indirectly by a
// detachable coroutine's suspend/resume handoff, so no lock is needed
// around the heap itself.
type Executive struct {
	h              eventHeap
	nextKey        domain.EventKey
	clock          domain.Instant
	nonDaemonCount int
	sink           domain.DiagnosticsSink

	// parked holds detachable coroutines suspended via SuspendUntilResumed,
	// keyed by their original event key, so an external caller (e.g. the
	// resource manager releasing capacity) can look one up and wake it.
	parked map[domain.EventKey]*Controller

	// ignoreCausality mirrors the config surface's IgnoreCausalityViolations
	// key (Section 6): when true, a RequestEvent for a when earlier than the
	// current clock is silently promoted to now instead of failing the run.
	ignoreCausality bool
	causalityErr    error
}

// NewExecutive returns an idle executive. A nil sink is replaced with
// domain.NopSink.
func NewExecutive(sink domain.DiagnosticsSink) *Executive {
	if sink == nil {
		sink = domain.NopSink{}
	}
	return &Executive{
		sink:   sink,
		parked: make(map[domain.EventKey]*Controller),
	}
}

// SetIgnoreCausalityViolations configures how RequestEvent handles a when
// earlier than the current virtual clock, per Section 6's
// IgnoreCausalityViolations config key.
func (e *Executive) SetIgnoreCausalityViolations(ignore bool) { e.ignoreCausality = ignore }

// Now returns the executive's current virtual clock value.
func (e *Executive) Now() domain.Instant { return e.clock }

// RequestEvent schedules a callback to fire at when, returning the key
// callers use to Unrequest it before it fires. Batched events coalesce with
// an already-pending Batched event sharing the same (When, Priority,
// Callback, UserData) — Section 3's "identical (when, priority, callback,
// data)" rule — in which case the existing key is returned and no second
// delivery is scheduled.
func (e *Executive) RequestEvent(when domain.Instant, priority float64, kind domain.EventKind, daemon bool, cb domain.Callback, userData any) domain.EventKey {
	if kind == domain.Batched {
		if existing, ok := e.findBatchMatch(when, priority, "", true, cb, userData); ok {
			return existing
		}
	}
	return e.requestFull(domain.Event{
		When:     when,
		Priority: priority,
		Kind:     kind,
		Daemon:   daemon,
		Callback: cb,
		UserData: userData,
	})
}

// RequestBatched is RequestEvent specialized for Batched events that
// coalesce on an explicit CoalesceKey instead of (Callback, UserData)
// identity — a distinct, caller-chosen coalescing axis from RequestEvent's
// data-identity one.
func (e *Executive) RequestBatched(when domain.Instant, priority float64, daemon bool, coalesceKey string, cb domain.Callback, userData any) domain.EventKey {
	if existing, ok := e.findBatchMatch(when, priority, coalesceKey, false, nil, nil); ok {
		return existing
	}
	return e.requestFull(domain.Event{
		When:        when,
		Priority:    priority,
		Kind:        domain.Batched,
		Daemon:      daemon,
		Callback:    cb,
		UserData:    userData,
		CoalesceKey: coalesceKey,
	})
}

// RequestActor schedules an AsynchronousActor event, fanning out to each
// subscriber callback as its own detachable coroutine, in order, when the
// event fires.
func (e *Executive) RequestActor(when domain.Instant, priority float64, daemon bool, subscribers []domain.Callback, userData any) domain.EventKey {
	return e.requestFull(domain.Event{
		When:        when,
		Priority:    priority,
		Kind:        domain.AsynchronousActor,
		Daemon:      daemon,
		Subscribers: subscribers,
		UserData:    userData,
	})
}

// findBatchMatch looks for an already-pending Batched event to coalesce
// with. When requireDataMatch is true (RequestEvent's path) a candidate
// must additionally carry the same Callback and an equal UserData, per
// Section 3's "identical (when, priority, callback, data)" coalescing rule
// — otherwise two RequestEvent calls at the same (When, Priority) with
// distinct payloads would wrongly merge into one delivery. When false
// (RequestBatched's path), CoalesceKey alone is the coalescing axis.
func (e *Executive) findBatchMatch(when domain.Instant, priority float64, coalesceKey string, requireDataMatch bool, cb domain.Callback, userData any) (domain.EventKey, bool) {
	for _, pe := range e.h {
		if pe.Kind != domain.Batched || pe.When != when || pe.Priority != priority || pe.CoalesceKey != coalesceKey {
			continue
		}
		if requireDataMatch && (!sameCallback(pe.Callback, cb) || !reflect.DeepEqual(pe.UserData, userData)) {
			continue
		}
		return pe.Key, true
	}
	return 0, false
}

// sameCallback compares two callbacks by their underlying function pointer.
// Two RequestEvent calls passing the literal same function value (the
// common case for a periodic handler re-requesting itself) compare equal;
// distinct closures never do, even if behaviorally identical.
func sameCallback(a, b domain.Callback) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func (e *Executive) requestFull(ev domain.Event) domain.EventKey {
	e.nextKey++
	ev.Key = e.nextKey

	if ev.When < e.clock {
		if e.ignoreCausality {
			ev.When = e.clock
		} else if e.causalityErr == nil {
			e.causalityErr = domain.ErrCausalityViolation
			return ev.Key
		}
	}

	heap.Push(&e.h, &pendingEvent{Event: ev})
	if !ev.Daemon {
		e.nonDaemonCount++
	}
	metrics.QueueDepth.Set(float64(e.h.Len()))
	return ev.Key
}

// Unrequest rescinds a not-yet-fired event. It reports false if the key is
// unknown, which is always safe: an event that already fired or was
// already rescinded cannot be rescinded twice.
func (e *Executive) Unrequest(key domain.EventKey) bool {
	pe, ok := e.h.removeByKey(key)
	if !ok {
		return false
	}
	if !pe.Daemon {
		e.nonDaemonCount--
	}
	metrics.QueueDepth.Set(float64(e.h.Len()))
	metrics.EventsRescinded.Inc()
	return true
}

// Pending reports how many events, daemon and non-daemon, remain queued.
func (e *Executive) Pending() int { return e.h.Len() }

// Run drains the event list, advancing the virtual clock to each event's
// When in turn, until no non-daemon events remain or ctx is cancelled. A
// run with only daemon events queued terminates immediately: daemon events
// exist to ride alongside real work, not to keep the clock running alone.
func (e *Executive) Run(ctx context.Context, gctx *domain.GraphContext) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.causalityErr != nil {
			return e.causalityErr
		}
		if e.nonDaemonCount == 0 || e.h.Len() == 0 {
			return nil
		}
		pe := heap.Pop(&e.h).(*pendingEvent)
		e.clock = pe.When
		if !pe.Daemon {
			e.nonDaemonCount--
		}
		metrics.QueueDepth.Set(float64(e.h.Len()))
		metrics.VirtualClock.Set(float64(e.clock))
		e.dispatch(pe.Event, gctx)
	}
}

// Step pops and dispatches a single event, reporting whether one was
// available. It exists for tests that want to observe the executive
// between events.
func (e *Executive) Step(gctx *domain.GraphContext) bool {
	if e.h.Len() == 0 {
		return false
	}
	pe := heap.Pop(&e.h).(*pendingEvent)
	e.clock = pe.When
	if !pe.Daemon {
		e.nonDaemonCount--
	}
	metrics.QueueDepth.Set(float64(e.h.Len()))
	metrics.VirtualClock.Set(float64(e.clock))
	e.dispatch(pe.Event, gctx)
	return true
}

// CausalityErr reports the first causality violation recorded by
// RequestEvent/RequestBatched/RequestActor since construction, or nil if
// IgnoreCausalityViolations is in effect or no violation has occurred.
func (e *Executive) CausalityErr() error { return e.causalityErr }

func (e *Executive) dispatch(ev domain.Event, gctx *domain.GraphContext) {
	start := time.Now()
	defer func() {
		metrics.DispatchLatency.WithLabelValues(ev.Kind.String()).Observe(time.Since(start).Seconds())
		metrics.EventsDispatched.WithLabelValues(ev.Kind.String()).Inc()
	}()
	switch ev.Kind {
	case domain.Synchronous, domain.Batched:
		ev.Callback(nil, gctx, ev.UserData)
	case domain.Detachable:
		e.runDetachable(ev, gctx)
	case domain.AsynchronousActor:
		for _, sub := range ev.Subscribers {
			subEv := ev
			subEv.Callback = sub
			e.runDetachable(subEv, gctx)
		}
	}
}

// runDetachable starts ev.Callback as a coroutine goroutine and pumps it
// until it either finishes or yields control back via a suspend call.
func (e *Executive) runDetachable(ev domain.Event, gctx *domain.GraphContext) {
	ctrl := newController(ev.Key, ev.When)
	cb := ev.Callback
	userData := ev.UserData
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(abortSignal); !ok {
					panic(r)
				}
			}
			close(ctrl.done)
		}()
		cb(ctrl, gctx, userData)
	}()
	e.pumpController(ctrl, gctx)
}

// pumpController blocks until ctrl's coroutine either yields or finishes.
// On a timed yield it schedules a resume event in the main heap and
// returns, letting the dispatch loop move on to the next event. On an
// indefinite yield (SuspendUntilResumed) it parks ctrl for an external
// ResumeParked call and returns. This is the only place the executive
// blocks waiting on a coroutine, guaranteeing detachable isolation: no two
// coroutines' user code ever runs concurrently.
func (e *Executive) pumpController(ctrl *Controller, gctx *domain.GraphContext) {
	select {
	case req := <-ctrl.yield:
		switch req.reason {
		case yieldUntilInstant:
			e.scheduleResume(ctrl, req.when, gctx)
		case yieldUntilResumed:
			e.parked[ctrl.key] = ctrl
			metrics.CoroutinesParked.Set(float64(len(e.parked)))
		}
	case <-ctrl.done:
	}
}

func (e *Executive) scheduleResume(ctrl *Controller, when domain.Instant, gctx *domain.GraphContext) {
	resumeCb := func(_ domain.EventController, rgctx *domain.GraphContext, _ any) {
		ctrl.current = e.clock
		ctrl.resume <- struct{}{}
		e.pumpController(ctrl, rgctx)
	}
	e.requestFull(domain.Event{When: when, Kind: domain.Synchronous, Callback: resumeCb})
}

// ResumeParked wakes a coroutine previously suspended with
// SuspendUntilResumed. It must be called from within a callback already
// running on the executive's dispatch goroutine (e.g. a resource release
// handler), never from an external goroutine. It reports false if key does
// not name a parked coroutine.
func (e *Executive) ResumeParked(key domain.EventKey, gctx *domain.GraphContext) bool {
	ctrl, ok := e.parked[key]
	if !ok {
		return false
	}
	delete(e.parked, key)
	metrics.CoroutinesParked.Set(float64(len(e.parked)))
	ctrl.current = e.clock
	ctrl.resume <- struct{}{}
	e.pumpController(ctrl, gctx)
	return true
}

// AbortParked requests that a parked coroutine unwind without resuming
// normally, running its deferred cleanup.
func (e *Executive) AbortParked(key domain.EventKey) bool {
	ctrl, ok := e.parked[key]
	if !ok {
		return false
	}
	delete(e.parked, key)
	metrics.CoroutinesParked.Set(float64(len(e.parked)))
	ctrl.Abort()
	<-ctrl.done
	return true
}
