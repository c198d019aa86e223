// Package metrics provides Prometheus metrics for the simulation kernel:
// event queue depth, dispatch latency, detachable coroutine concurrency,
// resource utilization, and milestone rollback counts.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sagekernel"

// ─── Executive ──────────────────────────────────────────────────────────────

// QueueDepth tracks how many events are currently pending on the event
// list, daemon and non-daemon combined.
var QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "event_queue_depth",
	Help:      "Number of events currently pending on the event list.",
})

// DispatchLatency tracks wall-clock time spent dispatching one event
// (Synchronous/Batched run to completion, or Detachable/AsynchronousActor
// up to its first yield), by event kind.
var DispatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "dispatch_latency_seconds",
	Help:      "Wall-clock time spent dispatching one event.",
	Buckets:   prometheus.DefBuckets,
}, []string{"kind"})

// EventsDispatched counts events dispatched by kind.
var EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "events_dispatched_total",
	Help:      "Total events dispatched, by kind.",
}, []string{"kind"})

// EventsRescinded counts events unrequested before they fired.
var EventsRescinded = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "events_rescinded_total",
	Help:      "Total events rescinded via Unrequest before firing.",
})

// CoroutinesParked tracks detachable coroutines currently suspended
// indefinitely (SuspendUntilResumed), awaiting an external wake.
var CoroutinesParked = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "coroutines_parked",
	Help:      "Number of detachable coroutines parked awaiting external resume.",
})

// VirtualClock tracks the executive's current virtual clock value.
var VirtualClock = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "virtual_clock",
	Help:      "The executive's current virtual clock value.",
})

// ─── Task Graph ─────────────────────────────────────────────────────────────

// EdgesStarted counts edge executions started, by edge name.
var EdgesStarted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "edges_started_total",
	Help:      "Total edge executions started, by edge name.",
}, []string{"edge"})

// EdgesFailed counts edge executions whose processor panicked or returned
// selfValid=false, by edge name.
var EdgesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "edges_failed_total",
	Help:      "Total edge executions that ended self-invalid, by edge name.",
}, []string{"edge"})

// EdgeDuration tracks observed edge execution durations (PERT input), by
// edge name.
var EdgeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "edge_duration",
	Help:      "Observed edge execution durations in virtual-clock units.",
	Buckets:   prometheus.DefBuckets,
}, []string{"edge"})

// ─── Milestone Network ──────────────────────────────────────────────────────

// MilestoneMoves counts successful MoveTo calls.
var MilestoneMoves = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "milestone_moves_total",
	Help:      "Total successful milestone MoveTo calls.",
})

// MilestoneRollbacks counts MoveTo calls that violated a relationship
// window and rolled back the whole transaction.
var MilestoneRollbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "milestone_rollbacks_total",
	Help:      "Total milestone moves rolled back after a relationship violation.",
})

// ─── Resource Manager ───────────────────────────────────────────────────────

// ResourceUtilization tracks the fraction of a resource's capacity
// currently held, by resource name.
var ResourceUtilization = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "resource_utilization_ratio",
	Help:      "Fraction of a resource pool's capacity currently held.",
}, []string{"resource"})

// ResourceWaiters tracks the current length of the resource manager's
// waiting queue.
var ResourceWaiters = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "resource_waiters",
	Help:      "Number of requests currently queued awaiting resource availability.",
})

// ResourceAcquireFailures counts non-blocking Acquire calls that failed
// immediately, once per requested line's resource. Blocking calls that
// cannot be satisfied are queued as waiters and are not counted here.
var ResourceAcquireFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "resource_acquire_failures_total",
	Help:      "Total Acquire calls that failed to reserve every requested line.",
}, []string{"resource"})

// ─── Validity Service ───────────────────────────────────────────────────────

// ValidityFlips counts overall-validity cascade flips (a node's computed
// overall validity changed and propagated to its downstream dependents).
var ValidityFlips = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "validity_flips_total",
	Help:      "Total nodes whose overall validity flipped during a cascade.",
})
