package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestExecutiveMetrics_Registered(t *testing.T) {
	QueueDepth.Set(3)
	VirtualClock.Set(12.5)
	DispatchLatency.WithLabelValues("Detachable").Observe(0.002)
	EventsDispatched.WithLabelValues("Synchronous").Inc()
	EventsRescinded.Inc()
	CoroutinesParked.Set(1)

	names := gatheredNames(t)
	for _, want := range []string{
		"sagekernel_event_queue_depth",
		"sagekernel_virtual_clock",
		"sagekernel_dispatch_latency_seconds",
		"sagekernel_events_dispatched_total",
		"sagekernel_events_rescinded_total",
		"sagekernel_coroutines_parked",
	} {
		if !names[want] {
			t.Errorf("metric %q not found", want)
		}
	}
}

func TestTaskGraphMetrics_Registered(t *testing.T) {
	EdgesStarted.WithLabelValues("pour-foundation").Inc()
	EdgesFailed.WithLabelValues("pour-foundation").Inc()
	EdgeDuration.WithLabelValues("pour-foundation").Observe(4.0)

	names := gatheredNames(t)
	for _, want := range []string{
		"sagekernel_edges_started_total",
		"sagekernel_edges_failed_total",
		"sagekernel_edge_duration",
	} {
		if !names[want] {
			t.Errorf("metric %q not found", want)
		}
	}
}

func TestMilestoneMetrics_Registered(t *testing.T) {
	MilestoneMoves.Inc()
	MilestoneRollbacks.Inc()

	names := gatheredNames(t)
	for _, want := range []string{"sagekernel_milestone_moves_total", "sagekernel_milestone_rollbacks_total"} {
		if !names[want] {
			t.Errorf("metric %q not found", want)
		}
	}
}

func TestResourceManagerMetrics_Registered(t *testing.T) {
	ResourceUtilization.WithLabelValues("teller").Set(1.0)
	ResourceWaiters.Set(2)
	ResourceAcquireFailures.WithLabelValues("teller").Inc()

	names := gatheredNames(t)
	for _, want := range []string{
		"sagekernel_resource_utilization_ratio",
		"sagekernel_resource_waiters",
		"sagekernel_resource_acquire_failures_total",
	} {
		if !names[want] {
			t.Errorf("metric %q not found", want)
		}
	}
}

func TestValidityMetrics_Registered(t *testing.T) {
	ValidityFlips.Inc()

	names := gatheredNames(t)
	if !names["sagekernel_validity_flips_total"] {
		t.Error("sagekernel_validity_flips_total not found")
	}
}

func TestAllMetricsGatherable(t *testing.T) {
	names := gatheredNames(t)
	count := 0
	for name := range names {
		if len(name) > len("sagekernel_") && name[:len("sagekernel_")] == "sagekernel_" {
			count++
		}
	}
	if count < 12 {
		t.Errorf("expected at least 12 sagekernel_ metrics, got %d", count)
	}
}
