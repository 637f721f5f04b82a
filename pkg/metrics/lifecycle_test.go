package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestLifecycleMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLifecycleMetrics(reg)

	m.ObserveTransition("purchased", "partially_delivered")
	m.ObserveTransition("purchased", "partially_delivered")
	m.IncCreated("customer")
	m.IncLowStock("suppressed")
	m.IncPublished("order_created", "ok")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "order_status_transitions_total", "to", "partially_delivered"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected transitions=2, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "orders_created_total", "origin", "customer"); err != nil || got != 1 {
		t.Fatalf("unexpected created counter %f %v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "inventory_low_stock_signals_total", "outcome", "suppressed"); err != nil || got != 1 {
		t.Fatalf("unexpected low stock counter %f %v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "outbox_events_published_total", "result", "ok"); err != nil || got != 1 {
		t.Fatalf("unexpected published counter %f %v", got, err)
	}
}

func TestLifecycleMetricsSyncHistogramAndFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLifecycleMetrics(reg)

	m.ObserveSync(250*time.Millisecond, nil)
	m.ObserveSync(100*time.Millisecond, fmt.Errorf("catalog unavailable"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "inventory_sync_duration_seconds")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("sync histogram missing")
	}
	if count := mf.GetMetric()[0].GetHistogram().GetSampleCount(); count != 2 {
		t.Fatalf("expected 2 samples, got %d", count)
	}
	failures := findMetricFamily(mfs, "inventory_sync_failures_total")
	if failures == nil || failures.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one sync failure")
	}
}

func TestLifecycleMetricsScheduledJobs(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLifecycleMetrics(reg)

	m.ObserveJob("inventory-sync", time.Second, nil)
	m.ObserveJob("outbox-retention", time.Second, fmt.Errorf("db down"))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "scheduled_job_failures_total", "job", "outbox-retention"); err != nil || got != 1 {
		t.Fatalf("unexpected job failure counter %f %v", got, err)
	}
	if _, err := fetchCounterValue(mfs, "scheduled_job_failures_total", "job", "inventory-sync"); err == nil {
		t.Fatalf("successful job must not count as failure")
	}
	if mf := findMetricFamily(mfs, "scheduled_job_duration_seconds"); mf == nil || len(mf.GetMetric()) != 2 {
		t.Fatalf("expected two job histograms")
	}
}

func TestLifecycleMetricsHTTPRequests(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLifecycleMetrics(reg)

	m.ObserveRequest("/api/v1/orders/{orderId}", "GET", 200, 10*time.Millisecond)
	m.ObserveRequest("/api/v1/orders/{orderId}", "GET", 204, 10*time.Millisecond)
	m.ObserveRequest("", "POST", 503, time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	mf := findMetricFamily(mfs, "http_request_duration_seconds")
	if mf == nil || len(mf.GetMetric()) != 2 {
		t.Fatalf("expected two label sets, got %v", mf)
	}
	for _, metric := range mf.GetMetric() {
		switch {
		case matchesLabel(metric.GetLabel(), "status", "2xx"):
			if metric.GetHistogram().GetSampleCount() != 2 {
				t.Fatalf("expected 2xx requests to share a series")
			}
		case matchesLabel(metric.GetLabel(), "status", "5xx"):
			if !matchesLabel(metric.GetLabel(), "route", "unknown") {
				t.Fatalf("empty route should be labelled unknown")
			}
		default:
			t.Fatalf("unexpected series %v", metric.GetLabel())
		}
	}
	if statusClass(42) != "unknown" {
		t.Fatal("out of range status should be unknown")
	}
}

func TestLifecycleMetricsNilSafe(t *testing.T) {
	var m *LifecycleMetrics
	m.ObserveTransition("a", "b")
	m.ObserveSync(time.Second, nil)
	m.ObserveJob("inventory-sync", time.Second, nil)
	m.ObserveRequest("/", "GET", 200, time.Second)

	unregistered := NewLifecycleMetrics(nil)
	unregistered.IncCreated("admin")
	unregistered.IncCodeCollision()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
