package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestReminderMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReminderMetrics(reg)
	m.IncAlert("lowStock")
	m.IncAlert("lowStock")
	m.IncNotification("expiry", OutcomeSkipped)
	m.IncDispatched()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "meditrack_reminders_alerts_created_total", "type", "lowStock"); err != nil || got != 2 {
		t.Fatalf("expected 2 lowStock alerts, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "meditrack_reminders_notifications_total", "outcome", OutcomeSkipped); err != nil || got != 1 {
		t.Fatalf("expected 1 skipped notification, got %f (%v)", got, err)
	}
	mf := findMetricFamily(mfs, "meditrack_reminders_dosage_triggers_fired_total")
	if mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatal("expected one dispatched trigger")
	}
}

func TestNilRecordersAreNoops(t *testing.T) {
	var r *ReminderMetrics
	r.IncAlert("expiry")
	r.IncNotification("dosage", OutcomeFailed)
	r.IncDispatched()
	NewReminderMetrics(nil).IncAlert("expiry")

	var h *HTTPMetrics
	h.Observe(http.MethodGet, "/x", 200, time.Millisecond)
	NewCronJobMetrics(nil).ObserveRun("job", time.Now(), time.Second, nil)
	var c *CronJobMetrics
	c.LockBusy()
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe(http.MethodGet, "/api/v1/products", http.StatusOK, 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchHistogramSum(mfs, "meditrack_http_request_duration_seconds", "route", "/api/v1/products"); err != nil || got <= 0 {
		t.Fatalf("expected observed latency, got %f (%v)", got, err)
	}
}
