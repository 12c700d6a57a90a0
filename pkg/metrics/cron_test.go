package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetricsObserveRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	finished := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	m.ObserveRun("dosage-dispatch", finished, 250*time.Millisecond, nil)
	m.ObserveRun("dosage-dispatch", finished.Add(time.Minute), time.Second, errors.New("boom"))
	m.ObserveRun("", finished, time.Millisecond, nil)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	runs := findMetricFamily(mfs, "meditrack_cron_job_runs_total")
	require.NotNil(t, runs)
	assert.Equal(t, 1.0, counterWithLabels(runs, map[string]string{"job": "dosage-dispatch", "status": "success"}))
	assert.Equal(t, 1.0, counterWithLabels(runs, map[string]string{"job": "dosage-dispatch", "status": "failure"}))
	assert.Equal(t, 1.0, counterWithLabels(runs, map[string]string{"job": "unknown", "status": "success"}))

	last := findMetricFamily(mfs, "meditrack_cron_job_last_success_timestamp_seconds")
	require.NotNil(t, last)
	for _, metric := range last.GetMetric() {
		if matchesLabel(metric.GetLabel(), "job", "dosage-dispatch") {
			assert.Equal(t, float64(finished.Unix()), metric.GetGauge().GetValue(), "failure must not move the timestamp")
		}
	}

	sum, err := fetchHistogramSum(mfs, "meditrack_cron_job_duration_seconds", "job", "dosage-dispatch")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, sum, 1e-9)
}

func TestCronJobMetricsLockBusy(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.LockBusy()
	m.LockBusy()

	mfs, err := reg.Gather()
	require.NoError(t, err)
	mf := findMetricFamily(mfs, "meditrack_cron_lock_busy_total")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, 2.0, mf.GetMetric()[0].GetCounter().GetValue())
}

func counterWithLabels(mf *dto.MetricFamily, want map[string]string) float64 {
	for _, metric := range mf.GetMetric() {
		ok := true
		for name, value := range want {
			if !matchesLabel(metric.GetLabel(), name, value) {
				ok = false
				break
			}
		}
		if ok {
			return metric.GetCounter().GetValue()
		}
	}
	return -1
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	got := counterWithLabels(mf, map[string]string{label: value})
	if got < 0 {
		return 0, fmt.Errorf("metric %q has no series %s=%s", name, label, value)
	}
	return got, nil
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q has no series %s=%s", name, label, value)
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
