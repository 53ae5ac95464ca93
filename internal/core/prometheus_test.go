package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusRecorderCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()

	rec.Observe(ctx, "resolve_task", true, 20*time.Millisecond)
	rec.Observe(ctx, "resolve_task", true, 5*time.Millisecond)
	rec.Observe(ctx, "update_task", false, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	if got := testutil.ToFloat64(rec.results.WithLabelValues("resolve_task", "success")); got != 2 {
		t.Fatalf("resolve success count = %v", got)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("update_task", "error")); got != 1 {
		t.Fatalf("update error count = %v", got)
	}
	if got := testutil.CollectAndCount(rec.durations); got == 0 {
		t.Fatalf("histogram collected nothing")
	}
}

func TestPrometheusRecorderDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
}

func TestPrometheusRecorderDrivesFromService(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc, store := newTestService(t, WithMetricsRecorder(rec))

	if _, err := svc.ListTasks(context.Background(), "P1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got := testutil.ToFloat64(rec.results.WithLabelValues("list_tasks", "success")); got != 1 {
		t.Fatalf("list_tasks success count = %v", got)
	}

	insertTask(t, store, factorTask("f1", "P1", "sf-1", time.Now().UTC()))
	if _, err := svc.ResolveTask(context.Background(), "P1", "f1"); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := testutil.ToFloat64(rec.resolutions.WithLabelValues(string(MatchID))); got != 1 {
		t.Fatalf("strategy count = %v", got)
	}
	if got := testutil.ToFloat64(rec.duplicates); got != 0 {
		t.Fatalf("duplicate count = %v", got)
	}
}
