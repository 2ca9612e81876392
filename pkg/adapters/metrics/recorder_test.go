package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	"k8s.io/apimachinery/pkg/runtime/schema"

	"ftoperator/pkg/agents/summary"
	"ftoperator/pkg/core"
)

func TestRecorderObserveReconcile(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)
	sum := &summary.Summary{}
	sum.Record("Secret", "bot-config", summary.ActionCreated)
	sum.Record("Deployment", "bot", summary.ActionCreated)
	sum.Record("Service", "bot", summary.ActionUnchanged)

	rec.ObserveReconcile(core.PhasePending, sum, nil, 250*time.Millisecond)

	if got := testutil.ToFloat64(rec.reconciles.WithLabelValues(ResultSuccess)); got != 1 {
		t.Fatalf("expected success counter 1, got %f", got)
	}
	if got := testutil.ToFloat64(rec.childOps.WithLabelValues("Deployment", "created")); got != 1 {
		t.Fatalf("expected deployment create counter 1, got %f", got)
	}
	if count := testutil.CollectAndCount(rec.childOps); count != 2 {
		t.Fatalf("expected unchanged children to be skipped, got %d series", count)
	}
	if count := testutil.CollectAndCount(rec.duration); count != 1 {
		t.Fatalf("expected histogram observation, got %d", count)
	}
}

func TestRecorderObserveErrors(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	rec.ObserveReconcile("", nil, apierrors.NewForbidden(schema.GroupResource{Resource: "secrets"}, "x", errors.New("denied")), time.Second)
	rec.ObserveReconcile("", nil, apierrors.NewTimeoutError("slow", 1), time.Second)
	rec.ObserveReconcile(core.PhaseDegraded, nil, nil, time.Second)

	if got := testutil.ToFloat64(rec.errors.WithLabelValues("rbac")); got != 1 {
		t.Fatalf("expected 1 rbac error, got %f", got)
	}
	if got := testutil.ToFloat64(rec.errors.WithLabelValues("transient")); got != 1 {
		t.Fatalf("expected 1 transient error, got %f", got)
	}
	if got := testutil.ToFloat64(rec.reconciles.WithLabelValues(ResultError)); got != 2 {
		t.Fatalf("expected 2 failed reconciles, got %f", got)
	}
	if got := testutil.ToFloat64(rec.reconciles.WithLabelValues(ResultDegraded)); got != 1 {
		t.Fatalf("expected 1 degraded reconcile, got %f", got)
	}
}

func TestRecorderPhaseGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorder(reg)

	rec.ObservePhase("trading/a", core.PhaseReady)
	rec.ObservePhase("trading/b", core.PhaseReady)
	rec.ObservePhase("trading/b", core.PhaseDegraded)
	if got := testutil.ToFloat64(rec.bots.WithLabelValues("Ready")); got != 1 {
		t.Fatalf("expected 1 ready bot, got %f", got)
	}
	if got := testutil.ToFloat64(rec.bots.WithLabelValues("Degraded")); got != 1 {
		t.Fatalf("expected 1 degraded bot, got %f", got)
	}

	rec.ForgetBot("trading/a")
	if got := testutil.ToFloat64(rec.bots.WithLabelValues("Ready")); got != 0 {
		t.Fatalf("expected forgotten bot to leave the gauge, got %f", got)
	}
}

func TestNewRecorderReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewRecorder(reg)
	second := NewRecorder(reg)
	second.ObserveReconcile(core.PhaseReady, nil, nil, time.Millisecond)
	if got := testutil.ToFloat64(first.reconciles.WithLabelValues(ResultSuccess)); got != 1 {
		t.Fatalf("expected recorders on one registry to share collectors, got %f", got)
	}
}

func TestRecorderNilSafe(t *testing.T) {
	var rec *Recorder
	rec.ObserveReconcile(core.PhaseReady, nil, nil, time.Second)
	rec.ObservePhase("a", core.PhaseReady)
}
