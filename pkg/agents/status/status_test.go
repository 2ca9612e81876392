package status

import (
	"errors"
	"testing"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"ftoperator/pkg/agents/summary"
	"ftoperator/pkg/core"
)

func availableDeployment() *appsv1.Deployment {
	replicas := int32(1)
	return &appsv1.Deployment{
		ObjectMeta: metav1.ObjectMeta{Name: "bot", Generation: 2},
		Spec:       appsv1.DeploymentSpec{Replicas: &replicas},
		Status: appsv1.DeploymentStatus{
			ObservedGeneration: 2,
			Replicas:           1,
			UpdatedReplicas:    1,
			AvailableReplicas:  1,
		},
	}
}

func unchanged() *summary.Summary {
	sum := &summary.Summary{}
	sum.Record("Secret", "bot-config", summary.ActionUnchanged)
	sum.Record("Deployment", "bot", summary.ActionUnchanged)
	return sum
}

func TestComputeReady(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	children := []core.ChildRef{{Kind: "Secret", Name: "bot-config"}, {Kind: "Deployment", Name: "bot"}}
	status := Compute(core.BotStatus{}, Observation{Generation: 3, Summary: unchanged(), ConfigHash: "abc", Children: children, Deployment: availableDeployment()}, now)

	if status.Phase != core.PhaseReady || status.ObservedGeneration != 3 || status.LastAppliedConfigHash != "abc" {
		t.Fatalf("unexpected status: %+v", status)
	}
	ready := meta.FindStatusCondition(status.Conditions, core.CondReady)
	if ready == nil || ready.Status != metav1.ConditionTrue || ready.Reason != ReasonAvailable {
		t.Fatalf("ready condition unexpected: %+v", ready)
	}
	if !ready.LastTransitionTime.Time.Equal(now) {
		t.Fatalf("ready transition time incorrect: %s", ready.LastTransitionTime)
	}
	if !meta.IsStatusConditionFalse(status.Conditions, core.CondDegraded) || !meta.IsStatusConditionFalse(status.Conditions, core.CondProgressing) {
		t.Fatalf("expected progressing and degraded false: %+v", status.Conditions)
	}
	if !equality.Semantic.DeepEqual(status.Children, children) {
		t.Fatalf("expected children recorded, got %+v", status.Children)
	}
}

func TestComputeProgressingWhileChildrenChange(t *testing.T) {
	sum := unchanged()
	sum.Record("Service", "bot", summary.ActionCreated)
	status := Compute(core.BotStatus{}, Observation{Summary: sum, Deployment: availableDeployment()}, time.Now())
	if status.Phase != core.PhaseProgressing {
		t.Fatalf("expected progressing, got %s", status.Phase)
	}
	if !meta.IsStatusConditionTrue(status.Conditions, core.CondProgressing) || meta.IsStatusConditionTrue(status.Conditions, core.CondReady) {
		t.Fatalf("expected ready to wait for pending writes: %+v", status.Conditions)
	}
}

func TestComputeRollingOut(t *testing.T) {
	deployment := availableDeployment()
	deployment.Status.AvailableReplicas = 0
	status := Compute(core.BotStatus{}, Observation{Summary: unchanged(), Deployment: deployment}, time.Now())
	ready := meta.FindStatusCondition(status.Conditions, core.CondReady)
	if status.Phase != core.PhaseProgressing || ready.Reason != ReasonRollingOut || ready.Message != "0 of 1 replicas available" {
		t.Fatalf("unexpected rollout status: %s %+v", status.Phase, ready)
	}
}

func TestComputePendingBeforeDeploymentObserved(t *testing.T) {
	status := Compute(core.BotStatus{}, Observation{Summary: unchanged(), Deployment: &appsv1.Deployment{}}, time.Now())
	if status.Phase != core.PhasePending {
		t.Fatalf("expected pending, got %s", status.Phase)
	}
}

func TestComputeChildUnhealthy(t *testing.T) {
	deployment := availableDeployment()
	deployment.Status.AvailableReplicas = 0
	deployment.Status.Conditions = []appsv1.DeploymentCondition{{
		Type:    appsv1.DeploymentProgressing,
		Status:  corev1.ConditionFalse,
		Reason:  "ProgressDeadlineExceeded",
		Message: "ReplicaSet has timed out progressing",
	}}
	status := Compute(core.BotStatus{}, Observation{Summary: unchanged(), Deployment: deployment}, time.Now())
	degraded := meta.FindStatusCondition(status.Conditions, core.CondDegraded)
	if status.Phase != core.PhaseDegraded || degraded.Reason != ReasonChildUnhealthy {
		t.Fatalf("expected child unhealthy, got %s %+v", status.Phase, degraded)
	}
}

func TestComputeInvalidKeepsLastApplied(t *testing.T) {
	previous := core.BotStatus{LastAppliedConfigHash: "old", Children: []core.ChildRef{{Kind: "Deployment", Name: "bot"}}}
	status := Compute(previous, Observation{Generation: 4, Invalid: "spec.exchange: Required value"}, time.Now())
	if status.Phase != core.PhaseDegraded || status.LastAppliedConfigHash != "old" || len(status.Children) != 1 {
		t.Fatalf("expected degraded with last applied state kept: %+v", status)
	}
	degraded := meta.FindStatusCondition(status.Conditions, core.CondDegraded)
	if degraded.Reason != ReasonInvalidSpec || degraded.Message != "spec.exchange: Required value" || degraded.ObservedGeneration != 4 {
		t.Fatalf("unexpected degraded condition: %+v", degraded)
	}
}

func TestComputeErrorUsesReason(t *testing.T) {
	status := Compute(core.BotStatus{}, Observation{Err: errors.New("secret missing"), Reason: ReasonSecretNotFound}, time.Now())
	ready := meta.FindStatusCondition(status.Conditions, core.CondReady)
	if ready.Reason != ReasonSecretNotFound || ready.Message != "reconciliation failed: secret missing" {
		t.Fatalf("unexpected ready condition: %+v", ready)
	}

	status = Compute(core.BotStatus{}, Observation{Err: errors.New("boom")}, time.Now())
	if meta.FindStatusCondition(status.Conditions, core.CondDegraded).Reason != ReasonReconcileError {
		t.Fatalf("expected default reason")
	}
}

func TestComputeTerminating(t *testing.T) {
	status := Compute(core.BotStatus{}, Observation{Terminating: true}, time.Now())
	if status.Phase != core.PhaseTerminating {
		t.Fatalf("expected terminating, got %s", status.Phase)
	}
}

func TestComputeIsStableAcrossPasses(t *testing.T) {
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	obs := Observation{Generation: 1, Summary: unchanged(), Deployment: availableDeployment()}
	status := Compute(core.BotStatus{}, obs, first)
	again := Compute(status, obs, first.Add(time.Hour))
	if !equality.Semantic.DeepEqual(status, again) {
		t.Fatalf("expected identical status for an identical observation:\n%+v\n%+v", status, again)
	}

	failed := Compute(again, Observation{Generation: 1, Err: errors.New("boom")}, first.Add(2*time.Hour))
	ready := meta.FindStatusCondition(failed.Conditions, core.CondReady)
	if !ready.LastTransitionTime.Time.Equal(first.Add(2 * time.Hour)) {
		t.Fatalf("expected new transition time on status change, got %s", ready.LastTransitionTime)
	}
}

func TestComputeDoesNotAliasPreviousConditions(t *testing.T) {
	previous := Compute(core.BotStatus{}, Observation{Summary: unchanged(), Deployment: availableDeployment()}, time.Now())
	snapshot := previous.Conditions[0]
	Compute(previous, Observation{Err: errors.New("boom")}, time.Now())
	if previous.Conditions[0] != snapshot {
		t.Fatalf("expected previous conditions to be left alone")
	}
}
